package moderation

import (
	"bufio"
	"bytes"
	"chat-relay/errors"
	"embed"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/samber/lo"
)

//go:embed censored/*.txt
var censoredFolder embed.FS

// CensoredData carries the result of the loading process including metadata for logging.
type CensoredData struct {
	Words      []string
	Languages  []string
	ByLanguage map[string][]string
}

// CensoredLoader reads blacklisted words, one per line, from .txt dictionaries.
type CensoredLoader struct {
	fs fs.FS
}

// NewCensoredLoader uses the dictionaries shipped with the binary when f is nil.
func NewCensoredLoader(f fs.FS) *CensoredLoader {
	if f == nil {
		f = censoredFolder
	}
	return &CensoredLoader{fs: f}
}

// LoadAll parses every dictionary of the directory into a unique list of words.
// The file name without extension is the language (e.g. "fr.txt" -> "fr").
func (l *CensoredLoader) LoadAll(dir string) (*CensoredData, error) {
	entries, err := fs.ReadDir(l.fs, dir)
	if err != nil {
		return nil, err
	}

	var languages []string
	uniqueWords := make(map[string]struct{})
	byLanguage := make(map[string][]string)

	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".txt" {
			continue
		}
		lang := strings.TrimSuffix(entry.Name(), ".txt")
		languages = append(languages, lang)

		data, err := fs.ReadFile(l.fs, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}

		// ⚠️Don't use strings.Split, dictionaries may use \r\n
		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" {
				uniqueWords[line] = struct{}{}
				byLanguage[lang] = append(byLanguage[lang], line)
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		byLanguage[lang] = lo.Uniq(byLanguage[lang])
	}

	if len(uniqueWords) == 0 {
		return nil, errors.ErrEmptyWords
	}

	words := make([]string, 0, len(uniqueWords))
	for w := range uniqueWords {
		words = append(words, w)
	}
	sort.Strings(words)

	return &CensoredData{Words: words, Languages: languages, ByLanguage: byLanguage}, nil
}
