package moderation

import (
	"chat-relay/errors"
	"log/slog"

	"github.com/abadojack/whatlanggo"
)

// LanguageModerator picks the dictionary of the detected content language.
// Content in a language without its own dictionary is checked against every word.
type LanguageModerator struct {
	log       *slog.Logger
	languages map[string]*Moderator
	fallback  *Moderator
}

func NewLanguageModerator(data *CensoredData, censoredChar rune, log *slog.Logger) (*LanguageModerator, error) {
	fallback, err := NewModerator(data.Words, censoredChar, log)
	if err != nil {
		return nil, err
	}
	languages := make(map[string]*Moderator, len(data.ByLanguage))
	for lang, words := range data.ByLanguage {
		m, err := NewModerator(words, censoredChar, log)
		if errors.Is(err, errors.ErrEmptyWords) {
			log.Debug("Skipping empty dictionary", "lang", lang)
			continue
		}
		if err != nil {
			return nil, err
		}
		languages[lang] = m
	}
	return &LanguageModerator{log: log, languages: languages, fallback: fallback}, nil
}

// Language returns the ISO 639-1 code of the content, empty when undetermined.
func (m *LanguageModerator) Language(content string) string {
	return whatlanggo.Detect(content).Lang.Iso6391()
}

func (m *LanguageModerator) Censor(original string) (string, []string) {
	lang := m.Language(original)
	moderator, ok := m.languages[lang]
	if !ok {
		moderator = m.fallback
	}
	censored, words := moderator.Censor(original)
	if len(words) > 0 {
		m.log.Debug("Forbidden words found", "lang", lang, "dictionary", ok, "count", len(words))
	}
	return censored, words
}
