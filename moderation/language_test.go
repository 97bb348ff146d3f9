package moderation

import (
	"log/slog"
	"testing"
	"testing/fstest"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

const frenchSentence = "Je ne comprends vraiment pas pourquoi tu dis toujours merde quand nous sommes ensemble à la maison"

func TestLanguageModerator_Censors_French_Word_In_French_Text(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	data, err := NewCensoredLoader(nil).LoadAll("censored")
	req.NoError(err)

	mod, err := NewLanguageModerator(data, replacementChar, log)
	req.NoError(err)

	// Given a French sentence
	req.Equal("fr", mod.Language(frenchSentence))

	// When it is censored
	content, words := mod.Censor(frenchSentence)

	// Then the French dictionary masks the word
	req.Equal("Je ne comprends vraiment pas pourquoi tu dis toujours ***** quand nous sommes ensemble à la maison", content)
	req.Equal([]string{"merde"}, words)
}

func TestLanguageModerator_Uses_Detected_Language_Dictionary(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	files := fstest.MapFS{
		"words/en.txt": {Data: []byte("badger\n")},
		"words/fr.txt": {Data: []byte("champignon\n")},
	}
	data, err := NewCensoredLoader(files).LoadAll("words")
	req.NoError(err)
	mod, err := NewLanguageModerator(data, replacementChar, log)
	req.NoError(err)

	// When French content holds words of both dictionaries
	input := "Nous avons mangé un champignon et vu un badger dans la forêt ce matin avec mes amis"
	content, words := mod.Censor(input)

	// Then only the French one is masked
	req.Equal("Nous avons mangé un ********** et vu un badger dans la forêt ce matin avec mes amis", content)
	req.Equal([]string{"champignon"}, words)
}

func TestLanguageModerator_Falls_Back_To_Every_Word(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	files := fstest.MapFS{
		"words/en.txt": {Data: []byte("badger\n")},
		"words/fr.txt": {Data: []byte("champignon\n")},
	}
	data, err := NewCensoredLoader(files).LoadAll("words")
	req.NoError(err)
	mod, err := NewLanguageModerator(data, replacementChar, log)
	req.NoError(err)

	// Given German content, no German dictionary
	input := "Ich habe heute Morgen im Wald einen badger gesehen und wir waren sehr glücklich darüber"

	content, words := mod.Censor(input)

	req.Equal("Ich habe heute Morgen im Wald einen ****** gesehen und wir waren sehr glücklich darüber", content)
	req.Equal([]string{"badger"}, words)
}
