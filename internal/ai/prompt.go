package ai

import (
	"fmt"
	"strings"
)

var languageNames = map[string]string{
	"nl": "Dutch",
	"en": "English",
	"de": "German",
	"fr": "French",
	"es": "Spanish",
	"it": "Italian",
}

func languageName(code string) string {
	if name, ok := languageNames[strings.ToLower(code)]; ok {
		return name
	}
	return code
}

func buildPrompt(text, source, target string) string {
	return fmt.Sprintf(`Translate the following %s text to %s.
Provide only the translation, no explanations or additional text.
Keep line breaks and list structure as they are.

Text to translate:
%s

Translation:`, languageName(source), languageName(target), text)
}

// cleanTranslation strips wrappers some models add around the answer.
func cleanTranslation(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```text")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)
	if strings.HasPrefix(strings.ToLower(s), "translation:") {
		s = strings.TrimSpace(s[len("translation:"):])
	}
	return s
}
