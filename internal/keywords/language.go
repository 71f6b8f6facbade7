package keywords

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
)

// languageConstants maps base languages to ads language constant ids.
var languageConstants = map[string]int{
	"en": 1000,
	"de": 1001,
	"fr": 1002,
	"es": 1003,
	"it": 1004,
	"ja": 1005,
	"da": 1009,
	"nl": 1010,
	"fi": 1011,
	"ko": 1012,
	"no": 1013,
	"pt": 1014,
	"sv": 1015,
	"pl": 1030,
	"ru": 1031,
	"tr": 1037,
}

// LanguageConstant resolves a BCP-47 tag ("en", "en-GB", "pt-BR") to a
// languageConstants resource name. Bare numeric ids and resource names
// pass through.
func LanguageConstant(tag string) (string, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		tag = "en"
	}
	if strings.HasPrefix(tag, "languageConstants/") {
		return tag, nil
	}
	if _, err := strconv.Atoi(tag); err == nil {
		return "languageConstants/" + tag, nil
	}

	base, err := baseLanguage(tag)
	if err != nil {
		return "", err
	}
	id, ok := languageConstants[base]
	if !ok {
		return "", eris.Errorf("keywords: no language constant for %q", tag)
	}
	return "languageConstants/" + strconv.Itoa(id), nil
}

// Locale returns the base language of tag for geo-target suggestions.
func Locale(tag string) (string, error) {
	if strings.TrimSpace(tag) == "" {
		return "en", nil
	}
	return baseLanguage(tag)
}

func baseLanguage(tag string) (string, error) {
	t, err := language.Parse(tag)
	if err != nil {
		return "", eris.Wrapf(err, "keywords: parse language %q", tag)
	}
	base, _ := t.Base()
	return base.String(), nil
}
