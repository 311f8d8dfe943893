package utils

import "strings"

// prefixes are matched against the lower-cased compiler name; first match wins
var languageFamilies = []struct {
	prefix string
	family string
}{
	{"gnu c++", "cpp"},
	{"gnu g++", "cpp"},
	{"clang++", "cpp"},
	{"ms c++", "cpp"},
	{"c++", "cpp"},
	{"gnu c11", "c"},
	{"gnu c", "c"},
	{"pypy", "python"},
	{"python", "python"},
	{"javascript", "js"},
	{"node.js", "js"},
	{"java", "java"},
	{"kotlin", "kotlin"},
	{"go", "go"},
	{"ms c#", "csharp"},
	{"c#", "csharp"},
	{".net", "csharp"},
	{"rust", "rust"},
	{"scala", "scala"},
	{"ruby", "ruby"},
	{"haskell", "haskell"},
	{"pascal", "pascal"},
	{"free pascal", "pascal"},
	{"delphi", "pascal"},
	{"php", "php"},
	{"perl", "perl"},
	{"d ", "d"},
	{"ocaml", "ocaml"},
}

// NormalizeLanguage maps a Codeforces compiler string such as "GNU G++17 7.3.0" to a language family.
// Unknown compilers fall back to their lower-cased first word.
func NormalizeLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return ""
	}
	for _, f := range languageFamilies {
		if strings.HasPrefix(lang, f.prefix) {
			return f.family
		}
	}
	return strings.ToLower(ShortLanguageName(lang))
}

// ShortLanguageName is the first word of a compiler name, "" for an empty name.
func ShortLanguageName(lang string) string {
	fields := strings.Fields(lang)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
