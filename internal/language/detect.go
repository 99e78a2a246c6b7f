// Package language classifies question text into one of the languages the
// chat endpoint answers in.
package language

import (
	"strings"
	"unicode"
)

// Code is a supported answer language.
type Code string

const (
	English Code = "en"
	Russian Code = "ru"
	Kazakh  Code = "kk"
	Arabic  Code = "ar"
	Urdu    Code = "ur"
)

var names = map[Code]string{
	English: "English",
	Russian: "Russian",
	Kazakh:  "Kazakh",
	Arabic:  "Arabic",
	Urdu:    "Urdu",
}

// Name returns the English display name used in prompts. Unknown codes
// report as English.
func (c Code) Name() string {
	if name, ok := names[c]; ok {
		return name
	}
	return names[English]
}

// IsEnglish reports whether answers in c need no translation.
func (c Code) IsEnglish() bool {
	return c == English || c == ""
}

// kazakhLetters are the Kazakh letters absent from the Russian alphabet.
const kazakhLetters = "ңғүұқәі"

var (
	cyrillicExtA = &unicode.RangeTable{R16: []unicode.Range16{{Lo: 0x0500, Hi: 0x052F, Stride: 1}}}
	arabic       = &unicode.RangeTable{R16: []unicode.Range16{{Lo: 0x0600, Hi: 0x06FF, Stride: 1}}}
	urduExt      = &unicode.RangeTable{R16: []unicode.Range16{
		{Lo: 0x0750, Hi: 0x077F, Stride: 1},
		{Lo: 0xFB50, Hi: 0xFDFF, Stride: 1},
	}}
	cyrillic = &unicode.RangeTable{R16: []unicode.Range16{{Lo: 0x0400, Hi: 0x04FF, Stride: 1}}}
)

// Detect classifies text by script. Rules are checked in order and the first
// hit wins: Kazakh letters overlap the Cyrillic block, so they go first.
func Detect(text string) Code {
	switch {
	case strings.ContainsAny(strings.ToLower(text), kazakhLetters), containsIn(text, cyrillicExtA):
		return Kazakh
	case containsIn(text, arabic):
		return Arabic
	case containsIn(text, urduExt):
		return Urdu
	case containsIn(text, cyrillic):
		return Russian
	default:
		return English
	}
}

func containsIn(text string, table *unicode.RangeTable) bool {
	for _, r := range text {
		if unicode.Is(table, r) {
			return true
		}
	}
	return false
}
