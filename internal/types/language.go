package types

import "unicode"

// Language identifies the language of a document or template using a
// short language id (e.g. "en", "zh"), mirroring the ids emitted by
// common language-identification models.
type Language struct {
	Lid string `json:"lid"`
}

// cjkLids are the language ids treated as CJK for length estimation.
var cjkLids = map[string]bool{
	"zh": true,
	"ja": true,
	"ko": true,
}

// Latin reports whether the language belongs to the latin family for
// glyph-density purposes. Anything not CJK is treated as latin.
func (l Language) Latin() bool {
	return !cjkLids[l.Lid]
}

// GetLengthFactor returns the multiplier applied to generated text length
// when translating between the template language and the target language.
// Same-family text runs about 1.2x the template length; latin text shrinks
// to about 0.7x when rendered in CJK glyphs, and CJK text roughly doubles
// when spelled out in a latin script.
func GetLengthFactor(src, dst Language) float64 {
	switch {
	case src.Latin() == dst.Latin():
		return 1.2
	case src.Latin():
		return 0.7
	default:
		return 2
	}
}

// DetectLanguage guesses the document language from its leading text by
// counting CJK versus other letters. It is a stand-in for an external
// language-identification model and only needs to distinguish the
// families that drive the length factor.
func DetectLanguage(text string) Language {
	runes := []rune(text)
	if len(runes) > 1024 {
		runes = runes[:1024]
	}
	var cjk, letters int
	for _, r := range runes {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.Is(unicode.Han, r) || unicode.Is(unicode.Hiragana, r) ||
			unicode.Is(unicode.Katakana, r) || unicode.Is(unicode.Hangul, r) {
			cjk++
		}
	}
	if letters > 0 && cjk*2 > letters {
		return Language{Lid: "zh"}
	}
	return Language{Lid: "en"}
}
