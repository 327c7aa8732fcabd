package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetLengthFactor(t *testing.T) {
	tests := []struct {
		name     string
		src      Language
		dst      Language
		expected float64
	}{
		{name: "same latin language", src: Language{Lid: "en"}, dst: Language{Lid: "en"}, expected: 1.2},
		{name: "different latin languages", src: Language{Lid: "en"}, dst: Language{Lid: "de"}, expected: 1.2},
		{name: "cjk to cjk", src: Language{Lid: "zh"}, dst: Language{Lid: "ja"}, expected: 1.2},
		{name: "latin to cjk", src: Language{Lid: "en"}, dst: Language{Lid: "zh"}, expected: 0.7},
		{name: "cjk to latin", src: Language{Lid: "zh"}, dst: Language{Lid: "en"}, expected: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetLengthFactor(tt.src, tt.dst))
		})
	}
}

func TestLatin(t *testing.T) {
	assert.True(t, Language{Lid: "en"}.Latin())
	assert.True(t, Language{Lid: "fr"}.Latin())
	assert.False(t, Language{Lid: "zh"}.Latin())
	assert.False(t, Language{Lid: "ja"}.Latin())
	assert.False(t, Language{Lid: "ko"}.Latin())
}

func TestDetectLanguage(t *testing.T) {
	assert.Equal(t, "en", DetectLanguage("# Introduction\n\nThis document covers the basics.").Lid)
	assert.Equal(t, "zh", DetectLanguage("# 简介\n\n本文介绍了基础知识。").Lid)
	// No letters at all defaults to english.
	assert.Equal(t, "en", DetectLanguage("123 456 !!!").Lid)
}
