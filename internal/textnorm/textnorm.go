// Package textnorm folds noisy OCR text into comparable forms.
//
// DisplayForm is safe to show to a user. MatchForm is aggressive and only ever
// used for substring and edit-distance comparison.
package textnorm

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// matchStripped lists the punctuation removed by MatchForm in addition to whitespace.
var matchStripped = map[rune]bool{
	'・': true, '･': true, '·': true,
	'.': true, '。': true, '．': true,
	',': true, '、': true, '，': true,
	'-': true, 'ー': true, 'ｰ': true, '‐': true, '−': true, '–': true, '—': true, '―': true, '－': true,
}

// searchSpaced lists the punctuation SearchForm turns into word breaks.
var searchSpaced = map[rune]bool{
	'・': true, '.': true, '。': true, '、': true, ',': true,
	'「': true, '」': true, '『': true, '』': true, '【': true, '】': true,
	'(': true, ')': true, '[': true, ']': true, '（': true, '）': true,
}

// searchRemoved lists the dashes SearchForm deletes outright.
var searchRemoved = map[rune]bool{
	'-': true, 'ー': true, '－': true,
}

var ocrDigitFixer = strings.NewReplacer("|", "1", "｜", "1", "I", "1", "l", "1")

// DisplayForm converts full-width ASCII to half-width (and half-width katakana to
// full-width), collapses whitespace runs to one space and trims.
func DisplayForm(s string) string {
	if s == "" {
		return ""
	}
	return strings.Join(strings.Fields(width.Fold.String(s)), " ")
}

// MatchForm returns the comparison key of s: NFKC, lower case, with whitespace and
// common punctuation (中黒, periods, commas, dashes, long vowel mark) removed.
// MatchForm(MatchForm(s)) == MatchForm(s).
func MatchForm(s string) string {
	if s == "" {
		return ""
	}
	out := matchOnce(s)
	// NFKC and lower-casing can expose new strippable runes; iterate to a fixed point.
	for i := 0; i < 4; i++ {
		next := matchOnce(out)
		if next == out {
			break
		}
		out = next
	}
	return out
}

func matchOnce(s string) string {
	folded := strings.ToLower(norm.NFKC.String(s))
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsSpace(r) || matchStripped[r] {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// DateForm prepares text for date extraction: display form with the usual OCR
// digit confusions (| ｜ I l) read as 1 and whitespace removed, except a single
// space between two digits so that adjacent numbers do not merge.
func DateForm(s string) string {
	if s == "" {
		return ""
	}
	runes := []rune(ocrDigitFixer.Replace(DisplayForm(s)))
	var b strings.Builder
	b.Grow(len(runes))
	for i, r := range runes {
		if r == ' ' {
			if i > 0 && i+1 < len(runes) && isDigit(runes[i-1]) && isDigit(runes[i+1]) {
				b.WriteRune(' ')
			}
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// SearchForm prepares text for keyword tokenization: display form, punctuation
// and brackets turned into spaces, dashes removed, lower case.
func SearchForm(s string) string {
	if s == "" {
		return ""
	}
	display := DisplayForm(s)
	var b strings.Builder
	b.Grow(len(display))
	for _, r := range display {
		switch {
		case searchRemoved[r]:
		case searchSpaced[r]:
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(strings.ToLower(b.String())), " ")
}

// Runes returns the number of runes in s.
func Runes(s string) int {
	return utf8.RuneCountInString(s)
}
