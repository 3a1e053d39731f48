// Package search derives weighted index tokens from extracted metadata and
// tokenizes user queries against the same scheme.
package search

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/docmeta/internal/dates"
	"github.com/Veraticus/docmeta/internal/model"
	"github.com/Veraticus/docmeta/internal/textnorm"
)

const (
	// MinTokenRunes is the shortest keyword kept.
	MinTokenRunes = 2
	// MaxTokensPerField caps the tokens one field contributes.
	MaxTokensPerField = 20
	// BigramWeightRatio scales a field's weight for its bi-grams.
	BigramWeightRatio = 0.5
)

// FieldWeights is the search weight of each field.
var FieldWeights = map[model.TokenField]float64{
	model.FieldCustomer:     3,
	model.FieldOffice:       2,
	model.FieldDocumentType: 2,
	model.FieldDate:         2,
	model.FieldFileName:     1,
}

var stopWords = map[string]bool{
	"の": true, "に": true, "は": true, "を": true, "が": true, "と": true, "で": true, "て": true,
	"から": true, "まで": true, "です": true, "ます": true, "ある": true, "いる": true, "する": true, "なる": true,
	"様": true, "殿": true, "御中": true,
	"pdf": true, "PDF": true,
}

var (
	fullDatePattern   = regexp.MustCompile(`(\d{4})[/-](\d{1,2})[/-](\d{1,2})`)
	kanjiDatePattern  = regexp.MustCompile(`(\d{4})年(\d{1,2})月(\d{1,2})日`)
	kanjiMonthPattern = regexp.MustCompile(`(\d{4})年(\d{1,2})月`)
	slashMonthPattern = regexp.MustCompile(`(\d{4})/(\d{1,2})(/\d)?`)
)

// Metadata is the confirmed or extracted metadata of one stored file.
type Metadata struct {
	FileDate     *time.Time `json:"fileDate,omitempty"`
	CustomerName string     `json:"customerName,omitempty"`
	OfficeName   string     `json:"officeName,omitempty"`
	DocumentType string     `json:"documentType,omitempty"`
	FileName     string     `json:"fileName,omitempty"`
}

// IsStopWord reports whether token is too common to index.
func IsStopWord(token string) bool {
	return stopWords[token]
}

// Keywords splits the search form of text into unique words of at least
// MinTokenRunes runes, stop words removed.
func Keywords(text string) []string {
	normalized := textnorm.SearchForm(text)
	if normalized == "" {
		return nil
	}

	var out []string
	for _, w := range strings.Fields(normalized) {
		if textnorm.Runes(w) < MinTokenRunes || IsStopWord(w) || slices.Contains(out, w) {
			continue
		}
		out = append(out, w)
	}
	return out
}

// Bigrams returns the unique two-rune windows of the match form of text.
func Bigrams(text string) []string {
	runes := []rune(textnorm.MatchForm(text))
	if len(runes) < MinTokenRunes {
		return nil
	}

	var out []string
	for i := 0; i+1 < len(runes); i++ {
		b := string(runes[i : i+2])
		if IsStopWord(b) || slices.Contains(out, b) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// DateTokens returns YYYY, YYYY-MM and YYYY-MM-DD for t.
func DateTokens(t time.Time) []string {
	if t.IsZero() {
		return nil
	}
	return []string{
		strconv.Itoa(t.Year()),
		t.Format("2006-01"),
		t.Format("2006-01-02"),
	}
}

// DateTokensFromString recognizes YYYY/MM/DD, YYYY-MM-DD, YYYY年MM月DD日, YYYY年MM月
// and YYYY/MM. Month-only forms yield YYYY and YYYY-MM. Impossible months or days
// yield nothing.
func DateTokensFromString(s string) []string {
	if s == "" {
		return nil
	}

	for _, re := range []*regexp.Regexp{fullDatePattern, kanjiDatePattern} {
		if m := re.FindStringSubmatch(s); m != nil {
			y, mo, d := atoi(m[1]), atoi(m[2]), atoi(m[3])
			if !validMonth(mo) || d < 1 || d > dates.DaysIn(y, time.Month(mo)) {
				return nil
			}
			return DateTokens(time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC))
		}
	}

	if m := kanjiMonthPattern.FindStringSubmatch(s); m != nil {
		return monthTokens(atoi(m[1]), atoi(m[2]))
	}
	for _, m := range slashMonthPattern.FindAllStringSubmatch(s, -1) {
		if m[3] == "" {
			return monthTokens(atoi(m[1]), atoi(m[2]))
		}
	}
	return nil
}

func validMonth(month int) bool {
	return month >= 1 && month <= 12
}

func monthTokens(year, month int) []string {
	if !validMonth(month) {
		return nil
	}
	return []string{strconv.Itoa(year), fmt.Sprintf("%d-%02d", year, month)}
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// FieldTokens returns the keyword tokens of value at the field's weight followed by
// its bi-grams at half weight, at most MaxTokensPerField of them.
func FieldTokens(value string, field model.TokenField) []model.TokenInfo {
	weight := FieldWeights[field]

	var tokens []model.TokenInfo
	for _, k := range Keywords(value) {
		tokens = append(tokens, model.TokenInfo{Token: k, Field: field, Weight: weight})
	}
	for _, b := range Bigrams(value) {
		tokens = append(tokens, model.TokenInfo{Token: b, Field: field, Weight: weight * BigramWeightRatio})
	}

	if len(tokens) > MaxTokensPerField {
		tokens = tokens[:MaxTokensPerField]
	}
	return tokens
}

// DocumentTokens builds the index postings for one file's metadata.
func DocumentTokens(meta Metadata) []model.TokenInfo {
	var tokens []model.TokenInfo

	tokens = append(tokens, FieldTokens(meta.CustomerName, model.FieldCustomer)...)
	tokens = append(tokens, FieldTokens(meta.OfficeName, model.FieldOffice)...)
	tokens = append(tokens, FieldTokens(meta.DocumentType, model.FieldDocumentType)...)

	if meta.FileDate != nil {
		for _, d := range DateTokens(*meta.FileDate) {
			tokens = append(tokens, model.TokenInfo{Token: d, Field: model.FieldDate, Weight: FieldWeights[model.FieldDate]})
		}
	}

	if meta.FileName != "" {
		base := strings.TrimSuffix(meta.FileName, filepath.Ext(meta.FileName))
		tokens = append(tokens, FieldTokens(base, model.FieldFileName)...)
	}
	return tokens
}

// TokensHash is the SHA-256 of the sorted, de-duplicated token strings. Equal
// hashes mean the postings of a file did not change.
func TokensHash(tokens []model.TokenInfo) string {
	set := make([]string, 0, len(tokens))
	for _, t := range tokens {
		set = append(set, t.Token)
	}
	slices.Sort(set)
	set = slices.Compact(set)

	sum := sha256.Sum256([]byte(strings.Join(set, "|")))
	return hex.EncodeToString(sum[:])
}

// TokenID is a short stable identifier for a token, usable as an index key.
func TokenID(token string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(token))
	return fmt.Sprintf("%08x", h.Sum32())
}

// TokenizeQuery returns the unique keywords, bi-grams and date tokens of query.
func TokenizeQuery(query string) []string {
	if query == "" {
		return nil
	}

	var out []string
	add := func(tokens []string) {
		for _, t := range tokens {
			if !slices.Contains(out, t) {
				out = append(out, t)
			}
		}
	}
	add(Keywords(query))
	add(Bigrams(query))
	add(DateTokensFromString(query))
	return out
}

// TokenizeQueryByWords tokenizes each word of query separately so that a search
// can require every word to match.
func TokenizeQueryByWords(query string) [][]string {
	normalized := textnorm.SearchForm(query)
	if normalized == "" {
		return nil
	}

	var out [][]string
	for _, word := range strings.Fields(normalized) {
		var tokens []string
		add := func(ts ...string) {
			for _, t := range ts {
				if !slices.Contains(tokens, t) {
					tokens = append(tokens, t)
				}
			}
		}
		if textnorm.Runes(word) >= MinTokenRunes && !IsStopWord(word) {
			add(word)
		}
		add(Bigrams(word)...)
		add(DateTokensFromString(word)...)

		if len(tokens) > 0 {
			out = append(out, tokens)
		}
	}
	return out
}
