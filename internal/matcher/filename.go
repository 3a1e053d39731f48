package matcher

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/Veraticus/docmeta/internal/similarity"
	"github.com/Veraticus/docmeta/internal/textnorm"
)

// HintType classifies the prefix of an uploaded file name.
type HintType string

const (
	HintUnknown     HintType = "unknown"
	HintOfficeName  HintType = "office_name"
	HintPhoneNumber HintType = "phone_number"
	HintDocumentID  HintType = "document_id"
)

// File name hint boosts for office candidates.
const (
	BoostContains  = 15
	BoostSimilar   = 10
	BoostShortName = 12
	// HintSlack is how far below MinScore an OCR score may be and still be boosted.
	HintSlack = 10
)

var (
	scannerSuffix = regexp.MustCompile(`^(.+?)-L\d+-`)
	digitsOnly    = regexp.MustCompile(`^[0-9]+$`)
	documentID    = regexp.MustCompile(`^doc\d`)
)

// FileNameHint is what a scanner-generated file name says about the sender, e.g.
// 西春内科在宅クリニック-L1-20260122101727.pdf or 0529088423-L1-20260122104653.pdf.
type FileNameHint struct {
	Prefix     string
	Normalized string
	Type       HintType
}

// ParseFileNameHint extracts the sender prefix of a file name.
func ParseFileNameHint(fileName string) FileNameHint {
	if fileName == "" {
		return FileNameHint{Type: HintUnknown}
	}

	base := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	prefix := base
	if m := scannerSuffix.FindStringSubmatch(base); m != nil {
		prefix = m[1]
	}

	hint := FileNameHint{
		Prefix:     prefix,
		Normalized: textnorm.MatchForm(prefix),
		Type:       HintUnknown,
	}
	switch {
	case digitsOnly.MatchString(hint.Normalized):
		hint.Type = HintPhoneNumber
	case documentID.MatchString(hint.Normalized):
		hint.Type = HintDocumentID
	case hasJapanese(prefix):
		hint.Type = HintOfficeName
	}
	return hint
}

func hasJapanese(s string) bool {
	for _, r := range s {
		if unicode.In(r, unicode.Hiragana, unicode.Katakana, unicode.Han) {
			return true
		}
	}
	return false
}

// boost returns the score bonus the hint lends to an entry with the given
// match-normalized name and short name.
func (h *FileNameHint) boost(name, shortName string) int {
	if h == nil || h.Type != HintOfficeName || h.Normalized == "" || name == "" {
		return 0
	}
	if strings.Contains(h.Normalized, name) || strings.Contains(name, h.Normalized) {
		return BoostContains
	}
	if similarity.Score(h.Normalized, name) >= 80 {
		return BoostSimilar
	}
	if shortName != "" && (strings.Contains(h.Normalized, shortName) || strings.Contains(shortName, h.Normalized)) {
		return BoostShortName
	}
	return 0
}
