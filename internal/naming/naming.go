package naming

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/width"

	"github.com/Veraticus/docmeta/internal/model"
)

const (
	// DefaultMaxLength bounds the base name, extension excluded, in runes.
	DefaultMaxLength = 100
	// DefaultExtension is appended when none is given.
	DefaultExtension = ".pdf"
	// FallbackBase names a file when no metadata survives sanitization.
	FallbackBase = "document"
	// DocumentIDLength is how many runes of the document id are kept.
	DocumentIDLength = 8
	// cutRatio is how far into the limit the last "_" must be to cut there.
	cutRatio = 0.7
	separator = "_"
)

const forbiddenChars = `<>:"/\|?*`

var (
	underscoreRun = regexp.MustCompile(`_+`)
	omittedPart   = regexp.MustCompile(`^他\d+名$`)
	datePart      = regexp.MustCompile(`^\d{8}$`)
	asciiIDPart   = regexp.MustCompile(`^[0-9A-Za-z]+$`)
)

// Options are the metadata a file name is built from.
type Options struct {
	Date             *time.Time
	DocumentType     string
	OfficeName       string
	DocumentID       string
	Extension        string
	Customers        []model.CustomerAttribute
	MaxLength        int
	MaxCustomerNames int
}

// Result is a synthesized file name with the customer analysis behind it.
type Result struct {
	FileName          string   `json:"fileName"`
	Original          string   `json:"original"`
	SplitReason       string   `json:"splitReason,omitempty"`
	IncludedCustomers []string `json:"includedCustomers"`
	OmittedCustomers  []string `json:"omittedCustomers"`
	WasTruncated      bool     `json:"wasTruncated"`
	ShouldSplit       bool     `json:"shouldSplit"`
}

// Generate joins [document, office, YYYYMMDD, up to MaxCustomerNames customers,
// 他N名, id prefix] with "_", sanitizes the result and appends the extension.
// The result is never empty and always ends in the extension.
func Generate(opts Options) Result {
	ext := normalizeExtension(opts.Extension)
	maxLen := opts.MaxLength
	if maxLen <= 0 {
		maxLen = DefaultMaxLength
	}
	maxNames := opts.MaxCustomerNames
	if maxNames <= 0 {
		maxNames = MaxCustomerNames
	}

	analysis := AnalyzeCustomers(opts.Customers, maxNames)

	var parts []string
	appendPart := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}

	appendPart(opts.DocumentType)
	appendPart(opts.OfficeName)
	if opts.Date != nil && !opts.Date.IsZero() {
		appendPart(opts.Date.Format(model.DateLayout))
	}

	result := Result{
		IncludedCustomers: []string{},
		OmittedCustomers:  []string{},
		ShouldSplit:       analysis.ShouldSplit,
		SplitReason:       analysis.Reason,
	}
	for i, c := range opts.Customers {
		if i < maxNames {
			result.IncludedCustomers = append(result.IncludedCustomers, c.Name)
			appendPart(c.Name)
		} else {
			result.OmittedCustomers = append(result.OmittedCustomers, c.Name)
		}
	}
	if n := len(result.OmittedCustomers); n > 0 {
		appendPart(fmt.Sprintf("他%d名", n))
	}
	appendPart(ShortID(opts.DocumentID))

	joined := strings.Join(parts, separator)
	base := Sanitize(joined, maxLen)
	fallback := base == ""
	if fallback {
		base = Sanitize(FallbackBase, maxLen)
	}

	result.Original = joined + ext
	result.FileName = base + ext
	result.WasTruncated = !fallback && base != Sanitize(joined, utf8.RuneCountInString(joined)+1)
	return result
}

// ShortID returns the first DocumentIDLength runes of id.
func ShortID(id string) string {
	runes := []rune(strings.TrimSpace(id))
	if len(runes) > DocumentIDLength {
		runes = runes[:DocumentIDLength]
	}
	return string(runes)
}

// Sanitize makes name safe as a file name: width folded, forbidden and control
// characters removed, whitespace turned into "_", "_" runs collapsed, leading and
// trailing "_" trimmed, and at most maxLen runes long, cutting at the last "_" when
// it lies past 70% of the limit. Sanitize is idempotent and may return "".
func Sanitize(name string, maxLen int) string {
	if name == "" {
		return ""
	}
	if maxLen <= 0 {
		maxLen = DefaultMaxLength
	}

	folded := width.Fold.String(name)
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case strings.ContainsRune(forbiddenChars, r):
		case unicode.IsSpace(r):
			b.WriteRune('_')
		case unicode.IsControl(r) || r == unicode.ReplacementChar:
		default:
			b.WriteRune(r)
		}
	}

	out := underscoreRun.ReplaceAllString(b.String(), separator)
	out = strings.Trim(out, separator)

	runes := []rune(out)
	if len(runes) > maxLen {
		runes = runes[:maxLen]
		if cut := lastUnderscore(runes); cut > int(float64(maxLen)*cutRatio) {
			runes = runes[:cut]
		}
		out = strings.Trim(string(runes), separator)
	}
	return out
}

func lastUnderscore(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == '_' {
			return i
		}
	}
	return -1
}

func normalizeExtension(ext string) string {
	ext = strings.TrimSpace(ext)
	if ext == "" {
		return DefaultExtension
	}
	ext = Sanitize(ext, DefaultMaxLength)
	if ext == "" || ext == "." {
		return DefaultExtension
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// UniqueName returns fileName, or fileName with a "_2", "_3", ... suffix before the
// extension when the name is already taken. The returned name is marked as taken.
func UniqueName(fileName string, taken map[string]bool) string {
	if !taken[fileName] {
		taken[fileName] = true
		return fileName
	}

	ext := filepath.Ext(fileName)
	base := strings.TrimSuffix(fileName, ext)
	for n := 2; ; n++ {
		candidate := base + separator + strconv.Itoa(n) + ext
		if !taken[candidate] {
			taken[candidate] = true
			return candidate
		}
	}
}

// Parsed is the metadata recovered from a generated file name.
type Parsed struct {
	Date          *time.Time `json:"date,omitempty"`
	DocumentType  string     `json:"documentType,omitempty"`
	OfficeName    string     `json:"officeName,omitempty"`
	Extension     string     `json:"extension"`
	CustomerNames []string   `json:"customerNames"`
}

// ParseFileName reverses Generate on a best-effort basis. Without a YYYYMMDD part
// the first part is taken as the document type and the rest as customers.
func ParseFileName(fileName string) Parsed {
	ext := filepath.Ext(fileName)
	base := strings.TrimSuffix(fileName, ext)
	parts := strings.Split(base, separator)

	parsed := Parsed{Extension: ext, CustomerNames: []string{}}
	if base == "" {
		return parsed
	}

	dateIndex := -1
	for i, p := range parts {
		if !datePart.MatchString(p) {
			continue
		}
		if d, err := time.Parse(model.DateLayout, p); err == nil {
			parsed.Date = &d
			dateIndex = i
			break
		}
	}

	parsed.DocumentType = parts[0]
	if dateIndex == -1 {
		parsed.CustomerNames = append(parsed.CustomerNames, parts[1:]...)
		return parsed
	}
	if dateIndex == 0 {
		parsed.DocumentType = ""
	}
	if dateIndex > 1 {
		parsed.OfficeName = parts[1]
	}

	for _, p := range parts[dateIndex+1:] {
		if omittedPart.MatchString(p) || asciiIDPart.MatchString(p) || len([]rune(p)) > 6 {
			continue
		}
		parsed.CustomerNames = append(parsed.CustomerNames, p)
	}
	return parsed
}
