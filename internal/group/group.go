// Package group buckets stored documents by customer, office, document type or
// care manager and summarizes each bucket.
package group

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/width"

	"github.com/Veraticus/docmeta/internal/common"
)

// Kind is the field documents are grouped by.
type Kind string

const (
	KindCustomer     Kind = "customer"
	KindOffice       Kind = "office"
	KindDocumentType Kind = "documentType"
	KindCareManager  Kind = "careManager"
)

// Kinds lists every grouping field.
var Kinds = []Kind{KindCustomer, KindOffice, KindDocumentType, KindCareManager}

// MaxPreviewDocs is the number of documents kept as a group's preview.
const MaxPreviewDocs = 3

// ParseKind accepts a Kind value, case-insensitively. "document-type" and
// "care-manager" are accepted as command line spellings.
func ParseKind(s string) (Kind, error) {
	folded := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "-", ""))
	for _, k := range Kinds {
		if strings.ToLower(string(k)) == folded {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w %q (want customer, office, document-type or care-manager)", common.ErrUnknownEntityKind, s)
}

// NormalizeKey folds full-width letters and digits to half-width, lower-cases
// and removes all whitespace. Two values with the same key share a group.
func NormalizeKey(value string) string {
	if value == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if unicode.IsSpace(r) {
			continue
		}
		if isFullWidthAlnum(r) {
			if narrow := width.LookupRune(r).Narrow(); narrow != 0 {
				r = narrow
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

func isFullWidthAlnum(r rune) bool {
	return (r >= 'Ａ' && r <= 'Ｚ') || (r >= 'ａ' && r <= 'ｚ') || (r >= '０' && r <= '９')
}

// ID returns the stable identifier of a group.
func ID(kind Kind, key string) string {
	return string(kind) + "_" + key
}

// Item is one document as seen by the aggregation.
type Item struct {
	ProcessedAt  time.Time
	ID           string
	FileName     string
	DocumentType string
	Customer     string
	Office       string
	CareManager  string
}

// Value returns the item's raw value for kind.
func (it Item) Value(kind Kind) string {
	switch kind {
	case KindCustomer:
		return it.Customer
	case KindOffice:
		return it.Office
	case KindDocumentType:
		return it.DocumentType
	case KindCareManager:
		return it.CareManager
	default:
		return ""
	}
}

// Preview is a document listed on a group.
type Preview struct {
	ProcessedAt  time.Time `json:"processedAt"`
	ID           string    `json:"id"`
	FileName     string    `json:"fileName"`
	DocumentType string    `json:"documentType"`
}

// Group summarizes the documents sharing one key.
type Group struct {
	LatestAt    time.Time `json:"latestAt"`
	Kind        Kind      `json:"groupType"`
	Key         string    `json:"groupKey"`
	DisplayName string    `json:"displayName"`
	LatestDocs  []Preview `json:"latestDocs"`
	Count       int       `json:"count"`
}

// Aggregate groups items by kind. Items with an empty key are skipped. The
// display name is the first raw value seen for the key after sorting items
// newest first. Groups are returned newest first, ties broken by key.
func Aggregate(kind Kind, items []Item) []Group {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b Item) int {
		if c := b.ProcessedAt.Compare(a.ProcessedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	index := make(map[string]int)
	var groups []Group
	for _, it := range sorted {
		raw := strings.TrimSpace(it.Value(kind))
		key := NormalizeKey(raw)
		if key == "" {
			continue
		}

		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{
				Kind:        kind,
				Key:         key,
				DisplayName: cmp.Or(raw, key),
				LatestAt:    it.ProcessedAt,
			})
		}
		g := &groups[i]
		g.Count++
		if len(g.LatestDocs) < MaxPreviewDocs {
			g.LatestDocs = append(g.LatestDocs, Preview{
				ID:           it.ID,
				FileName:     it.FileName,
				DocumentType: it.DocumentType,
				ProcessedAt:  it.ProcessedAt,
			})
		}
	}

	slices.SortStableFunc(groups, func(a, b Group) int {
		if c := b.LatestAt.Compare(a.LatestAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	return groups
}
