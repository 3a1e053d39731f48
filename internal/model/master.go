package model

import (
	"fmt"

	"github.com/Veraticus/docmeta/internal/common"
	"github.com/Veraticus/docmeta/internal/textnorm"
)

// EntityKind identifies one of the three reference categories matched against OCR text.
type EntityKind string

const (
	// KindDocument is a document type master (e.g. 居宅サービス計画書).
	KindDocument EntityKind = "document"
	// KindOffice is a care office master.
	KindOffice EntityKind = "office"
	// KindCustomer is a customer (care recipient) master.
	KindCustomer EntityKind = "customer"
)

// EntityKinds lists every kind in processing order.
var EntityKinds = []EntityKind{KindDocument, KindOffice, KindCustomer}

// ParseEntityKind converts user input to an EntityKind.
func ParseEntityKind(s string) (EntityKind, error) {
	switch EntityKind(s) {
	case KindDocument, KindOffice, KindCustomer:
		return EntityKind(s), nil
	}
	return "", fmt.Errorf("%w %q (want document, office or customer)", common.ErrUnknownEntityKind, s)
}

// MasterEntry is one row of a reference master list. The engine treats it as read-only.
type MasterEntry struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	ShortName     string   `json:"shortName,omitempty"`
	Furigana      string   `json:"furigana,omitempty"`
	OfficeID      string   `json:"officeId,omitempty"`
	CareManagerID string   `json:"careManagerId,omitempty"`
	Aliases       []string `json:"aliases,omitempty"`
	Keywords      []string `json:"keywords,omitempty"`
	IsDuplicate   bool     `json:"isDuplicate"`
}

// Validate ensures the entry carries the fields every matcher relies on.
func (m *MasterEntry) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("%w: id is required", common.ErrInvalidMaster)
	}
	if textnorm.MatchForm(m.Name) == "" {
		return fmt.Errorf("%w: %s: name is empty after normalization", common.ErrInvalidMaster, m.ID)
	}
	return nil
}

// Attribute projects a customer entry onto the fields used for split decisions.
func (m *MasterEntry) Attribute() CustomerAttribute {
	return CustomerAttribute{
		ID:            m.ID,
		Name:          m.Name,
		OfficeID:      m.OfficeID,
		CareManagerID: m.CareManagerID,
	}
}

// MasterSet bundles the three master lists supplied with each extraction call.
type MasterSet struct {
	Documents []MasterEntry `json:"documents"`
	Offices   []MasterEntry `json:"offices"`
	Customers []MasterEntry `json:"customers"`
}

// Of returns the list for the given kind.
func (s MasterSet) Of(kind EntityKind) []MasterEntry {
	switch kind {
	case KindDocument:
		return s.Documents
	case KindOffice:
		return s.Offices
	case KindCustomer:
		return s.Customers
	default:
		return nil
	}
}

// CustomerAttributes indexes customer attributes by id.
func (s MasterSet) CustomerAttributes() map[string]CustomerAttribute {
	attrs := make(map[string]CustomerAttribute, len(s.Customers))
	for i := range s.Customers {
		attrs[s.Customers[i].ID] = s.Customers[i].Attribute()
	}
	return attrs
}

// MarkDuplicates recomputes IsDuplicate in place: entries whose match-normalized
// names are identical are flagged, all others are cleared.
func MarkDuplicates(entries []MasterEntry) {
	counts := make(map[string]int, len(entries))
	for i := range entries {
		counts[textnorm.MatchForm(entries[i].Name)]++
	}
	for i := range entries {
		key := textnorm.MatchForm(entries[i].Name)
		entries[i].IsDuplicate = key != "" && counts[key] > 1
	}
}
