// Package matcher ranks master entries against OCR text.
package matcher

import (
	"fmt"

	"github.com/Veraticus/docmeta/internal/model"
)

// DefaultMaxWindows caps the fuzzy window positions scanned per entry.
const DefaultMaxWindows = 4096

// Profile parameterizes a Matcher for one entity kind.
type Profile struct {
	Kind model.EntityKind
	// MinScore drops entries scoring below it.
	MinScore int
	// PrefixMinRunes is the shortest name eligible for a prefix match.
	PrefixMinRunes int
	// PrefixRatio is the share of the name that must appear for a prefix match.
	PrefixRatio float64
	PrefixScore int
	// AltScore is the score of an alias, short name or furigana hit.
	AltScore    int
	UseFurigana bool
	UseKeywords bool
	// SearchRange limits matching to the first N display runes. Zero means all.
	SearchRange int
	// FuzzyMargin widens the sliding window beyond the name length.
	FuzzyMargin   int
	MaxWindows    int
	MaxCandidates int
	ManualGap     int
	// UseFileNameHint lets an uploaded file name boost scores (offices).
	UseFileNameHint bool
}

// DocumentProfile matches document types near the top of the page.
func DocumentProfile() Profile {
	return Profile{
		Kind:           model.KindDocument,
		MinScore:       80,
		PrefixMinRunes: 3,
		PrefixRatio:    0.8,
		PrefixScore:    90,
		AltScore:       95,
		UseKeywords:    true,
		SearchRange:    300,
		FuzzyMargin:    5,
		MaxWindows:     DefaultMaxWindows,
		MaxCandidates:  model.MaxCandidates,
		ManualGap:      model.ManualSelectionGap,
	}
}

// OfficeProfile matches care offices anywhere on the page.
func OfficeProfile() Profile {
	return Profile{
		Kind:            model.KindOffice,
		MinScore:        70,
		PrefixMinRunes:  4,
		PrefixRatio:     0.75,
		PrefixScore:     85,
		AltScore:        95,
		FuzzyMargin:     5,
		MaxWindows:      DefaultMaxWindows,
		MaxCandidates:   model.MaxCandidates,
		ManualGap:       model.ManualSelectionGap,
		UseFileNameHint: true,
	}
}

// CustomerProfile matches customers, using the family-name prefix and furigana.
func CustomerProfile() Profile {
	return Profile{
		Kind:           model.KindCustomer,
		MinScore:       70,
		PrefixMinRunes: 2,
		PrefixRatio:    0.75,
		PrefixScore:    85,
		AltScore:       95,
		UseFurigana:    true,
		FuzzyMargin:    3,
		MaxWindows:     DefaultMaxWindows,
		MaxCandidates:  model.MaxCandidates,
		ManualGap:      model.ManualSelectionGap,
	}
}

// ProfileFor returns the default profile of a kind.
func ProfileFor(kind model.EntityKind) (Profile, error) {
	switch kind {
	case model.KindDocument:
		return DocumentProfile(), nil
	case model.KindOffice:
		return OfficeProfile(), nil
	case model.KindCustomer:
		return CustomerProfile(), nil
	default:
		return Profile{}, fmt.Errorf("no matcher profile for kind %q", kind)
	}
}

// Validate checks that the profile's scores are coherent.
func (p Profile) Validate() error {
	if p.MinScore < 0 || p.MinScore > 100 {
		return fmt.Errorf("min score must be between 0 and 100, got %d", p.MinScore)
	}
	if p.PrefixRatio < 0 || p.PrefixRatio > 1 {
		return fmt.Errorf("prefix ratio must be between 0 and 1, got %.2f", p.PrefixRatio)
	}
	if p.FuzzyMargin < 0 {
		return fmt.Errorf("fuzzy margin must not be negative, got %d", p.FuzzyMargin)
	}
	if p.SearchRange < 0 {
		return fmt.Errorf("search range must not be negative, got %d", p.SearchRange)
	}
	return nil
}
