package model

import (
	"fmt"

	"github.com/Veraticus/docmeta/internal/common"
)

// Page is the OCR output for one page of a scanned file.
type Page struct {
	Text       string `json:"text"`
	PageNumber int    `json:"pageNumber"`
}

// Validate rejects pages the engine cannot place in a file.
func (p *Page) Validate() error {
	if p.PageNumber < 1 {
		return fmt.Errorf("%w: page number %d", common.ErrInvalidPage, p.PageNumber)
	}
	return nil
}

// PageExtraction holds the per-page matcher and date results.
type PageExtraction struct {
	Documents  ExtractionResult `json:"documents"`
	Offices    ExtractionResult `json:"offices"`
	Customers  ExtractionResult `json:"customers"`
	Dates      []DateCandidate  `json:"dates"`
	PageNumber int              `json:"pageNumber"`
}

// Result returns the extraction result for the given kind.
func (p *PageExtraction) Result(kind EntityKind) ExtractionResult {
	switch kind {
	case KindDocument:
		return p.Documents
	case KindOffice:
		return p.Offices
	case KindCustomer:
		return p.Customers
	default:
		return EmptyResult()
	}
}
