package engine

import (
	"time"

	"github.com/Veraticus/docmeta/internal/model"
	"github.com/Veraticus/docmeta/internal/naming"
	"github.com/Veraticus/docmeta/internal/segment"
)

// Result is everything extracted from one file.
type Result struct {
	Date           *model.DateCandidate   `json:"date,omitempty"`
	DocumentID     string                 `json:"documentId"`
	FileName       string                 `json:"fileName,omitempty"`
	TokensHash     string                 `json:"tokensHash"`
	Documents      model.ExtractionResult `json:"documents"`
	Offices        model.ExtractionResult `json:"offices"`
	Customers      model.ExtractionResult `json:"customers"`
	DateCandidates []model.DateCandidate  `json:"dateCandidates"`
	Pages          []model.PageExtraction `json:"pages"`
	Tokens         []model.TokenInfo      `json:"tokens"`
	SuggestedName  naming.Result          `json:"suggestedFileName"`
	Split          segment.Analysis       `json:"split"`
	PageCount      int                    `json:"pageCount"`
}

// NeedsReview reports whether any field needs a human decision.
func (r *Result) NeedsReview() bool {
	return r.Documents.NeedsManualSelection ||
		r.Offices.NeedsManualSelection ||
		r.Customers.NeedsManualSelection
}

// Fields are the values a caller persists on the document record.
type Fields struct {
	FileDate           *time.Time             `json:"fileDate,omitempty"`
	DocumentType       string                 `json:"documentType"`
	CustomerID         string                 `json:"customerId"`
	CustomerName       string                 `json:"customerName"`
	OfficeID           string                 `json:"officeId"`
	OfficeName         string                 `json:"officeName"`
	SuggestedFileName  string                 `json:"suggestedFileName"`
	DocumentCandidates []model.MatchCandidate `json:"documentCandidates"`
	CustomerCandidates []model.MatchCandidate `json:"customerCandidates"`
	OfficeCandidates   []model.MatchCandidate `json:"officeCandidates"`
	DocumentConfirmed  bool                   `json:"documentConfirmed"`
	CustomerConfirmed  bool                   `json:"customerConfirmed"`
	OfficeConfirmed    bool                   `json:"officeConfirmed"`
}

// Fields maps the result onto the persisted status fields. A field is confirmed
// unless its candidates need manual selection.
func (r *Result) Fields() Fields {
	f := Fields{
		DocumentType:       r.Documents.BestName(),
		CustomerID:         r.Customers.BestID(),
		CustomerName:       r.Customers.BestName(),
		OfficeID:           r.Offices.BestID(),
		OfficeName:         r.Offices.BestName(),
		SuggestedFileName:  r.SuggestedName.FileName,
		DocumentCandidates: r.Documents.Candidates,
		CustomerCandidates: r.Customers.Candidates,
		OfficeCandidates:   r.Offices.Candidates,
		DocumentConfirmed:  !r.Documents.NeedsManualSelection,
		CustomerConfirmed:  !r.Customers.NeedsManualSelection,
		OfficeConfirmed:    !r.Offices.NeedsManualSelection,
	}
	if r.Date != nil {
		d := r.Date.Date
		f.FileDate = &d
	}
	return f
}
