package model

import "time"

// CustomerAttribute is the projection of a customer used for split decisions.
type CustomerAttribute struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	OfficeID      string `json:"officeId,omitempty"`
	CareManagerID string `json:"careManagerId,omitempty"`
}

// SegmentDescriptor is a contiguous page range representing one document unit.
type SegmentDescriptor struct {
	Date               *time.Time       `json:"date,omitempty"`
	ID                 string           `json:"id"`
	DocumentType       string           `json:"documentType,omitempty"`
	CustomerID         string           `json:"customerId,omitempty"`
	CustomerName       string           `json:"customerName,omitempty"`
	OfficeName         string           `json:"officeName,omitempty"`
	SuggestedFileName  string           `json:"suggestedFileName"`
	CustomerCandidates []MatchCandidate `json:"customerCandidates"`
	StartPage          int              `json:"startPage"`
	EndPage            int              `json:"endPage"`
	Confidence         int              `json:"confidence"`
	ShouldSplit        bool             `json:"shouldSplit"`
}

// PageCount returns the number of pages in the segment.
func (s *SegmentDescriptor) PageCount() int {
	return s.EndPage - s.StartPage + 1
}
