// Package naming synthesizes safe, deterministic file names from extracted metadata.
package naming

import (
	"fmt"

	"github.com/Veraticus/docmeta/internal/model"
)

// MaxCustomerNames is how many customer names a file name may carry.
const MaxCustomerNames = 3

// Split reasons reported by AnalyzeCustomers.
const (
	ReasonOfficeAndCareManager = "customers belong to different offices and care managers"
	ReasonOffice               = "customers belong to different offices"
	ReasonCareManager          = "customers have different care managers"
)

// CustomerAnalysis describes whether the customers found in one file belong together.
type CustomerAnalysis struct {
	Primary          *model.CustomerAttribute
	Reason           string
	Count            int
	IsSingle         bool
	IsSameAttribute  bool
	OfficeMatch      bool
	CareManagerMatch bool
	ShouldSplit      bool
}

// AnalyzeCustomers compares every customer's office and care manager with the
// first customer's, counting only attributes set on both sides. A divergence, or
// more than maxNames customers, recommends a split. A non-positive maxNames means
// MaxCustomerNames.
func AnalyzeCustomers(customers []model.CustomerAttribute, maxNames int) CustomerAnalysis {
	if maxNames <= 0 {
		maxNames = MaxCustomerNames
	}

	analysis := CustomerAnalysis{
		Count:            len(customers),
		IsSameAttribute:  true,
		OfficeMatch:      true,
		CareManagerMatch: true,
	}
	if len(customers) == 0 {
		return analysis
	}

	first := customers[0]
	analysis.Primary = &first
	if len(customers) == 1 {
		analysis.IsSingle = true
		return analysis
	}

	for _, c := range customers[1:] {
		if first.OfficeID != "" && c.OfficeID != "" && first.OfficeID != c.OfficeID {
			analysis.OfficeMatch = false
		}
		if first.CareManagerID != "" && c.CareManagerID != "" && first.CareManagerID != c.CareManagerID {
			analysis.CareManagerMatch = false
		}
	}
	analysis.IsSameAttribute = analysis.OfficeMatch && analysis.CareManagerMatch

	switch {
	case !analysis.OfficeMatch && !analysis.CareManagerMatch:
		analysis.ShouldSplit, analysis.Reason = true, ReasonOfficeAndCareManager
	case !analysis.OfficeMatch:
		analysis.ShouldSplit, analysis.Reason = true, ReasonOffice
	case !analysis.CareManagerMatch:
		analysis.ShouldSplit, analysis.Reason = true, ReasonCareManager
	case len(customers) > maxNames:
		analysis.ShouldSplit = true
		analysis.Reason = fmt.Sprintf("more than %d customers (%d)", maxNames, len(customers))
	}

	return analysis
}
