package dates

// RuleKind tells the extractor how to read a rule's submatches.
type RuleKind string

const (
	// KindEraBilling is an era year and month followed by 分 (billing month).
	// Groups: era, year, month.
	KindEraBilling RuleKind = "era_billing"
	// KindEraDate is an era year, month and day. Groups: era, year, month, day.
	KindEraDate RuleKind = "era_date"
	// KindEraMonth is an era year and month with no day. Groups: era, year, month.
	KindEraMonth RuleKind = "era_month"
	// KindWesternDate is a western year, month and day. Groups: year, month, day.
	KindWesternDate RuleKind = "western_date"
	// KindShortEra is an abbreviated era date such as R7.5.1.
	// Groups: era letter, year, month, day.
	KindShortEra RuleKind = "short_era"
)

// Rule is one date pattern with its base confidence.
type Rule struct {
	Name       string
	Kind       RuleKind
	Regex      string
	Priority   int // Higher priority rules are applied first
	Confidence int // Confidence of every candidate the rule yields (0-100)
}

// DefaultRules returns the date rules in priority order.
func DefaultRules() []Rule {
	return []Rule{
		// Billing months are the strongest signal on care invoices
		{
			Name:       "令和年月分",
			Kind:       KindEraBilling,
			Regex:      `(令和)(元|\d{1,2})年(\d{1,2})月分`,
			Priority:   100,
			Confidence: 95,
		},
		{
			Name:       "元号年月分",
			Kind:       KindEraBilling,
			Regex:      `(平成|昭和|大正)(元|\d{1,2})年(\d{1,2})月分`,
			Priority:   99,
			Confidence: 90,
		},
		{
			Name:       "令和年月日",
			Kind:       KindEraDate,
			Regex:      `(令和)(元|\d{1,2})年(\d{1,2})月(\d{1,2})日`,
			Priority:   90,
			Confidence: 90,
		},
		{
			Name:       "元号年月日",
			Kind:       KindEraDate,
			Regex:      `(平成|昭和|大正)(元|\d{1,2})年(\d{1,2})月(\d{1,2})日`,
			Priority:   89,
			Confidence: 85,
		},
		{
			Name:       "令和年月",
			Kind:       KindEraMonth,
			Regex:      `(令和)(元|\d{1,2})年(\d{1,2})月`,
			Priority:   80,
			Confidence: 85,
		},
		{
			Name:       "元号年月",
			Kind:       KindEraMonth,
			Regex:      `(平成|昭和|大正)(元|\d{1,2})年(\d{1,2})月`,
			Priority:   79,
			Confidence: 80,
		},
		{
			Name:       "西暦年月日",
			Kind:       KindWesternDate,
			Regex:      `(\d{4})年(\d{1,2})月(\d{1,2})日`,
			Priority:   70,
			Confidence: 90,
		},
		{
			Name:       "西暦スラッシュ",
			Kind:       KindWesternDate,
			Regex:      `(\d{4})[/-](\d{1,2})[/-](\d{1,2})`,
			Priority:   60,
			Confidence: 85,
		},
		{
			Name:       "元号略記",
			Kind:       KindShortEra,
			Regex:      `([RHSTrhst])(\d{1,2})\.(\d{1,2})\.(\d{1,2})`,
			Priority:   50,
			Confidence: 75,
		},
	}
}
