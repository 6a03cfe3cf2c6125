package core

import "strings"

// Classification groups a transaction category for display.
type Classification int

const (
	Unclassified Classification = iota
	Revenue
	Expense
)

func (c Classification) String() string {
	switch c {
	case Revenue:
		return "revenue"
	case Expense:
		return "expense"
	default:
		return "unclassified"
	}
}

// Period field names fed by accounting codes.
const (
	FieldDonations   = "revenue_donations"
	FieldFundraising = "revenue_fundraising"
	FieldSponsorship = "revenue_sponsorship"
	FieldFood        = "expense_food"
	FieldGiveaway    = "expense_giveaway"
	FieldUniforms    = "expense_uniforms"
)

// Lookup tables are built once and never mutated.
var (
	categoryCodes = map[string]string{
		"donation":    "3300",
		"fundraising": "3311",
		"sponsorship": "3325",
		"food":        "5520",
		"giveaway":    "6413",
		"uniforms":    "5751",
	}

	codeFields = map[string]string{
		"3300": FieldDonations,
		"3311": FieldFundraising,
		"3325": FieldSponsorship,
		"5520": FieldFood,
		"6413": FieldGiveaway,
		"5751": FieldUniforms,
	}

	classifications = map[string]Classification{
		"donation":    Revenue,
		"donations":   Revenue,
		"fundraising": Revenue,
		"sponsorship": Revenue,
		"food":        Expense,
		"giveaway":    Expense,
		"uniforms":    Expense,
	}
)

func normalizeCategory(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}

// CodeForCategory returns the accounting code for a category, or "" when the
// category is not recognised.
func CodeForCategory(category string) string {
	return categoryCodes[normalizeCategory(category)]
}

// PeriodFieldForCode returns the period field an accounting code feeds.
func PeriodFieldForCode(code string) (string, bool) {
	f, ok := codeFields[strings.TrimSpace(code)]
	return f, ok
}

// Classify maps a category to revenue or expense, case-insensitively.
// Categories outside both sets are Unclassified and count as neither.
func Classify(category string) Classification {
	return classifications[normalizeCategory(category)]
}
