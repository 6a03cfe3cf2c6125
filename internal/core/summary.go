package core

// Totals holds revenue and expense subtotals derived from a period's
// categorized fields. They are informational and independent of CurrentBalance.
type Totals struct {
	Revenue Amount `json:"revenue_total"`
	Expense Amount `json:"expense_total"`
}

// CategorySpend is one row of the spending-by-category breakdown.
type CategorySpend struct {
	Category string `json:"category"`
	TotalAbs Amount `json:"total"`
	Color    string `json:"color"`
}

// Field returns the value of a categorized period field by its wire name.
func (p FinancialPeriod) Field(name string) (Amount, bool) {
	switch name {
	case FieldDonations:
		return p.Donations, true
	case FieldFundraising:
		return p.Fundraising, true
	case FieldSponsorship:
		return p.Sponsorship, true
	case FieldFood:
		return p.Food, true
	case FieldGiveaway:
		return p.Giveaway, true
	case FieldUniforms:
		return p.Uniforms, true
	}
	return Amount{}, false
}
