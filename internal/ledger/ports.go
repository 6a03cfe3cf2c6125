package ledger

import (
	"context"

	"clubdash/internal/core"
)

// Ledger is the typed contract of the external financial-records service.
// Every listing call is a full refetch; nothing is cached here.
//
//go:generate mockgen -destination=mocks/mock_ledger.go -package=mocks -source=ports.go Ledger
type Ledger interface {
	LatestPeriod(ctx context.Context, unitID int64) (core.FinancialPeriod, error)
	ListPeriods(ctx context.Context, unitID int64) ([]core.FinancialPeriod, error)
	CreatePeriod(ctx context.Context, in PeriodCreate) (core.FinancialPeriod, error)
	UpdatePeriod(ctx context.Context, periodID string, patch PeriodPatch) (core.FinancialPeriod, error)

	ListTransactions(ctx context.Context, unitID int64) ([]core.Transaction, error)
	CreateTransaction(ctx context.Context, in core.NewTransaction) (core.Transaction, error)
	GetTransaction(ctx context.Context, id string) (core.Transaction, error)

	Chat(ctx context.Context, message, sessionID string) (string, error)
}

// PeriodCreate is the payload for POST /financials/.
type PeriodCreate struct {
	UnitID         int64       `json:"club_id"`
	PeriodStart    core.Date   `json:"period_start"`
	PeriodEnd      core.Date   `json:"period_end"`
	CurrentBalance core.Amount `json:"current_balance"`
	Donations      core.Amount `json:"revenue_donations"`
	Fundraising    core.Amount `json:"revenue_fundraising"`
	Sponsorship    core.Amount `json:"revenue_sponsorship"`
	Food           core.Amount `json:"expense_food"`
	Giveaway       core.Amount `json:"expense_giveaway"`
	Uniforms       core.Amount `json:"expense_uniforms"`
}

// Validate checks the period invariant before sending.
func (p PeriodCreate) Validate() error {
	if p.PeriodStart.IsZero() || p.PeriodEnd.IsZero() {
		return &core.ValidationError{Field: "period", Reason: "start and end are required"}
	}
	if p.PeriodStart.After(p.PeriodEnd) {
		return &core.ValidationError{Field: "period", Reason: core.ErrInvalidPeriod.Error()}
	}
	return nil
}

// PeriodPatch is a partial update; only non-nil fields are sent.
type PeriodPatch struct {
	UnitID         *int64       `json:"club_id,omitempty"`
	PeriodStart    *core.Date   `json:"period_start,omitempty"`
	PeriodEnd      *core.Date   `json:"period_end,omitempty"`
	CurrentBalance *core.Amount `json:"current_balance,omitempty"`
	Donations      *core.Amount `json:"revenue_donations,omitempty"`
	Fundraising    *core.Amount `json:"revenue_fundraising,omitempty"`
	Sponsorship    *core.Amount `json:"revenue_sponsorship,omitempty"`
	Food           *core.Amount `json:"expense_food,omitempty"`
	Giveaway       *core.Amount `json:"expense_giveaway,omitempty"`
	Uniforms       *core.Amount `json:"expense_uniforms,omitempty"`
}

// SetField sets a categorized field by its wire name.
func (p *PeriodPatch) SetField(name string, v core.Amount) bool {
	switch name {
	case core.FieldDonations:
		p.Donations = &v
	case core.FieldFundraising:
		p.Fundraising = &v
	case core.FieldSponsorship:
		p.Sponsorship = &v
	case core.FieldFood:
		p.Food = &v
	case core.FieldGiveaway:
		p.Giveaway = &v
	case core.FieldUniforms:
		p.Uniforms = &v
	default:
		return false
	}
	return true
}

// Apply returns period with every non-nil patch field applied.
func (p PeriodPatch) Apply(period core.FinancialPeriod) core.FinancialPeriod {
	if p.UnitID != nil {
		period.UnitID = *p.UnitID
	}
	if p.PeriodStart != nil {
		period.PeriodStart = *p.PeriodStart
	}
	if p.PeriodEnd != nil {
		period.PeriodEnd = *p.PeriodEnd
	}
	if p.CurrentBalance != nil {
		period.CurrentBalance = *p.CurrentBalance
	}
	if p.Donations != nil {
		period.Donations = *p.Donations
	}
	if p.Fundraising != nil {
		period.Fundraising = *p.Fundraising
	}
	if p.Sponsorship != nil {
		period.Sponsorship = *p.Sponsorship
	}
	if p.Food != nil {
		period.Food = *p.Food
	}
	if p.Giveaway != nil {
		period.Giveaway = *p.Giveaway
	}
	if p.Uniforms != nil {
		period.Uniforms = *p.Uniforms
	}
	return period
}

// ChatRequest and ChatResponse are the /chat boundary contract.
type (
	ChatRequest struct {
		UserMessage string `json:"user_message"`
		SessionID   string `json:"session_id"`
	}

	ChatResponse struct {
		Response string `json:"response"`
	}
)
