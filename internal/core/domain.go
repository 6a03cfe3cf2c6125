package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// Transaction statuses recognised by the ledger.
const (
	StatusCompleted TransactionStatus = "completed"
	StatusPending   TransactionStatus = "pending"
	StatusCancelled TransactionStatus = "cancelled"
	// StatusApproved only appears in legacy CSV exports; it counts as completed.
	StatusApproved TransactionStatus = "approved"
)

type (
	TransactionStatus string

	// Date is a calendar date without time of day, always in UTC.
	Date struct {
		time.Time
	}

	// FinancialPeriod is a reporting interval owned by the ledger. The client
	// never mutates it locally; CurrentBalance is authoritative and is not
	// expected to equal any locally recomputed sum.
	FinancialPeriod struct {
		ID              string    `json:"id"`
		UnitID          int64     `json:"club_id"`
		PeriodStart     Date      `json:"period_start"`
		PeriodEnd       Date      `json:"period_end"`
		CurrentBalance  Amount    `json:"current_balance"`
		Donations       Amount    `json:"revenue_donations"`
		Fundraising     Amount    `json:"revenue_fundraising"`
		Sponsorship     Amount    `json:"revenue_sponsorship"`
		Food            Amount    `json:"expense_food"`
		Giveaway        Amount    `json:"expense_giveaway"`
		Uniforms        Amount    `json:"expense_uniforms"`
		PendingRevenue  *Amount   `json:"pending_revenue,omitempty"`
		PendingExpenses *Amount   `json:"pending_expenses,omitempty"`
		UpdatedAt       time.Time `json:"updated_at,omitempty"`
	}

	// Transaction is a single ledger entry for an organizational unit.
	Transaction struct {
		ID          string            `json:"id"`
		UnitID      int64             `json:"club_id"`
		Amount      Amount            `json:"amount"`
		Category    string            `json:"category"`
		Description string            `json:"description,omitempty"`
		Date        Date              `json:"date"`
		Status      TransactionStatus `json:"status"`
		Vendor      string            `json:"vendor,omitempty"`
		ReceiptURL  string            `json:"receipt_url,omitempty"`
		Code        string            `json:"code,omitempty"`
		CreatedAt   time.Time         `json:"created_at"`
	}

	// NewTransaction is the payload submitted to create a transaction.
	// Use SetCategory so that Code never goes stale.
	NewTransaction struct {
		UnitID      int64             `json:"club_id"`
		Amount      Amount            `json:"amount"`
		Category    string            `json:"category"`
		Description string            `json:"description,omitempty"`
		Date        Date              `json:"date"`
		Status      TransactionStatus `json:"status,omitempty"`
		Vendor      string            `json:"vendor,omitempty"`
		ReceiptURL  string            `json:"receipt_url,omitempty"`
		Code        string            `json:"code,omitempty"`
	}

	// ValidationError reports a client-side validation failure on a single field.
	ValidationError struct {
		Field  string
		Reason string
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidPeriod = errors.New("period start is after period end")
	ErrInvalidStatus = errors.New("invalid transaction status")

	// Error taxonomy shared by fetcher, ledger client and view model.
	ErrNetwork    = errors.New("network error")
	ErrAPI        = errors.New("api error")
	ErrValidation = errors.New("validation error")
	ErrNoData     = errors.New("no financial data")
	ErrNotFound   = errors.New("not found")
)

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrValidation) true for any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// Before reports whether d is strictly earlier than o, by calendar day.
func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }

// After reports whether d is strictly later than o, by calendar day.
func (d Date) After(o Date) bool { return d.Time.After(o.Time) }

// MarshalJSON encodes the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(DateLayout))
}

// UnmarshalJSON accepts "YYYY-MM-DD" or a full RFC 3339 timestamp.
func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, string(data))
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		*d = NewDate(t.Year(), int(t.Month()), t.Day())
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Validate checks the period invariant PeriodStart <= PeriodEnd.
func (p FinancialPeriod) Validate() error {
	if p.PeriodStart.IsZero() || p.PeriodEnd.IsZero() {
		return fmt.Errorf("period %s: %w", p.ID, ErrInvalidDate)
	}
	if p.PeriodStart.After(p.PeriodEnd) {
		return fmt.Errorf("period %s: %w", p.ID, ErrInvalidPeriod)
	}
	return nil
}

// Contains reports whether date falls inside [PeriodStart, PeriodEnd].
func (p FinancialPeriod) Contains(date Date) bool {
	return !date.Before(p.PeriodStart) && !date.After(p.PeriodEnd)
}

// Valid reports whether s is a recognised status.
func (s TransactionStatus) Valid() bool {
	switch s {
	case StatusCompleted, StatusPending, StatusCancelled, StatusApproved:
		return true
	default:
		return false
	}
}

// Settled reports whether a transaction with this status affects period totals.
func (s TransactionStatus) Settled() bool {
	return s == StatusCompleted || s == StatusApproved
}

// SetCategory sets the category and re-derives the accounting code.
func (n *NewTransaction) SetCategory(category string) {
	n.Category = category
	n.Code = CodeForCategory(category)
}

// Validate rejects payloads missing amount, category or description.
// It runs before any network call.
func (n NewTransaction) Validate() error {
	if n.Amount.IsZero() {
		return &ValidationError{Field: "amount", Reason: "is required"}
	}
	if strings.TrimSpace(n.Category) == "" {
		return &ValidationError{Field: "category", Reason: "is required"}
	}
	if strings.TrimSpace(n.Description) == "" {
		return &ValidationError{Field: "description", Reason: "is required"}
	}
	if len(n.Description) > 200 {
		return &ValidationError{Field: "description", Reason: "too long (max 200 characters)"}
	}
	if err := n.Date.Validate(); err != nil {
		return &ValidationError{Field: "date", Reason: "is required"}
	}
	if n.Status != "" && !n.Status.Valid() {
		return &ValidationError{Field: "status", Reason: ErrInvalidStatus.Error()}
	}
	return nil
}
