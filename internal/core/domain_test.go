package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDateJSON(t *testing.T) {
	var d Date
	if err := json.Unmarshal([]byte(`"2024-11-10"`), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d != NewDate(2024, 11, 10) {
		t.Fatalf("got %v", d)
	}
	if err := json.Unmarshal([]byte(`"2024-11-10T15:04:05Z"`), &d); err != nil {
		t.Fatalf("unmarshal timestamp: %v", err)
	}
	if d != NewDate(2024, 11, 10) {
		t.Fatalf("timestamp should truncate to date, got %v", d)
	}
	if err := json.Unmarshal([]byte(`"11/10/24"`), &d); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
	out, _ := json.Marshal(NewDate(2025, 6, 30))
	if string(out) != `"2025-06-30"` {
		t.Fatalf("marshal got %s", out)
	}
}

func TestPeriodValidate(t *testing.T) {
	ok := FinancialPeriod{ID: "p", PeriodStart: NewDate(2024, 7, 1), PeriodEnd: NewDate(2025, 6, 30)}
	if err := ok.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	same := FinancialPeriod{ID: "p", PeriodStart: NewDate(2024, 7, 1), PeriodEnd: NewDate(2024, 7, 1)}
	if err := same.Validate(); err != nil {
		t.Fatalf("single-day period should be valid, got %v", err)
	}
	bad := FinancialPeriod{ID: "p", PeriodStart: NewDate(2025, 7, 1), PeriodEnd: NewDate(2024, 6, 30)}
	if err := bad.Validate(); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
	if err := (FinancialPeriod{}).Validate(); err == nil {
		t.Fatalf("expected error for zero dates")
	}
}

func TestPeriodContains(t *testing.T) {
	p := FinancialPeriod{PeriodStart: NewDate(2024, 7, 1), PeriodEnd: NewDate(2025, 6, 30)}
	cases := []struct {
		d  Date
		in bool
	}{
		{NewDate(2024, 7, 1), true},
		{NewDate(2025, 6, 30), true},
		{NewDate(2024, 12, 25), true},
		{NewDate(2024, 6, 30), false},
		{NewDate(2025, 7, 1), false},
	}
	for _, tc := range cases {
		if got := p.Contains(tc.d); got != tc.in {
			t.Fatalf("Contains(%s) = %v, want %v", tc.d, got, tc.in)
		}
	}
}

func TestNewTransactionValidate(t *testing.T) {
	good := NewTransaction{
		UnitID:      1,
		Amount:      Cents(-30000),
		Description: "General Meeting Pizza",
		Date:        NewDate(2024, 11, 16),
	}
	good.SetCategory("food")
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := map[string]func(n *NewTransaction){
		"amount":      func(n *NewTransaction) { n.Amount = Amount{} },
		"category":    func(n *NewTransaction) { n.SetCategory(" ") },
		"description": func(n *NewTransaction) { n.Description = "" },
		"date":        func(n *NewTransaction) { n.Date = Date{} },
		"status":      func(n *NewTransaction) { n.Status = "refunded" },
	}
	for field, mutate := range cases {
		n := good
		mutate(&n)
		err := n.Validate()
		var verr *ValidationError
		if !errors.As(err, &verr) || verr.Field != field {
			t.Fatalf("%s: expected validation error on field, got %v", field, err)
		}
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("%s: expected errors.Is ErrValidation", field)
		}
	}
}

func TestStatusSettled(t *testing.T) {
	if !StatusCompleted.Settled() || !StatusApproved.Settled() {
		t.Fatalf("completed and approved should be settled")
	}
	if StatusPending.Settled() || StatusCancelled.Settled() {
		t.Fatalf("pending and cancelled should not be settled")
	}
}
