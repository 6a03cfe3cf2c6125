package core

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		in   string
		want Classification
	}{
		{"DONATION", Revenue},
		{"Donation", Revenue},
		{"donation", Revenue},
		{"Donations", Revenue},
		{"fundraising", Revenue},
		{" Sponsorship ", Revenue},
		{"food", Expense},
		{"GIVEAWAY", Expense},
		{"Uniforms", Expense},
		{"widgets", Unclassified},
		{"", Unclassified},
		{"Sponsors", Unclassified},
	}
	for _, tc := range cases {
		if got := Classify(tc.in); got != tc.want {
			t.Fatalf("Classify(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestCodeForCategory(t *testing.T) {
	cases := map[string]string{
		"donation":    "3300",
		"fundraising": "3311",
		"sponsorship": "3325",
		"Food":        "5520",
		"giveaway":    "6413",
		"uniforms":    "5751",
		"widgets":     "",
		"donations":   "",
	}
	for cat, want := range cases {
		if got := CodeForCategory(cat); got != want {
			t.Fatalf("CodeForCategory(%q) = %q, want %q", cat, got, want)
		}
	}
}

func TestSetCategoryRederivesCode(t *testing.T) {
	var n NewTransaction
	n.SetCategory("food")
	if n.Code != "5520" {
		t.Fatalf("expected 5520, got %q", n.Code)
	}
	n.SetCategory("sponsorship")
	if n.Code != "3325" {
		t.Fatalf("expected 3325, got %q", n.Code)
	}
	n.SetCategory("widgets")
	if n.Code != "" {
		t.Fatalf("expected empty code for unknown category, got %q", n.Code)
	}
}

func TestPeriodFieldForCode(t *testing.T) {
	if f, ok := PeriodFieldForCode("6413"); !ok || f != FieldGiveaway {
		t.Fatalf("6413 -> %q %v", f, ok)
	}
	if _, ok := PeriodFieldForCode("3981"); ok {
		t.Fatalf("3981 should not map to a field")
	}
	p := FinancialPeriod{Giveaway: Cents(80000)}
	if v, ok := p.Field(FieldGiveaway); !ok || v.Cents != 80000 {
		t.Fatalf("Field(giveaway) = %v %v", v, ok)
	}
}
