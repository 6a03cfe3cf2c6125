package reconcile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clubdash/internal/core"
	"clubdash/internal/reconcile"
)

func period(id string, start, end core.Date) core.FinancialPeriod {
	return core.FinancialPeriod{ID: id, UnitID: 1, PeriodStart: start, PeriodEnd: end}
}

func tx(id, category, amount string, date core.Date) core.Transaction {
	return core.Transaction{ID: id, UnitID: 1, Category: category, Amount: core.MustAmount(amount), Date: date}
}

func TestSelectDefaultPeriod(t *testing.T) {
	tests := []struct {
		name    string
		periods []core.FinancialPeriod
		wantID  string
	}{
		{
			name:    "empty",
			periods: nil,
		},
		{
			name: "latest end wins regardless of order",
			periods: []core.FinancialPeriod{
				period("a", core.NewDate(2023, 7, 1), core.NewDate(2024, 6, 30)),
				period("b", core.NewDate(2024, 7, 1), core.NewDate(2025, 6, 30)),
				period("c", core.NewDate(2022, 7, 1), core.NewDate(2023, 6, 30)),
			},
			wantID: "b",
		},
		{
			name: "tie keeps input order",
			periods: []core.FinancialPeriod{
				period("first", core.NewDate(2024, 1, 1), core.NewDate(2025, 6, 30)),
				period("second", core.NewDate(2024, 7, 1), core.NewDate(2025, 6, 30)),
			},
			wantID: "first",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reconcile.SelectDefaultPeriod(tt.periods)
			if tt.wantID == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}
}

func TestSelectDefaultPeriodDoesNotMutateInput(t *testing.T) {
	in := []core.FinancialPeriod{
		period("old", core.NewDate(2023, 7, 1), core.NewDate(2024, 6, 30)),
		period("new", core.NewDate(2024, 7, 1), core.NewDate(2025, 6, 30)),
	}
	reconcile.SelectDefaultPeriod(in)
	assert.Equal(t, "old", in[0].ID)
}

func TestSortTransactionsByDateDescStableAndIdempotent(t *testing.T) {
	in := []core.Transaction{
		tx("1", "sponsorship", "2000", core.NewDate(2024, 11, 10)),
		tx("2", "giveaway", "-500", core.NewDate(2024, 11, 12)),
		tx("3", "donation", "1500", core.NewDate(2024, 11, 12)),
		tx("4", "food", "-300", core.NewDate(2024, 11, 16)),
	}

	once := reconcile.SortTransactionsByDateDesc(in)
	ids := make([]string, len(once))
	for i, v := range once {
		ids[i] = v.ID
	}
	assert.Equal(t, []string{"4", "2", "3", "1"}, ids)

	twice := reconcile.SortTransactionsByDateDesc(once)
	assert.Equal(t, once, twice)
	assert.Equal(t, "1", in[0].ID, "input must not be reordered")
}

func TestClassifyCaseInsensitive(t *testing.T) {
	for _, c := range []string{"DONATION", "Donation", "donation"} {
		assert.Equal(t, core.Revenue, reconcile.Classify(c), c)
	}
	assert.Equal(t, core.Unclassified, reconcile.Classify("widgets"))
}

func TestSpendingByCategoryEmpty(t *testing.T) {
	got := reconcile.SpendingByCategory(nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Equal(t, int64(0), got.Total().Cents)
}

func TestSpendingByCategoryExcludesRevenue(t *testing.T) {
	d := core.NewDate(2024, 11, 1)
	got := reconcile.SpendingByCategory([]core.Transaction{
		tx("1", "food", "-300", d),
		tx("2", "giveaway", "-500", d),
		tx("3", "donation", "1500", d),
	})

	require.Len(t, got, 2)
	assert.Equal(t, "food", got[0].Category)
	assert.Equal(t, int64(30000), got[0].TotalAbs.Cents)
	assert.Equal(t, "giveaway", got[1].Category)
	assert.Equal(t, int64(50000), got[1].TotalAbs.Cents)
	assert.Equal(t, int64(80000), got.Total().Cents)
}

func TestSpendingByCategoryGroupsRawCategoryAndColorsDeterministically(t *testing.T) {
	d := core.NewDate(2024, 11, 1)
	in := []core.Transaction{
		tx("1", "Uniforms", "-800", d),
		tx("2", "food", "-100", d),
		tx("3", "Uniforms", "400", d),
		tx("4", "widgets", "-999", d),
		tx("5", "Food", "-50", d),
	}

	first := reconcile.SpendingByCategory(in)
	require.Len(t, first, 3)
	assert.Equal(t, "Uniforms", first[0].Category)
	assert.Equal(t, int64(120000), first[0].TotalAbs.Cents)
	assert.Equal(t, "food", first[1].Category)
	assert.Equal(t, "Food", first[2].Category)
	assert.Equal(t, reconcile.Palette[0], first[0].Color)
	assert.Equal(t, reconcile.Palette[1], first[1].Color)
	assert.Equal(t, reconcile.Palette[2], first[2].Color)

	assert.Equal(t, first, reconcile.SpendingByCategory(in))
}

func TestSpendingByCategoryPaletteWraps(t *testing.T) {
	d := core.NewDate(2024, 11, 1)
	var in []core.Transaction
	cats := []string{"food", "Food", "FOOD", "giveaway", "Giveaway", "GIVEAWAY", "uniforms"}
	for i, c := range cats {
		in = append(in, tx(string(rune('a'+i)), c, "-1", d))
	}
	got := reconcile.SpendingByCategory(in)
	require.Len(t, got, len(cats))
	assert.Equal(t, reconcile.Palette[0], got[len(reconcile.Palette)].Color)
}

func TestDeriveTotals(t *testing.T) {
	p := core.FinancialPeriod{
		CurrentBalance: core.MustAmount("1"),
		Donations:      core.MustAmount("2500"),
		Sponsorship:    core.MustAmount("5000"),
		Fundraising:    core.MustAmount("3200"),
		Food:           core.MustAmount("950"),
		Giveaway:       core.MustAmount("800"),
		Uniforms:       core.MustAmount("1200"),
	}
	got := reconcile.DeriveTotals(p)
	assert.Equal(t, int64(1070000), got.Revenue.Cents)
	assert.Equal(t, int64(295000), got.Expense.Cents)
}

func TestDeriveTotalsAllZero(t *testing.T) {
	got := reconcile.DeriveTotals(core.FinancialPeriod{})
	assert.True(t, got.Revenue.IsZero())
	assert.True(t, got.Expense.IsZero())
}

func TestFindPeriodForDate(t *testing.T) {
	periods := []core.FinancialPeriod{
		period("p1", core.NewDate(2023, 7, 1), core.NewDate(2024, 6, 30)),
		period("p2", core.NewDate(2024, 7, 1), core.NewDate(2025, 6, 30)),
	}
	p, ok := reconcile.FindPeriodForDate(periods, core.NewDate(2024, 7, 1))
	require.True(t, ok)
	assert.Equal(t, "p2", p.ID)

	_, ok = reconcile.FindPeriodForDate(periods, core.NewDate(2026, 1, 1))
	assert.False(t, ok)
}
