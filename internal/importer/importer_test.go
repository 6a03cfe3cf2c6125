package importer

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clubdash/internal/core"
	"clubdash/internal/ledger/mocks"
)

const sample = `club_id,amount,code,category,description,date,status,vendor,receipt_url
1,125.50,3300,donation,Alumni gift,09/15/24,Completed,N/A,N/A
1,-40,,food,Pizza night,2024-09-20,completed,Joe's,https://r.example/1
1,abc,5520,food,Broken amount,2024-09-21,completed,,
1,10,5520,food,Bad date,Sept 1,completed,,
1,10,5520,food,,2024-09-22,pending,,
`

func TestReadCSV(t *testing.T) {
	rows, rowErrs, err := ReadCSV(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Len(t, rowErrs, 3)

	first := rows[0].Tx
	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, int64(1), first.UnitID)
	assert.Equal(t, core.MustAmount("125.50"), first.Amount)
	assert.Equal(t, "3300", first.Code)
	assert.Equal(t, core.NewDate(2024, 9, 15), first.Date)
	assert.Equal(t, core.StatusCompleted, first.Status)
	assert.Empty(t, first.Vendor)
	assert.Empty(t, first.ReceiptURL)

	second := rows[1].Tx
	assert.Equal(t, "5520", second.Code, "code derived from category when the column is blank")
	assert.Equal(t, "Joe's", second.Vendor)

	assert.Equal(t, 4, rowErrs[0].Line)
	assert.True(t, errors.Is(rowErrs[0], core.ErrValidation))
	assert.Equal(t, 5, rowErrs[1].Line)
	assert.Contains(t, rowErrs[1].Error(), "date")
	assert.Equal(t, 6, rowErrs[2].Line)
	assert.Contains(t, rowErrs[2].Error(), "description")
}

func TestParseRecords_MissingColumns(t *testing.T) {
	_, _, err := ParseRecords([][]string{{"club_id", "amount"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "category")

	_, _, err = ParseRecords(nil)
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    core.Date
		wantErr bool
	}{
		{"09/15/24", core.NewDate(2024, 9, 15), false},
		{"1/5/25", core.NewDate(2025, 1, 5), false},
		{"2024-02-29", core.NewDate(2024, 2, 29), false},
		{"2024-13-01", core.Date{}, true},
		{"", core.Date{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestImport(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := mocks.NewMockLedger(ctrl)

	rows := []Row{
		{Line: 2, Tx: core.NewTransaction{UnitID: 1, Amount: core.Cents(100), Description: "a"}},
		{Line: 3, Tx: core.NewTransaction{UnitID: 1, Amount: core.Cents(200), Description: "b"}},
		{Line: 4, Tx: core.NewTransaction{UnitID: 1, Amount: core.Cents(300), Description: "c"}},
	}
	m.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, in core.NewTransaction) (core.Transaction, error) {
			if in.Description == "b" {
				return core.Transaction{}, errors.New("api error: 422")
			}
			return core.Transaction{ID: "id-" + in.Description, Amount: in.Amount}, nil
		}).Times(3)

	res, err := New(m, 2).Import(context.Background(), rows)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 3, res.Errors[0].Line)
}

func TestImport_Cancelled(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := mocks.NewMockLedger(ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rows := []Row{{Line: 2}, {Line: 3}}
	m.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).Return(core.Transaction{}, context.Canceled).AnyTimes()

	res, err := New(m, 1).Import(ctx, rows)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Zero(t, res.Created)
}

func TestImport_ErrorsSortable(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := mocks.NewMockLedger(ctrl)
	m.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).Return(core.Transaction{}, errors.New("down")).Times(4)

	rows := []Row{{Line: 5}, {Line: 2}, {Line: 4}, {Line: 3}}
	res, err := New(m, 4).Import(context.Background(), rows)
	require.NoError(t, err)

	lines := make([]int, 0, len(res.Errors))
	for _, e := range res.Errors {
		lines = append(lines, e.Line)
	}
	sort.Ints(lines)
	assert.Equal(t, []int{2, 3, 4, 5}, lines)
}
