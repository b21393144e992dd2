package statement

import (
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func fixtureExpenses(t *testing.T, categoryID uuid.UUID, n int) []Expense {
	t.Helper()
	gofakeit.Seed(42)

	expenses := make([]Expense, n)
	for i := range expenses {
		expenses[i] = Expense{
			ID:          uuid.New(),
			CategoryID:  &categoryID,
			Description: gofakeit.Company(),
			AmountCents: int64(gofakeit.Number(100, 50000)),
			Currency:    "SGD",
			SpentAt:     time.Date(2024, 7, i+1, 0, 0, 0, 0, time.UTC),
		}
	}
	return expenses
}

func TestExportCSV(t *testing.T) {
	categoryID := uuid.New()
	titles := map[uuid.UUID]string{categoryID: "Food"}
	expenses := fixtureExpenses(t, categoryID, 3)
	expenses[0].Description = "Nespresso ION Singapore SG"

	data, err := exportCSV(expenses, titles)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4, "header plus one line per expense")
	assert.Equal(t, "date,description,amount,currency,category", lines[0])
	assert.Contains(t, lines[1], "2024-07-01")
	assert.Contains(t, lines[1], "Nespresso ION Singapore SG")
	assert.Contains(t, lines[1], "Food")
}

func TestExportCSV_UncategorizedExpense(t *testing.T) {
	expenses := []Expense{{
		Description: "SP DIGITAL",
		AmountCents: 4210,
		Currency:    "SGD",
		SpentAt:     time.Date(2024, 7, 5, 0, 0, 0, 0, time.UTC),
	}}

	data, err := exportCSV(expenses, nil)
	require.NoError(t, err)
	assert.Contains(t, string(data), "SP DIGITAL")
}

func TestExportXLSX(t *testing.T) {
	categoryID := uuid.New()
	titles := map[uuid.UUID]string{categoryID: "Transport"}
	st := &Statement{
		Name:      "jul-2024",
		Bank:      "DBS",
		IssueDate: time.Date(2024, 7, 19, 0, 0, 0, 0, time.UTC),
	}
	expenses := fixtureExpenses(t, categoryID, 2)

	data, err := exportXLSX(st, expenses, titles)
	require.NoError(t, err)

	f, err := excelize.OpenReader(strings.NewReader(string(data)))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Expenses")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Date", "Description", "Amount", "Currency", "Category"}, rows[0])
	assert.Equal(t, "Transport", rows[1][4])
}
