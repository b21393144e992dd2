package completion

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func TestParse_WellFormed(t *testing.T) {
	foodID := uuid.New()
	categories := []Category{{ID: foodID, Title: "Food"}}

	text := "bank: DBS\n" +
		"statement date: 19 Jul 2024\n" +
		"total amount: 1123.20\n" +
		"28 Jun 2024, Nespresso ION Singapore SG, 38.60, Food\n"

	stmt, candidates := parseWithClock(text, categories, clock)

	assert.Equal(t, "DBS", stmt.Bank)
	require.NotNil(t, stmt.StatementDate)
	assert.Equal(t, time.Date(2024, 7, 19, 0, 0, 0, 0, time.UTC), *stmt.StatementDate)
	assert.InDelta(t, 1123.20, stmt.TotalAmount, 1e-9)

	require.Len(t, candidates, 1)
	cand := candidates[0]
	assert.Equal(t, "Nespresso ION Singapore SG", cand.Description)
	assert.InDelta(t, 38.60, cand.Amount, 1e-9)
	assert.Equal(t, time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC), cand.Date)
	assert.Equal(t, "Food", cand.CategoryTitle)
	require.NotNil(t, cand.CategoryID)
	assert.Equal(t, foodID, *cand.CategoryID)
}

func TestParse_Tolerance(t *testing.T) {
	inputs := map[string]string{
		"empty":          "",
		"single newline": "\n",
		"binary garbage": "\x00\x01\xfe\xff\x7f",
		"label only":     "bank:",
		"commas only":    ",,,,,,",
		"mixed noise":    "hello\nbank: OCBC\n???\n,,\ntotal amount: oops\n",
	}

	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				stmt, candidates := Parse(in, nil)
				assert.NotNil(t, candidates)
				_ = stmt
			})
		})
	}

	t.Run("unparseable total defaults to zero", func(t *testing.T) {
		stmt, _ := Parse("total amount: N/A", nil)
		assert.Zero(t, stmt.TotalAmount)
	})

	t.Run("invalid statement date stays nil", func(t *testing.T) {
		stmt, _ := Parse("statement date: sometime last week", nil)
		assert.Nil(t, stmt.StatementDate)
	})

	t.Run("missing bank stays empty", func(t *testing.T) {
		stmt, _ := Parse("no metadata here", nil)
		assert.Empty(t, stmt.Bank)
	})
}

func TestParse_CandidateFallbacks(t *testing.T) {
	t.Run("non-numeric amount preserved as NaN", func(t *testing.T) {
		_, candidates := parseWithClock("28 Jun 2024, Mystery Charge, N/A, Food", nil, clock)
		require.Len(t, candidates, 1)
		assert.True(t, math.IsNaN(candidates[0].Amount))
	})

	t.Run("invalid date falls back to now", func(t *testing.T) {
		_, candidates := parseWithClock("yesterday, Taxi, 12.00", nil, clock)
		require.Len(t, candidates, 1)
		assert.Equal(t, fixedNow, candidates[0].Date)
	})

	t.Run("malformed line does not drop the rest", func(t *testing.T) {
		text := "total garbage line\n" +
			"???, ???, ???\n" +
			"28 Jun 2024, Valid Expense, 10.00\n"
		_, candidates := parseWithClock(text, nil, clock)
		// the ??? line has 3 fields so it is still a (degraded) candidate
		require.Len(t, candidates, 2)
		assert.Equal(t, "Valid Expense", candidates[1].Description)
		assert.InDelta(t, 10.00, candidates[1].Amount, 1e-9)
	})

	t.Run("line index reflects position in source text", func(t *testing.T) {
		text := "bank: DBS\n\n28 Jun 2024, A, 1.00\n28 Jun 2024, B, 2.00"
		_, candidates := parseWithClock(text, nil, clock)
		require.Len(t, candidates, 2)
		assert.Equal(t, 2, candidates[0].LineIndex)
		assert.Equal(t, 3, candidates[1].LineIndex)
	})
}

func TestParse_CategoryResolution(t *testing.T) {
	foodID := uuid.New()
	categories := []Category{{ID: foodID, Title: "food"}}

	t.Run("case-insensitive title match", func(t *testing.T) {
		_, candidates := parseWithClock("28 Jun 2024, Lunch, 8.50, FOOD", categories, clock)
		require.Len(t, candidates, 1)
		require.NotNil(t, candidates[0].CategoryID)
		assert.Equal(t, foodID, *candidates[0].CategoryID)
	})

	t.Run("unknown title keeps nil id but retains text", func(t *testing.T) {
		_, candidates := parseWithClock("28 Jun 2024, Lunch, 8.50, Gadgets", categories, clock)
		require.Len(t, candidates, 1)
		assert.Nil(t, candidates[0].CategoryID)
		assert.Equal(t, "Gadgets", candidates[0].CategoryTitle)
	})

	t.Run("three-field line has no category", func(t *testing.T) {
		_, candidates := parseWithClock("28 Jun 2024, Lunch, 8.50", categories, clock)
		require.Len(t, candidates, 1)
		assert.Empty(t, candidates[0].CategoryTitle)
		assert.Nil(t, candidates[0].CategoryID)
	})
}

func TestClassifyLine(t *testing.T) {
	t.Run("metadata wins over comma rule", func(t *testing.T) {
		c := classifyLine("bank: DBS, OCBC, UOB, maybe")
		assert.Equal(t, lineBank, c.kind)
		assert.Equal(t, "DBS, OCBC, UOB, maybe", c.value)
	})

	t.Run("metadata labels are case-insensitive", func(t *testing.T) {
		c := classifyLine("Total Amount: 99.10")
		assert.Equal(t, lineTotalAmount, c.kind)
	})

	t.Run("two fields is unrecognized", func(t *testing.T) {
		c := classifyLine("28 Jun 2024, short line")
		assert.Equal(t, lineUnrecognized, c.kind)
	})

	t.Run("fields are trimmed", func(t *testing.T) {
		c := classifyLine("  28 Jun 2024 ,  Coffee  , 3.50 ")
		require.Equal(t, lineTransaction, c.kind)
		assert.Equal(t, []string{"28 Jun 2024", "Coffee", "3.50"}, c.fields)
	})
}
