package statement

import (
	"bytes"
	"fmt"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/ledgerlens/pkg/money"
)

// exportRow is the flattened expense shape shared by both export formats.
// gocsv marshals it by header tag.
type exportRow struct {
	Date        string `csv:"date"`
	Description string `csv:"description"`
	Amount      string `csv:"amount"`
	Currency    string `csv:"currency"`
	Category    string `csv:"category"`
}

func buildExportRows(expenses []Expense, categoryTitles map[uuid.UUID]string) []exportRow {
	rows := make([]exportRow, 0, len(expenses))
	for _, e := range expenses {
		category := ""
		if e.CategoryID != nil {
			category = categoryTitles[*e.CategoryID]
		}
		rows = append(rows, exportRow{
			Date:        e.SpentAt.Format("2006-01-02"),
			Description: e.Description,
			Amount:      money.New(e.AmountCents, e.Currency).String(),
			Currency:    e.Currency,
			Category:    category,
		})
	}
	return rows
}

// exportCSV renders expenses as a CSV document
func exportCSV(expenses []Expense, categoryTitles map[uuid.UUID]string) ([]byte, error) {
	var buf bytes.Buffer
	if err := gocsv.Marshal(buildExportRows(expenses, categoryTitles), &buf); err != nil {
		return nil, fmt.Errorf("failed to marshal csv: %w", err)
	}
	return buf.Bytes(), nil
}

// exportXLSX renders expenses as a spreadsheet with one sheet per statement
func exportXLSX(s *Statement, expenses []Expense, categoryTitles map[uuid.UUID]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Expenses"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Date", "Description", "Amount", "Currency", "Category"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	for rowIdx, row := range buildExportRows(expenses, categoryTitles) {
		values := []any{row.Date, row.Description, row.Amount, row.Currency, row.Category}
		for colIdx, v := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("failed to write row %d: %w", rowIdx, err)
			}
		}
	}

	meta := fmt.Sprintf("%s statement, issued %s", s.Bank, s.IssueDate.Format("2 Jan 2006"))
	if err := f.SetDocProps(&excelize.DocProperties{
		Title:       s.Name,
		Description: meta,
		Created:     time.Now().Format(time.RFC3339),
	}); err != nil {
		return nil, fmt.Errorf("failed to set doc properties: %w", err)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
