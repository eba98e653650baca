package export

import (
	"fmt"
	"sort"

	"github.com/Dan9191/barakah/internal/models"
	"github.com/xuri/excelize/v2"
)

const (
	TransactionsSheet = "المعاملات المالية"
	AppointmentsSheet = "المواعيد"
)

// TransactionsXLSX writes the finance ledger as a right-to-left sheet
func TransactionsXLSX(txs []models.Transaction) ([]byte, error) {
	rows := make([][]any, 0, len(txs))
	for _, t := range txs {
		kind := "مصروف"
		if t.Type == models.TransactionIncome {
			kind = "دخل"
		}
		currency := t.Currency
		if currency == "" {
			currency = models.CurrencyARS
		}
		date := ""
		if !t.Timestamp.IsZero() {
			date = t.Timestamp.Format("2006-01-02")
		}
		rows = append(rows, []any{date, kind, t.Description, t.Amount, string(currency), t.Status})
	}
	return workbook(TransactionsSheet,
		[]any{"التاريخ", "النوع", "الوصف", "المبلغ", "العملة", "الحالة"},
		[]float64{12, 10, 30, 14, 8, 12},
		rows)
}

// AppointmentsXLSX writes appointments ordered by date and time
func AppointmentsXLSX(apts []models.Appointment) ([]byte, error) {
	sorted := append([]models.Appointment(nil), apts...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Date != sorted[j].Date {
			return sorted[i].Date < sorted[j].Date
		}
		return sorted[i].Time < sorted[j].Time
	})

	rows := make([][]any, 0, len(sorted))
	for _, a := range sorted {
		status := "معلق"
		if a.IsCompleted {
			status = "مكتمل"
		}
		rows = append(rows, []any{a.Date, a.Time, a.Title, a.Notes, status})
	}
	return workbook(AppointmentsSheet,
		[]any{"التاريخ", "الوقت", "العنوان", "الملاحظات", "الحالة"},
		[]float64{12, 8, 30, 30, 10},
		rows)
}

func workbook(sheet string, header []any, widths []float64, rows [][]any) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	rtl := true
	if err := f.SetSheetView(sheet, -1, &excelize.ViewOptions{RightToLeft: &rtl}); err != nil {
		return nil, fmt.Errorf("failed to set sheet view: %w", err)
	}

	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
