package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/Dan9191/barakah/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func readSheet(t *testing.T, raw []byte, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

func TestTransactionsXLSX(t *testing.T) {
	ts := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	txs := []models.Transaction{
		{ID: "1", Amount: 500, Currency: models.CurrencyARS, Type: models.TransactionExpense, Description: "طعام", Timestamp: ts, Status: "completed"},
		{ID: "2", Amount: 20, Type: models.TransactionIncome, Description: "عمل"},
	}

	out, err := TransactionsXLSX(txs)
	require.NoError(t, err)

	rows := readSheet(t, out, TransactionsSheet)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"التاريخ", "النوع", "الوصف", "المبلغ", "العملة", "الحالة"}, rows[0])
	assert.Equal(t, []string{"2025-03-10", "مصروف", "طعام", "500", "ARS", "completed"}, rows[1])
	assert.Equal(t, "دخل", rows[2][1])
	assert.Equal(t, "ARS", rows[2][4], "missing currency defaults to pesos")
	assert.Empty(t, rows[2][0])
}

func TestAppointmentsXLSX(t *testing.T) {
	apts := []models.Appointment{
		{Title: "لاحق", Date: "2025-03-12", Time: "09:00"},
		{Title: "مساء", Date: "2025-03-11", Time: "18:00", IsCompleted: true},
		{Title: "صباح", Date: "2025-03-11", Time: "08:00", Notes: "صائم"},
	}

	out, err := AppointmentsXLSX(apts)
	require.NoError(t, err)

	rows := readSheet(t, out, AppointmentsSheet)
	require.Len(t, rows, 4)
	assert.Equal(t, "صباح", rows[1][2])
	assert.Equal(t, "صائم", rows[1][3])
	assert.Equal(t, "معلق", rows[1][4])
	assert.Equal(t, "مكتمل", rows[2][4])
	assert.Equal(t, "لاحق", rows[3][2])
	assert.Equal(t, "لاحق", apts[0].Title, "input order is untouched")
}
