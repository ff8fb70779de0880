package xlsx

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"tasbih-counter/internal/domain"
)

func TestWrite(t *testing.T) {
	ts := time.Date(2025, 3, 26, 10, 0, 0, 0, time.UTC)
	entries := []domain.Entry{
		{Timestamp: ts, Name: "Ali", Count: 5},
		{Timestamp: ts.Add(time.Hour), Name: "Sara", Count: 33},
	}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, entries))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Timestamp", "Name", "Count"}, rows[0])
	assert.Equal(t, []string{"2025-03-26T10:00:00.000Z", "Ali", "5"}, rows[1])
	assert.Equal(t, []string{"2025-03-26T11:00:00.000Z", "Sara", "33"}, rows[2])
	assert.Equal(t, "Total", rows[3][0])
	assert.Equal(t, "38", rows[3][2])
}

func TestWrite_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Total", rows[1][0])
}
