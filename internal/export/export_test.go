package export

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/hanbinChen97/find-the-company/internal/model"
)

func sampleTable() model.ResultTable {
	return model.ResultTable{
		{
			Identifier: model.Identifier{Index: 0, Name: "Acme GmbH"},
			Status:     model.StatusOK,
			Record: model.PartialRecord{
				Homepage:    "https://acme.example",
				ContactPage: "https://acme.example/contact",
				Phone:       "+49 30 1234567",
				Country:     "Germany",
				City:        "Berlin",
				CEO:         "Jane Doe",
				Cofounders:  []string{"Jane Doe", "John Roe"},
				SourceURLs:  []string{"https://dir.example/acme"},
			},
		},
		{
			Identifier: model.Identifier{Index: 1, Name: "Globex"},
			Status:     model.StatusError,
			Err:        "profile fetch failed",
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleTable()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, Columns, records[0])
	assert.Equal(t, []string{
		"0", "Acme GmbH", "ok", "",
		"https://acme.example", "https://acme.example/contact",
		"+49 30 1234567", "Germany", "Berlin",
		"Jane Doe", "Jane Doe; John Roe", "https://dir.example/acme",
	}, records[1])
	assert.Equal(t, "1", records[2][0])
	assert.Equal(t, "error", records[2][2])
	assert.Equal(t, "profile fetch failed", records[2][3])
}

func TestCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	table := sampleTable()

	require.NoError(t, SaveCSV(path, table))

	got, err := ReadCSV(path)
	require.NoError(t, err)
	require.Len(t, got, len(table))
	assert.Equal(t, table[0].Record, got[0].Record)
	assert.Equal(t, table[0].Identifier.Index, got[0].Identifier.Index)
	assert.Equal(t, table[0].Identifier.Name, got[0].Identifier.Name)
	assert.Equal(t, table[1].Status, got[1].Status)
	assert.Equal(t, table[1].Err, got[1].Err)
}

func TestReadCSVRejectsBadHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("name,status\nAcme,ok\n"), 0o644))

	_, err := ReadCSV(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected csv header")
}

func TestReadCSVRejectsBadStatus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	row := "0,Acme,pending,,,,,,,,,"
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(Columns, ",")+"\n"+row+"\n"), 0o644))

	_, err := ReadCSV(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown status")
}

func TestSaveXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.xlsx")
	require.NoError(t, SaveXLSX(path, sampleTable()))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)

	sheet := f.Sheets[0]
	assert.Equal(t, "results", sheet.Name)
	require.Len(t, sheet.Rows, 3)
	assert.Equal(t, "index", sheet.Rows[0].Cells[0].Value)
	assert.Equal(t, "Acme GmbH", sheet.Rows[1].Cells[1].Value)
	assert.Equal(t, "Jane Doe; John Roe", sheet.Rows[1].Cells[10].Value)
}
