// Package export flattens a finished result table into tabular files.
// Column order and presence are stable across runs so downstream sheets
// can rely on them.
package export

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/hanbinChen97/find-the-company/internal/model"
)

// Columns is the fixed export column set, one row per result entry.
var Columns = []string{
	"index",
	"name",
	"status",
	"error",
	"homepage",
	"contact_page",
	"phone",
	"country",
	"city",
	"ceo",
	"cofounders",
	"source_urls",
}

// listSeparator joins multi-value cells. Semicolon keeps cells safe inside
// comma-separated output.
const listSeparator = "; "

// Row flattens one entry into the fixed column order.
func Row(e model.ResultEntry) []string {
	return []string{
		strconv.Itoa(e.Identifier.Index),
		e.Identifier.Name,
		string(e.Status),
		e.Err,
		e.Record.Homepage,
		e.Record.ContactPage,
		e.Record.Phone,
		e.Record.Country,
		e.Record.City,
		e.Record.CEO,
		strings.Join(e.Record.Cofounders, listSeparator),
		strings.Join(e.Record.SourceURLs, listSeparator),
	}
}

// WriteCSV writes the table with a header row.
func WriteCSV(w io.Writer, table model.ResultTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for _, entry := range table {
		if err := cw.Write(Row(entry)); err != nil {
			return eris.Wrap(err, "export: write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

// SaveCSV writes the table to a CSV file at path.
func SaveCSV(path string, table model.ResultTable) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "export: create csv file")
	}
	defer f.Close() //nolint:errcheck

	return WriteCSV(f, table)
}

// SaveXLSX writes the table to an XLSX workbook at path.
func SaveXLSX(path string, table model.ResultTable) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("results")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range Columns {
		header.AddCell().Value = col
	}
	for _, entry := range table {
		row := sheet.AddRow()
		for _, cell := range Row(entry) {
			row.AddCell().Value = cell
		}
	}

	return eris.Wrap(f.Save(path), "export: save xlsx")
}

// ReadCSV loads a previously exported CSV back into a result table, for
// the enhance pass over a finished export. Unknown or reordered headers
// are rejected; the export format is fixed.
func ReadCSV(path string) (model.ResultTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "export: open csv file")
	}
	defer f.Close() //nolint:errcheck

	cr := csv.NewReader(f)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "export: read csv")
	}
	if len(records) == 0 {
		return nil, eris.New("export: empty csv")
	}
	if !equalStrings(records[0], Columns) {
		return nil, eris.Errorf("export: unexpected csv header %v", records[0])
	}

	table := make(model.ResultTable, 0, len(records)-1)
	for i, rec := range records[1:] {
		entry, err := rowToEntry(rec)
		if err != nil {
			return nil, eris.Wrapf(err, "export: row %d", i+2)
		}
		table = append(table, entry)
	}
	return table, nil
}

func rowToEntry(rec []string) (model.ResultEntry, error) {
	if len(rec) != len(Columns) {
		return model.ResultEntry{}, eris.Errorf("expected %d columns, got %d", len(Columns), len(rec))
	}
	index, err := strconv.Atoi(rec[0])
	if err != nil {
		return model.ResultEntry{}, eris.Wrap(err, "parse index")
	}

	status := model.EntryStatus(rec[2])
	if status != model.StatusOK && status != model.StatusError {
		return model.ResultEntry{}, eris.Errorf("unknown status %q", rec[2])
	}

	return model.ResultEntry{
		Identifier: model.Identifier{Index: index, Name: rec[1]},
		Status:     status,
		Err:        rec[3],
		Record: model.PartialRecord{
			Homepage:    rec[4],
			ContactPage: rec[5],
			Phone:       rec[6],
			Country:     rec[7],
			City:        rec[8],
			CEO:         rec[9],
			Cofounders:  splitList(rec[10]),
			SourceURLs:  splitList(rec[11]),
		},
	}, nil
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
