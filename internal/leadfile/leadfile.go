// Package leadfile loads lead lists from CSV, JSON, and XLSX files for
// batch intake.
package leadfile

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/yobot/leadflow/internal/model"
)

// Load reads leads from path, dispatching on the file extension.
func Load(path string) ([]model.Lead, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "leadfile: open %s", path)
		}
		defer f.Close() //nolint:errcheck
		return ReadCSV(f)
	case ".json":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "leadfile: open %s", path)
		}
		defer f.Close() //nolint:errcheck
		return ReadJSON(f)
	case ".xlsx":
		return ReadXLSX(path)
	default:
		return nil, eris.Errorf("leadfile: unsupported file type %s", filepath.Ext(path))
	}
}

// headerIndex maps recognized column names (lowercased, space/underscore
// insensitive) to lead fields.
func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		key = strings.ReplaceAll(key, " ", "_")
		switch key {
		case "firstname", "first":
			key = "first_name"
		case "lastname", "last":
			key = "last_name"
		case "company_name", "organization":
			key = "company"
		case "website", "company_domain":
			key = "domain"
		case "source_tool":
			key = "source"
		}
		idx[key] = i
	}
	return idx
}

func cell(row []string, idx map[string]int, key string) string {
	i, ok := idx[key]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func rowToLead(row []string, idx map[string]int) model.Lead {
	return model.Lead{
		FirstName: cell(row, idx, "first_name"),
		LastName:  cell(row, idx, "last_name"),
		Company:   cell(row, idx, "company"),
		Domain:    cell(row, idx, "domain"),
		Email:     cell(row, idx, "email"),
		Phone:     cell(row, idx, "phone"),
		Source:    cell(row, idx, "source"),
	}
}

func isEmpty(l model.Lead) bool {
	return l.FirstName == "" && l.LastName == "" && l.Company == "" &&
		l.Domain == "" && l.Email == "" && l.Phone == ""
}

// ReadCSV parses leads from a CSV stream. The first row is treated as a
// header; unrecognized columns are ignored.
func ReadCSV(r io.Reader) ([]model.Lead, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // allow variable fields

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "leadfile: read csv header")
	}
	idx := headerIndex(header)

	var leads []model.Lead
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "leadfile: read csv row")
		}
		lead := rowToLead(row, idx)
		if !isEmpty(lead) {
			leads = append(leads, lead)
		}
	}
	return leads, nil
}

// ReadJSON parses leads from a JSON array stream.
func ReadJSON(r io.Reader) ([]model.Lead, error) {
	var leads []model.Lead
	if err := json.NewDecoder(r).Decode(&leads); err != nil {
		return nil, eris.Wrap(err, "leadfile: decode json")
	}
	return leads, nil
}

// ReadXLSX parses leads from the first sheet of an XLSX file. The first row
// is treated as a header.
func ReadXLSX(path string) ([]model.Lead, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "leadfile: open xlsx %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("leadfile: xlsx has no sheets")
	}

	sheet := f.Sheets[0]
	var idx map[string]int
	var leads []model.Lead
	for i, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, c := range row.Cells {
			cells[j] = c.String()
		}
		if i == 0 {
			idx = headerIndex(cells)
			continue
		}
		lead := rowToLead(cells, idx)
		if !isEmpty(lead) {
			leads = append(leads, lead)
		}
	}
	return leads, nil
}
