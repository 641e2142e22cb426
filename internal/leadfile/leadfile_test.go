package leadfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func TestReadCSV(t *testing.T) {
	t.Parallel()

	input := strings.NewReader(
		"First Name,Last Name,Company Name,Website,Email,Phone,Source Tool\n" +
			"Jane,Doe,Acme,acme.com,jane@acme.com,+15551234567,scraper\n" +
			"Bob,Smith,Globex,globex.com,,,scraper\n")

	leads, err := ReadCSV(input)
	require.NoError(t, err)
	require.Len(t, leads, 2)

	assert.Equal(t, "Jane", leads[0].FirstName)
	assert.Equal(t, "Acme", leads[0].Company)
	assert.Equal(t, "acme.com", leads[0].Domain)
	assert.Equal(t, "jane@acme.com", leads[0].Email)
	assert.Equal(t, "scraper", leads[0].Source)

	assert.Equal(t, "Bob", leads[1].FirstName)
	assert.Empty(t, leads[1].Email)
}

func TestReadCSVHeaderAliases(t *testing.T) {
	t.Parallel()

	input := strings.NewReader(
		"firstname,lastname,organization,company_domain,email\n" +
			"Jane,Doe,Acme,acme.com,jane@acme.com\n")

	leads, err := ReadCSV(input)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "Jane", leads[0].FirstName)
	assert.Equal(t, "Doe", leads[0].LastName)
	assert.Equal(t, "Acme", leads[0].Company)
	assert.Equal(t, "acme.com", leads[0].Domain)
}

func TestReadCSVSkipsBlankRows(t *testing.T) {
	t.Parallel()

	input := strings.NewReader(
		"first_name,email\n" +
			"Jane,jane@acme.com\n" +
			",\n" +
			"Bob,bob@x.com\n")

	leads, err := ReadCSV(input)
	require.NoError(t, err)
	assert.Len(t, leads, 2)
}

func TestReadCSVShortRows(t *testing.T) {
	t.Parallel()

	input := strings.NewReader(
		"first_name,last_name,email\n" +
			"Jane\n")

	leads, err := ReadCSV(input)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "Jane", leads[0].FirstName)
	assert.Empty(t, leads[0].Email)
}

func TestReadCSVEmpty(t *testing.T) {
	t.Parallel()

	leads, err := ReadCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, leads)
}

func TestReadJSON(t *testing.T) {
	t.Parallel()

	input := strings.NewReader(`[
		{"first_name": "Jane", "last_name": "Doe", "email": "jane@acme.com", "source": "webform"},
		{"first_name": "Bob", "company": "Globex", "domain": "globex.com"}
	]`)

	leads, err := ReadJSON(input)
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, "jane@acme.com", leads[0].Email)
	assert.Equal(t, "webform", leads[0].Source)
	assert.Equal(t, "globex.com", leads[1].Domain)
}

func TestReadJSONInvalid(t *testing.T) {
	t.Parallel()

	_, err := ReadJSON(strings.NewReader(`{"not": "an array"}`))
	require.Error(t, err)
}

func TestReadXLSX(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "leads.xlsx")

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Leads")
	require.NoError(t, err)

	header := sheet.AddRow()
	for _, h := range []string{"First Name", "Last Name", "Email", "Website"} {
		header.AddCell().Value = h
	}
	row := sheet.AddRow()
	for _, v := range []string{"Jane", "Doe", "jane@acme.com", "acme.com"} {
		row.AddCell().Value = v
	}
	require.NoError(t, f.Save(path))

	leads, err := ReadXLSX(path)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "Jane", leads[0].FirstName)
	assert.Equal(t, "jane@acme.com", leads[0].Email)
	assert.Equal(t, "acme.com", leads[0].Domain)
}

func TestLoadDispatchesByExtension(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	csvPath := filepath.Join(dir, "leads.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("email\njane@acme.com\n"), 0o600))

	jsonPath := filepath.Join(dir, "leads.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`[{"email": "bob@x.com"}]`), 0o600))

	fromCSV, err := Load(csvPath)
	require.NoError(t, err)
	require.Len(t, fromCSV, 1)
	assert.Equal(t, "jane@acme.com", fromCSV[0].Email)

	fromJSON, err := Load(jsonPath)
	require.NoError(t, err)
	require.Len(t, fromJSON, 1)
	assert.Equal(t, "bob@x.com", fromJSON[0].Email)
}

func TestLoadUnsupportedExtension(t *testing.T) {
	t.Parallel()

	_, err := Load("leads.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
}
