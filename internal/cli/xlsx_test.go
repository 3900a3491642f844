package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportImportRoundTrip(t *testing.T) {
	src := tempDB(t)
	_, err := execute(t, "set", "--db", src, "A1", "5")
	require.NoError(t, err)
	_, err = execute(t, "set", "--db", src, "B1", "A1 * 2", "--language", "formula")
	require.NoError(t, err)
	_, err = execute(t, "set", "--db", src, "A2", "total")
	require.NoError(t, err)

	book := filepath.Join(t.TempDir(), "book.xlsx")
	out, err := execute(t, "export", "--db", src, book)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 1 sheet(s)")

	f, err := excelize.OpenFile(book)
	require.NoError(t, err)
	v, err := f.GetCellValue("Sheet 1", "B1")
	require.NoError(t, err)
	assert.Equal(t, "10", v)
	require.NoError(t, f.Close())

	dst := tempDB(t)
	out, err = execute(t, "--format", "json", "import", "--db", dst, book)
	require.NoError(t, err)
	var result WorkbookResult
	decode(t, out, &result)
	assert.Equal(t, []string{"Sheet 1"}, result.Sheets)
	assert.Equal(t, 1, result.Saved)

	out, err = execute(t, "--format", "json", "replay", "--db", dst)
	require.NoError(t, err)
	var replayed ReplayResult
	decode(t, out, &replayed)
	assert.Equal(t, map[string]map[string]string{
		"Sheet 1": {"A1": "5", "B1": "10", "A2": "total"},
	}, replayed.State)
	assert.Equal(t, 1, replayed.Transactions)
}

func TestImportIntoExistingLog(t *testing.T) {
	src := tempDB(t)
	_, err := execute(t, "set", "--db", src, "A1", "1")
	require.NoError(t, err)
	book := filepath.Join(t.TempDir(), "book.xlsx")
	_, err = execute(t, "export", "--db", src, book)
	require.NoError(t, err)

	// Same sheet name: the import lands on the existing sheet.
	dst := tempDB(t)
	_, err = execute(t, "set", "--db", dst, "C3", "keep")
	require.NoError(t, err)
	_, err = execute(t, "import", "--db", dst, book)
	require.NoError(t, err)

	out, err := execute(t, "--format", "json", "replay", "--db", dst)
	require.NoError(t, err)
	var replayed ReplayResult
	decode(t, out, &replayed)
	assert.Equal(t, "1", replayed.State["Sheet 1"]["A1"])
	assert.Equal(t, "keep", replayed.State["Sheet 1"]["C3"])
}

func TestImportUnknownSheet(t *testing.T) {
	book := filepath.Join(t.TempDir(), "other.xlsx")
	f := excelize.NewFile()
	_, err := f.NewSheet("Elsewhere")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Elsewhere", "A1", "x"))
	require.NoError(t, f.SaveAs(book))
	require.NoError(t, f.Close())

	dst := tempDB(t)
	_, err = execute(t, "set", "--db", dst, "A1", "1")
	require.NoError(t, err)

	_, err = execute(t, "import", "--db", dst, book)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), `sheet "Sheet1" not found`)
}

func TestExportEmptyLog(t *testing.T) {
	_, err := execute(t, "export", "--db", tempDB(t), filepath.Join(t.TempDir(), "out.xlsx"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "is empty")
}

func TestImportNotAWorkbook(t *testing.T) {
	_, err := execute(t, "import", "--db", tempDB(t), filepath.Join(t.TempDir(), "missing.xlsx"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to read workbook")
}
