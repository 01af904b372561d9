package importer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/example/flashdeck/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cards.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestImportCandidates_CSV(t *testing.T) {
	path := writeCSV(t, "Front,Back,Source\n"+
		"What is a goroutine?,A lightweight thread managed by the Go runtime,manual\n"+
		"What does GOMAXPROCS control?,The number of OS threads executing Go code,ai\n")

	config := DefaultImportConfig()
	config.FilePath = path
	config.SourceColumn = "C"

	result, err := ImportCandidates(config)

	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalProcessed)
	require.Len(t, result.Cards, 2)

	first := result.Cards[0]
	assert.Equal(t, "What is a goroutine?", first.Front)
	assert.Equal(t, models.StatusPending, first.Status)
	assert.Equal(t, models.ProvenanceManual, first.Source)
	assert.NotEmpty(t, first.LocalID)

	assert.Equal(t, models.ProvenanceAI, result.Cards[1].Source)
}

func TestImportCandidates_SkipsIncompleteRows(t *testing.T) {
	path := writeCSV(t, "Front,Back\n"+
		"only a front,\n"+
		",only a back\n"+
		"complete front,complete back\n")

	config := DefaultImportConfig()
	config.FilePath = path

	result, err := ImportCandidates(config)

	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalProcessed)
	assert.Equal(t, 2, result.Skipped)
	assert.Len(t, result.Errors, 2)
	require.Len(t, result.Cards, 1)
	assert.Equal(t, "complete front", result.Cards[0].Front)
}

func TestImportCandidates_DefaultsUnknownSourceToManual(t *testing.T) {
	path := writeCSV(t, "Front,Back,Source\nfront,back,weird\n")

	config := DefaultImportConfig()
	config.FilePath = path
	config.SourceColumn = "C"

	result, err := ImportCandidates(config)

	require.NoError(t, err)
	require.Len(t, result.Cards, 1)
	assert.Equal(t, models.ProvenanceManual, result.Cards[0].Source)
}

func TestImportCandidates_Excel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Front"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "Back"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "xlsx front"))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", "xlsx back"))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	config := DefaultImportConfig()
	config.FilePath = path

	result, err := ImportCandidates(config)

	require.NoError(t, err)
	require.Len(t, result.Cards, 1)
	assert.Equal(t, "xlsx front", result.Cards[0].Front)
	assert.Equal(t, "xlsx back", result.Cards[0].Back)
}

func TestImportCandidates_MissingFile(t *testing.T) {
	config := DefaultImportConfig()
	config.FilePath = filepath.Join(t.TempDir(), "missing.csv")

	_, err := ImportCandidates(config)
	assert.Error(t, err)
}

func TestColumnToIndex(t *testing.T) {
	assert.Equal(t, 0, columnToIndex("A"))
	assert.Equal(t, 1, columnToIndex("B"))
	assert.Equal(t, 25, columnToIndex("Z"))
	assert.Equal(t, 26, columnToIndex("AA"))
	assert.Equal(t, 0, columnToIndex(""))
}
