package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Lllllllleong/equipmentchecklist/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func setupEnvironment(t *testing.T) (shared string) {
	t.Helper()
	dir := t.TempDir()
	templates := filepath.Join(dir, "templates")
	require.NoError(t, os.MkdirAll(templates, 0o755))

	wb := excelize.NewFile()
	require.NoError(t, wb.SetCellValue("Sheet1", "A1", 1))
	require.NoError(t, wb.SetCellValue("Sheet1", "A2", 2))
	require.NoError(t, wb.SetCellValue("Sheet1", "A3", "Validación"))
	require.NoError(t, wb.SaveAs(filepath.Join(templates, "plantilla_pc.xlsx")))
	require.NoError(t, wb.Close())

	catalogPath := filepath.Join(dir, "checklists.yaml")
	require.NoError(t, os.WriteFile(catalogPath, []byte(`
checklists:
  - type: pc
    organization: Acme
    displayType: PC
    template: plantilla_pc.xlsx
    questions: [Enciende, Antivirus]
`), 0o644))

	shared = filepath.Join(dir, "share")
	t.Setenv("OUTPUT_DIR", filepath.Join(dir, "output"))
	t.Setenv("TEMPLATES_DIR", templates)
	t.Setenv("SHARED_NETWORK_PATH", shared)
	t.Setenv("DEFAULT_VALIDATOR", "Jefe de Sistemas")
	t.Setenv("CATALOG_FILE", catalogPath)
	t.Setenv("SHARED_BUCKET", "")
	t.Setenv("PROJECT_ID", "")
	return shared
}

func TestHandlers(t *testing.T) {
	shared := setupEnvironment(t)

	t.Run("method not allowed", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handleGenerateChecklist(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})

	t.Run("bad json", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handleGenerateChecklist(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{")))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("incomplete session", func(t *testing.T) {
		body := `{"checklistType":"pc","answers":{"1":"OK"},"identity":{"assetTag":"1"}}`
		rec := httptest.NewRecorder()
		handleGenerateChecklist(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown type", func(t *testing.T) {
		body := `{"checklistType":"fax","identity":{"assetTag":"1","ownerName":"a","role":"b","technicianName":"c"}}`
		rec := httptest.NewRecorder()
		handleGenerateChecklist(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("generate", func(t *testing.T) {
		body := `{"checklistType":"pc","answers":{"1":"OK","2":"PD"},` +
			`"identity":{"assetTag":"35456","ownerName":"Pepe Pérez","role":"Developer","technicianName":"Josué"}}`
		rec := httptest.NewRecorder()
		handleGenerateChecklist(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp models.GenerateChecklistResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Activo 35456 Checklist Acme PC Pepe-Pérez Developer.xlsx", resp.Filename)
		assert.True(t, resp.Replicated)
		assert.FileExists(t, filepath.Join(shared, resp.Filename))
	})

	t.Run("list", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handleListChecklists(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var list []models.ChecklistSummary
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
		require.Len(t, list, 1)
		assert.Equal(t, "pc", list[0].Type)
		assert.Equal(t, 2, list[0].QuestionCount)
		assert.True(t, list[0].TemplateAvailable)
	})
}
