package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Lllllllleong/equipmentchecklist/internal/catalog"
	"github.com/Lllllllleong/equipmentchecklist/internal/models"
	"github.com/xuri/excelize/v2"
)

// Template columns, 1-based.
const (
	questionIndexColumn = 1
	answerColumn        = 3
	provenanceColumn    = 1
)

const (
	provenanceDateLayout = "02/01/2006"
	provenanceSeparator  = "       "
	unknownTechnician    = "Desconocido"
)

// FillerConfig holds the paths and names the document filler depends on.
type FillerConfig struct {
	TemplatesDir     string
	OutputDir        string
	DefaultValidator string
}

// DocumentFiller stamps answers into checklist templates and saves the result.
type DocumentFiller struct {
	catalog *catalog.Catalog
	config  FillerConfig
	now     func() time.Time
}

// NewDocumentFiller creates a DocumentFiller. The output directory is created if missing.
func NewDocumentFiller(cat *catalog.Catalog, config FillerConfig) (*DocumentFiller, error) {
	if cat == nil {
		return nil, fmt.Errorf("catalog must be provided")
	}
	if config.TemplatesDir == "" || config.OutputDir == "" {
		return nil, fmt.Errorf("templates and output directories must be set")
	}
	if err := os.MkdirAll(config.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", config.OutputDir, err)
	}
	return &DocumentFiller{catalog: cat, config: config, now: time.Now}, nil
}

// TemplatePath returns where the template of def is expected.
func (d *DocumentFiller) TemplatePath(def models.ChecklistDefinition) string {
	return filepath.Join(d.config.TemplatesDir, def.TemplateReference)
}

// TemplateExists reports whether checklistType is known and its template file is present.
func (d *DocumentFiller) TemplateExists(checklistType string) bool {
	def, ok := d.catalog.Get(checklistType)
	if !ok {
		return false
	}
	info, err := os.Stat(d.TemplatePath(def))
	return err == nil && info.Mode().IsRegular()
}

// Fill loads the template for checklistType, writes the answers and the provenance
// line, and saves the result in the output directory. The template file is never modified.
func (d *DocumentFiller) Fill(ctx context.Context, checklistType string, answers models.AnswerSet, id models.IdentityFields) (*models.GeneratedArtifact, error) {
	def, ok := d.catalog.Get(checklistType)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownChecklistType, checklistType)
	}
	logCtx := slog.With("checklistType", checklistType)

	templatePath := d.TemplatePath(def)
	if _, err := os.Stat(templatePath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, templatePath)
		}
		return nil, fmt.Errorf("failed to stat template %s: %w", templatePath, err)
	}

	wb, err := excelize.OpenFile(templatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open template %s: %w", templatePath, err)
	}
	defer wb.Close()
	sheet := wb.GetSheetName(wb.GetActiveSheetIndex())

	finalRow, err := fillAnswers(wb, sheet, answers)
	if err != nil {
		return nil, err
	}
	line := provenanceLine(d.now(), id.TechnicianName, d.config.DefaultValidator)
	if err := writeProvenance(wb, sheet, finalRow, line); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	filename := BuildFilename(def, id)
	outputPath := filepath.Join(d.config.OutputDir, filename)
	if err := saveWorkbook(wb, outputPath); err != nil {
		logCtx.Error("Failed to save checklist", "error", err, "path", outputPath)
		return nil, fmt.Errorf("%w: %v", ErrFilesystemWrite, err)
	}
	logCtx.Info("Checklist generated.", "path", outputPath, "finalRow", finalRow)

	return &models.GeneratedArtifact{LocalPath: outputPath, Filename: filename}, nil
}

// saveWorkbook writes wb to path, replacing an existing file. A partially written
// file is removed.
func saveWorkbook(wb *excelize.File, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := wb.Write(out); err != nil {
		_ = out.Close()
		_ = os.Remove(path)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("failed to finalize %s: %w", path, err)
	}
	return nil
}

// fillAnswers scans every row of sheet. A row whose first cell is a non-negative
// integer k is the slot of question k and receives answers[k] in the answer column.
// Rows without a matching answer are left untouched. It returns the last row of the
// sheet, counting trailing rows that hold no value but carry a cell style.
func fillAnswers(wb *excelize.File, sheet string, answers models.AnswerSet) (int, error) {
	rows, err := wb.Rows(sheet)
	if err != nil {
		return 0, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	type slot struct {
		row    int
		answer string
	}
	var (
		slots    []slot
		trailing []int
		rowNum   int
		finalRow = 1
		width    = answerColumn
	)
	for rows.Next() {
		rowNum++
		cols, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			_ = rows.Close()
			return 0, fmt.Errorf("failed to read row %d of %q: %w", rowNum, sheet, err)
		}
		width = max(width, len(cols))
		if !hasValue(cols) {
			trailing = append(trailing, rowNum)
			continue
		}
		finalRow, trailing = rowNum, nil

		if k, ok := questionIndex(cols[questionIndexColumn-1]); ok {
			if answer, ok := answers[k]; ok {
				slots = append(slots, slot{row: rowNum, answer: answer})
			}
		}
	}
	if err := rows.Error(); err != nil {
		_ = rows.Close()
		return 0, fmt.Errorf("failed to scan sheet %q: %w", sheet, err)
	}
	if err := rows.Close(); err != nil {
		return 0, err
	}

	for _, r := range trailing {
		styled, err := rowHasStyle(wb, sheet, r, width)
		if err != nil {
			return 0, err
		}
		if styled {
			finalRow = r
		}
	}

	for _, s := range slots {
		cell, err := excelize.CoordinatesToCellName(answerColumn, s.row)
		if err != nil {
			return 0, err
		}
		if err := wb.SetCellValue(sheet, cell, s.answer); err != nil {
			return 0, fmt.Errorf("failed to write answer to %s: %w", cell, err)
		}
	}
	return finalRow, nil
}

func hasValue(cols []string) bool {
	for _, v := range cols {
		if v != "" {
			return true
		}
	}
	return false
}

// rowHasStyle reports whether any of the first width cells of row carries a style.
func rowHasStyle(wb *excelize.File, sheet string, row, width int) (bool, error) {
	for col := 1; col <= width; col++ {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return false, err
		}
		style, err := wb.GetCellStyle(sheet, cell)
		if err != nil {
			return false, fmt.Errorf("failed to read style of %s: %w", cell, err)
		}
		if style != 0 {
			return true, nil
		}
	}
	return false, nil
}

// questionIndex parses a cell holding only decimal digits.
func questionIndex(v string) (int, bool) {
	if v == "" {
		return 0, false
	}
	for _, r := range v {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	k, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return k, true
}

func provenanceLine(now time.Time, technician, validator string) string {
	return "Fecha: " + now.Format(provenanceDateLayout) + provenanceSeparator +
		"Técnico: " + orDefault(technician, unknownTechnician) + provenanceSeparator +
		"Revisado por: " + validator
}

// writeProvenance overwrites the first cell of row with line. When the last template
// row is a question slot its index marker is lost; the answer column survives.
func writeProvenance(wb *excelize.File, sheet string, row int, line string) error {
	cell, err := excelize.CoordinatesToCellName(provenanceColumn, row)
	if err != nil {
		return err
	}
	if err := wb.SetCellValue(sheet, cell, line); err != nil {
		return fmt.Errorf("failed to write provenance to %s: %w", cell, err)
	}
	return nil
}
