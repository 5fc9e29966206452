// Package excel imports vocabulary decks from Excel and CSV files.
package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/esplearn/internal/services"
	"github.com/example/esplearn/pkg/models"
)

// WordSaver is the slice of the review service the importer needs.
type WordSaver interface {
	SaveWord(ctx context.Context, learnerID string, req services.SaveWordRequest) (*models.VocabularyItem, bool, error)
}

// ImportConfig defines how deck columns map onto vocabulary fields.
type ImportConfig struct {
	LemmaColumn       string // Column with the Spanish lemma
	TranslationColumn string // Column with the translation
	ContextColumn     string // Column with an example sentence
	SheetName         string // Name of the sheet to import
	StartRow          int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default deck layout: lemma, translation,
// context in the first three columns with a header row.
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		LemmaColumn:       "A",
		TranslationColumn: "B",
		ContextColumn:     "C",
		SheetName:         "Sheet1",
		StartRow:          2,
	}
}

// ImportResult holds the result of an import operation.
type ImportResult struct {
	TotalProcessed int      `json:"total_processed"`
	Created        int      `json:"created"`
	Skipped        int      `json:"skipped"` // lemma already in the learner's vocabulary
	Errors         []string `json:"errors"`
}

// Importer loads vocabulary decks into a learner's collection.
type Importer struct {
	words  WordSaver
	config ImportConfig
}

// NewImporter creates an importer with the default column layout.
func NewImporter(words WordSaver) *Importer {
	return &Importer{words: words, config: DefaultImportConfig()}
}

// ImportDeck imports a deck for the given learner. The format is chosen by
// the filename extension; anything that is not .csv is treated as Excel.
// Imported words enter the schedule as new items due immediately; lemmas the
// learner already has are counted as skipped, never overwritten.
func (im *Importer) ImportDeck(ctx context.Context, learnerID, filename string, r io.Reader) (*ImportResult, error) {
	if strings.ToLower(filepath.Ext(filename)) == ".csv" {
		return im.importCSV(ctx, learnerID, filename, r)
	}
	return im.importExcel(ctx, learnerID, filename, r)
}

func (im *Importer) importExcel(ctx context.Context, learnerID, filename string, r io.Reader) (*ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := im.config.SheetName
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx == -1 {
		// Fall back to the first sheet when the default name is absent.
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}

	result := &ImportResult{Errors: make([]string, 0)}
	for i, row := range rows {
		rowNum := i + 1
		if rowNum < im.config.StartRow {
			continue
		}
		im.processRow(ctx, learnerID, filename, row, rowNum, result)
	}
	return result, nil
}

func (im *Importer) importCSV(ctx context.Context, learnerID, filename string, r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	result := &ImportResult{Errors: make([]string, 0)}
	rowNum := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rowNum++
		if rowNum < im.config.StartRow {
			continue
		}
		im.processRow(ctx, learnerID, filename, row, rowNum, result)
	}
	return result, nil
}

// processRow saves one deck row, recording per-row failures without
// aborting the rest of the import.
func (im *Importer) processRow(ctx context.Context, learnerID, filename string, row []string, rowNum int, result *ImportResult) {
	lemma := cell(row, im.config.LemmaColumn)
	if lemma == "" {
		// Blank lines between deck sections are common; don't count them.
		return
	}
	result.TotalProcessed++

	req := services.SaveWordRequest{
		Lemma:       lemma,
		Translation: cell(row, im.config.TranslationColumn),
		Context:     cell(row, im.config.ContextColumn),
		SourceType:  "import",
		SourceRef:   filename,
	}

	_, created, err := im.words.SaveWord(ctx, learnerID, req)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
		return
	}
	if created {
		result.Created++
	} else {
		result.Skipped++
	}
}

// cell returns the trimmed value at the given Excel column letter, or ""
// when the row is too short.
func cell(row []string, column string) string {
	idx := columnToIndex(column)
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// columnToIndex converts an Excel column letter to a zero-based index.
func columnToIndex(column string) int {
	column = strings.ToUpper(strings.TrimSpace(column))
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}
