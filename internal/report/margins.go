package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/RMahshie/shmoo/pkg/models"
)

const (
	summarySheet     = "Summary"
	diagnosticsSheet = "Diagnostics"
	maxSheetName     = 31
)

var marginHeader = []interface{}{"File", "X Operation Center", "Y Operation Center", "X Margin", "Y Margin"}

// WriteMargins writes a workbook with a summary sheet, one sheet of margins
// per test and, when any file was skipped, a diagnostics sheet.
func WriteMargins(path string, rep *models.RunReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), summarySheet); err != nil {
		return err
	}
	summary := [][]interface{}{
		{"Dump", rep.DumpPath},
		{"Output", rep.OutputRoot},
		{"Skipped tests", rep.Skipped},
		{},
		{"Test", "Files", "Margins", "Diagnostics", "Sheet"},
	}

	used := map[string]bool{summarySheet: true, diagnosticsSheet: true}
	for _, t := range rep.Tests {
		sheet := uniqueSheetName(t.Test, used)
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("create sheet for %s: %w", t.Test, err)
		}
		if err := f.SetSheetRow(sheet, "A1", &marginHeader); err != nil {
			return err
		}
		for i, m := range t.Margins {
			cell, _ := excelize.CoordinatesToCellName(1, i+2)
			row := []interface{}{m.File, m.XOperationCenter, m.YOperationCenter, m.XMargin, m.YMargin}
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return err
			}
		}
		summary = append(summary, []interface{}{t.Test, t.Files, len(t.Margins), len(t.Diagnostics), sheet})
	}

	for i, row := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return err
		}
	}

	if diags := rep.Diagnostics(); len(diags) > 0 {
		if _, err := f.NewSheet(diagnosticsSheet); err != nil {
			return err
		}
		header := []interface{}{"File", "Stage", "Kind", "Message"}
		if err := f.SetSheetRow(diagnosticsSheet, "A1", &header); err != nil {
			return err
		}
		for i, d := range diags {
			cell, _ := excelize.CoordinatesToCellName(1, i+2)
			row := []interface{}{d.File, d.Stage, d.Kind, d.Message}
			if err := f.SetSheetRow(diagnosticsSheet, cell, &row); err != nil {
				return err
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

// uniqueSheetName fits a test title into the sheet name rules
func uniqueSheetName(title string, used map[string]bool) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', ':', '*', '?', '/', '\\':
			return '_'
		}
		return r
	}, title)
	name = strings.Trim(name, "'")
	if name == "" {
		name = "Test"
	}
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}
	candidate := name
	for n := 2; used[candidate]; n++ {
		suffix := fmt.Sprintf("~%d", n)
		base := name
		if len(base)+len(suffix) > maxSheetName {
			base = base[:maxSheetName-len(suffix)]
		}
		candidate = base + suffix
	}
	used[candidate] = true
	return candidate
}
