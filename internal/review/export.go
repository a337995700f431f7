package review

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/pai-courses/internal/course"
)

// SheetName is the worksheet holding the exported queue.
const SheetName = "Review Queue"

var exportHeader = []any{"ID", "Title", "Instructor", "Score", "Flags", "Submitted"}

// ExportXLSX writes the courses as a spreadsheet, one row per course.
func ExportXLSX(w io.Writer, courses []course.Course) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	if err := f.SetSheetRow(SheetName, "A1", &exportHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, c := range courses {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			c.ID,
			c.Title,
			c.InstructorID,
			c.QualityScore,
			strings.Join(c.AdminFlags, "; "),
			c.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(SheetName, "B", "B", 40); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "E", "E", 60); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
