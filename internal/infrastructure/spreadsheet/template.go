package spreadsheet

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
	"github.com/yash-jain-1224/crm-dashboard/internal/domain/crm"
)

const (
	dataSheet         = "Data"
	instructionsSheet = "Instructions"
	columnWidth       = 20
)

type TemplateWriter struct{}

func NewTemplateWriter() *TemplateWriter {
	return &TemplateWriter{}
}

func (w *TemplateWriter) WriteTemplate(dst io.Writer, schema crm.Schema) error {
	return WriteTemplate(dst, schema)
}

// WriteTemplate renders an upload template for schema: a styled header row
// with one example row, plus an Instructions sheet describing each column.
func WriteTemplate(dst io.Writer, schema crm.Schema) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", dataSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for i, field := range schema.Fields {
		if err := setCell(f, dataSheet, i+1, 1, field.Name); err != nil {
			return err
		}
		if err := setCell(f, dataSheet, i+1, 2, field.Example); err != nil {
			return err
		}
	}
	if err := styleHeader(f, dataSheet, len(schema.Fields), headerStyle); err != nil {
		return err
	}

	if _, err := f.NewSheet(instructionsSheet); err != nil {
		return fmt.Errorf("create instructions sheet: %w", err)
	}
	for i, title := range []string{"Column Name", "Description", "Required"} {
		if err := setCell(f, instructionsSheet, i+1, 1, title); err != nil {
			return err
		}
	}
	for i, field := range schema.Fields {
		required := "No"
		if field.Required {
			required = "Yes"
		}
		row := i + 2
		if err := setCell(f, instructionsSheet, 1, row, field.Name); err != nil {
			return err
		}
		if err := setCell(f, instructionsSheet, 2, row, describe(field)); err != nil {
			return err
		}
		if err := setCell(f, instructionsSheet, 3, row, required); err != nil {
			return err
		}
	}
	if err := styleHeader(f, instructionsSheet, 3, headerStyle); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(dst); err != nil {
		return fmt.Errorf("write template: %w", err)
	}
	return nil
}

func describe(field crm.Field) string {
	if len(field.Allowed) == 0 {
		return field.Description
	}
	description := field.Description + " ("
	for i, value := range field.Allowed {
		if i > 0 {
			description += ", "
		}
		description += value
	}
	return description + ")"
}

func setCell(f *excelize.File, sheet string, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		return fmt.Errorf("set %s!%s: %w", sheet, cell, err)
	}
	return nil
}

func styleHeader(f *excelize.File, sheet string, columns, style int) error {
	if columns == 0 {
		return nil
	}
	last, err := excelize.ColumnNumberToName(columns)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last+"1", style); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}
	if err := f.SetColWidth(sheet, "A", last, columnWidth); err != nil {
		return fmt.Errorf("size %s columns: %w", sheet, err)
	}
	return nil
}
