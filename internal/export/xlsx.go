package export

import (
	"fmt"
	"io"

	"github.com/Joseda-hg/riel/internal/model"
	"github.com/xuri/excelize/v2"
)

const SheetName = "Tasks"

var SheetHeaders = []string{"Category", "Task Title", "Due Time", "Location", "Description", "Status", "Created"}

func XLSX(w io.Writer, tasks []model.Task) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	header := make([]interface{}, len(SheetHeaders))
	for i, title := range SheetHeaders {
		header[i] = title
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A1", "G1", bold); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}

	for i, task := range tasks {
		category := task.Category
		if category == "" {
			category = "General"
		}
		status := "Active"
		if task.Completed {
			status = "Completed"
		}
		row := []interface{}{
			category,
			task.Title,
			orDash(task.Time),
			orDash(task.Location),
			orDash(task.Desc),
			status,
			task.CreatedAt.Local().Format("2006-01-02 15:04:05"),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
