package export

import (
	"fmt"
	"io"
	"time"

	"github.com/Joseda-hg/riel/internal/model"
	"github.com/go-pdf/fpdf"
)

const ReportTitle = "Riel Todo List Report"

var pdfColumns = []struct {
	title string
	width float64
}{
	{"Category", 25},
	{"Task", 55},
	{"Time", 18},
	{"Location", 38},
	{"Status", 20},
	{"Date", 26},
}

func PDF(w io.Writer, tasks []model.Task, now time.Time) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "", 18)
	pdf.Text(14, 20, ReportTitle)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Text(14, 28, "Generated: "+now.Format("2006-01-02 15:04:05"))

	pdf.SetXY(14, 35)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(0, 210, 255)
	pdf.SetTextColor(255, 255, 255)
	for _, col := range pdfColumns {
		pdf.CellFormat(col.width, 8, col.title, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(0, 0, 0)
	for _, task := range tasks {
		status := "Pending"
		if task.Completed {
			status = "Done"
		}
		values := []string{
			orDash(task.Category),
			task.Title,
			orDash(task.Time),
			orDash(task.Location),
			status,
			task.CreatedAt.Local().Format("2006-01-02"),
		}
		pdf.SetX(14)
		for i, col := range pdfColumns {
			pdf.CellFormat(col.width, 7, fit(pdf, tr(values[i]), col.width-2), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// fit truncates text so a single-line cell does not overflow its column.
func fit(pdf *fpdf.Fpdf, text string, width float64) string {
	if pdf.GetStringWidth(text) <= width {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
