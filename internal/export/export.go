package export

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Joseda-hg/riel/internal/model"
)

type Format string

const (
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
	FormatText Format = "txt"
	FormatJSON Format = "json"
)

var Formats = []Format{FormatPDF, FormatXLSX, FormatText, FormatJSON}

var ErrUnknownFormat = errors.New("unknown export format")

const baseName = "Riel-Tasks"

func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "pdf":
		return FormatPDF, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	case "txt", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, value)
	}
}

func Filename(format Format) string {
	return baseName + "." + string(format)
}

func ContentType(format Format) string {
	switch format {
	case FormatPDF:
		return "application/pdf"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatText:
		return "text/plain; charset=utf-8"
	case FormatJSON:
		return "application/json"
	default:
		return "application/octet-stream"
	}
}

// Write renders tasks in format. now stamps reports that carry a generation
// time.
func Write(w io.Writer, format Format, tasks []model.Task, now time.Time) error {
	switch format {
	case FormatPDF:
		return PDF(w, tasks, now)
	case FormatXLSX:
		return XLSX(w, tasks)
	case FormatText:
		return Text(w, tasks)
	case FormatJSON:
		return JSON(w, tasks)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(format))
	}
}

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
