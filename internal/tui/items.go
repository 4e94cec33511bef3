package tui

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/Joseda-hg/riel/internal/view"
)

const (
	confettiWidth  = 40
	confettiHeight = 8
)

type confettiPiece struct {
	X, Y  int
	Color int
	Glyph rune
}

var confettiGlyphs = []rune{'*', '+', 'o', '.', '~'}

func formatRow(row view.Row) string {
	mark := " "
	if row.Completed {
		mark = "x"
	}
	parts := []string{fmt.Sprintf("[%s] %s", mark, row.Title)}
	if row.Category != "" {
		parts = append(parts, "#"+row.Category)
	}
	if row.Time != "" {
		parts = append(parts, "@"+row.Time)
	}
	if row.Location != "" {
		parts = append(parts, "in "+row.Location)
	}
	if row.HasPhoto {
		parts = append(parts, "📷")
	}
	return strings.Join(parts, " ")
}

func detailLines(row view.Row, photoBytes int) []string {
	status := "Pending"
	if row.Completed {
		status = "Done"
	}
	lines := []string{
		row.Title,
		fmt.Sprintf("Status: %s", status),
		fmt.Sprintf("Category: %s", orNone(row.Category)),
		fmt.Sprintf("Time: %s", orNone(row.Time)),
		fmt.Sprintf("Location: %s", orNone(row.Location)),
		fmt.Sprintf("Created: %s", orNone(row.Created)),
	}
	if row.HasPhoto {
		lines = append(lines, fmt.Sprintf("Photo: %.1f KB (open in the web view)", float64(photoBytes)/1024))
	}
	if row.Desc != "" {
		lines = append(lines, "", row.Desc)
	}
	return lines
}

func orNone(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

func progressBar(percent, width int) string {
	if width <= 0 {
		return fmt.Sprintf("%d%%", percent)
	}
	percent = min(max(percent, 0), 100)
	filled := percent * width / 100
	return fmt.Sprintf("[%s%s] %d%%", strings.Repeat("#", filled), strings.Repeat("-", width-filled), percent)
}

func scatterConfetti(count, width, height int) []confettiPiece {
	pieces := make([]confettiPiece, 0, count)
	for i := 0; i < count; i++ {
		pieces = append(pieces, confettiPiece{
			X:     rand.Intn(width),
			Y:     rand.Intn(height),
			Color: 31 + rand.Intn(6),
			Glyph: confettiGlyphs[rand.Intn(len(confettiGlyphs))],
		})
	}
	return pieces
}

// renderConfetti draws pieces onto a width x height grid using ANSI colours.
// Later pieces win when two land on the same cell.
func renderConfetti(pieces []confettiPiece, width, height int) string {
	grid := make([][]string, height)
	for y := range grid {
		grid[y] = make([]string, width)
		for x := range grid[y] {
			grid[y][x] = " "
		}
	}
	for _, piece := range pieces {
		if piece.X < 0 || piece.X >= width || piece.Y < 0 || piece.Y >= height {
			continue
		}
		grid[piece.Y][piece.X] = fmt.Sprintf("\x1b[%dm%c\x1b[0m", piece.Color, piece.Glyph)
	}
	lines := make([]string, height)
	for y, cells := range grid {
		lines[y] = strings.Join(cells, "")
	}
	return strings.Join(lines, "\n")
}
