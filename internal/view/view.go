package view

import (
	"math"
	"strings"

	"github.com/Joseda-hg/riel/internal/model"
)

const EmptyPlaceholder = "No matching tasks found."

const dateLayout = "2006-01-02"

type Row struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Desc          string `json:"desc"`
	Category      string `json:"category"`
	CategoryClass string `json:"categoryClass"`
	Time          string `json:"time"`
	Location      string `json:"location"`
	HasPhoto      bool   `json:"hasPhoto"`
	Completed     bool   `json:"completed"`
	Created       string `json:"created"`
}

// List is a rendered projection. Filter and Query name the projection the
// rows were built with.
type List struct {
	Rows   []Row            `json:"rows"`
	Empty  bool             `json:"empty"`
	Filter model.FilterMode `json:"filter,omitempty"`
	Query  string           `json:"query,omitempty"`
}

type Stats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
	Percent   int `json:"percent"`
}

// NormalizeQuery lower-cases and trims a search query.
func NormalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// Project filters tasks by mode and query, keeping store order.
func Project(tasks []model.Task, mode model.FilterMode, query string) []model.Task {
	query = NormalizeQuery(query)
	projected := make([]model.Task, 0, len(tasks))
	for _, task := range tasks {
		if matchesFilter(task, mode) && matchesQuery(task, query) {
			projected = append(projected, task)
		}
	}
	return projected
}

func matchesFilter(task model.Task, mode model.FilterMode) bool {
	switch mode {
	case model.FilterActive:
		return !task.Completed
	case model.FilterCompleted:
		return task.Completed
	default:
		return true
	}
}

func matchesQuery(task model.Task, query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(task.Title), query) ||
		strings.Contains(strings.ToLower(task.Location), query)
}

func Build(tasks []model.Task) List {
	if len(tasks) == 0 {
		return List{Empty: true}
	}
	rows := make([]Row, 0, len(tasks))
	for _, task := range tasks {
		rows = append(rows, NewRow(task))
	}
	return List{Rows: rows}
}

func NewRow(task model.Task) Row {
	row := Row{
		ID:            task.ID,
		Title:         task.Title,
		Desc:          task.Desc,
		Category:      task.Category,
		CategoryClass: model.CategoryClass(task.Category),
		Time:          task.Time,
		Location:      task.Location,
		HasPhoto:      task.HasPhoto(),
		Completed:     task.Completed,
	}
	if !task.CreatedAt.IsZero() {
		row.Created = task.CreatedAt.Local().Format(dateLayout)
	}
	return row
}

func ComputeStats(tasks []model.Task) Stats {
	stats := Stats{Total: len(tasks)}
	for _, task := range tasks {
		if task.Completed {
			stats.Completed++
		}
	}
	stats.Pending = stats.Total - stats.Completed
	if stats.Total > 0 {
		stats.Percent = int(math.Round(float64(stats.Completed) / float64(stats.Total) * 100))
	}
	return stats
}

func AllCompleted(tasks []model.Task) bool {
	if len(tasks) == 0 {
		return false
	}
	for _, task := range tasks {
		if !task.Completed {
			return false
		}
	}
	return true
}
