package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/Joseda-hg/riel/internal/model"
	"github.com/olekukonko/tablewriter"
)

const textHeader = "RIEL TODO LIST\n================\n"

func Text(w io.Writer, tasks []model.Task) error {
	bw := bufio.NewWriter(w)
	_, _ = bw.WriteString(textHeader)
	for i, task := range tasks {
		mark := " "
		if task.Completed {
			mark = "X"
		}
		category := task.Category
		if category == "" {
			category = "Gen"
		}
		fmt.Fprintf(bw, "%d. [%s] [%s] %s", i+1, mark, category, task.Title)
		if task.Time != "" {
			fmt.Fprintf(bw, " (@ %s)", task.Time)
		}
		if task.Location != "" {
			fmt.Fprintf(bw, " in %s", task.Location)
		}
		_ = bw.WriteByte('\n')
	}
	return bw.Flush()
}

// exportedTask is model.Task without the photo payload.
type exportedTask struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Desc      string    `json:"desc"`
	Category  string    `json:"category"`
	Time      string    `json:"time"`
	Location  string    `json:"location"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
}

func JSON(w io.Writer, tasks []model.Task) error {
	out := make([]exportedTask, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, exportedTask{
			ID:        task.ID,
			Title:     task.Title,
			Desc:      task.Desc,
			Category:  task.Category,
			Time:      task.Time,
			Location:  task.Location,
			Completed: task.Completed,
			CreatedAt: task.CreatedAt,
		})
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

// Table prints tasks as a terminal table.
func Table(w io.Writer, tasks []model.Task) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Done", "Category", "Title", "Time", "Location", "Photo", "Created"})
	table.SetAutoWrapText(false)
	for i, task := range tasks {
		done := ""
		if task.Completed {
			done = "x"
		}
		photo := ""
		if task.HasPhoto() {
			photo = "yes"
		}
		table.Append([]string{
			fmt.Sprint(i + 1),
			done,
			orDash(task.Category),
			task.Title,
			orDash(task.Time),
			orDash(task.Location),
			photo,
			task.CreatedAt.Local().Format("2006-01-02"),
		})
	}
	table.Render()
}
