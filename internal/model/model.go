package model

import (
	"strings"
	"time"
)

type Task struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Desc      string    `json:"desc"`
	Category  string    `json:"category"`
	Time      string    `json:"time"`
	Location  string    `json:"location"`
	Photo     string    `json:"photo,omitempty"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
}

func (t Task) HasPhoto() bool {
	return t.Photo != ""
}

type FilterMode string

const (
	FilterAll       FilterMode = "all"
	FilterActive    FilterMode = "active"
	FilterCompleted FilterMode = "completed"
)

var FilterModes = []FilterMode{FilterAll, FilterActive, FilterCompleted}

// ParseFilterMode maps anything unrecognised to FilterAll.
func ParseFilterMode(value string) FilterMode {
	switch FilterMode(strings.TrimSpace(strings.ToLower(value))) {
	case FilterActive:
		return FilterActive
	case FilterCompleted:
		return FilterCompleted
	default:
		return FilterAll
	}
}

var Categories = []string{"general", "work", "personal", "shopping", "health", "study"}

func CategoryClass(category string) string {
	value := strings.TrimSpace(strings.ToLower(category))
	if value == "" {
		return ""
	}
	for _, known := range Categories {
		if known == value {
			return "cat-" + known
		}
	}
	return "cat-other"
}
