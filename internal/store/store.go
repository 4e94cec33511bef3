package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Joseda-hg/riel/internal/db"
	"github.com/Joseda-hg/riel/internal/model"
	"go.uber.org/zap"
)

// SlotKey is the key-value slot holding the serialized task list.
const SlotKey = "tasks"

const (
	QuotaWarning = "Storage Full! Cannot save new items. Please delete old tasks or photos."
	WriteWarning = "Could not save tasks. Your latest changes only exist until you quit."
)

var (
	ErrInvalidTask = errors.New("task title is required")
	ErrDuplicateID = errors.New("task id already exists")
)

type KeyValue interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

type Warner interface {
	Warn(message string)
}

type WarnerFunc func(message string)

func (f WarnerFunc) Warn(message string) {
	f(message)
}

// Store keeps the ordered task list in memory, newest first, and writes the
// whole list back to its slot after every mutation.
type Store struct {
	kv     KeyValue
	mu     sync.RWMutex
	tasks  []model.Task
	warner Warner
}

func New(kv KeyValue) *Store {
	return &Store{
		kv: kv,
		warner: WarnerFunc(func(message string) {
			zap.L().Warn("storage warning", zap.String("message", message))
		}),
	}
}

func (s *Store) SetWarner(w Warner) {
	if w == nil {
		return
	}
	s.mu.Lock()
	s.warner = w
	s.mu.Unlock()
}

// Load replaces the in-memory list with the persisted one. Unreadable or
// malformed data leaves an empty list.
func (s *Store) Load(ctx context.Context) {
	var tasks []model.Task

	value, found, err := s.kv.Get(ctx, SlotKey)
	switch {
	case err != nil:
		zap.L().Error("read tasks", zap.Error(err))
	case found:
		tasks, err = Decode([]byte(value))
		if err != nil {
			zap.L().Error("decode stored tasks", zap.Error(err))
			tasks = nil
		}
	}

	s.mu.Lock()
	s.tasks = tasks
	s.mu.Unlock()
}

// Save writes the full list. Failures are reported through the warner and
// the in-memory list is kept as is.
func (s *Store) Save(ctx context.Context) error {
	s.mu.RLock()
	snapshot := append([]model.Task{}, s.tasks...)
	warner := s.warner
	s.mu.RUnlock()

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode tasks: %w", err)
	}

	if err := s.kv.Set(ctx, SlotKey, string(data)); err != nil {
		zap.L().Error("save tasks", zap.Int("count", len(snapshot)), zap.Error(err))
		if errors.Is(err, db.ErrQuotaExceeded) {
			warner.Warn(QuotaWarning)
		} else {
			warner.Warn(WriteWarning)
		}
		return fmt.Errorf("save tasks: %w", err)
	}
	return nil
}

// Add prepends task. Only validation errors are returned; a failed write is
// reported through the warner.
func (s *Store) Add(ctx context.Context, task model.Task) error {
	if strings.TrimSpace(task.Title) == "" {
		return ErrInvalidTask
	}

	s.mu.Lock()
	if s.indexOf(task.ID) >= 0 {
		s.mu.Unlock()
		return fmt.Errorf("add %q: %w", task.ID, ErrDuplicateID)
	}
	s.tasks = append([]model.Task{task}, s.tasks...)
	s.mu.Unlock()

	_ = s.Save(ctx)
	return nil
}

func (s *Store) Remove(ctx context.Context, id string) bool {
	s.mu.Lock()
	index := s.indexOf(id)
	if index < 0 {
		s.mu.Unlock()
		return false
	}
	s.tasks = append(s.tasks[:index:index], s.tasks[index+1:]...)
	s.mu.Unlock()

	_ = s.Save(ctx)
	return true
}

func (s *Store) Toggle(ctx context.Context, id string) (model.Task, bool) {
	s.mu.Lock()
	index := s.indexOf(id)
	if index < 0 {
		s.mu.Unlock()
		return model.Task{}, false
	}
	s.tasks[index].Completed = !s.tasks[index].Completed
	toggled := s.tasks[index]
	s.mu.Unlock()

	_ = s.Save(ctx)
	return toggled, true
}

func (s *Store) Get(id string) (model.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	index := s.indexOf(id)
	if index < 0 {
		return model.Task{}, false
	}
	return s.tasks[index], true
}

// Tasks returns a copy of the list in store order.
func (s *Store) Tasks() []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Task{}, s.tasks...)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

func (s *Store) indexOf(id string) int {
	for i, task := range s.tasks {
		if task.ID == id {
			return i
		}
	}
	return -1
}

// Decode parses a persisted task list. Entries that are not tasks, or that
// lack an id or title, are skipped, and only the first entry per id is kept.
func Decode(data []byte) ([]model.Task, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse task list: %w", err)
	}

	tasks := make([]model.Task, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for i, entry := range raw {
		var task model.Task
		if err := json.Unmarshal(entry, &task); err != nil {
			zap.L().Warn("skip stored task", zap.Int("index", i), zap.Error(err))
			continue
		}
		if task.ID == "" || strings.TrimSpace(task.Title) == "" {
			zap.L().Warn("skip stored task without id or title", zap.Int("index", i))
			continue
		}
		if _, ok := seen[task.ID]; ok {
			continue
		}
		seen[task.ID] = struct{}{}
		tasks = append(tasks, task)
	}
	return tasks, nil
}
