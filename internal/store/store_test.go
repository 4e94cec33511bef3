package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Joseda-hg/riel/internal/db"
	"github.com/Joseda-hg/riel/internal/model"
)

func TestAddPersistsNewestFirst(t *testing.T) {
	store, kv, cleanup := newTestStore(t, 0)
	defer cleanup()
	ctx := context.Background()

	if err := store.Add(ctx, newTask("1", "Buy milk")); err != nil {
		t.Fatalf("add first: %v", err)
	}
	if err := store.Add(ctx, newTask("2", "Walk dog")); err != nil {
		t.Fatalf("add second: %v", err)
	}

	tasks := store.Tasks()
	if len(tasks) != 2 || tasks[0].ID != "2" || tasks[1].ID != "1" {
		t.Fatalf("expected newest first, got %+v", tasks)
	}

	reloaded := New(kv)
	reloaded.Load(ctx)
	assertSameTasks(t, tasks, reloaded.Tasks())
}

func TestAddRejectsEmptyTitle(t *testing.T) {
	store, _, cleanup := newTestStore(t, 0)
	defer cleanup()

	err := store.Add(context.Background(), newTask("1", "   "))
	if !errors.Is(err, ErrInvalidTask) {
		t.Fatalf("expected ErrInvalidTask, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected no tasks after rejected add, got %d", store.Len())
	}
}

func TestAddRejectsDuplicateID(t *testing.T) {
	store, _, cleanup := newTestStore(t, 0)
	defer cleanup()
	ctx := context.Background()

	if err := store.Add(ctx, newTask("1", "First")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.Add(ctx, newTask("1", "Second")); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 task, got %d", store.Len())
	}
}

func TestToggleIsInvolution(t *testing.T) {
	store, kv, cleanup := newTestStore(t, 0)
	defer cleanup()
	ctx := context.Background()

	if err := store.Add(ctx, newTask("1", "Read book")); err != nil {
		t.Fatalf("add: %v", err)
	}

	toggled, ok := store.Toggle(ctx, "1")
	if !ok || !toggled.Completed {
		t.Fatalf("expected task to be completed, got %+v (ok=%v)", toggled, ok)
	}
	reloaded := New(kv)
	reloaded.Load(ctx)
	assertSameTasks(t, store.Tasks(), reloaded.Tasks())

	toggled, ok = store.Toggle(ctx, "1")
	if !ok || toggled.Completed {
		t.Fatalf("expected task to be pending again, got %+v", toggled)
	}

	if _, ok := store.Toggle(ctx, "missing"); ok {
		t.Fatalf("expected toggle of unknown id to be a no-op")
	}
}

func TestRemovePersists(t *testing.T) {
	store, kv, cleanup := newTestStore(t, 0)
	defer cleanup()
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		if err := store.Add(ctx, newTask(fmt.Sprint(i), fmt.Sprintf("Task %d", i))); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	if !store.Remove(ctx, "2") {
		t.Fatalf("expected remove to succeed")
	}
	if store.Remove(ctx, "2") {
		t.Fatalf("expected second remove to be a no-op")
	}

	reloaded := New(kv)
	reloaded.Load(ctx)
	tasks := reloaded.Tasks()
	if len(tasks) != 2 || tasks[0].ID != "3" || tasks[1].ID != "1" {
		t.Fatalf("unexpected tasks after remove: %+v", tasks)
	}
}

func TestLoadMissingSlotIsEmpty(t *testing.T) {
	store, _, cleanup := newTestStore(t, 0)
	defer cleanup()

	store.Load(context.Background())
	if store.Len() != 0 {
		t.Fatalf("expected empty list, got %d", store.Len())
	}
}

func TestLoadMalformedSlotIsEmpty(t *testing.T) {
	for _, value := range []string{"{not json", `{"id":"1"}`, `"tasks"`} {
		kv := &memoryKV{values: map[string]string{SlotKey: value}}
		store := New(kv)
		store.Load(context.Background())
		if store.Len() != 0 {
			t.Fatalf("expected empty list for %q, got %d", value, store.Len())
		}
	}
}

func TestLoadSkipsInvalidEntries(t *testing.T) {
	kv := &memoryKV{values: map[string]string{
		SlotKey: `[{"id":"a","title":"Keep me","completed":true},{"title":"no id"},{"id":"b"},42,{"id":"a","title":"dup"}]`,
	}}
	store := New(kv)
	store.Load(context.Background())

	tasks := store.Tasks()
	if len(tasks) != 1 {
		t.Fatalf("expected 1 valid task, got %+v", tasks)
	}
	if tasks[0].ID != "a" || tasks[0].Title != "Keep me" || !tasks[0].Completed {
		t.Fatalf("unexpected task: %+v", tasks[0])
	}
}

func TestLoadReadFailureIsEmpty(t *testing.T) {
	kv := &memoryKV{getErr: errors.New("disk gone")}
	store := New(kv)
	store.Load(context.Background())
	if store.Len() != 0 {
		t.Fatalf("expected empty list after read failure")
	}
}

func TestSaveQuotaExceededWarnsAndKeepsList(t *testing.T) {
	store, kv, cleanup := newTestStore(t, 200)
	defer cleanup()
	ctx := context.Background()

	var warnings []string
	store.SetWarner(WarnerFunc(func(message string) {
		warnings = append(warnings, message)
	}))

	if err := store.Add(ctx, newTask("1", "Small")); err != nil {
		t.Fatalf("add small: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("expected no warnings yet, got %v", warnings)
	}

	big := newTask("2", "Big")
	big.Photo = "data:image/jpeg;base64," + strings.Repeat("A", 400)
	if err := store.Add(ctx, big); err != nil {
		t.Fatalf("add big: %v", err)
	}

	if len(warnings) != 1 || warnings[0] != QuotaWarning {
		t.Fatalf("expected quota warning, got %v", warnings)
	}
	if store.Len() != 2 {
		t.Fatalf("expected in-memory list to keep both tasks, got %d", store.Len())
	}
	if err := store.Save(ctx); !errors.Is(err, db.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded from Save, got %v", err)
	}

	reloaded := New(kv)
	reloaded.Load(ctx)
	if reloaded.Len() != 1 {
		t.Fatalf("expected persisted list to hold only the first task, got %d", reloaded.Len())
	}
}

func TestSaveWriteFailureWarns(t *testing.T) {
	kv := &memoryKV{values: map[string]string{}, setErr: errors.New("read-only")}
	store := New(kv)
	var warned string
	store.SetWarner(WarnerFunc(func(message string) { warned = message }))

	if err := store.Add(context.Background(), newTask("1", "Task")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if warned != WriteWarning {
		t.Fatalf("expected write warning, got %q", warned)
	}
}

func newTestStore(t *testing.T, quota int64) (*Store, *db.KV, func()) {
	t.Helper()
	conn, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	kv := db.NewKV(conn, quota)
	return New(kv), kv, func() {
		_ = conn.Close()
	}
}

func newTask(id, title string) model.Task {
	return model.Task{
		ID:        id,
		Title:     title,
		Category:  "work",
		CreatedAt: time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
	}
}

func assertSameTasks(t *testing.T, want, got []model.Task) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("expected %d tasks, got %d", len(want), len(got))
	}
	for i := range want {
		if want[i].ID != got[i].ID || want[i].Title != got[i].Title ||
			want[i].Completed != got[i].Completed || !want[i].CreatedAt.Equal(got[i].CreatedAt) {
			t.Fatalf("task %d differs: want %+v, got %+v", i, want[i], got[i])
		}
	}
}

type memoryKV struct {
	values map[string]string
	getErr error
	setErr error
}

func (m *memoryKV) Get(_ context.Context, key string) (string, bool, error) {
	if m.getErr != nil {
		return "", false, m.getErr
	}
	value, ok := m.values[key]
	return value, ok, nil
}

func (m *memoryKV) Set(_ context.Context, key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	return nil
}
