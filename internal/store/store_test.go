package store

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/nibzard/tasklist-go/internal/api"
	"github.com/nibzard/tasklist-go/internal/task"
	"github.com/nibzard/tasklist-go/internal/testutil"
)

type fetchFunc func(ctx context.Context) ([]task.Task, error)

func (f fetchFunc) ListTasks(ctx context.Context) ([]task.Task, error) {
	return f(ctx)
}

func TestNewStartsLoading(t *testing.T) {
	s := New(nil, nil)
	if !s.IsLoading() {
		t.Error("new store should report loading before the first Load")
	}
	if s.Len() != 0 || s.LastError() != nil {
		t.Error("new store should be empty without error")
	}
}

func TestLoadSuccess(t *testing.T) {
	s := New(fetchFunc(func(ctx context.Context) ([]task.Task, error) {
		return []task.Task{{Title: "a"}, {Title: "b"}}, nil
	}), nil)

	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	snap := s.Snapshot()
	if snap.IsLoading {
		t.Error("IsLoading should be false after Load")
	}
	if snap.LastError != nil {
		t.Errorf("LastError = %v, want nil", snap.LastError)
	}
	if len(snap.Items) != 2 || snap.Items[0].Title != "a" || snap.Items[1].Title != "b" {
		t.Errorf("unexpected items: %+v", snap.Items)
	}
}

func TestLoadAlwaysClearsLoading(t *testing.T) {
	tests := []struct {
		name    string
		fetch   fetchFunc
		wantErr bool
	}{
		{
			name:  "success",
			fetch: func(ctx context.Context) ([]task.Task, error) { return nil, nil },
		},
		{
			name:    "failure",
			fetch:   func(ctx context.Context) ([]task.Task, error) { return nil, errors.New("boom") },
			wantErr: true,
		},
		{
			name:    "panic",
			fetch:   func(ctx context.Context) ([]task.Task, error) { panic("decoder exploded") },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.fetch, nil)
			err := s.Load(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("Load error = %v, wantErr %v", err, tt.wantErr)
			}
			if s.IsLoading() {
				t.Error("IsLoading should be false after Load")
			}
			if tt.wantErr && s.LastError() == nil {
				t.Error("LastError should be set after a failed Load")
			}
		})
	}
}

func TestLoadServerError(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	backend.FailList(http.StatusInternalServerError)
	client, err := api.New(backend.URL())
	if err != nil {
		t.Fatalf("api.New failed: %v", err)
	}

	s := New(client, nil)
	if err := s.Load(context.Background()); err == nil {
		t.Fatal("expected Load to fail on HTTP 500")
	}
	if s.Len() != 0 {
		t.Errorf("list should stay empty, has %d items", s.Len())
	}
	if !api.IsStatus(s.LastError(), http.StatusInternalServerError) {
		t.Errorf("LastError = %v, want 500 status error", s.LastError())
	}
	if s.IsLoading() {
		t.Error("IsLoading should be false")
	}
}

func TestLoadFailureKeepsPreviousItems(t *testing.T) {
	fail := false
	s := New(fetchFunc(func(ctx context.Context) ([]task.Task, error) {
		if fail {
			return nil, errors.New("offline")
		}
		return []task.Task{{Title: "kept"}}, nil
	}), nil)

	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("first Load failed: %v", err)
	}
	fail = true
	if err := s.Load(context.Background()); err == nil {
		t.Fatal("second Load should fail")
	}
	if s.Len() != 1 {
		t.Errorf("items should survive a failed reload, got %d", s.Len())
	}

	fail = false
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("third Load failed: %v", err)
	}
	if s.LastError() != nil {
		t.Errorf("successful Load should clear LastError, got %v", s.LastError())
	}
}

func TestAppend(t *testing.T) {
	s := New(nil, nil)
	s.Append(task.Task{Title: "x"})
	s.Append(task.Task{Title: "x"})
	s.Append(task.Task{})

	items := s.Items()
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3 (no dedup, no validation)", len(items))
	}

	items[0].Title = "mutated"
	if s.Items()[0].Title != "x" {
		t.Error("Items should return a copy")
	}
}

func TestNilFetcher(t *testing.T) {
	s := New(nil, nil)
	if err := s.Load(context.Background()); err == nil {
		t.Fatal("Load without a fetcher should fail")
	}
	if s.IsLoading() {
		t.Error("IsLoading should be false")
	}
}

func TestLoadKeepsGoodRecordsNextToBadDate(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	backend.ServeList(`[
		{"title":"Buy milk","description":"2%","startingDate":"2024-01-01","endingDate":"2024-01-02"},
		{"title":"Call mom","description":"Sunday","startingDate":1704067200000,"endingDate":"2024-01-02"}
	]`)
	client, err := api.New(backend.URL())
	if err != nil {
		t.Fatalf("api.New failed: %v", err)
	}

	s := New(client, nil)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	items := s.Items()
	if len(items) != 2 || items[0].Title != "Buy milk" || items[1].Title != "Call mom" {
		t.Fatalf("unexpected items: %+v", items)
	}
	if s.LastError() != nil {
		t.Errorf("LastError = %v, want nil", s.LastError())
	}
}
