package store

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/i474232898/oura-data-handler/internal/ring"
)

func readAll(t *testing.T, l ring.Loader, dt ring.DataType) string {
	t.Helper()
	rc, err := l.Open(dt)
	if err != nil {
		t.Fatalf("open %s: %v", dt, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read %s: %v", dt, err)
	}
	return string(data)
}

func write(t *testing.T, s ring.Saver, name, content string) {
	t.Helper()
	w, err := s.Create(name)
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	if _, err := io.WriteString(w, content); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close %s: %v", name, err)
	}
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sleep.csv")
	if err := os.WriteFile(path, []byte("day,score\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := NewFileStore(map[string]string{"Daily-Sleep": path, "heart_rate": filepath.Join(dir, "missing.csv")}, dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := readAll(t, s, ring.DataDailySleep); got != "day,score\n" {
		t.Fatalf("unexpected content %q", got)
	}
	if p, ok := s.Path(ring.DataDailySleep); !ok || p != path {
		t.Fatalf("expected configured path, got %q", p)
	}
	if _, err := s.Open(ring.DataHeartRate); !errors.Is(err, ring.ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
	if _, err := s.Open(ring.DataDailyStress); !errors.Is(err, ring.ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound for an unconfigured type, got %v", err)
	}

	if _, err := NewFileStore(map[string]string{"naps": path}, dir); !errors.Is(err, ring.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestFileStoreCreateOverwrites(t *testing.T) {
	dir := t.TempDir()
	s, _ := NewFileStore(nil, dir)

	write(t, s, "exports/out.csv", "first version that is long\n")
	write(t, s, "exports/out.csv", "second\n")

	data, err := os.ReadFile(filepath.Join(dir, "exports", "out.csv"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "second\n" {
		t.Fatalf("expected whole-file overwrite, got %q", data)
	}
}

func TestFileStoreCreateAccessError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	s, _ := NewFileStore(nil, dir)
	if _, err := s.Create("file/out.csv"); !errors.Is(err, ring.ErrFileAccess) {
		t.Fatalf("expected ErrFileAccess, got %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	if _, err := s.Open(ring.DataDailySleep); !errors.Is(err, ring.ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}

	write(t, s, ExportName("daily-sleep"), "day,score\n2024-01-01,80\n")
	if got := readAll(t, s, ring.DataDailySleep); got != "day,score\n2024-01-01,80\n" {
		t.Fatalf("unexpected content %q", got)
	}

	now = now.Add(2 * time.Hour)
	if _, err := s.Open(ring.DataDailySleep); !errors.Is(err, ring.ErrFileNotFound) {
		t.Fatalf("expected stale document to be hidden, got %v", err)
	}
}

func TestMemoryStoreUncommittedWrite(t *testing.T) {
	s := NewMemoryStore(0)
	w, _ := s.Create(ExportName("sleep"))
	_, _ = io.WriteString(w, "day\n")
	if _, err := s.Open(ring.DataSleep); !errors.Is(err, ring.ErrFileNotFound) {
		t.Fatalf("document must not be visible before Close, got %v", err)
	}
	_ = w.Close()
	if got := readAll(t, s, ring.DataSleep); got != "day\n" {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestExportName(t *testing.T) {
	cases := map[string]string{
		"daily_sleep": "daily_sleep.csv",
		"heart_rate":  "heartrate.csv",
		"Daily-SpO2":  "daily_spo2.csv",
		"unknown":     "unknown.csv",
	}
	for in, want := range cases {
		if got := ExportName(in); got != want {
			t.Fatalf("%q: expected %q, got %q", in, want, got)
		}
	}
}

type failingLoader struct{ err error }

func (f failingLoader) Open(ring.DataType) (io.ReadCloser, error) { return nil, f.err }

func TestFallback(t *testing.T) {
	mem := NewMemoryStore(0)
	mem.Put(ExportName("sleep"), []byte("from memory"))
	files, _ := NewFileStore(nil, "")

	f := Fallback{files, mem}
	if got := readAll(t, f, ring.DataSleep); got != "from memory" {
		t.Fatalf("expected fallback to memory, got %q", got)
	}
	if _, err := f.Open(ring.DataHeartRate); !errors.Is(err, ring.ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}

	broken := Fallback{failingLoader{err: ring.ErrFileAccess}, mem}
	if _, err := broken.Open(ring.DataSleep); !errors.Is(err, ring.ErrFileAccess) {
		t.Fatalf("expected access errors to stop the search, got %v", err)
	}
	if _, err := (Fallback{}).Open(ring.DataSleep); !errors.Is(err, ring.ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound from an empty chain, got %v", err)
	}
}

func TestDirPaths(t *testing.T) {
	paths := DirPaths("/data", []string{"daily_sleep", "heart_rate"})
	if paths["heart_rate"] != filepath.Join("/data", "heartrate.csv") {
		t.Fatalf("unexpected paths %v", paths)
	}
}
