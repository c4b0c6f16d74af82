package storage

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"wine-classifier/internal/features"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleRecord(ts time.Time, prediction int) Record {
	raw := features.DefaultObservation()
	category := "BAD"
	if prediction == 1 {
		category = "GOOD"
	}
	return Record{
		Timestamp:  ts,
		Input:      raw,
		ModelInput: features.Transform(raw),
		Prediction: prediction,
		Category:   category,
	}
}

func TestNew(t *testing.T) {
	tempDir := t.TempDir()

	store, err := New(tempDir)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	if store.db == nil {
		t.Error("Store database is nil")
	}

	dbPath := filepath.Join(tempDir, "wine-history.db")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestNew_CreatesDataDirectory(t *testing.T) {
	dataPath := filepath.Join(t.TempDir(), "nested", "data")

	store, err := New(dataPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(filepath.Join(dataPath, "wine-history.db")); err != nil {
		t.Errorf("Database file was not created: %v", err)
	}
}

func TestNew_InvalidPath(t *testing.T) {
	// A regular file cannot be used as the data directory
	file := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := New(file)
	if err == nil {
		t.Error("Expected error for invalid path, got nil")
	}
}

func TestStore_Close(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Errorf("Error closing store: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("Error closing already closed store: %v", err)
	}

	if _, err := store.Save(sampleRecord(time.Now(), 1)); err != ErrClosed {
		t.Errorf("Expected ErrClosed after close, got %v", err)
	}
	if _, err := store.Recent(1); err != ErrClosed {
		t.Errorf("Expected ErrClosed after close, got %v", err)
	}
}

func TestStore_CloseNilDB(t *testing.T) {
	store := &Store{db: nil}
	if err := store.Close(); err != nil {
		t.Errorf("Expected no error for nil db, got: %v", err)
	}
}

func TestStore_Save(t *testing.T) {
	store := newTestStore(t)

	saved, err := store.Save(Record{
		Input:      features.DefaultObservation(),
		ModelInput: features.Transform(features.DefaultObservation()),
		Prediction: 0,
		Category:   "BAD",
	})
	if err != nil {
		t.Fatalf("Failed to save record: %v", err)
	}
	if saved.ID == "" {
		t.Error("Expected generated ID")
	}
	if saved.Timestamp.IsZero() {
		t.Error("Expected generated timestamp")
	}

	records, err := store.Recent(10)
	if err != nil {
		t.Fatalf("Failed to read records: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}

	got := records[0]
	if got.ID != saved.ID {
		t.Errorf("Expected ID %s, got %s", saved.ID, got.ID)
	}
	if got.Input != saved.Input {
		t.Errorf("Input mismatch: %+v vs %+v", got.Input, saved.Input)
	}
	if got.ModelInput != saved.ModelInput {
		t.Errorf("ModelInput mismatch: %+v vs %+v", got.ModelInput, saved.ModelInput)
	}
	if got.Category != "BAD" || got.Prediction != 0 {
		t.Errorf("Unexpected verdict %d/%s", got.Prediction, got.Category)
	}
}

func TestStore_RecentNewestFirst(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		if _, err := store.Save(sampleRecord(base.Add(time.Duration(i)*time.Minute), i%2)); err != nil {
			t.Fatalf("Failed to save record %d: %v", i, err)
		}
	}

	records, err := store.Recent(3)
	if err != nil {
		t.Fatalf("Failed to read records: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}
	for i, rec := range records {
		expected := base.Add(time.Duration(4-i) * time.Minute)
		if !rec.Timestamp.Equal(expected) {
			t.Errorf("Record %d: expected timestamp %v, got %v", i, expected, rec.Timestamp)
		}
	}

	if records, _ := store.Recent(0); len(records) != 0 {
		t.Errorf("Expected no records for limit 0, got %d", len(records))
	}
	if records, _ := store.Recent(100); len(records) != 5 {
		t.Errorf("Expected all 5 records, got %d", len(records))
	}
}

func TestStore_InRange(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 6; i++ {
		if _, err := store.Save(sampleRecord(base.Add(time.Duration(i)*time.Hour), 1)); err != nil {
			t.Fatalf("Failed to save record %d: %v", i, err)
		}
	}

	records, err := store.InRange(base.Add(time.Hour), base.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("Failed to query range: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 records in inclusive range, got %d", len(records))
	}
	if !records[0].Timestamp.Equal(base.Add(time.Hour)) {
		t.Errorf("Expected oldest first, got %v", records[0].Timestamp)
	}

	records, err = store.InRange(base.Add(10*time.Hour), base.Add(20*time.Hour))
	if err != nil {
		t.Fatalf("Failed to query empty range: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected empty range, got %d records", len(records))
	}
}

func TestStore_Count(t *testing.T) {
	store := newTestStore(t)

	n, err := store.Count()
	if err != nil || n != 0 {
		t.Fatalf("Expected empty store, got %d (%v)", n, err)
	}

	ts := time.Now()
	for i := 0; i < 3; i++ {
		// same timestamp, distinct IDs keep distinct keys
		if _, err := store.Save(sampleRecord(ts, 0)); err != nil {
			t.Fatalf("Failed to save record: %v", err)
		}
	}

	n, err = store.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 3 {
		t.Errorf("Expected 3 records, got %d", n)
	}
}

func TestStore_ConcurrentSave(t *testing.T) {
	store := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := store.Save(sampleRecord(time.Time{}, i%2)); err != nil {
				t.Errorf("Save failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	n, err := store.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 10 {
		t.Errorf("Expected 10 records, got %d", n)
	}
}

func BenchmarkStore_Save(b *testing.B) {
	store, err := New(b.TempDir())
	if err != nil {
		b.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	rec := sampleRecord(time.Time{}, 1)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := store.Save(rec); err != nil {
			b.Fatal(err)
		}
	}
}
