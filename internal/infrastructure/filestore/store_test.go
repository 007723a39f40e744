package filestore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type doc struct {
	Count int               `json:"count"`
	Tags  map[string]string `json:"tags,omitempty"`
}

func TestLoad_MissingFile(t *testing.T) {
	s := New[doc](filepath.Join(t.TempDir(), "missing.json"), nil)

	got, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Count != 0 || got.Tags != nil {
		t.Errorf("Load() = %+v, want zero value", got)
	}
}

func TestLoad_BlankFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blank.json")
	if err := os.WriteFile(path, []byte("  \n"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := New[doc](path, nil).Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
}

func TestLoad_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := New[doc](path, nil).Load(context.Background())
	if !errors.Is(err, ErrStoreIO) {
		t.Fatalf("Load() error = %v, want ErrStoreIO", err)
	}
	var ioErr *StoreIOError
	if !errors.As(err, &ioErr) || ioErr.Op != "decode" || ioErr.Path != path {
		t.Errorf("error = %#v, want decode StoreIOError for %s", err, path)
	}
}

func TestSaveLoad_RoundTripIsStable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	s := New[doc](path, nil)
	ctx := context.Background()

	if err := s.Save(ctx, doc{Count: 3, Tags: map[string]string{"b": "2", "a": "1"}}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	loaded, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := s.Save(ctx, loaded); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	second, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if string(first) != string(second) {
		t.Errorf("Save(Load()) changed the file:\n%s\n---\n%s", first, second)
	}
}

func TestUpdate_UnchangedDoesNotWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := New[doc](path, nil)
	ctx := context.Background()

	if _, err := s.Update(ctx, func(*doc) (bool, error) { return false, nil }); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("file should not exist after no-op update, stat err = %v", err)
	}
}

func TestUpdate_CallbackErrorAborts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := New[doc](path, nil)
	ctx := context.Background()
	boom := errors.New("boom")

	_, err := s.Update(ctx, func(d *doc) (bool, error) {
		d.Count = 99
		return true, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Update() error = %v, want boom", err)
	}
	got, _ := s.Load(ctx) //nolint:errcheck // checked below
	if got.Count != 0 {
		t.Errorf("Count = %d, want 0 after aborted update", got.Count)
	}
}

func TestUpdate_Serialised(t *testing.T) {
	for _, strategy := range []string{StrategyMutex, StrategyFlock} {
		t.Run(strategy, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "counter.json")
			locker, err := NewLocker(strategy, path)
			if err != nil {
				t.Fatalf("NewLocker() error = %v", err)
			}
			s := New[doc](path, locker)
			ctx := context.Background()

			const workers = 20
			var wg sync.WaitGroup
			for range workers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := s.Update(ctx, func(d *doc) (bool, error) {
						d.Count++
						return true, nil
					})
					if err != nil {
						t.Errorf("Update() error = %v", err)
					}
				}()
			}
			wg.Wait()

			got, err := s.Load(ctx)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if got.Count != workers {
				t.Errorf("Count = %d, want %d (lost updates)", got.Count, workers)
			}
		})
	}
}

func TestMutexLocker_HonoursContext(t *testing.T) {
	m := NewMutexLocker()
	if err := m.Lock(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer m.Unlock() //nolint:errcheck // test cleanup

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := m.Lock(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Lock() error = %v, want deadline exceeded", err)
	}
}

func TestMutexLocker_UnlockUnlocked(t *testing.T) {
	if err := NewMutexLocker().Unlock(); err == nil {
		t.Error("Unlock() of unlocked mutex should fail")
	}
}

func TestFileLocker_CreatesLockFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	l := NewFileLocker(path)

	if err := l.Lock(context.Background()); err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	if _, err := os.Stat(path + ".lock"); err != nil {
		t.Errorf("lock file missing: %v", err)
	}
	if err := l.Unlock(); err != nil {
		t.Errorf("Unlock() error = %v", err)
	}
}

func TestNewLocker_Unknown(t *testing.T) {
	if _, err := NewLocker("semaphore", "x.json"); err == nil {
		t.Error("NewLocker() should reject unknown strategy")
	}
}
