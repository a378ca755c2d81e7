package phrasestore

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fennar/vokab/internal/domain"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "phrases.json")
	store, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return store, path
}

func TestInsertGetRoundTrip(t *testing.T) {
	store, _ := openTestStore(t)

	inserted, err := store.Insert("  der  Hund ", testNow)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if inserted.Text != "der Hund" {
		t.Errorf("Expected stored text 'der Hund', got %q", inserted.Text)
	}

	got, err := store.Get(inserted.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Text != inserted.Text {
		t.Errorf("Get returned text %q, want %q", got.Text, inserted.Text)
	}
	if got.Schedule.EaseFactor != domain.DefaultEaseFactor {
		t.Errorf("Expected default ease factor %.1f, got %.2f", domain.DefaultEaseFactor, got.Schedule.EaseFactor)
	}
	if got.Schedule.Repetitions != 0 || got.Schedule.IntervalDays != 0 {
		t.Errorf("Expected fresh schedule, got %+v", got.Schedule)
	}
	if !got.Schedule.DueAt.Equal(got.CreatedAt) {
		t.Errorf("Expected due_at == created_at for a new phrase, got %v vs %v", got.Schedule.DueAt, got.CreatedAt)
	}
}

func TestGetUnknownID(t *testing.T) {
	store, _ := openTestStore(t)
	if _, err := store.Get("missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestUpdateSchedule(t *testing.T) {
	store, _ := openTestStore(t)
	phrase, _ := store.Insert("die Katze", testNow)

	updated := phrase.Schedule
	updated.IntervalDays = 6
	updated.Repetitions = 2
	updated.DueAt = testNow.AddDate(0, 0, 6)

	if err := store.UpdateSchedule(phrase.ID, updated); err != nil {
		t.Fatalf("UpdateSchedule failed: %v", err)
	}
	got, _ := store.Get(phrase.ID)
	if got.Schedule.IntervalDays != 6 || got.Schedule.Repetitions != 2 {
		t.Errorf("Schedule not updated, got %+v", got.Schedule)
	}

	if err := store.UpdateSchedule("missing", updated); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestListDueOrderingAndLimit(t *testing.T) {
	store, _ := openTestStore(t)

	oldest, _ := store.Insert("eins", testNow.AddDate(0, 0, -3))
	middle, _ := store.Insert("zwei", testNow.AddDate(0, 0, -2))
	newest, _ := store.Insert("drei", testNow.AddDate(0, 0, -1))

	future := newest.Schedule
	future.DueAt = testNow.AddDate(0, 0, 5)
	notDue, _ := store.Insert("vier", testNow)
	if err := store.UpdateSchedule(notDue.ID, future); err != nil {
		t.Fatalf("UpdateSchedule failed: %v", err)
	}

	due := store.ListDue(testNow, 10)
	if len(due) != 3 {
		t.Fatalf("Expected 3 due phrases, got %d", len(due))
	}
	if due[0].ID != oldest.ID || due[1].ID != middle.ID || due[2].ID != newest.ID {
		t.Errorf("Due phrases not ordered oldest-overdue first: %v, %v, %v", due[0].Text, due[1].Text, due[2].Text)
	}
	for _, p := range due {
		if p.Schedule.DueAt.After(testNow) {
			t.Errorf("ListDue returned phrase %q due in the future", p.Text)
		}
	}

	limited := store.ListDue(testNow, 2)
	if len(limited) != 2 {
		t.Errorf("Expected limit of 2 to apply, got %d", len(limited))
	}
}

func TestListDueEmptyStore(t *testing.T) {
	store, _ := openTestStore(t)
	if due := store.ListDue(testNow, 10); len(due) != 0 {
		t.Errorf("Expected no due phrases in empty store, got %d", len(due))
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	store, path := openTestStore(t)
	phrase, _ := store.Insert("der Apfel", testNow)

	reopened, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	got, err := reopened.Get(phrase.ID)
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if got.Text != "der Apfel" {
		t.Errorf("Expected persisted text 'der Apfel', got %q", got.Text)
	}
}

func TestCorruptFileRefusedAtOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "phrases.json")
	if err := os.WriteFile(path, []byte("{truncated"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Open(path, nil); !errors.Is(err, domain.ErrCorruptStore) {
		t.Errorf("Expected ErrCorruptStore, got %v", err)
	}
}

func TestNoTempFilesLeftBehind(t *testing.T) {
	store, path := openTestStore(t)
	for i := 0; i < 5; i++ {
		if _, err := store.Insert("wort", testNow); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		name := e.Name()
		if name != filepath.Base(path) && name != filepath.Base(path)+".lock" {
			t.Errorf("Unexpected leftover file %q", name)
		}
	}
}

func TestConcurrentInserts(t *testing.T) {
	store, _ := openTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Insert("parallel", testNow); err != nil {
				t.Errorf("Insert failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := len(store.All()); got != 10 {
		t.Errorf("Expected 10 phrases after concurrent inserts, got %d", got)
	}
}

func TestAllOrderedByCreation(t *testing.T) {
	store, _ := openTestStore(t)
	store.Insert("erstes", testNow)
	store.Insert("zweites", testNow.Add(time.Minute))
	store.Insert("drittes", testNow.Add(2*time.Minute))

	all := store.All()
	if len(all) != 3 {
		t.Fatalf("Expected 3 phrases, got %d", len(all))
	}
	if all[0].Text != "erstes" || all[2].Text != "drittes" {
		t.Errorf("All not ordered by creation time: %q, %q, %q", all[0].Text, all[1].Text, all[2].Text)
	}
}
