package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mockery-backend/internal/models"
)

func newTestRepo(t *testing.T) *PageRepo {
	t.Helper()
	repo, err := NewPageRepo(filepath.Join(t.TempDir(), "pages"))
	if err != nil {
		t.Fatalf("NewPageRepo: %v", err)
	}
	return repo
}

func TestCreateWritesDefaultTemplate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	page, err := repo.Create(ctx, "landing")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if !strings.HasPrefix(page.Content, "<!DOCTYPE html>") {
		t.Errorf("Expected content to start with doctype, got %q", page.Content[:20])
	}
	if !strings.Contains(page.Content, "<title>landing - Mockery</title>") {
		t.Error("Expected title to carry the page name")
	}
	if !strings.Contains(page.Content, "Witaj na stronie landing") {
		t.Error("Expected greeting to carry the page name")
	}

	got, err := repo.Get(ctx, "landing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Content != page.Content {
		t.Error("Expected stored content to equal created content")
	}
	if got.Version() != page.Version() {
		t.Errorf("Expected version %q, got %q", page.Version(), got.Version())
	}
}

func TestCreateExistingFails(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.Create(ctx, "a"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := repo.Create(ctx, "a"); !errors.Is(err, ErrPageExists) {
		t.Fatalf("Expected ErrPageExists, got %v", err)
	}
}

func TestMissingPage(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.Get(ctx, "nope"); !errors.Is(err, ErrPageNotFound) {
		t.Errorf("Get: expected ErrPageNotFound, got %v", err)
	}
	if _, err := repo.Version(ctx, "nope"); !errors.Is(err, ErrPageNotFound) {
		t.Errorf("Version: expected ErrPageNotFound, got %v", err)
	}
	if _, err := repo.Save(ctx, "nope", "<html></html>"); !errors.Is(err, ErrPageNotFound) {
		t.Errorf("Save: expected ErrPageNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, "nope"); !errors.Is(err, ErrPageNotFound) {
		t.Errorf("Delete: expected ErrPageNotFound, got %v", err)
	}
}

func TestSaveAdvancesVersionEveryTime(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	page, err := repo.Create(ctx, "p")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	prev := page.Modified
	seen := map[string]bool{page.Version(): true}
	for i := 0; i < 5; i++ {
		mod, err := repo.Save(ctx, "p", "<!DOCTYPE html><html></html>")
		if err != nil {
			t.Fatalf("Save %d: %v", i, err)
		}
		if !mod.After(prev) {
			t.Fatalf("Save %d: expected mtime after %v, got %v", i, prev, mod)
		}
		v := models.VersionOf(mod)
		if seen[v] {
			t.Fatalf("Save %d: version %q repeated", i, v)
		}
		seen[v] = true
		prev = mod

		current, err := repo.Version(ctx, "p")
		if err != nil {
			t.Fatalf("Version: %v", err)
		}
		if !current.Equal(mod) {
			t.Errorf("Expected Version %v to match save result %v", current, mod)
		}
	}
}

func TestSaveIfVersion(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	page, err := repo.Create(ctx, "p")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	mod, err := repo.SaveIfVersion(ctx, "p", "<html>1</html>", page.Version())
	if err != nil {
		t.Fatalf("SaveIfVersion with current version: %v", err)
	}

	_, err = repo.SaveIfVersion(ctx, "p", "<html>2</html>", page.Version())
	if !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("Expected ErrVersionConflict, got %v", err)
	}

	got, _ := repo.Get(ctx, "p")
	if got.Content != "<html>1</html>" {
		t.Errorf("Expected stale save to leave content intact, got %q", got.Content)
	}
	if !got.Modified.Equal(mod) {
		t.Error("Expected stale save to leave version intact")
	}
}

func TestListNewestFirst(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, name := range []string{"old", "mid", "new"} {
		if _, err := repo.Create(ctx, name); err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
	}
	base := time.Now().Add(-time.Hour)
	for i, name := range []string{"old", "mid", "new"} {
		ts := base.Add(time.Duration(i) * time.Minute)
		if err := os.Chtimes(filepath.Join(repo.Dir(), name+".html"), ts, ts); err != nil {
			t.Fatalf("Chtimes: %v", err)
		}
	}
	// Non-page files are ignored.
	os.WriteFile(filepath.Join(repo.Dir(), "notes.txt"), []byte("x"), 0o644)

	pages, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	want := []string{"new", "mid", "old"}
	if len(pages) != len(want) {
		t.Fatalf("Expected %d pages, got %d", len(want), len(pages))
	}
	for i, p := range pages {
		if p.Name != want[i] {
			t.Errorf("Expected page %d to be %q, got %q", i, want[i], p.Name)
		}
		if p.Size == 0 {
			t.Errorf("Expected non-zero size for %q", p.Name)
		}
	}
}

func TestDeleteRemovesPage(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	repo.Create(ctx, "gone")
	if err := repo.Delete(ctx, "gone"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.Get(ctx, "gone"); !errors.Is(err, ErrPageNotFound) {
		t.Errorf("Expected ErrPageNotFound after delete, got %v", err)
	}
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	repo.Create(ctx, "p")
	repo.Save(ctx, "p", "<html></html>")

	entries, _ := os.ReadDir(repo.Dir())
	if len(entries) != 1 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("Expected only the page file, got %v", names)
	}
}

func TestOnChangeReportsWrites(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	type change struct {
		name    string
		deleted bool
	}
	var got []change
	repo.OnChange(func(name string, modified time.Time) {
		got = append(got, change{name: name, deleted: modified.IsZero()})
	})

	if _, err := repo.Create(ctx, "demo"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := repo.Save(ctx, "demo", "<!DOCTYPE html>\n<html></html>"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := repo.SaveIfVersion(ctx, "demo", "x", "stale"); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("Expected conflict, got %v", err)
	}
	if err := repo.Delete(ctx, "demo"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	repo.Delete(ctx, "demo")

	want := []change{{"demo", false}, {"demo", false}, {"demo", true}}
	if len(got) != len(want) {
		t.Fatalf("Expected %d notifications, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Notification %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}
