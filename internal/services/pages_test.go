package services

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"mockery-backend/internal/models"
	"mockery-backend/internal/repository"
)

func setupPages(t *testing.T) *PageService {
	t.Helper()
	repo, err := repository.NewPageRepo(filepath.Join(t.TempDir(), "pages"))
	if err != nil {
		t.Fatalf("NewPageRepo: %v", err)
	}
	return NewPageService(repo)
}

func TestPageServiceCreateSanitizesName(t *testing.T) {
	svc := setupPages(t)

	name, err := svc.Create(context.Background(), "My Page!! 1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if name != "mypage1" {
		t.Errorf("Expected %q, got %q", "mypage1", name)
	}

	if _, err := svc.Create(context.Background(), "MYPAGE1"); err == nil {
		t.Fatal("Expected conflict on duplicate name")
	} else if _, ok := err.(*ConflictError); !ok {
		t.Errorf("Expected ConflictError, got %T", err)
	}
}

func TestPageServiceRejectsEmptyNames(t *testing.T) {
	svc := setupPages(t)

	for _, raw := range []string{"", "   ", "!!!", "ŻÓŁ"} {
		_, err := svc.Create(context.Background(), raw)
		if _, ok := err.(*ValidationError); !ok {
			t.Errorf("Create(%q): expected ValidationError, got %T", raw, err)
		}
	}
}

func TestPageServiceSave(t *testing.T) {
	svc := setupPages(t)
	ctx := context.Background()
	svc.Create(ctx, "demo")

	version, err := svc.Save(ctx, models.SaveRequest{Page: "demo", HTML: "  <html><body>x</body></html>\n"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	page, _ := svc.Get(ctx, "demo")
	if page.Content != "<!DOCTYPE html>\n<html><body>x</body></html>" {
		t.Errorf("Expected doctype to be prepended, got %q", page.Content)
	}
	if page.Version() != version {
		t.Errorf("Expected version %q, got %q", page.Version(), version)
	}
}

func TestPageServiceSaveErrors(t *testing.T) {
	svc := setupPages(t)
	ctx := context.Background()
	svc.Create(ctx, "demo")
	page, _ := svc.Get(ctx, "demo")
	svc.Save(ctx, models.SaveRequest{Page: "demo", HTML: "<html>1</html>"})

	_, err := svc.Save(ctx, models.SaveRequest{Page: "demo", HTML: " "})
	if _, ok := err.(*ValidationError); !ok {
		t.Errorf("Empty html: expected ValidationError, got %T", err)
	}

	_, err = svc.Save(ctx, models.SaveRequest{Page: "nope", HTML: "<html></html>"})
	if _, ok := err.(*NotFoundError); !ok {
		t.Errorf("Missing page: expected NotFoundError, got %T", err)
	}

	_, err = svc.Save(ctx, models.SaveRequest{Page: "demo", HTML: "<html>2</html>", BaseVersion: page.Version()})
	if _, ok := err.(*ConflictError); !ok {
		t.Errorf("Stale base version: expected ConflictError, got %T", err)
	}

	current, _ := svc.Get(ctx, "demo")
	if !strings.Contains(current.Content, "<html>1</html>") {
		t.Errorf("Expected stale save to be refused, got %q", current.Content)
	}
}

func TestPageServiceDeleteAndVersion(t *testing.T) {
	svc := setupPages(t)
	ctx := context.Background()
	svc.Create(ctx, "demo")

	if _, err := svc.Version(ctx, "DEMO"); err != nil {
		t.Fatalf("Version: %v", err)
	}
	if err := svc.Delete(ctx, "demo"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, "demo"); err == nil {
		t.Fatal("Expected NotFoundError on second delete")
	} else if _, ok := err.(*NotFoundError); !ok {
		t.Errorf("Expected NotFoundError, got %T", err)
	}
	if _, err := svc.Version(ctx, "demo"); err == nil {
		t.Error("Expected version of deleted page to fail")
	}
}
