package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"mockery-backend/internal/document"
	"mockery-backend/internal/models"
	"mockery-backend/internal/repository"
)

type pageRepository interface {
	List(ctx context.Context) ([]models.PageInfo, error)
	Create(ctx context.Context, name string) (*models.Page, error)
	Get(ctx context.Context, name string) (*models.Page, error)
	SaveIfVersion(ctx context.Context, name, content, baseVersion string) (time.Time, error)
	Delete(ctx context.Context, name string) error
	Version(ctx context.Context, name string) (time.Time, error)
}

// PageService validates page names and maps store failures to the
// service error family.
type PageService struct {
	repo pageRepository
}

func NewPageService(repo pageRepository) *PageService {
	return &PageService{repo: repo}
}

func pageName(raw string) (string, error) {
	name := models.SanitizePageName(raw)
	if name == "" {
		if strings.TrimSpace(raw) == "" {
			return "", &ValidationError{Message: msgMissingPageName, Fields: map[string]string{"name": "required"}}
		}
		return "", &ValidationError{Message: msgInvalidPageName, Fields: map[string]string{"name": "invalid"}}
	}
	return name, nil
}

func (s *PageService) List(ctx context.Context) ([]models.PageInfo, error) {
	pages, err := s.repo.List(ctx)
	if err != nil {
		log.Printf("pages: list failed: %v", err)
		return nil, err
	}
	return pages, nil
}

// Create makes a page from the default template and returns its
// sanitized name.
func (s *PageService) Create(ctx context.Context, rawName string) (string, error) {
	name, err := pageName(rawName)
	if err != nil {
		return "", err
	}
	if _, err := s.repo.Create(ctx, name); err != nil {
		if errors.Is(err, repository.ErrPageExists) {
			return "", &ConflictError{Message: msgPageExists}
		}
		log.Printf("pages: create %q failed: %v", name, err)
		return "", &PersistenceError{Message: msgCreateFailed, Err: err}
	}
	log.Printf("pages: created %q", name)
	return name, nil
}

func (s *PageService) Delete(ctx context.Context, rawName string) error {
	name, err := pageName(rawName)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, name); err != nil {
		if errors.Is(err, repository.ErrPageNotFound) {
			return &NotFoundError{Message: msgPageNotFound}
		}
		log.Printf("pages: delete %q failed: %v", name, err)
		return &PersistenceError{Message: msgDeleteFailed, Err: err}
	}
	log.Printf("pages: deleted %q", name)
	return nil
}

func (s *PageService) Get(ctx context.Context, rawName string) (*models.Page, error) {
	name, err := pageName(rawName)
	if err != nil {
		return nil, err
	}
	page, err := s.repo.Get(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrPageNotFound) {
			return nil, &NotFoundError{Message: msgPageNotFound}
		}
		return nil, err
	}
	return page, nil
}

func (s *PageService) Version(ctx context.Context, rawName string) (time.Time, error) {
	name, err := pageName(rawName)
	if err != nil {
		return time.Time{}, err
	}
	mod, err := s.repo.Version(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrPageNotFound) {
			return time.Time{}, &NotFoundError{Message: msgPageNotFound}
		}
		return time.Time{}, err
	}
	return mod, nil
}

// Save stores raw HTML for an existing page, prepending a doctype when
// missing. A non-empty BaseVersion must match the stored version.
func (s *PageService) Save(ctx context.Context, req models.SaveRequest) (string, error) {
	name, err := pageName(req.Page)
	if err != nil {
		return "", err
	}
	content := strings.TrimSpace(req.HTML)
	if content == "" {
		return "", &ValidationError{Message: msgMissingHTML, Fields: map[string]string{"html": "required"}}
	}

	mod, err := s.repo.SaveIfVersion(ctx, name, document.EnsureDoctype(content), req.BaseVersion)
	switch {
	case err == nil:
		return models.VersionOf(mod), nil
	case errors.Is(err, repository.ErrPageNotFound):
		return "", &NotFoundError{Message: msgPageNotFound}
	case errors.Is(err, repository.ErrVersionConflict):
		return "", &ConflictError{Message: msgVersionConflict}
	default:
		log.Printf("pages: save %q failed: %v", name, err)
		return "", &PersistenceError{Message: msgSaveFailed, Err: err}
	}
}
