package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"mockery-backend/internal/models"
)

var (
	ErrPageNotFound    = errors.New("page not found")
	ErrPageExists      = errors.New("page already exists")
	ErrVersionConflict = errors.New("page version conflict")
)

const pageExt = ".html"

// PageRepo stores one <name>.html file per page. The file modification
// time is the page version and strictly increases on every write.
type PageRepo struct {
	dir string
	mu  sync.Mutex // serializes writes so version bumps never collide

	listeners []ChangeFunc
}

// ChangeFunc is told about every stored change. modified is zero after a
// delete.
type ChangeFunc func(name string, modified time.Time)

// OnChange registers fn. Listeners run after the write lock is released.
// Register them before serving requests.
func (r *PageRepo) OnChange(fn ChangeFunc) {
	r.listeners = append(r.listeners, fn)
}

func (r *PageRepo) notify(name string, modified time.Time) {
	for _, fn := range r.listeners {
		fn(name, modified)
	}
}

func NewPageRepo(dir string) (*PageRepo, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create pages dir: %w", err)
	}
	return &PageRepo{dir: dir}, nil
}

// Dir returns the storage directory.
func (r *PageRepo) Dir() string {
	return r.dir
}

func (r *PageRepo) path(name string) string {
	return filepath.Join(r.dir, name+pageExt)
}

func (r *PageRepo) stat(name string) (os.FileInfo, error) {
	info, err := os.Stat(r.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrPageNotFound
	}
	if err != nil {
		return nil, err
	}
	return info, nil
}

// List returns every page, newest first.
func (r *PageRepo) List(ctx context.Context) ([]models.PageInfo, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("read pages dir: %w", err)
	}

	type listed struct {
		info models.PageInfo
		mod  time.Time
	}
	var pages []listed
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), pageExt) {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue // removed while listing
		}
		pages = append(pages, listed{
			info: models.PageInfo{
				Name:     strings.TrimSuffix(e.Name(), pageExt),
				Modified: fi.ModTime().Unix(),
				Size:     fi.Size(),
			},
			mod: fi.ModTime(),
		})
	}

	sort.SliceStable(pages, func(i, j int) bool {
		if !pages[i].mod.Equal(pages[j].mod) {
			return pages[i].mod.After(pages[j].mod)
		}
		return pages[i].info.Name < pages[j].info.Name
	})

	result := make([]models.PageInfo, 0, len(pages))
	for _, p := range pages {
		result = append(result, p.info)
	}
	return result, nil
}

// Create writes the default template for a new page.
func (r *PageRepo) Create(ctx context.Context, name string) (*models.Page, error) {
	page, err := r.create(name)
	if err != nil {
		return nil, err
	}
	r.notify(name, page.Modified)
	return page, nil
}

func (r *PageRepo) create(name string) (*models.Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.stat(name); err == nil {
		return nil, ErrPageExists
	} else if !errors.Is(err, ErrPageNotFound) {
		return nil, err
	}

	content := renderDefaultPage(name)
	mod, err := r.write(name, content, time.Time{})
	if err != nil {
		return nil, err
	}
	return &models.Page{Name: name, Content: content, Modified: mod}, nil
}

func (r *PageRepo) Get(ctx context.Context, name string) (*models.Page, error) {
	info, err := r.stat(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(r.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrPageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read page: %w", err)
	}
	return &models.Page{Name: name, Content: string(data), Modified: info.ModTime()}, nil
}

// Save replaces the content of an existing page and returns its new
// modification time.
func (r *PageRepo) Save(ctx context.Context, name, content string) (time.Time, error) {
	return r.SaveIfVersion(ctx, name, content, "")
}

// SaveIfVersion saves only when the current version equals baseVersion.
// An empty baseVersion always saves.
func (r *PageRepo) SaveIfVersion(ctx context.Context, name, content, baseVersion string) (time.Time, error) {
	mod, err := r.save(name, content, baseVersion)
	if err != nil {
		return time.Time{}, err
	}
	r.notify(name, mod)
	return mod, nil
}

func (r *PageRepo) save(name, content, baseVersion string) (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, err := r.stat(name)
	if err != nil {
		return time.Time{}, err
	}
	if baseVersion != "" && models.VersionOf(info.ModTime()) != baseVersion {
		return time.Time{}, ErrVersionConflict
	}
	return r.write(name, content, info.ModTime())
}

func (r *PageRepo) Delete(ctx context.Context, name string) error {
	r.mu.Lock()
	err := os.Remove(r.path(name))
	r.mu.Unlock()

	if errors.Is(err, fs.ErrNotExist) {
		return ErrPageNotFound
	}
	if err != nil {
		return err
	}
	r.notify(name, time.Time{})
	return nil
}

// Version returns the modification time of the page file.
func (r *PageRepo) Version(ctx context.Context, name string) (time.Time, error) {
	info, err := r.stat(name)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// write replaces the file through a temp file and rename, then makes sure
// the new mtime is after prev.
func (r *PageRepo) write(name, content string, prev time.Time) (time.Time, error) {
	tmp, err := os.CreateTemp(r.dir, "."+name+"-*.tmp")
	if err != nil {
		return time.Time{}, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return time.Time{}, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return time.Time{}, fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return time.Time{}, fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, r.path(name)); err != nil {
		return time.Time{}, fmt.Errorf("replace page file: %w", err)
	}

	return r.bumpModTime(name, prev)
}

func (r *PageRepo) bumpModTime(name string, prev time.Time) (time.Time, error) {
	path := r.path(name)
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("stat page: %w", err)
	}
	if prev.IsZero() || info.ModTime().After(prev) {
		return info.ModTime(), nil
	}

	// Coarse filesystem clocks can repeat the previous mtime. Try a small
	// step first, then a whole second.
	for _, next := range []time.Time{prev.Add(time.Millisecond), prev.Truncate(time.Second).Add(time.Second)} {
		if err := os.Chtimes(path, next, next); err != nil {
			return time.Time{}, fmt.Errorf("bump page mtime: %w", err)
		}
		info, err = os.Stat(path)
		if err != nil {
			return time.Time{}, fmt.Errorf("stat page: %w", err)
		}
		if info.ModTime().After(prev) {
			return info.ModTime(), nil
		}
	}
	return info.ModTime(), nil
}
