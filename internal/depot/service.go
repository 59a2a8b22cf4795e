package depot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"filedepot/internal/storage"
)

// StagingDirName is the directory under DataDir that holds uploads while
// they are being received.
const StagingDirName = ".staging"

// Service implements the upload, list, fetch, rename and delete operations
// for every registered area.
//
// Within one area, name resolution and the write that claims the name run
// under the area's lock, so concurrent uploads of the same filename always
// end up under distinct names. Areas never share a lock.
type Service struct {
	cfg      Config
	registry *Registry
}

// NewService validates cfg, fills in defaults and bootstraps every area.
// A bootstrap failure is meant to stop the process before it serves.
func NewService(ctx context.Context, cfg Config) (*Service, error) {
	if cfg.Engine == nil {
		if cfg.DataDir == "" {
			return nil, errors.New("DataDir must not be empty")
		}
		cfg.Engine = storage.NewLocalFileStorage(cfg.DataDir)
	}

	if cfg.StagingDir == "" {
		if cfg.DataDir == "" {
			cfg.StagingDir = filepath.Join(os.TempDir(), "filedepot-staging")
		} else {
			cfg.StagingDir = filepath.Join(cfg.DataDir, StagingDirName)
		}
	}

	if len(cfg.Areas) == 0 {
		cfg.Areas = DefaultAreas
	}

	registry, err := NewRegistry(cfg.Areas)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.StagingDir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}

	if err := registry.Bootstrap(ctx, cfg.Engine); err != nil {
		return nil, err
	}

	return &Service{cfg: cfg, registry: registry}, nil
}

// Areas returns the registered areas.
func (s *Service) Areas() []Area {
	return s.registry.Areas()
}

// Area returns the registered area called name.
func (s *Service) Area(name string) (Area, bool) {
	return s.registry.Lookup(name)
}

// Upload stores content in area under filename, or under the first free
// disambiguated variant of it, and returns the name actually used.
func (s *Service) Upload(ctx context.Context, area string, filename string, content io.Reader) (string, error) {
	st, err := s.registry.state(area)
	if err != nil {
		return "", &OpError{Op: OpUpload, Area: area, Name: filename, Err: err}
	}

	if content == nil {
		return "", &OpError{Op: OpUpload, Area: area, Name: filename, Err: ErrMissingContent}
	}

	name, err := storage.CleanName(filename)
	if err != nil {
		return "", &OpError{Op: OpUpload, Area: area, Name: filename, Err: err}
	}

	// The payload is streamed to the staging directory first so the area
	// lock is only held for the name claim, not for the transfer.
	tempPath, size, err := s.stage(ctx, content)
	if err != nil {
		return "", &OpError{Op: OpUpload, Area: area, Name: name, Err: err}
	}
	defer func() {
		// Best-effort cleanup; after a successful put the file is gone already.
		if err := os.Remove(tempPath); err != nil && !os.IsNotExist(err) {
			slog.Debug("Failed to remove staged upload", "path", tempPath, "err", err)
		}
	}()

	st.mu.Lock()
	finalName, err := storage.UniqueName(name, func(candidate string) (bool, error) {
		return s.cfg.Engine.Exists(ctx, area, candidate)
	})
	if err == nil {
		err = s.cfg.Engine.PutFromFile(ctx, area, finalName, tempPath, size)
	}
	st.mu.Unlock()

	if err != nil {
		return "", &OpError{Op: OpUpload, Area: area, Name: name, Err: err}
	}

	slog.Info("Stored file", "area", area, "requested", filename, "name", finalName, "size", size)
	s.record(ctx, Event{Area: area, Op: OpUpload, Name: finalName, Size: size})
	return finalName, nil
}

// stage copies content into a fresh file in the staging directory and
// returns its path and size.
func (s *Service) stage(ctx context.Context, content io.Reader) (string, int64, error) {
	f, err := os.CreateTemp(s.cfg.StagingDir, "upload-*")
	if err != nil {
		return "", 0, fmt.Errorf("create staging file: %w", err)
	}

	size, err := io.Copy(f, &contextReader{ctx: ctx, r: content})
	if err == nil {
		err = f.Sync()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(f.Name())
		return "", 0, fmt.Errorf("stage payload: %w", err)
	}

	return f.Name(), size, nil
}

// List returns the names of the files in area, sorted.
func (s *Service) List(ctx context.Context, area string) ([]string, error) {
	if _, err := s.registry.state(area); err != nil {
		return nil, &OpError{Op: "list", Area: area, Err: err}
	}

	names, err := s.cfg.Engine.List(ctx, area)
	if err != nil {
		return nil, &OpError{Op: "list", Area: area, Err: err}
	}

	sort.Strings(names)
	return names, nil
}

// Open returns the stored file for reading. The caller closes its Body.
func (s *Service) Open(ctx context.Context, area string, name string) (*storage.Object, error) {
	if _, err := s.registry.state(area); err != nil {
		return nil, &OpError{Op: "fetch", Area: area, Name: name, Err: err}
	}

	obj, err := s.cfg.Engine.Open(ctx, area, name)
	if err != nil {
		return nil, &OpError{Op: "fetch", Area: area, Name: name, Err: notFound(err)}
	}
	return obj, nil
}

// Rename gives the file oldName the name newName, disambiguated against the
// other files of the area, and returns the name actually used.
func (s *Service) Rename(ctx context.Context, area string, oldName string, newName string) (string, error) {
	st, err := s.registry.state(area)
	if err != nil {
		return "", &OpError{Op: OpRename, Area: area, Name: oldName, Err: err}
	}

	if err := storage.ValidateName(oldName); err != nil {
		return "", &OpError{Op: OpRename, Area: area, Name: oldName, Err: err}
	}

	target, err := storage.CleanName(newName)
	if err != nil {
		return "", &OpError{Op: OpRename, Area: area, Name: oldName, Err: err}
	}

	st.mu.Lock()
	finalName, err := s.renameLocked(ctx, area, oldName, target)
	st.mu.Unlock()

	if err != nil {
		return "", &OpError{Op: OpRename, Area: area, Name: oldName, Err: err}
	}

	slog.Info("Renamed file", "area", area, "name", oldName, "new_name", finalName)
	s.record(ctx, Event{Area: area, Op: OpRename, Name: oldName, NewName: finalName})
	return finalName, nil
}

func (s *Service) renameLocked(ctx context.Context, area string, oldName string, target string) (string, error) {
	exists, err := s.cfg.Engine.Exists(ctx, area, oldName)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", ErrNotFound
	}

	// The source still holds its own name, so asking for it again resolves
	// to the next free variant like any other collision.
	finalName, err := storage.UniqueName(target, func(candidate string) (bool, error) {
		return s.cfg.Engine.Exists(ctx, area, candidate)
	})
	if err != nil {
		return "", err
	}

	if err := s.cfg.Engine.Rename(ctx, area, oldName, finalName); err != nil {
		return "", notFound(err)
	}
	return finalName, nil
}

// Delete removes the named file from area.
func (s *Service) Delete(ctx context.Context, area string, name string) error {
	st, err := s.registry.state(area)
	if err != nil {
		return &OpError{Op: OpDelete, Area: area, Name: name, Err: err}
	}

	if err := storage.ValidateName(name); err != nil {
		return &OpError{Op: OpDelete, Area: area, Name: name, Err: err}
	}

	st.mu.Lock()
	err = s.deleteLocked(ctx, area, name)
	st.mu.Unlock()

	if err != nil {
		return &OpError{Op: OpDelete, Area: area, Name: name, Err: err}
	}

	slog.Info("Deleted file", "area", area, "name", name)
	s.record(ctx, Event{Area: area, Op: OpDelete, Name: name})
	return nil
}

func (s *Service) deleteLocked(ctx context.Context, area string, name string) error {
	exists, err := s.cfg.Engine.Exists(ctx, area, name)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return notFound(s.cfg.Engine.Delete(ctx, area, name))
}

// record hands e to the journal. Journal failures are logged and otherwise
// ignored; the file operation itself already succeeded.
func (s *Service) record(ctx context.Context, e Event) {
	if s.cfg.Journal == nil {
		return
	}

	e.At = time.Now().UTC()
	e.RequestID = RequestID(ctx)

	// The request may be finishing; the audit row should still be written.
	if err := s.cfg.Journal.Record(context.WithoutCancel(ctx), e); err != nil {
		slog.Error("Record journal event", "area", e.Area, "op", e.Op, "name", e.Name, "err", err)
	}
}

// notFound folds fs.ErrNotExist into ErrNotFound, keeping the original error
// in the chain.
func notFound(err error) error {
	if err != nil && errors.Is(err, fs.ErrNotExist) && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}

// contextReader stops a copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
