package folio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
)

// PortfolioFile is the name of the file holding a user's portfolio.
const PortfolioFile = "portfolio.csv"

// FileStore is the external store where portfolio files live.
//
// Credentials are opaque to the store's callers: they are passed through
// as received from the identity provider. Stores that do not need them
// accept nil.
type FileStore interface {
	// FindOrCreate returns a handle to the file called name, creating an
	// empty portfolio file if it does not exist yet.
	FindOrCreate(ctx context.Context, creds *oauth2.Token, name string) (handle string, err error)
	// Read returns the whole content of the file.
	Read(ctx context.Context, creds *oauth2.Token, handle string) ([]byte, error)
	// Write replaces the whole content of the file.
	Write(ctx context.Context, creds *oauth2.Token, handle string, content []byte) error
}

// Repository reads and writes portfolios as CSV files in a FileStore.
type Repository struct {
	files FileStore
	name  string
}

// NewRepository returns a Repository storing portfolios in PortfolioFile.
func NewRepository(files FileStore) *Repository {
	return &Repository{files: files, name: PortfolioFile}
}

// Load reads the portfolio from the store.
func (r *Repository) Load(ctx context.Context, creds *oauth2.Token) ([]Position, error) {
	handle, err := r.files.FindOrCreate(ctx, creds, r.name)
	if err != nil {
		return nil, fmt.Errorf("cannot find %s: %w", r.name, err)
	}
	content, err := r.files.Read(ctx, creds, handle)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", r.name, err)
	}
	ps, err := DecodePositions(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("cannot decode %s: %w", r.name, err)
	}
	return ps, nil
}

// Save replaces the portfolio in the store.
func (r *Repository) Save(ctx context.Context, creds *oauth2.Token, ps []Position) error {
	var buf bytes.Buffer
	if err := EncodePositions(&buf, ps); err != nil {
		return err
	}
	handle, err := r.files.FindOrCreate(ctx, creds, r.name)
	if err != nil {
		return fmt.Errorf("cannot find %s: %w", r.name, err)
	}
	if err := r.files.Write(ctx, creds, handle, buf.Bytes()); err != nil {
		return fmt.Errorf("cannot write %s: %w", r.name, err)
	}
	return nil
}

// DirStore is a FileStore backed by a local directory. Credentials are ignored.
type DirStore struct {
	dir string
}

// NewDirStore returns a FileStore keeping files in dir.
func NewDirStore(dir string) *DirStore { return &DirStore{dir: dir} }

func (s *DirStore) FindOrCreate(_ context.Context, _ *oauth2.Token, name string) (string, error) {
	path := filepath.Join(s.dir, filepath.Base(name))
	_, err := os.Stat(path)
	if err == nil {
		return path, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := EncodePositions(&buf, nil); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (s *DirStore) Read(_ context.Context, _ *oauth2.Token, handle string) ([]byte, error) {
	return os.ReadFile(handle)
}

// Write replaces the file content atomically, readers never see a partial file.
func (s *DirStore) Write(_ context.Context, _ *oauth2.Token, handle string, content []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(handle), ".portfolio-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), handle)
}
