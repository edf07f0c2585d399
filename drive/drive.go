// Package drive stores portfolio files in the user's Google Drive.
package drive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/etnz/folio"
	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// ErrNoCredentials is returned when a call has no user token.
var ErrNoCredentials = errors.New("no drive credentials")

// Store is a folio.FileStore on Google Drive.
//
// With the drive.file scope, only the files created by the application are
// visible, so looking a file up by name is enough.
type Store struct {
	config *oauth2.Config
	opts   []option.ClientOption
}

// New returns a Store refreshing user tokens through config. Extra client
// options are appended to the token source.
func New(config *oauth2.Config, opts ...option.ClientOption) *Store {
	return &Store{config: config, opts: opts}
}

// service returns a drive client acting on behalf of creds.
func (s *Store) service(ctx context.Context, creds *oauth2.Token) (*drive.Service, error) {
	if creds == nil {
		return nil, ErrNoCredentials
	}
	opts := append([]option.ClientOption{option.WithTokenSource(s.config.TokenSource(ctx, creds))}, s.opts...)
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("cannot create drive client: %w", err)
	}
	return svc, nil
}

// FindOrCreate implements folio.FileStore. A new file holds an empty portfolio.
func (s *Store) FindOrCreate(ctx context.Context, creds *oauth2.Token, name string) (string, error) {
	svc, err := s.service(ctx, creds)
	if err != nil {
		return "", err
	}
	list, err := svc.Files.List().
		Q(fmt.Sprintf("name='%s' and trashed=false", name)).
		Spaces("drive").
		Fields("files(id, name)").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("cannot list %q: %w", name, err)
	}
	if len(list.Files) > 0 {
		return list.Files[0].Id, nil
	}

	var empty bytes.Buffer
	if err := folio.EncodePositions(&empty, nil); err != nil {
		return "", err
	}
	f, err := svc.Files.Create(&drive.File{Name: name, MimeType: "text/csv"}).
		Media(&empty, googleapi.ContentType("text/csv")).
		Fields("id").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("cannot create %q: %w", name, err)
	}
	return f.Id, nil
}

// Read implements folio.FileStore.
func (s *Store) Read(ctx context.Context, creds *oauth2.Token, handle string) ([]byte, error) {
	svc, err := s.service(ctx, creds)
	if err != nil {
		return nil, err
	}
	resp, err := svc.Files.Get(handle).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("cannot download %s: %w", handle, err)
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// Write implements folio.FileStore.
func (s *Store) Write(ctx context.Context, creds *oauth2.Token, handle string, content []byte) error {
	svc, err := s.service(ctx, creds)
	if err != nil {
		return err
	}
	_, err = svc.Files.Update(handle, &drive.File{}).
		Media(bytes.NewReader(content), googleapi.ContentType("text/csv")).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("cannot upload %s: %w", handle, err)
	}
	return nil
}
