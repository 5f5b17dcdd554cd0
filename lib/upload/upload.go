// Package upload accepts admin file uploads, checks what they really are
// and hands them to a Storage.
package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	ErrEmpty          = errors.New("upload: file is empty")
	ErrTooLarge       = errors.New("upload: file is too large")
	ErrTypeNotAllowed = errors.New("upload: file type is not allowed")
	ErrBadName        = errors.New("upload: invalid stored file name")
)

// Storage is where accepted files end up.
type Storage interface {
	Save(ctx context.Context, name string, r io.Reader) error
	Delete(ctx context.Context, name string) error
	URL(name string) string
}

// Stored describes an accepted file.
type Stored struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	MIME string `json:"mime"`
	Size int64  `json:"size"`
}

type Uploader struct {
	storage  Storage
	maxBytes int64
	allowed  []string
}

func New(s Storage, maxBytes int64, allowed []string) *Uploader {
	return &Uploader{storage: s, maxBytes: maxBytes, allowed: allowed}
}

// Accept reads at most maxBytes from r, detects the type from the content
// (the client's claimed type and file name are ignored) and saves it under
// a fresh UUIDv7 name.
func (u *Uploader) Accept(ctx context.Context, r io.Reader) (*Stored, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, u.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("upload: can't read file: %w", err)
	}

	switch {
	case n == 0:
		return nil, ErrEmpty
	case n > u.maxBytes:
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, u.maxBytes)
	}

	mtype := mimetype.Detect(buf.Bytes())
	if !u.allowedType(mtype) {
		return nil, fmt.Errorf("%w: %s", ErrTypeNotAllowed, mtype.String())
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("upload: can't generate name: %w", err)
	}
	name := id.String() + mtype.Extension()

	if err := u.storage.Save(ctx, name, &buf); err != nil {
		return nil, fmt.Errorf("upload: can't store %s: %w", name, err)
	}

	return &Stored{
		Name: name,
		URL:  u.storage.URL(name),
		MIME: mtype.String(),
		Size: n,
	}, nil
}

func (u *Uploader) allowedType(mtype *mimetype.MIME) bool {
	return slices.ContainsFunc(u.allowed, func(a string) bool { return mtype.Is(a) })
}

func (u *Uploader) Delete(ctx context.Context, name string) error {
	if err := validName(name); err != nil {
		return err
	}
	return u.storage.Delete(ctx, name)
}

// Local keeps files in a directory served under Prefix.
type Local struct {
	Dir    string
	Prefix string
}

func NewLocal(dir, prefix string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("upload: can't create %s: %w", dir, err)
	}
	return &Local{Dir: dir, Prefix: prefix}, nil
}

func validName(name string) error {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: %q", ErrBadName, name)
	}
	return nil
}

func (l *Local) Save(_ context.Context, name string, r io.Reader) error {
	if err := validName(name); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(l.Dir, ".upload-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), filepath.Join(l.Dir, name))
}

func (l *Local) Delete(_ context.Context, name string) error {
	if err := validName(name); err != nil {
		return err
	}
	return os.Remove(filepath.Join(l.Dir, name))
}

func (l *Local) URL(name string) string {
	return path.Join(l.Prefix, name)
}
