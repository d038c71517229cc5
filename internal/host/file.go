package host

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/Alfex4936/ltpanel/internal/model"
	"github.com/Alfex4936/ltpanel/internal/textspan"
)

// File is an editable plain-text document on disk.
type File struct {
	Path      string
	MaxLength int // UTF-16 units, 0 = unlimited
}

// NewFile resolves path to an absolute one so the page URL is stable.
func NewFile(path string, maxLength int) (*File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("host: %w", err)
	}
	return &File{Path: abs, MaxLength: maxLength}, nil
}

// URL is the file:// URL of the document.
func (f *File) URL() string {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(f.Path)}).String()
}

// Extract reads the whole file. A missing file yields a nil page.
func (f *File) Extract(ctx context.Context) (*model.Page, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("host: read %s: %w", f.Path, err)
	}
	page := &model.Page{Text: string(data), URL: f.URL(), Editable: true}
	if n, over := overLimit(page.Text, f.MaxLength); over {
		page.Message = tooLong(n, f.MaxLength)
	}
	return page, nil
}

// Apply replaces ErrorText at Offset, refusing when the file moved on.
func (f *File) Apply(ctx context.Context, c model.Correction) error {
	info, err := os.Stat(f.Path)
	if err != nil {
		return fmt.Errorf("host: stat %s: %w", f.Path, err)
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return fmt.Errorf("host: read %s: %w", f.Path, err)
	}
	text := string(data)
	n := textspan.Len(c.ErrorText)
	if c.Offset < 0 || textspan.Slice(text, c.Offset, n) != c.ErrorText {
		return fmt.Errorf("%w: expected %q at offset %d", ErrStale, c.ErrorText, c.Offset)
	}
	return writeAtomic(f.Path, []byte(textspan.Replace(text, c.Offset, n, c.Replacement)), info.Mode().Perm())
}

func writeAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".ltpanel-*")
	if err != nil {
		return fmt.Errorf("host: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("host: write: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return fmt.Errorf("host: chmod: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("host: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("host: rename: %w", err)
	}
	return nil
}
