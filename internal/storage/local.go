// Package storage keeps uploaded images on the local filesystem and serves
// them under a public URL prefix.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Namespace groups blobs by purpose; it is also the sub-directory name.
type Namespace string

const (
	Avatars    Namespace = "avatars"
	PostImages Namespace = "posts"
)

const (
	MaxAvatarSize    = 5 << 20
	MaxPostImageSize = 10 << 20
)

// ErrInvalidImage is returned for uploads that are not acceptable images.
var ErrInvalidImage = errors.New("invalid image")

var allowedExts = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// MaxSize is the largest upload accepted in the namespace.
func (n Namespace) MaxSize() int64 {
	if n == Avatars {
		return MaxAvatarSize
	}
	return MaxPostImageSize
}

func (n Namespace) filePrefix() string {
	if n == Avatars {
		return "avatar"
	}
	return "post"
}

// Upload is an incoming file. Size may be 0 when unknown; the limit is then
// enforced while copying.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Validate checks type and declared size without reading the body.
func Validate(ns Namespace, up Upload) error {
	ext := strings.ToLower(filepath.Ext(up.Filename))
	if !allowedExts[ext] && !strings.HasPrefix(up.ContentType, "image/") {
		return fmt.Errorf("%w: only jpeg, jpg, png, gif and webp files are allowed", ErrInvalidImage)
	}
	if up.Size > ns.MaxSize() {
		return fmt.Errorf("%w: file exceeds %d MB", ErrInvalidImage, ns.MaxSize()>>20)
	}
	return nil
}

// Local stores files below Root and exposes them under PublicPrefix.
type Local struct {
	Root         string
	PublicPrefix string
}

func NewLocal(root, publicPrefix string) (*Local, error) {
	for _, ns := range []Namespace{Avatars, PostImages} {
		if err := os.MkdirAll(filepath.Join(root, string(ns)), 0o755); err != nil {
			return nil, fmt.Errorf("create upload dir: %w", err)
		}
	}
	return &Local{Root: root, PublicPrefix: "/" + strings.Trim(publicPrefix, "/")}, nil
}

// Save writes the upload and returns its public URL.
func (l *Local) Save(ctx context.Context, ns Namespace, up Upload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := Validate(ns, up); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(up.Filename))
	if !allowedExts[ext] {
		ext = ".jpg"
	}
	name := fmt.Sprintf("%s_%s%s", ns.filePrefix(), uuid.NewString(), ext)
	dir := filepath.Join(l.Root, string(ns))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	full := filepath.Join(dir, name)

	f, err := os.OpenFile(full, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create blob: %w", err)
	}
	n, err := io.Copy(f, io.LimitReader(up.Body, ns.MaxSize()+1))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && n > ns.MaxSize() {
		err = fmt.Errorf("%w: file exceeds %d MB", ErrInvalidImage, ns.MaxSize()>>20)
	}
	if err != nil {
		_ = os.Remove(full)
		if errors.Is(err, ErrInvalidImage) {
			return "", err
		}
		return "", fmt.Errorf("write blob: %w", err)
	}

	return path.Join(l.PublicPrefix, string(ns), name), nil
}

// Delete removes the blob behind a URL returned by Save. Missing files and
// URLs outside the upload prefix are ignored.
func (l *Local) Delete(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, ok := l.pathFor(url)
	if !ok {
		return nil
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}

func (l *Local) pathFor(url string) (string, bool) {
	rel, ok := strings.CutPrefix(path.Clean(url), l.PublicPrefix+"/")
	if !ok || rel == "" {
		return "", false
	}
	full := filepath.Join(l.Root, filepath.FromSlash(rel))
	root := filepath.Clean(l.Root) + string(filepath.Separator)
	if !strings.HasPrefix(full, root) {
		return "", false
	}
	return full, true
}
