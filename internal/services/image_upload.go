package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"redsocial/internal/storage"
)

// ImageStore persists uploaded images and returns their public URL.
type ImageStore interface {
	Save(ctx context.Context, ns storage.Namespace, up storage.Upload) (string, error)
	Delete(ctx context.Context, url string) error
}

func imageError(err error) error {
	if errors.Is(err, storage.ErrInvalidImage) {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return err
}

// saveImages validates every upload before storing any of them. On failure
// the blobs already written are removed.
func saveImages(ctx context.Context, store ImageStore, ns storage.Namespace, uploads []storage.Upload) ([]string, error) {
	for _, up := range uploads {
		if err := storage.Validate(ns, up); err != nil {
			return nil, imageError(err)
		}
	}
	urls := make([]string, 0, len(uploads))
	for _, up := range uploads {
		url, err := store.Save(ctx, ns, up)
		if err != nil {
			removeImages(ctx, store, urls)
			return nil, imageError(err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

// removeImages deletes blobs best effort; failures are only logged.
func removeImages(ctx context.Context, store ImageStore, urls []string) {
	for _, url := range urls {
		if err := store.Delete(context.WithoutCancel(ctx), url); err != nil {
			slog.WarnContext(ctx, "failed to delete image", "url", url, "error", err)
		}
	}
}
