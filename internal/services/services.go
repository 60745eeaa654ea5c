package services

import (
	"context"

	apperrors "photo-journal-backend/internal/errors"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ObjectStore persists binary files and returns a readable URL per object
type ObjectStore interface {
	Put(ctx context.Context, data []byte, name, dir string) (string, error)
	Delete(ctx context.Context, url string) error
	GenerateName() string
}

// BarcodeGenerator renders ordered photo URLs into an image file at outputPath
type BarcodeGenerator interface {
	Generate(ctx context.Context, urls []string, outputPath string) (string, error)
}

// Publisher delivers notifications to subscribers of an event. Delivery is
// fire-and-forget and at most once.
type Publisher interface {
	Publish(n Notification)
}

// PushNotifier delivers device push alerts
type PushNotifier interface {
	Notify(ctx context.Context, deviceTokens []string, title, body string, data map[string]string) error
}

// Notification is a domain event scoped to one event's subscribers
type Notification struct {
	Type    string
	EventID string
	Data    any
}

// Notification types
const (
	NotificationButtonStatus = "button_status"
	NotificationBarcodeReady = "barcode_ready"
)

// ButtonStatus is the payload of a button_status notification
type ButtonStatus struct {
	EventID      string `json:"event_id"`
	ButtonStatus bool   `json:"button_status"`
}

// Upload is a file received from a client
type Upload struct {
	Filename string
	Data     []byte
}

// uploadAll stores every file concurrently and returns URLs in input order.
// All uploads are joined before returning; the first failure is reported.
func uploadAll(ctx context.Context, store ObjectStore, files []Upload, dir string) ([]string, error) {
	urls := make([]string, len(files))

	g, gctx := errgroup.WithContext(ctx)
	for i, file := range files {
		g.Go(func() error {
			url, err := store.Put(gctx, file.Data, store.GenerateName(), dir)
			if err != nil {
				return err
			}
			urls[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, apperrors.Storage("failed to upload photo", err)
	}
	return urls, nil
}

// deleteObjects removes every URL from the object store, stopping at the first failure
func deleteObjects(ctx context.Context, store ObjectStore, urls []string) error {
	for _, url := range urls {
		if err := store.Delete(ctx, url); err != nil {
			return apperrors.Storage("failed to delete photo", err)
		}
	}
	return nil
}

// deleteQuietly removes an object whose metadata was never persisted
func deleteQuietly(ctx context.Context, store ObjectStore, url string) {
	if err := store.Delete(ctx, url); err != nil {
		log.Warn().Err(err).Str("url", url).Msg("Failed to remove orphaned object")
	}
}
