package services

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"sync"
	"testing"
	"time"

	"photo-journal-backend/internal/models"
	"photo-journal-backend/internal/repository"
	"photo-journal-backend/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "http://objects.test"

// fakeGenerator records its input and writes a small JPEG in place of a real render
type fakeGenerator struct {
	mu      sync.Mutex
	calls   [][]string
	err     error
	onStart func()
}

func (g *fakeGenerator) Generate(ctx context.Context, urls []string, outputPath string) (string, error) {
	g.mu.Lock()
	g.calls = append(g.calls, append([]string(nil), urls...))
	onStart := g.onStart
	g.mu.Unlock()

	if onStart != nil {
		onStart()
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if g.err != nil {
		return "", g.err
	}

	img := image.NewRGBA(image.Rect(0, 0, 4*len(urls), 8))
	for x := 0; x < img.Bounds().Dx(); x++ {
		for y := 0; y < img.Bounds().Dy(); y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 40), G: 80, B: 160, A: 255})
		}
	}
	out, err := os.Create(outputPath)
	if err != nil {
		return "", err
	}
	defer out.Close()
	if err := jpeg.Encode(out, img, nil); err != nil {
		return "", err
	}
	return outputPath, nil
}

func (g *fakeGenerator) lastCall() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.calls) == 0 {
		return nil
	}
	return g.calls[len(g.calls)-1]
}

type recordingPublisher struct {
	mu            sync.Mutex
	notifications []Notification
}

func (p *recordingPublisher) Publish(n Notification) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notifications = append(p.notifications, n)
}

func (p *recordingPublisher) ofType(notificationType string) []Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []Notification
	for _, n := range p.notifications {
		if n.Type == notificationType {
			out = append(out, n)
		}
	}
	return out
}

type recordingPusher struct {
	mu     sync.Mutex
	tokens []string
}

func (p *recordingPusher) Notify(ctx context.Context, deviceTokens []string, title, body string, data map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokens = append(p.tokens, deviceTokens...)
	return nil
}

// flakyStore wraps a memory store and fails uploads on demand
type flakyStore struct {
	*storage.MemoryStore
	failPut bool
}

func (s *flakyStore) Put(ctx context.Context, data []byte, name, dir string) (string, error) {
	if s.failPut {
		return "", errors.New("bucket unavailable")
	}
	return s.MemoryStore.Put(ctx, data, name, dir)
}

type harness struct {
	store     *repository.Store
	objects   *flakyStore
	generator *fakeGenerator
	publisher *recordingPublisher
	pusher    *recordingPusher

	users    *UserService
	events   *EventService
	photos   *PhotoService
	days     *DayService
	checkIns *CheckInService
	barcodes *BarcodeService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		store:     repository.NewMemory(),
		objects:   &flakyStore{MemoryStore: storage.NewMemoryStore(testBaseURL)},
		generator: &fakeGenerator{},
		publisher: &recordingPublisher{},
		pusher:    &recordingPusher{},
	}
	h.users = NewUserService(h.store.Users, "test-secret")
	h.barcodes = NewBarcodeService(h.store.Barcodes, h.objects, h.generator, t.TempDir(), "barcode/")
	h.events = NewEventService(h.store, h.barcodes, h.publisher, h.pusher)
	h.photos = NewPhotoService(h.store.Users, h.store.Events, h.store.EventPhotos, h.objects, "event/")
	h.days = NewDayService(h.store, h.barcodes, h.objects, "day/")
	h.checkIns = NewCheckInService(h.store.Users, h.store.Events, h.publisher)
	return h
}

func (h *harness) newUser(t *testing.T, nickname string) *models.User {
	t.Helper()
	profile := "https://img.test/" + nickname + ".png"
	user := &models.User{
		ID:         uuid.New().String(),
		Nickname:   nickname,
		ProfileURL: &profile,
		SocialID:   "social-" + nickname,
		CreatedAt:  time.Now(),
	}
	require.NoError(t, h.store.Users.Create(context.Background(), user))
	return user
}

func (h *harness) reloadUser(t *testing.T, id string) *models.User {
	t.Helper()
	user, err := h.store.Users.GetByID(context.Background(), id)
	require.NoError(t, err)
	return user
}

func (h *harness) newEvent(t *testing.T, owner *models.User) *models.Event {
	t.Helper()
	event, err := h.events.CreateEvent(context.Background(), owner.ID, CreateEventRequest{
		Title:     "Trip",
		StartDate: "2024-01-01",
		EndDate:   "2024-01-03",
	})
	require.NoError(t, err)
	return event
}

func uploads(names ...string) []Upload {
	files := make([]Upload, 0, len(names))
	for _, name := range names {
		files = append(files, Upload{Filename: name + ".jpg", Data: []byte("photo " + name)})
	}
	return files
}

func photoURLs(photos []*models.EventPhoto) []string {
	urls := make([]string, 0, len(photos))
	for _, photo := range photos {
		urls = append(urls, photo.URL)
	}
	return urls
}

func TestUploadAllPreservesInputOrder(t *testing.T) {
	objects := storage.NewMemoryStore(testBaseURL)

	urls, err := uploadAll(context.Background(), objects, uploads("a", "b", "c", "d"), "event/")
	require.NoError(t, err)
	require.Len(t, urls, 4)

	for i, name := range []string{"a", "b", "c", "d"} {
		data, ok := objects.Get(urls[i])
		require.True(t, ok)
		assert.Equal(t, "photo "+name, string(data))
	}
}

func TestUploadAllEmpty(t *testing.T) {
	urls, err := uploadAll(context.Background(), storage.NewMemoryStore(testBaseURL), nil, "event/")
	require.NoError(t, err)
	assert.Empty(t, urls)
}
