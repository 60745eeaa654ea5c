package services

import (
	"context"
	"testing"
	"time"

	apperrors "photo-journal-backend/internal/errors"
	"photo-journal-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestGetOrCreateDay(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	user := h.newUser(t, "writer")
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	created, resolution, err := h.days.GetOrCreateDay(ctx, user.ID, date)
	require.NoError(t, err)
	assert.Equal(t, DayCreated, resolution)

	existing, resolution, err := h.days.GetOrCreateDay(ctx, user.ID, date)
	require.NoError(t, err)
	assert.Equal(t, DayExisting, resolution)
	assert.Equal(t, created.ID, existing.ID)

	other, resolution, err := h.days.GetOrCreateDay(ctx, h.newUser(t, "other").ID, date)
	require.NoError(t, err)
	assert.Equal(t, DayCreated, resolution)
	assert.NotEqual(t, created.ID, other.ID)
}

func TestReplaceDayContent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	user := h.newUser(t, "writer")
	thumbnail := uploads("thumb")[0]

	view, err := h.days.ReplaceDayContent(ctx, user.ID, "2024-01-15", DayContent{
		Memo:      strPtr("beach day"),
		Thumbnail: &thumbnail,
		Photos:    uploads("g1", "g2"),
	})
	require.NoError(t, err)

	assert.Equal(t, "2024-01-15", view.Date)
	require.NotNil(t, view.Memo)
	assert.Equal(t, "beach day", *view.Memo)
	require.NotNil(t, view.ThumbnailURL)
	data, ok := h.objects.Get(*view.ThumbnailURL)
	require.True(t, ok)
	assert.Equal(t, "photo thumb", string(data))
	require.Len(t, view.PhotoURLs, 2)
	data, ok = h.objects.Get(view.PhotoURLs[0])
	require.True(t, ok)
	assert.Equal(t, "photo g1", string(data))

	shown, err := h.days.ShowDay(ctx, user.ID, "2024-01-15")
	require.NoError(t, err)
	assert.Equal(t, view, shown)
}

func TestReplaceDayContentClears(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	user := h.newUser(t, "writer")
	thumbnail := uploads("thumb")[0]

	first, err := h.days.ReplaceDayContent(ctx, user.ID, "2024-01-15", DayContent{
		Memo:      strPtr("draft"),
		Thumbnail: &thumbnail,
		Photos:    uploads("g1", "g2"),
	})
	require.NoError(t, err)

	cleared, err := h.days.ReplaceDayContent(ctx, user.ID, "2024-01-15", DayContent{})
	require.NoError(t, err)
	assert.Nil(t, cleared.Memo)
	assert.Nil(t, cleared.ThumbnailURL)
	assert.Empty(t, cleared.PhotoURLs)
	assert.Zero(t, h.objects.Len(), "old objects should be deleted")

	for _, url := range append([]string{*first.ThumbnailURL}, first.PhotoURLs...) {
		_, ok := h.objects.Get(url)
		assert.False(t, ok)
	}

	day, err := h.store.Days.Find(ctx, user.ID, 2024, 1, 15)
	require.NoError(t, err)
	row, err := h.store.DayPhotos.FindThumbnail(ctx, day.ID)
	require.NoError(t, err, "a cleared thumbnail keeps its row")
	assert.Nil(t, row.URL)

	// Clearing twice must not stack thumbnail rows
	_, err = h.days.ReplaceDayContent(ctx, user.ID, "2024-01-15", DayContent{})
	require.NoError(t, err)
	second, err := h.store.DayPhotos.FindThumbnail(ctx, day.ID)
	require.NoError(t, err)
	assert.NotEqual(t, row.ID, second.ID)
	_, err = h.days.ReplaceDayContent(ctx, user.ID, "2024-01-15", DayContent{Thumbnail: &thumbnail})
	require.NoError(t, err)
	third, err := h.store.DayPhotos.FindThumbnail(ctx, day.ID)
	require.NoError(t, err)
	assert.NotNil(t, third.URL)
	assert.Equal(t, 1, h.objects.Len())
}

func TestReplaceDayContentGalleryFailureKeepsThumbnail(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	user := h.newUser(t, "writer")

	h.objects.failPut = true
	_, err := h.days.ReplaceDayContent(ctx, user.ID, "2024-01-15", DayContent{
		Memo:   strPtr("kept"),
		Photos: uploads("g1"),
	})
	assert.ErrorIs(t, err, apperrors.ErrStorage)

	day, err := h.store.Days.Find(ctx, user.ID, 2024, 1, 15)
	require.NoError(t, err)
	require.NotNil(t, day.Memo)
	assert.Equal(t, "kept", *day.Memo)

	row, err := h.store.DayPhotos.FindThumbnail(ctx, day.ID)
	require.NoError(t, err, "thumbnail replacement completes independently")
	assert.Nil(t, row.URL)
}

func TestReplaceDayContentInvalidDate(t *testing.T) {
	h := newHarness(t)
	_, err := h.days.ReplaceDayContent(context.Background(), h.newUser(t, "writer").ID, "2024-13-01", DayContent{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidDate)
}

func TestBuildCalendar(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	user := h.newUser(t, "writer")
	thumbnail := uploads("thumb")[0]

	for _, date := range []string{"2024-01-02", "2024-01-03", "2024-01-05"} {
		_, err := h.days.ReplaceDayContent(ctx, user.ID, date, DayContent{Thumbnail: &thumbnail})
		require.NoError(t, err)
	}

	calendar, err := h.days.BuildCalendar(ctx, user.ID, "2024-01-01", "2024-01-05")
	require.NoError(t, err)
	require.Len(t, calendar.Days, 4)

	var dates []string
	for _, entry := range calendar.Days {
		dates = append(dates, entry.Date)
	}
	assert.Equal(t, []string{"2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05"}, dates)
	assert.NotNil(t, calendar.Days[0].ThumbnailURL)
	assert.Nil(t, calendar.Days[2].ThumbnailURL)
	assert.NotNil(t, calendar.Days[3].ThumbnailURL)
	assert.False(t, calendar.ButtonStatus)

	_, err = h.store.Days.Find(ctx, user.ID, 2024, 1, 4)
	assert.ErrorIs(t, err, apperrors.ErrNotFound, "calendar lookups never create days")

	full, err := h.days.BuildCalendar(ctx, user.ID, "2024-01-01", "2024-01-03")
	require.NoError(t, err)
	assert.Len(t, full.Days, 2)
	assert.True(t, full.ButtonStatus)
}

func TestBuildCalendarEdges(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	user := h.newUser(t, "writer")

	empty, err := h.days.BuildCalendar(ctx, user.ID, "2024-01-01", "2024-01-01")
	require.NoError(t, err)
	assert.Empty(t, empty.Days)
	assert.True(t, empty.ButtonStatus)

	crossMonth, err := h.days.BuildCalendar(ctx, user.ID, "2024-02-27", "2024-03-02")
	require.NoError(t, err)
	require.Len(t, crossMonth.Days, 4)
	assert.Equal(t, "2024-02-29", crossMonth.Days[1].Date)
	assert.False(t, crossMonth.ButtonStatus)

	_, err = h.days.BuildCalendar(ctx, user.ID, "2024-01-05", "2024-01-01")
	assert.ErrorIs(t, err, apperrors.ErrInvalidDate)

	_, err = h.days.BuildCalendar(ctx, user.ID, "yesterday", "2024-01-01")
	assert.ErrorIs(t, err, apperrors.ErrInvalidDate)
}

func TestBuildMonthBarcode(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	user := h.newUser(t, "writer")
	other := h.newUser(t, "other")
	thumbnail := uploads("thumb")[0]

	later, err := h.days.ReplaceDayContent(ctx, user.ID, "2024-01-20", DayContent{Photos: uploads("late1")})
	require.NoError(t, err)
	earlier, err := h.days.ReplaceDayContent(ctx, user.ID, "2024-01-03", DayContent{
		Thumbnail: &thumbnail,
		Photos:    uploads("early1", "early2"),
	})
	require.NoError(t, err)
	_, err = h.days.ReplaceDayContent(ctx, user.ID, "2024-02-01", DayContent{Photos: uploads("february")})
	require.NoError(t, err)
	_, err = h.days.ReplaceDayContent(ctx, other.ID, "2024-01-10", DayContent{Photos: uploads("someone-else")})
	require.NoError(t, err)

	barcode, err := h.days.BuildMonthBarcode(ctx, user.ID, "2024", "1")
	require.NoError(t, err)

	want := append([]string{*earlier.ThumbnailURL}, earlier.PhotoURLs...)
	want = append(want, later.PhotoURLs...)
	assert.Equal(t, want, h.generator.lastCall())

	assert.Equal(t, models.BarcodeTypeDay, barcode.Type)
	assert.Nil(t, barcode.EventID)
	assert.Equal(t, "January 2024", barcode.Title)
	assert.Equal(t, "2024-01-01", barcode.StartDate.Format(models.DateLayout))
	assert.Equal(t, "2024-01-31", barcode.EndDate.Format(models.DateLayout))

	grants, err := h.store.Barcodes.ListGrants(ctx, barcode.ID)
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.Equal(t, user.ID, grants[0].UserID)

	otherBarcodes, err := h.barcodes.ListUserBarcodes(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, otherBarcodes)
}

func TestBuildMonthBarcodeErrors(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	user := h.newUser(t, "writer")

	testCases := []struct {
		name    string
		year    string
		month   string
		wantErr error
	}{
		{name: "unparsable year", year: "twenty", month: "1", wantErr: apperrors.ErrInvalidDate},
		{name: "unparsable month", year: "2024", month: "jan", wantErr: apperrors.ErrInvalidDate},
		{name: "month out of range", year: "2024", month: "13", wantErr: apperrors.ErrInvalidDate},
		{name: "no photos", year: "2024", month: "6", wantErr: apperrors.ErrGeneration},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.days.BuildMonthBarcode(ctx, user.ID, tc.year, tc.month)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
	assert.Empty(t, h.generator.calls)
}

func TestBuildMonthBarcodeCompletesAfterDisconnect(t *testing.T) {
	h := newHarness(t)
	user := h.newUser(t, "writer")
	_, err := h.days.ReplaceDayContent(context.Background(), user.ID, "2024-03-05", DayContent{Photos: uploads("a")})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.generator.onStart = cancel

	_, err = h.days.BuildMonthBarcode(ctx, user.ID, "2024", "3")
	require.NoError(t, err)

	listed, err := h.barcodes.ListUserBarcodes(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}
