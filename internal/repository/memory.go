package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	apperrors "photo-journal-backend/internal/errors"
	"photo-journal-backend/internal/models"

	"github.com/google/uuid"
)

// memoryDB is the shared dataset behind the in-memory repositories.
// Rows are copied on the way in and out so callers never alias stored state.
type memoryDB struct {
	mu           sync.RWMutex
	users        map[string]models.User
	events       map[string]models.Event
	members      map[string][]models.EventMember
	memberSeq    int64
	eventPhotos  map[string]models.EventPhoto
	days         map[string]models.Day
	dayPhotos    map[string]models.DayPhoto
	barcodes     map[string]models.Barcode
	userBarcodes map[string]models.UserBarcode
}

func newMemoryDB() *memoryDB {
	return &memoryDB{
		users:        make(map[string]models.User),
		events:       make(map[string]models.Event),
		members:      make(map[string][]models.EventMember),
		eventPhotos:  make(map[string]models.EventPhoto),
		days:         make(map[string]models.Day),
		dayPhotos:    make(map[string]models.DayPhoto),
		barcodes:     make(map[string]models.Barcode),
		userBarcodes: make(map[string]models.UserBarcode),
	}
}

type memoryUsers struct{ db *memoryDB }

func (r *memoryUsers) Create(ctx context.Context, user *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.users[user.ID] = *user
	return nil
}

func (r *memoryUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	user, ok := r.db.users[id]
	if !ok {
		return nil, apperrors.NotFound("user not found")
	}
	return &user, nil
}

func (r *memoryUsers) GetBySocialID(ctx context.Context, socialID string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, user := range r.db.users {
		if user.SocialID == socialID {
			return &user, nil
		}
	}
	return nil, apperrors.NotFound("user not found")
}

func (r *memoryUsers) UpdateProfile(ctx context.Context, user *models.User) error {
	return r.update(ctx, user.ID, func(u *models.User) {
		u.Nickname = user.Nickname
		u.ProfileURL = user.ProfileURL
		u.RefreshToken = user.RefreshToken
	})
}

func (r *memoryUsers) UpdateEvent(ctx context.Context, userID string, eventID *string) error {
	return r.update(ctx, userID, func(u *models.User) { u.EventID = eventID })
}

func (r *memoryUsers) ReleaseEvent(ctx context.Context, eventID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for id, user := range r.db.users {
		if user.EventID != nil && *user.EventID == eventID {
			user.EventID = nil
			user.CheckStatus = false
			r.db.users[id] = user
		}
	}
	return nil
}

func (r *memoryUsers) UpdateCheckStatus(ctx context.Context, userID string, status bool) error {
	return r.update(ctx, userID, func(u *models.User) { u.CheckStatus = status })
}

func (r *memoryUsers) UpdatePushToken(ctx context.Context, userID string, pushToken *string) error {
	return r.update(ctx, userID, func(u *models.User) { u.PushToken = pushToken })
}

func (r *memoryUsers) update(ctx context.Context, userID string, fn func(u *models.User)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	user, ok := r.db.users[userID]
	if !ok {
		return apperrors.NotFound("user not found")
	}
	fn(&user)
	r.db.users[userID] = user
	return nil
}

type memoryEvents struct{ db *memoryDB }

func (r *memoryEvents) Create(ctx context.Context, event *models.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.events[event.ID] = *event
	return nil
}

func (r *memoryEvents) GetByID(ctx context.Context, id string) (*models.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	event, ok := r.db.events[id]
	if !ok {
		return nil, apperrors.NotFound("event not found")
	}
	return &event, nil
}

func (r *memoryEvents) UpdateTitle(ctx context.Context, id, title string) error {
	return r.update(ctx, id, func(e *models.Event) { e.Title = title })
}

func (r *memoryEvents) UpdateDates(ctx context.Context, id string, start, end time.Time) error {
	return r.update(ctx, id, func(e *models.Event) {
		e.StartDate = start
		e.EndDate = end
	})
}

func (r *memoryEvents) CompareAndSetActive(ctx context.Context, id string, from, to bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	event, ok := r.db.events[id]
	if !ok || event.ActiveStatus != from {
		return false, nil
	}
	event.ActiveStatus = to
	r.db.events[id] = event
	return true, nil
}

func (r *memoryEvents) AddMember(ctx context.Context, eventID, userID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, m := range r.db.members[eventID] {
		if m.UserID == userID {
			return false, nil
		}
	}
	r.db.memberSeq++
	r.db.members[eventID] = append(r.db.members[eventID], models.EventMember{
		EventID:  eventID,
		UserID:   userID,
		Seq:      r.db.memberSeq,
		JoinedAt: time.Now(),
	})
	return true, nil
}

func (r *memoryEvents) IsMember(ctx context.Context, eventID, userID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, m := range r.db.members[eventID] {
		if m.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryEvents) ListMembers(ctx context.Context, eventID string) ([]*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var users []*models.User
	for _, m := range r.db.members[eventID] {
		if user, ok := r.db.users[m.UserID]; ok {
			users = append(users, &user)
		}
	}
	return users, nil
}

func (r *memoryEvents) update(ctx context.Context, id string, fn func(e *models.Event)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	event, ok := r.db.events[id]
	if !ok {
		return apperrors.NotFound("event not found")
	}
	fn(&event)
	r.db.events[id] = event
	return nil
}

type memoryEventPhotos struct{ db *memoryDB }

func (r *memoryEventPhotos) CreateBatch(ctx context.Context, photos []*models.EventPhoto) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, photo := range photos {
		r.db.eventPhotos[photo.ID] = *photo
	}
	return nil
}

func (r *memoryEventPhotos) ListByUserAndEvent(ctx context.Context, userID, eventID string) ([]*models.EventPhoto, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var photos []*models.EventPhoto
	for _, photo := range r.db.eventPhotos {
		if photo.UserID == userID && photo.EventID == eventID {
			photos = append(photos, &photo)
		}
	}
	sort.SliceStable(photos, func(i, j int) bool {
		return photos[i].Position < photos[j].Position
	})
	return photos, nil
}

func (r *memoryEventPhotos) DeleteByIDs(ctx context.Context, ids []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, id := range ids {
		delete(r.db.eventPhotos, id)
	}
	return nil
}

type memoryDays struct{ db *memoryDB }

func (r *memoryDays) Find(ctx context.Context, userID string, year, month, day int) (*models.Day, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	if d, ok := r.findLocked(userID, year, month, day); ok {
		return &d, nil
	}
	return nil, apperrors.NotFound("day not found")
}

func (r *memoryDays) findLocked(userID string, year, month, day int) (models.Day, bool) {
	for _, d := range r.db.days {
		if d.UserID == userID && d.Year == year && d.Month == month && d.Day == day {
			return d, true
		}
	}
	return models.Day{}, false
}

func (r *memoryDays) CreateIfAbsent(ctx context.Context, day *models.Day) (*models.Day, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if existing, ok := r.findLocked(day.UserID, day.Year, day.Month, day.Day); ok {
		return &existing, false, nil
	}
	r.db.days[day.ID] = *day
	created := *day
	return &created, true, nil
}

func (r *memoryDays) UpdateMemo(ctx context.Context, dayID string, memo *string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	d, ok := r.db.days[dayID]
	if !ok {
		return apperrors.NotFound("day not found")
	}
	d.Memo = memo
	r.db.days[dayID] = d
	return nil
}

func (r *memoryDays) ListByMonth(ctx context.Context, userID string, year, month int) ([]*models.Day, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var days []*models.Day
	for _, d := range r.db.days {
		if d.UserID == userID && d.Year == year && d.Month == month {
			days = append(days, &d)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Day < days[j].Day })
	return days, nil
}

type memoryDayPhotos struct{ db *memoryDB }

func (r *memoryDayPhotos) FindThumbnail(ctx context.Context, dayID string) (*models.DayPhoto, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var found *models.DayPhoto
	for _, photo := range r.db.dayPhotos {
		if photo.DayID == dayID && photo.Thumbnail {
			if found == nil || photo.CreatedAt.After(found.CreatedAt) {
				found = &photo
			}
		}
	}
	if found == nil {
		return nil, apperrors.NotFound("thumbnail not found")
	}
	return found, nil
}

func (r *memoryDayPhotos) ListGallery(ctx context.Context, dayID string) ([]*models.DayPhoto, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var photos []*models.DayPhoto
	for _, photo := range r.db.dayPhotos {
		if photo.DayID == dayID && !photo.Thumbnail {
			photos = append(photos, &photo)
		}
	}
	sort.SliceStable(photos, func(i, j int) bool { return photos[i].Position < photos[j].Position })
	return photos, nil
}

func (r *memoryDayPhotos) CreateBatch(ctx context.Context, photos []*models.DayPhoto) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, photo := range photos {
		r.db.dayPhotos[photo.ID] = *photo
	}
	return nil
}

func (r *memoryDayPhotos) DeleteByIDs(ctx context.Context, ids []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, id := range ids {
		delete(r.db.dayPhotos, id)
	}
	return nil
}

type memoryBarcodes struct{ db *memoryDB }

func (r *memoryBarcodes) CreateWithGrants(ctx context.Context, barcode *models.Barcode, userIDs []string) ([]*models.UserBarcode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.barcodes[barcode.ID] = *barcode
	grants := make([]*models.UserBarcode, 0, len(userIDs))
	for _, userID := range userIDs {
		grant := models.UserBarcode{
			ID:        uuid.New().String(),
			UserID:    userID,
			BarcodeID: barcode.ID,
			CreatedAt: barcode.CreatedAt,
		}
		r.db.userBarcodes[grant.ID] = grant
		grants = append(grants, &grant)
	}
	return grants, nil
}

func (r *memoryBarcodes) GetByID(ctx context.Context, id string) (*models.Barcode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	b, ok := r.db.barcodes[id]
	if !ok {
		return nil, apperrors.NotFound("barcode not found")
	}
	return &b, nil
}

func (r *memoryBarcodes) ListByUser(ctx context.Context, userID string) ([]*models.Barcode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var barcodes []*models.Barcode
	for _, grant := range r.db.userBarcodes {
		if grant.UserID != userID {
			continue
		}
		if b, ok := r.db.barcodes[grant.BarcodeID]; ok {
			barcodes = append(barcodes, &b)
		}
	}
	sort.Slice(barcodes, func(i, j int) bool { return barcodes[i].CreatedAt.After(barcodes[j].CreatedAt) })
	return barcodes, nil
}

func (r *memoryBarcodes) ListGrants(ctx context.Context, barcodeID string) ([]*models.UserBarcode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var grants []*models.UserBarcode
	for _, grant := range r.db.userBarcodes {
		if grant.BarcodeID == barcodeID {
			grants = append(grants, &grant)
		}
	}
	sort.Slice(grants, func(i, j int) bool { return grants[i].UserID < grants[j].UserID })
	return grants, nil
}
