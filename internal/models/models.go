package models

import "time"

// DateLayout is the wire and storage format for calendar dates
const DateLayout = "2006-01-02"

// User represents a user in the system
type User struct {
	ID           string    `json:"id"`
	Nickname     string    `json:"nickname"`
	ProfileURL   *string   `json:"profile_url,omitempty"`
	SocialID     string    `json:"social_id"`
	RefreshToken *string   `json:"-"`
	PushToken    *string   `json:"-"`
	CheckStatus  bool      `json:"check_status"`
	EventID      *string   `json:"event_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Event represents a time-bounded group of users sharing photos
type Event struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	ActiveStatus bool      `json:"active_status"`
	RoomMakerID  string    `json:"room_maker_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsRoomMaker reports whether the user created the event
func (e *Event) IsRoomMaker(userID string) bool {
	return e.RoomMakerID == userID
}

// EventMember links a user to an event; Seq preserves join order
type EventMember struct {
	EventID  string    `json:"event_id"`
	UserID   string    `json:"user_id"`
	Seq      int64     `json:"seq"`
	JoinedAt time.Time `json:"joined_at"`
}

// EventPhoto is a photo uploaded by a member for an event
type EventPhoto struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	UserID    string    `json:"user_id"`
	URL       string    `json:"url"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// Day is a per-user journal entry for a calendar date
type Day struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Year      int       `json:"year"`
	Month     int       `json:"month"`
	Day       int       `json:"day"`
	Memo      *string   `json:"memo,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Date returns the calendar date of the day entry
func (d *Day) Date() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

// DayPhoto is a photo attached to a Day. A nil URL on a thumbnail row
// means the thumbnail was cleared.
type DayPhoto struct {
	ID        string    `json:"id"`
	DayID     string    `json:"day_id"`
	URL       *string   `json:"url,omitempty"`
	Thumbnail bool      `json:"thumbnail"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// BarcodeType tags what a barcode summarizes
type BarcodeType string

const (
	BarcodeTypeEvent BarcodeType = "EVENT"
	BarcodeTypeDay   BarcodeType = "DAY"
)

// Barcode is a generated collage of an ordered photo set
type Barcode struct {
	ID        string      `json:"id"`
	URL       string      `json:"url"`
	Title     string      `json:"title"`
	StartDate time.Time   `json:"start_date"`
	EndDate   time.Time   `json:"end_date"`
	Type      BarcodeType `json:"type"`
	EventID   *string     `json:"event_id,omitempty"`
	BlurHash  string      `json:"blur_hash,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// UserBarcode grants a user access to a barcode
type UserBarcode struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	BarcodeID string    `json:"barcode_id"`
	CreatedAt time.Time `json:"created_at"`
}
