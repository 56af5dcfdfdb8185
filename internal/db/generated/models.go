package dbgen

import (
	"database/sql"
	"time"
)

type User struct {
	ID        string
	Email     string
	Role      string
	CreatedAt time.Time
}

type OwnerProfile struct {
	UserID       string
	ClubName     string
	ContactPhone sql.NullString
	UpdatedAt    time.Time
}

type PlayerProfile struct {
	UserID    string
	Position  string
	City      string
	UpdatedAt time.Time
}

type LocalLogin struct {
	Email        string
	UserID       string
	PasswordHash string
	CreatedAt    time.Time
}

type Field struct {
	ID         int64
	OwnerID    string
	Name       string
	City       string
	Surface    string
	PriceCents int64
	Published  bool
	CreatedAt  time.Time
}

type FieldHour struct {
	FieldID     int64
	Weekday     int64
	OpenMinute  int64
	CloseMinute int64
}

type Booking struct {
	ID           string
	FieldID      int64
	PlayerID     string
	StartsAt     time.Time
	EndsAt       time.Time
	Status       string
	ReminderSent bool
	CreatedAt    time.Time
}

type Team struct {
	ID        int64
	Name      string
	CaptainID string
	CreatedAt time.Time
}

type TeamMember struct {
	TeamID   int64
	UserID   string
	JoinedAt time.Time
}

type Friendship struct {
	RequesterID string
	AddresseeID string
	Status      string
	CreatedAt   time.Time
}
