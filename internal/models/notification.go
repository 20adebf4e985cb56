package models

import "time"

// MaxNotifications is the number of most recent notifications kept.
const MaxNotifications = 20

// Notification is an ephemeral UI signal.
type Notification struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"` // unix millis
	Read      bool   `json:"read"`
	Link      string `json:"link,omitempty"`
}

// Time converts the timestamp.
func (n Notification) Time() time.Time {
	return time.UnixMilli(n.Timestamp)
}
