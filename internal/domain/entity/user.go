package entity

import (
	"time"
)

// User is the profile summary supplied by the user directory. The chat core
// only reads these fields to decorate conversation and message responses.
type User struct {
	ID           string    `json:"id" firestore:"id"`
	Username     string    `json:"username" firestore:"username"`
	AvatarURL    string    `json:"avatar_url,omitempty" firestore:"avatarURL,omitempty"`
	OnlineStatus string    `json:"online_status" firestore:"onlineStatus"`
	LastSeen     time.Time `json:"last_seen" firestore:"lastSeen"`
}
