package entity

import "time"

// LastMessage is the denormalized summary used to sort conversation lists
// without loading the message log.
type LastMessage struct {
	Content  string    `json:"content" firestore:"content"`
	SenderID string    `json:"sender_id" firestore:"senderId"`
	SentAt   time.Time `json:"sent_at" firestore:"sentAt"`
}

// Conversation is a two-participant chat thread. A pair of users has at most
// one conversation; messages live in a subcollection keyed by this ID.
type Conversation struct {
	ID           string       `json:"id" firestore:"id"`
	Participants []string     `json:"participants" firestore:"participants"`
	LastMessage  *LastMessage `json:"last_message,omitempty" firestore:"lastMessage,omitempty"`
	CreatedAt    time.Time    `json:"created_at" firestore:"createdAt"`
	UpdatedAt    time.Time    `json:"updated_at" firestore:"updatedAt"`
}

// HasParticipant reports whether userID is one of the two participants.
func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}
