package entity

import "time"

// Message is one immutable entry in a conversation log. A message is either
// plain text (MediaURL and MediaType empty) or an attachment, in which case
// Content holds the original filename.
type Message struct {
	ID             string    `json:"id" firestore:"id"`
	ConversationID string    `json:"conversation_id" firestore:"conversationId"`
	SenderID       string    `json:"sender_id" firestore:"senderId"`
	Content        string    `json:"content" firestore:"content"`
	MediaURL       string    `json:"media_url,omitempty" firestore:"mediaUrl,omitempty"`
	MediaType      MediaType `json:"media_type,omitempty" firestore:"mediaType,omitempty"`
	CreatedAt      time.Time `json:"created_at" firestore:"createdAt"`
}

// HasMedia reports whether the message carries an attachment.
func (m *Message) HasMedia() bool {
	return m.MediaURL != ""
}
