package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyMime(t *testing.T) {
	cases := []struct {
		mimeType string
		want     MediaType
		allowed  bool
	}{
		{"image/jpeg", MediaTypeImage, true},
		{"image/png", MediaTypeImage, true},
		{"image/gif", MediaTypeImage, true},
		{"video/mp4", MediaTypeVideo, true},
		{"video/mpeg", MediaTypeVideo, true},
		{"application/pdf", MediaTypeDocument, true},
		{"application/msword", MediaTypeDocument, true},
		{"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", MediaTypeDocument, true},
		{"text/plain", MediaTypeDocument, true},
		{"application/x-executable", "", false},
		{"image/webp", "", false},
		{"image/jpg", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		mediaType, ok := ClassifyMime(tc.mimeType)
		assert.Equal(t, tc.allowed, ok, "mime %q", tc.mimeType)
		if tc.allowed {
			assert.Equal(t, tc.want, mediaType, "mime %q", tc.mimeType)
		}
	}
}

func TestConversationHasParticipant(t *testing.T) {
	conversation := &Conversation{Participants: []string{"u1", "u2"}}

	assert.True(t, conversation.HasParticipant("u1"))
	assert.True(t, conversation.HasParticipant("u2"))
	assert.False(t, conversation.HasParticipant("u3"))
}

func TestMessageHasMedia(t *testing.T) {
	text := &Message{Content: "hello"}
	attachment := &Message{Content: "photo.png", MediaURL: "/uploads/x.jpg", MediaType: MediaTypeImage}

	assert.False(t, text.HasMedia())
	assert.True(t, attachment.HasMedia())
}
