package usecase

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"veridax/internal/domain/entity"
	"veridax/internal/domain/repository"
	"veridax/internal/infrastructure/ratelimit"
	ws "veridax/internal/infrastructure/websocket"
	"veridax/pkg/errors"
	"veridax/pkg/logger"
)

// Broadcaster fans a payload out to every connection joined to a
// conversation's room. Delivery is best-effort; failures never propagate
// back into the store.
type Broadcaster interface {
	Publish(conversationID string, payload []byte)
}

type ChatUseCase struct {
	conversationRepo repository.ConversationRepository
	userRepo         repository.UserRepository
	broadcaster      Broadcaster
	rateLimiter      *ratelimit.RateLimiter

	// pairLocks serializes conversation creation per unordered participant
	// pair so concurrent first contact cannot create duplicates.
	pairLocks sync.Map
}

func NewChatUseCase(
	conversationRepo repository.ConversationRepository,
	userRepo repository.UserRepository,
	broadcaster Broadcaster,
) *ChatUseCase {
	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine()

	return &ChatUseCase{
		conversationRepo: conversationRepo,
		userRepo:         userRepo,
		broadcaster:      broadcaster,
		rateLimiter:      rateLimiter,
	}
}

type ConversationResponse struct {
	*entity.Conversation
	OtherUser *entity.User `json:"other_user,omitempty"`
}

type MessageResponse struct {
	*entity.Message
	Sender *entity.User `json:"sender,omitempty"`
}

// AttachmentInput carries the output of the attachment pipeline into the
// store. Filename is the original upload name, shown as the message content.
type AttachmentInput struct {
	Filename  string
	URL       string
	MediaType entity.MediaType
}

type MediaItem struct {
	ID        string           `json:"id"`
	URL       string           `json:"url"`
	Type      entity.MediaType `json:"type"`
	Timestamp time.Time        `json:"timestamp"`
}

type FileItem struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	Timestamp time.Time `json:"timestamp"`
}

type LinkItem struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Timestamp time.Time `json:"timestamp"`
}

var linkPattern = regexp.MustCompile(`https?://[^\s]+`)

// ListConversations returns the user's conversations sorted by last activity
// descending, with the other participant's profile populated.
func (uc *ChatUseCase) ListConversations(ctx context.Context, userID string) ([]*ConversationResponse, error) {
	conversations, err := uc.conversationRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	responses := make([]*ConversationResponse, 0, len(conversations))
	for _, conversation := range conversations {
		response := &ConversationResponse{Conversation: conversation}
		for _, participantID := range conversation.Participants {
			if participantID == userID {
				continue
			}
			other, err := uc.userRepo.GetByID(ctx, participantID)
			if err != nil {
				logger.Warn("ListConversations: failed to load profile %s: %v", participantID, err)
				break
			}
			response.OtherUser = other
		}
		responses = append(responses, response)
	}

	return responses, nil
}

// GetOrCreateConversation returns the existing conversation between the two
// users or creates an empty one. Creation is serialized per sorted pair, so
// sequential and concurrent calls converge on a single conversation.
func (uc *ChatUseCase) GetOrCreateConversation(ctx context.Context, userID, recipientID string) (*ConversationResponse, error) {
	if userID == recipientID {
		return nil, errors.BadRequest("You cannot start a conversation with yourself", nil)
	}

	recipient, err := uc.userRepo.GetByID(ctx, recipientID)
	if err != nil {
		return nil, errors.NotFound("Recipient", err)
	}

	lock := uc.pairLock(userID, recipientID)
	lock.Lock()
	defer lock.Unlock()

	existing, err := uc.findExistingConversation(ctx, userID, recipientID)
	if err != nil && !errors.Is(err, "NOT_FOUND") {
		return nil, err
	}
	if existing != nil {
		return &ConversationResponse{Conversation: existing, OtherUser: recipient}, nil
	}

	allowed, waitTime := uc.rateLimiter.Allow(userID, "create_conversation")
	if !allowed {
		logger.Warn("GetOrCreateConversation rate limited: user %s must wait %v", userID, waitTime)
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before starting another conversation")
	}

	conversation := &entity.Conversation{
		Participants: []string{userID, recipientID},
	}
	if err := uc.conversationRepo.Create(ctx, conversation); err != nil {
		return nil, err
	}

	return &ConversationResponse{Conversation: conversation, OtherUser: recipient}, nil
}

// ListMessages returns the full log in append order with sender profiles
// populated.
func (uc *ChatUseCase) ListMessages(ctx context.Context, userID, conversationID string) ([]*MessageResponse, error) {
	conversation, err := uc.conversationForParticipant(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}

	messages, err := uc.conversationRepo.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	profiles := uc.loadParticipantProfiles(ctx, conversation)

	responses := make([]*MessageResponse, 0, len(messages))
	for _, message := range messages {
		responses = append(responses, &MessageResponse{
			Message: message,
			Sender:  profiles[message.SenderID],
		})
	}

	return responses, nil
}

// SendMessage appends a text message to the conversation log and publishes
// it to the conversation's room.
func (uc *ChatUseCase) SendMessage(ctx context.Context, userID, conversationID, content string) (*MessageResponse, error) {
	if strings.TrimSpace(content) == "" {
		return nil, errors.BadRequest("Message content is required", nil)
	}

	message := &entity.Message{
		ConversationID: conversationID,
		SenderID:       userID,
		Content:        content,
	}

	return uc.appendMessage(ctx, userID, message, content)
}

// AuthorizeParticipant verifies the user may act on the conversation. Used
// before expensive work such as storing an upload, so a rejected request
// leaves nothing behind.
func (uc *ChatUseCase) AuthorizeParticipant(ctx context.Context, userID, conversationID string) error {
	_, err := uc.conversationForParticipant(ctx, conversationID, userID)
	return err
}

// SendAttachment appends an attachment message. The conversation list shows
// a synthesized label instead of the filename.
func (uc *ChatUseCase) SendAttachment(ctx context.Context, userID, conversationID string, attachment AttachmentInput) (*MessageResponse, error) {
	message := &entity.Message{
		ConversationID: conversationID,
		SenderID:       userID,
		Content:        attachment.Filename,
		MediaURL:       attachment.URL,
		MediaType:      attachment.MediaType,
	}

	label := fmt.Sprintf("Shared a %s", attachment.MediaType)
	return uc.appendMessage(ctx, userID, message, label)
}

// SharedMedia lists the conversation's image and video attachments.
func (uc *ChatUseCase) SharedMedia(ctx context.Context, userID, conversationID string) ([]*MediaItem, error) {
	messages, err := uc.participantMessages(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	items := make([]*MediaItem, 0)
	for _, message := range messages {
		if !message.HasMedia() {
			continue
		}
		if message.MediaType != entity.MediaTypeImage && message.MediaType != entity.MediaTypeVideo {
			continue
		}
		items = append(items, &MediaItem{
			ID:        message.ID,
			URL:       message.MediaURL,
			Type:      message.MediaType,
			Timestamp: message.CreatedAt,
		})
	}

	return items, nil
}

// SharedFiles lists every attachment that is not an image or a video. The
// bucket is deliberately coarse: anything unclassified lands here too.
func (uc *ChatUseCase) SharedFiles(ctx context.Context, userID, conversationID string) ([]*FileItem, error) {
	messages, err := uc.participantMessages(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	items := make([]*FileItem, 0)
	for _, message := range messages {
		if !message.HasMedia() {
			continue
		}
		if message.MediaType == entity.MediaTypeImage || message.MediaType == entity.MediaTypeVideo {
			continue
		}
		items = append(items, &FileItem{
			ID:        message.ID,
			Name:      message.Content,
			URL:       message.MediaURL,
			Timestamp: message.CreatedAt,
		})
	}

	return items, nil
}

// SharedLinks lists messages whose text contains an HTTP(S) URL. The first
// match is the link; the full message text is its title.
func (uc *ChatUseCase) SharedLinks(ctx context.Context, userID, conversationID string) ([]*LinkItem, error) {
	messages, err := uc.participantMessages(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	items := make([]*LinkItem, 0)
	for _, message := range messages {
		if message.HasMedia() {
			continue
		}
		url := linkPattern.FindString(message.Content)
		if url == "" {
			continue
		}
		items = append(items, &LinkItem{
			ID:        message.ID,
			URL:       url,
			Title:     message.Content,
			Timestamp: message.CreatedAt,
		})
	}

	return items, nil
}

// appendMessage runs the shared append path: membership check, rate limit,
// persist, last-message update, broadcast.
func (uc *ChatUseCase) appendMessage(ctx context.Context, userID string, message *entity.Message, lastMessageLabel string) (*MessageResponse, error) {
	conversation, err := uc.conversationForParticipant(ctx, message.ConversationID, userID)
	if err != nil {
		return nil, err
	}

	allowed, waitTime := uc.rateLimiter.Allow(userID, "send_message")
	if !allowed {
		logger.Warn("SendMessage rate limited: user %s must wait %v", userID, waitTime)
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before sending another message")
	}

	sender, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, errors.NotFound("Sender", err)
	}

	message.CreatedAt = time.Now()
	if err := uc.conversationRepo.CreateMessage(ctx, message); err != nil {
		return nil, err
	}

	conversation.LastMessage = &entity.LastMessage{
		Content:  lastMessageLabel,
		SenderID: userID,
		SentAt:   message.CreatedAt,
	}
	if err := uc.conversationRepo.Update(ctx, conversation); err != nil {
		return nil, err
	}

	response := &MessageResponse{Message: message, Sender: sender}

	payload, err := ws.NewMessageEvent(message.ConversationID, response)
	if err != nil {
		logger.Error("Failed to build new_message event for conversation %s: %v", message.ConversationID, err)
	} else {
		uc.broadcaster.Publish(message.ConversationID, payload)
	}

	return response, nil
}

// conversationForParticipant loads a conversation and verifies membership.
// A missing conversation and a foreign one report the same NotFound so
// non-participants cannot probe for existence.
func (uc *ChatUseCase) conversationForParticipant(ctx context.Context, conversationID, userID string) (*entity.Conversation, error) {
	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.HasParticipant(userID) {
		return nil, errors.NotFound("Conversation", nil)
	}
	return conversation, nil
}

func (uc *ChatUseCase) participantMessages(ctx context.Context, userID, conversationID string) ([]*entity.Message, error) {
	if _, err := uc.conversationForParticipant(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	return uc.conversationRepo.ListMessages(ctx, conversationID)
}

func (uc *ChatUseCase) findExistingConversation(ctx context.Context, userID, recipientID string) (*entity.Conversation, error) {
	conversations, err := uc.conversationRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, errors.Internal("Failed to list conversations", err)
	}

	for _, conversation := range conversations {
		if len(conversation.Participants) == 2 && conversation.HasParticipant(recipientID) {
			return conversation, nil
		}
	}

	return nil, errors.NotFound("Conversation", nil)
}

func (uc *ChatUseCase) loadParticipantProfiles(ctx context.Context, conversation *entity.Conversation) map[string]*entity.User {
	profiles := make(map[string]*entity.User, len(conversation.Participants))
	for _, participantID := range conversation.Participants {
		user, err := uc.userRepo.GetByID(ctx, participantID)
		if err != nil {
			logger.Warn("Failed to load profile %s: %v", participantID, err)
			continue
		}
		profiles[participantID] = user
	}
	return profiles
}

func (uc *ChatUseCase) pairLock(a, b string) *sync.Mutex {
	pair := []string{a, b}
	sort.Strings(pair)
	key := pair[0] + "|" + pair[1]

	actual, _ := uc.pairLocks.LoadOrStore(key, &sync.Mutex{})
	return actual.(*sync.Mutex)
}
