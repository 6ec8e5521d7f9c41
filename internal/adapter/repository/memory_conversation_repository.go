package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"veridax/internal/domain/entity"
	"veridax/internal/domain/repository"
	"veridax/pkg/errors"
)

// memoryConversationRepository is an in-process implementation used in tests
// and local development. Mutations to a single conversation are serialized
// by the repository lock, mirroring Firestore's per-document atomicity.
type memoryConversationRepository struct {
	mu            sync.RWMutex
	conversations map[string]*entity.Conversation
	messages      map[string][]*entity.Message
}

func NewMemoryConversationRepository() repository.ConversationRepository {
	return &memoryConversationRepository{
		conversations: make(map[string]*entity.Conversation),
		messages:      make(map[string][]*entity.Message),
	}
}

func (r *memoryConversationRepository) Create(ctx context.Context, conversation *entity.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if conversation.ID == "" {
		conversation.ID = uuid.New().String()
	}
	now := time.Now()
	conversation.CreatedAt = now
	conversation.UpdatedAt = now

	stored := *conversation
	r.conversations[conversation.ID] = &stored
	return nil
}

func (r *memoryConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conversation, ok := r.conversations[id]
	if !ok {
		return nil, errors.NotFound("Conversation", nil)
	}
	copied := *conversation
	return &copied, nil
}

func (r *memoryConversationRepository) ListByUserID(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var conversations []*entity.Conversation
	for _, conversation := range r.conversations {
		if conversation.HasParticipant(userID) {
			copied := *conversation
			conversations = append(conversations, &copied)
		}
	}

	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].UpdatedAt.After(conversations[j].UpdatedAt)
	})

	return conversations, nil
}

func (r *memoryConversationRepository) Update(ctx context.Context, conversation *entity.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conversations[conversation.ID]; !ok {
		return errors.NotFound("Conversation", nil)
	}
	conversation.UpdatedAt = time.Now()

	stored := *conversation
	r.conversations[conversation.ID] = &stored
	return nil
}

func (r *memoryConversationRepository) CreateMessage(ctx context.Context, message *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}

	stored := *message
	r.messages[message.ConversationID] = append(r.messages[message.ConversationID], &stored)
	return nil
}

func (r *memoryConversationRepository) ListMessages(ctx context.Context, conversationID string) ([]*entity.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.messages[conversationID]
	messages := make([]*entity.Message, 0, len(stored))
	for _, message := range stored {
		copied := *message
		messages = append(messages, &copied)
	}
	return messages, nil
}
