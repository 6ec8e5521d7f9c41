package repository

import (
	"context"

	"veridax/internal/domain/entity"
)

// UserRepository reads profile summaries owned by the user directory.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
}
