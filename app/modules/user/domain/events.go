package userdomain

import (
	"time"

	"github.com/google/uuid"
)

// UserDeletedPayloadV1 is published after an account and its owned rows are gone.
type UserDeletedPayloadV1 struct {
	UserID    uuid.UUID `json:"user_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

// UserDeletedV1 is the topic for UserDeletedPayloadV1.
const UserDeletedV1 = "user.deleted.v1"
