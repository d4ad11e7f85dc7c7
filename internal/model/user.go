package model

import "time"

const (
	UserStatusPending = "pending"
	UserStatusActive  = "active"
)

// User is a chat or web client identity. It is activated once an invite is
// consumed; until then it can still own links created via the admission API
// for onboarding flows that create the row eagerly.
type User struct {
	ID             int64
	ExternalChatID string
	DisplayName    string
	Status         string
	InviteRef      *string
	CreatedAt      time.Time
}
