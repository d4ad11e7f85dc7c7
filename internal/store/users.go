package store

import (
	"database/sql"

	"github.com/reorx/linkmind/internal/model"
)

// UpsertUserByExternalChatID finds or creates a User for a chat/web client
// identity, the way UpsertLink is idempotent by (user, url). New users start
// pending; activation happens separately once an invite is consumed.
func (s *Store) UpsertUserByExternalChatID(externalChatID, displayName string) (*model.User, error) {
	var u model.User
	err := s.db.QueryRow(`
		INSERT INTO users(external_chat_id, display_name, status)
		VALUES($1, $2, $3)
		ON CONFLICT (external_chat_id) DO UPDATE SET external_chat_id = EXCLUDED.external_chat_id
		RETURNING id, external_chat_id, display_name, status, invite_ref, created_at
	`, externalChatID, displayName, model.UserStatusPending).Scan(
		&u.ID, &u.ExternalChatID, &u.DisplayName, &u.Status, &u.InviteRef, &u.CreatedAt,
	)
	if err != nil {
		return nil, classifyPGError(err)
	}
	return &u, nil
}

func (s *Store) GetUser(id int64) (*model.User, error) {
	var u model.User
	err := s.db.QueryRow(`
		SELECT id, external_chat_id, display_name, status, invite_ref, created_at
		FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.ExternalChatID, &u.DisplayName, &u.Status, &u.InviteRef, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, classifyPGError(err)
	}
	return &u, nil
}

// ActivateUser flips a pending user to active, recording the invite that
// was consumed.
func (s *Store) ActivateUser(id int64, inviteRef string) error {
	_, err := s.db.Exec(`
		UPDATE users SET status = $1, invite_ref = $2 WHERE id = $3
	`, model.UserStatusActive, inviteRef, id)
	return classifyPGError(err)
}
