package store

import (
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/reorx/linkmind/internal/model"
)

// UpsertLink is idempotent by (user, url): spec.md section 4.1. A link that
// already exists is reset to pending with its error cleared so a
// resubmission restarts the pipeline; a brand-new row is created pending.
func (s *Store) UpsertLink(userID int64, url string) (linkID int64, wasExisting bool, err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, false, classifyPGError(err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRow(`SELECT id FROM links WHERE user_id = $1 AND url = $2`, userID, url).Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		err = tx.QueryRow(`
			INSERT INTO links(user_id, url, status)
			VALUES($1, $2, $3)
			RETURNING id
		`, userID, url, model.LinkStatusPending).Scan(&id)
		if err != nil {
			return 0, false, classifyPGError(err)
		}
		if err := tx.Commit(); err != nil {
			return 0, false, classifyPGError(err)
		}
		return id, false, nil
	case err != nil:
		return 0, false, classifyPGError(err)
	}

	_, err = tx.Exec(`
		UPDATE links SET status = $1, error = '' WHERE id = $2
	`, model.LinkStatusPending, id)
	if err != nil {
		return 0, false, classifyPGError(err)
	}
	if err := tx.Commit(); err != nil {
		return 0, false, classifyPGError(err)
	}
	return id, true, nil
}

// UpdateLinkFields atomically applies a partial update and bumps updated_at,
// mirroring the teacher's UpdateStatus but generalized to every mutable
// column a pipeline step might write.
func (s *Store) UpdateLinkFields(linkID int64, p model.LinkPartial) error {
	set := []string{}
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return placeholder(len(args))
	}

	if p.Title != nil {
		set = append(set, "title = "+arg(*p.Title))
	}
	if p.Description != nil {
		set = append(set, "description = "+arg(*p.Description))
	}
	if p.Image != nil {
		set = append(set, "image = "+arg(*p.Image))
	}
	if p.SiteName != nil {
		set = append(set, "site_name = "+arg(*p.SiteName))
	}
	if p.Type != nil {
		set = append(set, "type = "+arg(*p.Type))
	}
	if p.Markdown != nil {
		set = append(set, "markdown = "+arg(*p.Markdown))
	}
	if p.Summary != nil {
		set = append(set, "summary = "+arg(*p.Summary))
	}
	if p.Insight != nil {
		set = append(set, "insight = "+arg(*p.Insight))
	}
	if p.Tags != nil {
		b, err := json.Marshal(*p.Tags)
		if err != nil {
			return err
		}
		set = append(set, "tags = "+arg(b))
	}
	if p.Images != nil {
		b, err := json.Marshal(*p.Images)
		if err != nil {
			return err
		}
		set = append(set, "images = "+arg(b))
	}
	if p.Vector != nil {
		set = append(set, "summary_vector = "+arg(SerializeVector(*p.Vector)))
	}
	if p.Status != nil {
		set = append(set, "status = "+arg(*p.Status))
	}
	if p.Error != nil {
		set = append(set, "error = "+arg(truncateError(*p.Error)))
	}

	if len(set) == 0 {
		return nil
	}
	set = append(set, "updated_at = now()")

	query := "UPDATE links SET " + strings.Join(set, ", ") + " WHERE id = " + arg(linkID)
	_, err := s.db.Exec(query, args...)
	if err != nil {
		return classifyPGError(err)
	}

	if p.Status != nil || p.Summary != nil || p.Title != nil || p.Markdown != nil {
		link, ferr := s.GetLink(linkID)
		if ferr == nil && link != nil {
			_ = s.indexLinkText(*link)
		}
	}
	return nil
}

// truncateError enforces the <=1000 character bound spec.md section 7
// requires for stored error messages.
func truncateError(msg string) string {
	const max = 1000
	if len(msg) <= max {
		return msg
	}
	return msg[:max]
}

func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

func scanLink(row interface {
	Scan(...interface{}) error
}) (*model.Link, error) {
	var l model.Link
	var tagsRaw, imagesRaw, vecRaw []byte
	err := row.Scan(
		&l.ID, &l.UserID, &l.URL, &l.Title, &l.Description, &l.Image, &l.SiteName, &l.Type,
		&l.Markdown, &l.Summary, &l.Insight, &tagsRaw, &imagesRaw, &vecRaw,
		&l.Status, &l.Error, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(tagsRaw) > 0 {
		_ = json.Unmarshal(tagsRaw, &l.Tags)
	}
	if len(imagesRaw) > 0 {
		_ = json.Unmarshal(imagesRaw, &l.Images)
	}
	l.Vector = DeserializeVector(vecRaw)
	return &l, nil
}

const linkColumns = `id, user_id, url, title, description, image, site_name, type,
		markdown, summary, insight, tags, images, summary_vector,
		status, error, created_at, updated_at`

func (s *Store) GetLink(linkID int64) (*model.Link, error) {
	row := s.db.QueryRow(`SELECT `+linkColumns+` FROM links WHERE id = $1`, linkID)
	link, err := scanLink(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, classifyPGError(err)
	}
	return link, nil
}

func (s *Store) GetLinkByURL(userID int64, url string) (*model.Link, error) {
	row := s.db.QueryRow(`SELECT `+linkColumns+` FROM links WHERE user_id = $1 AND url = $2`, userID, url)
	link, err := scanLink(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, classifyPGError(err)
	}
	return link, nil
}

func (s *Store) queryLinks(query string, args ...interface{}) ([]model.Link, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, classifyPGError(err)
	}
	defer rows.Close()

	var links []model.Link
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, classifyPGError(err)
		}
		links = append(links, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyPGError(err)
	}
	return links, nil
}

func (s *Store) ListRecent(userID int64, limit int) ([]model.Link, error) {
	return s.queryLinks(`SELECT `+linkColumns+` FROM links WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`, userID, limit)
}

func (s *Store) ListPaginated(userID int64, limit, offset int) ([]model.Link, error) {
	return s.queryLinks(`SELECT `+linkColumns+` FROM links WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, userID, limit, offset)
}

func (s *Store) ListAnalyzed(userID int64, limit int) ([]model.Link, error) {
	return s.queryLinks(`SELECT `+linkColumns+` FROM links WHERE user_id = $1 AND status = $2 ORDER BY created_at DESC LIMIT $3`, userID, model.LinkStatusAnalyzed, limit)
}

func (s *Store) ListFailed(userID int64, limit int) ([]model.Link, error) {
	return s.queryLinks(`SELECT `+linkColumns+` FROM links WHERE user_id = $1 AND status = $2 ORDER BY created_at DESC LIMIT $3`, userID, model.LinkStatusError, limit)
}

// DeleteLink removes only the link row itself; cascading cleanup of
// relations is done by RemoveLinkFromRelations, which the DeleteLink API
// handler calls first, not by this method (spec.md section 4.1).
func (s *Store) DeleteLink(linkID int64) error {
	_, err := s.db.Exec(`DELETE FROM links WHERE id = $1`, linkID)
	if err != nil {
		return classifyPGError(err)
	}
	_ = s.deleteLinkText(linkID)
	return nil
}
