package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Marpuchy/dnd-manager-sub001/internal/assistant"
	"github.com/Marpuchy/dnd-manager-sub001/internal/sheet"
)

// CreateCampaign inserts a campaign. An empty id is filled in.
func (s *SQLiteStore) CreateCampaign(ctx context.Context, c *sheet.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = s.newID()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO campaigns (id, name, description, owner_id) VALUES (?, ?, ?, ?)`,
		c.ID, c.Name, c.Description, c.OwnerID)
	if err != nil {
		return fmt.Errorf("insert campaign %s: %w", c.ID, err)
	}
	return nil
}

// GetCampaign loads one campaign.
func (s *SQLiteStore) GetCampaign(ctx context.Context, id string) (*sheet.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c sheet.Campaign
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, owner_id FROM campaigns WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Description, &c.OwnerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("campaign %s: %w", id, assistant.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign %s: %w", id, err)
	}
	return &c, nil
}

// AddMember inserts or updates a membership.
func (s *SQLiteStore) AddMember(ctx context.Context, m sheet.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `INSERT INTO campaign_members (campaign_id, user_id, role)
		VALUES (?, ?, ?)
		ON CONFLICT(campaign_id, user_id) DO UPDATE SET role = excluded.role`,
		m.CampaignID, m.UserID, string(m.Role))
	if err != nil {
		return fmt.Errorf("add member %s: %w", m.UserID, err)
	}
	return nil
}

// ListMembers returns the memberships of a campaign.
func (s *SQLiteStore) ListMembers(ctx context.Context, campaignID string) ([]sheet.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT campaign_id, user_id, role FROM campaign_members WHERE campaign_id = ? ORDER BY user_id`,
		campaignID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var out []sheet.Membership
	for rows.Next() {
		var m sheet.Membership
		var role string
		if err := rows.Scan(&m.CampaignID, &m.UserID, &role); err != nil {
			return nil, err
		}
		m.Role = sheet.Role(role)
		out = append(out, m)
	}
	return out, rows.Err()
}

// AddNote inserts a note. An empty id is filled in.
func (s *SQLiteStore) AddNote(ctx context.Context, n *sheet.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.ID == "" {
		n.ID = s.newID()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO campaign_notes (id, campaign_id, author_id, title, body, private)
		VALUES (?, ?, ?, ?, ?, ?)`,
		n.ID, n.CampaignID, n.AuthorID, n.Title, n.Body, n.Private)
	if err != nil {
		return fmt.Errorf("insert note %s: %w", n.ID, err)
	}
	return nil
}

// ListNotes returns every note of a campaign, private ones included. The
// caller filters by visibility.
func (s *SQLiteStore) ListNotes(ctx context.Context, campaignID string) ([]sheet.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, campaign_id, author_id, title, body, private
		FROM campaign_notes WHERE campaign_id = ? ORDER BY created_at, id`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var out []sheet.Note
	for rows.Next() {
		var n sheet.Note
		if err := rows.Scan(&n.ID, &n.CampaignID, &n.AuthorID, &n.Title, &n.Body, &n.Private); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
