package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Marpuchy/dnd-manager-sub001/internal/assistant"
	"github.com/Marpuchy/dnd-manager-sub001/internal/logging"
	"github.com/Marpuchy/dnd-manager-sub001/internal/patch"
	"github.com/Marpuchy/dnd-manager-sub001/internal/sheet"
)

const characterColumns = `id, campaign_id, owner_id, name, class, race, level, experience,
	armor_class, speed, current_hp, max_hp, character_type, stats, details`

// CreateCharacter inserts c. An empty id is filled in and written back.
func (s *SQLiteStore) CreateCharacter(ctx context.Context, c *sheet.Character) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = s.newID()
	}
	stats, details, err := encodeCharacter(c)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO characters (`+characterColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.CampaignID, c.OwnerID, c.Name, c.Class, c.Race, c.Level, c.Experience,
		c.ArmorClass, c.Speed, c.CurrentHP, c.MaxHP, c.CharacterType, stats, details)
	if err != nil {
		return fmt.Errorf("insert character %s: %w", c.ID, err)
	}
	logging.StoreDebug("created character %s (%s)", c.ID, c.Name)
	return nil
}

// SaveCharacter overwrites every column of an existing character.
func (s *SQLiteStore) SaveCharacter(ctx context.Context, c *sheet.Character) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats, details, err := encodeCharacter(c)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE characters SET
		owner_id = ?, name = ?, class = ?, race = ?, level = ?, experience = ?,
		armor_class = ?, speed = ?, current_hp = ?, max_hp = ?, character_type = ?,
		stats = ?, details = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		c.OwnerID, c.Name, c.Class, c.Race, c.Level, c.Experience,
		c.ArmorClass, c.Speed, c.CurrentHP, c.MaxHP, c.CharacterType,
		stats, details, c.ID)
	if err != nil {
		return fmt.Errorf("update character %s: %w", c.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("character %s: %w", c.ID, assistant.ErrNotFound)
	}
	return nil
}

// GetCharacter loads one character.
func (s *SQLiteStore) GetCharacter(ctx context.Context, id string) (*sheet.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT `+characterColumns+` FROM characters WHERE id = ?`, id)
	c, err := scanCharacter(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("character %s: %w", id, assistant.ErrNotFound)
	}
	return c, err
}

// ListCharacters returns every character of a campaign ordered by name.
func (s *SQLiteStore) ListCharacters(ctx context.Context, campaignID string) ([]sheet.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT `+characterColumns+`
		FROM characters WHERE campaign_id = ? ORDER BY name, id`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}
	defer rows.Close()

	var out []sheet.Character
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCharacter(row scanner) (*sheet.Character, error) {
	var c sheet.Character
	var stats, details string
	if err := row.Scan(&c.ID, &c.CampaignID, &c.OwnerID, &c.Name, &c.Class, &c.Race,
		&c.Level, &c.Experience, &c.ArmorClass, &c.Speed, &c.CurrentHP, &c.MaxHP,
		&c.CharacterType, &stats, &details); err != nil {
		return nil, err
	}
	if stats != "" && stats != "null" {
		if err := json.Unmarshal([]byte(stats), &c.Stats); err != nil {
			return nil, fmt.Errorf("character %s stats: %w", c.ID, err)
		}
	}
	if details != "" {
		if err := json.Unmarshal([]byte(details), &c.Details); err != nil {
			return nil, fmt.Errorf("character %s: %w", c.ID, err)
		}
	}
	return &c, nil
}

func encodeCharacter(c *sheet.Character) (string, string, error) {
	stats := c.Stats
	if stats == nil {
		stats = patch.Stats{}
	}
	sb, err := json.Marshal(stats)
	if err != nil {
		return "", "", fmt.Errorf("encode stats: %w", err)
	}
	db, err := json.Marshal(c.Details)
	if err != nil {
		return "", "", fmt.Errorf("encode details: %w", err)
	}
	return string(sb), string(db), nil
}
