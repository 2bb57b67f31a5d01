package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/Marpuchy/dnd-manager-sub001/internal/assistant"
	"github.com/Marpuchy/dnd-manager-sub001/internal/retrieval"
)

const maxExampleTitle = 80

func newID() string { return uuid.NewString() }

// RecordExample keeps a prompt whose changes were applied.
func (s *SQLiteStore) RecordExample(ctx context.Context, ex assistant.CommunityExample) error {
	if strings.TrimSpace(ex.Prompt) == "" || len(ex.Actions) == 0 {
		return nil
	}
	actions, err := json.Marshal(ex.Actions)
	if err != nil {
		return fmt.Errorf("encode example actions: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx, `INSERT INTO community_examples (id, campaign_id, prompt, actions, provider, edited)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.newID(), ex.CampaignID, ex.Prompt, string(actions), ex.Provider, ex.Edited)
	if err != nil {
		return fmt.Errorf("insert community example: %w", err)
	}
	return nil
}

// CommunityExamples returns the newest examples as retrieval documents.
func (s *SQLiteStore) CommunityExamples(ctx context.Context, limit int) ([]retrieval.Document, error) {
	if limit <= 0 {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, prompt, actions, edited FROM community_examples
		ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list community examples: %w", err)
	}
	defer rows.Close()

	var out []retrieval.Document
	for rows.Next() {
		var id, prompt, actions string
		var edited bool
		if err := rows.Scan(&id, &prompt, &actions, &edited); err != nil {
			return nil, err
		}
		out = append(out, exampleDocument(id, prompt, actions, edited))
	}
	return out, rows.Err()
}

func exampleDocument(id, prompt, actions string, edited bool) retrieval.Document {
	title := strings.TrimSpace(prompt)
	if i := strings.IndexByte(title, '\n'); i >= 0 {
		title = strings.TrimSpace(title[:i])
	}
	if r := []rune(title); len(r) > maxExampleTitle {
		title = string(r[:maxExampleTitle])
	}

	var b strings.Builder
	b.WriteString(strings.TrimSpace(prompt))
	b.WriteString("\n=> ")
	b.WriteString(summarizeActions(actions))
	if edited {
		b.WriteString("\n(corrected by user)")
	}
	return retrieval.Document{
		ID:         retrieval.SourceCommunity + ":" + id,
		SourceType: retrieval.SourceCommunity,
		Title:      title,
		Text:       b.String(),
		Priority:   retrieval.PriorityCommunity,
	}
}

// variantNames maps each patch field to the path of its display name.
var variantNames = []struct{ field, name string }{
	{"item_patch", "target_item_name"},
	{"custom_spell_patch", "name"},
	{"custom_feature_patch", "name"},
	{"learned_spell_patch", "spell_name"},
}

// summarizeActions renders stored actions as "op kind name" lines.
func summarizeActions(actions string) string {
	var parts []string
	gjson.Parse(actions).ForEach(func(_, a gjson.Result) bool {
		line := a.Get("operation").String()
		data := a.Get("data")
		for _, k := range variantNames {
			if p := data.Get(k.field); p.Exists() {
				line += " " + strings.TrimSuffix(k.field, "_patch")
				if name := p.Get(k.name); name.Exists() {
					line += " " + name.String()
				}
			}
		}
		if name := data.Get("name"); name.Exists() {
			line += " name=" + name.String()
		}
		if lvl := data.Get("level"); lvl.Exists() {
			line += " level=" + lvl.Raw
		}
		parts = append(parts, line)
		return true
	})
	return strings.Join(parts, "; ")
}
