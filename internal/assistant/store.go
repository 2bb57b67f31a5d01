package assistant

import (
	"context"
	"errors"

	"github.com/Marpuchy/dnd-manager-sub001/internal/patch"
	"github.com/Marpuchy/dnd-manager-sub001/internal/retrieval"
	"github.com/Marpuchy/dnd-manager-sub001/internal/sheet"
)

// ErrNotFound is returned by stores for missing rows.
var ErrNotFound = errors.New("not found")

// Store is the campaign data the assistant reads and writes. Every write is a
// single call carrying the full next version of one character.
type Store interface {
	GetCampaign(ctx context.Context, campaignID string) (*sheet.Campaign, error)
	ListCharacters(ctx context.Context, campaignID string) ([]sheet.Character, error)
	ListNotes(ctx context.Context, campaignID string) ([]sheet.Note, error)
	ListMembers(ctx context.Context, campaignID string) ([]sheet.Membership, error)
	CreateCharacter(ctx context.Context, c *sheet.Character) error
	SaveCharacter(ctx context.Context, c *sheet.Character) error
}

// CommunityExample is a prompt that produced applied changes, kept so future
// requests can retrieve it.
type CommunityExample struct {
	CampaignID string
	Prompt     string
	Actions    []patch.Action
	Provider   string
	Edited     bool
}

// CommunityStore keeps learned examples shared across campaigns.
type CommunityStore interface {
	CommunityExamples(ctx context.Context, limit int) ([]retrieval.Document, error)
	RecordExample(ctx context.Context, ex CommunityExample) error
}
