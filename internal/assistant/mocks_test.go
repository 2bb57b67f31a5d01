package assistant

import (
	"context"
	"errors"
	"sync"

	"github.com/Marpuchy/dnd-manager-sub001/internal/perception"
	"github.com/Marpuchy/dnd-manager-sub001/internal/retrieval"
	"github.com/Marpuchy/dnd-manager-sub001/internal/sheet"
)

type fakeStore struct {
	mu         sync.Mutex
	campaign   *sheet.Campaign
	characters []sheet.Character
	notes      []sheet.Note
	members    []sheet.Membership

	created   []*sheet.Character
	saved     []*sheet.Character
	failSaves int // number of upcoming saves that fail
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		campaign: &sheet.Campaign{ID: "camp", Name: "La Marca del Este", OwnerID: "dm"},
		characters: []sheet.Character{
			{ID: "c1", CampaignID: "camp", OwnerID: "u1", Name: "Kaelden", Class: "Wizard", Level: 4, MaxHP: 20, CurrentHP: 20},
			{ID: "c2", CampaignID: "camp", OwnerID: "u2", Name: "Mira", Class: "Rogue", Level: 2, MaxHP: 12, CurrentHP: 12},
		},
		notes: []sheet.Note{
			{ID: "n1", CampaignID: "camp", AuthorID: "dm", Title: "Secreto", Body: "Mira es la heredera", Private: true},
			{ID: "n2", CampaignID: "camp", AuthorID: "u1", Title: "Diario", Body: "Kaelden perdió su bastón"},
		},
		members: []sheet.Membership{
			{CampaignID: "camp", UserID: "u1", Role: sheet.RolePlayer},
			{CampaignID: "camp", UserID: "u2", Role: sheet.RolePlayer},
		},
	}
}

func (s *fakeStore) GetCampaign(_ context.Context, id string) (*sheet.Campaign, error) {
	if s.campaign == nil || s.campaign.ID != id {
		return nil, ErrNotFound
	}
	return s.campaign, nil
}

func (s *fakeStore) ListCharacters(context.Context, string) ([]sheet.Character, error) {
	out := make([]sheet.Character, len(s.characters))
	for i := range s.characters {
		out[i] = *s.characters[i].Clone()
	}
	return out, nil
}

func (s *fakeStore) ListNotes(context.Context, string) ([]sheet.Note, error) { return s.notes, nil }

func (s *fakeStore) ListMembers(context.Context, string) ([]sheet.Membership, error) {
	return s.members, nil
}

func (s *fakeStore) CreateCharacter(_ context.Context, c *sheet.Character) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, c)
	return nil
}

func (s *fakeStore) SaveCharacter(_ context.Context, c *sheet.Character) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSaves > 0 {
		s.failSaves--
		return errors.New("disk full")
	}
	s.saved = append(s.saved, c)
	return nil
}

func (s *fakeStore) writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.created) + len(s.saved)
}

type fakeCommunity struct {
	docs     []retrieval.Document
	recorded []CommunityExample
}

func (c *fakeCommunity) CommunityExamples(context.Context, int) ([]retrieval.Document, error) {
	return c.docs, nil
}

func (c *fakeCommunity) RecordExample(_ context.Context, ex CommunityExample) error {
	c.recorded = append(c.recorded, ex)
	return nil
}

// fakePlanner returns a fixed plan or error and records the last request.
type fakePlanner struct {
	provider string
	reply    string
	actions  []any
	err      error
	calls    int
	last     perception.Request
}

func (p *fakePlanner) Run(_ context.Context, req perception.Request) (*perception.Result, error) {
	p.calls++
	p.last = req
	if p.err != nil {
		return nil, p.err
	}
	return &perception.Result{
		Provider: p.provider,
		Plan:     &perception.RawPlan{Reply: p.reply, Actions: p.actions},
		Attempts: 1,
	}, nil
}

func action(op, characterID string, data map[string]any) map[string]any {
	a := map[string]any{"operation": op, "data": data}
	if characterID != "" {
		a["characterId"] = characterID
	}
	return a
}
