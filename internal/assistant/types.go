// Package assistant is the request boundary of the character-sheet assistant.
// A Service turns one prompt into a reply plus a bounded list of validated
// mutations and, unless asked for a dry run, applies them through the store.
package assistant

import (
	"errors"

	"github.com/Marpuchy/dnd-manager-sub001/internal/intent"
	"github.com/Marpuchy/dnd-manager-sub001/internal/patch"
	"github.com/Marpuchy/dnd-manager-sub001/internal/retrieval"
	"github.com/Marpuchy/dnd-manager-sub001/internal/sheet"
)

// MaxPromptRunes bounds the prompt length.
const MaxPromptRunes = 12000

var (
	ErrEmptyPrompt    = errors.New("prompt is empty")
	ErrPromptTooLong  = errors.New("prompt is too long")
	ErrNotMember      = errors.New("user is not a member of the campaign")
	ErrMissingContext = errors.New("campaign and user are required")
)

// Mode selects the normal assistant or the practice flows.
type Mode string

const (
	ModeNormal   Mode = "normal"
	ModeTraining Mode = "training"
)

// TrainingSubmode selects the practice flow.
type TrainingSubmode string

const (
	SubmodeCoach   TrainingSubmode = "prompt_coach"
	SubmodeSandbox TrainingSubmode = "sandbox"
)

// ClientContext describes where in the UI the prompt was typed. It is passed
// through to the model untouched.
type ClientContext struct {
	Surface           string   `json:"surface,omitempty"`
	Locale            string   `json:"locale,omitempty"`
	Section           string   `json:"section,omitempty"`
	PanelMode         string   `json:"panelMode,omitempty"`
	ActiveTab         string   `json:"activeTab,omitempty"`
	SelectedCharacter string   `json:"selectedCharacter,omitempty"`
	AvailableActions  []string `json:"availableActions,omitempty"`
	Hints             []string `json:"hints,omitempty"`
}

// Request is one assistant turn. CampaignID, UserID and SessionID come from
// the auth boundary, not from the body.
type Request struct {
	CampaignID string `json:"-"`
	UserID     string `json:"-"`
	SessionID  string `json:"-"`

	Prompt            string          `json:"prompt"`
	TargetCharacterID string          `json:"targetCharacterId,omitempty"`
	Apply             *bool           `json:"apply,omitempty"`
	Mode              Mode            `json:"assistantMode,omitempty"`
	TrainingSubmode   TrainingSubmode `json:"trainingSubmode,omitempty"`
	ClientContext     *ClientContext  `json:"clientContext,omitempty"`

	// ProposedActions confirms a previously previewed plan. They are decoded
	// JSON and go through the sanitizer like model output.
	ProposedActions         []any `json:"proposedActions,omitempty"`
	OriginalProposedActions []any `json:"originalProposedActions,omitempty"`
	UserEditedProposal      bool  `json:"userEditedProposal,omitempty"`
}

// ShouldApply reports whether the request asks for mutations to be written.
// Training requests never are.
func (r *Request) ShouldApply() bool {
	if r.Mode == ModeTraining {
		return false
	}
	return r.Apply == nil || *r.Apply
}

// Status is the outcome class of one action.
type Status string

const (
	StatusApplied Status = "applied"
	StatusBlocked Status = "blocked"
	StatusSkipped Status = "skipped"
	StatusError   Status = "error"
)

// MutationResult reports what happened to one action.
type MutationResult struct {
	Operation   patch.Operation `json:"operation"`
	CharacterID string          `json:"characterId,omitempty"`
	Status      Status          `json:"status"`
	Message     string          `json:"message"`
}

// Permissions are the caller's rights in the campaign.
type Permissions struct {
	Role                   sheet.Role `json:"role"`
	CanManageAllCharacters bool       `json:"canManageAllCharacters"`
}

// Response is the assistant's answer to one Request.
type Response struct {
	Reply           string              `json:"reply"`
	ProposedActions []patch.Action      `json:"proposedActions"`
	Applied         bool                `json:"applied"`
	Provider        string              `json:"provider"`
	Intent          intent.Intent       `json:"intent"`
	RAG             []retrieval.Snippet `json:"rag"`
	Results         []MutationResult    `json:"results"`
	Permissions     Permissions         `json:"permissions"`
}

// Provider labels for plans that did not come from a model.
const (
	ProviderHeuristic = "heuristic"
	ProviderTraining  = "training"
	ProviderConfirm   = "confirm"
	ProviderNone      = "none"
)

func newResponse(perms Permissions) *Response {
	return &Response{
		ProposedActions: []patch.Action{},
		RAG:             []retrieval.Snippet{},
		Results:         []MutationResult{},
		Permissions:     perms,
		Provider:        ProviderNone,
	}
}

// sanitizeActions is patch.SanitizeActions that never returns nil, so
// responses always carry a JSON array.
func sanitizeActions(raw any, defaultTarget string) []patch.Action {
	if actions := patch.SanitizeActions(raw, defaultTarget); actions != nil {
		return actions
	}
	return []patch.Action{}
}
