package perception

import (
	"encoding/json"
	"fmt"

	"github.com/Marpuchy/dnd-manager-sub001/internal/patch"
	"github.com/Marpuchy/dnd-manager-sub001/internal/retrieval"
	"github.com/Marpuchy/dnd-manager-sub001/internal/sheet"
)

// SystemPrompt is the fixed operating contract sent to every provider.
const SystemPrompt = `You are the character-sheet assistant of a tabletop role-playing campaign manager.
You turn the user's request into structured sheet mutations.

Reply with ONE JSON object and nothing else:
{"reply": string, "actions": Action[]}

Rules:
- At most 4 actions. Use an empty array when nothing should change.
- Action = {"operation": "create"|"update", "characterId": string, "note"?: string, "data": ActionData}.
- "update" requires the characterId of an existing character from context.characters.
- ActionData may set: name, class, race, level (1-20), experience, armor_class, speed, current_hp, max_hp,
  character_type, stats {str,dex,con,int,wis,cha: 1-30}, details_patch {free-text fields},
  and at most ONE of item_patch, learned_spell_patch, custom_spell_patch, custom_feature_patch.
- item_patch.target_item_name is required. Set create_if_missing for new items.
- Put every mechanical sub-block of an item (trait, ability, action, spell, cantrip) in attachments_add,
  never in the item description. Never repeat attachment text in the description.
- Keep prices out of names; put them in "price".
- Use configurations_replace for items with alternate modes.
- Never invent characters, items or spells the user did not mention.
- Write "reply" in the user's language.`

// reasoningContract lists the fixed extraction priorities.
var reasoningContract = []string{
	"1. Identify the target character from user_request, then context.target_character.",
	"2. Decide whether the request changes the sheet; if not, return no actions.",
	"3. Extract named sub-blocks (headings, 'Name:' lines) as separate attachments.",
	"4. Classify each sub-block: passive -> trait, focus/bonus -> ability, activation cost -> action, spell mechanics -> spell, level 0 -> cantrip.",
	"5. Copy explicit numbers (dice, DC, range, duration, charges) into structured fields.",
	"6. Keep the item description to flavor text only.",
}

// qualityGate is checked by the model before replying.
var qualityGate = []string{
	"The output is a single JSON object with keys reply and actions.",
	"There are at most 4 actions.",
	"Every update action has a characterId present in context.",
	"No attachment is duplicated by (type, name).",
	"No item name ends with a price.",
	"No description restates attachment content.",
}

// rulesAid is a compact reference the model can lean on.
var rulesAid = map[string]any{
	"abilities":         patch.AbilityKeys,
	"attachment_types":  []string{"action", "ability", "trait", "spell", "cantrip", "classFeature", "other"},
	"item_categories":   []string{"weapon", "armor", "shield", "potion", "scroll", "wand", "ring", "wondrous", "tool", "gear", "ammunition", "misc"},
	"rarities":          []string{"common", "uncommon", "rare", "very_rare", "legendary", "artifact"},
	"action_types":      []string{"action", "bonus_action", "reaction", "free", "minute", "hour", "special"},
	"spell_levels":      "0 (cantrip) to 9",
	"save_dc_types":     []string{"fixed", "spell"},
	"learned_spell_ops": []string{"learn", "forget"},
}

// CharacterRef identifies a character the user may act on.
type CharacterRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PayloadInput is the context bundle for one model call.
type PayloadInput struct {
	Prompt        string
	Target        *sheet.Character
	Characters    []CharacterRef
	Snippets      []retrieval.Snippet
	ClientContext any
	Role          string
	CanManageAll  bool
}

type payload struct {
	UserRequest       string         `json:"user_request"`
	Context           payloadContext `json:"context"`
	ReasoningContract []string       `json:"reasoning_contract"`
	RulesAid          map[string]any `json:"dnd_rules_aid"`
	QualityGate       []string       `json:"quality_gate"`
}

type payloadContext struct {
	TargetCharacter *sheet.Character    `json:"target_character,omitempty"`
	Characters      []CharacterRef      `json:"characters"`
	Retrieved       []retrieval.Snippet `json:"retrieved"`
	ClientContext   any                 `json:"client_context,omitempty"`
	Permissions     map[string]any      `json:"permissions"`
}

// BuildPayload renders the user message shared by all providers.
func BuildPayload(in PayloadInput) (string, error) {
	p := payload{
		UserRequest: in.Prompt,
		Context: payloadContext{
			TargetCharacter: in.Target,
			Characters:      in.Characters,
			Retrieved:       in.Snippets,
			ClientContext:   in.ClientContext,
			Permissions: map[string]any{
				"role":                   in.Role,
				"canManageAllCharacters": in.CanManageAll,
			},
		},
		ReasoningContract: reasoningContract,
		RulesAid:          rulesAid,
		QualityGate:       qualityGate,
	}
	if p.Context.Characters == nil {
		p.Context.Characters = []CharacterRef{}
	}
	if p.Context.Retrieved == nil {
		p.Context.Retrieved = []retrieval.Snippet{}
	}
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}
	return string(data), nil
}
