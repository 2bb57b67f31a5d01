// Package training implements the assistant's practice modes: prompt coaching
// and a sandbox that synthesizes fictional items and previews changes without
// ever persisting them.
package training

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/Marpuchy/dnd-manager-sub001/internal/heuristic"
	"github.com/Marpuchy/dnd-manager-sub001/internal/logging"
	"github.com/Marpuchy/dnd-manager-sub001/internal/patch"
	"github.com/Marpuchy/dnd-manager-sub001/internal/sheet"
	"github.com/Marpuchy/dnd-manager-sub001/internal/textmatch"
)

// SandboxConfig holds sandbox settings.
type SandboxConfig struct {
	// MaxAttempts bounds regeneration when the draft repeats the session's
	// previous one.
	MaxAttempts int
	// Seed makes generation reproducible. Zero seeds from the clock.
	Seed uint64
}

// DefaultSandboxConfig returns the default sandbox settings.
func DefaultSandboxConfig() SandboxConfig {
	return SandboxConfig{MaxAttempts: 42}
}

// Sandbox generates practice drafts and dry-run previews.
type Sandbox struct {
	cache       *SignatureCache
	parser      *heuristic.Parser
	engine      *sheet.Engine
	maxAttempts int

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSandbox creates a sandbox. A nil cache gets a default-sized one.
func NewSandbox(cache *SignatureCache, parser *heuristic.Parser, engine *sheet.Engine, cfg SandboxConfig) *Sandbox {
	if cache == nil {
		cache = NewSignatureCache(0)
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultSandboxConfig().MaxAttempts
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Sandbox{
		cache:       cache,
		parser:      parser,
		engine:      engine,
		maxAttempts: cfg.MaxAttempts,
		rng:         rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Draft is a generated item proposed as an editable, unapplied action.
type Draft struct {
	Name     string
	Action   patch.Action
	Reply    string
	Attempts int
}

// Generate synthesizes a new item for session. Consecutive drafts for the
// same session never share a name unless every attempt collided.
func (s *Sandbox) Generate(session string, target *sheet.Character) Draft {
	previous, hasPrevious := s.cache.Get(session)

	var (
		item     syntheticItem
		attempts int
	)
	s.mu.Lock()
	for attempts = 1; attempts <= s.maxAttempts; attempts++ {
		item = synthesize(s.rng)
		if !hasPrevious || signature(item.name) != previous {
			break
		}
	}
	s.mu.Unlock()
	if attempts > s.maxAttempts {
		attempts = s.maxAttempts
		logging.TrainingDebug("sandbox: %d attempts exhausted for session %q", attempts, session)
	}
	s.cache.Set(session, signature(item.name))

	action := patch.Action{
		Operation: patch.OperationUpdate,
		Note:      "sandbox draft",
		Data:      patch.ActionData{ItemPatch: item.patch},
	}
	if target != nil {
		action.CharacterID = target.ID
	}
	return Draft{Name: item.name, Action: action, Reply: draftReply(item), Attempts: attempts}
}

func signature(name string) string { return textmatch.Normalize(name) }

func draftReply(item syntheticItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Reto de práctica: %s (%s, %s).\n", item.name, item.patch.Category, item.patch.Rarity)
	fmt.Fprintf(&b, "De %s, %s.\n", item.material, item.origin)
	for _, a := range item.patch.AttachmentsAdd {
		fmt.Fprintf(&b, "- %s [%s]\n", a.Name, a.Type)
	}
	b.WriteString("Es un borrador: edítalo y confírmalo fuera del modo entrenamiento para guardarlo.")
	return b.String()
}

// Simulation is the dry-run result of one action.
type Simulation struct {
	Action     patch.Action
	WouldApply bool
	Message    string
}

// Preview is what a prompt would do to a character. Nothing is persisted.
type Preview struct {
	Reply       string
	Actions     []patch.Action
	Simulations []Simulation
	// Result is the character after every simulated action, or nil when
	// there was no target.
	Result *sheet.Character
}

// Preview runs the heuristic parser and the engine against a copy of target.
func (s *Sandbox) Preview(prompt string, target *sheet.Character) Preview {
	plan := s.parser.Plan(prompt, target)
	out := Preview{Reply: plan.Reply, Actions: plan.Actions}
	if target == nil {
		return out
	}

	current := target.Clone()
	for _, action := range plan.Actions {
		sim := Simulation{Action: action}
		switch {
		case action.Operation == patch.OperationCreate:
			created := s.engine.NewCharacter(&action.Data)
			sim.WouldApply, sim.Message = true, fmt.Sprintf("would create %s", created.Name)
		case action.CharacterID != "" && action.CharacterID != target.ID:
			sim.Message = "preview only covers the selected character"
		default:
			next, outcome := s.engine.ApplyAction(current, &action.Data)
			sim.WouldApply, sim.Message = outcome.Applied, outcome.Message
			current = next
		}
		out.Simulations = append(out.Simulations, sim)
	}
	out.Result = current
	return out
}
