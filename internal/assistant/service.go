package assistant

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Marpuchy/dnd-manager-sub001/internal/heuristic"
	"github.com/Marpuchy/dnd-manager-sub001/internal/intent"
	"github.com/Marpuchy/dnd-manager-sub001/internal/logging"
	"github.com/Marpuchy/dnd-manager-sub001/internal/patch"
	"github.com/Marpuchy/dnd-manager-sub001/internal/perception"
	"github.com/Marpuchy/dnd-manager-sub001/internal/retrieval"
	"github.com/Marpuchy/dnd-manager-sub001/internal/sheet"
	"github.com/Marpuchy/dnd-manager-sub001/internal/textmatch"
	"github.com/Marpuchy/dnd-manager-sub001/internal/training"
)

// Planner turns a model request into a raw plan. *perception.Orchestrator
// implements it.
type Planner interface {
	Run(ctx context.Context, req perception.Request) (*perception.Result, error)
}

// ExampleSource supplies community example documents, e.g. a
// retrieval.ExampleDir.
type ExampleSource interface {
	Documents() []retrieval.Document
}

// ServiceConfig holds controller settings.
type ServiceConfig struct {
	// CommunityLearning records applied prompts and retrieves past ones.
	CommunityLearning bool
	// CommunityLimit bounds the examples read per request.
	CommunityLimit int
}

// DefaultServiceConfig returns the default controller settings.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{CommunityLearning: true, CommunityLimit: 20}
}

// Service handles assistant requests. It holds no per-request state; the
// sandbox signature cache is the only mutable part and guards itself.
type Service struct {
	store     Store
	community CommunityStore
	planner   Planner
	examples  ExampleSource

	parser    *heuristic.Parser
	engine    *sheet.Engine
	retriever *retrieval.Retriever
	sandbox   *training.Sandbox
	matcher   textmatch.Matcher

	config ServiceConfig
}

// Option configures a Service.
type Option func(*Service)

// WithPlanner sets the model planner. Without one only heuristic plans are
// possible.
func WithPlanner(p Planner) Option { return func(s *Service) { s.planner = p } }

// WithCommunity enables reading and recording community examples.
func WithCommunity(c CommunityStore) Option { return func(s *Service) { s.community = c } }

// WithExamples adds a static example source to retrieval.
func WithExamples(e ExampleSource) Option { return func(s *Service) { s.examples = e } }

// WithEngine replaces the patch engine.
func WithEngine(e *sheet.Engine) Option { return func(s *Service) { s.engine = e } }

// WithRetriever replaces the retriever.
func WithRetriever(r *retrieval.Retriever) Option { return func(s *Service) { s.retriever = r } }

// WithSandbox replaces the training sandbox.
func WithSandbox(sb *training.Sandbox) Option { return func(s *Service) { s.sandbox = sb } }

// WithConfig replaces the controller settings.
func WithConfig(cfg ServiceConfig) Option { return func(s *Service) { s.config = cfg } }

// NewService creates a service over store.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:     store,
		parser:    heuristic.NewParser(),
		engine:    sheet.NewEngine(),
		retriever: retrieval.NewRetriever(nil),
		matcher:   textmatch.Loose,
		config:    DefaultServiceConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sandbox == nil {
		s.sandbox = training.NewSandbox(training.NewSignatureCache(0), s.parser, s.engine, training.DefaultSandboxConfig())
	}
	return s
}

// snapshot is the campaign state read at the start of a request.
type snapshot struct {
	campaign   *sheet.Campaign
	characters []sheet.Character
	notes      []sheet.Note
	members    []sheet.Membership
	community  []retrieval.Document
}

// turn carries one request through the pipeline.
type turn struct {
	*Service
	req    *Request
	snap   *snapshot
	access *access
	resp   *Response
	audit  *logging.AuditLogger
}

// Handle answers one request.
//
// The pipeline:
//  1. Read campaign, characters, notes and members concurrently
//  2. Resolve permissions
//  3. Confirm path: sanitize and apply previously proposed actions
//  4. Resolve the target character
//  5. Classify intent; answer capability questions directly
//  6. Training: coach or sandbox, never writes
//  7. Plan: strong heuristic plan, else the model with heuristic fallback
//  8. Sanitize, then apply or dry-run
func (s *Service) Handle(ctx context.Context, req Request) (*Response, error) {
	if err := validatePrompt(&req); err != nil {
		return nil, err
	}
	if req.CampaignID == "" || req.UserID == "" {
		return nil, ErrMissingContext
	}
	requestID := uuid.NewString()
	timer := logging.StartTimer(logging.CategoryAssistant, "handle "+requestID)
	defer timer.Stop()

	snap, err := s.load(ctx, req.CampaignID)
	if err != nil {
		return nil, err
	}
	acc, err := newAccess(req.UserID, snap.campaign, snap.members)
	if err != nil {
		return nil, err
	}

	t := &turn{
		Service: s,
		req:     &req,
		snap:    snap,
		access:  acc,
		resp:    newResponse(acc.permissions()),
		audit:   logging.AuditWithRequest(requestID),
	}

	if len(req.ProposedActions) > 0 {
		return t.confirm(ctx), nil
	}

	target := s.resolveTarget(&req, snap.characters)
	t.resp.Intent = intent.Classify(req.Prompt, target != nil)
	logging.AssistantDebug("request %s: intent=%s target=%v", requestID, t.resp.Intent, target != nil)

	if t.resp.Intent == intent.Capabilities {
		t.resp.Reply = capabilitiesReply(acc.role)
		return t.resp, nil
	}
	if req.Mode == ModeTraining {
		return t.train(target), nil
	}

	raw, reply, err := t.plan(ctx, target)
	if err != nil {
		return nil, err
	}
	actions := sanitizeActions(raw, targetID(target))
	t.resp.ProposedActions = actions
	t.resp.Reply = reply

	t.execute(ctx, actions, req.ShouldApply())
	if t.resp.Reply == "" {
		t.resp.Reply = summarize(t.resp)
	}
	t.learn(ctx, actions)
	return t.resp, nil
}

func validatePrompt(req *Request) error {
	req.Prompt = strings.TrimSpace(req.Prompt)
	if utf8.RuneCountInString(req.Prompt) > MaxPromptRunes {
		return fmt.Errorf("%w: %d runes, max %d", ErrPromptTooLong, utf8.RuneCountInString(req.Prompt), MaxPromptRunes)
	}
	if req.Prompt == "" && len(req.ProposedActions) == 0 {
		return ErrEmptyPrompt
	}
	return nil
}

// load fetches the campaign state. The reads are independent and run
// concurrently; each writes its own field of the snapshot.
func (s *Service) load(ctx context.Context, campaignID string) (*snapshot, error) {
	snap := &snapshot{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		c, err := s.store.GetCampaign(gctx, campaignID)
		if err != nil {
			return fmt.Errorf("load campaign %s: %w", campaignID, err)
		}
		snap.campaign = c
		return nil
	})
	g.Go(func() error {
		chars, err := s.store.ListCharacters(gctx, campaignID)
		if err != nil {
			return fmt.Errorf("load characters: %w", err)
		}
		snap.characters = chars
		return nil
	})
	g.Go(func() error {
		notes, err := s.store.ListNotes(gctx, campaignID)
		if err != nil {
			return fmt.Errorf("load notes: %w", err)
		}
		snap.notes = notes
		return nil
	})
	g.Go(func() error {
		members, err := s.store.ListMembers(gctx, campaignID)
		if err != nil {
			return fmt.Errorf("load members: %w", err)
		}
		snap.members = members
		return nil
	})
	if s.community != nil && s.config.CommunityLearning {
		g.Go(func() error {
			docs, err := s.community.CommunityExamples(gctx, s.config.CommunityLimit)
			if err != nil {
				// Community examples only improve ranking.
				logging.AssistantWarn("community examples unavailable: %v", err)
				return nil
			}
			snap.community = docs
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

// resolveTarget returns the explicit target (or the client's selection) when
// it belongs to the campaign, otherwise the character named in the prompt.
func (s *Service) resolveTarget(req *Request, chars []sheet.Character) *sheet.Character {
	id := req.TargetCharacterID
	if id == "" && req.ClientContext != nil {
		id = req.ClientContext.SelectedCharacter
	}
	if id != "" {
		for i := range chars {
			if chars[i].ID == id {
				return &chars[i]
			}
		}
		logging.AssistantWarn("target character %s is not in the campaign", id)
	}

	names := make([]string, len(chars))
	for i := range chars {
		names[i] = chars[i].Name
	}
	if m, ok := s.matcher.FindBestMatch(req.Prompt, names); ok {
		return &chars[m.Index]
	}
	return nil
}

func targetID(c *sheet.Character) string {
	if c == nil {
		return ""
	}
	return c.ID
}

// plan returns the raw actions and reply for a normal-mode turn.
func (t *turn) plan(ctx context.Context, target *sheet.Character) (any, string, error) {
	hp := t.parser.Plan(t.req.Prompt, target)
	if hp.Strong {
		logging.AssistantDebug("strong heuristic plan with %d action(s)", len(hp.Actions))
		t.resp.Provider = ProviderHeuristic
		return patch.ToRaw(hp.Actions), hp.Reply, nil
	}

	t.resp.RAG = t.rank(target)
	result, err := t.callModel(ctx, target)
	switch {
	case err == nil:
		t.resp.Provider = result.Provider
		if len(result.Plan.Actions) == 0 && t.resp.Intent == intent.Mutation && len(hp.Actions) > 0 {
			logging.AssistantDebug("%s proposed nothing, keeping heuristic actions", result.Provider)
			return patch.ToRaw(hp.Actions), firstNonEmpty(result.Plan.Reply, hp.Reply), nil
		}
		return result.Plan.Actions, result.Plan.Reply, nil
	case t.resp.Intent == intent.Mutation && len(hp.Actions) > 0:
		logging.AssistantWarn("model planning failed, using heuristic plan: %v", err)
		t.resp.Provider = ProviderHeuristic
		return patch.ToRaw(hp.Actions), hp.Reply, nil
	default:
		return nil, "", fmt.Errorf("plan request: %w", err)
	}
}

func (t *turn) rank(target *sheet.Character) []retrieval.Snippet {
	community := t.snap.community
	if t.examples != nil {
		community = append(append([]retrieval.Document{}, community...), t.examples.Documents()...)
	}
	docs := retrieval.BuildCorpus(retrieval.CorpusInput{
		Campaign:   t.snap.campaign,
		Characters: t.editableCharacters(),
		Notes:      t.access.visibleNotes(t.snap.notes),
		Community:  community,
		TargetID:   targetID(target),
	})
	return t.retriever.Rank(t.req.Prompt, targetID(target), docs)
}

// editableCharacters is the part of the campaign the caller may see in
// model context.
func (t *turn) editableCharacters() []sheet.Character {
	out := make([]sheet.Character, 0, len(t.snap.characters))
	for i := range t.snap.characters {
		if t.access.canEdit(&t.snap.characters[i]) {
			out = append(out, t.snap.characters[i])
		}
	}
	return out
}

func (t *turn) callModel(ctx context.Context, target *sheet.Character) (*perception.Result, error) {
	if t.planner == nil {
		return nil, perception.ErrNoProviders
	}
	in := perception.PayloadInput{
		Prompt:       t.req.Prompt,
		Target:       target,
		Snippets:     t.resp.RAG,
		Role:         string(t.access.role),
		CanManageAll: t.access.role.Elevated(),
	}
	for _, c := range t.editableCharacters() {
		in.Characters = append(in.Characters, perception.CharacterRef{ID: c.ID, Name: c.Name})
	}
	if t.req.ClientContext != nil {
		in.ClientContext = t.req.ClientContext
	}
	user, err := perception.BuildPayload(in)
	if err != nil {
		return nil, fmt.Errorf("build payload: %w", err)
	}
	return t.planner.Run(ctx, perception.Request{System: perception.SystemPrompt, User: user})
}

// confirm applies a plan the client previewed earlier, possibly edited.
func (t *turn) confirm(ctx context.Context) *Response {
	actions := sanitizeActions(t.req.ProposedActions, t.req.TargetCharacterID)
	t.resp.Intent = intent.Mutation
	t.resp.Provider = ProviderConfirm
	t.resp.ProposedActions = actions
	if t.req.UserEditedProposal {
		original := sanitizeActions(t.req.OriginalProposedActions, t.req.TargetCharacterID)
		logging.AssistantDebug("confirming edited proposal: %d action(s), originally %d", len(actions), len(original))
	}

	t.execute(ctx, actions, t.req.ShouldApply())
	t.resp.Reply = summarize(t.resp)
	if t.req.Prompt != "" {
		t.learn(ctx, actions)
	}
	return t.resp
}

// learn records an applied turn as a community example.
func (t *turn) learn(ctx context.Context, actions []patch.Action) {
	if !t.config.CommunityLearning || t.community == nil || !t.resp.Applied {
		return
	}
	var applied []patch.Action
	for i, r := range t.resp.Results {
		if r.Status == StatusApplied && i < len(actions) {
			applied = append(applied, actions[i])
		}
	}
	err := t.community.RecordExample(ctx, CommunityExample{
		CampaignID: t.req.CampaignID,
		Prompt:     t.req.Prompt,
		Actions:    applied,
		Provider:   t.resp.Provider,
		Edited:     t.req.UserEditedProposal,
	})
	if err != nil {
		logging.AssistantWarn("record community example: %v", err)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
