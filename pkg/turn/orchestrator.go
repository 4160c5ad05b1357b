// Package turn coordinates one conversational exchange: prompt
// construction, the single outbound model call, fragment extraction,
// fact-store mutation, and the fallback path when the model is
// unavailable. HandleTurn never fails; the relay always answers.
package turn

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/kringlelabs/kringle/pkg/errorsx"
	"github.com/kringlelabs/kringle/pkg/facts"
	"github.com/kringlelabs/kringle/pkg/fragments"
	"github.com/kringlelabs/kringle/pkg/llm"
	"github.com/kringlelabs/kringle/pkg/logging"
	"github.com/kringlelabs/kringle/pkg/metrics"
	"github.com/kringlelabs/kringle/pkg/persona"
	"github.com/kringlelabs/kringle/pkg/redact"
	"github.com/kringlelabs/kringle/pkg/resilience"
)

// Stage labels the orchestrator's per-turn state machine for logging.
type Stage string

const (
	StageBuildPrompt      Stage = "build_prompt"
	StageCallModel        Stage = "call_model"
	StageExtractAndRecord Stage = "extract_and_record"
	StageFallback         Stage = "fallback"
	StageRespond          Stage = "respond"
)

// Request is one inbound utterance. Input-only, not retained.
type Request struct {
	ChildID  string
	NameHint string
	// Utterance may be empty; the relay still answers rather than
	// rejecting the turn.
	Utterance string
	TraceID   string
}

// Result is the orchestrator's answer. Only Reply crosses the transport
// boundary; the remaining fields are observability, so a degraded turn
// is indistinguishable from a low-quality answer to the caller.
type Result struct {
	Reply        string
	Degraded     bool
	Reason       errorsx.ReasonCode
	GiftRecorded bool
	NameLearned  bool
	Faults       []fragments.Fault
}

// Orchestrator owns the fact store and drives a turn through
// build_prompt -> call_model -> {extract_and_record | fallback} ->
// respond. The model call is a single attempt; failure goes straight to
// the fallback path.
type Orchestrator struct {
	store    *facts.Store
	model    llm.ChatModel
	persona  persona.Persona
	log      *slog.Logger
	observer metrics.Observer
}

func NewOrchestrator(store *facts.Store, model llm.ChatModel, p persona.Persona, log *slog.Logger) *Orchestrator {
	if store == nil {
		store = facts.NewStore()
	}
	return &Orchestrator{
		store:    store,
		model:    model,
		persona:  p,
		log:      logging.NewComponentLogger(log, "turn"),
		observer: metrics.NoopObserver{},
	}
}

// SetObserver replaces the per-turn metrics sink. Call before serving;
// not synchronized against in-flight turns.
func (o *Orchestrator) SetObserver(obs metrics.Observer) {
	if obs == nil {
		obs = metrics.NoopObserver{}
	}
	o.observer = obs
}

// Store exposes the fact store to the composition root (transports read
// it for diagnostics; nothing else mutates it).
func (o *Orchestrator) Store() *facts.Store { return o.store }

// Persona returns the active persona.
func (o *Orchestrator) Persona() persona.Persona { return o.persona }

// HandleTurn runs one exchange. It never returns an error: every
// failure mode resolves to a reply string.
func (o *Orchestrator) HandleTurn(ctx context.Context, req Request) Result {
	started := time.Now()
	childID := facts.NormalizeChildID(req.ChildID)

	// Facts are read before the model call; no store lock is held
	// while the call is in flight.
	profile := o.store.Profile(childID)
	known := persona.Known{
		Name:     profile.Name,
		NameHint: req.NameHint,
		Gifts:    giftItems(o.store.Gifts(childID)),
	}
	prompt := o.persona.SystemPrompt(known)
	o.logStage(StageBuildPrompt, req,
		"known_name", known.Name != "",
		"known_gifts", len(known.Gifts),
		"utterance", redact.Text(req.Utterance))

	resp, err := o.model.Generate(ctx, llm.TurnContext(prompt, req.Utterance))
	if err != nil {
		result := o.fallback(req, childID, err)
		o.observe(req, result, time.Since(started))
		return result
	}

	result := o.extractAndRecord(req, childID, resp.Text)
	o.logStage(StageRespond, req, "degraded", result.Degraded, "gift_recorded", result.GiftRecorded, "name_learned", result.NameLearned)
	o.observe(req, result, time.Since(started))
	return result
}

func (o *Orchestrator) observe(req Request, result Result, latency time.Duration) {
	o.observer.RecordEvent(metrics.TurnEvent(req.TraceID, result.Degraded, result.GiftRecorded, result.NameLearned, latency))
}

func (o *Orchestrator) extractAndRecord(req Request, childID, rawReply string) Result {
	ext := fragments.Extract(rawReply)
	result := Result{Faults: ext.Faults}

	if ext.Gift != nil {
		o.store.AppendGift(childID, ext.Gift.Item, ext.Gift.Details)
		result.GiftRecorded = true
	}
	if ext.Name != nil && o.persona.LearnsNames {
		o.store.SetName(childID, ext.Name.Name)
		result.NameLearned = true
	}
	for _, fault := range ext.Faults {
		o.logStage(StageExtractAndRecord, req, "fault_key", fault.Key, "error", fault.Err.Error(),
			"reason", string(errorsx.ReasonFragmentParse))
	}

	result.Reply = ext.Cleaned
	if strings.TrimSpace(result.Reply) == "" {
		result.Reply = o.persona.Greeting
	}
	return result
}

// fallback answers locally when the model call fails: a deterministic
// reply embedding the utterance verbatim, plus a heuristic scan of the
// raw utterance so an obvious wish is still recorded.
func (o *Orchestrator) fallback(req Request, childID string, cause error) Result {
	reason := errorsx.Reason(errorsx.Wrap(cause, errorsx.ReasonModelGenerate))
	if resilience.IsRateLimit(cause) {
		reason = errorsx.ReasonModelRateLimit
	}
	o.logStage(StageFallback, req, "reason", string(reason), "error", cause.Error())

	result := Result{
		Reply:    o.persona.FallbackReply(req.Utterance),
		Degraded: true,
		Reason:   reason,
	}
	if item, ok := HeuristicGift(req.Utterance); ok {
		o.store.AppendGift(childID, item, nil)
		result.GiftRecorded = true
	}
	return result
}

func (o *Orchestrator) logStage(stage Stage, req Request, args ...any) {
	fields := append([]any{
		"stage", string(stage),
		"child_id", facts.NormalizeChildID(req.ChildID),
		"trace_id", req.TraceID,
	}, args...)
	o.log.Debug("turn", fields...)
}

func giftItems(gifts []facts.Gift) []string {
	if len(gifts) == 0 {
		return nil
	}
	items := make([]string, 0, len(gifts))
	for _, g := range gifts {
		items = append(items, g.Item)
	}
	return items
}
