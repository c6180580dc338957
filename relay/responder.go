// Package relay implements the conversation turn orchestrator: it validates
// inbound turns, short-circuits trivial ones, and drives the session store
// and the completion client for everything else.
package relay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"evidenze-chat/chat"
	"evidenze-chat/completion"
	"evidenze-chat/config"
	"evidenze-chat/eventbus"
	"evidenze-chat/events"
	"evidenze-chat/internal/logger"
	"evidenze-chat/internal/trace"
	"evidenze-chat/session"
)

// FallbackUserName replaces a missing display name, both in canned replies
// and in the formatted user turn.
const FallbackUserName = "Usuario"

// Turn is the minimal inbound payload: who said what in which conversation.
type Turn struct {
	SessionID string
	UserName  string
	Text      string

	// OnDispatch, when set, runs after validation and the short-circuit
	// checks, immediately before the completion call. Transports use it to
	// send a processing acknowledgment only for turns that reach the model.
	OnDispatch func()
}

// Reply is the outcome of a turn. Failed turns still carry a user-safe text.
type Reply struct {
	Text         string
	ShortCircuit bool
	Failed       bool
}

// Options wires a Responder. Store, Client and Bus are required.
type Options struct {
	Store           session.Store
	Client          completion.Client
	Bus             eventbus.EventBus
	Params          completion.Params
	Phrases         config.PhrasesConfig
	Timeout         time.Duration
	IncludeUserName bool
	Model           string
	Topic           string
	Source          string
}

// Responder is the turn state machine. One instance serves all sessions;
// per-session ordering comes from the session turn lock.
type Responder struct {
	store           session.Store
	client          completion.Client
	bus             eventbus.EventBus
	params          completion.Params
	phrases         config.PhrasesConfig
	timeout         time.Duration
	includeUserName bool
	model           string
	topic           string
	source          string
}

func NewResponder(opts Options) *Responder {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	source := opts.Source
	if source == "" {
		source = "evidenze-chat"
	}
	return &Responder{
		store:           opts.Store,
		client:          opts.Client,
		bus:             opts.Bus,
		params:          opts.Params,
		phrases:         opts.Phrases,
		timeout:         timeout,
		includeUserName: opts.IncludeUserName,
		model:           opts.Model,
		topic:           opts.Topic,
		source:          source,
	}
}

// Respond processes one turn. The returned error is a boundary rejection
// (empty message, broken history invariant) for the transport to map to a
// 4xx; remote failures never surface as errors, they become the canned
// apology with Failed set.
func (r *Responder) Respond(ctx context.Context, turn Turn) (Reply, error) {
	text := strings.TrimSpace(turn.Text)
	if text == "" {
		return Reply{}, chat.ErrEmptyMessage
	}

	userName := strings.TrimSpace(turn.UserName)
	if userName == "" {
		userName = FallbackUserName
	}

	// Trivial turns are answered locally and deliberately left out of the
	// history so they never dilute the model context.
	lowered := strings.ToLower(text)
	if containsPhrase(r.phrases.Greetings, lowered) {
		return Reply{Text: fmt.Sprintf(r.phrases.GreetingReply, userName), ShortCircuit: true}, nil
	}
	if containsPhrase(r.phrases.HelpKeywords, lowered) {
		return Reply{Text: r.phrases.HelpReply, ShortCircuit: true}, nil
	}

	sess := r.store.GetOrCreate(turn.SessionID)
	release := sess.AcquireTurn()
	defer release()

	content := text
	if r.includeUserName {
		content = fmt.Sprintf("Usuario: %s\nConsulta: %s", userName, text)
	}
	if err := sess.Append(chat.UserMessage(content)); err != nil {
		return Reply{}, err
	}

	history := sess.Snapshot()
	if err := chat.ValidateHistory(history); err != nil {
		return Reply{}, err
	}

	if turn.OnDispatch != nil {
		turn.OnDispatch()
	}

	cctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	result, err := r.client.Complete(cctx, history, r.params)
	elapsed := time.Since(start)

	if err != nil {
		kind := completion.KindUnknown
		var cerr *completion.Error
		if errors.As(err, &cerr) {
			kind = cerr.Kind
		}
		logger.ErrorWithFields("turn failed", logger.Fields{
			"session_id": sess.ID(),
			"request_id": trace.RequestIDFromContext(ctx),
			"kind":       string(kind),
			"error":      err.Error(),
		})
		// failed turns leave no assistant entry behind
		r.publishTurn(ctx, sess.ID(), string(kind), completion.Usage{}, elapsed)
		return Reply{Text: r.phrases.Apology, Failed: true}, nil
	}

	if err := sess.Append(chat.AssistantMessage(result.Text)); err != nil {
		return Reply{}, err
	}

	r.publishTurn(ctx, sess.ID(), "ok", result.Usage, elapsed)
	return Reply{Text: result.Text}, nil
}

// EndSession drops the session when the channel reports the conversation is
// over. Stores without removal semantics keep it until process exit.
func (r *Responder) EndSession(id string) {
	type remover interface{ Remove(id string) }
	if store, ok := r.store.(remover); ok {
		store.Remove(id)
	}
}

// ResetSession truncates the session back to its seed message. Idempotent.
func (r *Responder) ResetSession(id string) {
	sess := r.store.GetOrCreate(id)
	release := sess.AcquireTurn()
	defer release()
	sess.Reset()
}

// Welcome builds the greeting for a newly joined member. The bot's own
// account is excluded from the greeted set.
func (r *Responder) Welcome(memberName, memberID, recipientID string) (string, bool) {
	if memberID == "" || memberID == recipientID {
		return "", false
	}
	name := strings.TrimSpace(memberName)
	if name == "" {
		name = FallbackUserName
	}
	return fmt.Sprintf(r.phrases.Welcome, name), true
}

func (r *Responder) publishTurn(ctx context.Context, sessionID, status string, usage completion.Usage, elapsed time.Duration) {
	evt := events.ChatTurnCompletedEvent{
		BaseEvent:        events.NewBase(events.ChatTurnCompleted, r.source),
		SessionID:        sessionID,
		Status:           status,
		Model:            r.model,
		DurationMs:       elapsed.Milliseconds(),
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		TotalTokens:      usage.TotalTokens,
	}
	payload, _, err := events.SerializeEvent(evt)
	if err != nil {
		logger.Log.Errorf("serializing turn event: %v", err)
		return
	}
	if err := r.bus.Publish(ctx, r.topic, eventbus.Event{ID: evt.ID, Payload: payload}); err != nil {
		logger.Log.Errorf("publishing turn event: %v", err)
	}
}

func containsPhrase(set []string, text string) bool {
	for _, phrase := range set {
		if text == strings.ToLower(phrase) {
			return true
		}
	}
	return false
}
