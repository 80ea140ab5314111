// Package executor maps operation requests from the completion service onto
// Sydia gateway calls and renders deterministic result text. The result
// string is the only memory of a call available to the final completion
// pass, so it must be self-contained; failures always start with ❌ and
// successes with ✅ so callers can tell them apart without parsing prose.
package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	catalogx "github.com/assurlab/sydia-agent/agent/catalog"
	contractx "github.com/assurlab/sydia-agent/agent/contract"
	sessionx "github.com/assurlab/sydia-agent/agent/session"
)

type handlerFunc func(ctx context.Context, sess *sessionx.Session, args map[string]any) string

type Executor struct {
	gw       contractx.Gateway
	bus      contractx.Notifier
	now      func() time.Time
	handlers map[string]handlerFunc
}

type Option func(*Executor)

// WithClock overrides the time source used for references and closure dates.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) {
		if now != nil {
			e.now = now
		}
	}
}

// identityGuarded lists the operations that mutate an existing claim and
// therefore require a prior successful identifier_assure on the session.
// This is enforced here, independent of whatever the completion service
// decides to request.
var identityGuarded = map[string]bool{
	catalogx.OpAddDocument:         true,
	catalogx.OpUpdateAssure:        true,
	catalogx.OpContactGestionnaire: true,
	catalogx.OpCloturerSinistre:    true,
	catalogx.OpGenerateDocument:    true,
	catalogx.OpPreparerMail:        true,
}

func New(gw contractx.Gateway, bus contractx.Notifier, opts ...Option) (*Executor, error) {
	if gw == nil {
		return nil, fmt.Errorf("%w: gateway is required", contractx.ErrValidation)
	}
	if bus == nil {
		return nil, fmt.Errorf("%w: notifier is required", contractx.ErrValidation)
	}

	e := &Executor{
		gw:  gw,
		bus: bus,
		now: time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}

	e.handlers = map[string]handlerFunc{
		catalogx.OpIdentifierAssure:    e.identifierAssure,
		catalogx.OpGetSinistre:         e.getSinistre,
		catalogx.OpListSinistres:       e.listSinistres,
		catalogx.OpAddSinistre:         e.addSinistre,
		catalogx.OpAddDocument:         e.addDocument,
		catalogx.OpListDocuments:       e.listDocuments,
		catalogx.OpGetDocument:         e.getDocument,
		catalogx.OpUpdateAssure:        e.updateAssure,
		catalogx.OpContactGestionnaire: e.contactGestionnaire,
		catalogx.OpCloturerSinistre:    e.cloturerSinistre,
		catalogx.OpVerifierChecklist:   e.verifierChecklist,
		catalogx.OpListReglements:      e.listReglements,
		catalogx.OpGenerateDocument:    e.generateDocument,
		catalogx.OpPreparerMail:        e.preparerMail,
		catalogx.OpCreerEvenement:      e.creerEvenement,
	}

	if err := e.validateAgainstCatalog(); err != nil {
		return nil, err
	}
	return e, nil
}

// validateAgainstCatalog checks the catalog/registry bijection at startup:
// every declared operation has a handler, and no handler is undeclared.
func (e *Executor) validateAgainstCatalog() error {
	declared := map[string]bool{}
	for _, name := range catalogx.Names() {
		declared[name] = true
		if _, ok := e.handlers[name]; !ok {
			return fmt.Errorf("%w: no handler for operation %q", contractx.ErrCatalogMismatch, name)
		}
	}
	for name := range e.handlers {
		if !declared[name] {
			return fmt.Errorf("%w: handler %q has no catalog entry", contractx.ErrCatalogMismatch, name)
		}
	}
	return nil
}

// Execute runs one operation and returns its result text. It never returns
// a Go error: remote failures, guard refusals and unknown operations all
// become ❌-prefixed result strings folded into the transcript.
func (e *Executor) Execute(ctx context.Context, sess *sessionx.Session, name string, args map[string]any) string {
	handler, ok := e.handlers[name]
	if !ok {
		return fmt.Sprintf("❌ Outil inconnu: %s", name)
	}

	if identityGuarded[name] && !sess.Identified() {
		log.Warn().Str("operation", name).Str("session_id", sess.ID).Msg("operation refused before identification")
		return "❌ Identification requise. Veuillez d'abord valider votre identité (référence du sinistre, nom et prénom)."
	}

	if args == nil {
		args = map[string]any{}
	}

	result := sanitize(handler(ctx, sess, args))
	log.Debug().
		Str("operation", name).
		Str("session_id", sess.ID).
		Bool("success", !strings.HasPrefix(result, "❌")).
		Msg("operation executed")
	return result
}

// notify emits exactly one refresh hint for a successful mutating call.
func (e *Executor) notify(action, endpoint string, data, fields map[string]any) {
	e.bus.PublishBlind(contractx.Event{
		Action:    action,
		Endpoint:  endpoint,
		Data:      data,
		Fields:    fields,
		Timestamp: e.now().UTC(),
	})
}
