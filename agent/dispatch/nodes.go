package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/assurlab/sydia-agent/agent/contract"
	sessionx "github.com/assurlab/sydia-agent/agent/session"
)

// graphState carries one cycle through the graph. The session pointer is the
// live transcript; nodes append to it as the cycle progresses.
type graphState struct {
	sess     *sessionx.Session
	planned  *schema.Message
	requests []opRequest
	ranTools bool
	reply    string
}

type opRequest struct {
	id   string
	name string
	args map[string]any
}

func validateRequest(in GraphInput) (*graphState, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: message text is empty", contractx.ErrValidation)
	}
	return &graphState{}, nil
}

func (d *Dispatcher) loadSession(in GraphInput, st *graphState) *graphState {
	sess := d.store.GetOrCreate(normalizeSessionID(in.SessionID))
	sess.Append(schema.UserMessage(strings.TrimSpace(in.Text)))
	st.sess = sess
	return st
}

// plan runs the tool-bound completion pass. The batch is validated before
// the assistant turn is persisted: a rejected batch must leave the transcript
// exactly as it was, ending on the user turn, so later cycles on the same
// session never replay an assistant tool_calls turn with no results after it.
func (d *Dispatcher) plan(ctx context.Context, st *graphState) (*graphState, error) {
	msg, err := d.toolModel.Generate(ctx, st.sess.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("%w: planning pass: %v", contractx.ErrModelInvoke, err)
	}
	if msg == nil {
		return nil, fmt.Errorf("%w: empty planning response", contractx.ErrSchemaViolation)
	}

	requests, err := toOpRequests(msg.ToolCalls)
	if err != nil {
		return nil, err
	}

	st.sess.Append(msg)
	st.planned = msg
	st.requests = requests
	return st, nil
}

// executeTools runs the planned operations in request order and folds each
// result into the transcript keyed by its call id. A cycle with no requests
// short-circuits: the planned content is already the reply.
func (d *Dispatcher) executeTools(ctx context.Context, st *graphState) (*graphState, error) {
	if len(st.requests) == 0 {
		st.reply = strings.TrimSpace(st.planned.Content)
		return st, nil
	}

	for _, req := range st.requests {
		result := d.exec.Execute(ctx, st.sess, req.name, req.args)
		st.sess.Append(schema.ToolMessage(result, req.id))
		log.Debug().
			Str("session_id", st.sess.ID).
			Str("operation", req.name).
			Msg("operation result folded into transcript")
	}
	st.ranTools = true
	return st, nil
}

// finalize runs the tool-free completion pass over the extended transcript.
// It only fires when operations ran this cycle.
func (d *Dispatcher) finalize(ctx context.Context, st *graphState) (GraphOutput, error) {
	if !st.ranTools {
		return GraphOutput{Reply: st.reply}, nil
	}

	msg, err := d.baseModel.Generate(ctx, st.sess.Snapshot())
	if err != nil {
		return GraphOutput{}, fmt.Errorf("%w: finalizing pass: %v", contractx.ErrModelInvoke, err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return GraphOutput{}, fmt.Errorf("%w: empty finalizing response", contractx.ErrSchemaViolation)
	}

	st.sess.Append(msg)
	return GraphOutput{Reply: strings.TrimSpace(msg.Content)}, nil
}

// toOpRequests validates the planned calls before anything executes. A single
// malformed argument payload rejects the whole batch; partially executed
// cycles are harder to explain than a clean refusal.
func toOpRequests(calls []schema.ToolCall) ([]opRequest, error) {
	if len(calls) == 0 {
		return nil, nil
	}
	reqs := make([]opRequest, 0, len(calls))
	for _, call := range calls {
		name := strings.TrimSpace(call.Function.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: operation call name is empty", contractx.ErrSchemaViolation)
		}

		args := map[string]any{}
		rawArgs := strings.TrimSpace(call.Function.Arguments)
		if rawArgs != "" {
			if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
				return nil, fmt.Errorf("%w: invalid arguments for operation=%s: %v", contractx.ErrSchemaViolation, name, err)
			}
		}

		reqs = append(reqs, opRequest{
			id:   call.ID,
			name: name,
			args: args,
		})
	}
	return reqs, nil
}
