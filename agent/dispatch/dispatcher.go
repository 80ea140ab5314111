// Package dispatch runs the two-pass conversation cycle: a planning pass
// where the completion service may request operations, sequential execution
// of those operations, then a tool-free finalizing pass that folds the
// result text into a user-facing reply.
package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"

	catalogx "github.com/assurlab/sydia-agent/agent/catalog"
	contractx "github.com/assurlab/sydia-agent/agent/contract"
	executorx "github.com/assurlab/sydia-agent/agent/executor"
	sessionx "github.com/assurlab/sydia-agent/agent/session"
)

const defaultSessionID = "default"

type GraphInput struct {
	SessionID string
	Text      string
}

type GraphOutput struct {
	Reply string
}

type Dispatcher struct {
	store     *sessionx.Store
	exec      *executorx.Executor
	baseModel model.BaseChatModel
	toolModel model.ToolCallingChatModel

	graphRunner compose.Runnable[GraphInput, GraphOutput]
}

func New(
	ctx context.Context,
	store *sessionx.Store,
	exec *executorx.Executor,
	chatModel model.ToolCallingChatModel,
) (*Dispatcher, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: session store is required", contractx.ErrValidation)
	}
	if exec == nil {
		return nil, fmt.Errorf("%w: executor is required", contractx.ErrValidation)
	}
	if chatModel == nil {
		return nil, fmt.Errorf("%w: chat model is required", contractx.ErrValidation)
	}

	toolModel, err := chatModel.WithTools(catalogx.Descriptors())
	if err != nil {
		return nil, fmt.Errorf("%w: bind operation catalog: %v", contractx.ErrModelInvoke, err)
	}

	d := &Dispatcher{
		store:     store,
		exec:      exec,
		baseModel: chatModel,
		toolModel: toolModel,
	}

	graphRunner, err := d.compileHandleMessageGraph(ctx)
	if err != nil {
		return nil, err
	}
	d.graphRunner = graphRunner

	return d, nil
}

// HandleMessage runs one conversation cycle and returns the assistant reply.
func (d *Dispatcher) HandleMessage(ctx context.Context, sessionID string, text string) (string, error) {
	out, err := d.graphRunner.Invoke(ctx, GraphInput{
		SessionID: sessionID,
		Text:      text,
	})
	if err != nil {
		return "", err
	}
	return out.Reply, nil
}

func normalizeSessionID(id string) string {
	if trimmed := strings.TrimSpace(id); trimmed != "" {
		return trimmed
	}
	return defaultSessionID
}
