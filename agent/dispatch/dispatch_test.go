package dispatch

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/assurlab/sydia-agent/agent/contract"
	executorx "github.com/assurlab/sydia-agent/agent/executor"
	sessionx "github.com/assurlab/sydia-agent/agent/session"
)

type modelCall struct {
	bound bool
	input []*schema.Message
}

type modelRecorder struct {
	mu        sync.Mutex
	responses []*schema.Message
	calls     []modelCall
	tools     []*schema.ToolInfo
}

type fakeModel struct {
	rec   *modelRecorder
	bound bool
}

func (f *fakeModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.rec.mu.Lock()
	defer f.rec.mu.Unlock()

	snapshot := make([]*schema.Message, len(input))
	copy(snapshot, input)
	f.rec.calls = append(f.rec.calls, modelCall{bound: f.bound, input: snapshot})

	if len(f.rec.responses) == 0 {
		return nil, errors.New("no scripted response left")
	}
	next := f.rec.responses[0]
	f.rec.responses = f.rec.responses[1:]
	return next, nil
}

func (f *fakeModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported in tests")
}

func (f *fakeModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	f.rec.mu.Lock()
	f.rec.tools = tools
	f.rec.mu.Unlock()
	return &fakeModel{rec: f.rec, bound: true}, nil
}

type stubGateway struct{}

func (stubGateway) GetSinistre(context.Context, int64, string) contractx.Result {
	return contractx.Result{Success: true, Data: map[string]any{
		"id":           float64(42),
		"ref_assureur": "MCP-1700000000",
		"statut":       float64(1),
		"assure":       map[string]any{"id": float64(7), "nom": "Dupont", "prenom": "Marie"},
	}}
}

func (stubGateway) ListSinistres(context.Context) contractx.Result {
	return contractx.Result{Success: true, List: []map[string]any{
		{"id": float64(42), "ref_assureur": "MCP-1700000000", "statut": float64(1), "type_sinistre": "AUTO"},
	}}
}

func (stubGateway) AddSinistre(context.Context, contractx.AddSinistreInput) contractx.Result {
	return contractx.Result{Success: true, Data: map[string]any{"id_sinistre": float64(42)}}
}

func (stubGateway) ListDocuments(context.Context, int64) contractx.Result {
	return contractx.Result{Success: true}
}

func (stubGateway) GetDocument(context.Context, int64) contractx.Result {
	return contractx.Result{Success: true, Data: map[string]any{"id_ged": float64(5)}}
}

func (stubGateway) AddDocument(context.Context, contractx.AddDocumentInput) contractx.Result {
	return contractx.Result{Success: true, Data: map[string]any{"id_ged": float64(5)}}
}

func (stubGateway) UpdateAssure(context.Context, int64, map[string]string) contractx.Result {
	return contractx.Result{Success: true, Data: map[string]any{"id_assure": float64(7)}}
}

func (stubGateway) ContactGestionnaire(context.Context, contractx.ContactInput) contractx.Result {
	return contractx.Result{Success: true, Data: map[string]any{"id_tache": float64(3)}}
}

func (stubGateway) CloturerSinistre(context.Context, contractx.ClotureInput) contractx.Result {
	return contractx.Result{Success: true, Data: map[string]any{"id_sinistre": float64(42)}}
}

func (stubGateway) ListReglements(context.Context, contractx.ReglementFilter) contractx.Result {
	return contractx.Result{Success: true}
}

func (stubGateway) GetChecklist(context.Context, int64) contractx.Result {
	return contractx.Result{Success: true}
}

func (stubGateway) GenerateDocument(context.Context, int64, int64) contractx.Result {
	return contractx.Result{Success: true, Data: map[string]any{"filename": "doc.pdf"}}
}

type stubNotifier struct{}

func (stubNotifier) PublishBlind(contractx.Event) {}

func newTestDispatcher(t *testing.T, responses ...*schema.Message) (*Dispatcher, *modelRecorder, *sessionx.Store) {
	t.Helper()

	store := sessionx.NewStore("policy", sessionx.Config{})
	t.Cleanup(store.Close)

	exec, err := executorx.New(stubGateway{}, stubNotifier{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec := &modelRecorder{responses: responses}
	d, err := New(context.Background(), store, exec, &fakeModel{rec: rec})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return d, rec, store
}

func assistantWithCalls(calls ...schema.ToolCall) *schema.Message {
	return &schema.Message{Role: schema.Assistant, ToolCalls: calls}
}

func TestHandleMessageWithoutToolCalls(t *testing.T) {
	t.Parallel()

	d, rec, store := newTestDispatcher(t,
		&schema.Message{Role: schema.Assistant, Content: "Bonjour, comment puis-je vous aider ?"},
	)

	reply, err := d.HandleMessage(context.Background(), "s1", "bonjour")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "Bonjour, comment puis-je vous aider ?" {
		t.Fatalf("unexpected reply: %s", reply)
	}

	if len(rec.calls) != 1 {
		t.Fatalf("expected a single completion call, got %d", len(rec.calls))
	}
	if !rec.calls[0].bound {
		t.Fatal("planning pass must use the tool-bound model")
	}

	turns := store.GetOrCreate("s1").Snapshot()
	if len(turns) != 3 {
		t.Fatalf("expected 3 turns (system, user, assistant), got %d", len(turns))
	}
}

func TestHandleMessageExecutesToolsInOrder(t *testing.T) {
	t.Parallel()

	d, rec, store := newTestDispatcher(t,
		assistantWithCalls(
			schema.ToolCall{ID: "call-1", Function: schema.FunctionCall{
				Name: "list_sinistres", Arguments: `{"limit": 5}`,
			}},
			schema.ToolCall{ID: "call-2", Function: schema.FunctionCall{
				Name: "get_sinistre", Arguments: `{"ref_sinistre": "MCP-1700000000"}`,
			}},
		),
		&schema.Message{Role: schema.Assistant, Content: "Voici l'état de vos dossiers."},
	)

	reply, err := d.HandleMessage(context.Background(), "s1", "où en sont mes dossiers ?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "Voici l'état de vos dossiers." {
		t.Fatalf("unexpected reply: %s", reply)
	}

	turns := store.GetOrCreate("s1").Snapshot()
	if len(turns) != 6 {
		t.Fatalf("expected 6 turns, got %d", len(turns))
	}
	if turns[2].Role != schema.Assistant || len(turns[2].ToolCalls) != 2 {
		t.Fatal("planned assistant turn must precede the results")
	}
	if turns[3].Role != schema.Tool || turns[3].ToolCallID != "call-1" {
		t.Fatalf("first result must correlate to call-1, got %s/%s", turns[3].Role, turns[3].ToolCallID)
	}
	if turns[4].Role != schema.Tool || turns[4].ToolCallID != "call-2" {
		t.Fatalf("second result must correlate to call-2, got %s/%s", turns[4].Role, turns[4].ToolCallID)
	}
	if turns[5].Role != schema.Assistant || turns[5].Content == "" {
		t.Fatal("final assistant turn missing")
	}

	if len(rec.calls) != 2 {
		t.Fatalf("expected two completion calls, got %d", len(rec.calls))
	}
	if rec.calls[1].bound {
		t.Fatal("finalizing pass must use the tool-free model")
	}
	if len(rec.calls[1].input) != 5 {
		t.Fatalf("finalizing pass must see the extended transcript, got %d turns", len(rec.calls[1].input))
	}
}

func TestHandleMessageRejectsMalformedArguments(t *testing.T) {
	t.Parallel()

	d, _, _ := newTestDispatcher(t,
		assistantWithCalls(schema.ToolCall{ID: "call-1", Function: schema.FunctionCall{
			Name: "get_sinistre", Arguments: `{"ref_sinistre":`,
		}}),
	)

	_, err := d.HandleMessage(context.Background(), "s1", "mon dossier")
	if err == nil {
		t.Fatal("expected error for malformed arguments")
	}
	if !errors.Is(err, contractx.ErrSchemaViolation) {
		t.Fatalf("expected schema violation, got: %v", err)
	}
}

func TestMalformedBatchLeavesTranscriptUsable(t *testing.T) {
	t.Parallel()

	d, _, store := newTestDispatcher(t,
		assistantWithCalls(schema.ToolCall{ID: "call-1", Function: schema.FunctionCall{
			Name: "get_sinistre", Arguments: `{"ref_sinistre":`,
		}}),
		&schema.Message{Role: schema.Assistant, Content: "Reprenons."},
	)

	if _, err := d.HandleMessage(context.Background(), "s1", "mon dossier"); err == nil {
		t.Fatal("expected error for malformed arguments")
	}

	// The rejected assistant turn must not be persisted: a tool_calls turn
	// with no tool results after it makes every later completion call fail.
	turns := store.GetOrCreate("s1").Snapshot()
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns (system, user) after rejection, got %d", len(turns))
	}
	if turns[1].Role != schema.User {
		t.Fatalf("transcript must end on the user turn, got %s", turns[1].Role)
	}
	for _, turn := range turns {
		if len(turn.ToolCalls) != 0 {
			t.Fatal("no tool_calls turn may survive a rejected batch")
		}
	}

	// The session stays usable for the next cycle.
	reply, err := d.HandleMessage(context.Background(), "s1", "réessayons")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "Reprenons." {
		t.Fatalf("unexpected reply: %s", reply)
	}
}

func TestHandleMessageRejectsEmptyText(t *testing.T) {
	t.Parallel()

	d, rec, _ := newTestDispatcher(t)

	_, err := d.HandleMessage(context.Background(), "s1", "   ")
	if err == nil {
		t.Fatal("expected error for empty message")
	}
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected validation error, got: %v", err)
	}
	if len(rec.calls) != 0 {
		t.Fatal("model must not be invoked for an empty message")
	}
}

func TestHandleMessageUnknownOperationStillFinalizes(t *testing.T) {
	t.Parallel()

	d, _, store := newTestDispatcher(t,
		assistantWithCalls(schema.ToolCall{ID: "call-1", Function: schema.FunctionCall{
			Name: "operation_fantome", Arguments: `{}`,
		}}),
		&schema.Message{Role: schema.Assistant, Content: "Je ne peux pas faire cela."},
	)

	reply, err := d.HandleMessage(context.Background(), "s1", "fais un truc impossible")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "Je ne peux pas faire cela." {
		t.Fatalf("unexpected reply: %s", reply)
	}

	turns := store.GetOrCreate("s1").Snapshot()
	if !strings.Contains(turns[3].Content, "❌ Outil inconnu") {
		t.Fatalf("unknown operation must fold a refusal into the transcript, got: %s", turns[3].Content)
	}
}

func TestHandleMessageDefaultsSessionID(t *testing.T) {
	t.Parallel()

	d, _, store := newTestDispatcher(t,
		&schema.Message{Role: schema.Assistant, Content: "Bonjour"},
	)

	if _, err := d.HandleMessage(context.Background(), "  ", "bonjour"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.GetOrCreate("default").Len() != 3 {
		t.Fatal("blank session id must map to the default session")
	}
}
