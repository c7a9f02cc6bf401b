package plugins

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/parley-ai/parley/pkg/core"
	"github.com/parley-ai/parley/pkg/core/types"
)

// Conversation is the slice of the turn orchestrator the dispatcher
// needs: appending records and running follow-up turns.
type Conversation interface {
	Append(m types.Message) types.Message
	RunTurn(ctx context.Context) error
}

// Dispatcher executes a model's function-call batch sequentially
// against the gateway and feeds each result back as a follow-up turn.
type Dispatcher struct {
	registry *Registry
	client   *GatewayClient
	conv     Conversation
}

// NewDispatcher creates a dispatcher. Bind installs the conversation
// after construction to break the mutual dependency at wiring time.
func NewDispatcher(registry *Registry, client *GatewayClient) *Dispatcher {
	return &Dispatcher{registry: registry, client: client}
}

// Bind attaches the conversation the dispatcher records into.
func (d *Dispatcher) Bind(conv Conversation) {
	d.conv = conv
}

// HandleCalls processes a call batch in model order. Each call is
// recorded in the log before resolution, so an unresolvable call leaves
// its record behind as evidence of what the model asked for.
func (d *Dispatcher) HandleCalls(ctx context.Context, calls []types.FunctionCall) error {
	for _, call := range calls {
		if err := d.dispatch(ctx, call); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) dispatch(ctx context.Context, call types.FunctionCall) error {
	d.conv.Append(types.Message{
		Role:  types.RoleFunction,
		Parts: []types.Part{types.FunctionCallPart(call.Name, call.Args)},
	})

	manifest, op, ok := d.registry.Lookup(call.Name)
	if !ok {
		return core.NewDispatchError(fmt.Sprintf("no installed operation matches %q", call.Name))
	}

	payload := buildPayload(manifest, op, d.registry.locationTable(call.Name), call.Args)
	body, err := d.client.Execute(ctx, payload)
	if err != nil {
		return err
	}

	d.conv.Append(types.Message{
		Role:  types.RoleFunction,
		Parts: []types.Part{types.FunctionResponsePart(call.Name, responseBody(body))},
	})
	// The placeholder reserves the slot the follow-up turn commits into.
	d.conv.Append(types.Message{Role: types.RoleModel})

	return d.conv.RunTurn(ctx)
}

// responseBody carries the upstream body to the model: JSON objects
// pass through structurally, anything else is wrapped verbatim.
func responseBody(body string) map[string]any {
	var obj map[string]any
	if err := json.Unmarshal([]byte(body), &obj); err == nil {
		return obj
	}
	return map[string]any{"result": body}
}
