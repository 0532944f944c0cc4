package tool

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/hupe1980/cyclemesh/analysis"
	"github.com/hupe1980/cyclemesh/core"
	"github.com/hupe1980/cyclemesh/session"
	"github.com/hupe1980/cyclemesh/variable"
)

// Services bundles the orchestration components the builtin tools dispatch to.
type Services struct {
	Registry *session.Registry
	Access   *variable.Access
	Runner   *analysis.Runner
	Sweeper  *analysis.Sweeper
	Totals   *analysis.Totals
}

// RegisterBuiltins wires the full tool surface into a dispatcher.
func RegisterBuiltins(d *Dispatcher, svc Services) error {
	defs := []Definition{
		createCycleModelTool(svc),
		closeCycleModelTool(svc),
		getCycleSummaryTool(svc),
		listSessionsTool(svc),
		listVariablesTool(svc),
		setInputsTool(svc),
		getOutputsTool(svc),
		runCycleTool(svc),
		runSweepTool(svc),
		computeDerivativesTool(svc),
		pingTool(),
	}
	for _, def := range defs {
		if err := d.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// decode converts a schema-validated payload into a typed request before any
// orchestrator sees it.
func decode[T any](payload map[string]any, out *T) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return core.NewError(core.KindValidation, "unserializable payload: %s", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return core.NewError(core.KindValidation, "malformed payload: %s", err)
	}
	return nil
}

func sessionIDProp() map[string]any {
	return map[string]any{"type": "string", "description": "Session identifier returned by create_cycle_model."}
}

type createRequest struct {
	CycleType    string         `json:"cycle_type"`
	Mode         string         `json:"mode"`
	CycleBuilder string         `json:"cycle_builder,omitempty"`
	Options      map[string]any `json:"options,omitempty"`
}

type createResult struct {
	SessionID string         `json:"session_id"`
	ModelName string         `json:"model_name"`
	CycleType core.CycleType `json:"cycle_type"`
	Mode      string         `json:"mode"`
	Inputs    int            `json:"inputs"`
	Outputs   int            `json:"outputs"`
}

func createCycleModelTool(svc Services) Definition {
	return Definition{
		Name:        "create_cycle_model",
		Title:       "Create cycle model",
		Description: "Construct a cycle model of the given type and mode, returning a session identifier.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"cycle_type": map[string]any{
					"type":        "string",
					"enum":        []any{"turbofan", "turbojet", "turboshaft", "custom"},
					"description": "Engine architecture to build.",
				},
				"mode":          map[string]any{"type": "string", "description": "Model mode, e.g. design."},
				"cycle_builder": map[string]any{"type": "string", "description": "Registered builder name for custom cycles."},
				"options":       map[string]any{"type": "object", "description": "Engine construction settings, passed through opaquely."},
			},
			"required": []string{"cycle_type", "mode"},
		},
		Handler: func(ctx context.Context, payload map[string]any) (any, error) {
			var req createRequest
			if err := decode(payload, &req); err != nil {
				return nil, err
			}

			cycleType, err := core.ParseCycleType(req.CycleType)
			if err != nil {
				return nil, err
			}

			handle, err := svc.Registry.Create(ctx, session.CreateSpec{
				CycleType:    cycleType,
				Mode:         req.Mode,
				CycleBuilder: req.CycleBuilder,
				Options:      req.Options,
			})
			if err != nil {
				return nil, err
			}

			inputs, outputs := handle.Catalog().CountByDirection()
			return createResult{
				SessionID: handle.ID,
				ModelName: handle.ModelName,
				CycleType: handle.CycleType,
				Mode:      handle.Mode,
				Inputs:    inputs,
				Outputs:   outputs,
			}, nil
		},
	}
}

type sessionRequest struct {
	SessionID string `json:"session_id"`
}

func closeCycleModelTool(svc Services) Definition {
	return Definition{
		Name:        "close_cycle_model",
		Title:       "Close cycle model",
		Description: "Close a model session and free its engine resources.",
		Destructive: true,
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"session_id": sessionIDProp()},
			"required":   []string{"session_id"},
		},
		Handler: func(_ context.Context, payload map[string]any) (any, error) {
			var req sessionRequest
			if err := decode(payload, &req); err != nil {
				return nil, err
			}
			if err := svc.Registry.Close(req.SessionID); err != nil {
				return nil, err
			}
			return map[string]any{"success": true}, nil
		},
	}
}

type summaryVariable struct {
	Name         string `json:"name"`
	Units        string `json:"units,omitempty"`
	Desc         string `json:"desc,omitempty"`
	CurrentValue any    `json:"current_value"`
}

type summaryResult struct {
	ModelName  string            `json:"model_name"`
	CycleType  core.CycleType    `json:"cycle_type"`
	Mode       string            `json:"mode"`
	Options    map[string]any    `json:"options,omitempty"`
	KeyInputs  []summaryVariable `json:"key_inputs"`
	KeyOutputs []summaryVariable `json:"key_outputs"`
}

func getCycleSummaryTool(svc Services) Definition {
	return Definition{
		Name:        "get_cycle_summary",
		Title:       "Get cycle summary",
		Description: "Return a succinct summary of a model: configuration plus current input and output values.",
		ReadOnly:    true,
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"session_id": sessionIDProp()},
			"required":   []string{"session_id"},
		},
		Handler: func(_ context.Context, payload map[string]any) (any, error) {
			var req sessionRequest
			if err := decode(payload, &req); err != nil {
				return nil, err
			}

			handle, err := svc.Registry.Get(req.SessionID)
			if err != nil {
				return nil, err
			}

			handle.Lock()
			defer handle.Unlock()

			render := func(kind core.VariableKind) []summaryVariable {
				vars := handle.Catalog().List(kind, "")
				out := make([]summaryVariable, 0, len(vars))
				for _, v := range vars {
					value, err := handle.Instance().Get(v.Name)
					if err != nil {
						value = nil
					}
					out = append(out, summaryVariable{Name: v.Name, Units: v.Units, Desc: v.Desc, CurrentValue: value})
				}
				return out
			}

			return summaryResult{
				ModelName:  handle.ModelName,
				CycleType:  handle.CycleType,
				Mode:       handle.Mode,
				Options:    handle.Options,
				KeyInputs:  render(core.KindInputs),
				KeyOutputs: render(core.KindOutputs),
			}, nil
		},
	}
}

func listSessionsTool(svc Services) Definition {
	return Definition{
		Name:        "list_sessions",
		Title:       "List sessions",
		Description: "List all live model sessions with their metadata.",
		ReadOnly:    true,
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		Handler: func(_ context.Context, _ map[string]any) (any, error) {
			return map[string]any{"sessions": svc.Registry.List()}, nil
		},
	}
}

type listVariablesRequest struct {
	SessionID    string `json:"session_id"`
	Kind         string `json:"kind,omitempty"`
	NameFilter   string `json:"name_filter,omitempty"`
	MaxVariables int    `json:"max_variables,omitempty"`
}

func listVariablesTool(svc Services) Definition {
	return Definition{
		Name:        "list_variables",
		Title:       "List variables",
		Description: "List the declared variables of a model, optionally filtered by kind or name substring.",
		ReadOnly:    true,
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"session_id": sessionIDProp(),
				"kind": map[string]any{
					"type": "string",
					"enum": []any{"inputs", "outputs", "both"},
				},
				"name_filter":   map[string]any{"type": "string", "description": "Case-insensitive substring filter."},
				"max_variables": map[string]any{"type": "integer", "description": "Truncate the listing; defaults to 200."},
			},
			"required": []string{"session_id"},
		},
		Handler: func(_ context.Context, payload map[string]any) (any, error) {
			var req listVariablesRequest
			if err := decode(payload, &req); err != nil {
				return nil, err
			}

			kind, err := core.ParseVariableKind(req.Kind)
			if err != nil {
				return nil, err
			}

			vars, err := svc.Access.List(req.SessionID, variable.ListSpec{
				Kind:         kind,
				NameFilter:   req.NameFilter,
				MaxVariables: req.MaxVariables,
			})
			if err != nil {
				return nil, err
			}
			return map[string]any{"variables": vars}, nil
		},
	}
}

type setInputsRequest struct {
	SessionID string         `json:"session_id"`
	Values    map[string]any `json:"values"`
}

func setInputsTool(svc Services) Definition {
	return Definition{
		Name:        "set_inputs",
		Title:       "Set inputs",
		Description: "Set one or more input variables. All names are validated before any value is applied.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"session_id": sessionIDProp(),
				"values":     map[string]any{"type": "object", "description": "Mapping of input variable name to value."},
			},
			"required": []string{"session_id", "values"},
		},
		Handler: func(_ context.Context, payload map[string]any) (any, error) {
			var req setInputsRequest
			if err := decode(payload, &req); err != nil {
				return nil, err
			}
			if len(req.Values) == 0 {
				return nil, core.NewError(core.KindValidation, "values must contain at least one entry")
			}

			if err := svc.Access.SetInputs(req.SessionID, req.Values); err != nil {
				return nil, err
			}

			updated := make([]string, 0, len(req.Values))
			for name := range req.Values {
				updated = append(updated, name)
			}
			sort.Strings(updated)
			return map[string]any{"updated": updated}, nil
		},
	}
}

type getOutputsRequest struct {
	SessionID string   `json:"session_id"`
	Names     []string `json:"names"`
}

func getOutputsTool(svc Services) Definition {
	return Definition{
		Name:        "get_outputs",
		Title:       "Get outputs",
		Description: "Read current values of one or more output variables without re-running the model.",
		ReadOnly:    true,
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"session_id": sessionIDProp(),
				"names":      map[string]any{"type": "array", "description": "Output variable names to read."},
			},
			"required": []string{"session_id", "names"},
		},
		Handler: func(_ context.Context, payload map[string]any) (any, error) {
			var req getOutputsRequest
			if err := decode(payload, &req); err != nil {
				return nil, err
			}
			if len(req.Names) == 0 {
				return nil, core.NewError(core.KindValidation, "names must contain at least one entry")
			}

			values, err := svc.Access.GetOutputs(req.SessionID, req.Names)
			if err != nil {
				return nil, err
			}
			return map[string]any{"values": values}, nil
		},
	}
}

type runCycleRequest struct {
	SessionID string   `json:"session_id"`
	Outputs   []string `json:"outputs_of_interest,omitempty"`
}

func runCycleTool(svc Services) Definition {
	return Definition{
		Name:        "run_cycle",
		Title:       "Run cycle",
		Description: "Execute one converged solve of the model and return the requested outputs.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"session_id":          sessionIDProp(),
				"outputs_of_interest": map[string]any{"type": "array", "description": "Outputs to report; defaults to the standard set."},
			},
			"required": []string{"session_id"},
		},
		Handler: func(ctx context.Context, payload map[string]any) (any, error) {
			var req runCycleRequest
			if err := decode(payload, &req); err != nil {
				return nil, err
			}
			return svc.Runner.Run(ctx, req.SessionID, req.Outputs)
		},
	}
}

type runSweepRequest struct {
	SessionID string                   `json:"session_id"`
	Sweep     []analysis.SweepVariable `json:"sweep"`
	Outputs   []string                 `json:"outputs_of_interest,omitempty"`
}

func runSweepTool(svc Services) Definition {
	return Definition{
		Name:        "run_sweep",
		Title:       "Run sweep",
		Description: "Evaluate the model across a Cartesian grid of input combinations, isolating per-point failures.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"session_id":          sessionIDProp(),
				"sweep":               map[string]any{"type": "array", "description": "Swept variables, each with a name and an ordered value list."},
				"outputs_of_interest": map[string]any{"type": "array"},
			},
			"required": []string{"session_id", "sweep"},
		},
		Handler: func(ctx context.Context, payload map[string]any) (any, error) {
			var req runSweepRequest
			if err := decode(payload, &req); err != nil {
				return nil, err
			}
			return svc.Sweeper.Run(ctx, req.SessionID, analysis.SweepSpec{
				Variables: req.Sweep,
				Outputs:   req.Outputs,
			})
		},
	}
}

type computeDerivativesRequest struct {
	SessionID    string   `json:"session_id"`
	Of           []string `json:"of"`
	Wrt          []string `json:"wrt"`
	ReturnFormat string   `json:"return_format,omitempty"`
}

func computeDerivativesTool(svc Services) Definition {
	return Definition{
		Name:        "compute_derivatives",
		Title:       "Compute derivatives",
		Description: "Compute total derivatives of response variables with respect to design variables.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"session_id": sessionIDProp(),
				"of":         map[string]any{"type": "array", "description": "Response (output) variable names."},
				"wrt":        map[string]any{"type": "array", "description": "Design (input) variable names."},
				"return_format": map[string]any{
					"type": "string",
					"enum": []any{"by_pair", "dense"},
				},
			},
			"required": []string{"session_id", "of", "wrt"},
		},
		Handler: func(ctx context.Context, payload map[string]any) (any, error) {
			var req computeDerivativesRequest
			if err := decode(payload, &req); err != nil {
				return nil, err
			}

			format, err := analysis.ParseJacobianFormat(req.ReturnFormat)
			if err != nil {
				return nil, err
			}

			result, err := svc.Totals.Compute(ctx, req.SessionID, req.Of, req.Wrt, format)
			if err != nil {
				return nil, err
			}

			if result.Dense != nil {
				return map[string]any{"jacobian": result.Dense}, nil
			}
			return map[string]any{"jacobian": result.ByPair}, nil
		},
	}
}

func pingTool() Definition {
	return Definition{
		Name:        "ping",
		Title:       "Ping",
		Description: "Transport health check; requires no session and touches no engine.",
		ReadOnly:    true,
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"message": map[string]any{"type": "string", "description": "Optional echo message."},
			},
		},
		Handler: func(_ context.Context, payload map[string]any) (any, error) {
			result := map[string]any{"server": "cyclemesh", "status": "ok"}
			if msg, ok := payload["message"].(string); ok && msg != "" {
				result["message"] = msg
			}
			return result, nil
		},
	}
}
