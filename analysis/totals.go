package analysis

import (
	"context"

	"github.com/hupe1980/cyclemesh/core"
	"github.com/hupe1980/cyclemesh/logging"
	"github.com/hupe1980/cyclemesh/session"
)

// JacobianFormat selects how a derivative batch is laid out.
type JacobianFormat string

const (
	// FormatByPair returns nested response -> design -> value maps.
	FormatByPair JacobianFormat = "by_pair"
	// FormatDense returns a row-major matrix over (of, wrt) order.
	FormatDense JacobianFormat = "dense"
)

// ParseJacobianFormat validates a format string, defaulting empty to by_pair.
func ParseJacobianFormat(s string) (JacobianFormat, error) {
	switch f := JacobianFormat(s); f {
	case FormatByPair, FormatDense:
		return f, nil
	case "":
		return FormatByPair, nil
	default:
		return "", core.NewError(core.KindValidation, "invalid return format %q", s)
	}
}

// DenseJacobian is the matrix layout: Data[i][j] is d Of[i] / d Wrt[j].
type DenseJacobian struct {
	Of   []string `json:"of"`
	Wrt  []string `json:"wrt"`
	Data [][]any  `json:"data"`
}

// TotalsResult carries a computed derivative batch in exactly one layout.
type TotalsResult struct {
	ByPair map[string]map[string]any `json:"by_pair,omitempty"`
	Dense  *DenseJacobian            `json:"dense,omitempty"`
}

// TotalsOptions holds overrides passed to NewTotals.
type TotalsOptions struct {
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

// Totals invokes the engine's total-derivative capability for validated
// (response, design) pairs.
type Totals struct {
	registry *session.Registry
	logger   logging.Logger
}

// NewTotals constructs the derivative orchestrator.
func NewTotals(registry *session.Registry, optFns ...func(o *TotalsOptions)) *Totals {
	opts := TotalsOptions{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Totals{registry: registry, logger: opts.Logger}
}

// Compute validates every response and design name against the catalog, then
// asks the engine for the totals. A model that has never been solved fails
// with ExecutionError rather than returning zero derivatives.
func (t *Totals) Compute(ctx context.Context, sessionID string, of, wrt []string, format JacobianFormat) (*TotalsResult, error) {
	if len(of) == 0 || len(wrt) == 0 {
		return nil, core.NewError(core.KindValidation, "of and wrt must each name at least one variable")
	}
	if format == "" {
		format = FormatByPair
	}

	handle, err := t.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}

	catalog := handle.Catalog()
	for _, name := range of {
		if err := catalog.Output(name); err != nil {
			return nil, err
		}
	}
	for _, name := range wrt {
		if err := catalog.Input(name); err != nil {
			return nil, err
		}
	}

	handle.Lock()
	defer handle.Unlock()

	if !handle.HasRun() {
		return nil, core.NewError(core.KindExecution, "model has not been solved; run the cycle before computing derivatives")
	}

	totals, err := handle.Instance().Derivatives(ctx, of, wrt)
	if err != nil {
		t.logger.Warn("derivative computation failed", "session_id", sessionID, "error", err)
		return nil, core.ErrExecution(err)
	}

	if format == FormatDense {
		return &TotalsResult{Dense: denseLayout(totals, of, wrt)}, nil
	}
	return &TotalsResult{ByPair: byPairLayout(totals)}, nil
}

func byPairLayout(totals map[core.DerivativePair]any) map[string]map[string]any {
	out := make(map[string]map[string]any)
	for pair, value := range totals {
		row, ok := out[pair.Of]
		if !ok {
			row = make(map[string]any)
			out[pair.Of] = row
		}
		row[pair.Wrt] = value
	}
	return out
}

func denseLayout(totals map[core.DerivativePair]any, of, wrt []string) *DenseJacobian {
	data := make([][]any, len(of))
	for i, o := range of {
		row := make([]any, len(wrt))
		for j, w := range wrt {
			row[j] = totals[core.DerivativePair{Of: o, Wrt: w}]
		}
		data[i] = row
	}
	return &DenseJacobian{Of: of, Wrt: wrt, Data: data}
}
