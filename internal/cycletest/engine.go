package cycletest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/hupe1980/cyclemesh/core"
)

// model holds the linear surrogate for one cycle type: every output is
// bias + sum(coeff[input] * value(input)).
type model struct {
	name    string
	inputs  []core.VariableMeta
	outputs []core.VariableMeta
	bias    map[string]float64
	coeff   map[string]map[string]float64
	initial map[string]float64
}

var models = map[core.CycleType]model{
	core.CycleTurbofan: {
		name: "HBTF",
		inputs: []core.VariableMeta{
			{Name: "fc.MN", Direction: core.DirectionInput, Desc: "flight Mach number"},
			{Name: "fc.alt", Direction: core.DirectionInput, Units: "ft", Desc: "flight altitude"},
			{Name: "comp.PR", Direction: core.DirectionInput, Desc: "compressor pressure ratio"},
			{Name: "burner.FAR", Direction: core.DirectionInput, Desc: "burner fuel-to-air ratio"},
		},
		outputs: []core.VariableMeta{
			{Name: "Fn", Direction: core.DirectionOutput, Units: "lbf", Desc: "net thrust"},
			{Name: "TSFC", Direction: core.DirectionOutput, Units: "lbm/(h*lbf)", Desc: "thrust specific fuel consumption"},
			{Name: "eff", Direction: core.DirectionOutput, Desc: "overall efficiency"},
			{Name: "power", Direction: core.DirectionOutput, Units: "hp", Desc: "shaft power"},
		},
		bias: map[string]float64{"Fn": 4000, "TSFC": 0.45, "eff": 0.25, "power": 1000},
		coeff: map[string]map[string]float64{
			"Fn":    {"burner.FAR": 200000, "comp.PR": 120, "fc.alt": -0.04, "fc.MN": -1500},
			"TSFC":  {"fc.MN": 0.12, "comp.PR": -0.004, "burner.FAR": 2.5},
			"eff":   {"comp.PR": 0.006, "fc.MN": 0.01},
			"power": {"burner.FAR": 60000, "comp.PR": 40},
		},
		initial: map[string]float64{"fc.MN": 0.8, "fc.alt": 35000, "comp.PR": 24, "burner.FAR": 0.03},
	},
	core.CycleTurbojet: {
		name: "Turbojet",
		inputs: []core.VariableMeta{
			{Name: "fc.MN", Direction: core.DirectionInput, Desc: "flight Mach number"},
			{Name: "fc.alt", Direction: core.DirectionInput, Units: "ft", Desc: "flight altitude"},
			{Name: "comp.PR", Direction: core.DirectionInput, Desc: "compressor pressure ratio"},
			{Name: "burner.FAR", Direction: core.DirectionInput, Desc: "burner fuel-to-air ratio"},
		},
		outputs: []core.VariableMeta{
			{Name: "Fn", Direction: core.DirectionOutput, Units: "lbf", Desc: "net thrust"},
			{Name: "TSFC", Direction: core.DirectionOutput, Units: "lbm/(h*lbf)", Desc: "thrust specific fuel consumption"},
			{Name: "eff", Direction: core.DirectionOutput, Desc: "overall efficiency"},
			{Name: "power", Direction: core.DirectionOutput, Units: "hp", Desc: "shaft power"},
		},
		bias: map[string]float64{"Fn": 2500, "TSFC": 0.8, "eff": 0.2, "power": 700},
		coeff: map[string]map[string]float64{
			"Fn":    {"burner.FAR": 90000, "comp.PR": 80, "fc.alt": -0.03, "fc.MN": 400},
			"TSFC":  {"fc.MN": 0.2, "comp.PR": -0.006, "burner.FAR": 4},
			"eff":   {"comp.PR": 0.008, "fc.MN": 0.015},
			"power": {"burner.FAR": 30000, "comp.PR": 25},
		},
		initial: map[string]float64{"fc.MN": 0.0, "fc.alt": 0, "comp.PR": 13.5, "burner.FAR": 0.025},
	},
	core.CycleTurboshaft: {
		name: "Turboshaft",
		inputs: []core.VariableMeta{
			{Name: "fc.MN", Direction: core.DirectionInput, Desc: "flight Mach number"},
			{Name: "fc.alt", Direction: core.DirectionInput, Units: "ft", Desc: "flight altitude"},
			{Name: "comp.PR", Direction: core.DirectionInput, Desc: "compressor pressure ratio"},
			{Name: "burner.FAR", Direction: core.DirectionInput, Desc: "burner fuel-to-air ratio"},
			{Name: "shaft.Nmech", Direction: core.DirectionInput, Units: "rpm", Desc: "mechanical shaft speed"},
		},
		outputs: []core.VariableMeta{
			{Name: "Fn", Direction: core.DirectionOutput, Units: "lbf", Desc: "residual jet thrust"},
			{Name: "TSFC", Direction: core.DirectionOutput, Units: "lbm/(h*hp)", Desc: "power specific fuel consumption"},
			{Name: "eff", Direction: core.DirectionOutput, Desc: "thermal efficiency"},
			{Name: "power", Direction: core.DirectionOutput, Units: "hp", Desc: "delivered shaft power"},
		},
		bias: map[string]float64{"Fn": 120, "TSFC": 0.5, "eff": 0.3, "power": 2000},
		coeff: map[string]map[string]float64{
			"Fn":    {"fc.MN": 300},
			"TSFC":  {"burner.FAR": 3, "comp.PR": -0.005},
			"eff":   {"comp.PR": 0.007},
			"power": {"burner.FAR": 150000, "shaft.Nmech": 0.08, "fc.alt": -0.01},
		},
		initial: map[string]float64{"fc.MN": 0.0, "fc.alt": 0, "comp.PR": 9, "burner.FAR": 0.02, "shaft.Nmech": 5000},
	},
}

var supportedModes = map[string]bool{"design": true, "off_design": true}

// Options configures failure injection and construction behavior.
type Options struct {
	// ConstructErr makes every Construct call fail.
	ConstructErr error
	// RunErr makes every solve of every constructed instance fail.
	RunErr error
	// DerivErr makes every derivative computation fail.
	DerivErr error
}

// Builder is a core.Builder producing linear surrogate instances. It counts
// solver calls across all instances so tests can assert that rejected
// operations never touched the engine.
type Builder struct {
	opts Options

	mu       sync.Mutex
	runCalls int
}

// NewBuilder constructs a surrogate builder with optional failure injection.
func NewBuilder(optFns ...func(o *Options)) *Builder {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Builder{opts: opts}
}

// RunCalls reports the total number of solves across all instances.
func (b *Builder) RunCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.runCalls
}

func (b *Builder) countRun() {
	b.mu.Lock()
	b.runCalls++
	b.mu.Unlock()
}

// Construct implements core.Builder. The config map may pre-set any declared
// input; unrecognized keys are ignored, matching the tolerant defaulting of
// typical engine front-ends.
func (b *Builder) Construct(_ context.Context, cycleType core.CycleType, mode string, config map[string]any) (core.Instance, error) {
	if b.opts.ConstructErr != nil {
		return nil, b.opts.ConstructErr
	}
	m, ok := models[cycleType]
	if !ok {
		return nil, fmt.Errorf("surrogate has no model for cycle type %q", cycleType)
	}
	if !supportedModes[mode] {
		return nil, fmt.Errorf("unsupported mode %q", mode)
	}

	catalog, err := core.NewCatalog(append(append([]core.VariableMeta{}, m.inputs...), m.outputs...))
	if err != nil {
		return nil, err
	}

	values := make(map[string]float64, len(m.initial))
	for k, v := range m.initial {
		values[k] = v
	}
	for k, v := range config {
		if _, declared := values[k]; !declared {
			continue
		}
		f, err := toFloat(v)
		if err != nil {
			return nil, fmt.Errorf("config value for %q: %w", k, err)
		}
		values[k] = f
	}

	return &Instance{builder: b, model: m, name: m.name, catalog: catalog, values: values}, nil
}

// Instance is one live surrogate model. Like a real engine instance it is not
// safe for concurrent use.
type Instance struct {
	builder *Builder
	model   model
	name    string
	catalog core.Catalog
	values  map[string]float64
	outputs map[string]float64
	ran     bool
	closed  bool
}

// ModelName returns the surrogate model identifier for the cycle type.
func (i *Instance) ModelName() string { return i.name }

// Catalog implements core.Instance.
func (i *Instance) Catalog() core.Catalog { return i.catalog }

// Set implements core.Instance.
func (i *Instance) Set(name string, value any) error {
	if i.closed {
		return errors.New("instance is closed")
	}
	if err := i.catalog.Input(name); err != nil {
		return err
	}
	f, err := toFloat(value)
	if err != nil {
		return fmt.Errorf("value for %q: %w", name, err)
	}
	i.values[name] = f
	return nil
}

// Get implements core.Instance. Outputs read zero until the first solve.
func (i *Instance) Get(name string) (any, error) {
	if i.closed {
		return nil, errors.New("instance is closed")
	}
	meta, ok := i.catalog.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("no variable %q", name)
	}
	if meta.Direction == core.DirectionInput {
		return i.values[name], nil
	}
	return i.outputs[name], nil
}

// Run implements core.Instance. A NaN input is treated as a non-converging
// operating point, which lets tests exercise per-point sweep failures.
func (i *Instance) Run(_ context.Context) (core.RunStats, error) {
	if i.closed {
		return core.RunStats{}, errors.New("instance is closed")
	}
	i.builder.countRun()
	if i.builder.opts.RunErr != nil {
		return core.RunStats{}, i.builder.opts.RunErr
	}
	for name, v := range i.values {
		if math.IsNaN(v) {
			return core.RunStats{}, fmt.Errorf("solver failed to converge: %s is NaN", name)
		}
	}

	out := make(map[string]float64, len(i.model.bias))
	for output, bias := range i.model.bias {
		v := bias
		for input, c := range i.model.coeff[output] {
			v += c * i.values[input]
		}
		out[output] = v
	}
	i.outputs = out
	i.ran = true
	return core.RunStats{Iterations: 6, ResidualNorm: 1e-8}, nil
}

// Derivatives implements core.Instance. The jacobian of a linear surrogate is
// its coefficient table, so expected values in tests are exact.
func (i *Instance) Derivatives(_ context.Context, of, wrt []string) (map[core.DerivativePair]any, error) {
	if i.closed {
		return nil, errors.New("instance is closed")
	}
	if i.builder.opts.DerivErr != nil {
		return nil, i.builder.opts.DerivErr
	}
	if !i.ran {
		return nil, errors.New("model has not been solved")
	}

	totals := make(map[core.DerivativePair]any, len(of)*len(wrt))
	for _, o := range of {
		for _, w := range wrt {
			totals[core.DerivativePair{Of: o, Wrt: w}] = i.model.coeff[o][w]
		}
	}
	return totals, nil
}

// Close implements core.Instance.
func (i *Instance) Close() error {
	if i.closed {
		return errors.New("instance already closed")
	}
	i.closed = true
	return nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}
