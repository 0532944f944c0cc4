package core

import (
	"fmt"
	"sort"
	"strings"
)

// CycleType identifies the engine architecture a model is built from.
type CycleType string

const (
	// CycleTurbofan is a twin-spool turbofan cycle.
	CycleTurbofan CycleType = "turbofan"
	// CycleTurbojet is a single-spool turbojet cycle.
	CycleTurbojet CycleType = "turbojet"
	// CycleTurboshaft is a free-turbine turboshaft cycle.
	CycleTurboshaft CycleType = "turboshaft"
	// CycleCustom resolves through a caller-registered builder.
	CycleCustom CycleType = "custom"
)

// ParseCycleType validates a cycle type string received over the wire.
func ParseCycleType(s string) (CycleType, error) {
	switch ct := CycleType(s); ct {
	case CycleTurbofan, CycleTurbojet, CycleTurboshaft, CycleCustom:
		return ct, nil
	default:
		return "", NewError(KindConfiguration, "unsupported cycle type %q", s)
	}
}

// Direction declares whether a catalog variable is written by callers or
// produced by the solver.
type Direction string

const (
	// DirectionInput marks variables callers may set.
	DirectionInput Direction = "input"
	// DirectionOutput marks variables produced by a solve.
	DirectionOutput Direction = "output"
)

// VariableKind filters catalog listings.
type VariableKind string

const (
	// KindInputs selects input variables only.
	KindInputs VariableKind = "inputs"
	// KindOutputs selects output variables only.
	KindOutputs VariableKind = "outputs"
	// KindBoth selects the full catalog.
	KindBoth VariableKind = "both"
)

// ParseVariableKind validates a kind string, defaulting empty to both.
func ParseVariableKind(s string) (VariableKind, error) {
	switch k := VariableKind(s); k {
	case KindInputs, KindOutputs, KindBoth:
		return k, nil
	case "":
		return KindBoth, nil
	default:
		return "", NewError(KindValidation, "invalid variable kind %q", s)
	}
}

// VariableMeta describes one declared model variable.
type VariableMeta struct {
	Name      string    `json:"name"`
	Direction Direction `json:"direction"`
	Units     string    `json:"units,omitempty"`
	Shape     []int     `json:"shape,omitempty"`
	Desc      string    `json:"desc,omitempty"`
}

// Catalog is the declared variable interface of one constructed model. It is
// immutable once the handle is built; re-configuration rebuilds the catalog
// wholesale rather than mutating entries.
type Catalog struct {
	vars map[string]VariableMeta
}

// NewCatalog builds a catalog from variable metadata. Duplicate names are an
// error since the engine's variable tree cannot declare a name twice.
func NewCatalog(vars []VariableMeta) (Catalog, error) {
	m := make(map[string]VariableMeta, len(vars))
	for _, v := range vars {
		if _, dup := m[v.Name]; dup {
			return Catalog{}, fmt.Errorf("duplicate catalog variable %q", v.Name)
		}
		m[v.Name] = v
	}
	return Catalog{vars: m}, nil
}

// Len returns the number of declared variables.
func (c Catalog) Len() int { return len(c.vars) }

// Lookup returns the metadata for a variable name.
func (c Catalog) Lookup(name string) (VariableMeta, bool) {
	v, ok := c.vars[name]
	return v, ok
}

// Input validates that name is a declared input variable.
func (c Catalog) Input(name string) error {
	v, ok := c.vars[name]
	if !ok {
		return ErrUnknownVariable(name, "not in the model catalog")
	}
	if v.Direction != DirectionInput {
		return ErrUnknownVariable(name, "not an input variable")
	}
	return nil
}

// Output validates that name is a declared output variable.
func (c Catalog) Output(name string) error {
	v, ok := c.vars[name]
	if !ok {
		return ErrUnknownVariable(name, "not in the model catalog")
	}
	if v.Direction != DirectionOutput {
		return ErrUnknownVariable(name, "not an output variable")
	}
	return nil
}

// List returns catalog entries filtered by kind and an optional
// case-insensitive name substring, sorted by name for deterministic output.
func (c Catalog) List(kind VariableKind, nameFilter string) []VariableMeta {
	filter := strings.ToLower(nameFilter)
	out := make([]VariableMeta, 0, len(c.vars))
	for _, v := range c.vars {
		switch kind {
		case KindInputs:
			if v.Direction != DirectionInput {
				continue
			}
		case KindOutputs:
			if v.Direction != DirectionOutput {
				continue
			}
		}
		if filter != "" && !strings.Contains(strings.ToLower(v.Name), filter) {
			continue
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// CountByDirection returns the number of declared inputs and outputs.
func (c Catalog) CountByDirection() (inputs, outputs int) {
	for _, v := range c.vars {
		if v.Direction == DirectionInput {
			inputs++
		} else {
			outputs++
		}
	}
	return inputs, outputs
}
