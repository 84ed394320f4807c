package lodestar

import (
	"github.com/goccy/go-json"
)

// EntityState is a debug snapshot of one entity, with each component serialized under
// its registered name.
type EntityState struct {
	ID         uint32                     `json:"id"`
	Version    uint32                     `json:"version"`
	Active     bool                       `json:"active"`
	Components map[string]json.RawMessage `json:"components"`
}

// DebugState snapshots every live entity in id order. Built for inspectors and tests,
// not for the frame path.
func (w *World) DebugState() ([]EntityState, error) {
	handles := w.registry.Handles()
	out := make([]EntityState, 0, len(handles))
	for _, h := range handles {
		raw, err := w.registry.EncodeComponents(h)
		if err != nil {
			return nil, err
		}

		comps := make(map[string]json.RawMessage, len(raw))
		for name, bz := range raw {
			comps[name] = json.RawMessage(bz)
		}
		out = append(out, EntityState{
			ID:         uint32(h.ID),
			Version:    uint32(h.Version),
			Active:     w.registry.IsActive(h),
			Components: comps,
		})
	}
	return out, nil
}

// PassNames returns every registered pass name in execution order.
func (w *World) PassNames() []string {
	var out []string
	for phase := PhasePre; phase < phaseCount; phase++ {
		for _, p := range w.passes[phase] {
			out = append(out, p.name)
		}
	}
	return out
}

// SystemNames returns every registered system name in execution order.
func (w *World) SystemNames() []string {
	var out []string
	for phase := PhasePre; phase < phaseCount; phase++ {
		for _, p := range w.passes[phase] {
			for _, sys := range p.systems {
				out = append(out, sys.name)
			}
		}
	}
	return out
}
