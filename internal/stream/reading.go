package stream

import (
	"errors"
	"fmt"
	"maps"
	"sort"

	"github.com/blackwell-systems/lifestream/internal/signal"
)

// ErrUnknownKind is returned when a reading names no channel group.
var ErrUnknownKind = errors.New("unknown reading kind")

// Kind names a channel group.
type Kind string

// Channel groups accepted by Ingest.
const (
	KindBiometrics    Kind = "biometrics"
	KindEnvironmental Kind = "environmental"
	KindDigital       Kind = "digital"
	KindEmotional     Kind = "emotional"
)

// Reading is a partial update of one channel group. Values are keyed by JSON
// field name, nested fields dotted (brainWaves.alpha). Labels carry string
// fields: weather for environmental, mood for emotional.
type Reading struct {
	Kind   Kind               `json:"kind"`
	Values map[string]float64 `json:"values"`
	Labels map[string]string  `json:"labels,omitempty"`
}

// merge returns r with newer's values and labels layered on top.
func (r Reading) merge(newer Reading) Reading {
	out := Reading{Kind: r.Kind, Values: maps.Clone(r.Values), Labels: maps.Clone(r.Labels)}
	if out.Values == nil {
		out.Values = map[string]float64{}
	}
	maps.Copy(out.Values, newer.Values)
	if len(newer.Labels) > 0 {
		if out.Labels == nil {
			out.Labels = map[string]string{}
		}
		maps.Copy(out.Labels, newer.Labels)
	}
	return out
}

// applyTo writes r into the matching slice of snap. On error snap is unchanged.
func (r Reading) applyTo(snap *signal.Snapshot) error {
	switch r.Kind {
	case KindBiometrics:
		if err := noLabels(r); err != nil {
			return err
		}
		return snap.Biometrics.Apply(r.Values)
	case KindEnvironmental:
		return snap.Environmental.Apply(r.Values, r.Labels)
	case KindDigital:
		if err := noLabels(r); err != nil {
			return err
		}
		return snap.Digital.Apply(r.Values)
	case KindEmotional:
		return snap.Emotional.Apply(r.Values, r.Labels)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, r.Kind)
	}
}

func noLabels(r Reading) error {
	if len(r.Labels) == 0 {
		return nil
	}
	keys := make([]string, 0, len(r.Labels))
	for k := range r.Labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Errorf("%w: %s.%s", signal.ErrUnknownField, r.Kind, keys[0])
}
