package pattern

import (
	"time"

	"github.com/blackwell-systems/lifestream/internal/signal"
)

// Detector runs every registered rule against a snapshot.
type Detector struct {
	rules []Rule
	loc   *time.Location
}

// NewDetector creates a detector with the given rules. loc sets the local
// hour rules see; nil means time.Local.
func NewDetector(loc *time.Location, rules ...Rule) *Detector {
	if loc == nil {
		loc = time.Local
	}
	return &Detector{rules: rules, loc: loc}
}

// Register appends a rule. Existing rules are unaffected.
func (d *Detector) Register(r Rule) {
	d.rules = append(d.rules, r)
}

// Rules returns the registered rules in evaluation order.
func (d *Detector) Rules() []Rule {
	out := make([]Rule, len(d.rules))
	copy(out, d.rules)
	return out
}

// Detect evaluates all rules without short-circuiting and returns the
// matches in rule order, stamped with now. At most one pattern per type is
// returned; a later rule reusing a type is ignored once that type matched.
// The result is never nil.
func (d *Detector) Detect(now time.Time, snap signal.Snapshot) []Pattern {
	in := Input{Snapshot: snap, Hour: now.In(d.loc).Hour()}

	out := []Pattern{}
	for _, r := range d.rules {
		if r.Match == nil || !r.Match(in) {
			continue
		}
		if Has(out, r.Type) {
			continue
		}
		out = append(out, Pattern{
			Type:        r.Type,
			Confidence:  r.Confidence,
			Description: r.Description,
			Timestamp:   now,
		})
	}
	return out
}
