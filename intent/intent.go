// Package intent models the abstract design plan for a template: ordered
// regions with a layout mode and a vertical share of the label, plus
// per-field typography hints. Intents arrive either from a machine source
// as JSON or hand-authored in the .intent DSL.
package intent

// LayoutMode selects one of the closed set of region placement strategies.
type LayoutMode string

const (
	ModeSingleDominant  LayoutMode = "single-dominant"
	ModeHorizontalSplit LayoutMode = "horizontal-split"
	ModeTwoColumn       LayoutMode = "two-column"
	ModeThreeColumn     LayoutMode = "three-column"
	ModeStacked         LayoutMode = "stacked"
	ModeStackedInline   LayoutMode = "stacked-inline"
)

// Importance scales the fitted font size: highest keeps the full estimate,
// lower tiers shave it down so secondary fields never outweigh the primary.
type Importance string

const (
	ImportanceHighest Importance = "highest"
	ImportanceHigh    Importance = "high"
	ImportanceMedium  Importance = "medium"
	ImportanceLow     Importance = "low"
)

// Factor returns the font-size multiplier for this importance tier.
func (i Importance) Factor() float64 {
	switch i {
	case ImportanceHighest:
		return 1.0
	case ImportanceHigh:
		return 0.95
	case ImportanceMedium:
		return 0.9
	case ImportanceLow:
		return 0.85
	default:
		return 0.9
	}
}

// Region groups fields under one placement strategy.
type Region struct {
	Name               string     `json:"name"`
	Fields             []string   `json:"fields"`
	Mode               LayoutMode `json:"layoutMode"`
	VerticalAllocation float64    `json:"verticalAllocation"`
	Priority           int        `json:"priority"`
}

// Typography carries per-field styling hints.
type Typography struct {
	Weight     string     `json:"weight,omitempty"`
	Importance Importance `json:"importance,omitempty"`
}

// DesignIntent is the full plan handed to the layout executor.
type DesignIntent struct {
	Name       string                `json:"name"`
	Regions    []Region              `json:"regions"`
	Typography map[string]Typography `json:"typography,omitempty"`
}

// FieldTypography returns the hints for a field, defaulting to medium
// importance when none were declared.
func (d *DesignIntent) FieldTypography(field string) Typography {
	if d != nil && d.Typography != nil {
		if t, ok := d.Typography[field]; ok {
			if t.Importance == "" {
				t.Importance = ImportanceMedium
			}
			return t
		}
	}
	return Typography{Importance: ImportanceMedium}
}

// NormalizeAllocations rescales region allocations so they sum to 1.0
// whenever the declared sum exceeds it. Sums at or below 1.0 are kept:
// an intent may deliberately leave slack unused.
func (d *DesignIntent) NormalizeAllocations() {
	if d == nil {
		return
	}
	sum := 0.0
	for _, r := range d.Regions {
		sum += r.VerticalAllocation
	}
	if sum <= 1.0 || sum == 0 {
		return
	}
	for i := range d.Regions {
		d.Regions[i].VerticalAllocation /= sum
	}
}
