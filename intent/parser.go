package intent

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// The .intent DSL is the hand-authoring format for a design plan:
//
//	intent wine-labels {
//	    region header {
//	        fields NAME
//	        mode single-dominant
//	        allocation 0.3
//	        priority 1
//	    }
//	    region body {
//	        fields ADDRESS, CITY, ZIP
//	        mode stacked-inline
//	        allocation 0.7
//	    }
//	    typography NAME { weight bold importance highest }
//	    typography CITY { importance low }
//	}

var (
	intentLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "HashComment", Pattern: `#[^\n]*`},
		{Name: "Number", Pattern: `(?:\d+\.\d+|\d+)`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Punct", Pattern: `[,:]`},
		{Name: "Brace", Pattern: `[{}]`},
	})

	intentParser = participle.MustBuild[intentFile](
		participle.Lexer(intentLexer),
		participle.Elide("Whitespace", "LineComment", "HashComment"),
		participle.Unquote("String"),
	)
)

type intentFile struct {
	Name    string   `parser:"'intent' ( @String | @Ident )"`
	Entries []*entry `parser:"'{' @@* '}'"`
}

type entry struct {
	Region     *regionDef `parser:"  @@"`
	Typography *typoDef   `parser:"| @@"`
}

type regionDef struct {
	Name  string        `parser:"'region' @Ident"`
	Props []*regionProp `parser:"'{' @@* '}'"`
}

type regionProp struct {
	Fields     []string `parser:"  'fields' @Ident ( ',' @Ident )*"`
	Mode       *string  `parser:"| 'mode' @Ident"`
	Allocation *string  `parser:"| 'allocation' @Number"`
	Priority   *string  `parser:"| 'priority' @Number"`
}

type typoDef struct {
	Field string      `parser:"'typography' @Ident"`
	Props []*typoProp `parser:"'{' @@* '}'"`
}

type typoProp struct {
	Weight     *string `parser:"  'weight' @Ident"`
	Importance *string `parser:"| 'importance' @Ident"`
}

// Parse reads a .intent document and returns the design plan with
// allocations already normalized.
func Parse(r io.Reader) (*DesignIntent, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("intent: read source: %w", err)
	}
	file, err := intentParser.ParseBytes("", src)
	if err != nil {
		return nil, fmt.Errorf("intent: parse: %w", err)
	}
	return file.toIntent()
}

// ParseString is a convenience wrapper around Parse.
func ParseString(src string) (*DesignIntent, error) {
	return Parse(strings.NewReader(src))
}

func (f *intentFile) toIntent() (*DesignIntent, error) {
	di := &DesignIntent{
		Name:       f.Name,
		Typography: map[string]Typography{},
	}
	for _, e := range f.Entries {
		switch {
		case e.Region != nil:
			region, err := e.Region.toRegion()
			if err != nil {
				return nil, err
			}
			di.Regions = append(di.Regions, region)
		case e.Typography != nil:
			field := e.Typography.Field
			t := di.Typography[field]
			for _, p := range e.Typography.Props {
				if p.Weight != nil {
					t.Weight = *p.Weight
				}
				if p.Importance != nil {
					imp, err := ParseImportance(*p.Importance)
					if err != nil {
						return nil, fmt.Errorf("intent: typography %s: %w", field, err)
					}
					t.Importance = imp
				}
			}
			di.Typography[field] = t
		}
	}
	di.NormalizeAllocations()
	return di, nil
}

func (r *regionDef) toRegion() (Region, error) {
	region := Region{Name: r.Name, Mode: ModeStacked}
	for _, p := range r.Props {
		switch {
		case len(p.Fields) > 0:
			region.Fields = append(region.Fields, p.Fields...)
		case p.Mode != nil:
			region.Mode = LayoutMode(*p.Mode)
		case p.Allocation != nil:
			v, err := strconv.ParseFloat(*p.Allocation, 64)
			if err != nil || v < 0 {
				return Region{}, fmt.Errorf("intent: region %s: bad allocation %q", r.Name, *p.Allocation)
			}
			region.VerticalAllocation = v
		case p.Priority != nil:
			v, err := strconv.Atoi(*p.Priority)
			if err != nil {
				return Region{}, fmt.Errorf("intent: region %s: bad priority %q", r.Name, *p.Priority)
			}
			region.Priority = v
		}
	}
	return region, nil
}

// ParseImportance maps a DSL token to an Importance tier.
func ParseImportance(s string) (Importance, error) {
	switch Importance(strings.ToLower(s)) {
	case ImportanceHighest:
		return ImportanceHighest, nil
	case ImportanceHigh:
		return ImportanceHigh, nil
	case ImportanceMedium:
		return ImportanceMedium, nil
	case ImportanceLow:
		return ImportanceLow, nil
	default:
		return "", fmt.Errorf("unknown importance %q", s)
	}
}

// FromJSON decodes a machine-produced design intent (e.g. from a suggestion
// service) and normalizes its allocations.
func FromJSON(data []byte) (*DesignIntent, error) {
	var di DesignIntent
	if err := json.Unmarshal(data, &di); err != nil {
		return nil, fmt.Errorf("intent: decode json: %w", err)
	}
	di.NormalizeAllocations()
	return &di, nil
}
