package intent

import (
	"math"
	"testing"
)

const sampleIntent = `
// Wine bottle labels for the spring run.
intent wine-labels {
    region header {
        fields NAME
        mode single-dominant
        allocation 0.3
        priority 1
    }
    region body {
        fields ADDRESS, CITY, ZIP
        mode stacked-inline
        allocation 0.7
        priority 2
    }
    typography NAME { weight bold importance highest }
    typography CITY { importance low }
}
`

func TestParseIntent(t *testing.T) {
	di, err := ParseString(sampleIntent)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if di.Name != "wine-labels" {
		t.Fatalf("name: got %q", di.Name)
	}
	if len(di.Regions) != 2 {
		t.Fatalf("regions: got %d want 2", len(di.Regions))
	}

	header := di.Regions[0]
	if header.Name != "header" || header.Mode != ModeSingleDominant {
		t.Fatalf("header region: %+v", header)
	}
	if len(header.Fields) != 1 || header.Fields[0] != "NAME" {
		t.Fatalf("header fields: %v", header.Fields)
	}
	if header.Priority != 1 {
		t.Fatalf("header priority: got %d", header.Priority)
	}

	body := di.Regions[1]
	if body.Mode != ModeStackedInline {
		t.Fatalf("body mode: got %q", body.Mode)
	}
	want := []string{"ADDRESS", "CITY", "ZIP"}
	if len(body.Fields) != len(want) {
		t.Fatalf("body fields: %v", body.Fields)
	}
	for i, f := range want {
		if body.Fields[i] != f {
			t.Fatalf("body fields[%d]: got %q want %q", i, body.Fields[i], f)
		}
	}

	if ty := di.FieldTypography("NAME"); ty.Weight != "bold" || ty.Importance != ImportanceHighest {
		t.Fatalf("NAME typography: %+v", ty)
	}
	if ty := di.FieldTypography("CITY"); ty.Importance != ImportanceLow {
		t.Fatalf("CITY typography: %+v", ty)
	}
	// Undeclared fields fall back to medium.
	if ty := di.FieldTypography("ZIP"); ty.Importance != ImportanceMedium {
		t.Fatalf("ZIP typography: %+v", ty)
	}
}

func TestParseDefaultsModeToStacked(t *testing.T) {
	di, err := ParseString(`intent plain { region only { fields A allocation 1.0 } }`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if di.Regions[0].Mode != ModeStacked {
		t.Fatalf("default mode: got %q", di.Regions[0].Mode)
	}
}

func TestParseNormalizesOverAllocation(t *testing.T) {
	di, err := ParseString(`
intent over {
    region a { fields A allocation 0.8 }
    region b { fields B allocation 0.8 }
}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	sum := 0.0
	for _, r := range di.Regions {
		sum += r.VerticalAllocation
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Fatalf("allocations should renormalize to 1.0, got %g", sum)
	}
}

func TestParseKeepsSlack(t *testing.T) {
	di, err := ParseString(`
intent slack {
    region a { fields A allocation 0.3 }
    region b { fields B allocation 0.4 }
}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if math.Abs(di.Regions[0].VerticalAllocation-0.3) > 1e-9 {
		t.Fatalf("under-allocation must be preserved, got %g", di.Regions[0].VerticalAllocation)
	}
}

func TestParseRejectsUnknownImportance(t *testing.T) {
	_, err := ParseString(`intent bad { typography A { importance enormous } }`)
	if err == nil {
		t.Fatal("expected error for unknown importance")
	}
}

func TestFromJSON(t *testing.T) {
	di, err := FromJSON([]byte(`{
		"name": "shipping",
		"regions": [
			{"name": "header", "fields": ["NAME"], "layoutMode": "single-dominant", "verticalAllocation": 0.4},
			{"name": "body", "fields": ["ADDRESS"], "layoutMode": "stacked", "verticalAllocation": 0.6}
		],
		"typography": {"NAME": {"importance": "highest"}}
	}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if di.Name != "shipping" || len(di.Regions) != 2 {
		t.Fatalf("decoded intent: %+v", di)
	}
	if di.Regions[0].Mode != ModeSingleDominant {
		t.Fatalf("mode: got %q", di.Regions[0].Mode)
	}
}
