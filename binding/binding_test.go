package binding

import "testing"

func TestResolveUsesMapping(t *testing.T) {
	rec := Record{"customer_name": "Acme Co", "NAME": "wrong"}
	m := Mapping{"NAME": "customer_name"}
	v, ok := Resolve(rec, m, "NAME")
	if !ok || v != "Acme Co" {
		t.Fatalf("got (%q, %v)", v, ok)
	}
}

func TestResolveFallsBackToFieldName(t *testing.T) {
	rec := Record{"CITY": "Lyon"}
	v, ok := Resolve(rec, nil, "CITY")
	if !ok || v != "Lyon" {
		t.Fatalf("got (%q, %v)", v, ok)
	}
	if _, ok := Resolve(rec, nil, "ZIP"); ok {
		t.Fatal("unknown field should not resolve")
	}
}

func TestSampleTextPlaceholder(t *testing.T) {
	rec := Record{"NAME": ""}
	// Empty and missing values both size against the field name itself.
	if got := SampleText(rec, nil, "NAME"); got != "NAME" {
		t.Fatalf("empty value: got %q", got)
	}
	if got := SampleText(nil, nil, "ADDRESS"); got != "ADDRESS" {
		t.Fatalf("missing record: got %q", got)
	}
	if got := SampleText(Record{"NAME": "Acme"}, nil, "NAME"); got != "Acme" {
		t.Fatalf("present value: got %q", got)
	}
}

func TestIsSynthetic(t *testing.T) {
	if !IsSynthetic("__col_1") {
		t.Fatal("__col_1 should be synthetic")
	}
	if IsSynthetic("NAME") {
		t.Fatal("NAME should not be synthetic")
	}
}

func TestInterpolate(t *testing.T) {
	rec := Record{"customer_name": "Acme Co"}
	m := Mapping{"NAME": "customer_name"}
	got := Interpolate("Ship to ${NAME} (${MISSING})", rec, m)
	want := "Ship to Acme Co (${MISSING})"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}
