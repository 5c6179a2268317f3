package layout

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestWriteDebugJSONRoundTrip(t *testing.T) {
	res := &Result{
		Fields: []FieldLayout{{
			Field: "ADDRESS", XMM: 1.5, YMM: 2, WidthMM: 59, HeightMM: 17,
			FontSizePt: 9, Align: AlignLeft, VAlign: VAlignMiddle, Fit: FitShrink,
			CombinedFields: []string{"ADDRESS", "CITY"},
		}},
		Diag: Diag{ConsumedMM: 17, UnusedMM: 0},
	}

	path := filepath.Join(t.TempDir(), "layout.json")
	if err := WriteDebugJSON(res, path); err != nil {
		t.Fatalf("write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	var decoded Result
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(&decoded, res) {
		t.Fatalf("round trip changed the layout:\n got %+v\nwant %+v", decoded, *res)
	}
}

func TestWriteDebugJSONNilResult(t *testing.T) {
	// A nil result is a no-op, not an error or an empty file.
	path := filepath.Join(t.TempDir(), "layout.json")
	if err := WriteDebugJSON(nil, path); err != nil {
		t.Fatalf("nil result: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("no file should be written for a nil result, stat err: %v", err)
	}
}
