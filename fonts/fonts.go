// Package fonts maps template weight names onto the bundled Latin Modern
// faces. Keeping the faces in the binary means a batch renders identically
// on every host; there is no system font lookup.
package fonts

import (
	"strings"

	"github.com/go-fonts/latin-modern/lmroman10bold"
	"github.com/go-fonts/latin-modern/lmroman10bolditalic"
	"github.com/go-fonts/latin-modern/lmroman10italic"
	"github.com/go-fonts/latin-modern/lmroman10regular"
)

// Weight names accepted in typography hints.
const (
	WeightRegular    = "regular"
	WeightBold       = "bold"
	WeightItalic     = "italic"
	WeightBoldItalic = "bold-italic"
)

// Load returns the font bytes for a weight name. Unknown names resolve to
// regular; an empty name is regular.
func Load(weight string) []byte {
	switch Normalize(weight) {
	case WeightBold:
		return lmroman10bold.TTF
	case WeightItalic:
		return lmroman10italic.TTF
	case WeightBoldItalic:
		return lmroman10bolditalic.TTF
	default:
		return lmroman10regular.TTF
	}
}

// Normalize folds weight aliases ("b", "strong", "oblique", ...) onto the
// canonical names. Anything unrecognized becomes regular so a sloppy intent
// still renders.
func Normalize(weight string) string {
	s := strings.ToLower(strings.TrimSpace(weight))
	bold := strings.Contains(s, "bold") || s == "b" || s == "strong" || s == "heavy"
	italic := strings.Contains(s, "italic") || strings.Contains(s, "oblique") || s == "i"
	switch {
	case bold && italic:
		return WeightBoldItalic
	case bold:
		return WeightBold
	case italic:
		return WeightItalic
	default:
		return WeightRegular
	}
}
