package fluid

import (
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// Shape metadata keys read from the XML extra elements.
var shapeKeys = [2][3]string{
	{"dimensionsW", "dimensionsH", "dimensionsD"},
	{"resolutionW", "resolutionH", "resolutionD"},
}

func isShapeKey(key string) bool {
	for _, axis := range shapeKeys {
		for _, k := range axis {
			if k == key {
				return true
			}
		}
	}
	return false
}

// ShapeSpec is the static description of one fluid shape.
type ShapeSpec struct {
	Name       string
	Dimensions mgl64.Vec3
	Resolution [3]int
	// UnitSize is the size of one grid cell: Dimensions / Resolution.
	UnitSize mgl64.Vec3
	// Offset is the default grid centre. Frames usually override it.
	Offset mgl64.Vec3
}

func newShapeSpec(name string, extra map[string]float64) (ShapeSpec, error) {
	s := ShapeSpec{Name: name}
	for i := range 3 {
		dim, ok := extra[shapeKeys[0][i]]
		if !ok {
			return s, invalid("extra", "shape %s has no %s", name, shapeKeys[0][i])
		}
		res, ok := extra[shapeKeys[1][i]]
		if !ok {
			return s, invalid("extra", "shape %s has no %s", name, shapeKeys[1][i])
		}
		if !(dim > 0) || math.IsInf(dim, 0) {
			return s, invalid("extra", "shape %s has bad %s %v", name, shapeKeys[0][i], dim)
		}
		if res <= 0 || res != math.Trunc(res) {
			return s, invalid("extra", "shape %s has bad %s %v", name, shapeKeys[1][i], res)
		}
		s.Dimensions[i] = dim
		s.Resolution[i] = int(res)
		s.UnitSize[i] = dim / res
	}
	return s, nil
}

// ChannelSpec is the static description of one channel. The XML channel
// name is "<shape>_<interpretation>".
type ChannelSpec struct {
	Name           string
	Shape          string
	Interpretation string
}

// ParseChannelSpec splits name on its last underscore. A non-empty
// interpretation must agree with the split.
func ParseChannelSpec(name, interpretation string) (ChannelSpec, error) {
	i := strings.LastIndexByte(name, '_')
	if i <= 0 || i == len(name)-1 {
		return ChannelSpec{}, invalid("Channels", "channel name %q is not <shape>_<interpretation>", name)
	}
	spec := ChannelSpec{Name: name, Shape: name[:i], Interpretation: name[i+1:]}
	if interpretation != "" && interpretation != spec.Interpretation {
		return ChannelSpec{}, invalid("Channels", "channel %s has interpretation %q", name, interpretation)
	}
	return spec, nil
}
