package fluid

import (
	"iter"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// Shape is one fluid container in a frame: a regular grid of cells centred
// on Offset.
type Shape struct {
	Name string
	Spec ShapeSpec
	// Channels maps interpretation to channel.
	Channels map[string]*Channel

	Resolution [3]int
	Offset     mgl64.Vec3

	frame *Frame
	// Blend sources, set by SetupBlend.
	srcA, srcB *Shape
}

func newShape(f *Frame, spec ShapeSpec) *Shape {
	return &Shape{
		Name:       spec.Name,
		Spec:       spec,
		Channels:   make(map[string]*Channel),
		Resolution: spec.Resolution,
		Offset:     spec.Offset,
		frame:      f,
	}
}

// Frame returns the frame the shape belongs to.
func (s *Shape) Frame() *Frame { return s.frame }

// UnitSize returns the size of one grid cell.
func (s *Shape) UnitSize() mgl64.Vec3 { return s.Spec.UnitSize }

func (s *Shape) setChannel(name, interpretation string, data []float32) *Channel {
	ch := &Channel{Name: name, Interpretation: interpretation, Data: data, shape: s}
	s.Channels[interpretation] = ch
	s.frame.channels[name] = ch
	if interpretation == Resolution || interpretation == Offset {
		s.finalize()
	}
	return ch
}

// finalize applies the per-frame resolution and offset channels over the
// static spec.
func (s *Shape) finalize() {
	s.Resolution = s.Spec.Resolution
	if ch := s.Channels[Resolution]; ch != nil && len(ch.Data) >= 3 {
		for i := range 3 {
			s.Resolution[i] = int(math.Round(float64(ch.Data[i])))
		}
	}
	s.Offset = s.Spec.Offset
	if ch := s.Channels[Offset]; ch != nil && len(ch.Data) >= 3 {
		for i := range 3 {
			s.Offset[i] = float64(ch.Data[i])
		}
	}
}

func (s *Shape) halfExtent() mgl64.Vec3 {
	var h mgl64.Vec3
	for i := range 3 {
		h[i] = float64(s.Resolution[i]) * s.Spec.UnitSize[i] / 2
	}
	return h
}

// BBMin returns the lower corner of the grid.
func (s *Shape) BBMin() mgl64.Vec3 { return s.Offset.Sub(s.halfExtent()) }

// BBMax returns the upper corner of the grid.
func (s *Shape) BBMax() mgl64.Vec3 { return s.Offset.Add(s.halfExtent()) }

// Cells returns the number of grid cells.
func (s *Shape) Cells() int {
	return s.Resolution[0] * s.Resolution[1] * s.Resolution[2]
}

// Centers yields the centre of every cell in storage order: x varies
// fastest, then y, then z.
func (s *Shape) Centers() iter.Seq[mgl64.Vec3] {
	return func(yield func(mgl64.Vec3) bool) {
		lo, unit := s.BBMin(), s.Spec.UnitSize
		for z := range s.Resolution[2] {
			for y := range s.Resolution[1] {
				for x := range s.Resolution[0] {
					c := mgl64.Vec3{
						lo[0] + unit[0]*(float64(x)+0.5),
						lo[1] + unit[1]*(float64(y)+0.5),
						lo[2] + unit[2]*(float64(z)+0.5),
					}
					if !yield(c) {
						return
					}
				}
			}
		}
	}
}

// IndexForPoint returns the cell holding p. Points on the upper face fall
// into the last cell.
func (s *Shape) IndexForPoint(p mgl64.Vec3) ([3]int, error) {
	var idx [3]int
	lo, hi := s.BBMin(), s.BBMax()
	for i := range 3 {
		if p[i] < lo[i] || p[i] > hi[i] || math.IsNaN(p[i]) {
			return idx, errors.Wrapf(ErrOutOfBounds, "point %v in shape %s", p, s.Name)
		}
		idx[i] = int((p[i] - lo[i]) / s.Spec.UnitSize[i])
		if idx[i] >= s.Resolution[i] {
			idx[i] = s.Resolution[i] - 1
		}
	}
	return idx, nil
}

func (s *Shape) cellIndex(idx [3]int) int {
	w, h := s.Resolution[0], s.Resolution[1]
	return idx[0] + idx[1]*w + idx[2]*w*h
}

// LookupValue returns the Width() floats of ch in the cell holding p.
// Points outside the grid read as zeros.
func (s *Shape) LookupValue(ch *Channel, p mgl64.Vec3) ([]float32, error) {
	width := ch.Width()
	out := make([]float32, width)
	if need := width * s.Cells(); len(ch.Data) < need {
		return nil, errors.Wrapf(ErrShortChannel, "%s has %d floats, grid needs %d", ch.Name, len(ch.Data), need)
	}
	idx, err := s.IndexForPoint(p)
	if err != nil {
		return out, nil
	}
	i := width * s.cellIndex(idx)
	copy(out, ch.Data[i:i+width])
	return out, nil
}

// staggeredLen is the float count of a face-centred velocity grid.
func (s *Shape) staggeredLen() int {
	w, h, d := s.Resolution[0], s.Resolution[1], s.Resolution[2]
	return (w+1)*h*d + w*(h+1)*d + w*h*(d+1)
}

// LookupVelocity returns the velocity in the cell holding p. A channel of
// staggeredLen floats holds the x faces, then the y faces, then the z faces,
// and the cell's lower face is read on each axis. Any other channel holds
// three floats per cell. Points outside the grid read as zero.
func (s *Shape) LookupVelocity(ch *Channel, p mgl64.Vec3) (mgl64.Vec3, error) {
	if len(ch.Data) != s.staggeredLen() {
		v, err := s.LookupValue(&Channel{Name: ch.Name, Interpretation: Velocity, Data: ch.Data}, p)
		if err != nil {
			return mgl64.Vec3{}, err
		}
		return mgl64.Vec3{float64(v[0]), float64(v[1]), float64(v[2])}, nil
	}

	idx, err := s.IndexForPoint(p)
	if err != nil {
		return mgl64.Vec3{}, nil
	}
	w, h, d := s.Resolution[0], s.Resolution[1], s.Resolution[2]
	x, y, z := idx[0], idx[1], idx[2]
	xFaces := (w + 1) * h * d
	yFaces := w * (h + 1) * d
	return mgl64.Vec3{
		float64(ch.Data[x+y*(w+1)+z*(w+1)*h]),
		float64(ch.Data[x+y*w+z*w*(h+1)+xFaces]),
		float64(ch.Data[x+y*w+z*w*h+xFaces+yFaces]),
	}, nil
}
