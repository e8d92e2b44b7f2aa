package fluid

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// SetupBlend adds a shape named name to frame covering the union of the
// boxes of a and b, at a's cell size. The shape's resolution and offset are
// stored as channels so the written frame describes its own grid.
func SetupBlend(frame *Frame, name string, a, b *Shape) (*Shape, error) {
	if a == nil || b == nil {
		return nil, errors.Wrapf(ErrUnknownShape, "blend sources for %s", name)
	}
	if frame.shapes == nil {
		frame.initShapes()
	}

	lo := mgl64.Vec3{}
	hi := mgl64.Vec3{}
	aLo, aHi, bLo, bHi := a.BBMin(), a.BBMax(), b.BBMin(), b.BBMax()
	for i := range 3 {
		lo[i] = math.Min(aLo[i], bLo[i])
		hi[i] = math.Max(aHi[i], bHi[i])
	}

	spec := a.Spec
	spec.Name = name
	for i := range 3 {
		spec.Resolution[i] = max(1, int(math.Round((hi[i]-lo[i])/spec.UnitSize[i])))
		spec.Dimensions[i] = float64(spec.Resolution[i]) * spec.UnitSize[i]
	}
	spec.Offset = lo.Add(hi).Mul(0.5)

	s := newShape(frame, spec)
	s.srcA, s.srcB = a, b
	frame.shapes[name] = s

	c := frame.cache
	c.ensureChannel(name, Resolution)
	c.ensureChannel(name, Offset)
	s.setChannel(name+"_"+Resolution, Resolution, []float32{
		float32(spec.Resolution[0]), float32(spec.Resolution[1]), float32(spec.Resolution[2]),
	})
	s.setChannel(name+"_"+Offset, Offset, []float32{
		float32(spec.Offset[0]), float32(spec.Offset[1]), float32(spec.Offset[2]),
	})
	return s, nil
}

// Blend fills the shape's density with a mix of its two sources at weight t
// towards the second one. When advect is positive and both sources carry
// velocity, each source is sampled where its fluid would have moved from.
// If either source has no density the shape keeps only its grid channels.
func (s *Shape) Blend(t, advect float64) error {
	a, b := s.srcA, s.srcB
	if a == nil || b == nil {
		return errors.Errorf("shape %s has no blend sources", s.Name)
	}
	da, db := a.Channels[Density], b.Channels[Density]
	if da == nil || db == nil {
		return nil
	}

	va, vb := a.Channels[Velocity], b.Channels[Velocity]
	advecting := advect > 0 && va != nil && vb != nil
	var scale float64
	if advecting {
		tpf := float64(s.frame.cache.TimePerFrame)
		scale = advect * float64(b.frame.start-a.frame.end) / tpf
	}

	out := make([]float32, 0, s.Cells())
	for c := range s.Centers() {
		pa, pb := c, c
		if advecting {
			velA, err := a.LookupVelocity(va, c)
			if err != nil {
				return err
			}
			velB, err := b.LookupVelocity(vb, c)
			if err != nil {
				return err
			}
			pa = c.Sub(velA.Mul(t * scale))
			pb = c.Add(velB.Mul((1 - t) * scale))
		}
		x, err := a.LookupValue(da, pa)
		if err != nil {
			return err
		}
		y, err := b.LookupValue(db, pb)
		if err != nil {
			return err
		}
		out = append(out, float32(float64(x[0])*(1-t)+float64(y[0])*t))
	}

	s.frame.cache.ensureChannel(s.Name, Density)
	s.setChannel(s.Name+"_"+Density, Density, out)
	return nil
}
