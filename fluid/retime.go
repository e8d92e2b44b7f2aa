package fluid

import (
	"context"
	"math"
	"os"
	"sort"

	"github.com/pkg/errors"
)

// RetimeOptions controls Retime. Times are in frames.
type RetimeOptions struct {
	// Start and End bound the output. Nil means the first frame's start and
	// the last frame's end.
	Start, End *float64
	// Rate is the output step. Zero means 1.
	Rate float64
	// Advect scales velocity advection while blending. Zero disables it.
	Advect float64
	// Output is the XML path of the new cache.
	Output string
}

// Retime resamples src at a new frame rate into a cache written at
// opts.Output. Each output tick blends the source frames around it; ticks
// that land on a source frame copy it.
func Retime(ctx context.Context, src *Cache, opts RetimeOptions) (*Cache, error) {
	if opts.Output == "" {
		return nil, errors.New("retime: no output path")
	}
	rate := opts.Rate
	if rate <= 0 {
		rate = 1
	}

	all, err := src.SortFrames(ctx)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, errors.Wrapf(ErrNoFrames, "%s", src.Path())
	}

	tpf := src.TimePerFrame
	start, end := all[0].start, all[len(all)-1].end
	if opts.Start != nil {
		start = int(*opts.Start * float64(tpf))
	}
	if opts.End != nil {
		end = int(*opts.End * float64(tpf))
	}

	var frames []*Frame
	for _, f := range all {
		if f.start >= start && f.end <= end {
			frames = append(frames, f)
		}
	}
	if len(frames) == 0 {
		return nil, errors.Wrapf(ErrNoFrames, "between ticks %d and %d", start, end)
	}

	dst := src.Clone()
	if err := dst.SetPath(opts.Output); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dst.Dir(), 0o755); err != nil {
		return nil, errors.Wrap(err, "creating output directory")
	}

	log := src.logger.With("cache", src.BaseName(), "output", dst.Path())
	log.Info("retiming", "start", start, "end", end, "rate", rate, "frames", len(frames))

	var (
		written []*Frame
		freed   int
		step    = rate * float64(tpf)
	)
	for i := 0; ; i++ {
		tick := int(math.Round(float64(start) + float64(i)*step))
		if tick > end {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ai := sort.Search(len(frames), func(j int) bool { return frames[j].start > tick }) - 1
		bi := sort.Search(len(frames), func(j int) bool { return frames[j].start >= tick })
		if ai < 0 {
			ai = bi
		}
		if bi >= len(frames) {
			bi = ai
		}
		a, b := frames[ai], frames[bi]

		for ; freed < ai; freed++ {
			frames[freed].Free()
		}

		out := dst.NewFrame(tick, tick)
		if a == b || a.start == b.start {
			err = out.copyFrom(a)
		} else {
			t := float64(tick-a.start) / float64(b.start-a.start)
			err = blendFrames(out, a, b, t, opts.Advect)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "tick %d", tick)
		}

		path := dst.FramePath(tick)
		if err := out.WriteFile(path); err != nil {
			return nil, err
		}
		log.Debug("wrote frame", "tick", tick, "path", path, "a", a.start, "b", b.start)

		// The written file now backs the frame.
		out.path = path
		out.Free()
		written = append(written, out)
	}

	for _, f := range frames[freed:] {
		f.Free()
	}
	if len(written) == 0 {
		return nil, errors.Wrapf(ErrNoFrames, "no ticks between %d and %d", start, end)
	}

	dst.UpdateXML(written[0].start, written[len(written)-1].start)
	if err := dst.WriteXML(dst.Path()); err != nil {
		return nil, err
	}
	dst.frames = written
	dst.discovered = true
	log.Info("retimed", "frames", len(written))
	return dst, nil
}

// blendFrames fills out with every shape of a and b blended at weight t.
func blendFrames(out, a, b *Frame, t, advect float64) error {
	for _, name := range out.cache.ShapeNames() {
		sa, err := a.Shape(name)
		if err != nil {
			return err
		}
		sb, err := b.Shape(name)
		if err != nil {
			return err
		}
		s, err := SetupBlend(out, name, sa, sb)
		if err != nil {
			return err
		}
		if err := s.Blend(t, advect); err != nil {
			return err
		}
	}
	return nil
}

// copyFrom copies every channel of src into f.
func (f *Frame) copyFrom(src *Frame) error {
	channels, err := src.Channels()
	if err != nil {
		return err
	}
	for name, ch := range channels {
		data := make([]float32, len(ch.Data))
		copy(data, ch.Data)
		if _, err := f.AddChannel(name, data); err != nil {
			return err
		}
	}
	return nil
}
