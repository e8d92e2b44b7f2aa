// Command mccfluid summarizes fluid caches and optionally prints the
// density and velocity of every cell.
//
//	mccfluid [-velocities] [-s start] [-e end] cache.xml...
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/robert-malhotra/go-mayacache/fluid"
)

func main() {
	var (
		velocities bool
		start, end float64
	)
	flag.BoolVar(&velocities, "velocities", false, "print density and velocity per cell")
	flag.Float64Var(&start, "s", 0, "first frame to print (default: first cached frame)")
	flag.Float64Var(&end, "e", 0, "last frame to print (default: last cached frame)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	for _, path := range flag.Args() {
		if err := summarize(os.Stdout, path, velocities, start, end); err != nil {
			logger.Error("reading cache", "cache", path, "err", err)
			os.Exit(1)
		}
	}
}

func summarize(w io.Writer, path string, velocities bool, startFrame, endFrame float64) error {
	c, err := fluid.Open(path)
	if err != nil {
		return err
	}
	defer c.Free()

	frames, err := c.SortFrames(context.Background())
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s: %d frames\n", c.Path(), len(frames))
	for _, name := range c.ShapeNames() {
		spec := c.ShapeSpecs[name]
		fmt.Fprintf(w, "  shape %s: resolution %v, dimensions %v\n", name, spec.Resolution, spec.Dimensions)
	}
	for _, f := range frames {
		fmt.Fprintf(w, "  frame %d-%d %s\n", f.StartTime(), f.EndTime(), f.Path())
	}
	if !velocities || len(frames) == 0 {
		return nil
	}

	start, end := frames[0].StartTime(), frames[len(frames)-1].EndTime()
	if startFrame != 0 {
		start = int(startFrame * float64(c.TimePerFrame))
	}
	if endFrame != 0 {
		end = int(endFrame * float64(c.TimePerFrame))
	}
	end = max(start, end)

	for _, f := range frames {
		if f.StartTime() < start || f.EndTime() > end {
			continue
		}
		shapes, err := f.Shapes()
		if err != nil {
			return err
		}
		for _, name := range c.ShapeNames() {
			s := shapes[name]
			den, vel := s.Channels[fluid.Density], s.Channels[fluid.Velocity]
			if den == nil || vel == nil {
				continue
			}
			for p := range s.Centers() {
				d, err := s.LookupValue(den, p)
				if err != nil {
					return err
				}
				v, err := s.LookupVelocity(vel, p)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%6.3g %6.3g %6.3g | %6.3g | %6.3g %6.3g %6.3g\n",
					p[0], p[1], p[2], d[0], v[0], v[1], v[2])
			}
		}
		f.Free()
	}
	return nil
}
