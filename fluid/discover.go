package fluid

import (
	"cmp"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"

	"github.com/pkg/errors"
)

// FrameFile is a frame file found on disk. Tick is the sub-frame offset, or
// 0 for whole frames.
type FrameFile struct {
	Path  string
	Frame int
	Tick  int
}

// DiscoverFrames lists the files in dir named <base>Frame<N>.mc or
// <base>Frame<N>Tick<M>.mc, ordered by frame and tick.
func DiscoverFrames(dir, base string) ([]FrameFile, error) {
	re := regexp.MustCompile(`^` + regexp.QuoteMeta(base) + `Frame(-?\d+)(?:Tick(\d+))?\.mc$`)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "listing frames")
	}

	var files []FrameFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := re.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		ff := FrameFile{Path: filepath.Join(dir, e.Name())}
		if ff.Frame, err = strconv.Atoi(m[1]); err != nil {
			continue
		}
		if m[2] != "" {
			if ff.Tick, err = strconv.Atoi(m[2]); err != nil {
				continue
			}
		}
		files = append(files, ff)
	}

	slices.SortFunc(files, func(a, b FrameFile) int {
		if c := cmp.Compare(a.Frame, b.Frame); c != 0 {
			return c
		}
		return cmp.Compare(a.Tick, b.Tick)
	})
	return files, nil
}

// framePath names the file of a frame starting at tick.
func framePath(dir, base string, tick, timePerFrame int) string {
	frame, sub := tick/timePerFrame, tick%timePerFrame
	if sub < 0 {
		frame--
		sub += timePerFrame
	}
	name := base + "Frame" + strconv.Itoa(frame)
	if sub != 0 {
		name += "Tick" + strconv.Itoa(sub)
	}
	return filepath.Join(dir, name+".mc")
}
