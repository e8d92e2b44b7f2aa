package fluid

// Channel interpretations with a known number of floats per grid cell.
const (
	Density    = "density"
	Velocity   = "velocity"
	Resolution = "resolution"
	Offset     = "offset"
)

// Channel is the decoded data of one CHNM/FBCA pair.
type Channel struct {
	Name           string
	Interpretation string
	Data           []float32

	shape *Shape
}

// Shape returns the shape the channel belongs to.
func (c *Channel) Shape() *Shape { return c.shape }

// Width returns the number of floats per grid cell, or 0 when the channel
// is not a per-cell grid.
func (c *Channel) Width() int {
	switch c.Interpretation {
	case Density:
		return 1
	case Velocity:
		return 3
	}
	return 0
}
