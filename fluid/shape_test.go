package fluid

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testShape(t *testing.T, density float32) *Shape {
	t.Helper()
	c, err := parseXML(t, testXML)
	require.NoError(t, err)
	s, err := memFrame(t, c, 0, density).Shape(shapeName)
	require.NoError(t, err)
	return s
}

func TestShapeBounds(t *testing.T) {
	s := testShape(t, 1)
	assert.Equal(t, mgl64.Vec3{-1, -1, -1}, s.BBMin())
	assert.Equal(t, mgl64.Vec3{1, 1, 1}, s.BBMax())

	_, err := s.frame.AddChannel(shapeName+"_offset", []float32{1, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, mgl64.Vec3{0, -1, -1}, s.BBMin())
	assert.Equal(t, mgl64.Vec3{2, 1, 1}, s.BBMax())

	_, err = s.frame.AddChannel(shapeName+"_resolution", []float32{4, 2, 2})
	require.NoError(t, err)
	assert.Equal(t, [3]int{4, 2, 2}, s.Resolution)
	assert.Equal(t, mgl64.Vec3{-1, -1, -1}, s.BBMin())
}

func TestShapeCenters(t *testing.T) {
	s := testShape(t, 1)
	var got []mgl64.Vec3
	for c := range s.Centers() {
		got = append(got, c)
	}
	require.Len(t, got, 8)
	assert.Equal(t, mgl64.Vec3{-0.5, -0.5, -0.5}, got[0])
	assert.Equal(t, mgl64.Vec3{0.5, -0.5, -0.5}, got[1])
	assert.Equal(t, mgl64.Vec3{-0.5, 0.5, -0.5}, got[2])
	assert.Equal(t, mgl64.Vec3{0.5, 0.5, 0.5}, got[7])

	n := 0
	for range s.Centers() {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestIndexForPoint(t *testing.T) {
	s := testShape(t, 1)
	tests := []struct {
		p    mgl64.Vec3
		want [3]int
	}{
		{mgl64.Vec3{-1, -1, -1}, [3]int{0, 0, 0}},
		{mgl64.Vec3{0.5, -0.5, 0.5}, [3]int{1, 0, 1}},
		{mgl64.Vec3{1, 1, 1}, [3]int{1, 1, 1}},
	}
	for _, tt := range tests {
		got, err := s.IndexForPoint(tt.p)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%v", tt.p)
	}

	for _, p := range []mgl64.Vec3{{1.5, 0, 0}, {0, -1.01, 0}, {0, 0, 3}} {
		_, err := s.IndexForPoint(p)
		assert.ErrorIs(t, err, ErrOutOfBounds, "%v", p)
	}
}

func TestLookupValue(t *testing.T) {
	s := testShape(t, 1)
	ch := s.Channels[Density]
	for i := range ch.Data {
		ch.Data[i] = float32(i)
	}

	v, err := s.LookupValue(ch, mgl64.Vec3{0.5, 0.5, -0.5})
	require.NoError(t, err)
	assert.Equal(t, []float32{3}, v)

	v, err = s.LookupValue(ch, mgl64.Vec3{5, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, []float32{0}, v)

	short := &Channel{Name: "short", Interpretation: Density, Data: []float32{1, 2, 3}}
	_, err = s.LookupValue(short, mgl64.Vec3{})
	assert.ErrorIs(t, err, ErrShortChannel)
}

func TestLookupVelocity(t *testing.T) {
	s := testShape(t, 1)
	require.Equal(t, 36, s.staggeredLen())

	// x faces, then y faces, then z faces, 12 of each on a 2x2x2 grid.
	var staggered []float32
	staggered = append(staggered, fill(12, 1)...)
	staggered = append(staggered, fill(12, 2)...)
	staggered = append(staggered, fill(12, 3)...)
	// The last cell's lower faces.
	staggered[1+1*3+1*3*2] = 10
	staggered[12+1+1*2+1*2*3] = 20
	staggered[24+1+1*2+1*2*2] = 30

	ch := &Channel{Name: "v", Interpretation: Velocity, Data: staggered}
	v, err := s.LookupVelocity(ch, mgl64.Vec3{-0.5, -0.5, -0.5})
	require.NoError(t, err)
	assert.Equal(t, mgl64.Vec3{1, 2, 3}, v)

	v, err = s.LookupVelocity(ch, mgl64.Vec3{0.5, 0.5, 0.5})
	require.NoError(t, err)
	assert.Equal(t, mgl64.Vec3{10, 20, 30}, v)

	v, err = s.LookupVelocity(ch, mgl64.Vec3{9, 9, 9})
	require.NoError(t, err)
	assert.Equal(t, mgl64.Vec3{}, v)

	var cells []float32
	for range 8 {
		cells = append(cells, 4, 5, 6)
	}
	v, err = s.LookupVelocity(&Channel{Name: "v", Interpretation: Velocity, Data: cells}, mgl64.Vec3{})
	require.NoError(t, err)
	assert.Equal(t, mgl64.Vec3{4, 5, 6}, v)

	_, err = s.LookupVelocity(&Channel{Name: "v", Data: cells[:6]}, mgl64.Vec3{})
	assert.ErrorIs(t, err, ErrShortChannel)
}

func TestChannelWidth(t *testing.T) {
	for interp, want := range map[string]int{Density: 1, Velocity: 3, Offset: 0, "temperature": 0} {
		assert.Equal(t, want, (&Channel{Interpretation: interp}).Width(), interp)
	}
}
