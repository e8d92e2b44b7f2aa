package fluid

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/require"
)

const testXML = `<?xml version="1.0"?>
<Autodesk_Cache_File>
  <cacheType Type="OneFilePerFrame" Format="mcc"/>
  <time Range="250-500"/>
  <cacheTimePerFrame TimePerFrame="250"/>
  <cacheVersion Version="2.0"/>
  <extra>fluidShape1.dimensionsW=2</extra>
  <extra>fluidShape1.dimensionsH=2</extra>
  <extra>fluidShape1.dimensionsD=2</extra>
  <extra>fluidShape1.resolutionW=2</extra>
  <extra>fluidShape1.resolutionH=2</extra>
  <extra>fluidShape1.resolutionD=2</extra>
  <extra>fluidShape1.densityScale=0.5</extra>
  <extra>sceneName=untitled</extra>
  <Channels>
    <channel0 ChannelName="fluidShape1_density" ChannelType="FloatArray" ChannelInterpretation="density" SamplingType="Regular" SamplingRate="250" StartTime="250" EndTime="500"/>
    <channel1 ChannelName="fluidShape1_velocity" ChannelType="FloatArray" ChannelInterpretation="velocity" SamplingType="Regular" SamplingRate="250" StartTime="250" EndTime="500"/>
    <channel2 ChannelName="fluidShape1_resolution" ChannelType="FloatArray" ChannelInterpretation="resolution" SamplingType="Regular" SamplingRate="250" StartTime="250" EndTime="500"/>
    <channel3 ChannelName="fluidShape1_offset" ChannelType="FloatArray" ChannelInterpretation="offset" SamplingType="Regular" SamplingRate="250" StartTime="250" EndTime="500"/>
  </Channels>
</Autodesk_Cache_File>
`

const shapeName = "fluidShape1"

func etreeDoc(t *testing.T, text string) *etree.Document {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(text))
	return doc
}

func parseXML(t *testing.T, text string) (*Cache, error) {
	t.Helper()
	return Parse(etreeDoc(t, text))
}

func fill(n int, v float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// memFrame builds an in-memory 2x2x2 frame with a uniform density.
func memFrame(t *testing.T, c *Cache, start int, density float32) *Frame {
	t.Helper()
	f := c.NewFrame(start, start)
	_, err := f.AddChannel(shapeName+"_density", fill(8, density))
	require.NoError(t, err)
	_, err = f.AddChannel(shapeName+"_resolution", []float32{2, 2, 2})
	require.NoError(t, err)
	_, err = f.AddChannel(shapeName+"_offset", []float32{0, 0, 0})
	require.NoError(t, err)
	return f
}

// writeCache writes the test description to dir with one frame per density,
// starting at tick 250 and one frame apart, and opens it again from disk.
func writeCache(t *testing.T, dir string, densities ...float32) *Cache {
	t.Helper()
	path := filepath.Join(dir, "fluid.xml")
	require.NoError(t, os.WriteFile(path, []byte(testXML), 0o644))

	c, err := Open(path)
	require.NoError(t, err)
	for i, d := range densities {
		start := (i + 1) * TimePerFrame
		require.NoError(t, memFrame(t, c, start, d).WriteFile(c.FramePath(start)))
	}

	c, err = Open(path)
	require.NoError(t, err)
	return c
}
