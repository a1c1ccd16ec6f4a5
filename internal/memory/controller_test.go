package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGPU records calls instead of talking to OpenGL.
type fakeGPU struct {
	next     uint32
	sizes    map[uint32]int // vbo -> bytes
	uploads  map[uint32]int // vbo -> floats uploaded last
	draws    []uint32       // vaos, in draw order
	released int
}

func newFakeGPU() *fakeGPU {
	return &fakeGPU{sizes: make(map[uint32]int), uploads: make(map[uint32]int)}
}

func (f *fakeGPU) createBuffer(bytes int) (vao, vbo uint32) {
	f.next += 2
	f.sizes[f.next] = bytes
	return f.next - 1, f.next
}

func (f *fakeGPU) resize(_, vbo uint32, bytes int) { f.sizes[vbo] = bytes }

func (f *fakeGPU) upload(vbo uint32, vertices []float32) {
	if len(vertices)*4 > f.sizes[vbo] {
		panic("upload overflows buffer")
	}
	f.uploads[vbo] = len(vertices)
}

func (f *fakeGPU) draw(vao uint32, _ int) { f.draws = append(f.draws, vao) }

func (f *fakeGPU) release(_, vbo uint32) {
	delete(f.sizes, vbo)
	f.released++
}

func triangles(n int) []float32 { return make([]float32, n*3*FloatsPerVertex) }

func TestCapacityFor(t *testing.T) {
	tests := []struct {
		vertices int
		want     int
		bucket   BucketSize
	}{
		{3, vertexCapacityS, BucketS},
		{1024, vertexCapacityS, BucketS},
		{1025, vertexCapacityM, BucketM},
		{16384, vertexCapacityL, BucketL},
		{65536, vertexCapacityXL, BucketXL},
		{65537, 2 * vertexCapacityXL, BucketXXL},
		{300000, 8 * vertexCapacityXL, BucketXXL},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, capacityFor(tt.vertices), "vertices=%d", tt.vertices)
		assert.Equal(t, tt.bucket, selectBucket(tt.vertices), "vertices=%d", tt.vertices)
	}
	assert.Equal(t, "xxlarge", BucketXXL.String())
}

func TestVertexCount(t *testing.T) {
	n, err := vertexCount(triangles(2))
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	_, err = vertexCount(make([]float32, 7))
	assert.Error(t, err)
	_, err = vertexCount(make([]float32, 2*FloatsPerVertex))
	assert.ErrorContains(t, err, "whole triangles")
}

func TestUploadGrowAndRemove(t *testing.T) {
	g := newFakeGPU()
	c := newController(g)

	require.NoError(t, c.Upload("camera", triangles(10)))
	require.True(t, c.Has("camera"))
	assert.Equal(t, vertexCapacityS*bytesPerVertex, g.sizes[2])

	// Growing past the bucket reallocates in place.
	require.NoError(t, c.Upload("camera", triangles(500)))
	assert.Equal(t, vertexCapacityM*bytesPerVertex, g.sizes[2])
	assert.Equal(t, 1500*FloatsPerVertex, g.uploads[2])

	stats := c.Stats()
	assert.Equal(t, 1, stats.TotalLayers)
	assert.Equal(t, int64(1500), stats.TotalVertices)
	assert.Equal(t, 1, stats.GrowthEvents)

	// Uploading nothing removes the layer.
	require.NoError(t, c.Upload("camera", nil))
	assert.False(t, c.Has("camera"))
	assert.Equal(t, 1, g.released)

	assert.Error(t, c.Upload("camera", make([]float32, 5)))
}

func TestDrawOrder(t *testing.T) {
	g := newFakeGPU()
	c := newController(g)
	require.NoError(t, c.Upload("zeta", triangles(1)))    // vao 1
	require.NoError(t, c.Upload("camera", triangles(1)))  // vao 3
	require.NoError(t, c.Upload("alpha", triangles(1)))   // vao 5
	require.NoError(t, c.Upload("overlay", triangles(1))) // vao 7

	c.SetOrder([]LayerID{"overlay", "missing", "camera"})
	assert.Equal(t, []LayerID{"overlay", "camera", "alpha", "zeta"}, c.drawOrder())

	c.Draw()
	assert.Equal(t, []uint32{7, 3, 5, 1}, g.draws)
	assert.Equal(t, 4, c.Stats().DrawCallsPerFrame)

	c.Cleanup()
	assert.Empty(t, g.sizes)
}

func TestCompaction(t *testing.T) {
	g := newFakeGPU()
	c := newController(g)
	require.NoError(t, c.Upload("dense", triangles(300)))  // 900 of 1024
	require.NoError(t, c.Upload("sparse", triangles(500))) // grows to 4096
	require.NoError(t, c.Upload("sparse", triangles(10)))  // 30 of 4096
	require.NoError(t, c.Upload("small", triangles(1)))    // already minimal

	assert.Equal(t, []LayerID{"sparse"}, c.ScanForCompaction())
	assert.Equal(t, []LayerID{"sparse"}, c.TryCompaction())
	assert.Equal(t, vertexCapacityS*bytesPerVertex, g.sizes[4])
	assert.Equal(t, 1, c.Stats().ShrinkEvents)

	// Until re-uploaded, the shrunk layer isn't drawn.
	c.Draw()
	assert.Equal(t, 2, c.Stats().DrawCallsPerFrame)
	require.NoError(t, c.Upload("sparse", triangles(10)))
	assert.Empty(t, c.ScanForCompaction())
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "999", formatNumber(999))
	assert.Equal(t, "1.5K", formatNumber(1500))
	assert.Equal(t, "2.0M", formatNumber(2000000))
	assert.Equal(t, "██░░", makeUtilizationBar(0.5, 4))
	assert.Equal(t, "████", makeUtilizationBar(3, 4))
}
