// Package memory manages the GPU buffers holding floorplan overlay geometry.
//
// Each marker layer owns one VBO+VAO ("batch"). Layers are re-uploaded
// wholesale when any of their markers change, so a batch only ever holds a
// single contiguous run of triangles. Capacities are rounded up to size
// buckets to keep reallocations rare while markers are dragged around.
package memory

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
)

var memoryLogger *log.Logger = log.New(io.Discard, "", 0)

func init() {
	if os.Getenv("SITEWALK_DEBUG_MEMORY") == "1" {
		memoryLogger = log.New(os.Stdout, "[memory] ", log.Ltime|log.Lmsgprefix)
	}
}

const (
	// FloatsPerVertex is the vertex layout: x, y, r, g, b, a.
	FloatsPerVertex = 6
	bytesPerVertex  = FloatsPerVertex * 4

	// Bucket configuration, in vertices.
	vertexCapacityS  = 1024
	vertexCapacityM  = 4096
	vertexCapacityL  = 16384
	vertexCapacityXL = 65536

	// MaxBatchBytes bounds a single layer's buffer.
	MaxBatchBytes = 256 * 1024 * 1024 // 256 MiB
)

// BucketSize represents the size category of a batch's capacity.
type BucketSize int

const (
	BucketS   BucketSize = iota // 1K vertices (~341 triangles)
	BucketM                     // 4K vertices (~1365 triangles)
	BucketL                     // 16K vertices (~5461 triangles)
	BucketXL                    // 64K vertices (~21845 triangles)
	BucketXXL                   // sized to fit, rounded to a power of two
)

func (bs BucketSize) String() string {
	switch bs {
	case BucketS:
		return "small"
	case BucketM:
		return "medium"
	case BucketL:
		return "large"
	case BucketXL:
		return "xlarge"
	case BucketXXL:
		return "xxlarge"
	default:
		return "unknown"
	}
}

// selectBucket chooses the smallest bucket that can fit the given vertex count.
func selectBucket(vertexCount int) BucketSize {
	switch {
	case vertexCount <= vertexCapacityS:
		return BucketS
	case vertexCount <= vertexCapacityM:
		return BucketM
	case vertexCount <= vertexCapacityL:
		return BucketL
	case vertexCount <= vertexCapacityXL:
		return BucketXL
	default:
		return BucketXXL
	}
}

// capacityFor returns the vertex capacity allocated for vertexCount vertices.
func capacityFor(vertexCount int) int {
	switch selectBucket(vertexCount) {
	case BucketS:
		return vertexCapacityS
	case BucketM:
		return vertexCapacityM
	case BucketL:
		return vertexCapacityL
	case BucketXL:
		return vertexCapacityXL
	}
	c := vertexCapacityXL
	for c < vertexCount {
		c *= 2
	}
	return c
}

// vertexCount validates a vertex slice and returns how many vertices it
// holds. Geometry is drawn as GL_TRIANGLES, so that must be a multiple of 3.
func vertexCount(vertices []float32) (int, error) {
	if len(vertices)%FloatsPerVertex != 0 {
		return 0, fmt.Errorf("vertex data has %d floats, not a multiple of %d", len(vertices), FloatsPerVertex)
	}
	n := len(vertices) / FloatsPerVertex
	if n%3 != 0 {
		return 0, fmt.Errorf("vertex data has %d vertices, not whole triangles", n)
	}
	if n*bytesPerVertex > MaxBatchBytes {
		return 0, fmt.Errorf("vertex data too large: %d bytes (max %d)", n*bytesPerVertex, MaxBatchBytes)
	}
	return n, nil
}

// LayerID identifies the geometry of one marker layer.
type LayerID string

// Batch is a VBO+VAO holding one layer's triangles.
type Batch struct {
	vbo, vao     uint32
	capacity     int // vertices
	count        int // vertices in use
	growthCycles int
	uploads      int
}

func (b *Batch) bucket() BucketSize { return selectBucket(b.capacity) }

// utilization is the fraction of the batch's capacity in use.
func (b *Batch) utilization() float64 {
	if b.capacity == 0 {
		return 0
	}
	return float64(b.count) / float64(b.capacity)
}

// Controller manages GPU memory for all layers.
type Controller struct {
	batches map[LayerID]*Batch
	order   []LayerID // draw order; layers not listed draw last, sorted
	stats   Stats
	gpu     gpu
}

// Stats tracks performance metrics for the controller.
type Stats struct {
	TotalLayers       int
	TotalVertices     int64
	TotalGPUBytes     int64
	DrawCallsPerFrame int
	GrowthEvents      int
	ShrinkEvents      int
	LastUploadTimeUs  float64
}

// NewController creates a controller. It must be called with a current GL
// context.
func NewController() *Controller {
	return newController(glBackend{})
}

func newController(g gpu) *Controller {
	return &Controller{batches: make(map[LayerID]*Batch), gpu: g}
}

// SetOrder sets the order layers are drawn in; later layers draw on top.
func (c *Controller) SetOrder(order []LayerID) {
	c.order = append([]LayerID(nil), order...)
}

// Upload replaces a layer's geometry. Uploading no vertices removes the
// layer.
func (c *Controller) Upload(id LayerID, vertices []float32) error {
	startTime := time.Now()
	n, err := vertexCount(vertices)
	if err != nil {
		return fmt.Errorf("layer %q: %w", id, err)
	}
	if n == 0 {
		c.Remove(id)
		return nil
	}

	batch, ok := c.batches[id]
	if !ok {
		batch = &Batch{capacity: capacityFor(n)}
		batch.vao, batch.vbo = c.gpu.createBuffer(batch.capacity * bytesPerVertex)
		c.batches[id] = batch
		memoryLogger.Printf("layer %q: new %s batch (%s vertices)", id, batch.bucket(), formatNumber(int64(batch.capacity)))
	} else if n > batch.capacity {
		c.resize(id, batch, capacityFor(n))
		batch.growthCycles++
		c.stats.GrowthEvents++
	}

	c.gpu.upload(batch.vbo, vertices)
	batch.count = n
	batch.uploads++
	c.stats.LastUploadTimeUs = float64(time.Since(startTime).Microseconds())
	return nil
}

// resize reallocates a batch's buffer. The contents are undefined until the
// next upload.
func (c *Controller) resize(id LayerID, batch *Batch, capacity int) {
	memoryLogger.Printf("layer %q: resizing %s -> %s vertices", id,
		formatNumber(int64(batch.capacity)), formatNumber(int64(capacity)))
	c.gpu.resize(batch.vao, batch.vbo, capacity*bytesPerVertex)
	batch.capacity = capacity
}

// Remove releases a layer's batch.
func (c *Controller) Remove(id LayerID) {
	batch, ok := c.batches[id]
	if !ok {
		return
	}
	c.gpu.release(batch.vao, batch.vbo)
	delete(c.batches, id)
}

// Has reports whether a layer has geometry uploaded.
func (c *Controller) Has(id LayerID) bool {
	_, ok := c.batches[id]
	return ok
}

// Layers returns the layers with geometry uploaded, in draw order.
func (c *Controller) Layers() []LayerID { return c.drawOrder() }

// drawOrder returns the layers to draw, bottom first.
func (c *Controller) drawOrder() []LayerID {
	seen := make(map[LayerID]bool, len(c.order))
	var ids []LayerID
	for _, id := range c.order {
		if _, ok := c.batches[id]; ok && !seen[id] {
			ids = append(ids, id)
			seen[id] = true
		}
	}
	var rest []LayerID
	for id := range c.batches {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	return append(ids, rest...)
}

// Draw renders every layer, in draw order.
func (c *Controller) Draw() {
	c.BeginFrame()
	c.DrawLayers(c.drawOrder())
}

// BeginFrame resets the per-frame draw call count.
func (c *Controller) BeginFrame() { c.stats.DrawCallsPerFrame = 0 }

// DrawLayers renders the given layers in order, skipping unknown ones. Draw
// calls accumulate in Stats until the next BeginFrame.
func (c *Controller) DrawLayers(ids []LayerID) {
	for _, id := range ids {
		batch, ok := c.batches[id]
		if !ok || batch.count == 0 {
			continue
		}
		c.gpu.draw(batch.vao, batch.count)
		c.stats.DrawCallsPerFrame++
	}
}

// Cleanup releases all GPU resources.
func (c *Controller) Cleanup() {
	for id := range c.batches {
		c.Remove(id)
	}
}

// Stats returns current memory statistics.
func (c *Controller) Stats() Stats {
	c.stats.TotalLayers = len(c.batches)
	c.stats.TotalVertices = 0
	c.stats.TotalGPUBytes = 0
	for _, batch := range c.batches {
		c.stats.TotalVertices += int64(batch.count)
		c.stats.TotalGPUBytes += int64(batch.capacity * bytesPerVertex)
	}
	return c.stats
}

// PrintStats outputs memory statistics with visual bars.
func (c *Controller) PrintStats() {
	stats := c.Stats()
	memoryLogger.Println("===== Memory Controller Stats =====")
	memoryLogger.Printf("%d layers, %s GPU (%s triangles, %s vertices), %d draw calls, %d growth / %d shrink events",
		stats.TotalLayers,
		formatNumber(stats.TotalGPUBytes),
		formatNumber(stats.TotalVertices/3),
		formatNumber(stats.TotalVertices),
		stats.DrawCallsPerFrame,
		stats.GrowthEvents,
		stats.ShrinkEvents,
	)
	for _, id := range c.drawOrder() {
		batch := c.batches[id]
		memoryLogger.Printf("  [%-12s] %s %.0f%% used (%s/%s vertices, %s), %d uploads, %d× growth",
			id,
			makeUtilizationBar(batch.utilization(), 12),
			batch.utilization()*100,
			formatNumber(int64(batch.count)),
			formatNumber(int64(batch.capacity)),
			batch.bucket(),
			batch.uploads,
			batch.growthCycles,
		)
	}
	memoryLogger.Println("===================================")
}

// makeUtilizationBar creates a visual bar for utilization percentage.
func makeUtilizationBar(utilization float64, width int) string {
	if utilization < 0 {
		utilization = 0
	}
	if utilization > 1 {
		utilization = 1
	}

	filled := int(utilization * float64(width))
	empty := width - filled
	return strings.Repeat("█", filled) + strings.Repeat("░", empty)
}

// formatNumber formats large numbers with K/M suffixes for readability.
func formatNumber(n int64) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1000000 {
		return fmt.Sprintf("%.1fK", float64(n)/1000.0)
	}
	return fmt.Sprintf("%.1fM", float64(n)/1000000.0)
}

// gpu is the slice of OpenGL the controller uses.
type gpu interface {
	createBuffer(bytes int) (vao, vbo uint32)
	resize(vao, vbo uint32, bytes int)
	upload(vbo uint32, vertices []float32)
	draw(vao uint32, vertexCount int)
	release(vao, vbo uint32)
}

type glBackend struct{}

var _ gpu = glBackend{}

func (glBackend) createBuffer(bytes int) (vao, vbo uint32) {
	gl.GenVertexArrays(1, &vao)
	gl.GenBuffers(1, &vbo)

	gl.BindVertexArray(vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	gl.BufferData(gl.ARRAY_BUFFER, bytes, nil, gl.DYNAMIC_DRAW)

	// - Attribute 0: position (vec2)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, bytesPerVertex, gl.PtrOffset(0))
	// - Attribute 1: color (vec4)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 4, gl.FLOAT, false, bytesPerVertex, gl.PtrOffset(8))

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
	return vao, vbo
}

func (glBackend) resize(vao, vbo uint32, bytes int) {
	// Orphan the old storage; the VAO's attribute bindings still point at
	// the same buffer name.
	gl.BindVertexArray(vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	gl.BufferData(gl.ARRAY_BUFFER, bytes, nil, gl.DYNAMIC_DRAW)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
}

func (glBackend) upload(vbo uint32, vertices []float32) {
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(vertices)*4, gl.Ptr(vertices))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

func (glBackend) draw(vao uint32, vertexCount int) {
	gl.BindVertexArray(vao)
	gl.DrawArrays(gl.TRIANGLES, 0, int32(vertexCount))
	gl.BindVertexArray(0)
}

func (glBackend) release(vao, vbo uint32) {
	if vao != 0 {
		gl.DeleteVertexArrays(1, &vao)
	}
	if vbo != 0 {
		gl.DeleteBuffers(1, &vbo)
	}
}
