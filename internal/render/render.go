// Package render draws the floorplan overlay with OpenGL.
//
// Geometry is generated in document space: cones, glyphs and the page
// outline are triangulated once and uploaded per layer, and the view
// transform is applied in the vertex shader, so panning doesn't require
// regeneration. Glyphs keep a constant on-screen size, so their layers are
// regenerated when the zoom level changes.
package render

import (
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/irfansharif/sitewalk/internal/coords"
	"github.com/irfansharif/sitewalk/internal/geom"
	"github.com/irfansharif/sitewalk/internal/marker"
	"github.com/irfansharif/sitewalk/internal/memory"
)

// PageLayer is the layer holding the page outline; it always draws first.
const PageLayer memory.LayerID = "_page"

type Renderer struct {
	sys       coords.System
	lastScale float64                 // scale the current glyph geometry was built for
	reupload  map[memory.LayerID]bool // layers emptied by compaction
	opacity   float64                 // marker layer opacity

	memController *memory.Controller
	shaderManager *ShaderManager
	stats         Stats
}

// LayerRenderData holds rendering information for a single marker layer.
type LayerRenderData struct {
	Name     string
	Markers  []*marker.Marker // visible markers only
	Selected uuid.UUID
	Dirty    bool // whether the layer needs GPU re-upload
}

// Stats tracks rendering performance metrics.
type Stats struct {
	LastPrepareTimeMs float64 // time spent in last Prepare() call in milliseconds
	LastDrawTimeUs    float64 // time spent in last Draw() call in microseconds
	LayersUploaded    int
}

func NewRenderer(memController *memory.Controller) *Renderer {
	return &Renderer{
		sys:           coords.New(),
		reupload:      make(map[memory.LayerID]bool),
		opacity:       1,
		shaderManager: NewShaderManager(),
		memController: memController,
	}
}

// SetView records the coordinate system to draw through.
func (r *Renderer) SetView(sys coords.System) {
	r.sys = sys
}

// SetOpacity sets the opacity marker layers are drawn with, clamped to
// [0, 1]. The page is unaffected.
func (r *Renderer) SetOpacity(opacity float64) {
	r.opacity = math.Max(0, math.Min(1, opacity))
}

// Opacity returns the marker layer opacity.
func (r *Renderer) Opacity() float64 { return r.opacity }

func (r *Renderer) markerLayers() []memory.LayerID {
	var ids []memory.LayerID
	for _, id := range r.memController.Layers() {
		if id != PageLayer {
			ids = append(ids, id)
		}
	}
	return ids
}

// Prepare uploads the page outline and any dirty layers. Every layer is
// treated as dirty when the scale changed since the last upload. Layers
// missing from the list are removed.
func (r *Renderer) Prepare(page geom.Box, layers []LayerRenderData, opts GeometryOptions) error {
	startTime := time.Now()
	opts.Scale = r.sys.Scale()
	rescaled := opts.Scale != r.lastScale

	uploaded := 0
	if rescaled || r.reupload[PageLayer] || !r.memController.Has(PageLayer) {
		if err := r.memController.Upload(PageLayer, PageGeometry(page, opts.Scale)); err != nil {
			return err
		}
		uploaded++
	}

	order := []memory.LayerID{PageLayer}
	keep := map[memory.LayerID]bool{PageLayer: true}
	for _, layer := range layers {
		id := memory.LayerID(layer.Name)
		order = append(order, id)
		keep[id] = true
		if !layer.Dirty && !rescaled && !r.reupload[id] && r.memController.Has(id) {
			continue
		}

		vertices, err := LayerGeometry(layer.Name, layer.Markers, layer.Selected, opts)
		if err != nil {
			log.Printf("WARNING: layer %q generated no geometry: %v", layer.Name, err)
			continue
		}
		if err := r.memController.Upload(id, vertices); err != nil {
			log.Printf("Error uploading layer %q: %v", layer.Name, err)
			continue
		}
		uploaded++
	}
	for _, id := range r.memController.Layers() {
		if !keep[id] {
			r.memController.Remove(id)
		}
	}
	r.memController.SetOrder(order)

	// Shrunk batches come back empty; regenerate them next frame.
	r.reupload = make(map[memory.LayerID]bool)
	for _, id := range r.memController.TryCompaction() {
		r.reupload[id] = true
	}

	r.lastScale = opts.Scale
	r.stats.LayersUploaded = uploaded
	r.stats.LastPrepareTimeMs = float64(time.Since(startTime).Microseconds()) / 1000.0
	return nil
}

func (r *Renderer) Draw() {
	startTime := time.Now()

	// Set shader uniforms.
	r.shaderManager.SetTransform(computeTransformMatrix(r.sys))

	// The page is always opaque; marker layers are drawn at the overlay
	// opacity on top.
	r.memController.BeginFrame()
	r.shaderManager.SetOpacity(1)
	r.memController.DrawLayers([]memory.LayerID{PageLayer})
	r.shaderManager.SetOpacity(r.opacity)
	r.memController.DrawLayers(r.markerLayers())

	// Record draw time.
	r.stats.LastDrawTimeUs = float64(time.Since(startTime).Microseconds())
}

// Stats returns the current performance statistics
func (r *Renderer) Stats() Stats {
	return r.stats
}

// computeTransformMatrix computes the complete transformation matrix from
// document coordinates to OpenGL NDC.
func computeTransformMatrix(sys coords.System) [16]float32 {
	transform := sys.Affine() // document -> container pixels
	transform = applyScreenToNDCTransform(transform, sys.ViewportDimensions())
	return affineToMatrix4(transform)
}

// applyScreenToNDCTransform converts container pixel coordinates (y down) to
// OpenGL NDC (y up).
func applyScreenToNDCTransform(baseTransform geom.Affine, vp coords.Viewport) geom.Affine {
	if !(vp.Width > 0) || !(vp.Height > 0) {
		return baseTransform
	}
	screenToNDC := geom.MakeAffine(
		2.0/vp.Width, 0, -1,
		0, -2.0/vp.Height, 1,
	)
	return screenToNDC.Mul(baseTransform)
}

// affineToMatrix4 converts an affine transform to a column-major OpenGL 4x4
// matrix.
func affineToMatrix4(transform geom.Affine) [16]float32 {
	return [16]float32{
		float32(transform.A), float32(transform.D), 0, 0,
		float32(transform.B), float32(transform.E), 0, 0,
		0, 0, 1, 0,
		float32(transform.C), float32(transform.F), 0, 1,
	}
}
