package app

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/irfansharif/sitewalk/internal/coords"
	"github.com/irfansharif/sitewalk/internal/drag"
	"github.com/irfansharif/sitewalk/internal/geom"
	"github.com/irfansharif/sitewalk/internal/marker"
	"github.com/irfansharif/sitewalk/internal/render"
)

var errNoMarkerFile = errors.New("no marker file to save to")

// Markers is the editable marker state: the set, where it's persisted, the
// current selection, and any drag in progress.
type Markers struct {
	Set  *marker.Set
	Meta *marker.File
	Path string // empty when markers weren't loaded from a file

	selected uuid.UUID
	drag     drag.Session
	dirty    map[string]bool // layers needing regeneration
	unsaved  bool
}

// NewMarkers wraps a loaded set. Every layer starts out dirty.
func NewMarkers(set *marker.Set, meta *marker.File, path string) *Markers {
	e := &Markers{Set: set, Meta: meta, Path: path, dirty: make(map[string]bool)}
	for _, layer := range set.Layers() {
		e.dirty[layer] = true
	}
	return e
}

// EmptyMarkers is used when no marker file was given. Nothing it holds can
// be saved.
func EmptyMarkers() *Markers {
	set, _ := marker.NewSet()
	return NewMarkers(set, &marker.File{}, "")
}

func (e *Markers) markDirty(id uuid.UUID) {
	if m, ok := e.Set.Get(id); ok {
		e.dirty[m.LayerName()] = true
	}
}

// Selected returns the selected marker, if any.
func (e *Markers) Selected() (*marker.Marker, bool) {
	if e.selected == uuid.Nil {
		return nil, false
	}
	return e.Set.Get(e.selected)
}

// Select highlights m (nil clears the selection) and makes it the marker
// Tab navigation continues from.
func (e *Markers) Select(m *marker.Marker) {
	e.markDirty(e.selected)
	e.Set.SetCurrent(m)
	if m == nil {
		e.selected = uuid.Nil
		return
	}
	e.selected = m.ID
	e.markDirty(m.ID)
}

// Next selects the next (or previous) visible marker and returns it.
func (e *Markers) Next(next bool) *marker.Marker {
	m := e.Set.Iter(next)
	e.Select(m)
	return m
}

// Press selects the marker under pointer and starts dragging it. It returns
// false when nothing was hit, in which case the gesture is a pan.
func (e *Markers) Press(view *View, pointer geom.Point, hitRadius float64) bool {
	doc, ok := view.ToDocument(pointer)
	if !ok {
		return false
	}
	m, ok := e.Set.HitTest(doc, view.DocumentRadius(hitRadius))
	if !ok {
		return false
	}
	e.Select(m)
	e.drag.Begin(view.Sys, pointer, m.ID, m.Position())
	return true
}

// Dragging reports whether a marker is being dragged.
func (e *Markers) Dragging() bool { return e.drag.Active() }

// Drag moves the grabbed marker to follow pointer, keeping the offset it
// was grabbed at.
func (e *Markers) Drag(view *View, pointer geom.Point) error {
	if !e.drag.Active() {
		return nil
	}
	doc, ok := e.drag.Move(view.Sys, pointer)
	if !ok {
		return coords.ErrNoContainer
	}
	id := e.drag.MarkerID()
	if err := e.Set.Move(id, doc); err != nil {
		return err
	}
	e.markDirty(id)
	return nil
}

// Release ends the drag and, if the marker moved, saves the set.
func (e *Markers) Release() (moved bool, err error) {
	if !e.drag.Active() {
		return false, nil
	}
	_, _, moved = e.drag.End()
	if !moved {
		return false, nil
	}
	e.unsaved = true
	if e.Path == "" {
		return true, nil
	}
	return true, e.Save()
}

// Cancel abandons the drag, putting the marker back where it started.
func (e *Markers) Cancel() error {
	if !e.drag.Active() {
		return nil
	}
	id, original := e.drag.Cancel()
	if err := e.Set.Move(id, original); err != nil {
		return err
	}
	e.markDirty(id)
	return nil
}

// ToggleLayer hides the layer if any of its markers are showing, and shows
// it otherwise. It returns whether the layer is now visible.
func (e *Markers) ToggleLayer(layer string) bool {
	visible := true
	for _, m := range e.Set.Visible() {
		if m.LayerName() == layer {
			visible = false
			break
		}
	}
	if e.Set.SetLayerVisible(layer, visible) > 0 {
		e.dirty[layer] = true
		e.unsaved = true
	}
	return visible
}

// ShowAll makes every layer visible.
func (e *Markers) ShowAll() {
	for _, layer := range e.Set.Layers() {
		if e.Set.SetLayerVisible(layer, true) > 0 {
			e.dirty[layer] = true
			e.unsaved = true
		}
	}
}

// Unsaved reports whether there are changes not yet written to disk.
func (e *Markers) Unsaved() bool { return e.unsaved }

// Save writes the set back to its marker file.
func (e *Markers) Save() error {
	if e.Path == "" {
		return errNoMarkerFile
	}
	if err := e.Set.Save(e.Path, e.Meta); err != nil {
		return fmt.Errorf("saving markers: %w", err)
	}
	e.unsaved = false
	return nil
}

// LayerData returns the render data for every layer with visible markers,
// and marks them all clean.
func (e *Markers) LayerData() []render.LayerRenderData {
	byLayer := make(map[string][]*marker.Marker)
	for _, m := range e.Set.Visible() {
		byLayer[m.LayerName()] = append(byLayer[m.LayerName()], m)
	}

	var data []render.LayerRenderData
	for _, layer := range e.Set.Layers() {
		markers, ok := byLayer[layer]
		if !ok {
			continue
		}
		data = append(data, render.LayerRenderData{
			Name:     layer,
			Markers:  markers,
			Selected: e.selected,
			Dirty:    e.dirty[layer],
		})
	}
	e.dirty = make(map[string]bool)
	return data
}
