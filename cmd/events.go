package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/irfansharif/sitewalk/internal/app"
	"github.com/irfansharif/sitewalk/internal/geom"
)

const repeatInterval = 125 * time.Millisecond // time between successive pans when a pan key is held down

const dimmedOpacity = 0.35 // marker opacity when the overlay is dimmed

var eventsLogger *log.Logger = log.New(io.Discard, "", 0)

func init() {
	if os.Getenv("SITEWALK_DEBUG_EVENTS") == "1" {
		eventsLogger = log.New(os.Stdout, "[events] ", log.Ltime|log.Lmsgprefix)
	}
}

// EventHandlers manages all event handling for the application.
type EventHandlers struct {
	application *app.App

	// J/K/H/L allow panning across through keypresses. They also do so
	// continuously if held.
	panKeyHeld                   bool
	panDirectionX, panDirectionY float64
	lastPanTime                  time.Time

	// Pan state (per-gesture), when a press didn't land on a marker.
	isPanning bool
	lastPan   geom.Point

	// Current pointer position, in framebuffer pixels.
	pointer geom.Point

	dimmed bool
}

// NewEventHandlers creates a new event handlers manager.
func NewEventHandlers(application *app.App) *EventHandlers {
	eh := &EventHandlers{
		application: application,
		lastPanTime: time.Now(),
	}
	eh.SetupCallbacks(application.Window)
	return eh
}

// SetupCallbacks configures all GLFW event callbacks.
func (eh *EventHandlers) SetupCallbacks(window *glfw.Window) {
	window.SetKeyCallback(func(wnd *glfw.Window, key glfw.Key, _ int, action glfw.Action, mods glfw.ModifierKey) {
		eh.handleKey(key, action, mods)
	})
	window.SetMouseButtonCallback(func(wnd *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		eh.handleMouseButton(button, action) // for dragging markers and panning
	})
	window.SetCursorPosCallback(func(wnd *glfw.Window, xpos, ypos float64) {
		eh.handleCursorPos(xpos, ypos)
	})
	window.SetScrollCallback(func(wnd *glfw.Window, _, zoomDelta float64) {
		eh.performZoom(zoomDelta) // for zooming
	})
	window.SetFramebufferSizeCallback(func(wnd *glfw.Window, newW, newH int) {
		eh.handleFramebufferSize(newW, newH) // for window resize
	})
}

// framebufferPos converts window coordinates, as glfw reports the cursor,
// to framebuffer pixels.
func (eh *EventHandlers) framebufferPos(xpos, ypos float64) geom.Point {
	scaleX, scaleY := eh.application.Window.GetContentScale()
	return geom.MakePoint(xpos*float64(scaleX), ypos*float64(scaleY))
}

// handleFramebufferSize handles window resize events.
func (eh *EventHandlers) handleFramebufferSize(newW, newH int) {
	eh.application.View.SetViewport(newW, newH)
	eh.application.SyncView()
}

// handleKey handles keyboard input events.
func (eh *EventHandlers) handleKey(key glfw.Key, action glfw.Action, mods glfw.ModifierKey) {
	switch key {
	case glfw.KeyJ:
		eh.handlePanKeys(action, 0 /*dx*/, -1 /*dy*/) // pan down
		return
	case glfw.KeyK:
		eh.handlePanKeys(action, 0 /*dx*/, 1 /*dy*/) // pan up
		return
	case glfw.KeyH:
		eh.handlePanKeys(action, 1 /*dx*/, 0 /*dy*/) // pan right
		return
	case glfw.KeyL:
		eh.handlePanKeys(action, -1 /*dx*/, 0 /*dy*/) // pan left
		return
	}
	if action != glfw.Press {
		return
	}

	switch key {
	case glfw.KeyEscape:
		eh.handleEscapeKey()
	case glfw.KeyEqual:
		eh.performZoomStep(true)
	case glfw.KeyMinus:
		eh.performZoomStep(false)
	case glfw.KeyF:
		eh.handleFitKey()
	case glfw.KeyTab:
		next := true
		if (mods & glfw.ModShift) != 0 {
			next = false
		}
		eh.handleMarkerNavigation(next)
	case glfw.KeyV:
		eh.handleVisibilityKey((mods & glfw.ModShift) != 0)
	case glfw.KeyO:
		eh.handleOpacityKey()
	case glfw.KeyS:
		eh.handleSaveKey()
	}
}

// handleEscapeKey cancels a drag in progress, or else clears the selection.
func (eh *EventHandlers) handleEscapeKey() {
	markers := eh.application.Markers
	if markers.Dragging() {
		if err := markers.Cancel(); err != nil {
			log.Printf("Error cancelling drag: %v", err)
		}
		eventsLogger.Printf("drag cancelled")
	} else {
		markers.Select(nil)
	}
	eh.application.PrepareRenderer()
}

// handlePanKeys handles j/k/h/l key presses, and also releases for
// continuous panning.
func (eh *EventHandlers) handlePanKeys(action glfw.Action, dx, dy float64) {
	switch action {
	case glfw.Press:
		eh.panKeyHeld = true
		eh.panDirectionX = dx
		eh.panDirectionY = dy
		eh.performPan(dx, dy)
		eh.lastPanTime = time.Now()

	case glfw.Release:
		eh.panKeyHeld = false

	case glfw.Repeat:
		// Ignore repeat events - we handle continuous panning ourselves to
		// ensure consistent timing.
	}
}

// performPan executes a single keyboard pan. Pan steps are in screen
// pixels, so they cover the same distance on screen at every zoom level.
func (eh *EventHandlers) performPan(dx, dy float64) {
	eh.application.View.PanSteps(dx, dy)
	eh.application.SyncView()
}

// handleContinuousPanning handles continuous panning while pan keys are held.
func (eh *EventHandlers) handleContinuousPanning() {
	if !eh.panKeyHeld {
		return // nothing to do
	}

	now := time.Now()
	if now.Sub(eh.lastPanTime) < repeatInterval {
		return // not enough time has passed since the last pan
	}

	eh.performPan(eh.panDirectionX, eh.panDirectionY)
	eh.lastPanTime = now
}

// handleFitKey handles F key press (fit the page to the window).
func (eh *EventHandlers) handleFitKey() {
	if !eh.application.View.Fit() {
		eventsLogger.Printf("nothing to fit")
		return
	}
	eh.application.PrepareRenderer()
}

// handleMarkerNavigation handles tab and shift+tab key presses for marker
// navigation.
func (eh *EventHandlers) handleMarkerNavigation(next bool) {
	m := eh.application.Markers.Next(next)
	if m == nil {
		return // nothing to do
	}

	// Center the view on the marker, keeping the zoom.
	eh.application.View.CenterOn(m.Position())
	eh.application.PrepareRenderer()
	eventsLogger.Printf("selected %s %q at %v", m.Kind, m.Label, m.Position())
}

// handleVisibilityKey handles V (toggle the selected marker's layer) and
// shift+V (show every layer).
func (eh *EventHandlers) handleVisibilityKey(showAll bool) {
	markers := eh.application.Markers
	if showAll {
		markers.ShowAll()
	} else {
		sel, ok := markers.Selected()
		if !ok {
			return // nothing to do
		}
		layer := sel.LayerName()
		visible := markers.ToggleLayer(layer)
		eventsLogger.Printf("layer %q visible: %t", layer, visible)
	}
	eh.application.PrepareRenderer()
}

// handleOpacityKey handles O key press (dim the markers to see the page
// beneath them, or restore them).
func (eh *EventHandlers) handleOpacityKey() {
	eh.dimmed = !eh.dimmed
	opacity := 1.0
	if eh.dimmed {
		opacity = dimmedOpacity
	}
	eh.application.Renderer.SetOpacity(opacity)
}

// handleSaveKey handles S key press (write markers back to their file).
func (eh *EventHandlers) handleSaveKey() {
	markers := eh.application.Markers
	if err := markers.Save(); err != nil {
		log.Printf("WARNING: %v", err)
		return
	}
	log.Printf("Saved %d markers to %s", markers.Set.Len(), markers.Path)
}

// handleMouseButton handles mouse button events for dragging and panning.
func (eh *EventHandlers) handleMouseButton(button glfw.MouseButton, action glfw.Action) {
	if button != glfw.MouseButtonLeft {
		return // nothing to do
	}

	switch action {
	case glfw.Press:
		eh.pointer = eh.framebufferPos(eh.application.Window.GetCursorPos())
		if eh.application.Markers.Press(eh.application.View, eh.pointer, eh.application.Config.GetHitRadius()) {
			eh.application.PrepareRenderer() // selection changed
			return
		}
		eh.startPanning()
	case glfw.Release:
		if eh.application.Markers.Dragging() {
			eh.stopDragging()
		}
		eh.stopPanning()
	}
}

// handleCursorPos handles mouse movement for dragging and panning.
func (eh *EventHandlers) handleCursorPos(xpos, ypos float64) {
	eh.pointer = eh.framebufferPos(xpos, ypos)
	if eh.application.Markers.Dragging() {
		eh.updateDragging()
		return
	}
	eh.updatePanning()
}

// startPanning starts the panning operation.
func (eh *EventHandlers) startPanning() {
	eh.isPanning = true
	eh.lastPan = eh.pointer
}

// stopPanning ends panning operation.
func (eh *EventHandlers) stopPanning() {
	eh.isPanning = false
}

// updatePanning updates pan position based on mouse movement.
func (eh *EventHandlers) updatePanning() {
	if !eh.isPanning {
		return
	}
	delta := eh.pointer.Sub(eh.lastPan)
	eh.lastPan = eh.pointer
	eh.application.View.Pan(delta.X, delta.Y)
	eh.application.SyncView() // direct update for maximum smoothness
}

// updateDragging moves the grabbed marker with the pointer.
func (eh *EventHandlers) updateDragging() {
	if err := eh.application.Markers.Drag(eh.application.View, eh.pointer); err != nil {
		log.Printf("Error moving marker: %v", err)
		return
	}
	eh.application.PrepareRenderer()
}

// stopDragging drops the grabbed marker, saving if it moved.
func (eh *EventHandlers) stopDragging() {
	moved, err := eh.application.Markers.Release()
	if err != nil {
		log.Printf("WARNING: %v", err)
	}
	if moved {
		if sel, ok := eh.application.Markers.Selected(); ok {
			eventsLogger.Printf("moved %s to %v", sel.ID, sel.Position())
		}
	}
	eh.application.PrepareRenderer()
}

// performZoom handles scroll-wheel zoom around the cursor.
func (eh *EventHandlers) performZoom(zoomDelta float64) {
	pointer := eh.framebufferPos(eh.application.Window.GetCursorPos())
	eh.application.View.ZoomAt(zoomDelta, pointer)
	eh.application.PrepareRenderer() // glyph sizes depend on the zoom
}

// performZoomStep handles +/- zoom around the cursor.
func (eh *EventHandlers) performZoomStep(in bool) {
	pointer := eh.framebufferPos(eh.application.Window.GetCursorPos())
	eh.application.View.ZoomStep(in, pointer)
	eh.application.PrepareRenderer()
}

// status describes what's under the pointer, for the window title.
func (eh *EventHandlers) status() string {
	doc, ok := eh.application.View.ToDocument(eh.pointer)
	if !ok {
		return ""
	}
	s := fmt.Sprintf(" @ (%g, %g)", doc.X, doc.Y)
	if mapping := eh.application.Mapping; mapping != nil {
		p := mapping.ToPDF(doc)
		s += fmt.Sprintf(" [%.1f, %.1f pt]", p.X, p.Y)
	}
	if cams := eh.application.Markers.Set.CoveredBy(doc); len(cams) > 0 {
		s += fmt.Sprintf(", seen by %d camera(s)", len(cams))
	}
	if eh.application.Markers.Unsaved() {
		s += " *"
	}
	return s
}
