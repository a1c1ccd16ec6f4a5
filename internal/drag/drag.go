// Package drag implements drag-to-reposition for floorplan markers.
//
// When a marker is grabbed away from its center, the pointer keeps that
// offset for the whole gesture instead of snapping the marker's center to
// the pointer. Pointer positions are container-relative, the same space
// coords.System.DocumentToScreen produces.
package drag

import (
	"github.com/google/uuid"

	"github.com/irfansharif/sitewalk/internal/coords"
	"github.com/irfansharif/sitewalk/internal/geom"
)

// Offset returns the vector from the marker's projected screen position to
// the pointer.
func Offset(pointer, markerDoc geom.Point, sys coords.System) geom.Point {
	return pointer.Sub(sys.DocumentToScreen(markerDoc.X, markerDoc.Y))
}

// Session tracks a single drag gesture. The zero value is an idle session.
type Session struct {
	active   bool
	markerID uuid.UUID
	offset   geom.Point
	start    geom.Point // document position when the drag began
	current  geom.Point // latest document position
	moved    bool
}

// Begin starts dragging the marker with the given id, currently at
// markerDoc, grabbed at pointer.
func (s *Session) Begin(sys coords.System, pointer geom.Point, markerID uuid.UUID, markerDoc geom.Point) {
	*s = Session{
		active:   true,
		markerID: markerID,
		offset:   Offset(pointer, markerDoc, sys),
		start:    markerDoc,
		current:  markerDoc,
	}
}

// Active reports whether a drag is in progress.
func (s *Session) Active() bool { return s.active }

// MarkerID returns the id of the marker being dragged.
func (s *Session) MarkerID() uuid.UUID { return s.markerID }

// Move returns the marker's new document position for the pointer position,
// preserving the grab offset. The result is rounded per the precision policy
// and is safe to persist. ok is false if no drag is active or the system
// has no container.
func (s *Session) Move(sys coords.System, pointer geom.Point) (geom.Point, bool) {
	if !s.active {
		return geom.Point{}, false
	}
	anchor := pointer.Sub(s.offset)
	doc, ok := sys.ContainerToDocument(anchor.X, anchor.Y)
	if !ok {
		return geom.Point{}, false
	}
	if doc != s.current {
		s.moved = true
	}
	s.current = doc
	return doc, true
}

// End finishes the drag. It returns the final document position and whether
// the marker actually moved, i.e. whether there's anything to persist.
func (s *Session) End() (id uuid.UUID, final geom.Point, moved bool) {
	id, final, moved = s.markerID, s.current, s.active && s.moved && s.current != s.start
	*s = Session{}
	return id, final, moved
}

// Cancel abandons the drag, returning the marker's original position.
func (s *Session) Cancel() (id uuid.UUID, original geom.Point) {
	id, original = s.markerID, s.start
	*s = Session{}
	return id, original
}
