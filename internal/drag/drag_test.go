package drag

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfansharif/sitewalk/internal/coords"
	"github.com/irfansharif/sitewalk/internal/geom"
)

func newSystem(scale, tx, ty float64) coords.System {
	return coords.New(coords.WithContainer(coords.Static(geom.MakeBox(0, 0, 800, 600)))).
		WithTransform(coords.Transform{Scale: scale, TranslateX: tx, TranslateY: ty})
}

func TestOffset(t *testing.T) {
	sys := newSystem(2, 50, 50)
	// Marker at document (100, 100) projects to (250, 250).
	off := Offset(geom.MakePoint(260, 245), geom.MakePoint(100, 100), sys)
	assert.Equal(t, geom.MakePoint(10, -5), off)
}

func TestSessionPreservesGrabOffset(t *testing.T) {
	sys := newSystem(2, 50, 50)
	id := uuid.New()

	var s Session
	assert.False(t, s.Active())
	s.Begin(sys, geom.MakePoint(260, 245), id, geom.MakePoint(100, 100))
	require.True(t, s.Active())
	assert.Equal(t, id, s.MarkerID())

	// Not moving the pointer leaves the marker where it was.
	doc, ok := s.Move(sys, geom.MakePoint(260, 245))
	require.True(t, ok)
	assert.Equal(t, geom.MakePoint(100, 100), doc)

	// Moving 20 screen pixels right moves 10 document units at scale 2.
	doc, ok = s.Move(sys, geom.MakePoint(280, 245))
	require.True(t, ok)
	assert.Equal(t, geom.MakePoint(110, 100), doc)

	gotID, final, moved := s.End()
	assert.Equal(t, id, gotID)
	assert.Equal(t, geom.MakePoint(110, 100), final)
	assert.True(t, moved)
	assert.False(t, s.Active())
}

func TestSessionMoveWithChangedView(t *testing.T) {
	var s Session
	s.Begin(newSystem(1, 0, 0), geom.MakePoint(105, 100), uuid.New(), geom.MakePoint(100, 100))

	// The view zoomed in between events; the grab offset is kept in screen
	// pixels.
	doc, ok := s.Move(newSystem(4, -300, -300), geom.MakePoint(105, 100))
	require.True(t, ok)
	assert.Equal(t, geom.MakePoint(100, 100), doc)
}

func TestSessionNoMove(t *testing.T) {
	sys := newSystem(1, 0, 0)
	var s Session
	s.Begin(sys, geom.MakePoint(10, 10), uuid.New(), geom.MakePoint(10, 10))
	_, _ = s.Move(sys, geom.MakePoint(10, 10))
	_, _, moved := s.End()
	assert.False(t, moved)

	// Moving away and back is not a move either.
	s.Begin(sys, geom.MakePoint(10, 10), uuid.New(), geom.MakePoint(10, 10))
	_, _ = s.Move(sys, geom.MakePoint(40, 10))
	_, _ = s.Move(sys, geom.MakePoint(10, 10))
	_, _, moved = s.End()
	assert.False(t, moved)
}

func TestSessionIdleAndCancel(t *testing.T) {
	var s Session
	_, ok := s.Move(newSystem(1, 0, 0), geom.MakePoint(1, 1))
	assert.False(t, ok)
	_, _, moved := s.End()
	assert.False(t, moved)

	id := uuid.New()
	s.Begin(newSystem(1, 0, 0), geom.MakePoint(0, 0), id, geom.MakePoint(5, 5))
	_, _ = s.Move(newSystem(1, 0, 0), geom.MakePoint(50, 50))
	gotID, orig := s.Cancel()
	assert.Equal(t, id, gotID)
	assert.Equal(t, geom.MakePoint(5, 5), orig)
	assert.False(t, s.Active())

	// Without a container there's nowhere to convert from.
	s.Begin(coords.New(), geom.MakePoint(0, 0), id, geom.MakePoint(5, 5))
	_, ok = s.Move(coords.New(), geom.MakePoint(1, 1))
	assert.False(t, ok)
}
