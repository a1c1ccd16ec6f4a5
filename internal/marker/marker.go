// Package marker holds the equipment markers placed on a floorplan. Marker
// records belong to the project's marker store; this package only reads
// them, and hands back positions in document space to be persisted.
package marker

import (
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/irfansharif/sitewalk/internal/fov"
	"github.com/irfansharif/sitewalk/internal/geom"
)

// Kind is the type of equipment a marker stands for.
type Kind string

const (
	KindAccessPoint Kind = "access_point"
	KindCamera      Kind = "camera"
	KindElevator    Kind = "elevator"
	KindIntercom    Kind = "intercom"
)

// Kinds lists every known kind, in display order.
var Kinds = []Kind{KindAccessPoint, KindCamera, KindElevator, KindIntercom}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Marker is a single piece of equipment on a floorplan. Positions are in
// document space.
type Marker struct {
	ID        uuid.UUID `json:"id"`
	Kind      Kind      `json:"marker_type"`
	Label     string    `json:"label,omitempty"`
	PositionX float64   `json:"position_x"`
	PositionY float64   `json:"position_y"`
	Layer     string    `json:"layer,omitempty"`
	Visible   *bool     `json:"visible,omitempty"` // nil means visible

	// Camera coverage.
	FOV      *float64 `json:"fov,omitempty"`      // degrees
	Range    *float64 `json:"range,omitempty"`    // document units
	Rotation *float64 `json:"rotation,omitempty"` // degrees
}

// Defaults applied to cameras whose coverage fields are unset.
const (
	DefaultFOV      = 90.0
	DefaultRange    = 100.0
	DefaultRotation = 0.0
)

// Position returns the marker's document position.
func (m *Marker) Position() geom.Point { return geom.MakePoint(m.PositionX, m.PositionY) }

// IsVisible reports whether the marker should be drawn.
func (m *Marker) IsVisible() bool { return m.Visible == nil || *m.Visible }

// LayerName returns the marker's layer, defaulting to its kind.
func (m *Marker) LayerName() string {
	if m.Layer != "" {
		return m.Layer
	}
	return string(m.Kind)
}

// HasCone reports whether the marker draws a coverage cone.
func (m *Marker) HasCone() bool { return m.Kind == KindCamera }

// Cone returns the camera's coverage cone. The field of view is clamped to
// [0, 360].
func (m *Marker) Cone() fov.Cone {
	return fov.Cone{
		Center:   m.Position(),
		Range:    valueOr(m.Range, DefaultRange),
		FOV:      fov.ClampFOV(valueOr(m.FOV, DefaultFOV)),
		Rotation: valueOr(m.Rotation, DefaultRotation),
	}
}

// Validate checks the record for values the geometry can't use.
func (m *Marker) Validate() error {
	if m.ID == uuid.Nil {
		return fmt.Errorf("marker has no id")
	}
	if !m.Kind.Valid() {
		return fmt.Errorf("marker %s: unknown type %q", m.ID, m.Kind)
	}
	if !m.Position().IsFinite() {
		return fmt.Errorf("marker %s: position %v is not finite", m.ID, m.Position())
	}
	for name, v := range map[string]*float64{"fov": m.FOV, "range": m.Range, "rotation": m.Rotation} {
		if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
			return fmt.Errorf("marker %s: %s is not finite", m.ID, name)
		}
	}
	return nil
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// Set is the collection of markers on one floorplan.
type Set struct {
	markers   map[uuid.UUID]*Marker
	currentID uuid.UUID // for Iter; uuid.Nil when unset
}

// NewSet returns a set holding copies of the given markers.
func NewSet(markers ...Marker) (*Set, error) {
	s := &Set{markers: make(map[uuid.UUID]*Marker, len(markers))}
	for i := range markers {
		if err := s.Add(markers[i]); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add inserts a copy of m.
func (s *Set) Add(m Marker) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if _, ok := s.markers[m.ID]; ok {
		return fmt.Errorf("duplicate marker %s", m.ID)
	}
	s.markers[m.ID] = &m
	return nil
}

// Remove deletes the marker with the given id.
func (s *Set) Remove(id uuid.UUID) bool {
	if _, ok := s.markers[id]; ok {
		delete(s.markers, id)
		return true
	}
	return false
}

// Get returns the marker with the given id.
func (s *Set) Get(id uuid.UUID) (*Marker, bool) {
	m, ok := s.markers[id]
	return m, ok
}

// Len returns the number of markers.
func (s *Set) Len() int { return len(s.markers) }

// All returns every marker, sorted by layer, then label, then id.
func (s *Set) All() []*Marker {
	all := make([]*Marker, 0, len(s.markers))
	for _, m := range s.markers {
		all = append(all, m)
	}
	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.LayerName() != b.LayerName() {
			return a.LayerName() < b.LayerName()
		}
		if a.Label != b.Label {
			return a.Label < b.Label
		}
		return a.ID.String() < b.ID.String()
	})
	return all
}

// Visible returns the visible markers, in All order.
func (s *Set) Visible() []*Marker {
	var visible []*Marker
	for _, m := range s.All() {
		if m.IsVisible() {
			visible = append(visible, m)
		}
	}
	return visible
}

// Layers returns the distinct layer names, sorted.
func (s *Set) Layers() []string {
	seen := make(map[string]bool)
	var layers []string
	for _, m := range s.markers {
		if name := m.LayerName(); !seen[name] {
			seen[name] = true
			layers = append(layers, name)
		}
	}
	sort.Strings(layers)
	return layers
}

// SetLayerVisible shows or hides every marker on a layer and returns how
// many markers changed.
func (s *Set) SetLayerVisible(layer string, visible bool) int {
	changed := 0
	for _, m := range s.markers {
		if m.LayerName() != layer || m.IsVisible() == visible {
			continue
		}
		v := visible
		m.Visible = &v
		changed++
	}
	return changed
}

// Move sets a marker's document position. It never accepts screen-space
// values: callers convert first.
func (s *Set) Move(id uuid.UUID, doc geom.Point) error {
	m, ok := s.markers[id]
	if !ok {
		return fmt.Errorf("unknown marker %s", id)
	}
	if !doc.IsFinite() {
		return fmt.Errorf("marker %s: position %v is not finite", id, doc)
	}
	m.PositionX, m.PositionY = doc.X, doc.Y
	return nil
}

// FindClosest returns the visible markers sorted by distance to the given
// document point (closest first). Ties are broken by id.
func (s *Set) FindClosest(doc geom.Point) []*Marker {
	type sortKey struct {
		distance float64
		marker   *Marker
	}

	var keys []sortKey
	for _, m := range s.markers {
		if !m.IsVisible() {
			continue
		}
		keys = append(keys, sortKey{geom.Dist(m.Position(), doc), m})
	}
	sort.Slice(keys, func(i, j int) bool {
		if math.Abs(keys[i].distance-keys[j].distance) < 1e-9 {
			return keys[i].marker.ID.String() < keys[j].marker.ID.String()
		}
		return keys[i].distance < keys[j].distance
	})

	result := make([]*Marker, len(keys))
	for i, k := range keys {
		result[i] = k.marker
	}
	return result
}

// HitTest returns the closest visible marker within radius (document units)
// of doc.
func (s *Set) HitTest(doc geom.Point, radius float64) (*Marker, bool) {
	closest := s.FindClosest(doc)
	if len(closest) == 0 || geom.Dist(closest[0].Position(), doc) > radius {
		return nil, false
	}
	return closest[0], true
}

// CoveredBy returns the visible cameras whose cone covers doc.
func (s *Set) CoveredBy(doc geom.Point) []*Marker {
	var cameras []*Marker
	for _, m := range s.Visible() {
		if m.HasCone() && m.Cone().Contains(doc) {
			cameras = append(cameras, m)
		}
	}
	return cameras
}

// SetCurrent sets the marker Iter continues from.
func (s *Set) SetCurrent(m *Marker) {
	if m == nil {
		s.currentID = uuid.Nil
	} else {
		s.currentID = m.ID
	}
}

// Iter moves to the next (or previous) visible marker in All order and
// returns it, wrapping around at either end.
func (s *Set) Iter(next bool) *Marker {
	visible := s.Visible()
	if len(visible) == 0 {
		s.currentID = uuid.Nil
		return nil
	}

	pos := -1
	for i, m := range visible {
		if m.ID == s.currentID {
			pos = i
			break
		}
	}

	var newPos int
	switch {
	case pos == -1 && next:
		newPos = 0
	case pos == -1:
		newPos = len(visible) - 1
	case next:
		newPos = (pos + 1) % len(visible)
	default:
		newPos = (pos - 1 + len(visible)) % len(visible)
	}
	s.currentID = visible[newPos].ID
	return visible[newPos]
}
