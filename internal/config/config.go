// Package config loads viewer settings from a JSON file. Every field is
// optional; the Get* methods fall back to defaults for anything the file
// leaves out, so partial configs are safe.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/irfansharif/sitewalk/internal/precision"
)

// ViewerConfig holds the tunables of the floorplan viewer.
type ViewerConfig struct {
	// View params
	MinZoom          *float64 `json:"min_zoom,omitempty"` // 0 disables the bound
	MaxZoom          *float64 `json:"max_zoom,omitempty"` // 0 disables the bound
	ZoomStep         *float64 `json:"zoom_step,omitempty"`
	WheelSensitivity *float64 `json:"wheel_sensitivity,omitempty"`
	FitMargin        *float64 `json:"fit_margin,omitempty"` // screen pixels
	PanStep          *float64 `json:"pan_step,omitempty"`   // screen pixels

	// Coordinate params
	MaxPrecision *int `json:"max_precision,omitempty"`

	// Marker params
	HitRadius    *float64 `json:"hit_radius,omitempty"` // screen pixels
	MarkerRadius *float64 `json:"marker_radius,omitempty"`
	ConeSegments *int     `json:"cone_segments,omitempty"`

	// Page params
	DPI *float64 `json:"dpi,omitempty"`
}

const (
	defaultMinZoom          = 0.05
	defaultMaxZoom          = 40.0
	defaultZoomStep         = 1.25
	defaultWheelSensitivity = 0.15
	defaultFitMargin        = 24.0
	defaultPanStep          = 64.0
	defaultHitRadius        = 10.0
	defaultMarkerRadius     = 6.0
	defaultConeSegments     = 48
	defaultDPI              = 150.0
)

func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }

// DefaultConfig returns a config with every field set to its default.
func DefaultConfig() *ViewerConfig {
	return &ViewerConfig{
		MinZoom:          ptrFloat64(defaultMinZoom),
		MaxZoom:          ptrFloat64(defaultMaxZoom),
		ZoomStep:         ptrFloat64(defaultZoomStep),
		WheelSensitivity: ptrFloat64(defaultWheelSensitivity),
		FitMargin:        ptrFloat64(defaultFitMargin),
		PanStep:          ptrFloat64(defaultPanStep),
		MaxPrecision:     ptrInt(precision.DefaultMaxPrecision),
		HitRadius:        ptrFloat64(defaultHitRadius),
		MarkerRadius:     ptrFloat64(defaultMarkerRadius),
		ConeSegments:     ptrInt(defaultConeSegments),
		DPI:              ptrFloat64(defaultDPI),
	}
}

// LoadConfig loads a ViewerConfig from a JSON file. The file must have a
// .json extension and be under 1MB.
func LoadConfig(path string) (*ViewerConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &ViewerConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configured values are usable.
func (c *ViewerConfig) Validate() error {
	nonNegative := map[string]*float64{
		"min_zoom":          c.MinZoom,
		"max_zoom":          c.MaxZoom,
		"fit_margin":        c.FitMargin,
		"pan_step":          c.PanStep,
		"wheel_sensitivity": c.WheelSensitivity,
	}
	for name, v := range nonNegative {
		if v != nil && !(*v >= 0) {
			return fmt.Errorf("%s must be non-negative, got %f", name, *v)
		}
	}
	for name, v := range map[string]*float64{"hit_radius": c.HitRadius, "marker_radius": c.MarkerRadius, "dpi": c.DPI} {
		if v != nil && !(*v > 0) {
			return fmt.Errorf("%s must be positive, got %f", name, *v)
		}
	}
	if lo, hi := c.GetMinZoom(), c.GetMaxZoom(); lo > 0 && hi > 0 && lo > hi {
		return fmt.Errorf("min_zoom %f exceeds max_zoom %f", lo, hi)
	}
	if c.ZoomStep != nil && !(*c.ZoomStep > 1) {
		return fmt.Errorf("zoom_step must be greater than 1, got %f", *c.ZoomStep)
	}
	if c.MaxPrecision != nil && (*c.MaxPrecision < 1 || *c.MaxPrecision > 15) {
		return fmt.Errorf("max_precision must be between 1 and 15, got %d", *c.MaxPrecision)
	}
	if c.ConeSegments != nil && *c.ConeSegments < 3 {
		return fmt.Errorf("cone_segments must be at least 3, got %d", *c.ConeSegments)
	}
	return nil
}

func getFloat(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func getInt(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func (c *ViewerConfig) GetMinZoom() float64 { return getFloat(c.MinZoom, defaultMinZoom) }
func (c *ViewerConfig) GetMaxZoom() float64 { return getFloat(c.MaxZoom, defaultMaxZoom) }
func (c *ViewerConfig) GetZoomStep() float64 { return getFloat(c.ZoomStep, defaultZoomStep) }
func (c *ViewerConfig) GetFitMargin() float64 { return getFloat(c.FitMargin, defaultFitMargin) }
func (c *ViewerConfig) GetPanStep() float64 { return getFloat(c.PanStep, defaultPanStep) }
func (c *ViewerConfig) GetHitRadius() float64 { return getFloat(c.HitRadius, defaultHitRadius) }
func (c *ViewerConfig) GetMarkerRadius() float64 {
	return getFloat(c.MarkerRadius, defaultMarkerRadius)
}
func (c *ViewerConfig) GetConeSegments() int { return getInt(c.ConeSegments, defaultConeSegments) }
func (c *ViewerConfig) GetDPI() float64 { return getFloat(c.DPI, defaultDPI) }

func (c *ViewerConfig) GetWheelSensitivity() float64 {
	return getFloat(c.WheelSensitivity, defaultWheelSensitivity)
}

func (c *ViewerConfig) GetMaxPrecision() int {
	return getInt(c.MaxPrecision, precision.DefaultMaxPrecision)
}
