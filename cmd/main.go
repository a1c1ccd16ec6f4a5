package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/irfansharif/sitewalk/internal/app"
	"github.com/irfansharif/sitewalk/internal/config"
	"github.com/irfansharif/sitewalk/internal/geom"
	"github.com/irfansharif/sitewalk/internal/marker"
	"github.com/irfansharif/sitewalk/internal/memory"
	"github.com/irfansharif/sitewalk/internal/pagespace"
	"github.com/irfansharif/sitewalk/internal/render"
)

const logFlags = log.Ltime | log.Lshortfile

const markerPadding = 50.0 // document units around markers when there's no page

var (
	markersPath = flag.String("markers", "", "marker file (.json) to view and edit")
	configPath  = flag.String("config", "", "viewer config file (.json)")
	pageWidth   = flag.Float64("page-width", 0, "page image width, in document units")
	pageHeight  = flag.Float64("page-height", 0, "page image height, in document units")
	mediaBox    = flag.String("media-box", "", "PDF media box as llx,lly,urx,ury; sizes the page from -dpi and -rotate")
	rotate      = flag.Int("rotate", 0, "PDF page /Rotate, in degrees")
	dpi         = flag.Float64("dpi", 0, "resolution the page image was rendered at (overrides the config)")
	imagePath   = flag.String("image", "", "page image to place beneath the SVG overlay")
	exportSVG   = flag.String("export-svg", "", "write the overlay as SVG to this path and exit")
)

var runtimeLogger *log.Logger = log.New(io.Discard, "", 0)

func init() {
	// OpenGL contexts are tied to specific OS threads - let's pin to just one.
	runtime.LockOSThread()
	log.SetFlags(logFlags)

	if os.Getenv("SITEWALK_DEBUG_RUNTIME") == "1" {
		runtimeLogger = log.New(os.Stdout, "[runtime] ", log.Ltime|log.Lmsgprefix)
	}
}

func makeTitle(fps float64, avgFrameTime float64, markers int, renderStats render.Stats, memStats memory.Stats, status string) string {
	return fmt.Sprintf("Sitewalk (%.1f FPS, %.2fms/frame, %d markers, %d layers, %d triangles, %d draw calls/frame, %.2fµs/draw, %.2fms/prepare, %.1fMiB GPU)%s",
		fps,
		avgFrameTime,
		markers,
		memStats.TotalLayers,
		memStats.TotalVertices/3,
		memStats.DrawCallsPerFrame,
		renderStats.LastDrawTimeUs,
		renderStats.LastPrepareTimeMs,
		float64(memStats.TotalGPUBytes)/(1024.0*1024.0),
		status,
	)
}

func main() {
	flag.Parse()

	cfg := loadConfig()
	markers := loadMarkers()
	page, mapping := pageBox(cfg, markers.Set)

	if *exportSVG != "" {
		if err := writeSVG(*exportSVG, markers, page, cfg); err != nil {
			log.Fatalf("Failed to export overlay: %v", err)
		}
		log.Printf("Wrote overlay for %d markers to %s", markers.Set.Len(), *exportSVG)
		return
	}

	if err := glfw.Init(); err != nil {
		log.Fatalf("Failed to initialize GLFW: %v", err)
	}
	defer glfw.Terminate()

	// Configure GLFW window hints - use OpenGL 4.1.
	glfw.DefaultWindowHints()
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)

	window, err := glfw.CreateWindow(
		1280, // width
		960,  // height
		"Sitewalk",
		nil, nil,
	)
	if err != nil {
		log.Fatalf("Failed to create window: %v", err)
	}
	window.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		log.Fatalf("Failed to initialize OpenGL: %v", err)
	}

	cw, ch := window.GetFramebufferSize()
	application := app.NewApp(window, cfg, app.NewView(cw, ch, page, cfg), markers)
	application.Mapping = mapping
	application.PrepareRenderer()
	defer application.MemoryController.Cleanup()

	// Initialize event handlers.
	eventHandlers := NewEventHandlers(application)

	frameCount, frameTimeSum := 0, 0.0
	lastFPSUpdate := time.Now()

	// Main loop.
	for !application.Window.ShouldClose() {
		frameStart := time.Now()

		eventHandlers.handleContinuousPanning()

		w, h := application.Window.GetFramebufferSize()
		gl.Viewport(0, 0, int32(w), int32(h))
		gl.ClearColor(0.93, 0.93, 0.92, 1)
		gl.Clear(gl.COLOR_BUFFER_BIT)

		application.Renderer.Draw()
		application.Window.SwapBuffers()
		glfw.PollEvents()

		frameTime := time.Since(frameStart).Seconds() * 1000.0 // ms
		frameTimeSum += frameTime

		frameCount++
		now := time.Now()
		if now.Sub(lastFPSUpdate) >= time.Second {
			fps := float64(frameCount) / now.Sub(lastFPSUpdate).Seconds()
			avgFrameTime := frameTimeSum / float64(frameCount)
			frameCount, frameTimeSum = 0, 0.0
			lastFPSUpdate = now

			memStats := application.MemoryController.Stats()
			renderStats := application.Renderer.Stats()

			application.Window.SetTitle(
				makeTitle(fps, avgFrameTime, markers.Set.Len(), renderStats, memStats, eventHandlers.status()),
			)

			runtimeLogger.Println("=== Performance statistics ===")
			runtimeLogger.Printf("Frame rate:     %.1f FPS (%.2f ms/frame, %d draw calls/frame)", fps, avgFrameTime, memStats.DrawCallsPerFrame)
			runtimeLogger.Printf("Shapes:         %d layers, %d triangles, %d vertices", memStats.TotalLayers, memStats.TotalVertices/3, memStats.TotalVertices)
			runtimeLogger.Printf("GPU memory:     %.2f MiB", float64(memStats.TotalGPUBytes)/(1024.0*1024.0))
			runtimeLogger.Printf("Render time:    %.2f µs (last draw), %.2f ms (last prepare, %d layers uploaded)", renderStats.LastDrawTimeUs, renderStats.LastPrepareTimeMs, renderStats.LayersUploaded)
			runtimeLogger.Printf("Batches:        %d grown, %d shrunk, %.2f µs (last upload)", memStats.GrowthEvents, memStats.ShrinkEvents, memStats.LastUploadTimeUs)
			runtimeLogger.Printf("View:           scale %g, translate %v", application.View.Scale(), application.View.Sys.Translation())
			runtimeLogger.Println("==============================")

			application.MemoryController.PrintStats()
		}
	}

	if markers.Unsaved() && markers.Path != "" {
		if err := markers.Save(); err != nil {
			log.Printf("WARNING: %v", err)
		}
	}
}

func loadConfig() *config.ViewerConfig {
	if *configPath == "" {
		return config.DefaultConfig()
	}
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func loadMarkers() *app.Markers {
	if *markersPath == "" {
		return app.EmptyMarkers()
	}
	set, meta, err := marker.Load(*markersPath)
	if err != nil {
		log.Fatalf("Failed to load markers: %v", err)
	}
	if *imagePath == "" {
		*imagePath = meta.Floorplan
	}
	return app.NewMarkers(set, meta, *markersPath)
}

// pageBox works out the document-space page: from a PDF media box, an
// explicit size, or failing both, the markers themselves.
func pageBox(cfg *config.ViewerConfig, set *marker.Set) (geom.Box, *pagespace.Mapping) {
	if *mediaBox != "" {
		box, err := pagespace.ParseMediaBox(*mediaBox)
		if err != nil {
			log.Fatalf("Invalid -media-box: %v", err)
		}
		resolution := cfg.GetDPI()
		if *dpi > 0 {
			resolution = *dpi
		}
		mapping, err := pagespace.NewMapping(pagespace.Page{MediaBox: box, Rotate: *rotate, DPI: resolution})
		if err != nil {
			log.Fatalf("Invalid page: %v", err)
		}
		return mapping.Bounds(), mapping
	}
	if *pageWidth > 0 && *pageHeight > 0 {
		return geom.MakeBox(0, 0, *pageWidth, *pageHeight), nil
	}
	return app.PageBounds(set, markerPadding), nil
}

func writeSVG(path string, markers *app.Markers, page geom.Box, cfg *config.ViewerConfig) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	ex := app.Export{Markers: markers, Page: page, Image: *imagePath}
	if err := app.ExportOverlay(f, ex, cfg); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
