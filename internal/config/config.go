package config

import "time"

const (
	// Terminal display
	AspectRatio = 0.5 // Terminal char aspect correction (chars are ~2:1 tall)
	TargetFPS   = 30  // Target frames per second
	HistoryLen  = 120 // Samples kept per needle for the value sparkline

	// Needle animation
	SmoothingFactor = 0.2 // Fraction of the remaining distance covered each tick

	// Scale editing
	ScaleStep = 0.05 // Scale change per keypress

	// Calibration
	PickRadius = 15.0 // Pixels within which a click grabs an existing point

	// Demo mode
	DemoInterval = 200 * time.Millisecond // How often demo values are emitted
	DemoPeriod   = 8 * time.Second        // Time for one full sweep of the range

	// Rendering
	DefaultRenderWidth  = 512
	DefaultRenderHeight = 512

	// App
	AppName    = "NEEDLE-GAUGE"
	AppVersion = "1.0"
)
