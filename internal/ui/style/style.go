// Package style provides the colors and icons shared by the logger and command output.
package style

// Color is a hex color understood by termenv.
type Color string

// Palette.
const (
	Iris   Color = "#8B5CF6"
	Slate  Color = "#667085"
	Green  Color = "#22A06B"
	Red    Color = "#D93025"
	Yellow Color = "#F59E0B"
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Tilde   = "~"
	Dot     = "●"
	Arrow   = "→"
)
