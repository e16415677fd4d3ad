package council

// Theme defines semantic color mappings using ANSI color indices (0-15).
// The user's terminal theme determines the actual RGB values, so the app
// automatically matches any color scheme.
type Theme struct {
	UserMsg int // User message accent
	Pending int // In-flight stage progress
	Stage   int // Stage section headers
	Error   int // Error messages
	Success int // Completed stage indicators
	Muted   int // Status bar, placeholders
	Accent  int // Headings, model names, links
}

// DefaultTheme returns the default ANSI color mapping.
func DefaultTheme() Theme {
	return Theme{
		UserMsg: 4,
		Pending: 8,
		Stage:   3,
		Error:   1,
		Success: 2,
		Muted:   8,
		Accent:  5,
	}
}
