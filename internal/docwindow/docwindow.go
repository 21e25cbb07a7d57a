// Package docwindow isolates the lines of a multi-page document that lie
// between two textual markers.
package docwindow

import "strings"

// Markers bound a window, a line belongs to the window from the first line
// containing Start up to, and excluding, the next line containing End.
type Markers struct {
	Start string
	End   string
}

type state int

const (
	scanning state = iota
	capturing
	done
)

// Extract returns the non-empty trimmed lines of the window found in pages.
//
// When the start marker never appears the result is empty, when the end
// marker never appears the window runs to the end of the input. Markers are
// matched line by line, so a marker broken across a page or line break is not
// found.
func Extract(pages []string, markers Markers) []string {
	lines := []string{}
	current := scanning

	for _, page := range pages {
		for _, raw := range strings.Split(page, "\n") {
			switch current {
			case scanning:
				if !strings.Contains(raw, markers.Start) {
					continue
				}
				current = capturing
			case capturing:
				if strings.Contains(raw, markers.End) {
					current = done
				}
			}
			if current == done {
				return lines
			}

			line := strings.TrimSpace(raw)
			if line == "" {
				continue
			}
			lines = append(lines, line)
		}
	}
	return lines
}
