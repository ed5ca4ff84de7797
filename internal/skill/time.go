// Package skill implements the small self-contained command skills: spoken
// time, weather via wttr.in, and jokes from public joke APIs. Each skill
// degrades to a canned offline answer rather than failing the turn.
package skill

import (
	"fmt"
	"time"
)

// CurrentTime renders now as a spoken-friendly sentence, e.g.
// "It's 3:45 PM on Tuesday, December 28th."
func CurrentTime(now time.Time) string {
	return fmt.Sprintf("It's %s on %s, %s %s.",
		now.Format("3:04 PM"),
		now.Format("Monday"),
		now.Format("January"),
		ordinalDay(now.Day()),
	)
}

// ordinalDay renders a day of month with its English ordinal suffix.
func ordinalDay(d int) string {
	suffix := "th"
	if d%100 < 11 || d%100 > 13 {
		switch d % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", d, suffix)
}
