package report

import (
	"fmt"
	"time"
)

// FormatElapsed renders d as "Xh Ym Zs Nms". Negative durations are
// rendered by magnitude.
func FormatElapsed(d time.Duration) string {
	ms := d.Milliseconds()
	if ms < 0 {
		ms = -ms
	}
	hours := ms / 3600000
	ms -= hours * 3600000
	minutes := ms / 60000
	ms -= minutes * 60000
	seconds := ms / 1000
	ms -= seconds * 1000
	return fmt.Sprintf("%dh %dm %ds %dms", hours, minutes, seconds, ms)
}

// DirName returns the run directory name for a start time: TestLogs_<yyyy-MM-dd>.
func DirName(start time.Time) string {
	return "TestLogs_" + start.Format("2006-01-02")
}
