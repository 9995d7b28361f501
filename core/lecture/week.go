package lecture

import (
	"math"
	"time"
)

// WeekOf numbers the weeks of t's year the way curriculums are scheduled:
// weeks run Sunday through Saturday and week 1 is the (possibly partial) week
// containing January 1st.
func WeekOf(t time.Time) int {
	startOfYear := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	pastDays := t.Sub(startOfYear).Hours() / 24
	return int(math.Ceil((pastDays + float64(startOfYear.Weekday()) + 1) / 7))
}
