package content

import (
	"fmt"
	"math/rand"
	"time"
)

// dailyLines is the fixed pool the daily pack picks from.
var dailyLines = []string{
	"आज कमाओ, कल नहीं।",
	"Consistency beats talent.",
	"Do it scared.",
	"Action creates confidence.",
	"Small steps daily = big results.",
	"Discipline is freedom.",
}

// Daily returns the daily pack for the given day. The pick is seeded with
// the decimal YYYYMMDD of the date, so every request on the same calendar
// day yields the same line and no external state is read or written.
func Daily(t time.Time) string {
	y, m, d := t.Date()
	seed := int64(y*10000 + int(m)*100 + d)
	r := rand.New(rand.NewSource(seed))
	picked := dailyLines[r.Intn(len(dailyLines))]
	return fmt.Sprintf(
		"⭐ <b>Daily Pack</b> (%s)\n\n✅ <i>%s</i>\n\nTry: /quote /joke /fact",
		t.Format("02-01-2006"), picked,
	)
}
