package bot

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// nextCronDuration parses a 5-field cron expression and returns the duration
// from now until the next fire time.
func nextCronDuration(expr string, now time.Time) (time.Duration, error) {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return 0, fmt.Errorf("bot: parse cron %q: %w", expr, err)
	}
	d := sched.Next(now).Sub(now)
	if d < 0 {
		d = 0
	}
	return d, nil
}
