package bot

import (
	"testing"
	"time"
)

func TestNextCronDuration(t *testing.T) {
	now := time.Date(2025, 8, 14, 8, 30, 0, 0, time.UTC)

	d, err := nextCronDuration("0 9 * * *", now)
	if err != nil {
		t.Fatalf("nextCronDuration() error = %v", err)
	}
	if d != 30*time.Minute {
		t.Errorf("duration = %v, want 30m", d)
	}

	// Just past today's fire time rolls over to tomorrow.
	d, err = nextCronDuration("0 9 * * *", now.Add(31*time.Minute))
	if err != nil {
		t.Fatalf("nextCronDuration() error = %v", err)
	}
	if d != 23*time.Hour+59*time.Minute {
		t.Errorf("duration = %v, want 23h59m", d)
	}
}

func TestNextCronDurationRejectsGarbage(t *testing.T) {
	if _, err := nextCronDuration("not a cron", time.Now()); err == nil {
		t.Fatal("expected parse error")
	}
}
