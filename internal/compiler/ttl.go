package compiler

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sosodev/duration"
)

// parseTTL accepts a number of seconds ("3600") or an ISO-8601 duration
// ("PT1H", "P2DT12H") and returns seconds in 0..2^31-1. Fractions of a second
// are truncated. Calendar units are rejected.
func parseTTL(raw string) (int32, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	if s[0] != 'P' && s[0] != 'p' && s[0] != '-' {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("expected a number of seconds or an ISO-8601 duration")
		}
		return ttlInRange(float64(n))
	}

	d, err := duration.Parse(strings.ToUpper(s))
	if err != nil {
		if n, convErr := strconv.ParseInt(s, 10, 64); convErr == nil {
			return ttlInRange(float64(n))
		}
		return 0, fmt.Errorf("expected a number of seconds or an ISO-8601 duration: %w", err)
	}
	if d.Negative {
		return 0, fmt.Errorf("must not be negative")
	}
	if d.Years != 0 || d.Months != 0 || d.Weeks != 0 {
		return 0, fmt.Errorf("calendar units (Y, M, W) are not supported, use days or smaller units")
	}
	return ttlInRange(math.Trunc(d.Days*86400 + d.Hours*3600 + d.Minutes*60 + d.Seconds))
}

func ttlInRange(secs float64) (int32, error) {
	if secs < 0 || secs > math.MaxInt32 {
		return 0, fmt.Errorf("must be between 0 and %d seconds", math.MaxInt32)
	}
	return int32(secs), nil
}
