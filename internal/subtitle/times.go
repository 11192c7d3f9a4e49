package subtitle

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// ErrBadTimestamp reports a timestamp string matching neither timestamp
// grammar. It aborts the read that encountered it.
var ErrBadTimestamp = errors.New("cannot parse timestamp")

const (
	// 99:59:59,999 — largest timestamp representable in SubRip
	maxSubRipMS int64 = 100*3600000 - 1
	// 9:59:59.99 — largest timestamp representable in SubStation
	maxSubStationMS int64 = 10*3600000 - 10
)

var (
	// H:MM:SS.cc or HH:MM:SS,mmm — the long timestamp grammar, also used
	// to scan SubRip cue boundary lines
	timestampPattern = regexp.MustCompile(`(\d{1,2}):(\d{2}):(\d{2})[.,](\d{2,3})`)

	// anchored variants for parsing a single field
	timestampLong  = regexp.MustCompile(`^(\d{1,2}):(\d{2}):(\d{2})[.,](\d{2,3})`)
	timestampShort = regexp.MustCompile(`^(\d{1,2}):(\d{2})[.,](\d{2,3})`)
)

func makeTimeMS(h, m, s, ms int64) int64 {
	return h*3600000 + m*60000 + s*1000 + ms
}

func msToTimes(ms int64) (h, m, s, rem int64) {
	h, ms = ms/3600000, ms%3600000
	m, ms = ms/60000, ms%60000
	s, rem = ms/1000, ms%1000
	return h, m, s, rem
}

func atoi64(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

// fracToMS scales a 2- or 3-digit fraction (centiseconds or milliseconds)
// to milliseconds.
func fracToMS(frac string) int64 {
	n := atoi64(frac)
	if len(frac) == 2 {
		n *= 10
	}
	return n
}

// timesFromGroups converts the four submatches of timestampPattern.
func timesFromGroups(groups []string) int64 {
	return makeTimeMS(atoi64(groups[1]), atoi64(groups[2]), atoi64(groups[3]), fracToMS(groups[4]))
}

// parseTimestamp accepts the long grammar with a short fallback for
// malformed but common variants (missing hours field).
func parseTimestamp(s string) (int64, error) {
	if g := timestampLong.FindStringSubmatch(s); g != nil {
		return timesFromGroups(g), nil
	}
	if g := timestampShort.FindStringSubmatch(s); g != nil {
		return makeTimeMS(0, atoi64(g[1]), atoi64(g[2]), fracToMS(g[3])), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrBadTimestamp, s)
}

// subRipTimestamp converts ms to "HH:MM:SS,mmm", clamping out-of-range
// values. The overflow clamp is recoverable and reported through warn.
func subRipTimestamp(ms int64, warn WarnFunc) string {
	if ms < 0 {
		ms = 0
	}
	if ms > maxSubRipMS {
		warn.warn("overflow in SubRip timestamp, clamping to maximum", "ms", ms)
		ms = maxSubRipMS
	}
	h, m, s, rem := msToTimes(ms)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, rem)
}

// subStationTimestamp converts ms to "H:MM:SS.cc", clamping out-of-range
// values. Centiseconds are rounded half-up the way Aegisub does it, which
// can carry a 995–999 ms remainder into the next second.
func subStationTimestamp(ms int64, warn WarnFunc) string {
	if ms < 0 {
		ms = 0
	}
	if ms > maxSubStationMS {
		warn.warn("overflow in SubStation timestamp, clamping to maximum", "ms", ms)
		ms = maxSubStationMS
	}
	h, m, s, rem := msToTimes(ms)
	cs := ((rem + 5) - (rem+5)%10) / 10
	if cs == 100 {
		cs = 0
		s++
		if s == 60 {
			s = 0
			m++
		}
		if m == 60 {
			m = 0
			h++
		}
	}
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, cs)
}

func durationMS(d time.Duration) int64 {
	return d.Milliseconds()
}

func msDuration(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
