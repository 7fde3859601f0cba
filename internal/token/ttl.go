package token

import (
	"regexp"
	"strconv"
	"time"

	dErrors "realmgate/pkg/domain-errors"
)

// ttlPattern is the strict grammar for realm lifetime strings: an integer
// followed by exactly one unit. A bare number has no unit and is rejected;
// a malformed lifetime is a deployment defect, not a runtime condition.
var ttlPattern = regexp.MustCompile(`^(\d+)([smhd])$`)

// ParseTTL parses a lifetime string such as "15m" or "7d" into a duration.
func ParseTTL(s string) (time.Duration, error) {
	m := ttlPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, dErrors.Newf(dErrors.CodeInternal, "invalid ttl format %q", s)
	}
	value, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, dErrors.Newf(dErrors.CodeInternal, "invalid ttl value %q", s)
	}
	switch m[2] {
	case "s":
		return time.Duration(value) * time.Second, nil
	case "m":
		return time.Duration(value) * time.Minute, nil
	case "h":
		return time.Duration(value) * time.Hour, nil
	default: // "d", the pattern admits nothing else
		return time.Duration(value) * 24 * time.Hour, nil
	}
}
