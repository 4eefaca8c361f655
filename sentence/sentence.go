// Package sentence parses marine ASCII sentence protocols (AIS VDM/VDO,
// NMEA position sentences, and the RAD* radar family) into normalized
// messages. Parsers are pure functions: malformed input yields nil, never
// an error or a panic.
package sentence

import (
	"math"
	"strconv"
	"strings"

	"github.com/c360/marlink/message"
)

// ParseFunc turns one raw sentence into a message, or nil when the line is
// not a valid sentence for the domain.
type ParseFunc func(sourceID, line string) *message.Message

// stripChecksum removes a trailing "*hh" checksum from a field. The
// checksum itself is not validated; its presence only raises the quality
// score.
func stripChecksum(field string) string {
	if i := strings.IndexByte(field, '*'); i >= 0 {
		return field[:i]
	}
	return field
}

// hasChecksum reports whether the sentence carries a checksum suffix.
func hasChecksum(line string) bool {
	return strings.ContainsRune(line, '*')
}

// isNumeric reports whether s parses as a float.
func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// DecodeCoordinate converts an NMEA ddmm.mmmm (or dddmm.mmmm) coordinate
// and hemisphere indicator into signed decimal degrees. Southern and
// western hemispheres are negative.
func DecodeCoordinate(raw, hemisphere string) (float64, bool) {
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}

	degrees := math.Floor(value / 100)
	minutes := value - degrees*100
	decimal := degrees + minutes/60

	switch hemisphere {
	case "S", "W":
		decimal = -decimal
	case "N", "E":
	default:
		return 0, false
	}

	return decimal, true
}

// formatCoordinate renders a decimal coordinate for message fields.
func formatCoordinate(decimal float64) string {
	return strconv.FormatFloat(decimal, 'f', 6, 64)
}
