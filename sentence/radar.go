package sentence

import (
	"strings"

	"github.com/c360/marlink/message"
)

// ParseRadar parses the proprietary RAD* sentence family:
//
//	$RADTG  tracked target (range, bearing, speed, course, CPA)
//	$RADSC  sweep data (angle, range scale, gain, clutter levels)
//	$RADCF  configuration snapshot
//	$RADST  operational status
//
// Returns nil for other sentences or malformed input.
func ParseRadar(sourceID, line string) *message.Message {
	line = strings.TrimSpace(line)
	if line == "" || line[0] != '$' {
		return nil
	}

	parts := strings.Split(line, ",")

	switch parts[0] {
	case "$RADTG":
		return parseRadarTarget(sourceID, line, parts)
	case "$RADSC":
		return parseRadarScan(sourceID, line, parts)
	case "$RADCF":
		return parseRadarConfig(sourceID, line, parts)
	case "$RADST":
		return parseRadarStatus(sourceID, line, parts)
	default:
		return nil
	}
}

func parseRadarTarget(sourceID, line string, parts []string) *message.Message {
	if len(parts) < 6 {
		return nil
	}

	rangeNM := parts[1]
	bearing := parts[2]
	speed := parts[3]
	course := parts[4]
	cpa := stripChecksum(parts[5])

	for _, f := range []string{rangeNM, bearing, speed, course, cpa} {
		if !isNumeric(f) {
			return nil
		}
	}

	msg := message.New(message.KindRadarTarget, sourceID, []byte(line)).
		WithField("range_nm", rangeNM).
		WithField("bearing_deg", bearing).
		WithField("speed_kts", speed).
		WithField("course_deg", course).
		WithField("cpa_nm", cpa).
		WithQuality(radarQuality(line))

	return &msg
}

func parseRadarScan(sourceID, line string, parts []string) *message.Message {
	if len(parts) < 6 {
		return nil
	}

	sweep := parts[1]
	rangeNM := parts[2]
	gain := parts[3]
	seaClutter := parts[4]
	rainClutter := stripChecksum(parts[5])

	// Gain and rain clutter are mode flags (AUTO, OFF, MANUAL), not numbers
	for _, f := range []string{sweep, rangeNM, seaClutter} {
		if !isNumeric(f) {
			return nil
		}
	}
	if gain == "" || rainClutter == "" {
		return nil
	}

	msg := message.New(message.KindRadarScan, sourceID, []byte(line)).
		WithField("sweep_angle", sweep).
		WithField("range_nm", rangeNM).
		WithField("gain", gain).
		WithField("sea_clutter_db", seaClutter).
		WithField("rain_clutter", rainClutter).
		WithQuality(radarQuality(line))

	return &msg
}

func parseRadarConfig(sourceID, line string, parts []string) *message.Message {
	if len(parts) < 5 {
		return nil
	}

	rangeNM := parts[1]
	gain := parts[2]
	seaClutter := parts[3]
	rainClutter := stripChecksum(parts[4])

	if !isNumeric(rangeNM) || !isNumeric(seaClutter) {
		return nil
	}
	if gain == "" || rainClutter == "" {
		return nil
	}

	msg := message.New(message.KindRadarConfig, sourceID, []byte(line)).
		WithField("range_nm", rangeNM).
		WithField("gain", gain).
		WithField("sea_clutter", seaClutter).
		WithField("rain_clutter", rainClutter).
		WithQuality(radarQuality(line))

	return &msg
}

func parseRadarStatus(sourceID, line string, parts []string) *message.Message {
	if len(parts) < 3 {
		return nil
	}

	status := parts[1]
	health := stripChecksum(parts[2])
	if status == "" || health == "" {
		return nil
	}

	msg := message.New(message.KindRadarStatus, sourceID, []byte(line)).
		WithField("status", status).
		WithField("health", health).
		WithQuality(radarQuality(line))

	return &msg
}

func radarQuality(line string) int {
	if hasChecksum(line) {
		return 90
	}
	return 70
}
