package sentence

import (
	"strings"

	"github.com/c360/marlink/message"
)

// ParseGPS parses NMEA 0183 position sentences (GGA, RMC, GLL, VTG) from
// any talker. Returns nil for other sentences or malformed input. An RMC
// sentence whose validity flag is not "A" is treated as no fix and also
// yields nil, as is a GGA or GLL whose coordinate fields are empty: a
// position sentence without a position carries nothing downstream wants.
func ParseGPS(sourceID, line string) *message.Message {
	line = strings.TrimSpace(line)
	if len(line) < 7 || line[0] != '$' {
		return nil
	}

	parts := strings.Split(line, ",")
	if len(parts[0]) != 6 {
		return nil
	}

	quality := 75
	if hasChecksum(line) {
		quality = 95
	}

	// Talker-agnostic: $GPGGA, $GNGGA, $GLGGA all parse the same
	switch parts[0][3:] {
	case "GGA":
		return parseGGA(sourceID, line, parts, quality)
	case "RMC":
		return parseRMC(sourceID, line, parts, quality)
	case "GLL":
		return parseGLL(sourceID, line, parts, quality)
	case "VTG":
		return parseVTG(sourceID, line, parts, quality)
	default:
		return nil
	}
}

func parseGGA(sourceID, line string, parts []string, quality int) *message.Message {
	if len(parts) < 15 {
		return nil
	}

	lat, latOK := DecodeCoordinate(parts[2], parts[3])
	lon, lonOK := DecodeCoordinate(parts[4], parts[5])
	if !latOK || !lonOK {
		return nil
	}

	msg := message.New(message.KindGPSPosition, sourceID, []byte(line)).
		WithField("time", parts[1]).
		WithField("latitude", formatCoordinate(lat)).
		WithField("longitude", formatCoordinate(lon)).
		WithField("fix_quality", parts[6]).
		WithField("satellites", parts[7]).
		WithField("hdop", parts[8]).
		WithField("altitude", parts[9]).
		WithField("altitude_unit", parts[10]).
		WithQuality(quality)

	return &msg
}

func parseRMC(sourceID, line string, parts []string, quality int) *message.Message {
	if len(parts) < 12 {
		return nil
	}

	// "A" marks a valid fix; anything else (typically "V") is discarded
	if parts[2] != "A" {
		return nil
	}

	lat, latOK := DecodeCoordinate(parts[3], parts[4])
	lon, lonOK := DecodeCoordinate(parts[5], parts[6])
	if !latOK || !lonOK {
		return nil
	}

	msg := message.New(message.KindGPSVelocity, sourceID, []byte(line)).
		WithField("time", parts[1]).
		WithField("latitude", formatCoordinate(lat)).
		WithField("longitude", formatCoordinate(lon)).
		WithField("speed_knots", parts[7]).
		WithField("course", parts[8]).
		WithField("date", parts[9]).
		WithQuality(quality)

	return &msg
}

func parseGLL(sourceID, line string, parts []string, quality int) *message.Message {
	if len(parts) < 7 {
		return nil
	}

	lat, latOK := DecodeCoordinate(parts[1], parts[2])
	lon, lonOK := DecodeCoordinate(parts[3], parts[4])
	if !latOK || !lonOK {
		return nil
	}

	msg := message.New(message.KindGPSGeo, sourceID, []byte(line)).
		WithField("latitude", formatCoordinate(lat)).
		WithField("longitude", formatCoordinate(lon)).
		WithField("time", parts[5]).
		WithField("status", stripChecksum(parts[6])).
		WithQuality(quality)

	return &msg
}

func parseVTG(sourceID, line string, parts []string, quality int) *message.Message {
	if len(parts) < 6 {
		return nil
	}

	course := parts[1]
	speed := stripChecksum(parts[5])
	if !isNumeric(course) || !isNumeric(speed) {
		return nil
	}

	msg := message.New(message.KindGPSTrack, sourceID, []byte(line)).
		WithField("course_true", course).
		WithField("speed_knots", speed).
		WithQuality(quality)

	return &msg
}
