package sentence

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/marlink/message"
)

func TestParseGGA(t *testing.T) {
	line := "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47"
	msg := ParseGPS("gps-serial", line)
	require.NotNil(t, msg)

	assert.Equal(t, message.KindGPSPosition, msg.Kind)
	assert.Equal(t, "123519", field(t, msg, "time"))

	lat, err := strconv.ParseFloat(field(t, msg, "latitude"), 64)
	require.NoError(t, err)
	assert.InDelta(t, 48.1173, lat, 0.0001)

	lon, err := strconv.ParseFloat(field(t, msg, "longitude"), 64)
	require.NoError(t, err)
	assert.InDelta(t, 11.5167, lon, 0.0001)

	assert.Equal(t, "1", field(t, msg, "fix_quality"))
	assert.Equal(t, "08", field(t, msg, "satellites"))
	assert.Equal(t, "0.9", field(t, msg, "hdop"))
	assert.Equal(t, "545.4", field(t, msg, "altitude"))
	assert.Equal(t, "M", field(t, msg, "altitude_unit"))

	q, ok := msg.Quality()
	require.True(t, ok)
	assert.Equal(t, 95, q)
}

func TestParseRMCValidFix(t *testing.T) {
	line := "$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A"
	msg := ParseGPS("gps", line)
	require.NotNil(t, msg)

	assert.Equal(t, message.KindGPSVelocity, msg.Kind)

	lat, _ := strconv.ParseFloat(field(t, msg, "latitude"), 64)
	assert.InDelta(t, 48.1173, lat, 0.0001)
	lon, _ := strconv.ParseFloat(field(t, msg, "longitude"), 64)
	assert.InDelta(t, 11.5167, lon, 0.0001)

	speed, _ := strconv.ParseFloat(field(t, msg, "speed_knots"), 64)
	assert.InDelta(t, 22.4, speed, 0.01)
	course, _ := strconv.ParseFloat(field(t, msg, "course"), 64)
	assert.InDelta(t, 84.4, course, 0.01)
	assert.Equal(t, "230394", field(t, msg, "date"))
}

func TestParseRMCInvalidFixDiscarded(t *testing.T) {
	line := "$GPRMC,123519,V,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A"
	assert.Nil(t, ParseGPS("gps", line))
}

func TestParseGLL(t *testing.T) {
	line := "$GPGLL,4916.45,N,12311.12,W,225444,A*1D"
	msg := ParseGPS("gps", line)
	require.NotNil(t, msg)

	assert.Equal(t, message.KindGPSGeo, msg.Kind)

	lat, _ := strconv.ParseFloat(field(t, msg, "latitude"), 64)
	assert.InDelta(t, 49.274167, lat, 0.0001)
	lon, _ := strconv.ParseFloat(field(t, msg, "longitude"), 64)
	assert.InDelta(t, -123.185333, lon, 0.0001)

	assert.Equal(t, "225444", field(t, msg, "time"))
	assert.Equal(t, "A", field(t, msg, "status"))
}

func TestParseVTG(t *testing.T) {
	line := "$GPVTG,084.4,T,077.8,M,022.4,N,041.1,K*43"
	msg := ParseGPS("gps", line)
	require.NotNil(t, msg)

	assert.Equal(t, message.KindGPSTrack, msg.Kind)
	assert.Equal(t, "084.4", field(t, msg, "course_true"))
	assert.Equal(t, "022.4", field(t, msg, "speed_knots"))
}

func TestParseGPSTalkerAgnostic(t *testing.T) {
	for _, talker := range []string{"GP", "GN", "GL", "GA"} {
		line := "$" + talker + "GGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47"
		msg := ParseGPS("gps", line)
		require.NotNil(t, msg, "talker %s", talker)
		assert.Equal(t, message.KindGPSPosition, msg.Kind)
	}
}

func TestParseGPSQualityWithoutChecksum(t *testing.T) {
	line := "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,"
	msg := ParseGPS("gps", line)
	require.NotNil(t, msg)
	q, _ := msg.Quality()
	assert.Equal(t, 75, q)
}

func TestParseGPSNoFixDiscarded(t *testing.T) {
	// A receiver without a fix emits empty coordinate fields. Sentences
	// carrying no position are dropped rather than forwarded partial.
	tests := []struct {
		name string
		line string
	}{
		{"GGA no fix", "$GPGGA,123519,,,,,0,00,,,M,,M,,*66"},
		{"GLL no fix", "$GPGLL,,,,,225444,V*25"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, ParseGPS("gps", tt.line))
		})
	}
}

func TestParseGPSRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"empty", ""},
		{"wrong prefix", "GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M"},
		{"unknown sentence", "$GPZDA,201530.00,04,07,2002,00,00*60"},
		{"short GGA", "$GPGGA,123519,4807.038,N"},
		{"bad latitude", "$GPGGA,123519,garbage,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47"},
		{"bad hemisphere", "$GPGGA,123519,4807.038,Q,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47"},
		{"ais sentence", "!AIVDM,1,1,,A,15M67FC000G,0*5B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, ParseGPS("gps", tt.line))
		})
	}
}
