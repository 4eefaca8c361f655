package sentence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/marlink/message"
)

func TestParseAISValidSentence(t *testing.T) {
	line := "!AIVDM,1,1,,A,15M67FC000G?WopE`beasVk@0E5:,0*5B"
	msg := ParseAIS("ais-udp", line)
	require.NotNil(t, msg)

	assert.Equal(t, message.KindAISSentence, msg.Kind)
	assert.Equal(t, "ais-udp", msg.SourceID)
	assert.Equal(t, "AIVDM", field(t, msg, "sentence_type"))
	assert.Equal(t, "1", field(t, msg, "fragment_count"))
	assert.Equal(t, "1", field(t, msg, "fragment_number"))
	assert.Equal(t, "", field(t, msg, "message_id"))
	assert.Equal(t, "A", field(t, msg, "channel"))
	assert.Equal(t, "15M67FC000G?WopE`beasVk@0E5:", field(t, msg, "payload"))

	q, ok := msg.Quality()
	require.True(t, ok)
	assert.Equal(t, 90, q)
}

func TestParseAISOwnShip(t *testing.T) {
	msg := ParseAIS("ais", "!AIVDO,1,1,,B,13u?etPv2;0n:dDPwUM1U1Cb069D,0")
	require.NotNil(t, msg)
	assert.Equal(t, "AIVDO", field(t, msg, "sentence_type"))

	// No checksum means relayed-grade quality
	q, _ := msg.Quality()
	assert.Equal(t, 70, q)
}

func TestParseAISRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"empty", ""},
		{"wrong prefix", "AIVDM,1,1,,A,payload,0*5B"},
		{"random text", "hello world"},
		{"too few fields", "!AIVDM,1,1"},
		{"gps sentence", "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47"},
		{"radar sentence", "$RADTG,2.5,120.0,15.2,085.0,1.8*4A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, ParseAIS("ais", tt.line))
		})
	}
}

func TestParseAISTrimsWhitespace(t *testing.T) {
	msg := ParseAIS("ais", "  !AIVDM,1,1,,A,15M67FC000G,0*5B\r\n")
	require.NotNil(t, msg)
	assert.Equal(t, "15M67FC000G", field(t, msg, "payload"))
}
