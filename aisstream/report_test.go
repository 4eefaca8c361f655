package aisstream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const positionFrame = `{
	"MessageType": "PositionReport",
	"MetaData": {
		"MMSI": 244660000,
		"ShipName": "EEMSLIFT NELLI ",
		"latitude": 53.32,
		"longitude": 6.93,
		"time_utc": "2024-03-01 12:00:00 UTC"
	},
	"Message": {
		"PositionReport": {
			"Sog": 12.3,
			"Cog": 245.0,
			"TrueHeading": 244,
			"NavigationalStatus": 0
		}
	}
}`

func TestParseReportPosition(t *testing.T) {
	report := ParseReport([]byte(positionFrame))
	require.NotNil(t, report)

	assert.Equal(t, "PositionReport", report.MessageType)
	assert.Equal(t, int64(244660000), report.MMSI)
	assert.Equal(t, "EEMSLIFT NELLI", report.ShipName, "ship name should be trimmed")
	require.NotNil(t, report.Latitude)
	assert.InDelta(t, 53.32, *report.Latitude, 1e-9)
	require.NotNil(t, report.Longitude)
	assert.InDelta(t, 6.93, *report.Longitude, 1e-9)
	require.NotNil(t, report.SpeedOverGround)
	assert.InDelta(t, 12.3, *report.SpeedOverGround, 1e-9)
	require.NotNil(t, report.Heading)
	assert.Equal(t, 244, *report.Heading)
	assert.Equal(t, "Under way using engine", report.NavigationStatus)
	assert.Equal(t, positionFrame, report.RawMessage)
}

func TestParseReportStaticData(t *testing.T) {
	frame := `{
		"MessageType": "StaticDataReport",
		"MetaData": {"MMSI": 123456789, "ShipName": "TESTER"},
		"Message": {"StaticDataReport": {"ReportB": {"ShipType": 70}}}
	}`

	report := ParseReport([]byte(frame))
	require.NotNil(t, report)
	assert.Equal(t, "Cargo", report.ShipType)
	assert.Nil(t, report.Latitude)
	assert.Nil(t, report.SpeedOverGround)
}

func TestParseReportRejectsGarbage(t *testing.T) {
	assert.Nil(t, ParseReport([]byte("not json")))
	assert.Nil(t, ParseReport([]byte(`{"MetaData":{"MMSI":1}}`)), "missing message type")
	assert.Nil(t, ParseReport([]byte(``)))
}

func TestShipTypeDescription(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{20, "Wing in ground (WIG)"},
		{29, "Wing in ground (WIG)"},
		{30, "Fishing"},
		{31, "Towing"},
		{32, "Towing: length exceeds 200m or breadth exceeds 25m"},
		{33, "Dredging or underwater ops"},
		{34, "Diving ops"},
		{35, "Military ops"},
		{36, "Sailing"},
		{37, "Pleasure Craft"},
		{40, "High speed craft (HSC)"},
		{49, "High speed craft (HSC)"},
		{50, "Pilot Vessel"},
		{51, "Search and Rescue vessel"},
		{52, "Tug"},
		{53, "Port Tender"},
		{54, "Anti-pollution equipment"},
		{55, "Law Enforcement"},
		{58, "Medical Transport"},
		{59, "Noncombatant ship according to RR Resolution No. 18"},
		{60, "Passenger"},
		{69, "Passenger"},
		{70, "Cargo"},
		{79, "Cargo"},
		{80, "Tanker"},
		{89, "Tanker"},
		{90, "Other Type"},
		{99, "Other Type"},
		{0, "Unknown"},
		{19, "Unknown"},
		{56, "Unknown"},
		{999, "Unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ShipTypeDescription(tt.code), "code %d", tt.code)
	}
}

func TestNavigationStatusDescription(t *testing.T) {
	assert.Equal(t, "Under way using engine", NavigationStatusDescription(0))
	assert.Equal(t, "At anchor", NavigationStatusDescription(1))
	assert.Equal(t, "Moored", NavigationStatusDescription(5))
	assert.Equal(t, "Under way sailing", NavigationStatusDescription(8))
	assert.Equal(t, "Reserved for HSC", NavigationStatusDescription(9))
	assert.Equal(t, "Reserved for WIG", NavigationStatusDescription(10))
	assert.Equal(t, "Power-driven vessel towing astern", NavigationStatusDescription(11))
	assert.Equal(t, "Power-driven vessel pushing ahead", NavigationStatusDescription(12))
	assert.Equal(t, "Reserved for future use", NavigationStatusDescription(13))
	assert.Equal(t, "AIS-SART, MOB-AIS, EPIRB-AIS", NavigationStatusDescription(14))
	assert.Equal(t, "Other", NavigationStatusDescription(15))
	assert.Equal(t, "Other", NavigationStatusDescription(-1))
}
