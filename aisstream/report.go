// Package aisstream multiplexes one upstream aisstream.io WebSocket
// connection across many local consumers. A refcounted Manager holds the
// connection open while at least one consumer is subscribed, a Hub fans
// reports out through lossy per-consumer rings, and a Server exposes the
// stream to downstream WebSocket clients with per-connection geo filters.
package aisstream

import (
	"encoding/json"
	"strings"
)

// Report is one normalized vessel report extracted from an upstream frame.
// Optional fields are pointers so absence survives serialization.
type Report struct {
	MessageType      string   `json:"message_type"`
	MMSI             int64    `json:"mmsi,omitempty"`
	ShipName         string   `json:"ship_name,omitempty"`
	Latitude         *float64 `json:"latitude,omitempty"`
	Longitude        *float64 `json:"longitude,omitempty"`
	Timestamp        string   `json:"timestamp,omitempty"`
	SpeedOverGround  *float64 `json:"speed_over_ground,omitempty"`
	CourseOverGround *float64 `json:"course_over_ground,omitempty"`
	Heading          *int     `json:"heading,omitempty"`
	NavigationStatus string   `json:"navigation_status,omitempty"`
	ShipType         string   `json:"ship_type,omitempty"`
	RawMessage       string   `json:"raw_message,omitempty"`
}

// upstreamFrame mirrors the aisstream.io wire format.
type upstreamFrame struct {
	MessageType string `json:"MessageType"`
	MetaData    struct {
		MMSI      int64    `json:"MMSI"`
		ShipName  string   `json:"ShipName"`
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
		TimeUTC   string   `json:"time_utc"`
	} `json:"MetaData"`
	Message struct {
		PositionReport *struct {
			Sog                *float64 `json:"Sog"`
			Cog                *float64 `json:"Cog"`
			TrueHeading        *int     `json:"TrueHeading"`
			NavigationalStatus *int     `json:"NavigationalStatus"`
		} `json:"PositionReport"`
		StaticDataReport *struct {
			ReportB *struct {
				ShipType *int `json:"ShipType"`
			} `json:"ReportB"`
		} `json:"StaticDataReport"`
	} `json:"Message"`
}

// ParseReport extracts a Report from a raw upstream frame. Returns nil
// when the frame is not valid JSON or carries no message type.
func ParseReport(data []byte) *Report {
	var frame upstreamFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil
	}
	if frame.MessageType == "" {
		return nil
	}

	report := &Report{
		MessageType: frame.MessageType,
		MMSI:        frame.MetaData.MMSI,
		ShipName:    strings.TrimSpace(frame.MetaData.ShipName),
		Latitude:    frame.MetaData.Latitude,
		Longitude:   frame.MetaData.Longitude,
		Timestamp:   frame.MetaData.TimeUTC,
		RawMessage:  string(data),
	}

	if pr := frame.Message.PositionReport; pr != nil {
		report.SpeedOverGround = pr.Sog
		report.CourseOverGround = pr.Cog
		report.Heading = pr.TrueHeading
		if pr.NavigationalStatus != nil {
			report.NavigationStatus = NavigationStatusDescription(*pr.NavigationalStatus)
		}
	}

	if sdr := frame.Message.StaticDataReport; sdr != nil && sdr.ReportB != nil && sdr.ReportB.ShipType != nil {
		report.ShipType = ShipTypeDescription(*sdr.ReportB.ShipType)
	}

	return report
}

// ShipTypeDescription maps an AIS ship type code to a display name.
func ShipTypeDescription(code int) string {
	switch {
	case code >= 20 && code <= 29:
		return "Wing in ground (WIG)"
	case code == 30:
		return "Fishing"
	case code == 31:
		return "Towing"
	case code == 32:
		return "Towing: length exceeds 200m or breadth exceeds 25m"
	case code == 33:
		return "Dredging or underwater ops"
	case code == 34:
		return "Diving ops"
	case code == 35:
		return "Military ops"
	case code == 36:
		return "Sailing"
	case code == 37:
		return "Pleasure Craft"
	case code >= 40 && code <= 49:
		return "High speed craft (HSC)"
	case code == 50:
		return "Pilot Vessel"
	case code == 51:
		return "Search and Rescue vessel"
	case code == 52:
		return "Tug"
	case code == 53:
		return "Port Tender"
	case code == 54:
		return "Anti-pollution equipment"
	case code == 55:
		return "Law Enforcement"
	case code == 58:
		return "Medical Transport"
	case code == 59:
		return "Noncombatant ship according to RR Resolution No. 18"
	case code >= 60 && code <= 69:
		return "Passenger"
	case code >= 70 && code <= 79:
		return "Cargo"
	case code >= 80 && code <= 89:
		return "Tanker"
	case code >= 90 && code <= 99:
		return "Other Type"
	default:
		return "Unknown"
	}
}

// NavigationStatusDescription maps an AIS navigational status code to a
// display name.
func NavigationStatusDescription(code int) string {
	switch code {
	case 0:
		return "Under way using engine"
	case 1:
		return "At anchor"
	case 2:
		return "Not under command"
	case 3:
		return "Restricted manoeuvrability"
	case 4:
		return "Constrained by her draught"
	case 5:
		return "Moored"
	case 6:
		return "Aground"
	case 7:
		return "Engaged in fishing"
	case 8:
		return "Under way sailing"
	case 9:
		return "Reserved for HSC"
	case 10:
		return "Reserved for WIG"
	case 11:
		return "Power-driven vessel towing astern"
	case 12:
		return "Power-driven vessel pushing ahead"
	case 13:
		return "Reserved for future use"
	case 14:
		return "AIS-SART, MOB-AIS, EPIRB-AIS"
	default:
		return "Other"
	}
}
