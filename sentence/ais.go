package sentence

import (
	"strings"

	"github.com/c360/marlink/message"
)

// ParseAIS parses an AIS VDM/VDO sentence (!AIVDM or !AIVDO, $ prefix also
// accepted). Returns nil for anything else.
func ParseAIS(sourceID, line string) *message.Message {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	if line[0] != '!' && line[0] != '$' {
		return nil
	}

	parts := strings.Split(line, ",")
	if len(parts) < 6 {
		return nil
	}

	header := parts[0]
	if !strings.Contains(header, "AIVDM") && !strings.Contains(header, "AIVDO") {
		return nil
	}

	// Direct reception with checksum scores higher than relayed data
	quality := 70
	if hasChecksum(line) {
		quality = 90
	}

	msg := message.New(message.KindAISSentence, sourceID, []byte(line)).
		WithField("sentence_type", strings.TrimLeft(header, "!$")).
		WithField("fragment_count", parts[1]).
		WithField("fragment_number", parts[2]).
		WithField("message_id", parts[3]).
		WithField("channel", parts[4]).
		WithField("payload", stripChecksum(parts[5])).
		WithQuality(quality)

	return &msg
}
