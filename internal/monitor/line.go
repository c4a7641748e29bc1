package monitor

import "strings"

// Entry is one parsed device-log line.
type Entry struct {
	Timestamp    string
	MAC          string
	OUI          string
	DeviceSuffix string
	Name         string
	Channel      string
	List         string
	Raw          string
}

const (
	fieldSep     = " | "
	channelLabel = " | Ch: "
	listLabel    = " | List: "
	ouiLength    = 8
)

// ParseLine splits a line of the form
//
//	[2024-05-01 10:00] | 00:11:22:33:44:55 | Phone | Ch: 6 | List: home
//
// into its fields. ok is false for anything that does not have all five.
func ParseLine(line string) (Entry, bool) {
	open := strings.IndexByte(line, '[')
	if open < 0 {
		return Entry{}, false
	}
	rest := line[open+1:]

	ts, rest, ok := strings.Cut(rest, "]"+fieldSep)
	if !ok {
		return Entry{}, false
	}
	mac, rest, ok := strings.Cut(rest, fieldSep)
	if !ok {
		return Entry{}, false
	}
	// Names may contain the separator, so anchor on the channel label.
	name, rest, ok := strings.Cut(rest, channelLabel)
	if !ok {
		return Entry{}, false
	}
	channel, list, ok := strings.Cut(rest, listLabel)
	if !ok {
		return Entry{}, false
	}

	e := Entry{
		Timestamp: ts,
		MAC:       mac,
		Name:      name,
		Channel:   channel,
		List:      list,
		Raw:       line,
	}
	e.OUI, e.DeviceSuffix = splitMAC(mac)
	return e, true
}

// ParseLines keeps server order and drops malformed lines.
func ParseLines(lines []string) []Entry {
	out := make([]Entry, 0, len(lines))
	for _, line := range lines {
		if e, ok := ParseLine(line); ok {
			out = append(out, e)
		}
	}
	return out
}

func splitMAC(mac string) (oui, suffix string) {
	if len(mac) <= ouiLength {
		return mac, ""
	}
	return mac[:ouiLength], mac[ouiLength:]
}
