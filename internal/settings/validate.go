package settings

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/ouiwatch/ouiwatch/internal/detector"
)

// DefaultCaptureTime is used when the capture time field is left blank.
const DefaultCaptureTime = 13

// DefaultIgnoreMinutes is the ignore duration offered by default.
const DefaultIgnoreMinutes = 60

// DefaultCommandTemplate is the alert directive sent with a new device when
// the operator leaves the command blank. %s is the device name.
const DefaultCommandTemplate = `2|%s |[255,0,0]|0.1|/home/pi/notifications/alert04.mp3|0" | nc -U /mnt/ram/sense_hat_socket`

// Legal channel numbers per band.
var (
	Channels2G = []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}
	Channels5G = []int{
		36, 40, 44, 48, 52, 56, 60, 64,
		100, 104, 108, 112, 116, 120, 124, 128, 132, 136, 140,
		149, 153, 157, 161, 165,
	}
)

// Default channel selections when the service has none to report.
var (
	DefaultChannels2G = []int{1, 6, 11}
	DefaultChannels5G = []int{44, 52, 100, 149, 157, 161}
)

// ValidationError reports input rejected before any request is sent.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// UserMessage is the text shown to the operator.
func (e *ValidationError) UserMessage() string { return e.Reason }

var (
	macPattern = regexp.MustCompile(`^([0-9A-Fa-f]{2}[:-]){5}[0-9A-Fa-f]{2}$`)
	ouiPattern = regexp.MustCompile(`^([0-9A-Fa-f]{2}[:-]){2}[0-9A-Fa-f]{2}$`)
)

// ValidateAddress accepts a full MAC (six groups) or an OUI (three groups)
// of two hex digits separated by ':' or '-'.
func ValidateAddress(s string) error {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return &ValidationError{Field: "mac", Reason: "MAC/OUI is required"}
	case macPattern.MatchString(s), ouiPattern.MatchString(s):
		return nil
	default:
		return &ValidationError{Field: "mac", Reason: "Invalid MAC/OUI format"}
	}
}

// ParseCaptureTime parses the capture time field in seconds. Blank input
// means DefaultCaptureTime.
func ParseCaptureTime(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultCaptureTime, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, &ValidationError{Field: "capture time", Reason: "Capture time must be a positive whole number of seconds"}
	}
	return n, nil
}

// ParseIgnoreMinutes parses the ignore duration. Blank input means
// DefaultIgnoreMinutes.
func ParseIgnoreMinutes(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultIgnoreMinutes, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, &ValidationError{Field: "duration", Reason: "Please enter a valid duration"}
	}
	return n, nil
}

// NewDevice is the add-device form.
type NewDevice struct {
	Address string
	Name    string
	Command string
	List    string
}

// Request validates the form and builds the add-device body. A blank
// command is replaced with DefaultCommandTemplate.
func (d NewDevice) Request() (detector.AddDeviceRequest, error) {
	addr := strings.TrimSpace(d.Address)
	name := strings.TrimSpace(d.Name)
	if addr == "" || name == "" {
		return detector.AddDeviceRequest{}, &ValidationError{Field: "device", Reason: "MAC/OUI and Name are required"}
	}
	if err := ValidateAddress(addr); err != nil {
		return detector.AddDeviceRequest{}, err
	}
	command := d.Command
	if strings.TrimSpace(command) == "" {
		command = fmt.Sprintf(DefaultCommandTemplate, name)
	}
	return detector.AddDeviceRequest{
		MAC:     addr,
		Name:    name,
		Command: command,
		List:    strings.TrimSpace(d.List),
	}, nil
}

// ValidateListName rejects blank list names.
func ValidateListName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", &ValidationError{Field: "list", Reason: "List name is required"}
	}
	return name, nil
}

// ScanSettings is the editable scan configuration.
type ScanSettings struct {
	Interface   string
	CaptureTime int
	Band2G      bool
	Band5G      bool
	Channels2G  []int
	Channels5G  []int
}

// FromCurrent seeds ScanSettings from what the service reports, falling back
// to the default channel sets when a band has none.
func FromCurrent(cur detector.CurrentSettings) ScanSettings {
	s := ScanSettings{
		Interface:   cur.Interface,
		CaptureTime: cur.CaptureTime,
		Band2G:      cur.Band2G,
		Band5G:      cur.Band5G,
		Channels2G:  slices.Clone(cur.Channels2G),
		Channels5G:  slices.Clone(cur.Channels5G),
	}
	if s.CaptureTime <= 0 {
		s.CaptureTime = DefaultCaptureTime
	}
	if len(s.Channels2G) == 0 {
		s.Channels2G = slices.Clone(DefaultChannels2G)
	}
	if len(s.Channels5G) == 0 {
		s.Channels5G = slices.Clone(DefaultChannels5G)
	}
	return s
}

// Defaults returns the settings used when the service reports nothing.
func Defaults() ScanSettings {
	return FromCurrent(detector.CurrentSettings{Band2G: true})
}

// Validate checks capture time and that every channel belongs to its band.
func (s ScanSettings) Validate() error {
	if s.CaptureTime <= 0 {
		return &ValidationError{Field: "capture time", Reason: "Capture time must be a positive whole number of seconds"}
	}
	if err := checkDomain("2.4GHz", s.Channels2G, Channels2G); err != nil {
		return err
	}
	return checkDomain("5GHz", s.Channels5G, Channels5G)
}

// Request validates s and builds the apply-scan body. Channel lists are
// sorted, de-duplicated, and never nil.
func (s ScanSettings) Request() (detector.ApplyScanRequest, error) {
	if err := s.Validate(); err != nil {
		return detector.ApplyScanRequest{}, err
	}
	return detector.ApplyScanRequest{
		CaptureTime: s.CaptureTime,
		Band2G:      s.Band2G,
		Band5G:      s.Band5G,
		Channels2G:  normalize(s.Channels2G),
		Channels5G:  normalize(s.Channels5G),
	}, nil
}

// ToggleChannel adds or removes ch from the set for its band. It reports
// false when ch is not legal in either band.
func (s *ScanSettings) ToggleChannel(ch int) bool {
	switch {
	case slices.Contains(Channels2G, ch):
		s.Channels2G = toggle(s.Channels2G, ch)
	case slices.Contains(Channels5G, ch):
		s.Channels5G = toggle(s.Channels5G, ch)
	default:
		return false
	}
	return true
}

func checkDomain(band string, selected, legal []int) error {
	for _, ch := range selected {
		if !slices.Contains(legal, ch) {
			return &ValidationError{
				Field:  band + " channels",
				Reason: fmt.Sprintf("Channel %d is not a valid %s channel", ch, band),
			}
		}
	}
	return nil
}

func normalize(in []int) []int {
	out := slices.Clone(in)
	if out == nil {
		out = []int{}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func toggle(set []int, ch int) []int {
	if i := slices.Index(set, ch); i >= 0 {
		return slices.Delete(slices.Clone(set), i, i+1)
	}
	return append(slices.Clone(set), ch)
}
