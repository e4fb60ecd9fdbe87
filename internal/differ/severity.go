package differ

import "strings"

// SeverityLevel 0=expected, 1=ripple, 2=unexpected
type SeverityLevel int

const (
	SeveritySafe SeverityLevel = iota
	SeverityModerate
	SeverityCritical
)

// GetSeverity classifies a translated change. Version movement on the
// bumped pack is the point of the operation; dependency re-pins are
// ripple effects worth a second look; anything else means the write
// would touch fields a bump has no business touching.
func GetSeverity(translation string) SeverityLevel {
	switch {
	case strings.Contains(translation, "re-targeted"):
		return SeverityModerate
	case strings.Contains(translation, "version advanced"),
		strings.Contains(translation, "aligned with the header"):
		return SeveritySafe
	default:
		return SeverityCritical
	}
}

// SeverityString to lowercase
func SeverityString(s SeverityLevel) string {
	switch s {
	case SeverityCritical:
		return "critical"
	case SeverityModerate:
		return "moderate"
	case SeveritySafe:
		return "info"
	default:
		return "unknown"
	}
}
