// Package platform sends desktop notifications through the host's
// notification service.
package platform

// Urgency follows the freedesktop notification urgency levels.
type Urgency byte

const (
	UrgencyLow Urgency = iota
	UrgencyNormal
	UrgencyCritical
)

// Options configures how a notification is displayed on the host platform.
type Options struct {
	// IconPath, when non-empty, points to an image file the notification center
	// should display with the notification if supported by the platform.
	IconPath string
	Urgency  Urgency
	// Timeout in milliseconds; zero uses the default.
	Timeout int32
}

// AppName is reported to the notification service.
const AppName = "Cutout"

const defaultTimeout = 5000

func (o Options) timeout() int32 {
	if o.Timeout > 0 {
		return o.Timeout
	}
	return defaultTimeout
}
