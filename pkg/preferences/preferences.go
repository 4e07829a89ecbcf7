package preferences

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/finbase/notifier/pkg/events"
)

// DigestFrequency controls how often digest notifications are batched.
type DigestFrequency string

const (
	DigestNone   DigestFrequency = "none"
	DigestHourly DigestFrequency = "hourly"
	DigestDaily  DigestFrequency = "daily"
	DigestWeekly DigestFrequency = "weekly"
)

// QuietHours is a user-configured suppression window in whole hours.
// A window with Start > End spans midnight; Start == End means no window.
type QuietHours struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// ParseQuietHours parses "HH:MM" boundaries as stored by the admin panel.
// Minutes are accepted but ignored; the window operates on whole hours.
func ParseQuietHours(start, end string) (QuietHours, error) {
	s, err := parseHour(start)
	if err != nil {
		return QuietHours{}, fmt.Errorf("invalid quiet hours start %q: %w", start, err)
	}
	e, err := parseHour(end)
	if err != nil {
		return QuietHours{}, fmt.Errorf("invalid quiet hours end %q: %w", end, err)
	}
	return QuietHours{Start: s, End: e}, nil
}

func parseHour(v string) (int, error) {
	h, _, _ := strings.Cut(v, ":")
	n, err := strconv.Atoi(h)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > 23 {
		return 0, fmt.Errorf("hour %d out of range", n)
	}
	return n, nil
}

// Preferences holds one user's notification preferences.
type Preferences struct {
	UserID string `json:"user_id"`

	// Channels holds the per-channel master flags. A channel absent from
	// the map is disabled.
	Channels map[events.Channel]bool `json:"channels"`

	// Categories holds the per-channel, per-category flags. The channel
	// master flag is a precondition: a disabled channel suppresses every
	// category regardless of these values.
	Categories map[events.Channel]map[events.Category]bool `json:"categories"`

	QuietHours QuietHours      `json:"quiet_hours"`
	Digest     DigestFrequency `json:"digest"`
	Timezone   string          `json:"timezone"`
	Language   string          `json:"language"`
}

// Default returns preferences with every channel and category enabled and no
// quiet hours, matching the behavior for users who never opened the settings
// panel.
func Default(userID string) Preferences {
	channels := make(map[events.Channel]bool, 4)
	categories := make(map[events.Channel]map[events.Category]bool, 4)
	allCategories := []events.Category{
		events.CategoryTransaction,
		events.CategorySecurity,
		events.CategoryMarketing,
		events.CategorySupport,
		events.CategorySavings,
	}
	for _, ch := range events.Channels() {
		channels[ch] = true
		flags := make(map[events.Category]bool, len(allCategories))
		for _, cat := range allCategories {
			flags[cat] = true
		}
		categories[ch] = flags
	}
	return Preferences{
		UserID:     userID,
		Channels:   channels,
		Categories: categories,
		Digest:     DigestNone,
		Timezone:   "UTC",
		Language:   "en",
	}
}
