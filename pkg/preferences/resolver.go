package preferences

import (
	"time"

	"github.com/finbase/notifier/pkg/events"
)

// ChannelEnabled reports whether the channel's master flag is on.
// Unknown channels are disabled.
func ChannelEnabled(p Preferences, ch events.Channel) bool {
	if !ch.Valid() {
		return false
	}
	return p.Channels[ch]
}

// TypeEnabled reports whether the user accepts notifications of the given
// type on the given channel. The channel master flag is checked first; a
// disabled channel suppresses everything. Categorized types then follow the
// channel's category flag. Types outside the category table are allowed:
// uncategorized events cannot be opted out of per category, only by
// disabling the channel.
func TypeEnabled(p Preferences, ch events.Channel, t events.Type) bool {
	if !ChannelEnabled(p, ch) {
		return false
	}
	cat, ok := events.CategoryOf(t)
	if !ok {
		return true
	}
	return p.Categories[ch][cat]
}

// InQuietHours reports whether now falls inside the user's quiet-hours
// window. Boundaries are inclusive at the start hour and exclusive at the
// end hour. A window whose start is after its end spans midnight.
func InQuietHours(p Preferences, now time.Time) bool {
	start, end := p.QuietHours.Start, p.QuietHours.End
	if start == end {
		return false
	}
	hour := now.Hour()
	if start > end {
		return hour >= start || hour < end
	}
	return hour >= start && hour < end
}

// QuietHoursEnd returns when the current quiet-hours window closes. The
// result is only meaningful when InQuietHours(p, now) is true; deferred
// notifications are rescheduled to this instant.
func QuietHoursEnd(p Preferences, now time.Time) time.Time {
	end := time.Date(now.Year(), now.Month(), now.Day(), p.QuietHours.End, 0, 0, 0, now.Location())
	if !end.After(now) {
		end = end.AddDate(0, 0, 1)
	}
	return end
}

// Channels returns the channels from the requested set that accept the
// given notification type, preserving the requested order. An empty request
// means every enabled channel.
func Channels(p Preferences, t events.Type, requested []events.Channel) []events.Channel {
	if len(requested) == 0 {
		requested = events.Channels()
	}
	eligible := make([]events.Channel, 0, len(requested))
	for _, ch := range requested {
		if TypeEnabled(p, ch, t) {
			eligible = append(eligible, ch)
		}
	}
	return eligible
}
