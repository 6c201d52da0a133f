package schedule

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"guildsmith/core/platform"
	"guildsmith/core/twitch"
)

// placeholderTitle substitutes for segments saved without a title.
const placeholderTitle = "Twitch Stream"

// Event is the canonical, platform-agnostic event shape both sides are
// normalized into before hashing and comparison. Times are RFC3339 strings
// or empty.
type Event struct {
	ID          string
	Title       string
	Description string
	Category    string
	Start       string
	End         string
	Status      string
	ChannelID   string
	UpdatedAt   string
}

// FromNative maps a Discord scheduled event into the canonical shape.
// Discord exposes no edit timestamp, so the start time stands in for
// UpdatedAt.
func FromNative(ev platform.ScheduledEvent) Event {
	start := formatTime(ev.Start)
	return Event{
		ID:          ev.ID,
		Title:       ev.Name,
		Description: ev.Description,
		Start:       start,
		End:         formatTime(ev.End),
		Status:      strings.ToLower(string(ev.Status)),
		ChannelID:   ev.ChannelID,
		UpdatedAt:   start,
	}
}

// FromSegment maps a Twitch schedule segment into the canonical shape.
func FromSegment(seg twitch.Segment) Event {
	title := strings.TrimSpace(seg.Title)
	if title == "" {
		title = placeholderTitle
	}
	category := ""
	if seg.Category != nil {
		category = seg.Category.Name
	}
	status := "scheduled"
	if seg.CanceledUntil != "" {
		status = "canceled"
	}
	updated := seg.UpdatedAt
	if updated == "" {
		updated = seg.StartTime
	}
	return Event{
		ID:        seg.ID,
		Title:     title,
		Category:  category,
		Start:     seg.StartTime,
		End:       seg.EndTime,
		Status:    status,
		UpdatedAt: updated,
	}
}

// Hash digests the fields that constitute a material change. Status and
// channel are deliberately excluded: they differ by platform mechanics,
// not by content.
func Hash(ev Event) string {
	sum := sha256.Sum256([]byte(ev.Title + "|" + ev.Start + "|" + ev.End + "|" + ev.Description + "|" + ev.Category))
	return hex.EncodeToString(sum[:])
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// normalizeTitle collapses case and whitespace for fuzzy matching.
func normalizeTitle(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// fuzzyWindow is the maximum start-time distance for a fuzzy pairing.
const fuzzyWindow = 30 * time.Minute

// fuzzyMatch reports whether two events refer to the same occasion:
// identical normalized titles with start times at most 30 minutes apart.
func fuzzyMatch(a, b Event) bool {
	if normalizeTitle(a.Title) != normalizeTitle(b.Title) {
		return false
	}
	at, aok := parseTime(a.Start)
	bt, bok := parseTime(b.Start)
	if !aok || !bok {
		return false
	}
	delta := at.Sub(bt)
	if delta < 0 {
		delta = -delta
	}
	return delta <= fuzzyWindow
}
