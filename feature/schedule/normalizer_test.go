package schedule

import (
	"testing"
	"time"

	"guildsmith/core/platform"
	"guildsmith/core/twitch"

	"github.com/stretchr/testify/assert"
)

func TestFromNativeUsesStartAsUpdatedProxy(t *testing.T) {
	start := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	ev := FromNative(platform.ScheduledEvent{
		ID:        "n1",
		Name:      "Weekly Show",
		Start:     start,
		Status:    platform.EventStatus("SCHEDULED"),
		ChannelID: "ch1",
	})

	assert.Equal(t, "Weekly Show", ev.Title)
	assert.Equal(t, "2026-03-01T18:00:00Z", ev.Start)
	assert.Empty(t, ev.End)
	assert.Equal(t, "scheduled", ev.Status)
	assert.Equal(t, ev.Start, ev.UpdatedAt, "no edit timestamp, start stands in")
	assert.Empty(t, ev.Category, "native events carry no category")
}

func TestFromSegmentDefaults(t *testing.T) {
	ev := FromSegment(twitch.Segment{
		ID:        "s1",
		Title:     "   ",
		StartTime: "2026-03-01T18:00:00Z",
	})
	assert.Equal(t, "Twitch Stream", ev.Title, "blank title gets the placeholder")
	assert.Equal(t, "scheduled", ev.Status)
	assert.Equal(t, "2026-03-01T18:00:00Z", ev.UpdatedAt, "missing updated-at falls back to start")

	canceled := FromSegment(twitch.Segment{
		ID:            "s2",
		Title:         "Show",
		CanceledUntil: "2026-03-02T00:00:00Z",
		UpdatedAt:     "2026-03-01T12:00:00Z",
		Category:      &twitch.SegmentCategory{ID: "509658", Name: "Just Chatting"},
	})
	assert.Equal(t, "canceled", canceled.Status)
	assert.Equal(t, "Just Chatting", canceled.Category)
	assert.Equal(t, "2026-03-01T12:00:00Z", canceled.UpdatedAt)
}

func TestHashDetectsMaterialChange(t *testing.T) {
	base := Event{Title: "Show", Start: "2026-03-01T18:00:00Z", End: "2026-03-01T19:00:00Z"}
	same := base
	assert.Equal(t, Hash(base), Hash(same))

	renamed := base
	renamed.Title = "Other Show"
	assert.NotEqual(t, Hash(base), Hash(renamed))

	statusOnly := base
	statusOnly.Status = "canceled"
	assert.Equal(t, Hash(base), Hash(statusOnly), "status is not part of the content hash")
}

func TestFuzzyMatchWindowBoundary(t *testing.T) {
	a := Event{Title: "Weekly  Show", Start: "2026-03-01T18:00:00Z"}

	within := Event{Title: "weekly show", Start: "2026-03-01T18:30:00Z"}
	assert.True(t, fuzzyMatch(a, within), "1800s apart with normalized-equal titles matches")

	outside := Event{Title: "weekly show", Start: "2026-03-01T18:30:01Z"}
	assert.False(t, fuzzyMatch(a, outside), "1801s apart does not match")

	otherTitle := Event{Title: "other show", Start: "2026-03-01T18:00:00Z"}
	assert.False(t, fuzzyMatch(a, otherTitle))

	unparseable := Event{Title: "weekly show", Start: "soon"}
	assert.False(t, fuzzyMatch(a, unparseable))
}

func TestExternalWinsDirection(t *testing.T) {
	nat := Event{UpdatedAt: "2026-03-01T18:00:00Z"}
	ext := Event{UpdatedAt: "2026-03-01T18:01:00Z"}
	assert.True(t, externalWins(nat, ext))
	assert.False(t, externalWins(ext, nat))

	tie := Event{UpdatedAt: "2026-03-01T18:00:00Z"}
	assert.False(t, externalWins(nat, tie), "ties go to the native side")

	blank := Event{}
	assert.True(t, externalWins(blank, ext), "the only parseable side wins")
	assert.False(t, externalWins(nat, blank))
	assert.False(t, externalWins(blank, blank), "neither parseable defaults to native")
}
