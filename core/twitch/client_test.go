package twitch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{
		ClientID:     "cid",
		ClientSecret: "secret",
		APIBase:      server.URL,
		TokenURL:     server.URL + "/oauth2/token",
	}, server.Client())
}

func TestScheduleSegmentsPaginates(t *testing.T) {
	calls := 0
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "cid", r.Header.Get("Client-Id"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "b1", r.URL.Query().Get("broadcaster_id"))

		switch r.URL.Query().Get("after") {
		case "":
			json.NewEncoder(w).Encode(map[string]any{
				"data":       map[string]any{"segments": []map[string]any{{"id": "s1", "title": "one"}}},
				"pagination": map[string]any{"cursor": "next"},
			})
		case "next":
			json.NewEncoder(w).Encode(map[string]any{
				"data":       map[string]any{"segments": []map[string]any{{"id": "s2", "title": "two"}}},
				"pagination": map[string]any{},
			})
		default:
			t.Fatalf("unexpected cursor %q", r.URL.Query().Get("after"))
		}
	})

	segments, err := client.ScheduleSegments(context.Background(), "b1", "tok")
	require.NoError(t, err)
	require.Len(t, segments, 2)
	assert.Equal(t, "s1", segments[0].ID)
	assert.Equal(t, "s2", segments[1].ID)
	assert.Equal(t, 2, calls)
}

func TestScheduleSegmentsNoSchedule(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	segments, err := client.ScheduleSegments(context.Background(), "b1", "tok")
	require.NoError(t, err)
	assert.Empty(t, segments)
}

func TestCreateSegmentSendsDurationAsString(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "Show", payload["title"])
		assert.Equal(t, "60", payload["duration"])
		assert.Equal(t, "2026-03-01T18:00:00Z", payload["start_time"])

		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"segments": []map[string]any{
				{"id": "old"},
				{"id": "created", "title": "Show"},
			}},
		})
	})

	start := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	segment, err := client.CreateSegment(context.Background(), "b1", "tok", CreateSegmentParams{
		Title:           "Show",
		Start:           start,
		DurationMinutes: 60,
	})
	require.NoError(t, err)
	assert.Equal(t, "created", segment.ID)
}

func TestUpdateSegmentOmitsUnsetFields(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "seg1", r.URL.Query().Get("id"))
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, map[string]any{"title": "Renamed"}, payload)
		w.WriteHeader(http.StatusNoContent)
	})

	title := "Renamed"
	err := client.UpdateSegment(context.Background(), "b1", "tok", "seg1", UpdateSegmentParams{Title: &title})
	require.NoError(t, err)
}

func TestDeleteSegmentPropagatesFailure(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "segment not found", http.StatusBadRequest)
	})

	err := client.DeleteSegment(context.Background(), "b1", "tok", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestRefreshToken(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		assert.Equal(t, "old-refresh", r.Form.Get("refresh_token"))
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "fresh",
			"refresh_token": "rotated",
			"expires_in":    3600,
		})
	})

	token, err := client.RefreshToken(context.Background(), "old-refresh")
	require.NoError(t, err)
	assert.Equal(t, "fresh", token.AccessToken)
	assert.Equal(t, "rotated", token.RefreshToken)
}

type fakeTokenSource struct {
	refresh string
	stored  string
}

func (f *fakeTokenSource) RefreshTokenFor(_ context.Context, _ string) (string, error) {
	return f.refresh, nil
}

func (f *fakeTokenSource) StoreRefreshToken(_ context.Context, _ string, token string) error {
	f.stored = token
	return nil
}

func TestTokenCacheRefreshesOncePerBroadcaster(t *testing.T) {
	refreshCalls := 0
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		refreshCalls++
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "access",
			"refresh_token": "rotated",
		})
	})

	source := &fakeTokenSource{refresh: "seed"}
	cache := NewTokenCache(client, source)

	first, err := cache.AccessToken(context.Background(), "b1")
	require.NoError(t, err)
	second, err := cache.AccessToken(context.Background(), "b1")
	require.NoError(t, err)

	assert.Equal(t, "access", first)
	assert.Equal(t, "access", second)
	assert.Equal(t, 1, refreshCalls)
	assert.Equal(t, "rotated", source.stored)
}
