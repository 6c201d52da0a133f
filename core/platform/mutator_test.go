package platform

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restError(status int, body string) *discordgo.RESTError {
	return &discordgo.RESTError{
		Response:     &http.Response{StatusCode: status},
		ResponseBody: []byte(body),
	}
}

func newTestMutator() (*Mutator, *[]time.Duration) {
	slept := &[]time.Duration{}
	m := NewMutator(time.Millisecond)
	m.sleep = func(_ context.Context, d time.Duration) error {
		*slept = append(*slept, d)
		return nil
	}
	return m, slept
}

func TestMutatorDo(t *testing.T) {
	t.Run("Success applies delay", func(t *testing.T) {
		m, slept := newTestMutator()
		err := m.Do(context.Background(), func() error { return nil })
		require.NoError(t, err)
		assert.Equal(t, []time.Duration{time.Millisecond}, *slept)
	})

	t.Run("Transient retried with backoff", func(t *testing.T) {
		m, slept := newTestMutator()
		calls := 0
		err := m.Do(context.Background(), func() error {
			calls++
			if calls < 3 {
				return restError(http.StatusTooManyRequests, "")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
		// two backoff sleeps then the post-write delay
		assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, time.Millisecond}, *slept)
	})

	t.Run("Transient gives up after attempts", func(t *testing.T) {
		m, _ := newTestMutator()
		calls := 0
		err := m.Do(context.Background(), func() error {
			calls++
			return restError(http.StatusBadGateway, "")
		})
		assert.Error(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("Permission not retried", func(t *testing.T) {
		m, _ := newTestMutator()
		calls := 0
		err := m.Do(context.Background(), func() error {
			calls++
			return restError(http.StatusForbidden, `{"message":"Missing Permissions"}`)
		})
		assert.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("Cancelled context short-circuits", func(t *testing.T) {
		m, _ := newTestMutator()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		calls := 0
		err := m.Do(ctx, func() error { calls++; return nil })
		assert.Error(t, err)
		assert.Zero(t, calls)
	})
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		transient  bool
		permission bool
	}{
		{"429", restError(http.StatusTooManyRequests, ""), true, false},
		{"502", restError(http.StatusBadGateway, ""), true, false},
		{"403 denial", restError(http.StatusForbidden, `{"message":"Missing Permissions"}`), false, true},
		{"403 edge block page", restError(http.StatusForbidden, "<html>error-1015</html>"), true, false},
		{"200 block page", restError(http.StatusOK, "temporarily from accessing"), true, false},
		{"plain error", fmt.Errorf("boom"), false, false},
		{"wrapped sentinel", fmt.Errorf("create role: %w", ErrPermission), false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.transient, IsTransient(tt.err))
			assert.Equal(t, tt.permission, IsPermission(tt.err))
		})
	}
}

func TestChannelKindClass(t *testing.T) {
	assert.Equal(t, KindText, KindAnnouncement.Class())
	assert.Equal(t, KindVoice, KindStage.Class())
	assert.Equal(t, KindForum, KindForum.Class())
	assert.Equal(t, KindText, ChannelKind("").Class())
	assert.True(t, KindAnnouncement.SupportsOptions())
	assert.False(t, KindVoice.SupportsOptions())
}
