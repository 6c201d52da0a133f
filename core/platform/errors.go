package platform

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// ErrPermission marks a mutation the platform denied. The applier logs and
// skips the entity instead of aborting the stage.
var ErrPermission = errors.New("platform: permission denied")

// ErrUnsupported marks a capability the adapter cannot provide.
var ErrUnsupported = errors.New("platform: unsupported operation")

// abuseMarkers are substrings of HTML block pages the platform's edge can
// return with a 200 or 403 status during rate spikes.
var abuseMarkers = []string{
	"temporarily from accessing",
	"error-1015",
}

// IsTransient reports whether err looks like a rate limit or transient
// transport failure worth retrying.
func IsTransient(err error) bool {
	var rerr *discordgo.RESTError
	if errors.As(err, &rerr) {
		if rerr.Response != nil {
			switch rerr.Response.StatusCode {
			case http.StatusTooManyRequests,
				http.StatusInternalServerError,
				http.StatusBadGateway,
				http.StatusServiceUnavailable,
				http.StatusGatewayTimeout:
				return true
			}
		}
		return bodyLooksBlocked(string(rerr.ResponseBody))
	}
	var ratelimited *discordgo.RateLimitError
	return errors.As(err, &ratelimited)
}

// IsPermission reports whether err is a permission denial, either the
// sentinel or a platform 403.
func IsPermission(err error) bool {
	if errors.Is(err, ErrPermission) {
		return true
	}
	var rerr *discordgo.RESTError
	if errors.As(err, &rerr) && rerr.Response != nil {
		return rerr.Response.StatusCode == http.StatusForbidden &&
			!bodyLooksBlocked(string(rerr.ResponseBody))
	}
	return false
}

func bodyLooksBlocked(body string) bool {
	for _, marker := range abuseMarkers {
		if strings.Contains(body, marker) {
			return true
		}
	}
	return false
}

// wrapOp tags an adapter error with the failing operation, converting
// platform 403s into the permission sentinel.
func wrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsPermission(err) {
		return fmt.Errorf("%s: %w: %v", op, ErrPermission, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
