package twitch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAPIBase   = "https://api.twitch.tv/helix"
	defaultTokenURL  = "https://id.twitch.tv/oauth2/token"
	requestTimeout   = 30 * time.Second
	segmentsPageSize = 25
)

// Segment is one schedule entry as returned by the Helix schedule API.
type Segment struct {
	ID            string           `json:"id"`
	Title         string           `json:"title"`
	StartTime     string           `json:"start_time"`
	EndTime       string           `json:"end_time"`
	CanceledUntil string           `json:"canceled_until"`
	Category      *SegmentCategory `json:"category"`
	IsRecurring   bool             `json:"is_recurring"`
	UpdatedAt     string           `json:"updated_at"`
}

// SegmentCategory is the nested game/category object on a segment.
type SegmentCategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CreateSegmentParams describes a new schedule segment.
type CreateSegmentParams struct {
	Title           string
	Start           time.Time
	DurationMinutes int
	CategoryID      string
	IsCanceled      bool
}

// UpdateSegmentParams carries optional segment mutations.
type UpdateSegmentParams struct {
	Title           *string
	Start           *time.Time
	DurationMinutes *int
	CategoryID      *string
	IsCanceled      *bool
}

// TokenResponse is the OAuth token endpoint reply.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// Client talks to the Helix schedule endpoints for one application.
type Client struct {
	httpClient   *http.Client
	apiBase      string
	tokenURL     string
	clientID     string
	clientSecret string
}

// NewClient builds a Helix client. A nil httpClient gets a default with a
// request timeout.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	apiBase := cfg.APIBase
	if apiBase == "" {
		apiBase = defaultAPIBase
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = defaultTokenURL
	}
	return &Client{
		httpClient:   httpClient,
		apiBase:      apiBase,
		tokenURL:     tokenURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
	}
}

func (c *Client) headers(req *http.Request, accessToken string) {
	req.Header.Set("Client-Id", c.clientID)
	req.Header.Set("Authorization", "Bearer "+accessToken)
}

// rfc3339 renders a UTC Z-suffixed timestamp the way Helix expects.
func rfc3339(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}

type scheduleResponse struct {
	Data struct {
		Segments []Segment `json:"segments"`
	} `json:"data"`
	Pagination struct {
		Cursor string `json:"cursor"`
	} `json:"pagination"`
}

// ScheduleSegments lists every schedule segment for a broadcaster,
// following pagination cursors until exhausted.
func (c *Client) ScheduleSegments(ctx context.Context, broadcasterID, accessToken string) ([]Segment, error) {
	var out []Segment
	cursor := ""
	for {
		params := url.Values{}
		params.Set("broadcaster_id", broadcasterID)
		params.Set("first", strconv.Itoa(segmentsPageSize))
		if cursor != "" {
			params.Set("after", cursor)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+"/schedule?"+params.Encode(), nil)
		if err != nil {
			return nil, err
		}
		c.headers(req, accessToken)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("schedule get: %w", err)
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("schedule read: %w", err)
		}
		if resp.StatusCode == http.StatusNotFound {
			// Broadcaster has no schedule; Helix 404s instead of
			// returning an empty list.
			return nil, nil
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("schedule get %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}

		var page scheduleResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("schedule decode: %w", err)
		}
		out = append(out, page.Data.Segments...)
		cursor = page.Pagination.Cursor
		if cursor == "" {
			return out, nil
		}
	}
}

// CreateSegment adds a schedule segment and returns its assigned ID. The
// API replies with the whole schedule; the newest segment is the last one.
func (c *Client) CreateSegment(ctx context.Context, broadcasterID, accessToken string, params CreateSegmentParams) (Segment, error) {
	payload := map[string]any{
		"title":      params.Title,
		"start_time": rfc3339(params.Start),
		// Helix wants the duration as a string of minutes.
		"duration":    strconv.Itoa(params.DurationMinutes),
		"is_canceled": params.IsCanceled,
	}
	if params.CategoryID != "" {
		payload["category_id"] = params.CategoryID
	}

	body, err := c.do(ctx, http.MethodPost, "/schedule/segment", url.Values{"broadcaster_id": {broadcasterID}}, accessToken, payload, http.StatusOK, http.StatusCreated)
	if err != nil {
		return Segment{}, fmt.Errorf("create segment: %w", err)
	}

	var reply scheduleResponse
	if err := json.Unmarshal(body, &reply); err != nil {
		return Segment{}, fmt.Errorf("create segment decode: %w", err)
	}
	segs := reply.Data.Segments
	if len(segs) == 0 {
		return Segment{}, fmt.Errorf("create segment: empty schedule in response")
	}
	return segs[len(segs)-1], nil
}

// UpdateSegment patches an existing segment with any subset of fields.
func (c *Client) UpdateSegment(ctx context.Context, broadcasterID, accessToken, segmentID string, params UpdateSegmentParams) error {
	payload := map[string]any{}
	if params.Title != nil {
		payload["title"] = *params.Title
	}
	if params.Start != nil {
		payload["start_time"] = rfc3339(*params.Start)
	}
	if params.DurationMinutes != nil {
		payload["duration"] = strconv.Itoa(*params.DurationMinutes)
	}
	if params.CategoryID != nil {
		payload["category_id"] = *params.CategoryID
	}
	if params.IsCanceled != nil {
		payload["is_canceled"] = *params.IsCanceled
	}
	if len(payload) == 0 {
		return nil
	}

	query := url.Values{"broadcaster_id": {broadcasterID}, "id": {segmentID}}
	_, err := c.do(ctx, http.MethodPatch, "/schedule/segment", query, accessToken, payload, http.StatusOK, http.StatusNoContent)
	if err != nil {
		return fmt.Errorf("update segment %s: %w", segmentID, err)
	}
	return nil
}

// DeleteSegment removes a segment from the schedule.
func (c *Client) DeleteSegment(ctx context.Context, broadcasterID, accessToken, segmentID string) error {
	query := url.Values{"broadcaster_id": {broadcasterID}, "id": {segmentID}}
	_, err := c.do(ctx, http.MethodDelete, "/schedule/segment", query, accessToken, nil, http.StatusOK, http.StatusNoContent)
	if err != nil {
		return fmt.Errorf("delete segment %s: %w", segmentID, err)
	}
	return nil
}

// RefreshToken exchanges a refresh token for a fresh access token.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (TokenResponse, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return TokenResponse{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return TokenResponse{}, fmt.Errorf("token refresh: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return TokenResponse{}, fmt.Errorf("token refresh read: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return TokenResponse{}, fmt.Errorf("token refresh %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var token TokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return TokenResponse{}, fmt.Errorf("token refresh decode: %w", err)
	}
	return token, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, accessToken string, payload any, okStatuses ...int) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reqBody = strings.NewReader(string(encoded))
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiBase+path+"?"+query.Encode(), reqBody)
	if err != nil {
		return nil, err
	}
	c.headers(req, accessToken)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	for _, status := range okStatuses {
		if resp.StatusCode == status {
			return body, nil
		}
	}
	return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}
