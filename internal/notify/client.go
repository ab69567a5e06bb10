// Package notify is a thin orchestration layer over the external push
// notification HTTP service: token listing, fan-out sends, the recurring
// water-reminder campaign, and precomputed analytics/A-B aggregates.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	errMissingBaseURL = errors.New("notify: base url is required")

	// ErrUpstream wraps any failure reported by or while reaching the
	// notification service.
	ErrUpstream = errors.New("notify: notification service request failed")
)

// Timeframe selects the analytics window.
type Timeframe string

const (
	TimeframeDay   Timeframe = "day"
	TimeframeWeek  Timeframe = "week"
	TimeframeMonth Timeframe = "month"
)

// Valid reports whether the value names a known timeframe.
func (t Timeframe) Valid() bool {
	switch t {
	case TimeframeDay, TimeframeWeek, TimeframeMonth:
		return true
	}
	return false
}

// PushToken is one registered device.
type PushToken struct {
	UserID   string `json:"userId"`
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

// SendResult reports a fan-out outcome.
type SendResult struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// ReminderJob is one scheduled invocation of the water-reminder campaign.
type ReminderJob struct {
	NextInvocation time.Time `json:"nextInvocation"`
}

// ReminderStatus describes the water-reminder schedule.
type ReminderStatus struct {
	Active bool          `json:"active"`
	Jobs   []ReminderJob `json:"jobs"`
}

// NextReminder returns the first scheduled invocation, if any.
func (s ReminderStatus) NextReminder() (time.Time, bool) {
	if len(s.Jobs) == 0 {
		return time.Time{}, false
	}
	return s.Jobs[0].NextInvocation, true
}

// ReminderStart is the response to starting the campaign.
type ReminderStart struct {
	NextReminder time.Time `json:"nextReminder"`
	Schedule     string    `json:"schedule"`
}

// ReminderSendResult reports an immediate reminder fan-out.
type ReminderSendResult struct {
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// NotificationRecord is one sent notification with its tracking counts.
type NotificationRecord struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	SentAt           time.Time `json:"sentAt"`
	SentCount        int       `json:"sentCount"`
	TargetCount      int       `json:"targetCount"`
	OpenCount        int       `json:"openCount"`
	InteractionCount int       `json:"interactionCount"`
}

// AnalyticsSummary carries the precomputed rollup for a timeframe.
type AnalyticsSummary struct {
	TotalSent         int     `json:"totalSent"`
	TotalDelivered    int     `json:"totalDelivered"`
	TotalOpened       int     `json:"totalOpened"`
	TotalInteractions int     `json:"totalInteractions"`
	DeliveryRate      float64 `json:"deliveryRate"`
	OpenRate          float64 `json:"openRate"`
	InteractionRate   float64 `json:"interactionRate"`
}

// AnalyticsReport is the full analytics response. Notifications may be
// empty for a quiet period; that is an empty state, not an error.
type AnalyticsReport struct {
	Summary       AnalyticsSummary     `json:"summary"`
	Notifications []NotificationRecord `json:"notifications"`
}

// Campaign is an A/B test campaign reference.
type Campaign struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Variant is one arm of an A/B test.
type Variant struct {
	ID              string  `json:"id"`
	Variant         string  `json:"variant"`
	Title           string  `json:"title"`
	Body            string  `json:"body"`
	OpenRate        float64 `json:"openRate"`
	InteractionRate float64 `json:"interactionRate"`
}

// ABResult is the raw A/B comparison for a campaign.
type ABResult struct {
	Variants []Variant `json:"variants"`
	Winner   Variant   `json:"winner"`
}

// ClientConfig bundles configuration for the service client.
type ClientConfig struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client talks to the notification service under its /api base path.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient validates configuration and builds a Client.
func NewClient(cfg ClientConfig) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errMissingBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{baseURL: baseURL, httpClient: httpClient, logger: logger}, nil
}

// Tokens fetches every registered device token.
func (c *Client) Tokens(ctx context.Context) ([]PushToken, error) {
	var response struct {
		Tokens []PushToken `json:"tokens"`
	}
	if err := c.get(ctx, "/tokens", &response); err != nil {
		return nil, err
	}
	return response.Tokens, nil
}

type sendPayload struct {
	Tokens []string       `json:"tokens"`
	Title  string         `json:"title"`
	Body   string         `json:"body"`
	Data   map[string]any `json:"data"`
}

// Send fans a notification out to the given device tokens. Validation of
// title/body/data happens in the Panel before this is reached.
func (c *Client) Send(ctx context.Context, tokens []string, title, body string, data map[string]any) (SendResult, error) {
	var result SendResult
	payload := sendPayload{Tokens: tokens, Title: title, Body: body, Data: data}
	if err := c.post(ctx, "/send-notifications", payload, &result); err != nil {
		return SendResult{}, err
	}
	return result, nil
}

// WaterReminderStatus reports whether the recurring campaign is active and
// when it next fires.
func (c *Client) WaterReminderStatus(ctx context.Context) (ReminderStatus, error) {
	var status ReminderStatus
	if err := c.get(ctx, "/water-reminders/status", &status); err != nil {
		return ReminderStatus{}, err
	}
	return status, nil
}

// StartWaterReminders activates the recurring campaign. The schedule
// itself lives server-side and is opaque to this layer.
func (c *Client) StartWaterReminders(ctx context.Context) (ReminderStart, error) {
	var start ReminderStart
	if err := c.post(ctx, "/start-water-reminders", struct{}{}, &start); err != nil {
		return ReminderStart{}, err
	}
	return start, nil
}

// SendWaterReminderNow fires an immediate reminder to all devices.
func (c *Client) SendWaterReminderNow(ctx context.Context) (ReminderSendResult, error) {
	var result ReminderSendResult
	if err := c.post(ctx, "/water-reminders/send-now", struct{}{}, &result); err != nil {
		return ReminderSendResult{}, err
	}
	return result, nil
}

// Analytics fetches the precomputed aggregates for a timeframe.
func (c *Client) Analytics(ctx context.Context, timeframe Timeframe) (AnalyticsReport, error) {
	var report AnalyticsReport
	path := "/notification-analytics?timeframe=" + url.QueryEscape(string(timeframe))
	if err := c.get(ctx, path, &report); err != nil {
		return AnalyticsReport{}, err
	}
	return report, nil
}

// Campaigns lists the A/B test campaigns.
func (c *Client) Campaigns(ctx context.Context) ([]Campaign, error) {
	var response struct {
		Campaigns []Campaign `json:"campaigns"`
	}
	if err := c.get(ctx, "/campaigns", &response); err != nil {
		return nil, err
	}
	return response.Campaigns, nil
}

// ABTestResults fetches the variant list and designated winner for a
// campaign.
func (c *Client) ABTestResults(ctx context.Context, campaignID string) (ABResult, error) {
	var result ABResult
	if err := c.get(ctx, "/ab-test-results/"+url.PathEscape(campaignID), &result); err != nil {
		return ABResult{}, err
	}
	return result, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return c.do(request, out)
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	request.Header.Set("Content-Type", "application/json")
	return c.do(request, out)
}

func (c *Client) do(request *http.Request, out any) error {
	response, err := c.httpClient.Do(request)
	if err != nil {
		c.logger.Warn("notification service unreachable", zap.String("path", request.URL.Path), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		var upstream struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(body, &upstream); err == nil && upstream.Error != "" {
			return fmt.Errorf("%w: %s", ErrUpstream, upstream.Error)
		}
		return fmt.Errorf("%w: status %d", ErrUpstream, response.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return nil
}
