package smartthings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Logger defines the logging interface used by the Client.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// defaultTimeout bounds API requests when no timeout is configured.
const defaultTimeout = 30 * time.Second

// Config contains SmartThings API client settings.
type Config struct {
	// BaseURL is the API base, e.g. "https://api.smartthings.com/v1".
	BaseURL string

	// Timeout bounds each request. Default 30s.
	Timeout time.Duration
}

// Client calls the SmartThings REST API.
//
// The client is stateless with respect to authorization: the auth token is
// passed on every call because it changes with each lifecycle delivery.
type Client struct {
	baseURL string
	http    *http.Client
	logger  Logger
}

// NewClient creates a SmartThings API client.
//
// Parameters:
//   - cfg: Base URL and request timeout
//
// Returns:
//   - *Client: Ready to use
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the client.
func (c *Client) SetLogger(logger Logger) {
	c.logger = logger
}

// ListSubscriptions returns the subscriptions registered for an installed app.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - token: SmartThings auth token (never logged)
//   - installedAppID: Installation to query
//
// Returns:
//   - []Subscription: Current remote subscriptions
//   - error: ErrUnauthorised or ErrRequestFailed on failure
func (c *Client) ListSubscriptions(ctx context.Context, token, installedAppID string) ([]Subscription, error) {
	url := fmt.Sprintf("%s/installedapps/%s/subscriptions", c.baseURL, installedAppID)

	body, err := c.do(ctx, http.MethodGet, url, token, nil)
	if err != nil {
		return nil, err
	}

	var list subscriptionList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("%w: decoding subscription list: %v", ErrRequestFailed, err)
	}

	return list.Items, nil
}

// CreateDeviceSubscription subscribes to all attribute events from one device.
//
// The subscription name is the device ID, so creating the same subscription
// twice returns ErrConflict; callers treat that as success.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - token: SmartThings auth token
//   - installedAppID: Installation to subscribe under
//   - deviceID: Device to subscribe to
//
// Returns:
//   - error: ErrConflict if already subscribed, ErrUnauthorised or
//     ErrRequestFailed otherwise
func (c *Client) CreateDeviceSubscription(ctx context.Context, token, installedAppID, deviceID string) error {
	url := fmt.Sprintf("%s/installedapps/%s/subscriptions", c.baseURL, installedAppID)

	req := createSubscriptionRequest{
		SourceType: SourceTypeDevice,
		Device: &DeviceSubscriptionDetail{
			DeviceID:         deviceID,
			ComponentID:      "*",
			Capability:       "*",
			Attribute:        "*",
			Value:            "*",
			StateChangeOnly:  true,
			SubscriptionName: deviceID,
		},
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("%w: encoding subscription: %v", ErrRequestFailed, err)
	}

	if _, err := c.do(ctx, http.MethodPost, url, token, payload); err != nil {
		return err
	}

	c.logger.Debug("device subscription created", "device_id", deviceID)
	return nil
}

// CreateLifecycleSubscription subscribes to device add/remove/update
// notifications for a location. One per installation; duplicates return
// ErrConflict.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - token: SmartThings auth token
//   - installedAppID: Installation to subscribe under
//   - locationID: Location whose device lifecycle to observe
//
// Returns:
//   - error: ErrConflict if already subscribed, ErrUnauthorised or
//     ErrRequestFailed otherwise
func (c *Client) CreateLifecycleSubscription(ctx context.Context, token, installedAppID, locationID string) error {
	url := fmt.Sprintf("%s/installedapps/%s/subscriptions", c.baseURL, installedAppID)

	req := createSubscriptionRequest{
		SourceType: SourceTypeDeviceLifecycle,
		DeviceLifecycle: &DeviceLifecycleSubscriptionDetail{
			LocationID:       locationID,
			SubscriptionName: lifecycleSubscriptionName,
		},
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("%w: encoding subscription: %v", ErrRequestFailed, err)
	}

	if _, err := c.do(ctx, http.MethodPost, url, token, payload); err != nil {
		return err
	}

	c.logger.Debug("device lifecycle subscription created", "location_id", locationID)
	return nil
}

// DeleteAllSubscriptions removes every subscription for an installed app.
// Used by the UPDATE lifecycle phase before recreating from scratch.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - token: SmartThings auth token
//   - installedAppID: Installation to clear
//
// Returns:
//   - error: ErrUnauthorised or ErrRequestFailed on failure
func (c *Client) DeleteAllSubscriptions(ctx context.Context, token, installedAppID string) error {
	url := fmt.Sprintf("%s/installedapps/%s/subscriptions", c.baseURL, installedAppID)

	if _, err := c.do(ctx, http.MethodDelete, url, token, nil); err != nil {
		return err
	}

	c.logger.Debug("all subscriptions deleted", "installed_app_id", installedAppID)
	return nil
}

// ConfirmEndpoint fetches the confirmation URL delivered with the
// CONFIRMATION lifecycle phase. The platform only checks that the URL was
// visited, so any HTTP response counts as success; only a transport failure
// is an error.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - confirmationURL: URL from the confirmation payload
//
// Returns:
//   - error: ErrRequestFailed wrapped around the transport failure, or nil
func (c *Client) ConfirmEndpoint(ctx context.Context, confirmationURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, confirmationURL, nil)
	if err != nil {
		return fmt.Errorf("%w: building confirmation request: %v", ErrRequestFailed, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: fetching confirmation url: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close() //nolint:errcheck // Best effort

	// Drain so the connection can be reused
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	c.logger.Info("endpoint confirmation fetched", "status", resp.StatusCode)
	return nil
}

// do executes a request and maps HTTP statuses to sentinel errors.
// Returns the response body on 2xx.
func (c *Client) do(ctx context.Context, method, url, token string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", ErrRequestFailed, err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close() //nolint:errcheck // Best effort

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrRequestFailed, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode == http.StatusConflict:
		return nil, ErrConflict
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: status %d", ErrUnauthorised, resp.StatusCode)
	default:
		return nil, fmt.Errorf("%w: %s %s returned status %d", ErrRequestFailed, method, url, resp.StatusCode)
	}
}
