package detector

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// API is the fixed set of operations the dashboard depends on. It is
// implemented by *Client.
type API interface {
	FetchDevices(ctx context.Context) ([]string, error)
	FetchStatus(ctx context.Context) (*Status, error)
	FetchListsStatus(ctx context.Context) (*ListsStatus, error)
	FetchLists(ctx context.Context) ([]string, error)
	FetchConfig(ctx context.Context) (*ServiceConfig, error)
	FetchSettings(ctx context.Context) (*CurrentSettings, error)
	ToggleList(ctx context.Context, name string, active bool) error
	CreateList(ctx context.Context, name string) error
	AddDevice(ctx context.Context, req AddDeviceRequest) error
	RemoveDevice(ctx context.Context, mac string) error
	IgnoreDevice(ctx context.Context, mac string, minutes int) error
	TogglePause(ctx context.Context) (bool, error)
	ClearLog(ctx context.Context) error
	ApplyInterface(ctx context.Context, iface string) error
	ApplyScan(ctx context.Context, req ApplyScanRequest) error
	ResetSettings(ctx context.Context) error
	Restart(ctx context.Context) error
	Probe(ctx context.Context) error
}

// Ensure Client implements API at compile time.
var _ API = (*Client)(nil)

// Client talks to the detector HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	logger    *log.Logger
}

const (
	defaultAPIURL         = "127.0.0.1:5000"
	defaultUserAgent      = "ouiwatch/0.1"
	defaultRequestTimeout = 5 * time.Second
)

// Option customizes a Client.
type Option func(*Client)

// WithTimeout bounds every request issued by the client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithLogger routes request diagnostics to logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient builds a Client for the service at apiURL (host:port or a full URL).
func NewClient(apiURL string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(apiURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: defaultRequestTimeout},
		userAgent: defaultUserAgent,
		logger:    log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized service address.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// FetchDevices retrieves the full device log, in server order.
func (c *Client) FetchDevices(ctx context.Context) ([]string, error) {
	var lines []string
	if err := c.do(ctx, http.MethodGet, "/api/devices", nil, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// FetchStatus retrieves the live scan status.
func (c *Client) FetchStatus(ctx context.Context) (*Status, error) {
	var payload Status
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// FetchListsStatus retrieves the active/inactive partition of filter lists.
func (c *Client) FetchListsStatus(ctx context.Context) (*ListsStatus, error) {
	var payload ListsStatus
	if err := c.do(ctx, http.MethodGet, "/api/lists-status", nil, &payload); err != nil {
		return nil, err
	}
	if payload.Status != "" && !strings.EqualFold(payload.Status, StatusSuccess) {
		return nil, &APIError{Op: "fetch list status", Message: payload.Message}
	}
	return &payload, nil
}

// FetchLists retrieves every list name selectable for new devices.
func (c *Client) FetchLists(ctx context.Context) ([]string, error) {
	var names []string
	if err := c.do(ctx, http.MethodGet, "/api/lists", nil, &names); err != nil {
		return nil, err
	}
	return names, nil
}

// FetchConfig retrieves the scan configuration the service was started with.
func (c *Client) FetchConfig(ctx context.Context) (*ServiceConfig, error) {
	var payload ServiceConfig
	if err := c.do(ctx, http.MethodGet, "/api/config", nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// FetchSettings retrieves the editable scan settings.
func (c *Client) FetchSettings(ctx context.Context) (*CurrentSettings, error) {
	var payload SettingsResponse
	if err := c.do(ctx, http.MethodGet, "/api/current-settings", nil, &payload); err != nil {
		return nil, err
	}
	if !(Result{Status: payload.Status}).OK() {
		return nil, &APIError{Op: "fetch settings", Message: payload.Message}
	}
	return &payload.Settings, nil
}

// ToggleList persists the membership of a filter list.
func (c *Client) ToggleList(ctx context.Context, name string, active bool) error {
	return c.mutate(ctx, "toggle list", http.MethodPost, "/api/toggle-list", ToggleListRequest{Name: name, Active: active})
}

// CreateList creates an empty filter list.
func (c *Client) CreateList(ctx context.Context, name string) error {
	return c.mutate(ctx, "create list", http.MethodPost, "/api/create-list", nameRequest{Name: name})
}

// AddDevice appends a device entry to a list.
func (c *Client) AddDevice(ctx context.Context, req AddDeviceRequest) error {
	return c.mutate(ctx, "add device", http.MethodPost, "/api/add-device", req)
}

// RemoveDevice removes a MAC or OUI from every list.
func (c *Client) RemoveDevice(ctx context.Context, mac string) error {
	return c.mutate(ctx, "remove device", http.MethodPost, "/api/remove-device", macRequest{MAC: mac})
}

// IgnoreDevice suppresses detections of mac for the given number of minutes.
func (c *Client) IgnoreDevice(ctx context.Context, mac string, minutes int) error {
	return c.mutate(ctx, "ignore device", http.MethodPost, "/api/ignore", IgnoreRequest{MAC: mac, Duration: minutes})
}

// TogglePause flips the service pause flag and returns the new value.
func (c *Client) TogglePause(ctx context.Context) (bool, error) {
	var payload PauseResponse
	if err := c.do(ctx, http.MethodPost, "/api/pause", nil, &payload); err != nil {
		return false, err
	}
	return payload.Paused, nil
}

// ClearLog truncates the device log.
func (c *Client) ClearLog(ctx context.Context) error {
	return c.mutate(ctx, "clear log", http.MethodPost, "/api/clear-log", nil)
}

// ApplyInterface selects the capture interface.
func (c *Client) ApplyInterface(ctx context.Context, iface string) error {
	return c.mutate(ctx, "apply interface", http.MethodPost, "/api/apply-interface", interfaceRequest{Interface: iface})
}

// ApplyScan submits capture time, bands, and channels.
func (c *Client) ApplyScan(ctx context.Context, req ApplyScanRequest) error {
	return c.mutate(ctx, "apply scan settings", http.MethodPost, "/api/apply-scan", req)
}

// ResetSettings restores the service defaults.
func (c *Client) ResetSettings(ctx context.Context) error {
	return c.mutate(ctx, "reset settings", http.MethodGet, "/api/reset-settings", nil)
}

// Restart asks the service to restart its scan process.
func (c *Client) Restart(ctx context.Context) error {
	return c.mutate(ctx, "restart", http.MethodPost, "/api/restart", nil)
}

// Probe checks liveness with a cache-bypassing status request. Any 2xx answer
// means the service is up.
func (c *Client) Probe(ctx context.Context) error {
	values := url.Values{}
	values.Set("_", strconv.FormatInt(time.Now().UnixNano(), 10))
	rel := &url.URL{Path: "/api/status", RawQuery: values.Encode()}
	header := http.Header{}
	header.Set("Cache-Control", "no-cache")
	header.Set("Pragma", "no-cache")

	resp, err := c.send(ctx, http.MethodGet, rel, header, nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Path: rel.Path, Code: resp.StatusCode}
	}
	return nil
}

func (c *Client) mutate(ctx context.Context, op, method, path string, body any) error {
	var res Result
	if err := c.do(ctx, method, path, body, &res); err != nil {
		return err
	}
	if !res.OK() {
		return &APIError{Op: op, Message: res.Message}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	rel := &url.URL{Path: path}
	resp, err := c.send(ctx, method, rel, nil, body)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		// The service reports handler failures as a Result with a 500.
		var res Result
		if len(raw) > 0 && sonic.Unmarshal(raw, &res) == nil && res.Message != "" {
			return &APIError{Op: strings.TrimPrefix(path, "/api/"), Message: res.Message}
		}
		return &StatusError{Path: rel.String(), Code: resp.StatusCode}
	}
	if dest == nil {
		return nil
	}
	if err := sonic.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method string, rel *url.URL, header http.Header, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := sonic.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "method", method, "path", rel.Path, "request_id", requestID, "err", err)
		return nil, fmt.Errorf("execute request: %w", err)
	}
	c.logger.Debug("request done", "method", method, "path", rel.Path, "status", resp.StatusCode,
		"request_id", requestID, "elapsed", time.Since(start))
	return resp, nil
}

func parseBaseURL(apiURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiURL)
	if trimmed == "" {
		trimmed = defaultAPIURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_url %q: %w", apiURL, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
