// Package github talks to the GitHub releases API: it resolves the token to
// authenticate with, inspects rate-limit headers, finds the template asset for
// an agent/script combination and streams it to disk.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samber/lo"
	"golang.org/x/mod/semver"
)

// Defaults for the template repository.
const (
	DefaultBaseURL   = "https://api.github.com"
	DefaultOwner     = "github"
	DefaultRepo      = "spec-kit"
	DefaultTimeout   = 2 * time.Minute
	defaultUserAgent = "specify"
)

// ErrNoMatchingAsset is returned when a release has no archive for the requested agent/script.
var ErrNoMatchingAsset = errors.New("no matching release asset")

// debugLogger is a no-op unless SetDebugLogger is called.
var debugLogger func(format string, args ...any)

// SetDebugLogger configures the debug logger for API calls. Pass nil to disable.
func SetDebugLogger(logger func(format string, args ...any)) {
	debugLogger = logger
}

func logDebug(format string, args ...any) {
	if debugLogger != nil {
		debugLogger(format, args...)
	}
}

// Release is the part of the release payload specify needs.
type Release struct {
	TagName string  `json:"tag_name"`
	Name    string  `json:"name"`
	Assets  []Asset `json:"assets"`
}

// Asset is a downloadable file attached to a release.
type Asset struct {
	Name               string `json:"name"`
	Size               int64  `json:"size"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// AssetPattern returns the name fragment identifying the template for an agent/script pair.
func AssetPattern(agentKey, scriptType string) string {
	return fmt.Sprintf("spec-kit-template-%s-%s", agentKey, scriptType)
}

// FindAsset returns the first zip asset matching the agent/script pattern.
func (r *Release) FindAsset(agentKey, scriptType string) (Asset, error) {
	pattern := AssetPattern(agentKey, scriptType)
	asset, ok := lo.Find(r.Assets, func(a Asset) bool {
		return strings.Contains(a.Name, pattern) && strings.HasSuffix(a.Name, ".zip")
	})
	if !ok {
		return Asset{}, fmt.Errorf("%w: pattern %q in release %s (%d assets)",
			ErrNoMatchingAsset, pattern, r.TagName, len(r.Assets))
	}
	return asset, nil
}

// StatusError is returned for unexpected HTTP status codes.
type StatusError struct {
	StatusCode int
	URL        string
	RateLimit  RateLimit
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("unexpected status code: %d", e.StatusCode)
	if len(e.RateLimit) > 0 {
		msg += " (" + e.RateLimit.Describe() + ")"
	}
	return msg
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	Owner      string
	Repo       string
	Token      string
	Sources    []Source
	UserAgent  string
	HTTPClient *http.Client
}

// Client fetches release metadata and assets for one repository.
type Client struct {
	baseURL    string
	owner      string
	repo       string
	userAgent  string
	headers    map[string]string
	httpClient *http.Client
}

// NewClient creates a client. The token is resolved once, here.
func NewClient(opts Options) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(lo.Ternary(opts.BaseURL == "", DefaultBaseURL, opts.BaseURL), "/"),
		owner:      lo.Ternary(opts.Owner == "", DefaultOwner, opts.Owner),
		repo:       lo.Ternary(opts.Repo == "", DefaultRepo, opts.Repo),
		userAgent:  lo.Ternary(opts.UserAgent == "", defaultUserAgent, opts.UserAgent),
		headers:    AuthHeaders(opts.Token, opts.Sources...),
		httpClient: opts.HTTPClient,
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	return c
}

// Authenticated reports whether requests carry a token.
func (c *Client) Authenticated() bool {
	_, ok := c.headers["Authorization"]
	return ok
}

// Repository returns "owner/repo".
func (c *Client) Repository() string {
	return c.owner + "/" + c.repo
}

// FetchRelease returns release metadata. An empty tag means the latest release;
// otherwise the tag must be a valid semantic version (e.g., v0.0.79).
// A *RateLimitError is returned only for non-200 responses: a 200 whose
// remaining quota is zero still succeeds, and callers can check rl.Exhausted().
func (c *Client) FetchRelease(ctx context.Context, tag string) (*Release, RateLimit, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.baseURL, c.owner, c.repo)
	if tag != "" {
		if !semver.IsValid(tag) {
			return nil, nil, fmt.Errorf("invalid release tag %q: expected a version like v1.2.3", tag)
		}
		endpoint = fmt.Sprintf("%s/repos/%s/%s/releases/tags/%s", c.baseURL, c.owner, c.repo, url.PathEscape(tag))
	}

	resp, err := c.get(ctx, endpoint, "application/vnd.github+json")
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	rl := ParseRateLimit(resp.Header)
	logDebug("[github] GET %s -> %d (%s)", endpoint, resp.StatusCode, rl.Describe())

	if resp.StatusCode != http.StatusOK {
		return nil, rl, statusError(resp.StatusCode, endpoint, rl)
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, rl, fmt.Errorf("decoding release metadata: %w", err)
	}
	return &release, rl, nil
}

// Download streams the asset into dst and returns the number of bytes written.
func (c *Client) Download(ctx context.Context, asset Asset, dst io.Writer) (int64, error) {
	if asset.BrowserDownloadURL == "" {
		return 0, fmt.Errorf("asset %q has no download URL", asset.Name)
	}

	resp, err := c.get(ctx, asset.BrowserDownloadURL, "application/octet-stream")
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	rl := ParseRateLimit(resp.Header)
	logDebug("[github] GET %s -> %d", asset.BrowserDownloadURL, resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		return 0, statusError(resp.StatusCode, asset.BrowserDownloadURL, rl)
	}

	n, err := io.Copy(dst, resp.Body)
	if err != nil {
		return n, fmt.Errorf("reading asset body: %w", err)
	}
	if asset.Size > 0 && n != asset.Size {
		return n, fmt.Errorf("incomplete download: got %d of %d bytes", n, asset.Size)
	}
	return n, nil
}

func (c *Client) get(ctx context.Context, endpoint, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", c.userAgent)
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	return resp, nil
}

func statusError(code int, endpoint string, rl RateLimit) error {
	if isRateLimited(code, rl) {
		return &RateLimitError{StatusCode: code, Snapshot: rl}
	}
	return &StatusError{StatusCode: code, URL: endpoint, RateLimit: rl}
}
