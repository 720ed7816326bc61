package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/oauth2"

	"github.com/oshokin/release-sync/internal/domain/release"
)

const (
	// DefaultBaseURL is the public GitHub REST API root.
	DefaultBaseURL = "https://api.github.com/"

	acceptJSON        = "application/vnd.github+json"
	acceptOctetStream = "application/octet-stream"

	// assetFileMode is the permission of downloaded asset files.
	assetFileMode os.FileMode = 0o644

	progressBarWidth = 20
	progressThrottle = 100 * time.Millisecond
)

// Client issues authenticated requests against the GitHub REST API.
type Client struct {
	// api builds requests and maps error responses.
	api *github.Client
	// progress receives download progress bars; nil disables them.
	progress io.Writer
}

// clientOptions collects Option values before the client is built.
type clientOptions struct {
	token      string
	baseURL    string
	userAgent  string
	timeout    time.Duration
	httpClient *http.Client
	progress   io.Writer
}

// Option configures the client.
type Option func(*clientOptions)

// WithToken authenticates every request with a bearer token.
func WithToken(token string) Option {
	return func(o *clientOptions) {
		o.token = strings.TrimSpace(token)
	}
}

// WithBaseURL points the client at another API root, e.g. GitHub Enterprise or a test server.
func WithBaseURL(baseURL string) Option {
	return func(o *clientOptions) {
		if baseURL != "" {
			o.baseURL = baseURL
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(o *clientOptions) {
		if userAgent != "" {
			o.userAgent = userAgent
		}
	}
}

// WithTimeout bounds each request including the streaming of its body.
func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client. Its transport is wrapped
// with the token source when a token is configured.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = httpClient
	}
}

// WithProgress renders a progress bar per downloaded asset into w.
func WithProgress(w io.Writer) Option {
	return func(o *clientOptions) {
		o.progress = w
	}
}

// NewClient builds a client from the provided options.
func NewClient(opts ...Option) (*Client, error) {
	options := &clientOptions{
		baseURL: DefaultBaseURL,
	}

	for _, opt := range opts {
		opt(options)
	}

	baseURL, err := url.Parse(options.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	if !strings.HasSuffix(baseURL.Path, "/") {
		baseURL.Path += "/"
	}

	api := github.NewClient(options.newHTTPClient())
	api.BaseURL = baseURL

	if options.userAgent != "" {
		api.UserAgent = options.userAgent
	}

	return &Client{
		api:      api,
		progress: options.progress,
	}, nil
}

// newHTTPClient returns the HTTP client with the bearer token transport applied.
func (o *clientOptions) newHTTPClient() *http.Client {
	httpClient := new(http.Client)
	if o.httpClient != nil {
		*httpClient = *o.httpClient
	}

	if o.timeout > 0 {
		httpClient.Timeout = o.timeout
	}

	if o.token != "" {
		httpClient.Transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: o.token}),
			Base:   httpClient.Transport,
		}
	}

	return httpClient
}

// FetchJSON sends a GET with the GitHub JSON accept header and decodes the body into v.
// rawURL may be absolute or relative to the API root.
func (c *Client) FetchJSON(ctx context.Context, rawURL string, v any) error {
	req, err := c.api.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", rawURL, err)
	}

	req.Header.Set("Accept", acceptJSON)

	resp, err := c.api.BareDo(ctx, req)
	if err != nil {
		return newNetworkError(req.URL.String(), resp, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if err = json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", req.URL.String(), err)
	}

	return nil
}

// LatestRelease returns the latest published release of repo.
// Asset lists that are absent or not arrays are treated as empty.
func (c *Client) LatestRelease(ctx context.Context, repo release.Repository) (*release.Release, error) {
	var payload releaseResponse

	if err := c.FetchJSON(ctx, LatestReleasePath(repo), &payload); err != nil {
		return nil, err
	}

	return payload.toDomain(), nil
}

// LatestReleasePath returns the API path of the latest release of repo.
func LatestReleasePath(repo release.Repository) string {
	return fmt.Sprintf("repos/%s/%s/releases/latest", url.PathEscape(repo.Owner), url.PathEscape(repo.Name))
}

// DownloadAsset streams asset into the file at destination, replacing any existing file.
// The asset is requested from its API URL with the octet-stream accept header.
func (c *Client) DownloadAsset(ctx context.Context, asset release.Asset, destination string) error {
	if !isUsableURL(asset.URL) {
		return fmt.Errorf("asset %q: %w", asset.Name, ErrAssetURLMissing)
	}

	req, err := c.api.NewRequest(http.MethodGet, asset.URL, nil)
	if err != nil {
		return fmt.Errorf("build request for asset %q: %w", asset.Name, err)
	}

	req.Header.Set("Accept", acceptOctetStream)

	resp, err := c.api.BareDo(ctx, req)
	if err != nil {
		return newNetworkError(asset.URL, resp, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	file, err := os.OpenFile(destination, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, assetFileMode)
	if err != nil {
		return fmt.Errorf("create %s: %w", destination, err)
	}

	var w io.Writer = file

	if c.progress != nil {
		bar := c.newProgressBar(resp.ContentLength, asset.Name)
		defer func() {
			_ = bar.Close()
		}()

		w = io.MultiWriter(file, bar)
	}

	if _, err = io.Copy(w, resp.Body); err != nil {
		_ = file.Close()

		return fmt.Errorf("stream asset %q: %w", asset.Name, err)
	}

	if err = file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", destination, err)
	}

	return nil
}

// newProgressBar returns a byte counter; size -1 renders a spinner.
func (c *Client) newProgressBar(size int64, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(size,
		progressbar.OptionSetWriter(c.progress),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(progressBarWidth),
		progressbar.OptionThrottle(progressThrottle),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

// isUsableURL reports whether s is an absolute http(s) URL.
func isUsableURL(s string) bool {
	if strings.TrimSpace(s) == "" {
		return false
	}

	u, err := url.Parse(s)
	if err != nil {
		return false
	}

	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
