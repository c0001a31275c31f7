package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"
)

// ErrNoChannel is returned when the authenticated Google account has no
// YouTube channel.
var ErrNoChannel = errors.New("no YouTube channel for this account")

const (
	defaultOEmbedURL   = "https://www.youtube.com/oembed"
	defaultDataAPIBase = "https://www.googleapis.com/youtube/v3"
	maxChannelPageBytes = 2 << 20
)

var channelIDPatterns = struct {
	fromAuthorURL *regexp.Regexp
	handle        *regexp.Regexp
	fromPage      *regexp.Regexp
}{
	fromAuthorURL: regexp.MustCompile(`/channel/(UC[a-zA-Z0-9_-]+)`),
	handle:        regexp.MustCompile(`/@[a-zA-Z0-9_.-]+`),
	fromPage:      regexp.MustCompile(`"(?:externalId|channelId)"\s*:\s*"(UC[a-zA-Z0-9_-]+)"`),
}

// VideoInfo is the oEmbed metadata used to autofill a registration.
type VideoInfo struct {
	Title      string
	AuthorName string
	AuthorURL  string
}

// Channel is the verified channel of an authenticated account.
type Channel struct {
	ID     string
	Title  string
	Avatar string
}

// Client talks to YouTube's oEmbed and Data API endpoints.
type Client struct {
	http        *http.Client
	oembedURL   string
	dataAPIBase string
}

// NewClient builds a client with a sane request timeout.
func NewClient() *Client {
	return &Client{
		http:        &http.Client{Timeout: 10 * time.Second},
		oembedURL:   defaultOEmbedURL,
		dataAPIBase: defaultDataAPIBase,
	}
}

// NewClientWithBase overrides the endpoints, for tests.
func NewClientWithBase(httpClient *http.Client, oembedURL, dataAPIBase string) *Client {
	return &Client{http: httpClient, oembedURL: oembedURL, dataAPIBase: dataAPIBase}
}

// LookupVideo fetches oEmbed metadata for a video id.
func (c *Client) LookupVideo(ctx context.Context, videoID string) (*VideoInfo, error) {
	endpoint := fmt.Sprintf("%s?url=%s&format=json",
		c.oembedURL, url.QueryEscape(WatchURL(videoID, 0)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create oembed request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("oembed request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oembed returned status %d", resp.StatusCode)
	}

	var body struct {
		Title      string `json:"title"`
		AuthorName string `json:"author_name"`
		AuthorURL  string `json:"author_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode oembed response: %w", err)
	}
	return &VideoInfo{Title: body.Title, AuthorName: body.AuthorName, AuthorURL: body.AuthorURL}, nil
}

// ResolveChannelID finds the channel id that published a video. The oEmbed
// author URL carries it directly for /channel/ URLs; @handle URLs need a
// scrape of the channel page. Returns empty (no error) when the id simply
// cannot be determined.
func (c *Client) ResolveChannelID(ctx context.Context, videoID string) (string, error) {
	info, err := c.LookupVideo(ctx, videoID)
	if err != nil {
		return "", err
	}

	if m := channelIDPatterns.fromAuthorURL.FindStringSubmatch(info.AuthorURL); m != nil {
		return m[1], nil
	}

	if !channelIDPatterns.handle.MatchString(info.AuthorURL) {
		return "", nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, info.AuthorURL, nil)
	if err != nil {
		return "", fmt.Errorf("create channel page request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch channel page: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	page, err := io.ReadAll(io.LimitReader(resp.Body, maxChannelPageBytes))
	if err != nil {
		return "", fmt.Errorf("read channel page: %w", err)
	}
	if m := channelIDPatterns.fromPage.FindSubmatch(page); m != nil {
		return string(m[1]), nil
	}
	return "", nil
}

// MyChannel returns the channel of the Google account behind accessToken,
// via the Data API `channels?mine=true` endpoint.
func (c *Client) MyChannel(ctx context.Context, accessToken string) (*Channel, error) {
	endpoint := c.dataAPIBase + "/channels?part=snippet&mine=true"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create channels request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("channels request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("channels endpoint returned status %d", resp.StatusCode)
	}

	var body struct {
		Items []struct {
			ID      string `json:"id"`
			Snippet struct {
				Title      string `json:"title"`
				Thumbnails struct {
					Default struct {
						URL string `json:"url"`
					} `json:"default"`
				} `json:"thumbnails"`
			} `json:"snippet"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode channels response: %w", err)
	}
	if len(body.Items) == 0 {
		return nil, ErrNoChannel
	}

	item := body.Items[0]
	return &Channel{
		ID:     item.ID,
		Title:  item.Snippet.Title,
		Avatar: item.Snippet.Thumbnails.Default.URL,
	}, nil
}
