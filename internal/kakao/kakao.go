// Package kakao sends "send to me" memo messages through the Kakao talk API.
package kakao

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/deusflow/industry-news/internal/retry"
)

const (
	DefaultAuthURL = "https://kauth.kakao.com"
	DefaultAPIURL  = "https://kapi.kakao.com"
	DefaultLinkURL = "https://www.naver.com"

	tokenPath = "/oauth/token"
	memoPath  = "/v2/api/talk/memo/default/send"
)

// ErrUnauthorized is returned when the access token is rejected even after a
// refresh, or the refresh itself is refused.
var ErrUnauthorized = errors.New("kakao: unauthorized")

type Options struct {
	AuthURL      string
	APIURL       string
	RESTAPIKey   string
	ClientSecret string
	RefreshToken string
	AccessToken  string // optional, skips the first refresh
	LinkURL      string
	Timeout      time.Duration
	Retry        retry.Config
	HTTPClient   *http.Client
}

type Client struct {
	http    *http.Client
	authURL string
	apiURL  string
	apiKey  string
	secret  string
	linkURL string
	retry   retry.Config
	log     *zerolog.Logger

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

type apiError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	// oauth endpoint
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

type textTemplate struct {
	ObjectType string `json:"object_type"`
	Text       string `json:"text"`
	Link       struct {
		WebURL       string `json:"web_url"`
		MobileWebURL string `json:"mobile_web_url"`
	} `json:"link"`
	ButtonTitle string `json:"button_title,omitempty"`
}

func New(opts Options, log *zerolog.Logger) *Client {
	if opts.AuthURL == "" {
		opts.AuthURL = DefaultAuthURL
	}
	if opts.APIURL == "" {
		opts.APIURL = DefaultAPIURL
	}
	if opts.LinkURL == "" {
		opts.LinkURL = DefaultLinkURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &Client{
		http:         hc,
		authURL:      strings.TrimRight(opts.AuthURL, "/"),
		apiURL:       strings.TrimRight(opts.APIURL, "/"),
		apiKey:       opts.RESTAPIKey,
		secret:       opts.ClientSecret,
		linkURL:      opts.LinkURL,
		retry:        opts.Retry,
		log:          log,
		accessToken:  opts.AccessToken,
		refreshToken: opts.RefreshToken,
	}
}

// Send delivers text as a single memo. A rejected access token is refreshed
// once and the send retried once; the message itself is never retried on
// other failures.
func (c *Client) Send(ctx context.Context, text string) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	err = c.send(ctx, token, text)
	if !errors.Is(err, ErrUnauthorized) {
		return err
	}

	c.log.Warn().Msg("kakao access token rejected, refreshing")
	if err := c.refresh(ctx); err != nil {
		return err
	}
	token, _ = c.token(ctx)
	return c.send(ctx, token, text)
}

// RefreshToken returns the refresh token currently held, which differs from
// the configured one after the server rotated it.
func (c *Client) RefreshToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshToken
}

func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	token := c.accessToken
	c.mu.Unlock()
	if token != "" {
		return token, nil
	}
	if err := c.refresh(ctx); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken, nil
}

func (c *Client) refresh(ctx context.Context) error {
	var tr tokenResponse
	err := retry.Do(ctx, c.retry, func(ctx context.Context) error {
		var err error
		tr, err = c.refreshOnce(ctx)
		return err
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = tr.AccessToken
	if tr.RefreshToken != "" && tr.RefreshToken != c.refreshToken {
		c.refreshToken = tr.RefreshToken
		c.log.Warn().Msg("kakao refresh token was rotated, update KAKAO_REFRESH_TOKEN")
	}
	c.log.Debug().Int("expires_in", tr.ExpiresIn).Msg("kakao access token refreshed")
	return nil
}

func (c *Client) refreshOnce(ctx context.Context) (tokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", c.apiKey)
	form.Set("refresh_token", c.RefreshToken())
	if c.secret != "" {
		form.Set("client_secret", c.secret)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL+tokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return tokenResponse{}, retry.Permanent(fmt.Errorf("build token request: %w", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")

	resp, err := c.http.Do(req)
	if err != nil {
		return tokenResponse{}, fmt.Errorf("token request: %w", err)
	}
	defer c.close(resp.Body)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return tokenResponse{}, fmt.Errorf("read token response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return tokenResponse{}, fmt.Errorf("token endpoint status %d", resp.StatusCode)
	default:
		return tokenResponse{}, retry.Permanent(fmt.Errorf("%w: token refresh %s", ErrUnauthorized, describe(resp.StatusCode, body)))
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return tokenResponse{}, retry.Permanent(fmt.Errorf("decode token response: %w", err))
	}
	if tr.AccessToken == "" {
		return tokenResponse{}, retry.Permanent(fmt.Errorf("%w: empty access token", ErrUnauthorized))
	}
	return tr, nil
}

func (c *Client) send(ctx context.Context, token, text string) error {
	tpl := textTemplate{ObjectType: "text", Text: text}
	tpl.Link.WebURL = c.linkURL
	tpl.Link.MobileWebURL = c.linkURL
	obj, err := json.Marshal(tpl)
	if err != nil {
		return fmt.Errorf("encode template: %w", err)
	}

	form := url.Values{}
	form.Set("template_object", string(obj))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+memoPath, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build send request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer c.close(resp.Body)

	body, _ := io.ReadAll(resp.Body)
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, describe(resp.StatusCode, body))
	default:
		return fmt.Errorf("kakao send failed: %s", describe(resp.StatusCode, body))
	}
}

func (c *Client) close(body io.ReadCloser) {
	if err := body.Close(); err != nil {
		c.log.Debug().Err(err).Msg("close response body")
	}
}

func describe(status int, body []byte) string {
	var e apiError
	if json.Unmarshal(body, &e) == nil {
		switch {
		case e.Msg != "":
			return fmt.Sprintf("status %d code %d: %s", status, e.Code, e.Msg)
		case e.Error != "":
			return fmt.Sprintf("status %d %s: %s", status, e.Error, e.ErrorDescription)
		}
	}
	return fmt.Sprintf("status %d", status)
}
