package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"eduadmin/internal/auth"
	"eduadmin/internal/entity"
	"eduadmin/internal/logging"
	"eduadmin/internal/metrics"
	"eduadmin/internal/session"
)

const (
	refreshPath     = "/auth/refresh"
	refreshFlightID = "refresh"
	maxBodyBytes    = 16 << 20
)

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	// JWTSecret, when set, is used to verify access tokens before their claims
	// are trusted for the session user.
	JWTSecret string
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
}

// Client is the only way the console talks to the platform API. It attaches the
// operator's bearer token and recovers from an expired access token with a
// single shared refresh.
type Client struct {
	baseURL   string
	http      *http.Client
	timeout   time.Duration
	jwtSecret string
	store     *session.Store
	logger    *zap.Logger
	metrics   *metrics.Metrics
	refreshes singleflight.Group

	// beforeJoin runs between a 401 and joining the refresh flight. Tests use
	// it to force interleavings.
	beforeJoin func()
}

func New(store *session.Store, opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		http:      httpClient,
		timeout:   timeout,
		jwtSecret: opts.JWTSecret,
		store:     store,
		logger:    logging.OrNop(opts.Logger),
		metrics:   opts.Metrics,
	}
}

func (c *Client) Store() *session.Store { return c.store }

// Do sends the request and decodes a non-empty JSON response into out. out may
// be nil. An empty or tolerated response leaves out untouched.
func (c *Client) Do(ctx context.Context, method, path string, body, out interface{}, opts ...Option) error {
	raw, err := c.Raw(ctx, method, path, body, opts...)
	if err != nil {
		return err
	}
	if raw == nil || out == nil {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return errors.Wrapf(ErrMalformedBody, "%s %s: %v", method, path, err)
	}
	return nil
}

// Raw sends the request and returns the response body, or nil when the body is
// empty or the status was tolerated.
func (c *Client) Raw(ctx context.Context, method, path string, body interface{}, opts ...Option) (json.RawMessage, error) {
	ro := collectOptions(opts)

	payload, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	token := ""
	if !ro.public {
		sess, ok := c.store.Get()
		if !ok || sess.AccessToken == "" {
			return nil, &AuthError{Reason: "no_session"}
		}
		token = sess.AccessToken
	}

	// A token whose claims say it has expired is refreshed before sending; the
	// request then gets no further retry.
	recovered := false
	if !ro.public && tokenExpired(token, time.Now()) {
		token, err = c.recoverToken(ctx, token)
		if err != nil {
			return nil, err
		}
		recovered = true
	}

	status, data, err := c.send(ctx, method, path, payload, token, ro)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized && !ro.public && !recovered {
		token, err = c.recoverToken(ctx, token)
		if err != nil {
			return nil, err
		}
		status, data, err = c.send(ctx, method, path, payload, token, ro)
		if err != nil {
			return nil, err
		}
	}
	return decodeResponse(method, path, status, data, ro)
}

func encodeBody(body interface{}) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	if err := Validate(body); err != nil {
		return nil, err
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, "encode request body")
	}
	return payload, nil
}

func decodeResponse(method, path string, status int, data []byte, ro requestOptions) (json.RawMessage, error) {
	if ro.tolerated[status] {
		return nil, nil
	}
	if status < 200 || status > 299 {
		return nil, &HTTPError{Method: method, Path: path, Status: status, Body: truncate(string(data), 512)}
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if !json.Valid(trimmed) {
		return nil, errors.Wrapf(ErrMalformedBody, "%s %s", method, path)
	}
	return json.RawMessage(trimmed), nil
}

// recoverToken produces the token to retry with after a 401. The caller joins
// the one in-flight refresh, or starts it. The flight reads the store itself:
// a snapshot taken before joining can be outdated by a flight that committed
// in between.
func (c *Client) recoverToken(ctx context.Context, used string) (string, error) {
	if c.beforeJoin != nil {
		c.beforeJoin()
	}
	ch := c.refreshes.DoChan(refreshFlightID, func() (interface{}, error) {
		return c.tokenAfter(used)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", &NetworkError{Method: http.MethodPost, Path: refreshPath, Err: ctx.Err()}
	}
}

// tokenAfter returns a token other than used. If the store already holds a
// different access token, another caller refreshed in the meantime and that
// token is returned without a network call.
func (c *Client) tokenAfter(used string) (string, error) {
	sess, gen, ok := c.store.Snapshot()
	if !ok {
		return "", &AuthError{Reason: "session_cleared"}
	}
	if sess.AccessToken != "" && sess.AccessToken != used {
		return sess.AccessToken, nil
	}
	if sess.RefreshToken == "" {
		c.store.ClearIf(gen)
		return "", &AuthError{Reason: "no_refresh_token"}
	}
	return c.refresh(sess, gen)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type tokenPair struct {
	AccessToken       string        `json:"accessToken"`
	RefreshToken      string        `json:"refreshToken"`
	AccessTokenSnake  string        `json:"access_token"`
	RefreshTokenSnake string        `json:"refresh_token"`
	User              entity.Record `json:"user"`
}

// sessionUser reads the user object of a login or refresh response, which the
// platform has shipped in both camelCase and snake_case.
func (p tokenPair) sessionUser() (session.User, bool) {
	if p.User == nil {
		return session.User{}, false
	}
	u := session.User{
		ID:       entity.NormalizeID(p.User, entity.KindUser),
		FullName: firstText(p.User, "fullName", "full_name", "name"),
		Role:     firstText(p.User, "role", "userType", "user_type"),
	}
	if u.FullName == "" {
		u.FullName = strings.TrimSpace(firstText(p.User, "firstName", "first_name") + " " + firstText(p.User, "lastName", "last_name"))
	}
	return u, u.ID != ""
}

func firstText(rec entity.Record, keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(rec.Text(key)); v != "" {
			return v
		}
	}
	return ""
}

func (p tokenPair) access() string {
	if p.AccessToken != "" {
		return p.AccessToken
	}
	return p.AccessTokenSnake
}

func (p tokenPair) refresh() string {
	if p.RefreshToken != "" {
		return p.RefreshToken
	}
	return p.RefreshTokenSnake
}

// refresh runs once per flight. It is detached from any caller's context so a
// caller that gives up does not fail the others waiting on the same flight.
func (c *Client) refresh(prev session.Session, gen uint64) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	payload, _ := json.Marshal(refreshRequest{RefreshToken: prev.RefreshToken})
	status, data, err := c.send(ctx, http.MethodPost, refreshPath, payload, "", requestOptions{public: true})
	if err == nil && (status < 200 || status > 299) {
		err = &HTTPError{Method: http.MethodPost, Path: refreshPath, Status: status, Body: truncate(string(data), 512)}
	}
	var pair tokenPair
	if err == nil {
		if decodeErr := json.Unmarshal(data, &pair); decodeErr != nil || pair.access() == "" {
			err = errors.Wrap(ErrMalformedBody, "refresh response")
		}
	}
	if err != nil {
		c.metrics.ObserveRefresh("failure")
		c.logger.Warn("token refresh failed, clearing session", zap.Error(err))
		c.store.ClearIf(gen)
		return "", &AuthError{Reason: "refresh_failed", Err: err}
	}

	next := session.Session{
		AccessToken:  pair.access(),
		RefreshToken: pair.refresh(),
		User:         prev.User,
	}
	if next.RefreshToken == "" {
		next.RefreshToken = prev.RefreshToken
	}
	if u, ok := pair.sessionUser(); ok {
		next.User = u
	}
	if !c.store.CommitIf(gen, next) {
		c.metrics.ObserveRefresh("abandoned")
		c.logger.Info("token refresh abandoned, session changed while refreshing")
		return "", &AuthError{Reason: "session_cleared"}
	}
	c.metrics.ObserveRefresh("success")
	c.logger.Debug("access token refreshed", zap.String("user_id", next.User.ID))
	return next.AccessToken, nil
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, token string, ro requestOptions) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.url(path, ro), reader)
	if err != nil {
		return 0, nil, &NetworkError{Method: method, Path: path, Err: err}
	}
	for key, values := range ro.headers {
		if reservedHeaders[http.CanonicalHeaderKey(key)] {
			continue
		}
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	requestID := RequestIDFrom(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(method, 0)
		c.logger.Debug("upstream request failed",
			zap.String("method", method), zap.String("path", path), zap.String("request_id", requestID), zap.Error(err))
		return 0, nil, &NetworkError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.metrics.ObserveRequest(method, 0)
		return 0, nil, &NetworkError{Method: method, Path: path, Err: err}
	}
	c.metrics.ObserveRequest(method, resp.StatusCode)
	c.logger.Debug("upstream request",
		zap.String("method", method), zap.String("path", path), zap.Int("status", resp.StatusCode), zap.String("request_id", requestID))
	return resp.StatusCode, data, nil
}

func (c *Client) url(path string, ro requestOptions) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := c.baseURL + path
	if len(ro.query) > 0 {
		u += "?" + ro.query.Encode()
	}
	return u
}

// userFromToken derives the session user from access-token claims when the
// login response did not include one.
func (c *Client) userFromToken(token string) session.User {
	claims, err := auth.Inspect(c.jwtSecret, token)
	if err != nil {
		c.logger.Debug("access token claims unreadable", zap.Error(err))
		return session.User{}
	}
	return session.User{ID: claims.Identity(), FullName: claims.FullName, Role: claims.Role}
}

// tokenExpired reports whether the access token carries an expiry at or before
// now. Tokens that are not JWTs, or carry no expiry, are never expired here; the
// upstream's 401 decides for them.
func tokenExpired(token string, now time.Time) bool {
	claims, err := auth.PeekToken(token)
	if err != nil {
		return false
	}
	exp := claims.Expiry()
	return !exp.IsZero() && !now.Before(exp)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
