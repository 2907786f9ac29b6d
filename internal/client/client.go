// Package client talks to the moneybook JSON API. Authentication state lives
// in an explicit Session returned by Login; the client itself holds none.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"moneybook/internal/core"
)

var ErrNoSession = errors.New("client: missing session")

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("moneybook api: %d %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Session carries the bearer token of a logged-in user.
type Session struct {
	Token     string
	ExpiresAt time.Time
	UserID    int64
}

// Expired reports whether the token is past its expiry at t.
func (s *Session) Expired(t time.Time) bool {
	return s == nil || !t.Before(s.ExpiresAt)
}

type Client struct {
	baseURL *url.URL
	http    *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http = &http.Client{Timeout: d} }
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url scheme %q", u.Scheme)
	}
	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// do sends a request and decodes a JSON answer into out when out is not nil.
func (c *Client) do(ctx context.Context, sess *Session, method, path string, query url.Values, body, out any) error {
	u := *c.baseURL
	u.Path += path
	u.RawQuery = query.Encode()

	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sess != nil {
		req.Header.Set("Authorization", "Bearer "+sess.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		if json.Unmarshal(raw, &e) != nil || e.Error == "" {
			e.Error = strings.TrimSpace(string(raw))
		}
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func requireSession(sess *Session) error {
	if sess == nil || sess.Token == "" {
		return ErrNoSession
	}
	return nil
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, username, email, password string) error {
	body := map[string]string{"username": username, "email": email, "password": password}
	return c.do(ctx, nil, http.MethodPost, "/users/register", nil, body, nil)
}

// Login exchanges credentials for a Session.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var res struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
		User      struct {
			ID int64 `json:"id"`
		} `json:"user"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, nil, http.MethodPost, "/users/login", nil, body, &res); err != nil {
		return nil, err
	}
	return &Session{Token: res.Token, ExpiresAt: res.ExpiresAt, UserID: res.User.ID}, nil
}

func kindPath(kind core.Kind) (string, error) {
	switch kind {
	case core.Income:
		return "/income", nil
	case core.Expense:
		return "/expenses", nil
	default:
		return "", core.ErrInvalidKind
	}
}

func periodQuery(p core.Period) url.Values {
	q := url.Values{}
	if !p.Start.IsZero() {
		q.Set("from", p.Start.String())
		q.Set("to", p.End.String())
	}
	return q
}

// Transactions lists one kind of transaction. A zero period lists all.
func (c *Client) Transactions(ctx context.Context, sess *Session, kind core.Kind, period core.Period) ([]core.Transaction, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	path, err := kindPath(kind)
	if err != nil {
		return nil, err
	}
	var res struct {
		Transactions []wireTransaction `json:"transactions"`
	}
	if err := c.do(ctx, sess, http.MethodGet, path, periodQuery(period), nil, &res); err != nil {
		return nil, err
	}
	out := make([]core.Transaction, 0, len(res.Transactions))
	for _, t := range res.Transactions {
		out = append(out, t.toCore(sess.UserID))
	}
	return out, nil
}

// NewTransaction is what AddTransaction sends. Amount is in the canonical
// currency; a zero Date means today on the server.
type NewTransaction struct {
	Kind        core.Kind
	Amount      core.Money
	Category    string
	Date        core.Date
	Description string
	Notes       string
}

func (c *Client) AddTransaction(ctx context.Context, sess *Session, in NewTransaction) (core.Transaction, error) {
	if err := requireSession(sess); err != nil {
		return core.Transaction{}, err
	}
	path, err := kindPath(in.Kind)
	if err != nil {
		return core.Transaction{}, err
	}
	body := map[string]any{
		"amount":      in.Amount.String(),
		"category":    in.Category,
		"description": in.Description,
		"notes":       in.Notes,
	}
	if !in.Date.IsZero() {
		body["date"] = in.Date.String()
	}
	var res wireTransaction
	if err := c.do(ctx, sess, http.MethodPost, path, nil, body, &res); err != nil {
		return core.Transaction{}, err
	}
	return res.toCore(sess.UserID), nil
}

// Analysis fetches the server-side monthly analysis with amounts formatted
// in currency. An empty currency uses the user's preference.
func (c *Client) Analysis(ctx context.Context, sess *Session, year, month int, currency core.CurrencyCode) (Analysis, error) {
	if err := requireSession(sess); err != nil {
		return Analysis{}, err
	}
	q := url.Values{}
	q.Set("year", strconv.Itoa(year))
	q.Set("month", strconv.Itoa(month))
	if currency != "" {
		q.Set("currency", string(currency))
	}
	var res Analysis
	if err := c.do(ctx, sess, http.MethodGet, "/budget/analysis", q, nil, &res); err != nil {
		return Analysis{}, err
	}
	return res, nil
}

// Goals lists the user's savings goals.
func (c *Client) Goals(ctx context.Context, sess *Session) ([]core.Goal, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	var res struct {
		Goals []wireGoal `json:"goals"`
	}
	if err := c.do(ctx, sess, http.MethodGet, "/goals", nil, nil, &res); err != nil {
		return nil, err
	}
	out := make([]core.Goal, 0, len(res.Goals))
	for _, g := range res.Goals {
		out = append(out, g.toCore(sess.UserID))
	}
	return out, nil
}

// Advice asks the canned advisor a question. An empty locale lets the
// server decide.
func (c *Client) Advice(ctx context.Context, sess *Session, question string, locale core.Locale) (Advice, error) {
	if err := requireSession(sess); err != nil {
		return Advice{}, err
	}
	body := map[string]string{"question": question}
	if locale != "" {
		body["locale"] = string(locale)
	}
	var res Advice
	if err := c.do(ctx, sess, http.MethodPost, "/ai/advice", nil, body, &res); err != nil {
		return Advice{}, err
	}
	return res, nil
}
