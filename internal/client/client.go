// Package client is the REST transport to the Rise AI backend.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/riseai/rise-chat/internal/model/chat"
	"github.com/riseai/rise-chat/internal/model/identity"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrMalformedResponse  = errors.New("malformed response")
)

const DefaultTimeout = 30 * time.Second

// TransportError describes a failed call at the network boundary. Status is zero when no
// HTTP response was received.
type TransportError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Status != 0 {
		fmt.Fprintf(&b, ": HTTP %d", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Client talks to the backend over JSON/HTTP. It satisfies the chat controller's
// Transport port and also performs login and status checks.
type Client struct {
	http   *resty.Client
	logger *slog.Logger
}

// Option customises a Client.
type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.SetTimeout(d)
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithAuthToken sends token as a bearer credential on every request.
func WithAuthToken(token string) Option {
	return func(c *Client) {
		if token != "" {
			c.http.SetAuthToken(token)
		}
	}
}

// New returns a Client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(DefaultTimeout).
			SetHeader("Content-Type", "application/json").
			SetHeader("Accept", "application/json"),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "rest_client")
	return c
}

type envelope struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.http.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", uuid.NewString())
}

// do runs req and decodes a successful JSON body into out.
func (c *Client) do(op string, res *resty.Response, err error, out any) error {
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}

	body := res.Body()
	var env envelope
	_ = json.Unmarshal(body, &env)

	if !res.IsSuccess() {
		c.logger.Debug("backend returned error", "op", op, "status_code", res.StatusCode(), "body", res.String())
		msg := env.Error
		if msg == "" {
			msg = http.StatusText(res.StatusCode())
		}
		return &TransportError{Op: op, Status: res.StatusCode(), Message: msg}
	}

	if env.Success != nil && !*env.Success {
		return &TransportError{Op: op, Status: res.StatusCode(), Message: env.Error, Err: ErrMalformedResponse}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &TransportError{Op: op, Status: res.StatusCode(), Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}
	return nil
}

type sendRequest struct {
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type sendResponse struct {
	Response  *string `json:"response"`
	Timestamp string  `json:"timestamp"`
}

// SendMessage posts one user message and returns the assistant reply.
func (c *Client) SendMessage(ctx context.Context, subjectID, text, timestamp string) (chat.Reply, error) {
	const op = "send message"

	res, err := c.request(ctx).
		SetBody(sendRequest{Username: subjectID, Message: text, Timestamp: timestamp}).
		Post("/chat")

	var out sendResponse
	if err := c.do(op, res, err, &out); err != nil {
		return chat.Reply{}, err
	}
	if out.Response == nil {
		return chat.Reply{}, &TransportError{Op: op, Status: res.StatusCode(), Err: fmt.Errorf("%w: missing response field", ErrMalformedResponse)}
	}

	return chat.Reply{Content: *out.Response, Timestamp: out.Timestamp}, nil
}

type historyResponse struct {
	History []chat.Exchange `json:"history"`
}

// FetchHistory returns up to limit exchanges, newest first, with timestamps normalised
// to RFC 3339 in UTC.
func (c *Client) FetchHistory(ctx context.Context, subjectID string, limit int) ([]chat.Exchange, error) {
	const op = "fetch history"

	res, err := c.request(ctx).
		SetPathParam("username", subjectID).
		SetQueryParam("limit", strconv.Itoa(limit)).
		Get("/chat/history/{username}")

	var out historyResponse
	if err := c.do(op, res, err, &out); err != nil {
		return nil, err
	}

	records := make([]chat.Exchange, 0, len(out.History))
	for _, rec := range out.History {
		rec.Timestamp = NormalizeTimestamp(rec.Timestamp)
		records = append(records, rec)
	}
	return records, nil
}

// DeleteHistory removes every stored exchange for subjectID.
func (c *Client) DeleteHistory(ctx context.Context, subjectID string) error {
	res, err := c.request(ctx).
		SetPathParam("username", subjectID).
		Delete("/chat/history/{username}")
	return c.do("delete history", res, err, nil)
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User *struct {
		Username string        `json:"username"`
		FullName string        `json:"full_name"`
		Email    string        `json:"email"`
		Role     identity.Role `json:"role"`
	} `json:"user"`
	Token string `json:"token"`
}

// Login authenticates with a username or email and returns the identity to persist.
func (c *Client) Login(ctx context.Context, login, password string) (identity.Identity, error) {
	const op = "login"

	res, err := c.request(ctx).
		SetBody(loginRequest{Username: login, Email: login, Password: password}).
		Post("/login")

	var out loginResponse
	if err := c.do(op, res, err, &out); err != nil {
		var terr *TransportError
		if errors.As(err, &terr) && terr.Status == http.StatusUnauthorized {
			return identity.Identity{}, ErrInvalidCredentials
		}
		return identity.Identity{}, err
	}
	if out.User == nil {
		return identity.Identity{}, &TransportError{Op: op, Status: res.StatusCode(), Err: fmt.Errorf("%w: missing user", ErrMalformedResponse)}
	}

	id := identity.Identity{
		SubjectID:   out.User.Username,
		DisplayName: out.User.FullName,
		Email:       out.User.Email,
		Role:        out.User.Role,
		AuthToken:   out.Token,
	}
	if id.SubjectID == "" {
		id.SubjectID = out.User.Email
	}
	if err := id.Validate(); err != nil {
		return identity.Identity{}, &TransportError{Op: op, Status: res.StatusCode(), Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}
	return id, nil
}

// Status is the backend health report.
type Status struct {
	Status       string `json:"status"`
	AISimulation bool   `json:"ai_simulation"`
}

// Status checks that the chat service is up.
func (c *Client) Status(ctx context.Context) (Status, error) {
	res, err := c.request(ctx).Get("/chat/status")

	var out Status
	if err := c.do("status", res, err, &out); err != nil {
		return Status{}, err
	}
	return out, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC1123,
	time.RFC1123Z,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999",
}

// NormalizeTimestamp rewrites a backend timestamp in the layout turns use. Values in an
// unknown layout are returned unchanged.
func NormalizeTimestamp(raw string) string {
	value := strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return chat.FormatTimestamp(t)
		}
	}
	return raw
}
