package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"

	"github.com/sireesha-siri/Millitary-Asset-Fullstack/internal/model"
	"github.com/sireesha-siri/Millitary-Asset-Fullstack/internal/session"
)

// DefaultTimeout bounds a single login exchange when none is configured.
const DefaultTimeout = 15 * time.Second

var (
	// ErrRejected matches an *AuthError of kind Rejected.
	ErrRejected = errors.New("credentials rejected")
	// ErrUnavailable matches an *AuthError of kind Unavailable.
	ErrUnavailable = errors.New("identity service unavailable")
)

// ErrorKind distinguishes the two ways a login can fail.
type ErrorKind int

const (
	// Rejected means the identity endpoint refused the credentials or
	// answered with a non-success status. The user can correct this.
	Rejected ErrorKind = iota + 1
	// Unavailable means the endpoint could not be reached or answered with
	// something unreadable. Retrying may help.
	Unavailable
)

func (k ErrorKind) String() string {
	switch k {
	case Rejected:
		return "rejected"
	case Unavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// AuthError is returned by Login. Status is the HTTP status when one was
// received.
type AuthError struct {
	Kind   ErrorKind
	Status int
	Err    error
}

func (e *AuthError) Error() string {
	msg := ErrRejected.Error()
	if e.Kind == Unavailable {
		msg = ErrUnavailable.Error()
	}
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AuthError) Unwrap() error { return e.Err }

// Is lets errors.Is match ErrRejected and ErrUnavailable by kind.
func (e *AuthError) Is(target error) bool {
	switch target {
	case ErrRejected:
		return e.Kind == Rejected
	case ErrUnavailable:
		return e.Kind == Unavailable
	}
	return false
}

// Credentials are the raw values supplied by the user.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// loginResponse is the payload returned by the identity endpoint.
type loginResponse struct {
	User  *loginUser `json:"user" validate:"required"`
	Token string     `json:"token" validate:"required"`
}

type loginUser struct {
	UserID   string   `json:"user_id" validate:"required"`
	Username string   `json:"username" validate:"required"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	Roles    []string `json:"roles"`
}

// UnmarshalJSON accepts user_id as either a JSON string or a number.
func (u *loginUser) UnmarshalJSON(data []byte) error {
	type alias loginUser
	var raw struct {
		alias
		UserID json.RawMessage `json:"user_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*u = loginUser(raw.alias)
	u.UserID = ""

	if len(raw.UserID) == 0 || string(raw.UserID) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw.UserID, &s); err == nil {
		u.UserID = s
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(raw.UserID, &n); err != nil {
		return fmt.Errorf("user_id: %w", err)
	}
	u.UserID = n.String()
	return nil
}

// Authenticator exchanges credentials with the identity endpoint and records
// the resulting session. It is the only code path that creates a session.
type Authenticator struct {
	store    *session.Store
	client   *resty.Client
	endpoint string
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

// Config holds the Authenticator settings.
type Config struct {
	Endpoint string
	Timeout  time.Duration
}

// NewAuthenticator creates an Authenticator posting to cfg.Endpoint.
func NewAuthenticator(store *session.Store, cfg Config, logger *slog.Logger) *Authenticator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	client := resty.New().
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "assetctl").
		SetTimeout(cfg.Timeout)

	return &Authenticator{
		store:    store,
		client:   client,
		endpoint: cfg.Endpoint,
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
	}
}

// Login sends the credentials to the identity endpoint. On success the new
// session replaces any previous one and the identity is returned. On
// failure the previous session is left untouched and an *AuthError is
// returned.
func (a *Authenticator) Login(ctx context.Context, username, password string) (model.Identity, error) {
	creds := Credentials{Username: strings.TrimSpace(username), Password: password}
	if err := a.validate.Struct(creds); err != nil {
		a.logger.Info("login rejected", "username", creds.Username, "reason", "missing credentials")
		return model.Identity{}, &AuthError{Kind: Rejected, Err: errors.New("username and password are required")}
	}

	resp, err := a.client.R().
		SetContext(ctx).
		SetBody(creds).
		Post(a.endpoint)
	if err != nil {
		a.logger.Warn("login unavailable", "username", creds.Username, "error", err)
		return model.Identity{}, &AuthError{Kind: Unavailable, Err: err}
	}
	if !resp.IsSuccess() {
		a.logger.Info("login rejected", "username", creds.Username, "status", resp.StatusCode())
		return model.Identity{}, &AuthError{Kind: Rejected, Status: resp.StatusCode()}
	}

	var body loginResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		a.logger.Warn("login response unreadable", "status", resp.StatusCode(), "error", err)
		return model.Identity{}, &AuthError{Kind: Unavailable, Status: resp.StatusCode(), Err: fmt.Errorf("decode response: %w", err)}
	}
	if err := a.validate.Struct(body); err != nil {
		a.logger.Warn("login response incomplete", "status", resp.StatusCode(), "error", err)
		return model.Identity{}, &AuthError{Kind: Unavailable, Status: resp.StatusCode(), Err: fmt.Errorf("invalid response: %w", err)}
	}

	u := body.User
	identity := model.NewIdentity(u.UserID, u.Username, u.Email, u.FullName, u.Roles)

	err = a.store.Save(ctx, model.Session{
		Identity:  identity,
		Token:     body.Token,
		CreatedAt: a.now(),
	})
	if err != nil {
		var perr *session.PersistenceError
		if !errors.As(err, &perr) {
			return model.Identity{}, &AuthError{Kind: Unavailable, Err: err}
		}
		a.logger.Warn("session not persisted, it will not survive a restart", "username", identity.Username, "error", err)
	}

	a.logger.Info("login succeeded", "username", identity.Username, "roles", identity.Roles)
	return identity, nil
}

// Logout clears the local session. It never fails and makes no network call.
func (a *Authenticator) Logout(ctx context.Context) {
	if err := a.store.Clear(ctx); err != nil {
		a.logger.Error("session cleared in memory only", "error", err)
		return
	}
	a.logger.Info("logged out")
}
