// Package session is the auth provider of a browser session. A Provider is
// constructed per request from the Manager, initialized from persistent
// storage, and torn down when the request ends.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-web/internal/api"
	"github.com/iliyamo/cinema-web/internal/model"
	"github.com/iliyamo/cinema-web/internal/storage"
)

// Persistent storage keys.
const (
	keyCredential = "credential"
	keyUser       = "user"
	keyVerifiedAt = "verifiedAt"
	keyRedirect   = "redirectAfterLogin"
)

var (
	ErrMissingCredentials = errors.New("session: email and password are required")
	ErrInvalidRole        = errors.New("session: unknown role")
	ErrTornDown           = errors.New("session: provider torn down")
)

// LoginError carries the message shown on the login form.
type LoginError struct {
	Message string
	Err     error
}

func (e *LoginError) Error() string { return "session: login failed: " + e.Message }
func (e *LoginError) Unwrap() error { return e.Err }

// Manager builds providers. It is shared by all requests.
type Manager struct {
	client      *api.Client
	store       storage.Store
	verifyEvery time.Duration
	log         *zap.Logger
	now         func() time.Time
}

// NewManager returns a manager that re-verifies stored credentials against
// the backend at most every verifyEvery.
func NewManager(client *api.Client, persistent storage.Store, verifyEvery time.Duration, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{client: client, store: persistent, verifyEvery: verifyEvery, log: log.Named("session"), now: time.Now}
}

// For returns an uninitialized provider for sid.
func (m *Manager) For(sid string) *Provider {
	return &Provider{m: m, sid: sid, loading: true}
}

// Provider holds the authentication state of one browser session.
type Provider struct {
	m   *Manager
	sid string

	mu       sync.RWMutex
	loading  bool
	tornDown bool
	user     *model.User
	cred     api.Credential
}

// Init bootstraps from persistent storage. Expired JWTs are dropped without a
// network call; other credentials are checked against /api/user when the last
// check is older than the manager's verify interval. A failed check clears
// the stored session. Init never fails the request: storage errors leave the
// provider anonymous and are returned for logging.
func (p *Provider) Init(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	defer func() { p.loading = false }()

	var cred api.Credential
	err := storage.GetJSON(ctx, p.m.store, p.sid, keyCredential, &cred)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && cred.Empty()) {
		return nil
	}
	if err != nil && !errors.Is(err, storage.ErrCorrupt) {
		return fmt.Errorf("load credential: %w", err)
	}
	if err != nil || tokenExpired(cred.Token, p.m.now()) {
		p.clearLocked(ctx)
		return nil
	}

	var user model.User
	uerr := storage.GetJSON(ctx, p.m.store, p.sid, keyUser, &user)
	if uerr == nil && !p.needsVerify(ctx) {
		p.cred, p.user = cred, &user
		return nil
	}

	fresh, err := p.m.client.WithCredential(cred).CurrentUser(ctx)
	if err != nil {
		p.m.log.Info("stored session rejected", zap.String("sid", fingerprint(p.sid)), zap.Error(err))
		p.clearLocked(ctx)
		return nil
	}
	p.cred, p.user = cred, fresh
	p.persistLocked(ctx)
	return nil
}

func (p *Provider) needsVerify(ctx context.Context) bool {
	raw, err := p.m.store.Get(ctx, p.sid, keyVerifiedAt)
	if err != nil {
		return true
	}
	at, err := time.Parse(time.RFC3339, raw)
	return err != nil || p.m.now().Sub(at) > p.m.verifyEvery
}

// Teardown drops the in-memory state. Persistent storage is untouched.
func (p *Provider) Teardown() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tornDown = true
	p.user = nil
	p.cred = api.Credential{}
}

// Loading reports whether Init has not finished yet.
func (p *Provider) Loading() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loading
}

// CurrentUser returns the signed-in user or nil.
func (p *Provider) CurrentUser() *model.User {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.user == nil {
		return nil
	}
	u := *p.user
	return &u
}

// SID is the browser session id.
func (p *Provider) SID() string { return p.sid }

// Client returns an API client carrying the session credential.
func (p *Provider) Client() *api.Client {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.m.client.WithCredential(p.cred)
}

// Login signs in with the endpoint for role and returns where to go next: the
// redirect stashed before login (consumed) or the role's landing page.
func (p *Provider) Login(ctx context.Context, email, password string, role model.Role) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", &LoginError{Message: "Email and password are required", Err: ErrMissingCredentials}
	}
	if !role.Valid() {
		return "", &LoginError{Message: "Login failed", Err: ErrInvalidRole}
	}

	cred, user, err := p.m.client.Login(ctx, role, model.Credentials{Email: email, Password: password})
	if err != nil {
		return "", &LoginError{Message: api.MessageOr(err, "Login failed"), Err: err}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tornDown {
		return "", ErrTornDown
	}
	p.cred, p.user = cred, user
	p.persistLocked(ctx)

	landing := LandingPath(user.Role)
	if next, err := p.m.store.Take(ctx, p.sid, keyRedirect); err == nil && safeRedirect(next) {
		landing = next
	}
	p.m.log.Info("signed in", zap.String("sid", fingerprint(p.sid)), zap.Uint64("user_id", user.ID), zap.String("role", string(user.Role)))
	return landing, nil
}

// Logout ends the backend session best effort and always forgets the local
// one.
func (p *Provider) Logout(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var err error
	if !p.cred.Empty() {
		err = p.m.client.WithCredential(p.cred).Logout(ctx)
		if err != nil {
			p.m.log.Info("backend logout failed", zap.Error(err))
		}
	}
	p.clearLocked(ctx)
	return err
}

// Register creates a customer account. The caller sends the customer to the
// login page afterwards.
func (p *Provider) Register(ctx context.Context, reg model.Registration) error {
	if err := p.m.client.Register(ctx, reg); err != nil {
		return &LoginError{Message: api.MessageOr(err, "Registration failed"), Err: err}
	}
	return nil
}

// StashRedirect remembers where to go after the next login.
func (p *Provider) StashRedirect(ctx context.Context, path string) error {
	if !safeRedirect(path) {
		return nil
	}
	return p.m.store.Set(ctx, p.sid, keyRedirect, path)
}

// Authorize decides whether the current user may open an auth-gated page for
// role. When not, it returns where to send the browser; anonymous visitors
// have path stashed for after login.
func (p *Provider) Authorize(ctx context.Context, role model.Role, path string) (string, bool) {
	user := p.CurrentUser()
	if user == nil {
		if err := p.StashRedirect(ctx, path); err != nil {
			p.m.log.Warn("stash redirect", zap.Error(err))
		}
		return LoginPath(role, path), false
	}
	if user.Role != role {
		return "/", false
	}
	return "", true
}

// LoginPath is the login page of role.
func LoginPath(role model.Role, next string) string {
	if role == model.RoleAdmin {
		return "/admin/login"
	}
	if next == "" {
		return "/customer/login"
	}
	return "/customer/login?redirect=" + url.QueryEscape(next)
}

// LandingPath is where a user of role lands after login.
func LandingPath(role model.Role) string {
	if role == model.RoleAdmin {
		return "/admin/dashboard"
	}
	return "/customer/dashboard"
}

func (p *Provider) persistLocked(ctx context.Context) {
	if err := storage.SetJSON(ctx, p.m.store, p.sid, keyCredential, p.cred); err != nil {
		p.m.log.Warn("persist credential", zap.Error(err))
	}
	if err := storage.SetJSON(ctx, p.m.store, p.sid, keyUser, p.user); err != nil {
		p.m.log.Warn("persist user", zap.Error(err))
	}
	if err := p.m.store.Set(ctx, p.sid, keyVerifiedAt, p.m.now().UTC().Format(time.RFC3339)); err != nil {
		p.m.log.Warn("persist verification time", zap.Error(err))
	}
}

func (p *Provider) clearLocked(ctx context.Context) {
	p.user = nil
	p.cred = api.Credential{}
	for _, k := range []string{keyCredential, keyUser, keyVerifiedAt} {
		if _, err := p.m.store.Delete(ctx, p.sid, k); err != nil {
			p.m.log.Warn("clear session key", zap.String("key", k), zap.Error(err))
		}
	}
}

// tokenExpired reports whether token is a JWT whose exp lies in the past.
// Opaque tokens are never considered expired here.
func tokenExpired(token string, now time.Time) bool {
	if strings.Count(token, ".") != 2 {
		return false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(now)
}

// safeRedirect accepts local absolute paths only.
func safeRedirect(path string) bool {
	return strings.HasPrefix(path, "/") && !strings.HasPrefix(path, "//") && !strings.Contains(path, "\\")
}

func fingerprint(sid string) string {
	if len(sid) > 8 {
		return sid[:8]
	}
	return sid
}
