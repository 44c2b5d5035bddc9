package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/iliyamo/cinema-web/internal/model"
)

// Login authenticates against the role's login endpoint. The returned
// credential carries the bearer token when the backend issues one and the
// session cookies it sets; the user is fetched from /api/user when the login
// response does not include it.
func (c *Client) Login(ctx context.Context, role model.Role, creds model.Credentials) (Credential, *model.User, error) {
	if !role.Valid() {
		return Credential{}, nil, fmt.Errorf("api: unknown role %q", role)
	}
	cred := Credential{Cookies: map[string]string{}}

	// CSRF cookie first; backends that use bearer tokens answer 404 here.
	if h, err := c.call(ctx, http.MethodGet, "/sanctum/csrf-cookie", nil, nil, nil); err == nil {
		collectCookies(h, cred.Cookies)
	}

	var out struct {
		Token       string      `json:"token"`
		AccessToken string      `json:"access_token"`
		User        *model.User `json:"user"`
	}
	h, err := c.WithCredential(cred).call(ctx, http.MethodPost, "/api/"+string(role)+"/login", nil, creds, &out)
	if err != nil {
		return Credential{}, nil, err
	}
	collectCookies(h, cred.Cookies)
	cred.Token = out.Token
	if cred.Token == "" {
		cred.Token = out.AccessToken
	}
	if len(cred.Cookies) == 0 {
		cred.Cookies = nil
	}

	user := out.User
	if user == nil || user.ID == 0 {
		if user, err = c.WithCredential(cred).CurrentUser(ctx); err != nil {
			return Credential{}, nil, err
		}
	}
	if user.Role == "" {
		user.Role = role
	}
	return cred, user, nil
}

// Logout ends the backend session of the attached credential.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.call(ctx, http.MethodPost, "/api/logout", nil, nil, nil)
	return err
}

// CurrentUser returns the profile of the attached credential.
func (c *Client) CurrentUser(ctx context.Context) (*model.User, error) {
	var out model.User
	if _, err := c.call(ctx, http.MethodGet, "/api/user", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, reg model.Registration) error {
	_, err := c.call(ctx, http.MethodPost, "/customer/register", nil, reg, nil)
	return err
}

func collectCookies(h http.Header, into map[string]string) {
	if h == nil {
		return
	}
	resp := http.Response{Header: h}
	for _, ck := range resp.Cookies() {
		if ck.MaxAge < 0 || ck.Value == "" {
			delete(into, ck.Name)
			continue
		}
		into[ck.Name] = ck.Value
	}
}
