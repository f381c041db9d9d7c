// ABOUTME: Username/password authentication against the Yggdrasil-style auth server
// ABOUTME: 403 maps to ErrInvalidCredentials; failures are never retried automatically

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	lhttp "github.com/mauromedda/mclaunch-go/internal/http"
	"github.com/mauromedda/mclaunch-go/internal/log"
)

// DefaultURL is the authentication endpoint.
const DefaultURL = "https://authserver.mojang.com/authenticate"

// Error is an authentication failure.
type Error struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.StatusCode != 0:
		return fmt.Sprintf("authentication failed (HTTP %d): %v", e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("authentication failed: %v", e.Err)
	default:
		return fmt.Sprintf("authentication failed (HTTP %d): %s", e.StatusCode, e.Message)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Client talks to the authentication server.
type Client struct {
	URL  string
	HTTP *http.Client
}

// NewClient creates a Client for url (DefaultURL when empty).
func NewClient(url string, hc *http.Client) *Client {
	if url == "" {
		url = DefaultURL
	}
	if hc == nil {
		hc = lhttp.NewClient(0, "")
	}
	return &Client{URL: url, HTTP: hc}
}

type agent struct {
	Name    string `json:"name"`
	Version int    `json:"version"`
}

type authRequest struct {
	Agent       agent  `json:"agent"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	RequestUser bool   `json:"requestUser"`
	ClientToken string `json:"clientToken,omitempty"`
}

type authResponse struct {
	AccessToken       string    `json:"accessToken"`
	ClientToken       string    `json:"clientToken"`
	SelectedProfile   *Profile  `json:"selectedProfile"`
	AvailableProfiles []Profile `json:"availableProfiles"`
}

// Authenticate logs in and returns the resulting session, which is
// Authenticated on success. On failure the session is returned in the
// Unauthenticated state together with the error.
func (c *Client) Authenticate(ctx context.Context, username, password, clientToken string) (*Session, error) {
	s := NewSession(username, clientToken)
	if err := s.begin(); err != nil {
		return s, err
	}

	resp, err := c.authenticate(ctx, username, password, clientToken)
	if err != nil {
		s.finish(err)
		return s, err
	}

	// a stored client token wins over the one echoed back
	if s.ClientToken == "" {
		s.ClientToken = resp.ClientToken
	}
	s.AccessToken = resp.AccessToken
	s.Selected = *resp.SelectedProfile
	s.Available = resp.AvailableProfiles
	s.finish(nil)
	log.Info("auth: authenticated %s as %s", username, s.Selected.Name)
	return s, nil
}

func (c *Client) authenticate(ctx context.Context, username, password, clientToken string) (*authResponse, error) {
	req := authRequest{
		Agent:       agent{Name: "Minecraft", Version: 1},
		Username:    username,
		Password:    password,
		RequestUser: true,
		ClientToken: clientToken,
	}

	var resp authResponse
	err := lhttp.PostJSON(ctx, c.HTTP, c.URL, req, &resp)
	var se *lhttp.StatusError
	switch {
	case errors.As(err, &se) && se.StatusCode == http.StatusForbidden:
		log.Warn("auth: login details for %s are invalid", username)
		return nil, &Error{StatusCode: se.StatusCode, Err: ErrInvalidCredentials}
	case errors.As(err, &se):
		return nil, &Error{StatusCode: se.StatusCode, Message: se.Body}
	case err != nil:
		return nil, &Error{Err: err}
	}

	if resp.AccessToken == "" {
		return nil, &Error{Err: errors.New("response carries no access token")}
	}
	if resp.SelectedProfile == nil || resp.SelectedProfile.ID == "" {
		return nil, &Error{Err: errors.New("account has no selected profile")}
	}
	return &resp, nil
}
