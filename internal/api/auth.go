package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"travelapp/internal/core"
)

// LoginResult is what a successful login yields.
type LoginResult struct {
	Token string    `json:"token"`
	User  core.User `json:"user"`
}

// SignupInput holds the registration form fields.
type SignupInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

func (in SignupInput) Validate() error {
	switch {
	case strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "":
		return errors.New("first and last name are required")
	case !strings.Contains(in.Email, "@"):
		return errors.New("a valid email is required")
	case in.Password == "":
		return errors.New("password is required")
	}
	return nil
}

// Login exchanges credentials for a session token and the user profile.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	const op = "login"
	if strings.TrimSpace(email) == "" || password == "" {
		return LoginResult{}, core.Invalid(op, errors.New("email and password are required"))
	}

	body, err := c.do(ctx, request{
		op:          op,
		method:      http.MethodPost,
		path:        "/api/login",
		body:        map[string]string{"email": strings.TrimSpace(email), "password": password},
		failKind:    core.ErrAuth,
		failMessage: "Login failed. Please check your credentials.",
	})
	if err != nil {
		return LoginResult{}, err
	}

	var res LoginResult
	if err := c.decode(ctx, op, body, &res); err != nil {
		return LoginResult{}, err
	}
	if res.Token == "" {
		return LoginResult{}, c.formatError(ctx, op, errors.New("response has no token"))
	}
	return res, nil
}

// Signup registers a new account and returns the created profile.
func (c *Client) Signup(ctx context.Context, in SignupInput) (core.User, error) {
	const op = "signup"
	if err := in.Validate(); err != nil {
		return core.User{}, core.Invalid(op, err)
	}

	body, err := c.do(ctx, request{
		op:          op,
		method:      http.MethodPost,
		path:        "/api/signup",
		body:        in,
		failKind:    core.ErrAuth,
		failMessage: "Sign up failed. Please try again.",
	})
	if err != nil {
		return core.User{}, err
	}

	var user core.User
	if err := c.decode(ctx, op, unwrap(body, "user"), &user); err != nil {
		return core.User{}, err
	}
	return user, nil
}

// RequestPasswordReset asks the backend to email a reset link and returns
// its confirmation text.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	const op = "request password reset"
	if !strings.Contains(email, "@") {
		return "", core.Invalid(op, errors.New("a valid email is required"))
	}

	body, err := c.do(ctx, request{
		op:          op,
		method:      http.MethodPost,
		path:        "/api/request-password-reset",
		body:        map[string]string{"email": strings.TrimSpace(email)},
		failKind:    core.ErrRequest,
		failMessage: "Could not request a password reset.",
	})
	if err != nil {
		return "", err
	}
	if msg := serverMessage(body); msg != "" {
		return msg, nil
	}
	return "Password reset email sent.", nil
}

// FetchProfile reads the user profile. A 401 means the session expired.
func (c *Client) FetchProfile(ctx context.Context, userID string) (core.User, error) {
	const op = "fetch profile"
	body, err := c.do(ctx, request{
		op:     op,
		method: http.MethodGet,
		path:   "/api/users/" + pathID(userID),
		bearer: true,
	})
	if err != nil {
		return core.User{}, err
	}
	var user core.User
	if err := c.decode(ctx, op, unwrap(body, "user"), &user); err != nil {
		return core.User{}, err
	}
	return user, nil
}

// UpdateProfile writes the editable profile fields and returns the stored profile.
func (c *Client) UpdateProfile(ctx context.Context, user core.User) (core.User, error) {
	const op = "update profile"
	if strings.TrimSpace(user.ID) == "" {
		return core.User{}, core.Invalid(op, core.ErrEmptyUser)
	}
	body, err := c.do(ctx, request{
		op:          op,
		method:      http.MethodPut,
		path:        "/api/users/" + pathID(user.ID),
		body:        user,
		bearer:      true,
		failKind:    core.ErrRequest,
		failMessage: "Could not update your profile.",
	})
	if err != nil {
		return core.User{}, err
	}
	if len(body) == 0 {
		return user, nil
	}
	var stored core.User
	if err := json.Unmarshal(unwrap(body, "user"), &stored); err != nil {
		return core.User{}, c.formatError(ctx, op, err)
	}
	if stored.Email == "" {
		// acknowledgment without a profile body
		return user, nil
	}
	if stored.ID == "" {
		stored.ID = user.ID
	}
	return stored, nil
}
