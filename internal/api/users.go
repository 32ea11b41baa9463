package api

import (
	"context"
	"net/http"
)

// Register creates an account. The backend echoes the user record.
func (c *Client) Register(ctx context.Context, username, password string) (*User, error) {
	var u User
	if err := c.doJSON(ctx, http.MethodPost, c.url("user", "register"), User{Username: username, Password: password}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Login checks credentials. The backend returns the user record; no
// separate token is issued.
func (c *Client) Login(ctx context.Context, username, password string) (*User, error) {
	var u User
	if err := c.doJSON(ctx, http.MethodPost, c.url("user", "login"), User{Username: username, Password: password}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
