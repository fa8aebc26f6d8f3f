package client

import (
	"context"
	"net/http"

	"nextstop/internal/entities"
)

// FetchCurrentUser asks the user service who the session's bearer token
// belongs to. A rejected token comes back as a 401 or 403 *Error.
func (c *Client) FetchCurrentUser(ctx context.Context) (entities.AdminProfile, error) {
	var profile entities.AdminProfile
	err := c.do(ctx, call{
		op:     "FetchCurrentUser",
		method: http.MethodGet,
		url:    c.endpoints.User + "/api/users/me",
		auth:   true,
	}, &profile)
	if err != nil {
		return entities.AdminProfile{}, err
	}
	return profile, nil
}
