package client

import (
	"context"
	"net/http"
	"strconv"

	"nextstop/internal/entities"
)

// FetchCurrentAdminProfile loads a user record through the admin API. It
// needs a session with a bearer token; see WithSession.
func (c *Client) FetchCurrentAdminProfile(ctx context.Context, id int64) (entities.AdminProfile, error) {
	var profile entities.AdminProfile
	err := c.do(ctx, call{
		op:     "FetchCurrentAdminProfile",
		method: http.MethodGet,
		url:    c.endpoints.User + "/api/admin/users/" + strconv.FormatInt(id, 10),
		auth:   true,
	}, &profile)
	if err != nil {
		return entities.AdminProfile{}, err
	}
	return profile, nil
}

func (c *Client) CreateUser(ctx context.Context, u entities.NewUser) (entities.AdminProfile, error) {
	var profile entities.AdminProfile
	err := c.do(ctx, call{
		op:     "CreateUser",
		method: http.MethodPost,
		url:    c.endpoints.User + "/api/admin/users",
		body:   u,
		auth:   true,
	}, &profile)
	if err != nil {
		return entities.AdminProfile{}, err
	}
	return profile, nil
}
