package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"nextstop/internal/client"
	"nextstop/internal/entities"
	"nextstop/internal/session"
)

// RoleAdmin is the user service role that grants the admin screens.
const RoleAdmin = "ADMIN"

// AdminBackend is the part of the user service the admin screens use.
type AdminBackend interface {
	FetchCurrentAdminProfile(ctx context.Context, id int64) (entities.AdminProfile, error)
	CreateUser(ctx context.Context, u entities.NewUser) (entities.AdminProfile, error)
}

// AdminBackendFunc yields a backend authenticated as the given session.
type AdminBackendFunc func(sess session.Session) AdminBackend

// ClientAdminBackend binds the REST client to each caller's session.
func ClientAdminBackend(c *client.Client) AdminBackendFunc {
	return func(sess session.Session) AdminBackend { return c.WithSession(sess) }
}

type AdminService struct {
	backend AdminBackendFunc
	logger  *slog.Logger
}

func NewAdminService(backend AdminBackendFunc, logger *slog.Logger) *AdminService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminService{backend: backend, logger: logger}
}

// Profile loads the signed-in admin's own record.
func (s *AdminService) Profile(ctx context.Context, sess session.Session) (entities.AdminProfile, error) {
	if !sess.IsAuthenticated() {
		return entities.AdminProfile{}, ErrUnauthenticated
	}
	if sess.User.ID == 0 {
		return entities.AdminProfile{}, ValidationError{Field: "user.id", Msg: "session has no user id"}
	}
	return s.backend(sess).FetchCurrentAdminProfile(ctx, sess.User.ID)
}

// AddUser creates a user through the modal below, so the same required
// field checks apply to every caller.
func (s *AdminService) AddUser(ctx context.Context, sess session.Session, u entities.NewUser) (entities.AdminProfile, error) {
	if !sess.IsAuthenticated() {
		return entities.AdminProfile{}, ErrUnauthenticated
	}
	var created entities.AdminProfile
	modal := AddUserModal{
		OnAddUser: func(ctx context.Context, u entities.NewUser) error {
			p, err := s.backend(sess).CreateUser(ctx, u)
			if err != nil {
				return err
			}
			created = p
			return nil
		},
	}
	if err := modal.Submit(ctx, u); err != nil {
		return entities.AdminProfile{}, err
	}
	s.logger.InfoContext(ctx, "user created", "by", sess.User.ID, "user_id", created.ID)
	return created, nil
}

// AddUserModal is the add-user form. It holds no state: the caller owns the
// NewUser and gets a copy handed to OnAddUser on every submit.
type AddUserModal struct {
	OnAddUser func(ctx context.Context, u entities.NewUser) error
}

// Submit checks required fields and calls OnAddUser exactly once.
func (m AddUserModal) Submit(ctx context.Context, u entities.NewUser) error {
	if m.OnAddUser == nil {
		return fmt.Errorf("add user: no handler")
	}
	switch {
	case strings.TrimSpace(u.FullName) == "":
		return ValidationError{Field: "fullName", Msg: "is required"}
	case strings.TrimSpace(u.Email) == "":
		return ValidationError{Field: "email", Msg: "is required"}
	case u.Password == "":
		return ValidationError{Field: "password", Msg: "is required"}
	}
	return m.OnAddUser(ctx, u.Clone())
}
