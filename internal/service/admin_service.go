package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"trimsdesk/internal/docstore"
	apperrors "trimsdesk/internal/errors"
	"trimsdesk/internal/identity"
	"trimsdesk/internal/model"
	"trimsdesk/internal/module"
	"trimsdesk/internal/repository"
	"trimsdesk/internal/session"
)

// UserUpdate is an admin edit of a user record. Nil fields are left unchanged.
type UserUpdate struct {
	Role           *string
	AllowedModules *[]string
	DefaultPage    *string
	Password       *string
	IsApproved     *bool
}

// SessionCloser drops live per-user state, such as sessions and navigation.
type SessionCloser interface {
	Drop(username string)
}

// Revoker invalidates what a deleted account still holds, such as persisted
// sessions and issued tokens.
type Revoker interface {
	RevokeUser(ctx context.Context, username string) error
}

// AdminService manages user accounts. Every method requires an admin.
type AdminService interface {
	ListUsers(ctx context.Context, who *identity.Identity) ([]model.UserView, error)
	UpdateUser(ctx context.Context, who *identity.Identity, username string, in UserUpdate) (*model.UserView, error)
	ApproveUser(ctx context.Context, who *identity.Identity, username string) (*model.UserView, error)
	DeleteUser(ctx context.Context, who *identity.Identity, username string) error
}

type adminService struct {
	users    repository.UserRepository
	revokers []Revoker
	closers  []SessionCloser
	log      logrus.FieldLogger
}

// NewAdminService creates an admin service. revokers and closers are told
// about deleted users.
func NewAdminService(users repository.UserRepository, log logrus.FieldLogger, revokers []Revoker, closers ...SessionCloser) AdminService {
	return &adminService{users: users, revokers: revokers, closers: closers, log: log.WithField("component", "admin")}
}

// ListUsers returns admins first, then everyone else, each by username.
func (s *adminService) ListUsers(ctx context.Context, who *identity.Identity) ([]model.UserView, error) {
	if !who.IsAdmin() {
		return nil, apperrors.ErrAccessDenied
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	sort.SliceStable(users, func(i, j int) bool {
		ai := identity.ParseRole(users[i].Role) == identity.RoleAdmin
		aj := identity.ParseRole(users[j].Role) == identity.RoleAdmin
		if ai != aj {
			return ai
		}
		return users[i].Username < users[j].Username
	})
	views := make([]model.UserView, 0, len(users))
	for _, u := range users {
		views = append(views, u.View())
	}
	return views, nil
}

func (s *adminService) UpdateUser(ctx context.Context, who *identity.Identity, username string, in UserUpdate) (*model.UserView, error) {
	if !who.IsAdmin() {
		return nil, apperrors.ErrAccessDenied
	}
	patch := map[string]any{}

	if in.Role != nil {
		role := identity.Role(strings.TrimSpace(*in.Role))
		if role != identity.RoleAdmin && role != identity.RoleUser {
			return nil, apperrors.Invalid(fmt.Sprintf("Unknown role %q.", *in.Role))
		}
		patch["role"] = string(role)
	}
	if in.AllowedModules != nil {
		pages := make([]string, 0, len(*in.AllowedModules))
		for _, raw := range *in.AllowedModules {
			p, err := module.ParsePage(raw)
			if err != nil {
				return nil, apperrors.Invalid(fmt.Sprintf("Unknown module %q.", raw))
			}
			pages = append(pages, string(p))
		}
		patch["allowedModules"] = pages
	}
	if in.DefaultPage != nil {
		p, err := module.ParsePage(*in.DefaultPage)
		if err != nil {
			return nil, apperrors.Invalid(fmt.Sprintf("Unknown page %q.", *in.DefaultPage))
		}
		patch["defaultPage"] = string(p)
	}
	if in.Password != nil {
		if *in.Password == "" {
			return nil, apperrors.Invalid("Password cannot be empty.")
		}
		hash, err := session.HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		patch["passwordHash"] = hash
		patch["password"] = docstore.DeleteField
	}
	if in.IsApproved != nil {
		patch["isApproved"] = *in.IsApproved
	}
	if len(patch) == 0 {
		return nil, apperrors.Invalid("Nothing to update.")
	}

	if err := s.users.Update(ctx, username, patch); err != nil {
		return nil, fmt.Errorf("update user %s: %w", username, notFound(err))
	}
	s.log.WithFields(logrus.Fields{"admin": who.Username, "username": username}).Info("user updated")
	return s.view(ctx, username)
}

func (s *adminService) ApproveUser(ctx context.Context, who *identity.Identity, username string) (*model.UserView, error) {
	approved := true
	return s.UpdateUser(ctx, who, username, UserUpdate{IsApproved: &approved})
}

func (s *adminService) DeleteUser(ctx context.Context, who *identity.Identity, username string) error {
	if !who.IsAdmin() {
		return apperrors.ErrAccessDenied
	}
	if username == who.Username {
		return apperrors.ErrSelfDelete
	}
	exists, err := s.users.Exists(ctx, username)
	if err != nil {
		return fmt.Errorf("check user %s: %w", username, err)
	}
	if !exists {
		return apperrors.ErrNotFound
	}
	if err := s.users.Delete(ctx, username); err != nil {
		return fmt.Errorf("delete user %s: %w", username, err)
	}
	for _, c := range s.closers {
		c.Drop(username)
	}
	for _, r := range s.revokers {
		if err := r.RevokeUser(ctx, username); err != nil {
			return fmt.Errorf("revoke user %s: %w", username, err)
		}
	}
	s.log.WithFields(logrus.Fields{"admin": who.Username, "username": username}).Info("user deleted")
	return nil
}

func (s *adminService) view(ctx context.Context, username string) (*model.UserView, error) {
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", username, notFound(err))
	}
	v := u.View()
	return &v, nil
}
