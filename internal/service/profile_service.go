package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"trimsdesk/internal/access"
	"trimsdesk/internal/docstore"
	apperrors "trimsdesk/internal/errors"
	"trimsdesk/internal/identity"
	"trimsdesk/internal/model"
	"trimsdesk/internal/module"
	"trimsdesk/internal/records"
	"trimsdesk/internal/repository"
)

const (
	minZoom = 50
	maxZoom = 200
)

// ProfileUpdate is a profile edit. Nil fields are left unchanged.
type ProfileUpdate struct {
	Name        *string
	Image       *string
	ZoomLevel   *string
	DefaultPage *module.Page
}

// ProfileView is the display profile with the user's preferences.
type ProfileView struct {
	Username    string      `json:"username"`
	Name        string      `json:"name"`
	Image       *string     `json:"image"`
	ZoomLevel   string      `json:"zoomLevel"`
	DefaultPage module.Page `json:"defaultPage"`
	UpdatedAt   string      `json:"updatedAt,omitempty"`
}

// ProfileService manages the acting user's own profile. Name and preferences
// are also written to the user record, which the live session follows.
type ProfileService interface {
	Get(ctx context.Context, who *identity.Identity) (*ProfileView, error)
	Update(ctx context.Context, who *identity.Identity, in ProfileUpdate) (*ProfileView, error)
}

type profileService struct {
	store docstore.Store
	users repository.UserRepository
	layer *records.Layer
	log   logrus.FieldLogger
}

// NewProfileService creates a profile service.
func NewProfileService(store docstore.Store, users repository.UserRepository, layer *records.Layer, log logrus.FieldLogger) ProfileService {
	return &profileService{store: store, users: users, layer: layer, log: log.WithField("component", "profile")}
}

func (s *profileService) Get(ctx context.Context, who *identity.Identity) (*ProfileView, error) {
	if who == nil {
		return nil, apperrors.ErrNoSession
	}
	view := &ProfileView{
		Username:    who.Username,
		Name:        who.DisplayName(),
		ZoomLevel:   who.ZoomLevel,
		DefaultPage: who.DefaultPage,
	}
	if view.ZoomLevel == "" {
		view.ZoomLevel = model.DefaultZoom
	}
	if view.DefaultPage == "" {
		view.DefaultPage = module.Dashboard
	}

	d, err := s.store.Get(ctx, module.ProfilesCollection, who.Username)
	if errors.Is(err, docstore.ErrNotFound) {
		return view, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	p, err := decode[model.Profile](d)
	if err != nil {
		return nil, err
	}
	if p.Name != "" {
		view.Name = p.Name
	}
	view.Image = p.Image
	view.UpdatedAt = p.UpdatedAt
	return view, nil
}

func (s *profileService) Update(ctx context.Context, who *identity.Identity, in ProfileUpdate) (*ProfileView, error) {
	if who == nil {
		return nil, apperrors.ErrNoSession
	}
	profile := map[string]any{}
	user := map[string]any{}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperrors.Invalid("Please enter a name.")
		}
		profile["name"] = name
		user["fullName"] = name
	}
	if in.Image != nil {
		profile["image"] = *in.Image
	}
	if in.ZoomLevel != nil {
		zoom, err := strconv.Atoi(*in.ZoomLevel)
		if err != nil || zoom < minZoom || zoom > maxZoom {
			return nil, apperrors.Invalid(fmt.Sprintf("Zoom level must be between %d and %d.", minZoom, maxZoom))
		}
		user["zoomLevel"] = strconv.Itoa(zoom)
	}
	if in.DefaultPage != nil {
		if !access.CanAccess(*in.DefaultPage, who) {
			return nil, apperrors.Invalid(fmt.Sprintf("Page %q is not available as a default page.", *in.DefaultPage))
		}
		user["defaultPage"] = string(*in.DefaultPage)
	}

	if len(profile) > 0 {
		if err := s.mergeProfile(ctx, who.Username, profile); err != nil {
			return nil, err
		}
	}
	if len(user) > 0 {
		if err := s.users.Update(ctx, who.Username, user); err != nil {
			return nil, fmt.Errorf("update user preferences: %w", notFound(err))
		}
	}
	s.log.WithField("username", who.Username).Info("profile updated")

	next := who.Clone()
	if name, ok := user["fullName"].(string); ok {
		next.FullName = name
	}
	if zoom, ok := user["zoomLevel"].(string); ok {
		next.ZoomLevel = zoom
	}
	if page, ok := user["defaultPage"].(string); ok {
		next.DefaultPage = module.Page(page)
	}
	return s.Get(ctx, &next)
}

// mergeProfile writes fields into user_profiles/{username}, creating it if needed.
func (s *profileService) mergeProfile(ctx context.Context, username string, fields map[string]any) error {
	fields[records.FieldUpdatedAt] = s.layer.Now()
	_, err := s.store.Get(ctx, module.ProfilesCollection, username)
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		err = s.store.Set(ctx, module.ProfilesCollection, username, fields)
	case err == nil:
		err = s.store.Update(ctx, module.ProfilesCollection, username, fields)
	}
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}
