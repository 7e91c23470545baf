package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"trimsdesk/internal/auth"
	apperrors "trimsdesk/internal/errors"
	"trimsdesk/internal/model"
	"trimsdesk/internal/session"
)

// Sessions is the part of the session manager the auth service drives.
type Sessions interface {
	Register(ctx context.Context, reg session.Registration) (*model.User, error)
	Login(ctx context.Context, username, password string) (*session.Session, error)
	Restore(ctx context.Context, username string) (*session.Session, error)
	Logout(ctx context.Context, username string) error
}

// AuthService handles authentication operations.
type AuthService interface {
	Register(ctx context.Context, reg session.Registration) (*model.User, error)
	Login(ctx context.Context, username, password string) (accessToken, refreshToken string, sess *session.Session, err error)
	RefreshToken(ctx context.Context, refreshToken string) (accessToken string, err error)
	// Logout ends the session of the access token's user, blacklists the access
	// token for its remaining lifetime and revokes refreshToken when given.
	Logout(ctx context.Context, access *auth.Claims, refreshToken string) error
}

type authService struct {
	sessions   Sessions
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
	closers    []SessionCloser
	log        logrus.FieldLogger
}

// NewAuthService creates a new authentication service. closers are told when
// a user logs out.
func NewAuthService(sessions Sessions, jwtService *auth.JWTService, tokenStore auth.TokenStoreInterface, log logrus.FieldLogger, closers ...SessionCloser) AuthService {
	return &authService{
		sessions:   sessions,
		jwtService: jwtService,
		tokenStore: tokenStore,
		closers:    closers,
		log:        log.WithField("component", "auth"),
	}
}

func (s *authService) Register(ctx context.Context, reg session.Registration) (*model.User, error) {
	return s.sessions.Register(ctx, reg)
}

// Login authenticates a user and returns access and refresh tokens.
func (s *authService) Login(ctx context.Context, username, password string) (string, string, *session.Session, error) {
	sess, err := s.sessions.Login(ctx, username, password)
	if err != nil {
		return "", "", nil, err
	}
	who := sess.Identity()
	if who == nil {
		return "", "", nil, apperrors.ErrNoSession
	}
	role := string(who.Role)

	accessToken, err := s.jwtService.GenerateAccessToken(who.Username, role)
	if err != nil {
		return "", "", nil, fmt.Errorf("generate access token: %w", err)
	}
	tokenID, refreshToken, err := s.jwtService.GenerateRefreshToken(who.Username, role)
	if err != nil {
		return "", "", nil, fmt.Errorf("generate refresh token: %w", err)
	}
	if err := s.tokenStore.StoreRefreshToken(ctx, tokenID, who.Username, auth.RefreshTokenExpiry); err != nil {
		return "", "", nil, fmt.Errorf("store refresh token: %w", err)
	}
	return accessToken, refreshToken, sess, nil
}

// RefreshToken validates a refresh token and returns a new access token. The
// role in the new token comes from the live session, not the old token.
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.jwtService.ValidateToken(refreshToken)
	if err != nil || claims.ID == "" {
		return "", apperrors.ErrInvalidRefreshToken
	}
	stored, err := s.tokenStore.GetRefreshToken(ctx, claims.ID)
	if err != nil || stored != claims.Username {
		return "", apperrors.ErrInvalidRefreshToken
	}

	sess, err := s.sessions.Restore(ctx, claims.Username)
	if err != nil {
		return "", err
	}
	who := sess.Identity()
	if who == nil {
		return "", apperrors.ErrNoSession
	}
	accessToken, err := s.jwtService.GenerateAccessToken(who.Username, string(who.Role))
	if err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}
	return accessToken, nil
}

func (s *authService) Logout(ctx context.Context, access *auth.Claims, refreshToken string) error {
	if access == nil {
		return apperrors.ErrNoSession
	}
	if refreshToken != "" {
		if tokenID, err := s.jwtService.ExtractTokenID(refreshToken); err == nil {
			if err := s.tokenStore.DeleteRefreshToken(ctx, tokenID); err != nil {
				s.log.WithError(err).Warn("revoke refresh token")
			}
		}
	}
	if err := s.tokenStore.BlacklistAccessToken(ctx, access.ID, auth.Remaining(access)); err != nil {
		s.log.WithError(err).Warn("blacklist access token")
	}
	for _, c := range s.closers {
		c.Drop(access.Username)
	}
	return s.sessions.Logout(ctx, access.Username)
}
