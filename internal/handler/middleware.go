package handler

import (
	"context"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"trimsdesk/internal/access"
	"trimsdesk/internal/auth"
	"trimsdesk/internal/errors"
	"trimsdesk/internal/metrics"
	"trimsdesk/internal/module"
	"trimsdesk/internal/session"
)

// SessionSource finds the live session of a token's user.
type SessionSource interface {
	Restore(ctx context.Context, username string) (*session.Session, error)
}

// Guard authenticates requests and enforces the access policy per route group.
type Guard struct {
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
	sessions   SessionSource
	metrics    *metrics.Metrics
	log        logrus.FieldLogger
}

// NewGuard creates the request guards. m may be nil.
func NewGuard(jwtService *auth.JWTService, tokenStore auth.TokenStoreInterface, sessions SessionSource, m *metrics.Metrics, log logrus.FieldLogger) *Guard {
	return &Guard{
		jwtService: jwtService,
		tokenStore: tokenStore,
		sessions:   sessions,
		metrics:    m,
		log:        log.WithField("component", "guard"),
	}
}

// JWT verifies the bearer token.
func (g *Guard) JWT() echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey:  g.jwtService.Secret(),
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(auth.Claims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
				Error: "missing or invalid token",
				Code:  "INVALID_TOKEN",
			})
		},
	})
}

// Session refuses revoked tokens and attaches the caller's live session. It
// must run after JWT.
func (g *Guard) Session() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return fail(errors.ErrNoSession)
			}
			claims, ok := token.Claims.(*auth.Claims)
			if !ok || claims.Username == "" {
				return fail(errors.ErrNoSession)
			}

			ctx := c.Request().Context()
			revoked, err := g.tokenStore.IsAccessTokenBlacklisted(ctx, claims.ID)
			if err != nil {
				g.log.WithError(err).Error("check token blacklist")
				return fail(err)
			}
			if !revoked {
				revokedAt, err := g.tokenStore.UserRevokedAt(ctx, claims.Username)
				if err != nil {
					g.log.WithError(err).Error("check account revocation")
					return fail(err)
				}
				revoked = auth.RevokedBy(claims, revokedAt)
			}
			if revoked {
				return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
					Error: "token has been revoked",
					Code:  "TOKEN_REVOKED",
				})
			}

			sess, err := g.sessions.Restore(ctx, claims.Username)
			if err != nil {
				return fail(err)
			}
			c.Set(ClaimsKey, claims)
			c.Set(SessionKey, sess)
			return next(c)
		}
	}
}

// RequirePage admits the request when the session may open any of pages.
func (g *Guard) RequirePage(pages ...module.Page) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := who(c)
			for _, p := range pages {
				if access.CanAccess(p, id) {
					return next(c)
				}
			}
			page := ""
			if len(pages) > 0 {
				page = string(pages[0])
			}
			g.metrics.Denied(page)
			entry := g.log.WithFields(logrus.Fields{"path": c.Path(), "page": page})
			if id != nil {
				entry = entry.WithField("username", id.Username)
			}
			entry.Warn("request denied by access policy")
			return fail(errors.ErrAccessDenied)
		}
	}
}
