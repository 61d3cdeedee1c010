package http

import (
	"context"
	"fmt"
	"strings"
	"time"

	"labtrack/internal/core/domain/model/kernel"
	"labtrack/internal/pkg/errs"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type actorKey struct{}

// Claims carries the caller identity. Sub is the actor UUID.
type Claims struct {
	jwt.RegisteredClaims
	Capabilities []string `json:"capabilities"`
}

type JWTConfig struct {
	SigningKey []byte
	Issuer     string
}

// JWTMiddleware verifies an HS256 bearer token and stores the resulting Actor
// in the request context.
func JWTMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	parser := jwt.NewParser(opts...)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return fmt.Errorf("%w: missing authorization header", errs.ErrUnauthorized)
			}

			scheme, tokenStr, found := strings.Cut(authHeader, " ")
			if !found || !strings.EqualFold(scheme, "bearer") {
				return fmt.Errorf("%w: invalid authorization format", errs.ErrUnauthorized)
			}

			claims := &Claims{}
			token, err := parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
				return cfg.SigningKey, nil
			})
			if err != nil || !token.Valid {
				return fmt.Errorf("%w: invalid token", errs.ErrUnauthorized)
			}

			actor, err := actorFromClaims(claims)
			if err != nil {
				return err
			}

			ctx := WithActor(c.Request().Context(), actor)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func actorFromClaims(claims *Claims) (kernel.Actor, error) {
	id, err := kernel.UUIDFromString(claims.Subject)
	if err != nil || id.Validate() != nil {
		return kernel.Actor{}, fmt.Errorf("%w: token subject is not an actor id", errs.ErrUnauthorized)
	}
	if id.IsEqual(kernel.SystemActorID) {
		return kernel.Actor{}, fmt.Errorf("%w: the system actor cannot sign in", errs.ErrUnauthorized)
	}

	capabilities := make([]kernel.Capability, 0, len(claims.Capabilities))
	for _, c := range claims.Capabilities {
		if c = strings.TrimSpace(c); c != "" {
			capabilities = append(capabilities, kernel.Capability(c))
		}
	}
	return kernel.NewActor(id, capabilities...)
}

// IssueToken signs an HS256 token for actorID. It backs the token CLI command
// used by operators and tests.
func IssueToken(cfg JWTConfig, actorID kernel.UUID, capabilities []kernel.Capability, ttl time.Duration, now time.Time) (string, error) {
	caps := make([]string, 0, len(capabilities))
	for _, c := range capabilities {
		caps = append(caps, string(c))
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actorID.String(),
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Capabilities: caps,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(cfg.SigningKey)
}

// RequireCapability rejects callers whose actor lacks c.
func RequireCapability(c kernel.Capability) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ec echo.Context) error {
			actor, err := ActorFromContext(ec.Request().Context())
			if err != nil {
				return err
			}
			if err := actor.Require(c); err != nil {
				return err
			}
			return next(ec)
		}
	}
}

func WithActor(ctx context.Context, actor kernel.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns an Unauthorized error when no actor was authenticated.
func ActorFromContext(ctx context.Context) (kernel.Actor, error) {
	actor, ok := ctx.Value(actorKey{}).(kernel.Actor)
	if !ok || actor.Validate() != nil {
		return kernel.Actor{}, fmt.Errorf("%w: no authenticated actor", errs.ErrUnauthorized)
	}
	return actor, nil
}
