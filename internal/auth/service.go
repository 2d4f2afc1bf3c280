// Package auth holds the credential service and the gin middleware that gates admin routes.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/Shreyas165/Find-My-Teacher/internal/apperr"
	"github.com/Shreyas165/Find-My-Teacher/internal/config"
	"github.com/Shreyas165/Find-My-Teacher/internal/models"
	"github.com/Shreyas165/Find-My-Teacher/internal/observability"
	"github.com/Shreyas165/Find-My-Teacher/internal/storage"
)

// CredentialStore is the persistence the credential service needs.
type CredentialStore interface {
	GetCredential(ctx context.Context, username string) (*models.Credential, error)
	UpsertCredential(ctx context.Context, username, hash string) (bool, error)
	CountCredentials(ctx context.Context) (int, error)
}

// Claims are carried by the session token.
type Claims struct {
	jwt.RegisteredClaims
}

// Token is an issued session token.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

type Service struct {
	store  CredentialStore
	secret []byte
	ttl    time.Duration
	issuer string
	cost   int
	now    func() time.Time
}

func NewService(store CredentialStore, cfg config.AuthConfig) *Service {
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Service{
		store:  store,
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.TokenTTL,
		issuer: cfg.Issuer,
		cost:   cost,
		now:    time.Now,
	}
}

// SetPassword stores a bcrypt hash for username and reports whether the credential is new.
func (s *Service) SetPassword(ctx context.Context, username, password string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return false, apperr.InvalidRequest("Username and password are required.")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return false, apperr.InvalidRequest("Password is too long.")
		}
		return false, apperr.Wrap(apperr.CodeInternal, "hash password", err)
	}
	created, err := s.store.UpsertCredential(ctx, username, string(hash))
	if err != nil {
		return false, apperr.Wrap(apperr.CodeInternal, "store credential", err)
	}
	return created, nil
}

// Verify checks the password and issues a session token on success.
func (s *Service) Verify(ctx context.Context, username, password string) (*Token, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperr.InvalidRequest("Username and password are required.")
	}
	if err := s.check(ctx, username, password); err != nil {
		return nil, err
	}
	return s.issue(username)
}

// ChangePassword replaces the password after verifying the current one.
func (s *Service) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	username = strings.TrimSpace(username)
	if username == "" || oldPassword == "" || newPassword == "" {
		return apperr.InvalidRequest("Username, old password and new password are required.")
	}
	if err := s.check(ctx, username, oldPassword); err != nil {
		return err
	}
	if oldPassword == newPassword {
		return apperr.InvalidRequest("New password must differ from the old one.")
	}
	_, err := s.SetPassword(ctx, username, newPassword)
	return err
}

// HasCredentials reports whether any credential exists yet.
func (s *Service) HasCredentials(ctx context.Context) (bool, error) {
	n, err := s.store.CountCredentials(ctx)
	if err != nil {
		return false, apperr.Wrap(apperr.CodeInternal, "count credentials", err)
	}
	return n > 0, nil
}

// Bootstrap creates the configured user when it does not exist yet.
func (s *Service) Bootstrap(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}
	_, err := s.store.GetCredential(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("look up bootstrap user: %w", err)
	}
	if _, err := s.SetPassword(ctx, username, password); err != nil {
		return fmt.Errorf("create bootstrap user: %w", err)
	}
	slog.Info("bootstrap credential created", "username", username)
	return nil
}

func (s *Service) check(ctx context.Context, username, password string) error {
	cred, err := s.store.GetCredential(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			observability.CredentialChecks.WithLabelValues("unknown_user").Inc()
			return apperr.Unauthorized("Invalid username or password.")
		}
		observability.CredentialChecks.WithLabelValues("error").Inc()
		return apperr.Wrap(apperr.CodeInternal, "load credential", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		observability.CredentialChecks.WithLabelValues("mismatch").Inc()
		return apperr.Unauthorized("Invalid username or password.")
	}
	observability.CredentialChecks.WithLabelValues("ok").Inc()
	return nil
}

func (s *Service) issue(username string) (*Token, error) {
	now := s.now().UTC()
	expires := now.Add(s.ttl)
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   username,
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "sign token", err)
	}
	return &Token{Value: signed, ExpiresAt: expires}, nil
}

// ParseToken validates a session token and returns its claims.
func (s *Service) ParseToken(token string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeUnauthorized, "Invalid or expired token.", err)
	}
	if claims.Subject == "" {
		return nil, apperr.Unauthorized("Invalid or expired token.")
	}
	return &claims, nil
}
