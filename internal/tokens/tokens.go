package tokens

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Skotchmaster/mini_online_store/internal/models"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

var (
	ErrTokenInvalid = errors.New("token is invalid")
	ErrTokenExpired = errors.New("token is expired")
)

type Claims struct {
	UserID    uint        `json:"user_id"`
	Role      models.Role `json:"role"`
	TokenType string      `json:"token_type"`
	jwt.RegisteredClaims
}

// Blacklist is the revocation set for refresh token ids.
type Blacklist interface {
	Revoke(ctx context.Context, jti string, accountID uint, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type Pair struct {
	Access     string
	Refresh    string
	AccessExp  time.Time
	RefreshExp time.Time
}

type Service struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Blacklist     Blacklist
	Now           func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) IssuePair(a *models.Account) (Pair, error) {
	access, accessExp, err := s.CreateAccessToken(a)
	if err != nil {
		return Pair{}, err
	}
	refresh, refreshExp, err := s.CreateRefreshToken(a)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Access: access, Refresh: refresh, AccessExp: accessExp, RefreshExp: refreshExp}, nil
}

func (s *Service) CreateAccessToken(a *models.Account) (string, time.Time, error) {
	return s.sign(a, TypeAccess, s.AccessTTL, s.AccessSecret)
}

func (s *Service) CreateRefreshToken(a *models.Account) (string, time.Time, error) {
	return s.sign(a, TypeRefresh, s.RefreshTTL, s.RefreshSecret)
}

func (s *Service) sign(a *models.Account, typ string, ttl time.Duration, secret []byte) (string, time.Time, error) {
	if len(secret) == 0 {
		return "", time.Time{}, fmt.Errorf("sign %s token: empty secret", typ)
	}
	now := s.now()
	exp := now.Add(ttl)
	claims := Claims{
		UserID:    a.ID,
		Role:      a.Role,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(a.ID), 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, exp.Truncate(time.Second), nil
}

func (s *Service) parse(raw, typ string, secret []byte) (*Claims, error) {
	if raw == "" {
		return nil, fmt.Errorf("empty %s token: %w", typ, ErrTokenInvalid)
	}
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return &claims, fmt.Errorf("%s token: %w", typ, ErrTokenExpired)
	case err != nil:
		return nil, fmt.Errorf("%s token: %w: %v", typ, ErrTokenInvalid, err)
	}
	if claims.TokenType != typ || claims.UserID == 0 || claims.ID == "" || !claims.Role.Valid() {
		return nil, fmt.Errorf("%s token: %w: wrong claims", typ, ErrTokenInvalid)
	}
	return &claims, nil
}

func (s *Service) ValidateAccess(raw string) (*Claims, error) {
	return s.parse(raw, TypeAccess, s.AccessSecret)
}

// ParseRefresh checks signature, type and expiry but not the blacklist.
func (s *Service) ParseRefresh(raw string) (*Claims, error) {
	return s.parse(raw, TypeRefresh, s.RefreshSecret)
}

func (s *Service) ValidateRefresh(ctx context.Context, raw string) (*Claims, error) {
	claims, err := s.ParseRefresh(raw)
	if err != nil {
		return nil, err
	}
	if s.Blacklist == nil {
		return claims, nil
	}
	revoked, err := s.Blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check refresh token: %w", err)
	}
	if revoked {
		return nil, fmt.Errorf("refresh token revoked: %w", ErrTokenInvalid)
	}
	return claims, nil
}

func (s *Service) RevokeClaims(ctx context.Context, c *Claims) error {
	if s.Blacklist == nil {
		return errors.New("revoke refresh token: no blacklist configured")
	}
	if c.ExpiresAt == nil || !c.ExpiresAt.After(s.now()) {
		return nil
	}
	return s.Blacklist.Revoke(ctx, c.ID, c.UserID, c.ExpiresAt.Time)
}

// Revoke blacklists a refresh token until its own expiry. Expired tokens are ignored.
func (s *Service) Revoke(ctx context.Context, raw string) error {
	claims, err := s.ParseRefresh(raw)
	if errors.Is(err, ErrTokenExpired) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.RevokeClaims(ctx, claims)
}
