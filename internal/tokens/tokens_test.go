package tokens

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/mini_online_store/internal/models"
)

type memBlacklist struct {
	mu  sync.Mutex
	set map[string]time.Time
	err error
}

func (m *memBlacklist) Revoke(_ context.Context, jti string, _ uint, exp time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.set == nil {
		m.set = map[string]time.Time{}
	}
	m.set[jti] = exp
	return nil
}

func (m *memBlacklist) IsRevoked(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.set[jti]
	return ok, nil
}

func newService() (*Service, *memBlacklist) {
	bl := &memBlacklist{}
	return &Service{
		AccessSecret:  []byte("access"),
		RefreshSecret: []byte("refresh"),
		AccessTTL:     5 * time.Minute,
		RefreshTTL:    24 * time.Hour,
		Blacklist:     bl,
	}, bl
}

var alice = &models.Account{ID: 7, Role: models.RoleEmployee}

func TestIssuePair_Claims(t *testing.T) {
	t.Parallel()
	s, _ := newService()

	pair, err := s.IssuePair(alice)
	require.NoError(t, err)
	assert.NotEqual(t, pair.Access, pair.Refresh)
	assert.True(t, pair.RefreshExp.After(pair.AccessExp))

	ac, err := s.ValidateAccess(pair.Access)
	require.NoError(t, err)
	assert.EqualValues(t, 7, ac.UserID)
	assert.Equal(t, "7", ac.Subject)
	assert.Equal(t, models.RoleEmployee, ac.Role)
	assert.Equal(t, TypeAccess, ac.TokenType)
	assert.NotEmpty(t, ac.ID)

	rc, err := s.ValidateRefresh(context.Background(), pair.Refresh)
	require.NoError(t, err)
	assert.Equal(t, TypeRefresh, rc.TokenType)
	assert.NotEqual(t, ac.ID, rc.ID)
}

func TestValidate_CrossTypeRejected(t *testing.T) {
	t.Parallel()
	s, _ := newService()
	pair, err := s.IssuePair(alice)
	require.NoError(t, err)

	_, err = s.ValidateAccess(pair.Refresh)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = s.ParseRefresh(pair.Access)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidate_SameSecretStillChecksType(t *testing.T) {
	t.Parallel()
	s, _ := newService()
	s.RefreshSecret = s.AccessSecret
	pair, err := s.IssuePair(alice)
	require.NoError(t, err)

	_, err = s.ValidateAccess(pair.Refresh)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidate_Expired(t *testing.T) {
	t.Parallel()
	s, _ := newService()
	now := time.Now()
	s.Now = func() time.Time { return now }

	pair, err := s.IssuePair(alice)
	require.NoError(t, err)

	now = now.Add(10 * time.Minute)
	_, err = s.ValidateAccess(pair.Access)
	assert.ErrorIs(t, err, ErrTokenExpired)

	_, err = s.ValidateRefresh(context.Background(), pair.Refresh)
	require.NoError(t, err)
}

func TestValidate_Garbage(t *testing.T) {
	t.Parallel()
	s, _ := newService()

	for _, raw := range []string{"", "abc", "a.b.c"} {
		_, err := s.ValidateAccess(raw)
		assert.ErrorIs(t, err, ErrTokenInvalid, raw)
	}
}

func TestValidate_WrongAlgorithm(t *testing.T) {
	t.Parallel()
	s, _ := newService()
	claims := Claims{
		UserID:    7,
		TokenType: TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "x",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(s.AccessSecret)
	require.NoError(t, err)

	_, err = s.ValidateAccess(raw)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidate_UnknownRoleRejected(t *testing.T) {
	t.Parallel()
	s, _ := newService()

	for _, role := range []models.Role{"", "guest"} {
		raw, _, err := s.CreateAccessToken(&models.Account{ID: 7, Role: role})
		require.NoError(t, err)
		_, err = s.ValidateAccess(raw)
		assert.ErrorIs(t, err, ErrTokenInvalid, string(role))
	}
}

func TestRevoke(t *testing.T) {
	t.Parallel()
	s, bl := newService()
	ctx := context.Background()

	pair, err := s.IssuePair(alice)
	require.NoError(t, err)

	require.NoError(t, s.Revoke(ctx, pair.Refresh))
	require.NoError(t, s.Revoke(ctx, pair.Refresh))
	assert.Len(t, bl.set, 1)

	_, err = s.ValidateRefresh(ctx, pair.Refresh)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	// the access token is not affected
	_, err = s.ValidateAccess(pair.Access)
	assert.NoError(t, err)
}

func TestRevoke_ExpiredIsNoop(t *testing.T) {
	t.Parallel()
	s, bl := newService()
	now := time.Now()
	s.Now = func() time.Time { return now }

	pair, err := s.IssuePair(alice)
	require.NoError(t, err)
	now = now.Add(48 * time.Hour)

	require.NoError(t, s.Revoke(context.Background(), pair.Refresh))
	assert.Empty(t, bl.set)
}

func TestValidateRefresh_BlacklistError(t *testing.T) {
	t.Parallel()
	s, bl := newService()
	bl.err = errors.New("redis down")

	pair, err := s.IssuePair(alice)
	require.NoError(t, err)

	_, err = s.ValidateRefresh(context.Background(), pair.Refresh)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTokenInvalid)
}
