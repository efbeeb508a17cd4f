package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Skotchmaster/mini_online_store/internal/activation"
	"github.com/Skotchmaster/mini_online_store/internal/events"
	"github.com/Skotchmaster/mini_online_store/internal/metrics"
	"github.com/Skotchmaster/mini_online_store/internal/models"
	"github.com/Skotchmaster/mini_online_store/internal/notify"
	"github.com/Skotchmaster/mini_online_store/internal/repo"
	"github.com/Skotchmaster/mini_online_store/internal/tokens"
	pkg_hash "github.com/Skotchmaster/mini_online_store/pkg/hash"
	"github.com/Skotchmaster/mini_online_store/pkg/logging"
)

const VerifyEmailPath = "/api/v1/users/verify-email/"

type Store interface {
	CreateAccount(ctx context.Context, a *models.Account) error
	GetAccountByID(ctx context.Context, id uint) (*models.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	GetAccountByUsername(ctx context.Context, username string) (*models.Account, error)
	UpdateAccount(ctx context.Context, a *models.Account) error
}

type AuthService struct {
	Store      Store
	Activation *activation.Generator
	Tokens     *tokens.Service
	Notifier   notify.Notifier
	Events     events.Publisher
	Metrics    *metrics.Metrics

	PublicURL   string
	EventsTopic string
	BcryptCost  int

	dummyOnce sync.Once
	dummyHash string
}

type RegisterInput struct {
	Username string `json:"username" validate:"required,max=150,username,notme"`
	Email    string `json:"email"    validate:"required,max=254,email"`
	Password string `json:"password" validate:"required,bcryptlen"`
}

type LoginInput struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ResendInput struct {
	Email string `json:"email" validate:"required,email"`
}

type LogoutInput struct {
	Refresh   string `json:"refresh"`
	Blacklist bool   `json:"blacklist"`
}

type LoginResult struct {
	tokens.Pair
	Account *models.Account
}

func (s *AuthService) ActivationLink(a *models.Account, token string) string {
	return strings.TrimRight(s.PublicURL, "/") + VerifyEmailPath + activation.EncodeUID(a.ID) + "/" + token
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.Account, error) {
	l := logging.FromContext(ctx).With("svc", "users.register")

	in.Username = strings.TrimSpace(in.Username)
	in.Email = normalizeEmail(in.Email)
	if err := validateStruct(in); err != nil {
		l.Info("register_failed", "status", 400, "reason", "validation", "error", err.Error())
		s.Metrics.Observe(metrics.OpRegister, metrics.OutcomeRejected)
		return nil, err
	}

	if err := s.ensureAvailable(ctx, in.Username, in.Email); err != nil {
		if errors.Is(err, ErrConflict) {
			l.Info("register_failed", "status", 400, "reason", err.Error())
			s.Metrics.Observe(metrics.OpRegister, metrics.OutcomeRejected)
		} else {
			l.Error("register_failed", "status", 500, "error", err.Error())
			s.Metrics.Observe(metrics.OpRegister, metrics.OutcomeError)
		}
		return nil, err
	}

	pwHash, err := pkg_hash.HashPasswordCost(in.Password, s.BcryptCost)
	if err != nil {
		l.Error("register_failed", "status", 500, "reason", "cannot hash the password", "error", err.Error())
		s.Metrics.Observe(metrics.OpRegister, metrics.OutcomeError)
		return nil, fmt.Errorf("hash password: %w", err)
	}

	a := &models.Account{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: pwHash,
		Role:         models.RoleUser,
	}
	if err := s.Store.CreateAccount(ctx, a); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			field := repo.ConflictField(err)
			if field != "username" {
				field = "email"
			}
			l.Info("register_failed", "status", 400, "reason", "unique violation", "field", field)
			s.Metrics.Observe(metrics.OpRegister, metrics.OutcomeRejected)
			return nil, &ConflictError{Field: field}
		}
		l.Error("register_failed", "status", 500, "error", err.Error())
		s.Metrics.Observe(metrics.OpRegister, metrics.OutcomeError)
		return nil, err
	}

	l.Info("registered", "user_id", a.ID)
	s.Metrics.Observe(metrics.OpRegister, metrics.OutcomeOK)
	s.sendActivation(ctx, a)
	s.publish(ctx, events.UserRegistered, a)
	return a, nil
}

func (s *AuthService) ensureAvailable(ctx context.Context, username, email string) error {
	if _, err := s.Store.GetAccountByEmail(ctx, email); err == nil {
		return &ConflictError{Field: "email"}
	} else if !errors.Is(err, repo.ErrNotFound) {
		return err
	}
	if _, err := s.Store.GetAccountByUsername(ctx, username); err == nil {
		return &ConflictError{Field: "username"}
	} else if !errors.Is(err, repo.ErrNotFound) {
		return err
	}
	return nil
}

// VerifyEmail collapses every failure of a well-formed request into ErrActivationFailed.
func (s *AuthService) VerifyEmail(ctx context.Context, uid, token string) (*models.Account, error) {
	l := logging.FromContext(ctx).With("svc", "users.verify_email")

	id, err := activation.DecodeUID(uid)
	if err != nil {
		l.Info("activation_failed", "reason", "malformed uid")
		s.Metrics.Observe(metrics.OpVerify, metrics.OutcomeRejected)
		return nil, ErrActivationFailed
	}

	a, err := s.Store.GetAccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Info("activation_failed", "reason", "no such account", "user_id", id)
			s.Metrics.Observe(metrics.OpVerify, metrics.OutcomeRejected)
			return nil, ErrActivationFailed
		}
		l.Error("activation_failed", "status", 500, "error", err.Error())
		s.Metrics.Observe(metrics.OpVerify, metrics.OutcomeError)
		return nil, err
	}

	if !s.Activation.Check(a, token) {
		l.Info("activation_failed", "reason", "token mismatch", "user_id", id)
		s.Metrics.Observe(metrics.OpVerify, metrics.OutcomeRejected)
		return nil, ErrActivationFailed
	}

	a.IsEmailVerified = true
	if err := s.Store.UpdateAccount(ctx, a); err != nil {
		l.Error("activation_failed", "status", 500, "error", err.Error())
		s.Metrics.Observe(metrics.OpVerify, metrics.OutcomeError)
		return nil, err
	}

	l.Info("email_verified", "user_id", a.ID)
	s.Metrics.Observe(metrics.OpVerify, metrics.OutcomeOK)
	s.publish(ctx, events.UserEmailVerified, a)
	return a, nil
}

func (s *AuthService) ResendActivation(ctx context.Context, in ResendInput) error {
	l := logging.FromContext(ctx).With("svc", "users.resend_activation")

	in.Email = normalizeEmail(in.Email)
	if err := validateStruct(in); err != nil {
		s.Metrics.Observe(metrics.OpResend, metrics.OutcomeRejected)
		return err
	}

	a, err := s.Store.GetAccountByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Info("resend_failed", "status", 400, "reason", "no such account")
			s.Metrics.Observe(metrics.OpResend, metrics.OutcomeRejected)
			return &ValidationError{Message: "User with this email does not exist."}
		}
		l.Error("resend_failed", "status", 500, "error", err.Error())
		s.Metrics.Observe(metrics.OpResend, metrics.OutcomeError)
		return err
	}
	if a.IsEmailVerified {
		l.Info("resend_failed", "status", 400, "reason", "already verified", "user_id", a.ID)
		s.Metrics.Observe(metrics.OpResend, metrics.OutcomeRejected)
		return &ValidationError{Message: "Email is already verified."}
	}

	s.Metrics.Observe(metrics.OpResend, metrics.OutcomeOK)
	s.sendActivation(ctx, a)
	return nil
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "users.login")

	in.Email = normalizeEmail(in.Email)
	if err := validateStruct(in); err != nil {
		s.Metrics.Observe(metrics.OpLogin, metrics.OutcomeRejected)
		return nil, err
	}

	a, err := s.Store.GetAccountByEmail(ctx, in.Email)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			l.Error("login_failed", "status", 500, "error", err.Error())
			s.Metrics.Observe(metrics.OpLogin, metrics.OutcomeError)
			return nil, err
		}
		pkg_hash.CheckPassword(s.dummy(ctx), in.Password)
		l.Info("login_failed", "status", 401, "reason", "invalid credentials")
		s.Metrics.Observe(metrics.OpLogin, metrics.OutcomeRejected)
		return nil, ErrInvalidCredentials
	}

	if !pkg_hash.CheckPassword(a.PasswordHash, in.Password) {
		l.Info("login_failed", "status", 401, "reason", "invalid credentials", "user_id", a.ID)
		s.Metrics.Observe(metrics.OpLogin, metrics.OutcomeRejected)
		return nil, ErrInvalidCredentials
	}
	if !a.IsEmailVerified {
		l.Info("login_failed", "status", 403, "reason", "email not verified", "user_id", a.ID)
		s.Metrics.Observe(metrics.OpLogin, metrics.OutcomeRejected)
		return nil, ErrEmailNotVerified
	}

	pair, err := s.Tokens.IssuePair(a)
	if err != nil {
		l.Error("login_failed", "status", 500, "error", err.Error())
		s.Metrics.Observe(metrics.OpLogin, metrics.OutcomeError)
		return nil, err
	}

	l.Info("logged_in", "user_id", a.ID)
	s.Metrics.Observe(metrics.OpLogin, metrics.OutcomeOK)
	s.publish(ctx, events.UserLoggedIn, a)
	return &LoginResult{Pair: pair, Account: a}, nil
}

// Logout always succeeds for an authenticated caller unless a refresh token to blacklist
// is supplied and does not belong to them.
func (s *AuthService) Logout(ctx context.Context, accountID uint, in LogoutInput) error {
	l := logging.FromContext(ctx).With("svc", "users.logout", "user_id", accountID)

	if in.Blacklist && in.Refresh != "" {
		claims, err := s.Tokens.ParseRefresh(in.Refresh)
		switch {
		case errors.Is(err, tokens.ErrTokenExpired):
			l.Info("logout_refresh_already_expired")
		case err != nil:
			l.Info("logout_failed", "status", 401, "reason", "invalid refresh token")
			s.Metrics.Observe(metrics.OpLogout, metrics.OutcomeRejected)
			return fmt.Errorf("logout: %w", ErrTokenInvalid)
		case claims.UserID != accountID:
			l.Warn("logout_failed", "status", 401, "reason", "refresh token belongs to another account")
			s.Metrics.Observe(metrics.OpLogout, metrics.OutcomeRejected)
			return fmt.Errorf("logout: refresh owner mismatch: %w", ErrTokenInvalid)
		default:
			if err := s.Tokens.RevokeClaims(ctx, claims); err != nil {
				l.Error("logout_failed", "status", 500, "error", err.Error())
				s.Metrics.Observe(metrics.OpLogout, metrics.OutcomeError)
				return err
			}
			l.Info("refresh_blacklisted", "jti", claims.ID)
		}
	}

	s.Metrics.Observe(metrics.OpLogout, metrics.OutcomeOK)
	a, err := s.Store.GetAccountByID(ctx, accountID)
	if err != nil {
		l.Warn("logout_account_lookup_failed", "error", err.Error())
		a = &models.Account{ID: accountID}
	}
	s.publish(ctx, events.UserLoggedOut, a)
	return nil
}

// Refresh issues a new access token for a live refresh token. The refresh token is not rotated.
func (s *AuthService) Refresh(ctx context.Context, refresh string) (string, time.Time, error) {
	l := logging.FromContext(ctx).With("svc", "users.refresh")

	claims, err := s.Tokens.ValidateRefresh(ctx, refresh)
	if err != nil {
		if errors.Is(err, ErrTokenInvalid) || errors.Is(err, ErrTokenExpired) {
			l.Info("refresh_failed", "status", 401, "reason", err.Error())
			s.Metrics.Observe(metrics.OpRefresh, metrics.OutcomeRejected)
			return "", time.Time{}, err
		}
		l.Error("refresh_failed", "status", 500, "error", err.Error())
		s.Metrics.Observe(metrics.OpRefresh, metrics.OutcomeError)
		return "", time.Time{}, err
	}

	a, err := s.Store.GetAccountByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			s.Metrics.Observe(metrics.OpRefresh, metrics.OutcomeRejected)
			return "", time.Time{}, fmt.Errorf("refresh: account gone: %w", ErrTokenInvalid)
		}
		s.Metrics.Observe(metrics.OpRefresh, metrics.OutcomeError)
		return "", time.Time{}, err
	}

	access, exp, err := s.Tokens.CreateAccessToken(a)
	if err != nil {
		s.Metrics.Observe(metrics.OpRefresh, metrics.OutcomeError)
		return "", time.Time{}, err
	}
	s.Metrics.Observe(metrics.OpRefresh, metrics.OutcomeOK)
	return access, exp, nil
}

func (s *AuthService) Me(ctx context.Context, accountID uint) (*models.Account, error) {
	return s.Store.GetAccountByID(ctx, accountID)
}

func (s *AuthService) sendActivation(ctx context.Context, a *models.Account) {
	if s.Notifier == nil {
		return
	}
	link := s.ActivationLink(a, s.Activation.Make(a))
	if err := s.Notifier.SendActivationLink(ctx, a, link); err != nil {
		logging.FromContext(ctx).Warn("activation_notify_failed", "user_id", a.ID, "error", err.Error())
		s.Metrics.Notification(metrics.OutcomeError)
		return
	}
	s.Metrics.Notification(metrics.OutcomeOK)
}

func (s *AuthService) publish(ctx context.Context, typ string, a *models.Account) {
	if s.Events == nil || s.EventsTopic == "" {
		return
	}
	ev := events.NewUserEvent(typ, a, time.Now())
	if err := s.Events.PublishEvent(ctx, s.EventsTopic, ev.Key(), ev); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "type", typ, "user_id", a.ID, "error", err.Error())
	}
}

// dummy is compared against when the account does not exist so both paths pay for bcrypt.
func (s *AuthService) dummy(ctx context.Context) string {
	s.dummyOnce.Do(func() {
		h, err := pkg_hash.HashPasswordCost("unusable-password", s.BcryptCost)
		if err != nil {
			logging.FromContext(ctx).Error("dummy_hash_failed", "cost", s.BcryptCost, "error", err.Error())
			return
		}
		s.dummyHash = h
	})
	return s.dummyHash
}
