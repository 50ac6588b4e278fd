package customers

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgAuth "github.com/agilestore/agilestore-backend/pkg/auth"
	"github.com/agilestore/agilestore-backend/pkg/auth/session"
	"github.com/agilestore/agilestore-backend/pkg/config"
	"github.com/agilestore/agilestore-backend/pkg/db/models"
	"github.com/agilestore/agilestore-backend/pkg/enums"
	pkgerrors "github.com/agilestore/agilestore-backend/pkg/errors"
	"github.com/agilestore/agilestore-backend/pkg/logger"
	"github.com/agilestore/agilestore-backend/pkg/outbox"
	"github.com/agilestore/agilestore-backend/pkg/outbox/payloads"
	"github.com/agilestore/agilestore-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

const resetTokenBytes = 32

// Service defines the customer account operations behind the API.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	Refresh(ctx context.Context, req RefreshRequest) (*AuthResponse, error)
	Logout(ctx context.Context, accessID string) error
	Me(ctx context.Context, customerID uuid.UUID) (*CustomerView, error)
	UpdateProfile(ctx context.Context, customerID uuid.UUID, req UpdateProfileRequest) (*CustomerView, error)
	ChangePassword(ctx context.Context, customerID uuid.UUID, req ChangePasswordRequest) error
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, req ResetConfirmRequest) error
	SetPassword(ctx context.Context, customerID uuid.UUID, req SetPasswordRequest) error

	// Guest checkout surface.
	FindByEmail(ctx context.Context, email string) (*models.Customer, error)
	CreateGuest(ctx context.Context, tx *gorm.DB, fullName, email, phone string) (*models.Customer, error)
	IssueAccessToken(ctx context.Context, customer *models.Customer) (string, error)
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo        Repository
	tx          txRunner
	outbox      outboxPublisher
	session     sessionManager
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
}

// ServiceParams bundles the customer service dependencies.
type ServiceParams struct {
	Repo           Repository
	Tx             txRunner
	Outbox         outboxPublisher
	SessionManager sessionManager
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
	Logger         *logger.Logger
}

// NewService builds the customers service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("customers repository is required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	return &service{
		repo:        params.Repo,
		tx:          params.Tx,
		outbox:      params.Outbox,
		session:     params.SessionManager,
		jwtCfg:      params.JWTConfig,
		passwordCfg: params.PasswordConfig,
		logg:        params.Logger,
	}, nil
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	email := normalizeEmail(req.Email)

	existing, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		if !existing.PasswordPending {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "an account with this email already exists")
		}
		// Guest checkout created this row without a password; registering
		// with the same email claims it instead of conflicting.
		return s.claimGuestAccount(ctx, existing, req)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up customer")
	}

	hash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	customer := &models.Customer{
		FullName:     strings.TrimSpace(req.FullName),
		Email:        email,
		Phone:        strings.TrimSpace(req.Phone),
		PasswordHash: &hash,
		Locale:       enums.ParseLocale(req.Locale),
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, customer); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create customer")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCustomerRegistered,
			AggregateType: enums.AggregateCustomer,
			AggregateID:   customer.ID,
			Version:       1,
			Data: payloads.CustomerRegisteredEvent{
				CustomerID: customer.ID,
				Email:      customer.Email,
				FullName:   customer.FullName,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithCustomerID(ctx, customer.ID.String()), "customer registered")
	}
	return s.issueTokens(ctx, customer)
}

// claimGuestAccount completes registration for an account auto-created during
// guest checkout. The row keeps its id (and any orders hanging off it); it
// gains a password and the profile details from the registration form.
func (s *service) claimGuestAccount(ctx context.Context, customer *models.Customer, req RegisterRequest) (*AuthResponse, error) {
	hash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	updates := map[string]any{
		"password_hash":    hash,
		"password_pending": false,
	}
	customer.PasswordHash = &hash
	customer.PasswordPending = false
	if name := strings.TrimSpace(req.FullName); name != "" {
		updates["full_name"] = name
		customer.FullName = name
	}
	if phone := strings.TrimSpace(req.Phone); phone != "" {
		updates["phone"] = phone
		customer.Phone = phone
	}
	if req.Locale != "" {
		locale := enums.ParseLocale(req.Locale)
		updates["locale"] = locale
		customer.Locale = locale
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Update(ctx, customer.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim guest account")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCustomerRegistered,
			AggregateType: enums.AggregateCustomer,
			AggregateID:   customer.ID,
			Version:       1,
			Data: payloads.CustomerRegisteredEvent{
				CustomerID: customer.ID,
				Email:      customer.Email,
				FullName:   customer.FullName,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithCustomerID(ctx, customer.ID.String()), "guest account claimed")
	}
	return s.issueTokens(ctx, customer)
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	customer, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	return s.issueTokens(ctx, customer)
}

// Refresh rotates the refresh session and mints a fresh access token. The
// expired access token is accepted for identity only; its session binding is
// what gets verified.
func (s *service) Refresh(ctx context.Context, req RefreshRequest) (*AuthResponse, error) {
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwtCfg, req.AccessToken)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}

	newAccessID, refreshToken, err := s.session.Rotate(ctx, claims.ID, req.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rotate session")
	}

	customer, err := s.repo.FindByID(ctx, claims.CustomerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}

	accessToken, err := s.mint(customer, newAccessID)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Customer:     FromModel(customer),
	}, nil
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session")
	}
	if err := s.session.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "revoke session")
	}
	return nil
}

func (s *service) Me(ctx context.Context, customerID uuid.UUID) (*CustomerView, error) {
	customer, err := s.loadCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	view := FromModel(customer)
	return &view, nil
}

func (s *service) UpdateProfile(ctx context.Context, customerID uuid.UUID, req UpdateProfileRequest) (*CustomerView, error) {
	customer, err := s.loadCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "full name cannot be empty")
		}
		updates["full_name"] = name
		customer.FullName = name
	}
	if req.Phone != nil {
		phone := strings.TrimSpace(*req.Phone)
		if phone == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone cannot be empty")
		}
		updates["phone"] = phone
		customer.Phone = phone
	}
	if req.Locale != nil {
		locale := enums.Locale(*req.Locale)
		if !locale.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported locale")
		}
		updates["locale"] = locale
		customer.Locale = locale
	}

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, customer.ID, updates); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update profile")
		}
	}
	view := FromModel(customer)
	return &view, nil
}

func (s *service) ChangePassword(ctx context.Context, customerID uuid.UUID, req ChangePasswordRequest) error {
	customer, err := s.loadCustomer(ctx, customerID)
	if err != nil {
		return err
	}
	if customer.PasswordHash == nil {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "account has no password yet, set one first")
	}

	valid, err := security.VerifyPassword(req.CurrentPassword, *customer.PasswordHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	return s.storePassword(ctx, customer.ID, req.NewPassword)
}

// RequestPasswordReset issues a one-time token. Unknown emails succeed
// silently so the endpoint does not leak which accounts exist.
func (s *service) RequestPasswordReset(ctx context.Context, email string) error {
	customer, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up customer")
	}

	token, tokenHash, err := newResetToken()
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate reset token")
	}

	ttl := s.passwordCfg.ResetTokenTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	expiresAt := time.Now().UTC().Add(ttl)

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreatePasswordReset(ctx, &models.PasswordReset{
			CustomerID: customer.ID,
			TokenHash:  tokenHash,
			ExpiresAt:  expiresAt,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store reset token")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPasswordResetIssued,
			AggregateType: enums.AggregateCustomer,
			AggregateID:   customer.ID,
			Version:       1,
			Data: payloads.PasswordResetIssuedEvent{
				CustomerID: customer.ID,
				Email:      customer.Email,
				Token:      token,
				ExpiresAt:  expiresAt,
			},
		})
	})
}

func (s *service) ConfirmPasswordReset(ctx context.Context, req ResetConfirmRequest) error {
	reset, err := s.repo.FindPasswordResetByHash(ctx, hashResetToken(req.Token))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid or expired reset token")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up reset token")
	}

	now := time.Now().UTC()
	if reset.UsedAt != nil || now.After(reset.ExpiresAt) {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid or expired reset token")
	}

	hash, err := security.HashPassword(req.NewPassword, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Update(ctx, reset.CustomerID, map[string]any{
			"password_hash":    hash,
			"password_pending": false,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update password")
		}
		if err := repo.MarkPasswordResetUsed(ctx, reset.ID, now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "burn reset token")
		}
		return nil
	})
}

// SetPassword claims a guest-created account. Accounts that already chose a
// password must use the change-password flow instead.
func (s *service) SetPassword(ctx context.Context, customerID uuid.UUID, req SetPasswordRequest) error {
	customer, err := s.loadCustomer(ctx, customerID)
	if err != nil {
		return err
	}
	if !customer.PasswordPending {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "password already set")
	}
	return s.storePassword(ctx, customer.ID, req.Password)
}

func (s *service) FindByEmail(ctx context.Context, email string) (*models.Customer, error) {
	return s.repo.FindByEmail(ctx, normalizeEmail(email))
}

func (s *service) CreateGuest(ctx context.Context, tx *gorm.DB, fullName, email, phone string) (*models.Customer, error) {
	customer := &models.Customer{
		FullName:        strings.TrimSpace(fullName),
		Email:           normalizeEmail(email),
		Phone:           strings.TrimSpace(phone),
		PasswordPending: true,
		Locale:          enums.LocaleID,
	}
	if err := s.repo.WithTx(tx).Create(ctx, customer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create guest customer")
	}
	return customer, nil
}

func (s *service) IssueAccessToken(ctx context.Context, customer *models.Customer) (string, error) {
	accessID := session.NewAccessID()
	token, err := s.mint(customer, accessID)
	if err != nil {
		return "", err
	}
	// Bind the token to a session so the auth middleware accepts it.
	if _, err := s.session.Generate(ctx, accessID); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store refresh token")
	}
	return token, nil
}

func (s *service) authenticate(ctx context.Context, email, password string) (*models.Customer, error) {
	input := normalizeEmail(email)
	if input == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	customer, err := s.repo.FindByEmail(ctx, input)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up customer")
	}
	if customer.PasswordHash == nil || customer.PasswordPending {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	valid, err := security.VerifyPassword(password, *customer.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return customer, nil
}

func (s *service) issueTokens(ctx context.Context, customer *models.Customer) (*AuthResponse, error) {
	accessID := session.NewAccessID()
	accessToken, err := s.mint(customer, accessID)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.session.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store refresh token")
	}
	return &AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Customer:     FromModel(customer),
	}, nil
}

func (s *service) mint(customer *models.Customer, accessID string) (string, error) {
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, time.Now().UTC(), pkgAuth.AccessTokenPayload{
		CustomerID: customer.ID,
		Email:      customer.Email,
		Locale:     customer.Locale,
		JTI:        accessID,
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return token, nil
}

func (s *service) storePassword(ctx context.Context, customerID uuid.UUID, password string) error {
	hash, err := security.HashPassword(password, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.repo.Update(ctx, customerID, map[string]any{
		"password_hash":    hash,
		"password_pending": false,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update password")
	}
	return nil
}

func (s *service) loadCustomer(ctx context.Context, customerID uuid.UUID) (*models.Customer, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}
	customer, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	return customer, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func newResetToken() (string, string, error) {
	raw := make([]byte, resetTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", "", err
	}
	token := base64.RawURLEncoding.EncodeToString(raw)
	return token, hashResetToken(token), nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(token)))
	return hex.EncodeToString(sum[:])
}
