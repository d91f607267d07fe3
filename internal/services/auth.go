package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/launchdeck/launchdeck/backend/internal/config"
	"github.com/launchdeck/launchdeck/backend/internal/models"
	"github.com/launchdeck/launchdeck/backend/internal/utils"
	"github.com/launchdeck/launchdeck/backend/pkg/response"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = response.NewUnauthorized("invalid email or password")
	ErrUserDisabled       = response.NewForbidden("user is disabled")
	ErrEmailTaken         = response.NewConflict("email is already registered")
	ErrInvalidRefresh     = response.NewUnauthorized("invalid refresh token")
)

type AuthService struct {
	db          *gorm.DB
	ldapService *LDAPService
	jwtConfig   *config.JWTConfig
	views       *ViewCache
}

func NewAuthService(db *gorm.DB, jwtCfg *config.JWTConfig, ldapCfg *config.LDAPConfig, views *ViewCache) *AuthService {
	return &AuthService{
		db:          db,
		ldapService: NewLDAPService(ldapCfg),
		jwtConfig:   jwtCfg,
		views:       views,
	}
}

type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8,max=72"`
	DisplayName string `json:"display_name" binding:"max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	AuthType string `json:"auth_type"` // local, ldap
}

type LoginResult struct {
	AccessToken     string       `json:"access_token"`
	AccessExpireAt  time.Time    `json:"access_expire_at"`
	RefreshToken    string       `json:"refresh_token"`
	RefreshExpireAt time.Time    `json:"refresh_expire_at"`
	User            *models.User `json:"user,omitempty"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a local account and signs it in.
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest, clientIP, userAgent string) (*LoginResult, error) {
	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Email:       normalizeEmail(req.Email),
		Password:    hashed,
		DisplayName: strings.TrimSpace(req.DisplayName),
		AuthType:    "local",
		IsActive:    true,
	}
	if user.DisplayName == "" {
		user.DisplayName = strings.SplitN(user.Email, "@", 2)[0]
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return s.issue(ctx, user, clientIP, userAgent)
}

// Login authenticates a user and returns an access/refresh token pair.
func (s *AuthService) Login(ctx context.Context, req *LoginRequest, clientIP, userAgent string) (*LoginResult, error) {
	var user *models.User
	var err error

	if req.AuthType == "" {
		req.AuthType = "local"
	}

	switch req.AuthType {
	case "local":
		user, err = s.localAuth(ctx, req.Email, req.Password)
	case "ldap":
		user, err = s.ldapAuth(ctx, req.Email, req.Password)
	default:
		return nil, response.NewBadRequest("invalid auth type")
	}
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user.LastLogin = &now
	if err := s.db.WithContext(ctx).Model(user).Update("last_login", now).Error; err != nil {
		return nil, err
	}
	return s.issue(ctx, user, clientIP, userAgent)
}

func (s *AuthService) issue(ctx context.Context, user *models.User, clientIP, userAgent string) (*LoginResult, error) {
	accessHours := s.accessHours()
	token, err := utils.GenerateToken(user.ID, user.Email, accessHours)
	if err != nil {
		return nil, err
	}

	refreshToken, refreshHash, err := generateRefreshToken()
	if err != nil {
		return nil, err
	}

	refreshExpireAt := time.Now().Add(time.Duration(s.refreshHours()) * time.Hour)
	record := models.RefreshToken{
		UserID:      user.ID,
		TokenHash:   refreshHash,
		ExpiresAt:   refreshExpireAt,
		CreatedByIP: clientIP,
		UserAgent:   userAgent,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:     token,
		AccessExpireAt:  time.Now().Add(time.Duration(accessHours) * time.Hour),
		RefreshToken:    refreshToken,
		RefreshExpireAt: refreshExpireAt,
		User:            user,
	}, nil
}

// Refresh rotates a refresh token. The presented token is revoked.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, clientIP, userAgent string) (*LoginResult, error) {
	if refreshToken == "" {
		return nil, response.NewBadRequest("refresh token required")
	}

	var stored models.RefreshToken
	if err := s.db.WithContext(ctx).Where("token_hash = ?", hashRefreshToken(refreshToken)).First(&stored).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefresh
		}
		return nil, err
	}
	if stored.RevokedAt != nil {
		return nil, response.NewUnauthorized("refresh token revoked")
	}
	if time.Now().After(stored.ExpiresAt) {
		return nil, response.NewUnauthorized("refresh token expired")
	}

	user, err := s.GetUserByID(ctx, stored.UserID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserDisabled
	}

	var result *LoginResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txSvc := &AuthService{db: tx, jwtConfig: s.jwtConfig}
		issued, err := txSvc.issue(ctx, user, clientIP, userAgent)
		if err != nil {
			return err
		}
		var created models.RefreshToken
		if err := tx.Where("token_hash = ?", hashRefreshToken(issued.RefreshToken)).First(&created).Error; err != nil {
			return err
		}
		result = issued
		return tx.Model(&stored).Updates(map[string]interface{}{
			"revoked_at":           time.Now(),
			"replaced_by_token_id": created.ID,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	result.User = nil
	return result, nil
}

func (s *AuthService) RevokeRefreshToken(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ? AND revoked_at IS NULL", hashRefreshToken(refreshToken)).
		Update("revoked_at", time.Now()).Error
}

func (s *AuthService) accessHours() int {
	if s.jwtConfig == nil || s.jwtConfig.ExpireHour <= 0 {
		return 24
	}
	return s.jwtConfig.ExpireHour
}

func (s *AuthService) refreshHours() int {
	if s.jwtConfig == nil || s.jwtConfig.RefreshExpireHour <= 0 {
		return 720
	}
	return s.jwtConfig.RefreshExpireHour
}

func generateRefreshToken() (token string, tokenHash string, err error) {
	randomBytes := make([]byte, 32)
	if _, err = rand.Read(randomBytes); err != nil {
		return "", "", err
	}
	token = hex.EncodeToString(randomBytes)
	return token, hashRefreshToken(token), nil
}

func hashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (s *AuthService) localAuth(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ? AND auth_type = ?", normalizeEmail(email), "local").First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserDisabled
	}
	if !utils.CheckPassword(password, user.Password) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

func (s *AuthService) ldapAuth(ctx context.Context, username, password string) (*models.User, error) {
	ldapUser, err := s.ldapService.Authenticate(username, password)
	if err != nil {
		return nil, response.NewUnauthorized(err.Error())
	}
	if ldapUser.Email == "" {
		return nil, response.NewUnauthorized("LDAP entry has no mail attribute")
	}

	var user models.User
	err = s.db.WithContext(ctx).Where("email = ?", normalizeEmail(ldapUser.Email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{
			Email:       normalizeEmail(ldapUser.Email),
			DisplayName: ldapUser.Nickname,
			AuthType:    "ldap",
			IsActive:    true,
		}
		if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	if user.AuthType != "ldap" {
		return nil, response.NewConflict("email belongs to a local account")
	}
	if !user.IsActive {
		return nil, ErrUserDisabled
	}
	if ldapUser.Nickname != "" && ldapUser.Nickname != user.DisplayName {
		user.DisplayName = ldapUser.Nickname
		s.db.WithContext(ctx).Model(&user).Update("display_name", user.DisplayName)
	}
	return &user, nil
}

func (s *AuthService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("user not found")
		}
		return nil, err
	}
	return &user, nil
}

func (s *AuthService) IsLDAPEnabled() bool {
	return s.ldapService.IsEnabled()
}

type ProfileRequest struct {
	DisplayName *string `json:"display_name" binding:"omitempty,max=100"`
	Bio         *string `json:"bio"`
	AvatarURL   *string `json:"avatar_url" binding:"omitempty,max=500"`
	Country     *string `json:"country" binding:"omitempty,max=100"`
	City        *string `json:"city" binding:"omitempty,max=100"`
	WebsiteURL  *string `json:"website_url" binding:"omitempty,max=500"`
}

// UpdateProfile edits the caller's public profile.
func (s *AuthService) UpdateProfile(ctx context.Context, session *Session, req *ProfileRequest) (*models.User, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	user, err := s.GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	set := func(col string, v *string) {
		if v != nil {
			updates[col] = strings.TrimSpace(*v)
		}
	}
	set("display_name", req.DisplayName)
	set("bio", req.Bio)
	set("avatar_url", req.AvatarURL)
	set("country", req.Country)
	set("city", req.City)
	set("website_url", req.WebsiteURL)
	if len(updates) == 0 {
		return user, nil
	}
	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, err
	}
	s.views.RevalidateProfile(user.ID)
	return s.GetUserByID(ctx, user.ID)
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=72"`
}

func (s *AuthService) ChangePassword(ctx context.Context, session *Session, req *ChangePasswordRequest) error {
	if err := requireSession(session); err != nil {
		return err
	}
	user, err := s.GetUserByID(ctx, session.UserID)
	if err != nil {
		return err
	}
	if user.AuthType != "local" {
		return response.NewBadRequest("LDAP users cannot change password here")
	}
	if !utils.CheckPassword(req.OldPassword, user.Password) {
		return response.NewBadRequest("incorrect old password")
	}

	hashed, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(user).Update("password", hashed).Error; err != nil {
			return err
		}
		return tx.Model(&models.RefreshToken{}).
			Where("user_id = ? AND revoked_at IS NULL", user.ID).
			Update("revoked_at", time.Now()).Error
	})
}
