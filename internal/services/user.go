package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tourboard/internal/models"
	"tourboard/internal/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type RegisterInput struct {
	Username string
	Password string
	Nickname string
	Email    string
}

type ProfileInput struct {
	Nickname string
	Email    string
}

type UserService struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewUserService(db *gorm.DB, log *zap.Logger) *UserService {
	return &UserService{db: db, log: log}
}

// Register 新用户角色固定为 user，用户名重复返回 ErrConflict
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	if len(username) < 3 || len(username) > 50 {
		return nil, fmt.Errorf("username must be 3-50 characters: %w", ErrValidation)
	}
	if len(in.Password) < 6 {
		return nil, fmt.Errorf("password must be at least 6 characters: %w", ErrValidation)
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", ErrInternal)
	}

	nickname := strings.TrimSpace(in.Nickname)
	if nickname == "" {
		nickname = username
	}
	user := models.User{
		Username: username,
		Password: hash,
		Nickname: nickname,
		Email:    strings.TrimSpace(in.Email),
		Role:     models.RoleUser,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, wrapStoreErr(fmt.Sprintf("register %q", username), err)
	}
	s.log.Info("user registered", zap.Uint("user_id", user.ID), zap.String("username", username))
	return &user, nil
}

// Authenticate 用户名或密码错误统一返回 ErrValidation
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("invalid username or password: %w", ErrValidation)
	}
	if err != nil {
		return nil, wrapStoreErr("login", err)
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, fmt.Errorf("invalid username or password: %w", ErrValidation)
	}
	return &user, nil
}

func (s *UserService) Get(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Take(&user, userID).Error; err != nil {
		return nil, wrapStoreErr(fmt.Sprintf("user %d", userID), err)
	}
	return &user, nil
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).Take(&user).Error
	if err != nil {
		return nil, wrapStoreErr(fmt.Sprintf("user %q", username), err)
	}
	return &user, nil
}

// UpdateProfile 只能修改自己的昵称和邮箱
func (s *UserService) UpdateProfile(ctx context.Context, userID, actorID uint, in ProfileInput) (*models.User, error) {
	if userID != actorID {
		return nil, fmt.Errorf("user %d cannot edit user %d: %w", actorID, userID, ErrForbidden)
	}
	nickname := strings.TrimSpace(in.Nickname)
	if nickname == "" {
		return nil, fmt.Errorf("nickname is empty: %w", ErrValidation)
	}
	if len([]rune(nickname)) > 50 {
		return nil, fmt.Errorf("nickname is longer than 50 characters: %w", ErrValidation)
	}

	db := s.db.WithContext(ctx)
	var user models.User
	if err := db.Take(&user, userID).Error; err != nil {
		return nil, wrapStoreErr(fmt.Sprintf("user %d", userID), err)
	}

	user.Nickname = nickname
	user.Email = strings.TrimSpace(in.Email)
	if err := db.Model(&user).Select("nickname", "email", "updated_at").Updates(&user).Error; err != nil {
		return nil, wrapStoreErr("update profile", err)
	}
	s.log.Info("profile updated", zap.Uint("user_id", userID))
	return &user, nil
}
