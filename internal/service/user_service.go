// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"errors"
	"time"

	"github.com/vaahiiid/askimateplatform/internal/model"
	"github.com/vaahiiid/askimateplatform/internal/repository"
	"github.com/vaahiiid/askimateplatform/pkg/database"
	"github.com/vaahiiid/askimateplatform/pkg/hash"
	"github.com/vaahiiid/askimateplatform/pkg/token"
	"gorm.io/gorm"
)

// UserService 接口定义了所有与用户相关的业务操作。
type UserService interface {
	Register(username, email, password string) (*model.User, error)
	Login(username, password string) (accessToken, refreshToken string, err error)
	GetProfile(username string) (*model.User, error)
	Logout(tokenString string) error
	RefreshToken(refreshTokenString string) (newAccessToken, newRefreshToken string, err error)
}

// userService 是 UserService 接口的实现。
type userService struct {
	userRepo   repository.UserRepository
	jwtManager *token.JWTManager
}

// NewUserService 创建一个新的 UserService 实例。
func NewUserService(userRepo repository.UserRepository, jwtManager *token.JWTManager) UserService {
	return &userService{
		userRepo:   userRepo,
		jwtManager: jwtManager,
	}
}

// Register 处理用户注册的业务逻辑。
func (s *userService) Register(username, email, password string) (*model.User, error) {
	// 1. 检查用户名是否已存在
	_, err := s.userRepo.FindByUsername(username)
	if err == nil {
		return nil, errors.New("用户名已存在")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 2. 检查邮箱是否已被注册
	_, err = s.userRepo.FindByEmail(email)
	if err == nil {
		return nil, errors.New("邮箱已被注册")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 3. 对密码进行哈希处理
	hashedPassword, err := hash.HashPassword(password)
	if err != nil {
		return nil, err
	}

	// 4. 创建新用户
	newUser := &model.User{
		Username: username,
		Email:    email,
		Password: hashedPassword,
		Role:     "USER", // 默认角色
	}
	if err := s.userRepo.Create(newUser); err != nil {
		return nil, err
	}

	return newUser, nil
}

// Login 处理用户登录的业务逻辑。
func (s *userService) Login(username, password string) (accessToken, refreshToken string, err error) {
	// 1. 查找用户
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", errors.New("invalid credentials")
		}
		return "", "", err
	}

	// 2. 验证密码
	if !hash.CheckPasswordHash(password, user.Password) {
		return "", "", errors.New("invalid credentials")
	}

	// 3. 生成 access token 和 refresh token
	accessToken, err = s.jwtManager.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		return "", "", err
	}
	refreshToken, err = s.jwtManager.GenerateRefreshToken(user.ID, user.Username, user.Role)
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

// GetProfile 根据用户名获取用户详细信息。
func (s *userService) GetProfile(username string) (*model.User, error) {
	return s.userRepo.FindByUsername(username)
}

// Logout 处理用户登出逻辑，将 token 加入 Redis 黑名单。
// token 的剩余有效期将作为黑名单条目的过期时间。
func (s *userService) Logout(tokenString string) error {
	claims, err := s.jwtManager.VerifyToken(tokenString)
	if err != nil {
		return err
	}
	expiration := time.Until(claims.ExpiresAt.Time)
	if expiration <= 0 {
		return nil // 已过期的 token 无需入黑名单
	}
	return database.RDB.Set(context.Background(), "blacklist:"+tokenString, "true", expiration).Err()
}

// RefreshToken 用有效的 refresh token 换发新的 access/refresh token。
func (s *userService) RefreshToken(refreshTokenString string) (newAccessToken, newRefreshToken string, err error) {
	claims, err := s.jwtManager.VerifyToken(refreshTokenString)
	if err != nil {
		return "", "", errors.New("无效或已过期的 refresh token")
	}

	// 确认用户仍然存在
	user, err := s.userRepo.FindByUsername(claims.Username)
	if err != nil {
		return "", "", errors.New("用户不存在")
	}

	newAccessToken, err = s.jwtManager.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		return "", "", err
	}
	newRefreshToken, err = s.jwtManager.GenerateRefreshToken(user.ID, user.Username, user.Role)
	if err != nil {
		return "", "", err
	}
	return newAccessToken, newRefreshToken, nil
}
