package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/DroppedLink/feedback/internal/config"
	"github.com/DroppedLink/feedback/internal/middleware"
	"github.com/DroppedLink/feedback/internal/model"
	"github.com/DroppedLink/feedback/internal/pkg/database"
	"github.com/DroppedLink/feedback/internal/pkg/logger"
)

var Auth = new(AuthService)

type AuthService struct{}

var errBadCredentials = Unauthorized("Invalid username or password.")

func (s *AuthService) Login(username, password string) (string, *model.User, error) {
	var user model.User
	if err := database.DB.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, errBadCredentials
		}
		return "", nil, storageFailed("Login failed.", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, errBadCredentials
	}

	// 使用中间件中的 GenerateToken 函数
	token, err := middleware.GenerateToken(user.ID)
	if err != nil {
		return "", nil, storageFailed("Login failed.", err)
	}

	return token, &user, nil
}

func (s *AuthService) Register(username, password, nickname, email string) (*model.User, error) {
	// 检查用户名是否已存在
	var count int64
	if err := database.DB.Unscoped().Model(&model.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, storageFailed("Registration failed.", err)
	}
	if count > 0 {
		return nil, Conflict("Username already exists.")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, storageFailed("Registration failed.", err)
	}

	user := &model.User{
		Username: username,
		Password: string(hashedPassword),
		Nickname: nickname,
		Email:    email,
	}

	if err := database.DB.Create(user).Error; err != nil {
		return nil, storageFailed("Registration failed.", err)
	}

	return user, nil
}

// LoginAttempt 后台登录请求及其来源
type LoginAttempt struct {
	Username  string
	Password  string
	IP        string
	UserAgent string
}

// AdminLogin 后台登录，无论成功与否都写入登录日志
func (s *AuthService) AdminLogin(ctx context.Context, attempt LoginAttempt) (string, *model.User, error) {
	loginLog := model.AdminLoginLog{
		Username:  attempt.Username,
		IP:        attempt.IP,
		UserAgent: attempt.UserAgent,
		LoginTime: time.Now(),
	}
	record := func(reason string) {
		loginLog.IsSuccess = reason == ""
		loginLog.FailReason = reason
		if err := database.DB.WithContext(ctx).Create(&loginLog).Error; err != nil {
			logger.Errorf("写入登录日志失败: %v", err)
		}
	}

	token, user, err := s.Login(attempt.Username, attempt.Password)
	if err != nil {
		record(err.Error())
		return "", nil, err
	}
	if !user.IsAdmin {
		record("not an administrator")
		return "", nil, Forbidden("Insufficient permissions.")
	}

	record("")
	return token, user, nil
}

// LoginLogQuery 登录日志筛选条件
type LoginLogQuery struct {
	Username string
	Status   string // success 或 fail
	Start    *time.Time
	End      *time.Time
	Page     int
	Size     int
}

func (s *AuthService) LoginLogs(ctx context.Context, q LoginLogQuery) ([]model.AdminLoginLog, int64, error) {
	db := database.DB.WithContext(ctx).Model(&model.AdminLoginLog{})
	if q.Username != "" {
		db = db.Where("username LIKE ? ESCAPE '!'", "%"+escapeLike(q.Username)+"%")
	}
	switch q.Status {
	case "success":
		db = db.Where("is_success = ?", true)
	case "fail":
		db = db.Where("is_success = ?", false)
	}
	if q.Start != nil {
		db = db.Where("login_time >= ?", *q.Start)
	}
	if q.End != nil {
		db = db.Where("login_time <= ?", *q.End)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, storageFailed("Failed to load login logs.", err)
	}

	var logs []model.AdminLoginLog
	if err := db.Order("login_time DESC").
		Offset((q.Page - 1) * q.Size).
		Limit(q.Size).
		Find(&logs).Error; err != nil {
		return nil, 0, storageFailed("Failed to load login logs.", err)
	}
	return logs, total, nil
}

// EnsureDefaultAdmin 检查并在缺失时创建默认管理员账号
func (s *AuthService) EnsureDefaultAdmin() error {
	cfg := config.GlobalConfig.Admin

	var user model.User
	err := database.DB.Where("username = ?", cfg.Username).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("查询管理员账号失败: %w", err)
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		if _, err := s.CreateAdmin(cfg.Username, cfg.Password); err != nil {
			return err
		}
		logger.Infof("默认管理员账号已创建，用户名: %s", cfg.Username)
		return nil
	}

	// 如果存在但未标记为管理员，进行修正
	if !user.IsAdmin {
		if updateErr := database.DB.Model(&model.User{}).
			Where("id = ?", user.ID).
			Update("is_admin", true).Error; updateErr != nil {
			return fmt.Errorf("更新管理员标识失败: %w", updateErr)
		}
		logger.Infof("账号 %s 已标记为管理员", user.Username)
	}

	return nil
}

// CreateAdmin 创建管理员账号
func (s *AuthService) CreateAdmin(username, password string) (*model.User, error) {
	if username == "" || password == "" {
		return nil, errors.New("用户名或密码不能为空")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("生成管理员密码失败: %w", err)
	}

	admin := &model.User{
		Username: username,
		Password: string(hashedPassword),
		Nickname: "Administrator",
		IsAdmin:  true,
	}
	if err := database.DB.Create(admin).Error; err != nil {
		return nil, fmt.Errorf("创建管理员账号失败: %w", err)
	}
	return admin, nil
}

// ResetPassword 通过用户名重置密码
func (s *AuthService) ResetPassword(username, password string) error {
	if username == "" || password == "" {
		return errors.New("用户名或密码不能为空")
	}

	var user model.User
	if err := database.DB.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("用户不存在: %s", username)
		}
		return fmt.Errorf("查询用户失败: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("加密密码失败: %w", err)
	}

	if err := database.DB.Model(&model.User{}).
		Where("id = ?", user.ID).
		Update("password", string(hashedPassword)).Error; err != nil {
		return fmt.Errorf("更新密码失败: %w", err)
	}

	logger.Infof("用户 %s 的密码已被重置", username)
	return nil
}
