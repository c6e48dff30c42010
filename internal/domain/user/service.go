package user

import (
	"context"
	"errors"
	"regexp"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

// Service 用户领域服务接口
type Service interface {
	// Register 注册新用户
	Register(ctx context.Context, in RegisterInput) (*User, error)

	// Authenticate 用户名+密码登录
	Authenticate(ctx context.Context, username, password string) (*User, error)

	// SetStaff 设置/取消管理员
	SetStaff(ctx context.Context, username string, staff bool) (*User, error)
}

// RegisterInput 注册参数
type RegisterInput struct {
	Username  string
	Password  string
	Email     string
	FirstName string
	LastName  string
	IsStaff   bool // 只有命令行创建用户时可以为true
}

type service struct {
	repo       Repository
	bcryptCost int
}

// NewService 创建用户服务
func NewService(repo Repository) Service {
	return &service{repo: repo, bcryptCost: bcrypt.DefaultCost}
}

// NewServiceWithCost 指定bcrypt cost（测试用较低的cost加快速度）
func NewServiceWithCost(repo Repository, cost int) Service {
	return &service{repo: repo, bcryptCost: cost}
}

// usernamePattern 字母、数字和 @ . + - _，最长150
var usernamePattern = regexp.MustCompile(`^[\w.@+-]{1,150}$`)

// Register 业务流程:
// 1. 校验用户名格式和密码强度
// 2. bcrypt加密密码
// 3. 保存（用户名唯一由数据库唯一索引保证）
func (s *service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	fields := map[string][]string{}
	if !usernamePattern.MatchString(in.Username) {
		fields["username"] = []string{"Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."}
	}
	if err := validatePasswordStrength(in.Password); err != nil {
		fields["password"] = []string{err.Error()}
	}
	if len(fields) > 0 {
		return nil, apperrors.Validation(fields)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, apperrors.Wrap(err, "密码加密失败")
	}

	u := NewUser(in.Username, in.Email, string(hashed), in.FirstName, in.LastName)
	u.IsStaff = in.IsStaff
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate 用户不存在和密码错误返回同一个错误，不暴露用户名是否存在
func (s *service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	u, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, apperrors.ErrInvalidPassword
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, apperrors.ErrInvalidPassword
		}
		return nil, apperrors.Wrap(err, "密码验证失败")
	}
	return u, nil
}

func (s *service) SetStaff(ctx context.Context, username string, staff bool) (*User, error) {
	u, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	u.PromoteToStaff(staff)
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

var (
	hasLetter = regexp.MustCompile(`[a-zA-Z]`)
	hasDigit  = regexp.MustCompile(`[0-9]`)
)

// validatePasswordStrength 8-64位，至少包含字母和数字
func validatePasswordStrength(password string) error {
	if len(password) < 8 || len(password) > 64 || !hasLetter.MatchString(password) || !hasDigit.MatchString(password) {
		return errors.New(apperrors.ErrWeakPassword.Message)
	}
	return nil
}
