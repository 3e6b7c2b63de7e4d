package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/farellandr/eventboard/internal/models"
)

const (
	minPasswordLength = 6
	maxPasswordLength = 72
	maxNameLength     = 255
)

var validate = validator.New()

type NewUser struct {
	Name     string
	Email    string
	Password string
}

// UserUpdate is a partial update. Nil fields are left unchanged.
type UserUpdate struct {
	Name     *string
	Email    *string
	Password *string
}

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) CreateUser(ctx context.Context, in NewUser) (*models.User, error) {
	const op = "services.UserService.CreateUser"

	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)

	var problems []string
	problems = append(problems, validateName(in.Name)...)
	problems = append(problems, validateEmail(in.Email)...)
	problems = append(problems, validatePassword(in.Password)...)
	if len(problems) > 0 {
		return nil, newValidationError(problems...)
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user := models.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &user, nil
}

// UpdateUser applies a partial update. The password is rehashed only when
// the update carries a new one.
func (s *UserService) UpdateUser(ctx context.Context, id uint, in UserUpdate) (*models.User, error) {
	const op = "services.UserService.UpdateUser"

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	var problems []string

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		problems = append(problems, validateName(name)...)
		updates["name"] = name
	}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		problems = append(problems, validateEmail(email)...)
		updates["email"] = email
	}
	if in.Password != nil {
		problems = append(problems, validatePassword(*in.Password)...)
	}
	if len(problems) > 0 {
		return nil, newValidationError(problems...)
	}
	if in.Password != nil {
		hash, err := hashPassword(*in.Password)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		updates["password_hash"] = hash
	}
	if len(updates) == 0 {
		return user, nil
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.Get(ctx, id)
}

// Login returns the user owning email if password matches. Unknown emails
// and wrong passwords are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, error) {
	const op = "services.UserService.Login"

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &user, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	const op = "services.UserService.Get"

	var user models.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &user, nil
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	const op = "services.UserService.List"

	users := []models.User{}
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateName(name string) []string {
	if name == "" {
		return []string{"Name is required."}
	}
	if len([]rune(name)) > maxNameLength {
		return []string{fmt.Sprintf("Name must be at most %d characters.", maxNameLength)}
	}
	return nil
}

func validateEmail(email string) []string {
	if email == "" {
		return []string{"Email is required."}
	}
	if err := validate.Var(email, "email"); err != nil {
		return []string{"Email must be a valid email address."}
	}
	return nil
}

func validatePassword(password string) []string {
	if len(password) < minPasswordLength {
		return []string{fmt.Sprintf("Password must be at least %d characters.", minPasswordLength)}
	}
	if len(password) > maxPasswordLength {
		return []string{fmt.Sprintf("Password must be at most %d bytes.", maxPasswordLength)}
	}
	return nil
}
