package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/bcrypt"
)

// Имя файла для хранения хеша пароля
const passwordFileName = "admin_password.hash"

// Стоимость хеширования bcrypt
var bcryptCost = 12

var (
	ErrPasswordTooShort = errors.New("password is too short (min 8 characters)")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrPasswordNotSet   = errors.New("admin password is not set")
)

// PasswordManager хранит bcrypt-хеш пароля администратора в файле
type PasswordManager struct {
	passwordFilePath string
}

func NewPasswordManager(dataDir string) *PasswordManager {
	return &PasswordManager{
		passwordFilePath: filepath.Join(dataDir, passwordFileName),
	}
}

// IsPasswordSet проверяет, установлен ли пароль администратора
func (pm *PasswordManager) IsPasswordSet() bool {
	_, err := os.Stat(pm.passwordFilePath)
	return err == nil
}

// SetPassword устанавливает новый пароль администратора
func (pm *PasswordManager) SetPassword(password string) error {
	if len(password) < 8 {
		return ErrPasswordTooShort
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(pm.passwordFilePath), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.WriteFile(pm.passwordFilePath, hashedPassword, 0600); err != nil {
		return fmt.Errorf("failed to write password hash: %w", err)
	}
	return nil
}

// VerifyPassword проверяет пароль администратора
func (pm *PasswordManager) VerifyPassword(password string) error {
	hashedPassword, err := os.ReadFile(pm.passwordFilePath)
	if errors.Is(err, os.ErrNotExist) {
		return ErrPasswordNotSet
	}
	if err != nil {
		return fmt.Errorf("failed to read password hash: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(hashedPassword, []byte(password)); err != nil {
		return ErrInvalidPassword
	}
	return nil
}
