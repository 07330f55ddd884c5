package usecases

import (
	"fmt"
	"proyecto_reservas/internal/entities"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const adminTokenTTL = 24 * time.Hour

type AuthUsecase struct {
	admins    map[string]entities.AdminUser
	jwtSecret []byte
	now       func() time.Time
}

// NewAuthUsecase accepts the operators allowed to log in. Users without a
// password hash are ignored.
func NewAuthUsecase(secret string, admins ...entities.AdminUser) *AuthUsecase {
	uc := &AuthUsecase{
		admins:    make(map[string]entities.AdminUser),
		jwtSecret: []byte(secret),
		now:       time.Now,
	}
	for _, a := range admins {
		if a.Username == "" || a.PasswordHash == "" {
			continue
		}
		if a.Role == "" {
			a.Role = "admin"
		}
		uc.admins[a.Username] = a
	}
	return uc
}

// Enabled reports whether anyone can log in.
func (uc *AuthUsecase) Enabled() bool {
	return len(uc.admins) > 0 && len(uc.jwtSecret) > 0
}

func (uc *AuthUsecase) Login(username, password string) (string, error) {
	if !uc.Enabled() {
		return "", entities.ErrInvalidLogin
	}
	user, ok := uc.admins[username]
	if !ok {
		return "", entities.ErrInvalidLogin
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", entities.ErrInvalidLogin
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.Username,
		"role": user.Role,
		"exp":  uc.now().Add(adminTokenTTL).Unix(),
	})

	tokenString, err := token.SignedString(uc.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// HashPassword produces the bcrypt hash stored in ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", &entities.ValidationError{Field: "password", Reason: "must not be empty"}
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
