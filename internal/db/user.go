package db

import (
	"github.com/pkg/errors"
	"github.com/semonara/semonara/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func GetUserByEmail(email string) (*model.User, error) {
	u := model.User{Email: email}
	if err := db.Where(&u).First(&u).Error; err != nil {
		return nil, errors.Wrap(err, "failed find user")
	}
	return &u, nil
}

// SetAuthCode stores a fresh one-time code for the user, creating the
// account on first login.
func SetAuthCode(email, code string, expiresAt int64) error {
	u := model.User{Email: email, AuthCode: code, CodeExpiresAt: expiresAt}
	return errors.WithStack(db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"auth_code", "code_expires_at", "updated_at"}),
	}).Create(&u).Error)
}

// VerifyAuthCode returns the user when the presented code matches and has
// not expired.
func VerifyAuthCode(email, code string, now int64) (*model.User, error) {
	var u model.User
	if err := db.Where("email = ? AND auth_code = ? AND code_expires_at > ?", email, code, now).
		First(&u).Error; err != nil {
		return nil, errors.Wrap(err, "failed verify auth code")
	}
	return &u, nil
}

// TouchLastLogin records a successful login and consumes the code.
func TouchLastLogin(email string, now int64) error {
	return errors.WithStack(db.Model(&model.User{}).Where("email = ?", email).
		Updates(map[string]interface{}{
			"last_login_at":  now,
			"login_attempts": 0,
			"auth_code":      "",
		}).Error)
}

func IncrementLoginAttempts(email string) error {
	return errors.WithStack(db.Model(&model.User{}).Where("email = ?", email).
		UpdateColumn("login_attempts", gorm.Expr("login_attempts + 1")).Error)
}

func BlockUser(email string, until int64) error {
	return errors.WithStack(db.Model(&model.User{}).Where("email = ?", email).
		Update("blocked_until", until).Error)
}

// IsUserBlocked reports whether the user is inside a lockout window.
func IsUserBlocked(email string, now int64) (bool, error) {
	var count int64
	err := db.Model(&model.User{}).
		Where("email = ? AND blocked_until > ?", email, now).
		Count(&count).Error
	return count > 0, errors.WithStack(err)
}
