package dao

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type SessionDAO interface {
	// FindUserID returns the owner of an unexpired session token.
	FindUserID(ctx context.Context, token string, now time.Time) (string, error)
}

type GORMSessionDAO struct {
	db *gorm.DB
}

func NewGORMSessionDAO(db *gorm.DB) SessionDAO {
	return &GORMSessionDAO{db: db}
}

func (d *GORMSessionDAO) FindUserID(ctx context.Context, token string, now time.Time) (string, error) {
	var s Session
	err := d.db.WithContext(ctx).
		Where(`"sessionToken" = ? AND "expires" > ?`, token, now).
		First(&s).Error
	return s.UserID, err
}
