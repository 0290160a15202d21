package dao

import (
	"context"

	"gorm.io/gorm"
)

type ChatDAO interface {
	Create(ctx context.Context, chat *Chat) error
	// InsertMessage stores the message together with its tool calls.
	InsertMessage(ctx context.Context, msg *ChatMessage) error
	// DeleteByJob removes the job's chat; messages and tool calls cascade.
	DeleteByJob(ctx context.Context, jobID string) (int64, error)
}

type GORMChatDAO struct {
	db *gorm.DB
}

func NewGORMChatDAO(db *gorm.DB) ChatDAO {
	return &GORMChatDAO{db: db}
}

func (d *GORMChatDAO) Create(ctx context.Context, chat *Chat) error {
	return d.db.WithContext(ctx).Omit("Messages").Create(chat).Error
}

func (d *GORMChatDAO) InsertMessage(ctx context.Context, msg *ChatMessage) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		return tx.Model(&Chat{}).
			Where(`"id" = ?`, msg.ChatID).
			Update("updatedAt", msg.CreatedAt).Error
	})
}

func (d *GORMChatDAO) DeleteByJob(ctx context.Context, jobID string) (int64, error) {
	res := d.db.WithContext(ctx).Where(`"jobPostId" = ?`, jobID).Delete(&Chat{})
	return res.RowsAffected, res.Error
}
