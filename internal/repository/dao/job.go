package dao

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = gorm.ErrRecordNotFound

type JobDAO interface {
	FindByID(ctx context.Context, id string) (JobPost, error)
	// FindWithChat loads the job, its chat and the chat's messages in
	// creation order.
	FindWithChat(ctx context.Context, id string) (JobPost, error)
	Create(ctx context.Context, job *JobPost) error
	// Update rewrites the editable fields of a job owned by ownerID.
	// ErrNotFound means no such job belongs to ownerID.
	Update(ctx context.Context, id, ownerID string, u JobUpdate) error
	// ListByOwner returns ownerID's jobs, newest first.
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]JobPost, error)
}

// JobUpdate carries the fields a job owner may change.
type JobUpdate struct {
	Title       string
	Description string
	Vector      Vector
	UpdatedAt   time.Time
}

type GORMJobDAO struct {
	db *gorm.DB
}

func NewGORMJobDAO(db *gorm.DB) JobDAO {
	return &GORMJobDAO{db: db}
}

func (d *GORMJobDAO) FindByID(ctx context.Context, id string) (JobPost, error) {
	var job JobPost
	err := d.db.WithContext(ctx).Omit("vector").First(&job, `"id" = ?`, id).Error
	return job, err
}

func (d *GORMJobDAO) FindWithChat(ctx context.Context, id string) (JobPost, error) {
	var job JobPost
	err := d.db.WithContext(ctx).
		Omit("vector").
		Preload("Chat").
		Preload("Chat.Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order(`"createdAt" ASC`)
		}).
		First(&job, `"id" = ?`, id).Error
	return job, err
}

func (d *GORMJobDAO) Create(ctx context.Context, job *JobPost) error {
	return d.db.WithContext(ctx).Create(job).Error
}

// ownedBy matches rows whose owner is ownerID. Older rows only set userId.
func ownedBy(db *gorm.DB, ownerID string) *gorm.DB {
	return db.Where(`"ownerId" = ? OR ("ownerId" = '' AND "userId" = ?)`, ownerID, ownerID)
}

func (d *GORMJobDAO) Update(ctx context.Context, id, ownerID string, u JobUpdate) error {
	res := d.db.WithContext(ctx).
		Model(&JobPost{}).
		Where(`"id" = ?`, id).
		Where(ownedBy(d.db, ownerID)).
		Updates(map[string]any{
			"title":       u.Title,
			"description": u.Description,
			"vector":      u.Vector,
			"updatedAt":   u.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *GORMJobDAO) ListByOwner(ctx context.Context, ownerID string, limit int) ([]JobPost, error) {
	var jobs []JobPost
	err := d.db.WithContext(ctx).
		Omit("vector").
		Where(ownedBy(d.db, ownerID)).
		Order(`"createdAt" DESC`).
		Limit(limit).
		Find(&jobs).Error
	return jobs, err
}
