package dao

import (
	"context"

	"gorm.io/gorm"
)

type CandidateDAO interface {
	Find(ctx context.Context, jobID, profileID string) (Candidate, error)
	Insert(ctx context.Context, c *Candidate) error
	ListByJob(ctx context.Context, jobID string) ([]Candidate, error)
}

type GORMCandidateDAO struct {
	db *gorm.DB
}

func NewGORMCandidateDAO(db *gorm.DB) CandidateDAO {
	return &GORMCandidateDAO{db: db}
}

func (d *GORMCandidateDAO) Find(ctx context.Context, jobID, profileID string) (Candidate, error) {
	var c Candidate
	err := d.db.WithContext(ctx).
		Where(`"jobPostId" = ? AND "linkedInProfileId" = ?`, jobID, profileID).
		First(&c).Error
	return c, err
}

func (d *GORMCandidateDAO) Insert(ctx context.Context, c *Candidate) error {
	return d.db.WithContext(ctx).Omit("LinkedInProfile").Create(c).Error
}

func (d *GORMCandidateDAO) ListByJob(ctx context.Context, jobID string) ([]Candidate, error) {
	var cs []Candidate
	err := d.db.WithContext(ctx).
		Preload("LinkedInProfile", func(db *gorm.DB) *gorm.DB {
			return db.Omit("vector", "profileImageB64")
		}).
		Where(`"jobPostId" = ?`, jobID).
		Order(`"matchScore" DESC NULLS LAST`).
		Find(&cs).Error
	return cs, err
}
