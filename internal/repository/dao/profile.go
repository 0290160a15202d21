package dao

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileMatch is a profile with its cosine similarity to a query.
type ProfileMatch struct {
	LinkedInProfile
	Similarity float64 `gorm:"column:similarity"`
}

type ProfileDAO interface {
	FindByHandle(ctx context.Context, handle string) (LinkedInProfile, error)
	// Upsert inserts the profile or refreshes the row with the same handle.
	Upsert(ctx context.Context, p *LinkedInProfile) error
	// SearchSimilar returns profiles with positive cosine similarity to vec,
	// most similar first.
	SearchSimilar(ctx context.Context, vec Vector, limit int) ([]ProfileMatch, error)
}

type GORMProfileDAO struct {
	db *gorm.DB
}

func NewGORMProfileDAO(db *gorm.DB) ProfileDAO {
	return &GORMProfileDAO{db: db}
}

func (d *GORMProfileDAO) FindByHandle(ctx context.Context, handle string) (LinkedInProfile, error) {
	var p LinkedInProfile
	err := d.db.WithContext(ctx).First(&p, `"handle" = ?`, handle).Error
	return p, err
}

func (d *GORMProfileDAO) Upsert(ctx context.Context, p *LinkedInProfile) error {
	// RETURNING hands back the surviving row id on conflict.
	return d.db.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns: []clause.Column{{Name: "handle"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"data", "profileImageB64", "vector", "updatedAt", "expiresAt",
			}),
		},
		clause.Returning{Columns: []clause.Column{{Name: "id"}, {Name: "createdAt"}}},
	).Create(p).Error
}

func (d *GORMProfileDAO) SearchSimilar(ctx context.Context, vec Vector, limit int) ([]ProfileMatch, error) {
	literal, err := vec.Value()
	if err != nil {
		return nil, err
	}

	// pgvector's <=> is cosine distance; similarity = 1 - distance.
	similarity := clause.Expr{SQL: `1 - ("vector" <=> ?::vector)`, Vars: []any{literal}}

	var matches []ProfileMatch
	err = d.db.WithContext(ctx).
		Model(&LinkedInProfile{}).
		Select(`"linkedInProfile".*, ? AS similarity`, similarity).
		Where(`"vector" IS NOT NULL`).
		Where(`? > 0`, similarity).
		Order("similarity DESC").
		Limit(limit).
		Scan(&matches).Error
	return matches, err
}
