package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/huangang/feedback360/internal/models"
	"gorm.io/gorm"
)

type gormRepository struct {
	db *gorm.DB
}

// NewGormRepository stores assessments in the assessments and
// feedback_submissions tables. Run models.AutoMigrate first.
func NewGormRepository(db *gorm.DB) AssessmentRepository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, a models.Assessment) error {
	rec := models.NewAssessmentRecord(a)
	for _, s := range a.Submissions {
		rec.Submissions = append(rec.Submissions, models.NewSubmissionRecord(a.ID, s))
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to create assessment %s: %w", a.ID, err)
	}
	return nil
}

func (r *gormRepository) Get(ctx context.Context, id string) (models.Assessment, error) {
	rec, err := loadRecord(r.db.WithContext(ctx), id)
	if err != nil {
		return models.Assessment{}, err
	}
	return rec.ToAssessment(), nil
}

func (r *gormRepository) ListAll(ctx context.Context) ([]models.Assessment, error) {
	var recs []models.AssessmentRecord
	err := r.db.WithContext(ctx).
		Preload("Submissions", orderByID).
		Order("created_at DESC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}

	out := make([]models.Assessment, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.ToAssessment())
	}
	return out, nil
}

func (r *gormRepository) AppendSubmission(ctx context.Context, id string, sub models.FeedbackSubmission) (models.Assessment, error) {
	return r.Update(ctx, id, func(a models.Assessment) (models.Assessment, error) {
		return applySubmission(a, sub)
	})
}

// Update runs mutate inside a transaction. Submissions added by mutate are
// inserted; existing submission rows are never rewritten.
func (r *gormRepository) Update(ctx context.Context, id string, mutate func(models.Assessment) (models.Assessment, error)) (models.Assessment, error) {
	var result models.Assessment

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := loadRecord(tx, id)
		if err != nil {
			return err
		}
		current := rec.ToAssessment()

		next, err := mutate(current.Clone())
		if err != nil {
			return err
		}
		next.ID = current.ID

		updated := models.NewAssessmentRecord(next)
		updated.CreatedAt = rec.CreatedAt
		if err := tx.Omit("Submissions").Save(&updated).Error; err != nil {
			return fmt.Errorf("failed to update assessment %s: %w", id, err)
		}

		for _, s := range next.Submissions[min(len(current.Submissions), len(next.Submissions)):] {
			row := models.NewSubmissionRecord(id, s)
			if err := tx.Create(&row).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return fmt.Errorf("%w: %s", models.ErrDuplicateSubmission, s.ReviewerEmail)
				}
				return fmt.Errorf("failed to store submission: %w", err)
			}
		}

		result = next
		return nil
	})
	if err != nil {
		return models.Assessment{}, err
	}
	return result, nil
}

func loadRecord(db *gorm.DB, id string) (models.AssessmentRecord, error) {
	var rec models.AssessmentRecord
	err := db.Preload("Submissions", orderByID).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return rec, fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}
	if err != nil {
		return rec, fmt.Errorf("failed to load assessment %s: %w", id, err)
	}
	return rec, nil
}

func orderByID(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}
