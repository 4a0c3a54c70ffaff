package repository

import (
	"errors"

	"lingua_edu_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GamificationRepository struct {
	DB *gorm.DB
}

func NewGamificationRepository(db *gorm.DB) *GamificationRepository {
	return &GamificationRepository{DB: db}
}

func (r *GamificationRepository) FindByStudent(studentID uint) (*model.Gamification, error) {
	var rec model.Gamification
	err := r.DB.Where("student_id = ?", studentID).First(&rec).Error
	return &rec, err
}

func (r *GamificationRepository) Create(rec *model.Gamification) error {
	return r.DB.Create(rec).Error
}

// LockGamification 在事务内加行锁读取激励记录，不存在则建一条空记录。
// 必须在 tx 内调用，与计划行锁组成提交事务的原子单元。
func LockGamification(tx *gorm.DB, studentID uint) (*model.Gamification, error) {
	var rec model.Gamification
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("student_id = ?", studentID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		rec = model.Gamification{StudentID: studentID, Heatmap: map[string]int{}}
		if err := tx.Create(&rec).Error; err != nil {
			return nil, err
		}
		return &rec, nil
	}
	if err != nil {
		return nil, err
	}
	if rec.Heatmap == nil {
		rec.Heatmap = map[string]int{}
	}
	return &rec, nil
}
