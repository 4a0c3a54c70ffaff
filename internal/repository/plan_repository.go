package repository

import (
	"lingua_edu_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PlanRepository struct {
	DB *gorm.DB
}

func NewPlanRepository(db *gorm.DB) *PlanRepository {
	return &PlanRepository{DB: db}
}

func (r *PlanRepository) Create(plan *model.Plan) error {
	return r.DB.Create(plan).Error
}

func (r *PlanRepository) FindByID(id string) (*model.Plan, error) {
	var plan model.Plan
	err := r.DB.First(&plan, "id = ?", id).Error
	return &plan, err
}

func (r *PlanRepository) FindByStudent(studentID uint) ([]model.Plan, error) {
	var plans []model.Plan
	err := r.DB.Where("student_id = ?", studentID).Order("created_at DESC").Find(&plans).Error
	return plans, err
}

func (r *PlanRepository) Save(plan *model.Plan) error {
	return r.DB.Save(plan).Error
}

// UpdateLocked 对单个计划做原子读-改-写：行锁 + 事务，
// 防止同一学员并发提交时读到过期状态
func (r *PlanRepository) UpdateLocked(planID string, fn func(tx *gorm.DB, plan *model.Plan) error) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		var plan model.Plan
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&plan, "id = ?", planID).Error; err != nil {
			return err
		}
		if err := fn(tx, &plan); err != nil {
			return err
		}
		return tx.Save(&plan).Error
	})
}
