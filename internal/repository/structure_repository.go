package repository

import (
	"lingua_edu_backend/internal/model"
	"lingua_edu_backend/pkg/logger"
	"lingua_edu_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StructureRepository 语法条目查询，分片规则与词汇仓库一致
type StructureRepository struct {
	DB           *gorm.DB
	MaxBatchSize int
}

func NewStructureRepository(db *gorm.DB, maxBatchSize int) *StructureRepository {
	return &StructureRepository{DB: db, MaxBatchSize: maxBatchSize}
}

func (r *StructureRepository) FindByIDs(ids []string) []model.StructureItem {
	items := make([]model.StructureItem, 0, len(ids))
	for _, chunk := range chunkIDs(ids, r.MaxBatchSize) {
		var batch []model.StructureItem
		if err := r.DB.Where("id IN ?", chunk).Find(&batch).Error; err != nil {
			logger.Log.Warn("structure batch fetch failed, skipping",
				zap.Int("batchSize", len(chunk)), zap.Error(err))
			monitoring.PartialFetchFailures.Inc()
			continue
		}
		items = append(items, batch...)
	}
	return items
}

func (r *StructureRepository) FindByID(id string) (*model.StructureItem, error) {
	var item model.StructureItem
	err := r.DB.First(&item, "id = ?", id).Error
	return &item, err
}

func (r *StructureRepository) BulkUpsert(items []model.StructureItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.DB.Clauses(clause.OnConflict{UpdateAll: true}).Create(&items).Error
}
