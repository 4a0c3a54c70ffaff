package repository

import (
	"lingua_edu_backend/internal/model"
	"lingua_edu_backend/pkg/logger"
	"lingua_edu_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VocabularyRepository 词汇条目的只读查询 + 流水线批量写入。
// MaxBatchSize 是单次按 id 批量查询的分片上限（存储接口限制）。
type VocabularyRepository struct {
	DB           *gorm.DB
	MaxBatchSize int
}

func NewVocabularyRepository(db *gorm.DB, maxBatchSize int) *VocabularyRepository {
	return &VocabularyRepository{DB: db, MaxBatchSize: maxBatchSize}
}

// FindByIDs 分片拉取词汇条目。单个分片失败只记录并跳过，
// 返回能取到的部分——残缺的练习好过没有练习。
func (r *VocabularyRepository) FindByIDs(ids []string) []model.VocabularyItem {
	items := make([]model.VocabularyItem, 0, len(ids))
	for _, chunk := range chunkIDs(ids, r.MaxBatchSize) {
		var batch []model.VocabularyItem
		if err := r.DB.Where("id IN ?", chunk).Find(&batch).Error; err != nil {
			logger.Log.Warn("vocabulary batch fetch failed, skipping",
				zap.Int("batchSize", len(chunk)), zap.Error(err))
			monitoring.PartialFetchFailures.Inc()
			continue
		}
		items = append(items, batch...)
	}
	return items
}

func (r *VocabularyRepository) FindByID(id string) (*model.VocabularyItem, error) {
	var item model.VocabularyItem
	err := r.DB.First(&item, "id = ?", id).Error
	return &item, err
}

// BulkUpsert 内容提取流水线的写入口：按 id 覆盖
func (r *VocabularyRepository) BulkUpsert(items []model.VocabularyItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.DB.Clauses(clause.OnConflict{UpdateAll: true}).Create(&items).Error
}

// chunkIDs 把 id 列表切成不超过 size 的分片
func chunkIDs(ids []string, size int) [][]string {
	if size <= 0 {
		size = 1
	}
	var chunks [][]string
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
