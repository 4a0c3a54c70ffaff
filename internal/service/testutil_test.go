package service

import (
	"testing"
	"time"

	"lingua_edu_backend/internal/model"
	"lingua_edu_backend/internal/repository"
	"lingua_edu_backend/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	logger.Log = zap.NewNop()
}

// newTestDB 内存 SQLite。SQLite 不认 FOR UPDATE，
// 把锁子句替换成空实现，锁语义本身由 MySQL 集成环境覆盖。
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	db.ClauseBuilders[clause.Locking{}.Name()] = func(c clause.Clause, builder clause.Builder) {}

	if err := db.AutoMigrate(
		&model.Plan{},
		&model.Gamification{},
		&model.VocabularyItem{},
		&model.StructureItem{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func newTestRepos(t *testing.T, db *gorm.DB, rdb *redis.Client) (*repository.PlanRepository, *repository.VocabularyRepository, *repository.StructureRepository, *repository.SessionStateRepository) {
	t.Helper()
	return repository.NewPlanRepository(db),
		repository.NewVocabularyRepository(db, 10),
		repository.NewStructureRepository(db, 10),
		repository.NewSessionStateRepository(rdb, time.Hour)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func mustCreate(t *testing.T, db *gorm.DB, value interface{}) {
	t.Helper()
	if err := db.Create(value).Error; err != nil {
		t.Fatalf("create %T: %v", value, err)
	}
}

func seedVocab(t *testing.T, db *gorm.DB, id, word, translation, example string) {
	t.Helper()
	mustCreate(t, db, &model.VocabularyItem{
		UUIDBase:    model.UUIDBase{ID: id},
		Word:        word,
		Translation: translation,
		Example:     example,
		Language:    "es",
	})
}

func seedStructure(t *testing.T, db *gorm.DB, id, pattern, explanation, example string) {
	t.Helper()
	mustCreate(t, db, &model.StructureItem{
		UUIDBase:    model.UUIDBase{ID: id},
		Pattern:     pattern,
		Explanation: explanation,
		Example:     example,
		Language:    "es",
	})
}

func reloadPlan(t *testing.T, db *gorm.DB, id string) *model.Plan {
	t.Helper()
	var plan model.Plan
	if err := db.First(&plan, "id = ?", id).Error; err != nil {
		t.Fatalf("reload plan: %v", err)
	}
	return &plan
}

func reloadGamification(t *testing.T, db *gorm.DB, studentID uint) *model.Gamification {
	t.Helper()
	var gam model.Gamification
	if err := db.First(&gam, "student_id = ?", studentID).Error; err != nil {
		t.Fatalf("reload gamification: %v", err)
	}
	return &gam
}
