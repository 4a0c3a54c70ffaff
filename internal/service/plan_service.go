package service

import (
	"context"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"lingua_edu_backend/internal/model"
	"lingua_edu_backend/internal/repository"
	"lingua_edu_backend/internal/util"
	"lingua_edu_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PlanService 学习计划的管理面：开通计划、排课、
// 挂接课程音频，以及内容流水线的条目写入口。
type PlanService struct {
	PlanRepo         *repository.PlanRepository
	GamificationRepo *repository.GamificationRepository
	VocabRepo        *repository.VocabularyRepository
	StructureRepo    *repository.StructureRepository
	Storage          *StorageService
	DB               *gorm.DB
}

func NewPlanService(
	planRepo *repository.PlanRepository,
	gamificationRepo *repository.GamificationRepository,
	vocabRepo *repository.VocabularyRepository,
	structureRepo *repository.StructureRepository,
	storage *StorageService,
	db *gorm.DB,
) *PlanService {
	return &PlanService{
		PlanRepo:         planRepo,
		GamificationRepo: gamificationRepo,
		VocabRepo:        vocabRepo,
		StructureRepo:    structureRepo,
		Storage:          storage,
		DB:               db,
	}
}

// Enroll 为学员开通学习计划，同时建好空的激励记录
func (s *PlanService) Enroll(studentID uint) (*model.Plan, error) {
	plan := &model.Plan{
		StudentID: studentID,
		Status:    model.PlanActive,
		Lessons:   []model.LessonRef{},
		SRSMap:    map[string]model.MemoryRecord{},
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(plan).Error; err != nil {
			return err
		}
		var gam model.Gamification
		err := tx.Where("student_id = ?", studentID).First(&gam).Error
		if err == gorm.ErrRecordNotFound {
			return tx.Create(&model.Gamification{
				StudentID: studentID,
				Heatmap:   map[string]int{},
			}).Error
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *PlanService) GetPlan(planID string) (*model.Plan, error) {
	plan, err := s.PlanRepo.FindByID(planID)
	if err == gorm.ErrRecordNotFound {
		return nil, util.ErrPlanNotFound
	}
	return plan, err
}

// LessonRequest 排课请求，条目引用和测验/字幕由内容流水线提供
type LessonRequest struct {
	Title                string                    `json:"title" binding:"required"`
	ScheduledDate        time.Time                 `json:"scheduledDate" binding:"required"`
	LearningItemIDs      []string                  `json:"learningItemsIds"`
	LearningStructureIDs []string                  `json:"learningStructureIds"`
	Quiz                 *model.Quiz               `json:"quiz,omitempty"`
	TranscriptSegments   []model.TranscriptSegment `json:"transcriptSegments,omitempty"`
}

// AddLesson 往计划里追加一节课
func (s *PlanService) AddLesson(planID string, req LessonRequest) (*model.LessonRef, error) {
	lesson := model.LessonRef{
		ID:                   model.GenerateUUID(),
		Title:                req.Title,
		ScheduledDate:        req.ScheduledDate,
		LearningItemIDs:      req.LearningItemIDs,
		LearningStructureIDs: req.LearningStructureIDs,
		Quiz:                 req.Quiz,
		TranscriptSegments:   req.TranscriptSegments,
	}

	err := s.PlanRepo.UpdateLocked(planID, func(tx *gorm.DB, plan *model.Plan) error {
		if plan.Status != model.PlanActive {
			return util.ErrPlanNotActive
		}
		// 一天只排一节课
		for _, existing := range plan.Lessons {
			if sameCalendarDay(existing.ScheduledDate, lesson.ScheduledDate) {
				return util.ErrLessonAlreadyExist
			}
		}
		plan.Lessons = append(plan.Lessons, lesson)
		return nil
	})
	if err == gorm.ErrRecordNotFound {
		return nil, util.ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}

// AttachAudio 上传课程音频并写回课程引用。
// 用 ffmpeg 探测时长，听力模式靠它对齐字幕分段。
func (s *PlanService) AttachAudio(ctx context.Context, planID, lessonID string, file *multipart.FileHeader) (string, error) {
	if !allowedAudio(file) {
		return "", util.ErrUnsupportedAudio
	}

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	filename := fmt.Sprintf("lessons/%s/%s%s", lessonID, model.GenerateUUID(), filepath.Ext(file.Filename))
	url, err := s.Storage.Upload(ctx, filename, src, file.Size, file.Header.Get("Content-Type"))
	if err != nil {
		return "", err
	}

	// 时长探测失败不阻断上传，仅记日志
	duration := 0.0
	if tmp, err := saveTemp(file); err == nil {
		defer os.Remove(tmp)
		if info, err := util.GetAudioInfo(tmp); err == nil {
			duration = info.Duration
		} else {
			logger.Log.Warn("audio probe failed", zap.String("lessonId", lessonID), zap.Error(err))
		}
	}

	err = s.PlanRepo.UpdateLocked(planID, func(tx *gorm.DB, plan *model.Plan) error {
		lesson, idx := plan.FindLesson(lessonID)
		if lesson == nil {
			return util.ErrLessonNotFound
		}
		plan.Lessons[idx].AudioURL = url
		plan.Lessons[idx].AudioDuration = duration
		return nil
	})
	if err == gorm.ErrRecordNotFound {
		return "", util.ErrPlanNotFound
	}
	if err != nil {
		return "", err
	}
	return url, nil
}

// allowedAudio 扩展名白名单 + MIME 前缀校验；
// 有些客户端只给 octet-stream，放行由扩展名兜底
func allowedAudio(file *multipart.FileHeader) bool {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	extOK := false
	for _, allowed := range util.AllowedAudioExtensions {
		if ext == allowed {
			extOK = true
			break
		}
	}
	if !extOK {
		return false
	}
	ct := file.Header.Get("Content-Type")
	return ct == "" || ct == util.MimeOctetStream || strings.HasPrefix(ct, util.MimeAudio)
}

func sameCalendarDay(a, b time.Time) bool {
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

func saveTemp(file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "lesson-audio-*"+filepath.Ext(file.Filename))
	if err != nil {
		return "", err
	}
	defer tmp.Close()

	if _, err := tmp.ReadFrom(src); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

// IngestVocabulary / IngestStructures 内容提取流水线的写入口
func (s *PlanService) IngestVocabulary(items []model.VocabularyItem) error {
	return s.VocabRepo.BulkUpsert(items)
}

func (s *PlanService) IngestStructures(items []model.StructureItem) error {
	return s.StructureRepo.BulkUpsert(items)
}
