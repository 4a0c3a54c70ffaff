package service

import (
	"context"
	"math/rand"
	"sort"
	"strings"
	"time"

	"lingua_edu_backend/internal/model"
	"lingua_edu_backend/internal/repository"
	"lingua_edu_backend/internal/srs"
	"lingua_edu_backend/internal/util"
	"lingua_edu_backend/pkg/logger"
	"lingua_edu_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PracticeService 组装学员"今天"的练习会话：
// 循环解析 + 模式选择 + 课程条目抓取 + 到期复习合并。
// 只读，不持有锁，可并发调用。
type PracticeService struct {
	PlanRepo      *repository.PlanRepository
	VocabRepo     *repository.VocabularyRepository
	StructureRepo *repository.StructureRepository
	SessionRepo   *repository.SessionStateRepository
}

func NewPracticeService(
	planRepo *repository.PlanRepository,
	vocabRepo *repository.VocabularyRepository,
	structureRepo *repository.StructureRepository,
	sessionRepo *repository.SessionStateRepository,
) *PracticeService {
	return &PracticeService{
		PlanRepo:      planRepo,
		VocabRepo:     vocabRepo,
		StructureRepo: structureRepo,
		SessionRepo:   sessionRepo,
	}
}

// AssembleOptions 组装覆盖项。DayOverride 手动指定循环日；
// LessonID 回放某节历史课（一律按非上课日处理）；
// IgnoreReviewCheck 补练时允许同一天多场会话。
type AssembleOptions struct {
	DayOverride       *int
	LessonID          string
	IgnoreReviewCheck bool
}

// DailySession 组装好的练习会话
type DailySession struct {
	Mode       srs.Mode       `json:"mode"`
	CycleDay   int            `json:"cycleDay"`
	IsClassDay bool           `json:"isClassDay"`
	LessonID   string         `json:"lessonId,omitempty"`
	Items      []PracticeItem `json:"items"`
}

// PracticeItem 每场会话临时构造的练习条目，不落库
type PracticeItem struct {
	ID          string              `json:"id"`
	Kind        model.ItemKind      `json:"kind"`
	Prompt      string              `json:"prompt"`
	Answer      string              `json:"answer,omitempty"`
	Options     []string            `json:"options,omitempty"`
	AnswerIndex int                 `json:"answerIndex,omitempty"`
	AudioURL    string              `json:"audioUrl,omitempty"`
	Source      string              `json:"source"` // lesson | review | quiz | listening
	IsNew       bool                `json:"isNew"`
	Memory      *model.MemoryRecord `json:"memory,omitempty"`
}

// GetDailyPractice 组装指定计划今天的练习会话
func (s *PracticeService) GetDailyPractice(planID string, opts AssembleOptions, now time.Time) (*DailySession, error) {
	plan, err := s.PlanRepo.FindByID(planID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrPlanNotFound
		}
		return nil, err
	}

	var (
		cycleDay     int
		activeLesson *model.LessonRef
		isClassDay   bool
	)

	switch {
	case opts.LessonID != "":
		// 历史课回放：固定课程，永远不按上课日处理
		lesson, _ := plan.FindLesson(opts.LessonID)
		if lesson == nil {
			return nil, util.ErrLessonNotFound
		}
		activeLesson = lesson
		if opts.DayOverride != nil {
			cycleDay = *opts.DayOverride
		} else if lesson.CompletedPracticeDays > 0 {
			cycleDay = lesson.CompletedPracticeDays
		} else {
			cycleDay = 1
		}
	default:
		res := srs.ResolveCycle(plan.Lessons, now)
		cycleDay, activeLesson, isClassDay = res.CycleDay, res.ActiveLesson, res.IsClassDay
		if opts.DayOverride != nil {
			cycleDay = *opts.DayOverride
			isClassDay = cycleDay == srs.ClassDay
		}
	}

	session := &DailySession{
		CycleDay:   cycleDay,
		IsClassDay: isClassDay,
		Mode:       srs.ModeForDay(cycleDay),
		Items:      []PracticeItem{},
	}
	if activeLesson != nil {
		session.LessonID = activeLesson.ID
	}

	// 上课日：今天的活动就是上课本身，不安排练习
	if isClassDay {
		monitoring.SessionsAssembled.WithLabelValues(string(session.Mode)).Inc()
		return session, nil
	}

	if activeLesson != nil {
		session.Mode = srs.DegradeMode(session.Mode, activeLesson.HasAudio())
	}

	// 测验/听力走课程预生成的固定题目集，不与到期条目合并
	if session.Mode.IsFixedContent() && activeLesson != nil {
		s.buildFixedContent(session, plan, activeLesson, now)
		monitoring.SessionsAssembled.WithLabelValues(string(session.Mode)).Inc()
		return session, nil
	}

	seen := map[string]bool{}

	if activeLesson != nil && session.Mode != srs.ModeReview {
		session.Items = append(session.Items,
			s.buildLessonItems(plan, activeLesson, session.Mode, opts.IgnoreReviewCheck, now, seen)...)
	}

	// 全量扫描记忆映射，把到期条目追加为标准复习
	session.Items = append(session.Items, s.buildDueReviews(plan, seen, now)...)

	monitoring.SessionsAssembled.WithLabelValues(string(session.Mode)).Inc()
	return session, nil
}

// buildFixedContent 填充测验或听力会话。缺预生成测验时退回
// 卡片式课程条目，残缺的练习好过没有练习。
func (s *PracticeService) buildFixedContent(session *DailySession, plan *model.Plan, lesson *model.LessonRef, now time.Time) {
	if session.Mode == srs.ModeListening {
		for _, seg := range lesson.TranscriptSegments {
			if len(seg.Options) == 0 {
				continue
			}
			item := PracticeItem{
				ID:          seg.ItemID,
				Kind:        model.KindVocabulary,
				Prompt:      seg.Text,
				Options:     seg.Options,
				AnswerIndex: seg.Answer,
				AudioURL:    lesson.AudioURL,
				Source:      "listening",
			}
			attachMemory(&item, plan, seg.ItemID)
			session.Items = append(session.Items, item)
		}
		return
	}

	if lesson.Quiz == nil || len(lesson.Quiz.Questions) == 0 {
		logger.Log.Warn("lesson has no pre-generated quiz, falling back to flashcards",
			zap.String("lessonId", lesson.ID))
		session.Mode = srs.ModeFlashcard
		seen := map[string]bool{}
		session.Items = s.buildLessonItems(plan, lesson, session.Mode, true, now, seen)
		return
	}

	for _, q := range lesson.Quiz.Questions {
		kind := q.Kind
		if kind == "" {
			kind = model.KindVocabulary
		}
		item := PracticeItem{
			ID:          q.ID,
			Kind:        kind,
			Prompt:      q.Prompt,
			Options:     q.Options,
			AnswerIndex: q.Answer,
			Source:      "quiz",
		}
		// 按条目记忆状态标注，前端据此做题目加权
		attachMemory(&item, plan, q.ItemID)
		session.Items = append(session.Items, item)
	}
}

// buildLessonItems 抓取当前课程自己的条目。课程条目不看到期日，
// 保证新学内容必被覆盖；但当天已复习过的条目跳过，除非补练。
func (s *PracticeService) buildLessonItems(plan *model.Plan, lesson *model.LessonRef, mode srs.Mode, ignoreReviewCheck bool, now time.Time, seen map[string]bool) []PracticeItem {
	var items []PracticeItem

	vocabIDs := s.filterIDs(plan, lesson.LearningItemIDs, ignoreReviewCheck, now)
	for _, v := range s.VocabRepo.FindByIDs(vocabIDs) {
		item := s.vocabularyItem(v, mode)
		attachMemory(&item, plan, v.ID)
		items = append(items, item)
		seen[v.ID] = true
	}

	if mode.UsesStructures() {
		structIDs := s.filterIDs(plan, lesson.LearningStructureIDs, ignoreReviewCheck, now)
		for _, st := range s.StructureRepo.FindByIDs(structIDs) {
			item := s.structureItem(st, mode)
			attachMemory(&item, plan, st.ID)
			items = append(items, item)
			seen[st.ID] = true
		}
	}

	return items
}

// filterIDs 去掉当天已复习过的 id（补练模式下不过滤）
func (s *PracticeService) filterIDs(plan *model.Plan, ids []string, ignoreReviewCheck bool, now time.Time) []string {
	if ignoreReviewCheck {
		return ids
	}
	kept := make([]string, 0, len(ids))
	for _, id := range ids {
		if rec, ok := plan.SRSMap[id]; ok && rec.ReviewedOn(now) {
			continue
		}
		kept = append(kept, id)
	}
	return kept
}

// buildDueReviews 到期条目的标准复习，去重后按到期日排序追加。
// 复习条目不做模式化变形，一律卡片式。
func (s *PracticeService) buildDueReviews(plan *model.Plan, seen map[string]bool, now time.Time) []PracticeItem {
	var due []model.MemoryRecord
	for id, rec := range plan.SRSMap {
		if seen[id] {
			continue
		}
		if srs.IsDue(rec, now) {
			due = append(due, rec)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if !due[i].DueDate.Equal(due[j].DueDate) {
			return due[i].DueDate.Before(due[j].DueDate)
		}
		return due[i].ItemID < due[j].ItemID
	})

	var vocabIDs, structIDs []string
	for _, rec := range due {
		if rec.ItemKind == model.KindStructure {
			structIDs = append(structIDs, rec.ItemID)
		} else {
			vocabIDs = append(vocabIDs, rec.ItemID)
		}
	}

	var items []PracticeItem
	for _, v := range s.VocabRepo.FindByIDs(vocabIDs) {
		item := s.vocabularyItem(v, srs.ModeFlashcard)
		item.Source = "review"
		attachMemory(&item, plan, v.ID)
		items = append(items, item)
	}
	for _, st := range s.StructureRepo.FindByIDs(structIDs) {
		item := s.structureItem(st, srs.ModeFlashcard)
		item.Source = "review"
		attachMemory(&item, plan, st.ID)
		items = append(items, item)
	}
	return items
}

func (s *PracticeService) vocabularyItem(v model.VocabularyItem, mode srs.Mode) PracticeItem {
	item := PracticeItem{
		ID:     v.ID,
		Kind:   model.KindVocabulary,
		Source: "lesson",
	}
	switch mode {
	case srs.ModeUnscramble:
		item.Prompt = v.Translation
		item.Answer = v.Example
		item.Options = shuffleTokens(v.Example)
	case srs.ModeGapFill:
		item.Prompt = blankOut(v.Example, v.Word)
		item.Answer = v.Word
		item.AudioURL = v.AudioURL
	default: // 卡片
		item.Prompt = v.Word
		item.Answer = v.Translation
		item.AudioURL = v.AudioURL
	}
	return item
}

func (s *PracticeService) structureItem(st model.StructureItem, mode srs.Mode) PracticeItem {
	item := PracticeItem{
		ID:     st.ID,
		Kind:   model.KindStructure,
		Source: "lesson",
	}
	switch mode {
	case srs.ModeUnscramble:
		item.Prompt = st.Explanation
		item.Answer = st.Example
		item.Options = shuffleTokens(st.Example)
	case srs.ModeGapFill:
		item.Prompt = blankOut(st.Example, st.Pattern)
		item.Answer = st.Pattern
	default:
		item.Prompt = st.Pattern
		item.Answer = st.Explanation
	}
	return item
}

func attachMemory(item *PracticeItem, plan *model.Plan, itemID string) {
	if itemID == "" {
		item.IsNew = true
		return
	}
	if rec, ok := plan.SRSMap[itemID]; ok {
		snapshot := rec
		item.Memory = &snapshot
		return
	}
	item.IsNew = true
}

func shuffleTokens(sentence string) []string {
	tokens := strings.Fields(sentence)
	rand.Shuffle(len(tokens), func(i, j int) {
		tokens[i], tokens[j] = tokens[j], tokens[i]
	})
	return tokens
}

func blankOut(sentence, word string) string {
	if sentence == "" || word == "" {
		return sentence
	}
	return strings.ReplaceAll(sentence, word, "____")
}

// LearningStats 学习统计
type LearningStats struct {
	ReviewedToday   int  `json:"reviewedToday"`
	DueToday        int  `json:"dueToday"`
	TotalLearned    int  `json:"totalLearned"`
	CycleDay        int  `json:"cycleDay"`
	DaysSinceClass  int  `json:"daysSinceClass"`
	HasActiveLesson bool `json:"hasActiveLesson"`
}

func (s *PracticeService) GetLearningStats(planID string, now time.Time) (*LearningStats, error) {
	plan, err := s.PlanRepo.FindByID(planID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrPlanNotFound
		}
		return nil, err
	}

	stats := &LearningStats{DaysSinceClass: -1}

	for _, rec := range plan.SRSMap {
		if rec.ReviewedOn(now) {
			stats.ReviewedToday++
		}
		if srs.IsDue(rec, now) {
			stats.DueToday++
		}
		if st := model.StatusForInterval(rec.Interval); st != model.StatusLearning {
			stats.TotalLearned++
		}
	}

	res := srs.ResolveCycle(plan.Lessons, now)
	stats.CycleDay = res.CycleDay
	stats.HasActiveLesson = res.ActiveLesson != nil
	if res.ActiveLesson != nil {
		stats.DaysSinceClass = srs.DaysBetween(res.ActiveLesson.ScheduledDate, now)
	} else if last := mostRecentPastLesson(plan.Lessons, now); last != nil {
		stats.DaysSinceClass = srs.DaysBetween(last.ScheduledDate, now)
	}

	return stats, nil
}

func mostRecentPastLesson(lessons []model.LessonRef, now time.Time) *model.LessonRef {
	var best *model.LessonRef
	for i := range lessons {
		l := &lessons[i]
		if l.ScheduledDate.IsZero() || srs.DaysBetween(l.ScheduledDate, now) < 0 {
			continue
		}
		if best == nil || l.ScheduledDate.After(best.ScheduledDate) {
			best = l
		}
	}
	return best
}

// SaveSession / GetSession / ClearSession 转发到 Redis 会话仓库，
// 统一在服务层校验计划存在性
func (s *PracticeService) SaveSession(ctx context.Context, planID string, state *model.SessionState) error {
	if planID == "" {
		return util.ErrInvalidSubmission
	}
	state.PlanID = planID
	state.SavedAt = time.Now()
	return s.SessionRepo.Save(ctx, state)
}

func (s *PracticeService) GetSession(ctx context.Context, planID string) (*model.SessionState, error) {
	return s.SessionRepo.Get(ctx, planID)
}

func (s *PracticeService) ClearSession(ctx context.Context, planID string) error {
	return s.SessionRepo.Clear(ctx, planID)
}
