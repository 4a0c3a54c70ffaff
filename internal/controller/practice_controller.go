package controller

import (
	"errors"
	"strconv"
	"time"

	"lingua_edu_backend/internal/model"
	"lingua_edu_backend/internal/service"
	"lingua_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type PracticeController struct {
	PracticeService *service.PracticeService
	ResultService   *service.ResultService
	ReplayService   *service.ReplayService
	PlanService     *service.PlanService
}

func NewPracticeController(
	practiceService *service.PracticeService,
	resultService *service.ResultService,
	replayService *service.ReplayService,
	planService *service.PlanService,
) *PracticeController {
	return &PracticeController{
		PracticeService: practiceService,
		ResultService:   resultService,
		ReplayService:   replayService,
		PlanService:     planService,
	}
}

// authorizePlan 校验当前用户是否有权操作该计划。
// 学员只能操作自己的计划，教师和管理员放行。
func (c *PracticeController) authorizePlan(ctx *gin.Context, planID string) (*model.Plan, bool) {
	plan, err := c.PlanService.GetPlan(planID)
	if err != nil {
		if errors.Is(err, util.ErrPlanNotFound) {
			util.Error(ctx, 404, "学习计划不存在")
		} else {
			util.LogInternalError(ctx, err)
		}
		return nil, false
	}

	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return nil, false
	}
	if claims.Role == model.Student && plan.StudentID != claims.UserID {
		util.Forbidden(ctx)
		return nil, false
	}
	return plan, true
}

// GetDailyPractice godoc
// @Summary 获取今日练习会话
// @Description 按循环日调度规则组装当天的练习内容
// @Tags 练习
// @Produce  json
// @Param   planId path string true "计划 ID"
// @Param   day query int false "手动指定循环日"
// @Param   lessonId query string false "回放指定课程"
// @Param   ignoreReviewCheck query bool false "忽略当天已复习检查"
// @Success 200 {object} util.Response{data=service.DailySession}
// @Failure 404 {object} util.Response "计划不存在"
// @Security BearerAuth
// @Router /api/plans/{planId}/practice/daily [get]
func (c *PracticeController) GetDailyPractice(ctx *gin.Context) {
	planID := ctx.Param("planId")
	if _, ok := c.authorizePlan(ctx, planID); !ok {
		return
	}

	opts := service.AssembleOptions{
		LessonID:          ctx.Query("lessonId"),
		IgnoreReviewCheck: ctx.Query("ignoreReviewCheck") == "true",
	}
	if dayStr := ctx.Query("day"); dayStr != "" {
		day, err := strconv.Atoi(dayStr)
		if err != nil {
			util.BadRequest(ctx, "day 参数必须是整数")
			return
		}
		opts.DayOverride = &day
	}

	session, err := c.PracticeService.GetDailyPractice(planID, opts, time.Now())
	if err != nil {
		if errors.Is(err, util.ErrLessonNotFound) {
			util.Error(ctx, 404, "课程不存在")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, session)
}

// SaveSession godoc
// @Summary 保存练习会话快照
// @Description 把进行中的会话状态暂存到 Redis，供断点续练
// @Tags 练习
// @Accept  json
// @Produce  json
// @Param   planId path string true "计划 ID"
// @Param   body body model.SessionState true "会话快照"
// @Success 200 {object} util.Response
// @Security BearerAuth
// @Router /api/plans/{planId}/practice/session [post]
func (c *PracticeController) SaveSession(ctx *gin.Context) {
	planID := ctx.Param("planId")
	if _, ok := c.authorizePlan(ctx, planID); !ok {
		return
	}

	var state model.SessionState
	if err := ctx.ShouldBindJSON(&state); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	state.PlanID = planID

	if err := c.PracticeService.SaveSession(ctx.Request.Context(), planID, &state); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// GetSession godoc
// @Summary 读取练习会话快照
// @Tags 练习
// @Produce  json
// @Param   planId path string true "计划 ID"
// @Success 200 {object} util.Response{data=model.SessionState}
// @Failure 404 {object} util.Response "没有暂存的会话"
// @Security BearerAuth
// @Router /api/plans/{planId}/practice/session [get]
func (c *PracticeController) GetSession(ctx *gin.Context) {
	planID := ctx.Param("planId")
	if _, ok := c.authorizePlan(ctx, planID); !ok {
		return
	}

	state, err := c.PracticeService.GetSession(ctx.Request.Context(), planID)
	if err != nil {
		if errors.Is(err, util.ErrSessionNotFound) {
			util.Error(ctx, 404, "没有暂存的会话")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, state)
}

// ClearSession godoc
// @Summary 清除练习会话快照
// @Tags 练习
// @Produce  json
// @Param   planId path string true "计划 ID"
// @Success 200 {object} util.Response
// @Security BearerAuth
// @Router /api/plans/{planId}/practice/session [delete]
func (c *PracticeController) ClearSession(ctx *gin.Context) {
	planID := ctx.Param("planId")
	if _, ok := c.authorizePlan(ctx, planID); !ok {
		return
	}

	if err := c.PracticeService.ClearSession(ctx.Request.Context(), planID); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// SubmitRequest 练习结果提交
type SubmitRequest struct {
	Results       []service.GradedResult `json:"results" binding:"required"`
	IsReplay      bool                   `json:"isReplay"`
	SessionStreak int                    `json:"sessionStreak"`
}

// SubmitResults godoc
// @Summary 提交练习结果
// @Description 原子地更新记忆状态、经验值、连续打卡和练习热力图
// @Tags 练习
// @Accept  json
// @Produce  json
// @Param   planId path string true "计划 ID"
// @Param   body body SubmitRequest true "逐题评分结果"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "提交数据不合法"
// @Security BearerAuth
// @Router /api/plans/{planId}/practice/submit [post]
func (c *PracticeController) SubmitResults(ctx *gin.Context) {
	planID := ctx.Param("planId")
	if _, ok := c.authorizePlan(ctx, planID); !ok {
		return
	}

	var req SubmitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	err := c.ResultService.SubmitResults(ctx.Request.Context(), planID, req.Results, req.IsReplay, req.SessionStreak, time.Now())
	if err != nil {
		if errors.Is(err, util.ErrInvalidSubmission) {
			util.BadRequest(ctx, "提交数据不合法")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, nil)
}

// GetLearningStats godoc
// @Summary 获取学习统计
// @Description 返回今日复习量、到期量、累计掌握量和循环日状态
// @Tags 练习
// @Produce  json
// @Param   planId path string true "计划 ID"
// @Success 200 {object} util.Response{data=service.LearningStats}
// @Security BearerAuth
// @Router /api/plans/{planId}/practice/stats [get]
func (c *PracticeController) GetLearningStats(ctx *gin.Context) {
	planID := ctx.Param("planId")
	if _, ok := c.authorizePlan(ctx, planID); !ok {
		return
	}

	stats, err := c.PracticeService.GetLearningStats(planID, time.Now())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}

// ReplayRequest 回放购买请求
type ReplayRequest struct {
	ReplayDayIndex  int    `json:"replayDayIndex"`
	CurrentDayIndex int    `json:"currentDayIndex"`
	LessonID        string `json:"lessonId"`
}

// PurchaseReplay godoc
// @Summary 购买练习回放
// @Description 用经验值购买历史练习日的回放资格
// @Tags 练习
// @Accept  json
// @Produce  json
// @Param   planId path string true "计划 ID"
// @Param   body body ReplayRequest true "回放目标"
// @Success 200 {object} util.Response{data=object} "扣费成功，返回花费"
// @Failure 402 {object} util.Response "经验值不足"
// @Security BearerAuth
// @Router /api/plans/{planId}/practice/replay [post]
func (c *PracticeController) PurchaseReplay(ctx *gin.Context) {
	planID := ctx.Param("planId")
	if _, ok := c.authorizePlan(ctx, planID); !ok {
		return
	}

	var req ReplayRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	cost, err := c.ReplayService.PurchaseReplay(planID, req.ReplayDayIndex, req.CurrentDayIndex, req.LessonID, time.Now())
	if err != nil {
		var insufficient *util.InsufficientXPError
		if errors.As(err, &insufficient) {
			util.ErrorWithData(ctx, 402, "经验值不足", gin.H{
				"requiredXP":  insufficient.Required,
				"availableXP": insufficient.Available,
			})
			return
		}
		if errors.Is(err, util.ErrLessonNotFound) {
			util.Error(ctx, 404, "课程不存在")
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"cost": cost})
}
