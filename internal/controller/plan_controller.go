package controller

import (
	"errors"

	"lingua_edu_backend/internal/model"
	"lingua_edu_backend/internal/service"
	"lingua_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type PlanController struct {
	PlanService *service.PlanService
}

func NewPlanController(planService *service.PlanService) *PlanController {
	return &PlanController{PlanService: planService}
}

// EnrollRequest 开通计划请求
type EnrollRequest struct {
	StudentID uint `json:"studentId" binding:"required"`
}

// Enroll godoc
// @Summary 为学员开通学习计划
// @Tags 计划管理
// @Accept  json
// @Produce  json
// @Param   body body EnrollRequest true "学员信息"
// @Success 201 {object} util.Response{data=model.Plan}
// @Security BearerAuth
// @Router /api/admin/plans [post]
func (c *PlanController) Enroll(ctx *gin.Context) {
	var req EnrollRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	plan, err := c.PlanService.Enroll(req.StudentID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, plan)
}

// GetPlan godoc
// @Summary 查看学习计划
// @Tags 计划管理
// @Produce  json
// @Param   planId path string true "计划 ID"
// @Success 200 {object} util.Response{data=model.Plan}
// @Failure 404 {object} util.Response "计划不存在"
// @Security BearerAuth
// @Router /api/admin/plans/{planId} [get]
func (c *PlanController) GetPlan(ctx *gin.Context) {
	plan, err := c.PlanService.GetPlan(ctx.Param("planId"))
	if err != nil {
		if errors.Is(err, util.ErrPlanNotFound) {
			util.Error(ctx, 404, "学习计划不存在")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, plan)
}

// AddLesson godoc
// @Summary 往计划里排一节课
// @Tags 计划管理
// @Accept  json
// @Produce  json
// @Param   planId path string true "计划 ID"
// @Param   body body service.LessonRequest true "课程内容"
// @Success 201 {object} util.Response{data=model.LessonRef}
// @Failure 404 {object} util.Response "计划不存在"
// @Failure 409 {object} util.Response "计划未激活"
// @Security BearerAuth
// @Router /api/admin/plans/{planId}/lessons [post]
func (c *PlanController) AddLesson(ctx *gin.Context) {
	var req service.LessonRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	lesson, err := c.PlanService.AddLesson(ctx.Param("planId"), req)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrPlanNotFound):
			util.Error(ctx, 404, "学习计划不存在")
		case errors.Is(err, util.ErrPlanNotActive):
			util.Error(ctx, 409, "计划未激活，不能排课")
		case errors.Is(err, util.ErrLessonAlreadyExist):
			util.Error(ctx, 409, "该日期已有排课")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, lesson)
}

// AttachAudio godoc
// @Summary 上传课程音频
// @Description 上传音频文件并探测时长，供听力模式使用
// @Tags 计划管理
// @Accept  multipart/form-data
// @Produce  json
// @Param   planId path string true "计划 ID"
// @Param   lessonId path string true "课程 ID"
// @Param   audio formData file true "音频文件"
// @Success 200 {object} util.Response{data=object}
// @Failure 404 {object} util.Response "计划或课程不存在"
// @Security BearerAuth
// @Router /api/admin/plans/{planId}/lessons/{lessonId}/audio [post]
func (c *PlanController) AttachAudio(ctx *gin.Context) {
	file, err := ctx.FormFile("audio")
	if err != nil {
		util.BadRequest(ctx, "缺少音频文件")
		return
	}

	url, err := c.PlanService.AttachAudio(ctx.Request.Context(), ctx.Param("planId"), ctx.Param("lessonId"), file)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrPlanNotFound):
			util.Error(ctx, 404, "学习计划不存在")
		case errors.Is(err, util.ErrLessonNotFound):
			util.Error(ctx, 404, "课程不存在")
		case errors.Is(err, util.ErrUnsupportedAudio):
			util.BadRequest(ctx, "不支持的音频格式")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, gin.H{"audioUrl": url})
}

// IngestVocabulary godoc
// @Summary 批量导入词汇条目
// @Tags 内容管理
// @Accept  json
// @Produce  json
// @Param   body body []model.VocabularyItem true "词汇列表"
// @Success 200 {object} util.Response
// @Security BearerAuth
// @Router /api/admin/vocabulary/bulk [post]
func (c *PlanController) IngestVocabulary(ctx *gin.Context) {
	var items []model.VocabularyItem
	if err := ctx.ShouldBindJSON(&items); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if err := c.PlanService.IngestVocabulary(items); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"count": len(items)})
}

// IngestStructures godoc
// @Summary 批量导入句型条目
// @Tags 内容管理
// @Accept  json
// @Produce  json
// @Param   body body []model.StructureItem true "句型列表"
// @Success 200 {object} util.Response
// @Security BearerAuth
// @Router /api/admin/structures/bulk [post]
func (c *PlanController) IngestStructures(ctx *gin.Context) {
	var items []model.StructureItem
	if err := ctx.ShouldBindJSON(&items); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if err := c.PlanService.IngestStructures(items); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"count": len(items)})
}
