package controller

import (
	"bytes"
	"cbme_survey_backend/internal/model"
	"cbme_survey_backend/internal/service"
	"cbme_survey_backend/internal/util"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	maxSubmissionBytes = 1 << 20
	maxPageLimit       = 200
)

type SurveyController struct {
	SurveyService *service.SurveyService
	ExportService *service.ExportService
	Location      *time.Location
}

func NewSurveyController(surveyService *service.SurveyService, exportService *service.ExportService, loc *time.Location) *SurveyController {
	return &SurveyController{SurveyService: surveyService, ExportService: exportService, Location: loc}
}

// @Summary 提交问卷
// @Tags 问卷
// @Accept json
// @Produce json
// @Param answers body object true "问卷作答"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} util.ValidationError
// @Router /api/submit [post]
func (c *SurveyController) Submit(ctx *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(ctx.Writer, ctx.Request.Body, maxSubmissionBytes))
	if err != nil {
		ctx.JSON(http.StatusRequestEntityTooLarge, gin.H{"message": util.MsgInvalidBody})
		return
	}

	resp, err := c.SurveyService.Submit(ctx.Request.Context(), body)
	if err != nil {
		var verr *util.ValidationError
		switch {
		case errors.As(err, &verr):
			ctx.JSON(http.StatusBadRequest, gin.H{"message": verr.Message, "errors": verr.Fields})
		case errors.Is(err, util.ErrStorageUnavailable):
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"message": util.MsgSubmitFailedRetry})
		default:
			ctx.JSON(http.StatusInternalServerError, gin.H{"message": util.MsgSubmitFailedRetry})
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "id": resp.ID})
}

// @Summary 问卷选项
// @Tags 问卷
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/survey/options [get]
func (c *SurveyController) Options(ctx *gin.Context) {
	util.Success(ctx, model.NewOptionCatalogue())
}

// @Summary 问卷回复列表
// @Tags 问卷管理
// @Security BearerAuth
// @Produce json
// @Param profession query string false "职类代码"
// @Param campus query string false "院区"
// @Param startDate query string false "开始时间 (RFC3339 或 2006-01-02)"
// @Param endDate query string false "结束时间 (RFC3339 或 2006-01-02)"
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response
// @Router /api/admin/survey/responses [get]
func (c *SurveyController) ListResponses(ctx *gin.Context) {
	filter, err := c.bindFilter(ctx)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	responses, total, err := c.SurveyService.ListResponses(ctx.Request.Context(), filter)
	if err != nil {
		respondStoreError(ctx, err)
		return
	}
	if responses == nil {
		responses = []model.SurveyResponse{}
	}

	util.Success(ctx, util.PageResponse{
		List:  responses,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	})
}

// @Summary 问卷回复详情
// @Tags 问卷管理
// @Security BearerAuth
// @Produce json
// @Param id path int true "回复ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/admin/survey/responses/{id} [get]
func (c *SurveyController) GetResponse(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	if id == 0 {
		util.BadRequest(ctx, "无效的回复ID")
		return
	}

	resp, err := c.SurveyService.GetResponse(ctx.Request.Context(), id)
	if err != nil {
		respondStoreError(ctx, err)
		return
	}
	util.Success(ctx, resp)
}

// @Summary 按职类统计
// @Tags 问卷管理
// @Security BearerAuth
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/admin/survey/summary/professions [get]
func (c *SurveyController) SummaryByProfession(ctx *gin.Context) {
	filter, err := c.bindFilter(ctx)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	rows, err := c.SurveyService.SummaryByProfession(ctx.Request.Context(), filter)
	if err != nil {
		respondStoreError(ctx, err)
		return
	}
	util.Success(ctx, rows)
}

// @Summary 整体统计
// @Tags 问卷管理
// @Security BearerAuth
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/admin/survey/summary [get]
func (c *SurveyController) OverallSummary(ctx *gin.Context) {
	filter, err := c.bindFilter(ctx)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	summary, err := c.SurveyService.OverallSummary(ctx.Request.Context(), filter)
	if err != nil {
		respondStoreError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}

// @Summary 导出问卷回复 CSV
// @Tags 问卷管理
// @Security BearerAuth
// @Produce text/csv
// @Router /api/admin/survey/responses/export [get]
func (c *SurveyController) ExportCSV(ctx *gin.Context) {
	filter, err := c.bindFilter(ctx)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	var buf bytes.Buffer
	if _, err := c.ExportService.WriteCSV(ctx.Request.Context(), &buf, filter); err != nil {
		respondStoreError(ctx, err)
		return
	}

	filename := fmt.Sprintf("survey-responses-%s.csv", time.Now().In(c.location()).Format("20060102"))
	ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	ctx.Data(http.StatusOK, util.MimeCSV+"; charset=utf-8", buf.Bytes())
}

// @Summary 归档问卷回复 CSV 到存储
// @Tags 问卷管理
// @Security BearerAuth
// @Produce json
// @Success 201 {object} util.Response
// @Router /api/admin/survey/responses/archive [post]
func (c *SurveyController) ArchiveCSV(ctx *gin.Context) {
	filter, err := c.bindFilter(ctx)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.ExportService.Archive(ctx.Request.Context(), filter)
	if err != nil {
		respondStoreError(ctx, err)
		return
	}
	util.Created(ctx, result)
}

func (c *SurveyController) location() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

func (c *SurveyController) bindFilter(ctx *gin.Context) (model.SurveyResponseFilter, error) {
	var filter model.SurveyResponseFilter

	if p := ctx.Query("profession"); p != "" {
		filter.Profession = model.Profession(p)
		if !filter.Profession.Valid() {
			return filter, fmt.Errorf("未知的职类代码: %s", p)
		}
	}
	filter.Campus = ctx.Query("campus")

	var err error
	if filter.StartDate, err = util.ParseQueryTime(ctx.Query("startDate"), false, c.location()); err != nil {
		return filter, err
	}
	if filter.EndDate, err = util.ParseQueryTime(ctx.Query("endDate"), true, c.location()); err != nil {
		return filter, err
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return filter, errors.New("endDate 不能早于 startDate")
	}

	if v := ctx.Query("page"); v != "" {
		if filter.Page, err = strconv.Atoi(v); err != nil || filter.Page < 1 {
			return filter, errors.New("page 必须为正整数")
		}
	}
	if v := ctx.Query("limit"); v != "" {
		if filter.Limit, err = strconv.Atoi(v); err != nil || filter.Limit < 1 {
			return filter, errors.New("limit 必须为正整数")
		}
		if filter.Limit > maxPageLimit {
			filter.Limit = maxPageLimit
		}
		if filter.Page == 0 {
			filter.Page = 1
		}
	}
	return filter, nil
}

func respondStoreError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrResponseNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrStorageUnavailable):
		util.ServiceUnavailable(ctx)
	default:
		util.LogInternalError(ctx, err)
	}
}
