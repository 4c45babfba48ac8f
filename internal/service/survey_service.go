package service

import (
	"cbme_survey_backend/internal/model"
	"cbme_survey_backend/internal/util"
	"cbme_survey_backend/pkg/logger"
	"cbme_survey_backend/pkg/monitoring"
	"cbme_survey_backend/pkg/tracing"
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// SurveyStore 问卷服务依赖的存储接口
type SurveyStore interface {
	Create(ctx context.Context, resp *model.SurveyResponse) error
	List(ctx context.Context, filter model.SurveyResponseFilter) ([]model.SurveyResponse, int64, error)
	FindByID(ctx context.Context, id uint) (*model.SurveyResponse, error)
	SummaryByProfession(ctx context.Context, filter model.SurveyResponseFilter) ([]model.ProfessionSummary, error)
	OverallSummary(ctx context.Context, filter model.SurveyResponseFilter) (*model.OverallSummary, error)
}

// SummaryCache 缓存统计结果直到下一次提交。gen 由调用方在读取前取得，回写时沿用同一个值。
type SummaryCache interface {
	Generation(ctx context.Context) (int64, error)
	GetProfessionSummary(ctx context.Context, gen int64, filter model.SurveyResponseFilter) ([]model.ProfessionSummary, error)
	SetProfessionSummary(ctx context.Context, gen int64, filter model.SurveyResponseFilter, rows []model.ProfessionSummary) error
	GetOverallSummary(ctx context.Context, gen int64, filter model.SurveyResponseFilter) (*model.OverallSummary, error)
	SetOverallSummary(ctx context.Context, gen int64, filter model.SurveyResponseFilter, summary *model.OverallSummary) error
	Invalidate(ctx context.Context) error
}

type SurveyService struct {
	Store     SurveyStore
	Validator *SurveyValidator
	Notifier  Notifier
	Cache     SummaryCache
}

func NewSurveyService(store SurveyStore, validator *SurveyValidator, notifier Notifier, cache SummaryCache) *SurveyService {
	return &SurveyService{
		Store:     store,
		Validator: validator,
		Notifier:  notifier,
		Cache:     cache,
	}
}

// Submit 校验、计分、入库后发送通知，通知失败只记录日志，不影响结果
func (s *SurveyService) Submit(ctx context.Context, body []byte) (*model.SurveyResponse, error) {
	ctx, span := tracing.Tracer.Start(ctx, "SurveyService.Submit")
	defer span.End()

	resp, err := s.accept(ctx, body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.Int64("survey.response_id", int64(resp.ID)),
		attribute.String("survey.profession", string(resp.Profession)),
	)

	s.invalidateSummaries(ctx)
	s.notify(ctx, resp)
	return resp, nil
}

func (s *SurveyService) accept(ctx context.Context, body []byte) (*model.SurveyResponse, error) {
	raw, err := DecodeAnswerSet(body)
	if err != nil {
		recordSubmission("", "invalid")
		return nil, err
	}
	if err := RequireIdentity(raw); err != nil {
		recordSubmission("", "invalid")
		return nil, err
	}

	answers, err := s.Validator.Parse(raw)
	if err != nil {
		recordSubmission("", "invalid")
		return nil, err
	}

	scores, err := CalculateDimensionScores(answers)
	if err != nil {
		recordSubmission(answers.Profession, "invalid")
		return nil, err
	}

	resp := &model.SurveyResponse{
		SurveyAnswers:   *answers,
		DimensionScores: scores,
	}
	if err := s.Store.Create(ctx, resp); err != nil {
		outcome := "storage_error"
		if errors.Is(err, util.ErrStorageUnavailable) {
			outcome = "storage_unavailable"
		}
		recordSubmission(answers.Profession, outcome)
		logger.Log.Error("Failed to store survey response",
			zap.String("profession", string(answers.Profession)),
			zap.Error(err),
		)
		return nil, err
	}

	recordSubmission(resp.Profession, "accepted")
	for _, d := range scores.Values() {
		monitoring.DimensionScore.WithLabelValues(d.Name).Observe(d.Value)
	}
	logger.Log.Info("Survey response stored",
		zap.Uint("id", resp.ID),
		zap.String("profession", string(resp.Profession)),
		zap.Float64("overall_avg", resp.OverallAvg),
	)
	return resp, nil
}

func recordSubmission(profession model.Profession, outcome string) {
	label := string(profession)
	if label == "" {
		label = "unknown"
	}
	monitoring.SubmissionCounter.WithLabelValues(label, outcome).Inc()
}

func (s *SurveyService) notify(ctx context.Context, resp *model.SurveyResponse) {
	if s.Notifier == nil {
		return
	}
	ctx, span := tracing.Tracer.Start(ctx, "SurveyService.notify")
	defer span.End()

	if err := s.Notifier.Notify(ctx, resp); err != nil {
		span.RecordError(err)
		monitoring.NotificationCounter.WithLabelValues("failed").Inc()
		logger.Log.Error("Survey notification failed",
			zap.Uint("response_id", resp.ID),
			zap.Error(err),
		)
		return
	}
	monitoring.NotificationCounter.WithLabelValues("sent").Inc()
}

func (s *SurveyService) invalidateSummaries(ctx context.Context) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Invalidate(ctx); err != nil {
		logger.Log.Warn("Failed to invalidate summary cache", zap.Error(err))
	}
}

func (s *SurveyService) ListResponses(ctx context.Context, filter model.SurveyResponseFilter) ([]model.SurveyResponse, int64, error) {
	return s.Store.List(ctx, filter)
}

func (s *SurveyService) GetResponse(ctx context.Context, id uint) (*model.SurveyResponse, error) {
	return s.Store.FindByID(ctx, id)
}

func (s *SurveyService) SummaryByProfession(ctx context.Context, filter model.SurveyResponseFilter) ([]model.ProfessionSummary, error) {
	gen, cached := s.cacheGeneration(ctx)
	if cached {
		rows, err := s.Cache.GetProfessionSummary(ctx, gen, filter)
		if err == nil {
			monitoring.SummaryCacheCounter.WithLabelValues("hit").Inc()
			return rows, nil
		}
		s.cacheMiss(err)
	}

	rows, err := s.Store.SummaryByProfession(ctx, filter)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []model.ProfessionSummary{}
	}
	if cached {
		if err := s.Cache.SetProfessionSummary(ctx, gen, filter, rows); err != nil {
			logger.Log.Warn("Failed to cache profession summary", zap.Error(err))
		}
	}
	return rows, nil
}

func (s *SurveyService) OverallSummary(ctx context.Context, filter model.SurveyResponseFilter) (*model.OverallSummary, error) {
	gen, cached := s.cacheGeneration(ctx)
	if cached {
		summary, err := s.Cache.GetOverallSummary(ctx, gen, filter)
		if err == nil {
			monitoring.SummaryCacheCounter.WithLabelValues("hit").Inc()
			return summary, nil
		}
		s.cacheMiss(err)
	}

	summary, err := s.Store.OverallSummary(ctx, filter)
	if err != nil {
		return nil, err
	}
	if cached {
		if err := s.Cache.SetOverallSummary(ctx, gen, filter, summary); err != nil {
			logger.Log.Warn("Failed to cache overall summary", zap.Error(err))
		}
	}
	return summary, nil
}

// cacheGeneration 在查询数据库之前读取代号；缓存不可用时直接走数据库
func (s *SurveyService) cacheGeneration(ctx context.Context) (int64, bool) {
	if s.Cache == nil {
		return 0, false
	}
	gen, err := s.Cache.Generation(ctx)
	if err != nil {
		s.cacheMiss(err)
		return 0, false
	}
	return gen, true
}

func (s *SurveyService) cacheMiss(err error) {
	if errors.Is(err, util.ErrCacheMiss) {
		monitoring.SummaryCacheCounter.WithLabelValues("miss").Inc()
		return
	}
	monitoring.SummaryCacheCounter.WithLabelValues("error").Inc()
	logger.Log.Warn("Summary cache read failed", zap.Error(err))
}

// SetOptionPolicy 应用热更新后的选项策略
func (s *SurveyService) SetOptionPolicy(policy string) {
	s.Validator.SetPolicy(policy)
	logger.Log.Info("Survey option policy updated", zap.String("policy", policy))
}
