package repository

import (
	"cbme_survey_backend/internal/model"
	"cbme_survey_backend/internal/util"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const summaryGenerationKey = "survey:summary:gen"

// RedisSummaryCache 按代号缓存统计结果，每次新增回复递增代号，旧条目随之失效。
// 调用方在读取前取一次代号，并用同一代号回写，避免把旧结果写进新一代。
type RedisSummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSummaryCache(client *redis.Client, ttl time.Duration) *RedisSummaryCache {
	return &RedisSummaryCache{client: client, ttl: ttl}
}

// Generation 返回当前代号，尚未有提交时为 0
func (c *RedisSummaryCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, summaryGenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *RedisSummaryCache) GetProfessionSummary(ctx context.Context, gen int64, filter model.SurveyResponseFilter) ([]model.ProfessionSummary, error) {
	var rows []model.ProfessionSummary
	if err := c.get(ctx, summaryKey("professions", gen, filter), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *RedisSummaryCache) SetProfessionSummary(ctx context.Context, gen int64, filter model.SurveyResponseFilter, rows []model.ProfessionSummary) error {
	return c.set(ctx, summaryKey("professions", gen, filter), rows)
}

func (c *RedisSummaryCache) GetOverallSummary(ctx context.Context, gen int64, filter model.SurveyResponseFilter) (*model.OverallSummary, error) {
	var summary model.OverallSummary
	if err := c.get(ctx, summaryKey("overall", gen, filter), &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (c *RedisSummaryCache) SetOverallSummary(ctx context.Context, gen int64, filter model.SurveyResponseFilter, summary *model.OverallSummary) error {
	return c.set(ctx, summaryKey("overall", gen, filter), summary)
}

func (c *RedisSummaryCache) Invalidate(ctx context.Context) error {
	return c.client.Incr(ctx, summaryGenerationKey).Err()
}

func (c *RedisSummaryCache) get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return util.ErrCacheMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func (c *RedisSummaryCache) set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

func summaryKey(kind string, gen int64, f model.SurveyResponseFilter) string {
	ts := func(t *time.Time) string {
		if t == nil {
			return "-"
		}
		return t.UTC().Format(time.RFC3339Nano)
	}
	return fmt.Sprintf("survey:summary:%s:%d:p=%s|c=%s|s=%s|e=%s",
		kind, gen, f.Profession, f.Campus, ts(f.StartDate), ts(f.EndDate))
}
