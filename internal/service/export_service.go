package service

import (
	"bytes"
	"cbme_survey_backend/internal/model"
	"cbme_survey_backend/internal/util"
	"cbme_survey_backend/pkg/logger"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// utf8BOM 便于电子表格识别中文编码
const utf8BOM = "\uFEFF"

type ExportService struct {
	Store    SurveyStore
	Storage  StorageProvider
	Location *time.Location
	now      func() time.Time
}

func NewExportService(store SurveyStore, storage StorageProvider, loc *time.Location) *ExportService {
	if loc == nil {
		loc = time.Local
	}
	return &ExportService{Store: store, Storage: storage, Location: loc, now: time.Now}
}

// ArchiveResult 已写入存储的导出文件
type ArchiveResult struct {
	Key  string `json:"key"`
	URL  string `json:"url"`
	Rows int    `json:"rows"`
}

func exportHeader() []string {
	header := []string{"id", "createdAt"}
	for _, f := range answerFields {
		header = append(header, f.name)
	}
	for _, d := range (model.DimensionScores{}).Values() {
		header = append(header, d.Name+"Avg")
	}
	return header
}

func (s *ExportService) exportRow(r *model.SurveyResponse) []string {
	row := []string{
		strconv.FormatUint(uint64(r.ID), 10),
		r.CreatedAt.In(s.Location).Format(time.RFC3339),
	}
	rv := reflect.ValueOf(r.SurveyAnswers)
	for _, f := range answerFields {
		fv := rv.Field(f.index)
		switch {
		case fv.Type() == stringListType:
			row = append(row, csvText(strings.Join(fv.Interface().(model.StringList), ";")))
		case fv.Kind() == reflect.Int:
			row = append(row, strconv.FormatInt(fv.Int(), 10))
		default:
			row = append(row, csvText(fv.String()))
		}
	}
	for _, d := range r.DimensionScores.Values() {
		row = append(row, strconv.FormatFloat(d.Value, 'f', 2, 64))
	}
	return row
}

// csvText 给可能被电子表格当作公式执行的文字加上 ' 前缀
func csvText(v string) string {
	if v != "" && strings.ContainsRune("=+-@\t\r", rune(v[0])) {
		return "'" + v
	}
	return v
}

// WriteCSV 按时间倒序写出筛选后的回复，返回行数
func (s *ExportService) WriteCSV(ctx context.Context, w io.Writer, filter model.SurveyResponseFilter) (int, error) {
	filter.Page, filter.Limit = 0, 0
	responses, _, err := s.Store.List(ctx, filter)
	if err != nil {
		return 0, err
	}

	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return 0, err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader()); err != nil {
		return 0, err
	}
	for i := range responses {
		if err := cw.Write(s.exportRow(&responses[i])); err != nil {
			return 0, err
		}
	}
	cw.Flush()
	return len(responses), cw.Error()
}

// Archive 将 CSV 导出保存到 exports/ 并返回地址
func (s *ExportService) Archive(ctx context.Context, filter model.SurveyResponseFilter) (*ArchiveResult, error) {
	var buf bytes.Buffer
	rows, err := s.WriteCSV(ctx, &buf, filter)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("exports/survey-responses-%s-%s.csv",
		s.now().In(s.Location).Format("20060102T150405"), uuid.NewString())
	url, err := s.Storage.Upload(ctx, key, bytes.NewReader(buf.Bytes()), int64(buf.Len()), util.MimeCSV)
	if err != nil {
		return nil, fmt.Errorf("upload export: %w", err)
	}

	logger.Log.Info("Survey export archived", zap.String("key", key), zap.Int("rows", rows))
	return &ArchiveResult{Key: key, URL: url, Rows: rows}, nil
}
