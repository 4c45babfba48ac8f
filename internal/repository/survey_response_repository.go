package repository

import (
	"cbme_survey_backend/internal/model"
	"cbme_survey_backend/internal/util"
	"cbme_survey_backend/pkg/database"
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

const dimensionMeansSelect = "COALESCE(AVG(epa_avg), 0) AS avg_epa, " +
	"COALESCE(AVG(tool_avg), 0) AS avg_tool, " +
	"COALESCE(AVG(ccc_avg), 0) AS avg_ccc, " +
	"COALESCE(AVG(eport_avg), 0) AS avg_eport, " +
	"COALESCE(AVG(training_avg), 0) AS avg_training, " +
	"COALESCE(AVG(learner_avg), 0) AS avg_learner, " +
	"COALESCE(AVG(overall_avg), 0) AS avg_overall"

// SurveyResponseRepository 问卷回复存储。未配置数据库时 DB 为 nil，所有操作返回 ErrStorageUnavailable
type SurveyResponseRepository struct {
	DB *gorm.DB
}

func NewSurveyResponseRepository(db *gorm.DB) *SurveyResponseRepository {
	return &SurveyResponseRepository{DB: db}
}

func (r *SurveyResponseRepository) conn(ctx context.Context) (*gorm.DB, error) {
	if r == nil || r.DB == nil {
		return nil, fmt.Errorf("%w: %w", util.ErrStorageUnavailable, database.ErrNotConfigured)
	}
	return r.DB.WithContext(ctx), nil
}

func (r *SurveyResponseRepository) Create(ctx context.Context, resp *model.SurveyResponse) error {
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}
	return classifyError(db.Create(resp).Error)
}

// List 按时间倒序返回匹配的回复，total 为不分页的总数
func (r *SurveyResponseRepository) List(ctx context.Context, filter model.SurveyResponseFilter) ([]model.SurveyResponse, int64, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, 0, err
	}

	query := applyFilter(db.Model(&model.SurveyResponse{}), filter)

	var total int64
	if filter.Paginated() {
		if err := query.Count(&total).Error; err != nil {
			return nil, 0, classifyError(err)
		}
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.Limit).Limit(filter.Limit)
	}

	var responses []model.SurveyResponse
	if err := query.Order("created_at DESC").Order("id DESC").Find(&responses).Error; err != nil {
		return nil, 0, classifyError(err)
	}
	if !filter.Paginated() {
		total = int64(len(responses))
	}
	return responses, total, nil
}

func (r *SurveyResponseRepository) FindByID(ctx context.Context, id uint) (*model.SurveyResponse, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	var resp model.SurveyResponse
	if err := db.First(&resp, id).Error; err != nil {
		return nil, classifyError(err)
	}
	return &resp, nil
}

// SummaryByProfession 按职类分组统计平均分
func (r *SurveyResponseRepository) SummaryByProfession(ctx context.Context, filter model.SurveyResponseFilter) ([]model.ProfessionSummary, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	var rows []model.ProfessionSummary
	err = applyFilter(db.Model(&model.SurveyResponse{}), filter).
		Select("profession, COUNT(*) AS count, " + dimensionMeansSelect).
		Group("profession").
		Order("profession").
		Scan(&rows).Error
	if err != nil {
		return nil, classifyError(err)
	}
	return rows, nil
}

func (r *SurveyResponseRepository) OverallSummary(ctx context.Context, filter model.SurveyResponseFilter) (*model.OverallSummary, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	var summary model.OverallSummary
	err = applyFilter(db.Model(&model.SurveyResponse{}), filter).
		Select("COUNT(*) AS total_responses, " + dimensionMeansSelect).
		Scan(&summary).Error
	if err != nil {
		return nil, classifyError(err)
	}
	return &summary, nil
}

// Ping 健康检查使用
func (r *SurveyResponseRepository) Ping(ctx context.Context) error {
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return classifyError(err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", util.ErrStorageUnavailable, err)
	}
	return nil
}

func applyFilter(db *gorm.DB, filter model.SurveyResponseFilter) *gorm.DB {
	if filter.Profession != "" {
		db = db.Where("profession = ?", filter.Profession)
	}
	if filter.Campus != "" {
		db = db.Where("campus = ?", filter.Campus)
	}
	if filter.StartDate != nil {
		db = db.Where("created_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		db = db.Where("created_at <= ?", *filter.EndDate)
	}
	return db
}

// classifyError 将驱动错误归类为存储错误类型
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrResponseNotFound
	}
	if isConnectionError(err) {
		return fmt.Errorf("%w: %v", util.ErrStorageUnavailable, err)
	}
	return fmt.Errorf("%w: %v", util.ErrStorageError, err)
}

func isConnectionError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, mysql.ErrInvalidConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	return strings.Contains(err.Error(), "database is closed")
}
