package model

// DimensionMeans 各回复平均分的算术平均
type DimensionMeans struct {
	AvgEpa      float64 `gorm:"column:avg_epa" json:"avgEpa"`
	AvgTool     float64 `gorm:"column:avg_tool" json:"avgTool"`
	AvgCcc      float64 `gorm:"column:avg_ccc" json:"avgCcc"`
	AvgEport    float64 `gorm:"column:avg_eport" json:"avgEport"`
	AvgTraining float64 `gorm:"column:avg_training" json:"avgTraining"`
	AvgLearner  float64 `gorm:"column:avg_learner" json:"avgLearner"`
	AvgOverall  float64 `gorm:"column:avg_overall" json:"avgOverall"`
}

// ProfessionSummary 按职类分组的统计
type ProfessionSummary struct {
	Profession Profession `gorm:"column:profession" json:"profession"`
	Count      int64      `gorm:"column:count" json:"count"`
	DimensionMeans
}

// OverallSummary 全部回复的统计
type OverallSummary struct {
	TotalResponses int64 `gorm:"column:total_responses" json:"totalResponses"`
	DimensionMeans
}
