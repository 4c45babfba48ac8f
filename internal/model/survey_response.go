package model

import (
	"time"

	"gorm.io/datatypes"
)

// StringList 多选答案，以 JSON 数组存储
type StringList = datatypes.JSONSlice[string]

// SurveyAnswers 填答者提交的答案。validate 标签描述校验后的严格结构，
// option=<table> 指向 OptionTables
type SurveyAnswers struct {
	// 基本资料
	Campus         string     `gorm:"size:50;not null" json:"campus" validate:"required,option=campus"`
	Profession     Profession `gorm:"size:10;not null;index" json:"profession" validate:"required,option=profession"`
	RespondentName string     `gorm:"size:255;not null" json:"respondentName" validate:"required,max=255"`
	Title          string     `gorm:"size:255;not null" json:"title" validate:"required,max=255"`
	Department     string     `gorm:"size:255;not null" json:"department" validate:"required,max=255"`
	Email          string     `gorm:"size:320;not null" json:"email" validate:"required,max=320,email"`

	// EPA 设计与实施
	EpaDesignCompletion     int        `gorm:"not null" json:"epaDesignCompletion" validate:"required,min=1,max=5"`
	EpaCount                string     `gorm:"size:50;not null" json:"epaCount" validate:"required,option=epa_count"`
	EpaEntrustmentLevel     int        `gorm:"not null" json:"epaEntrustmentLevel" validate:"required,min=1,max=5"`
	EpaMilestoneDescription int        `gorm:"not null" json:"epaMilestoneDescription" validate:"required,min=1,max=5"`
	EpaTeacherUnderstanding int        `gorm:"not null" json:"epaTeacherUnderstanding" validate:"required,min=1,max=5"`
	EpaVerificationProcess  int        `gorm:"not null" json:"epaVerificationProcess" validate:"required,min=1,max=5"`
	EpaRevisionCycle        string     `gorm:"size:50;not null" json:"epaRevisionCycle" validate:"required,option=epa_revision_cycle"`
	EpaChallenges           string     `gorm:"type:text" json:"epaChallenges,omitempty" validate:"max=5000"`
	EpaSupport              StringList `json:"epaSupport,omitempty" validate:"omitempty,dive,option=epa_support"`
	EpaSupportOther         string     `gorm:"type:text" json:"epaSupportOther,omitempty" validate:"max=5000"`

	// 评量工具
	ToolMinicex              int    `gorm:"not null" json:"toolMinicex" validate:"required,min=1,max=5"`
	ToolDops                 int    `gorm:"not null" json:"toolDops" validate:"required,min=1,max=5"`
	ToolMsf                  int    `gorm:"not null" json:"toolMsf" validate:"required,min=1,max=5"`
	ToolObservationFrequency string `gorm:"size:50;not null" json:"toolObservationFrequency" validate:"required,option=direct_observation"`
	ToolBurden               int    `gorm:"not null" json:"toolBurden" validate:"required,min=1,max=5"`
	ToolCalibration          string `gorm:"size:50;not null" json:"toolCalibration" validate:"required,option=calibration_frequency"`
	ToolFeedbackQuality      int    `gorm:"not null" json:"toolFeedbackQuality" validate:"required,min=1,max=5"`
	ToolFeedbackTiming       string `gorm:"size:50;not null" json:"toolFeedbackTiming" validate:"required,option=feedback_timing"`
	ToolOtherTools           string `gorm:"type:text" json:"toolOtherTools,omitempty" validate:"max=5000"`
	ToolChallenges           string `gorm:"type:text" json:"toolChallenges,omitempty" validate:"max=5000"`

	// CCC 运作
	CccEstablishment       string `gorm:"size:50;not null" json:"cccEstablishment" validate:"required,option=ccc_establishment"`
	CccMemberCount         string `gorm:"size:50;not null" json:"cccMemberCount" validate:"required,option=ccc_member_count"`
	CccFrequency           string `gorm:"size:50;not null" json:"cccFrequency" validate:"required,option=ccc_frequency"`
	CccClarity             int    `gorm:"not null" json:"cccClarity" validate:"required,min=1,max=5"`
	CccPrescription        string `gorm:"size:50;not null" json:"cccPrescription" validate:"required,option=ccc_prescription"`
	CccCaseRecordStandard  string `gorm:"size:50;not null" json:"cccCaseRecordStandard" validate:"required,option=yes_no_planning"`
	CccRemediationTracking string `gorm:"size:50;not null" json:"cccRemediationTracking" validate:"required,option=yes_no_planning"`
	CccChallenges          string `gorm:"type:text" json:"cccChallenges,omitempty" validate:"max=5000"`
	CccChallengesOther     string `gorm:"type:text" json:"cccChallengesOther,omitempty" validate:"max=5000"`

	// e-Portfolio
	EportImplementation string     `gorm:"size:50;not null" json:"eportImplementation" validate:"required,option=eport_implementation"`
	EportType           StringList `json:"eportType,omitempty" validate:"omitempty,dive,option=eport_type"`
	EportTypeOther      string     `gorm:"type:text" json:"eportTypeOther,omitempty" validate:"max=5000"`
	EportFunctionality  int        `gorm:"not null" json:"eportFunctionality" validate:"required,min=1,max=5"`
	EportSatisfaction   int        `gorm:"not null" json:"eportSatisfaction" validate:"required,min=1,max=5"`
	EportAnalyticsUsage int        `gorm:"not null" json:"eportAnalyticsUsage" validate:"required,min=1,max=5"`
	EportMobile         string     `gorm:"size:50;not null" json:"eportMobile" validate:"required,option=eport_mobile"`
	EportSuggestions    string     `gorm:"type:text" json:"eportSuggestions,omitempty" validate:"max=5000"`

	// 师资培训
	TrainingCompletion            string     `gorm:"size:50;not null" json:"trainingCompletion" validate:"required,option=training_completion"`
	TrainingTopics                StringList `json:"trainingTopics,omitempty" validate:"omitempty,dive,option=training_topics"`
	TrainingMethods               StringList `json:"trainingMethods,omitempty" validate:"omitempty,dive,option=training_methods"`
	TrainingMethodsOther          string     `gorm:"type:text" json:"trainingMethodsOther,omitempty" validate:"max=5000"`
	TrainingEngagement            int        `gorm:"not null" json:"trainingEngagement" validate:"required,min=1,max=5"`
	TrainingSeedTeacher           string     `gorm:"size:50;not null" json:"trainingSeedTeacher" validate:"required,option=yes_no_planning"`
	TrainingSupportMechanism      StringList `json:"trainingSupportMechanism,omitempty" validate:"omitempty,dive,option=training_support"`
	TrainingSupportMechanismOther string     `gorm:"type:text" json:"trainingSupportMechanismOther,omitempty" validate:"max=5000"`
	TrainingNeeds                 string     `gorm:"type:text" json:"trainingNeeds,omitempty" validate:"max=5000"`

	// 学员参与
	LearnerUnderstanding            int    `gorm:"not null" json:"learnerUnderstanding" validate:"required,min=1,max=5"`
	LearnerEngagement               int    `gorm:"not null" json:"learnerEngagement" validate:"required,min=1,max=5"`
	LearnerSatisfaction             int    `gorm:"not null" json:"learnerSatisfaction" validate:"required,min=1,max=5"`
	LearnerEffectiveness            int    `gorm:"not null" json:"learnerEffectiveness" validate:"required,min=1,max=5"`
	LearnerFeedbackSeekingFrequency int    `gorm:"not null" json:"learnerFeedbackSeekingFrequency" validate:"required,min=1,max=5"`
	LearnerSelfAssessmentHabit      int    `gorm:"not null" json:"learnerSelfAssessmentHabit" validate:"required,min=1,max=5"`
	LearnerFeedback                 string `gorm:"type:text" json:"learnerFeedback,omitempty" validate:"max=5000"`
	LearnerOtherFeedback            string `gorm:"type:text" json:"learnerOtherFeedback,omitempty" validate:"max=5000"`

	// 整体评估
	OverallProgress    int        `gorm:"not null" json:"overallProgress" validate:"required,min=1,max=5"`
	ChallengeRanking   StringList `json:"challengeRanking,omitempty"`
	ChallengeOtherText string     `gorm:"type:text" json:"challengeOtherText,omitempty" validate:"max=5000"`
	SuccessStories     string     `gorm:"type:text" json:"successStories,omitempty" validate:"max=5000"`
	Suggestions        string     `gorm:"type:text" json:"suggestions,omitempty" validate:"max=5000"`
}

// DimensionScores 服务端计算的各构面平均分
type DimensionScores struct {
	EpaAvg      float64 `gorm:"not null" json:"epaAvg"`
	ToolAvg     float64 `gorm:"not null" json:"toolAvg"`
	CccAvg      float64 `gorm:"not null" json:"cccAvg"`
	EportAvg    float64 `gorm:"not null" json:"eportAvg"`
	TrainingAvg float64 `gorm:"not null" json:"trainingAvg"`
	LearnerAvg  float64 `gorm:"not null" json:"learnerAvg"`
	OverallAvg  float64 `gorm:"not null" json:"overallAvg"`
}

type DimensionValue struct {
	Name  string
	Value float64
}

// Values 按报表顺序列出各平均分
func (s DimensionScores) Values() []DimensionValue {
	return []DimensionValue{
		{"epa", s.EpaAvg},
		{"tool", s.ToolAvg},
		{"ccc", s.CccAvg},
		{"eport", s.EportAvg},
		{"training", s.TrainingAvg},
		{"learner", s.LearnerAvg},
		{"overall", s.OverallAvg},
	}
}

// SurveyResponse 一份问卷回复，只增不改
type SurveyResponse struct {
	BaseModel
	SurveyAnswers
	DimensionScores
}

func (SurveyResponse) TableName() string {
	return "survey_responses"
}

// SurveyResponseFilter 列表与统计查询条件，已设置的字段按 AND 组合
type SurveyResponseFilter struct {
	Profession Profession
	Campus     string
	StartDate  *time.Time
	EndDate    *time.Time
	Page       int
	Limit      int
}

func (f SurveyResponseFilter) Paginated() bool {
	return f.Limit > 0
}
