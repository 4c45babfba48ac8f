package service

import (
	"cbme_survey_backend/internal/model"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	emailRule       = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"
	emailUnanswered = "未填"
	emailNone       = "無"
	otherOption     = "other"
)

var likertPrefix = regexp.MustCompile(`^[0-9]+\s*-\s*`)

// SurveyEmail 一份回复的纯文本通知
type SurveyEmail struct {
	Subject string
	Body    string
}

// FormatSurveyEmail 生成纯文本摘要，标签取自选项表，未知取值原样显示
func FormatSurveyEmail(r *model.SurveyResponse, loc *time.Location) SurveyEmail {
	if loc == nil {
		loc = time.Local
	}
	campus := model.CampusOptions.LabelOr(r.Campus)
	profession := r.Profession.Name()
	submittedAt := r.CreatedAt
	if submittedAt.IsZero() {
		submittedAt = time.Now()
	}

	lines := []string{
		emailRule,
		"CBME 執行狀況調查問卷回覆",
		emailRule,
		"",
		"📋 基本資料",
		fmtItem("院區", campus),
		fmtItem("職類", profession),
		fmtItem("姓名", fmtText(r.RespondentName)),
		fmtItem("職稱", fmtText(r.Title)),
		fmtItem("部門", fmtText(r.Department)),
		fmtItem("Email", fmtText(r.Email)),
		"",
		fmtSection("EPA 設計與實施"),
		fmtItem("設計完成度", fmtLikert(r.EpaDesignCompletion, model.LikertScaleOptions)),
		fmtItem("EPA 數量", fmtOption(r.EpaCount, model.EpaCountOptions)),
		fmtItem("信任等級明確度", fmtOrdinal(r.EpaEntrustmentLevel)),
		fmtItem("里程碑行為對應", fmtOrdinal(r.EpaMilestoneDescription)),
		fmtItem("教師理解度", fmtOrdinal(r.EpaTeacherUnderstanding)),
		fmtItem("驗證流程建立", fmtLikert(r.EpaVerificationProcess, model.LikertScaleOptions)),
		fmtItem("修訂週期", fmtOption(r.EpaRevisionCycle, model.EpaRevisionCycleOptions)),
		fmtItem("所需支援", fmtMultiOther(r.EpaSupport, r.EpaSupportOther, model.EpaSupportOptions)),
		fmtItem("挑戰", fmtText(r.EpaChallenges)),
		"",
		fmtSection("評量工具"),
		fmtItem("Mini-CEX 使用", fmtOrdinal(r.ToolMinicex)),
		fmtItem("DOPS 使用", fmtOrdinal(r.ToolDops)),
		fmtItem("MSF 使用", fmtOrdinal(r.ToolMsf)),
		fmtItem("直接觀察次數", fmtOption(r.ToolObservationFrequency, model.DirectObservationOptions)),
		fmtItem("評量負擔感受", fmtLikert(r.ToolBurden, model.AssessmentBurdenOptions)),
		fmtItem("校準機制", fmtOption(r.ToolCalibration, model.CalibrationFrequencyOptions)),
		fmtItem("回饋品質", fmtOrdinal(r.ToolFeedbackQuality)),
		fmtItem("回饋及時性", fmtOption(r.ToolFeedbackTiming, model.FeedbackTimingOptions)),
		fmtItem("其他評量工具", fmtText(r.ToolOtherTools)),
		fmtItem("挑戰", fmtText(r.ToolChallenges)),
		"",
		fmtSection("CCC 運作"),
		fmtItem("成立狀況", fmtOption(r.CccEstablishment, model.CCCEstablishmentOptions)),
		fmtItem("委員人數", fmtOption(r.CccMemberCount, model.CCCMemberCountOptions)),
		fmtItem("會議頻率", fmtOption(r.CccFrequency, model.CCCFrequencyOptions)),
		fmtItem("決策流程", fmtOrdinal(r.CccClarity)),
		fmtItem("學習處方使用", fmtOption(r.CccPrescription, model.CCCPrescriptionOptions)),
		fmtItem("標準化記錄格式", fmtOption(r.CccCaseRecordStandard, model.YesNoPlanningOptions)),
		fmtItem("補救教學追蹤", fmtOption(r.CccRemediationTracking, model.YesNoPlanningOptions)),
		fmtItem("挑戰", fmtText(r.CccChallenges)),
		fmtItem("其他挑戰", fmtText(r.CccChallengesOther)),
		"",
		fmtSection("e-Portfolio"),
		fmtItem("系統導入", fmtOption(r.EportImplementation, model.EportImplementationOptions)),
		fmtItem("系統類型", fmtMultiOther(r.EportType, r.EportTypeOther, model.EportTypeOptions)),
		fmtItem("功能完整性", fmtOrdinal(r.EportFunctionality)),
		fmtItem("使用者滿意度", fmtOrdinal(r.EportSatisfaction)),
		fmtItem("數據分析使用", fmtOrdinal(r.EportAnalyticsUsage)),
		fmtItem("行動裝置支援", fmtOption(r.EportMobile, model.EportMobileOptions)),
		fmtItem("建議", fmtText(r.EportSuggestions)),
		"",
		fmtSection("師資培訓"),
		fmtItem("基礎培訓完成率", fmtOption(r.TrainingCompletion, model.TrainingCompletionOptions)),
		fmtItem("培訓內容", fmtMulti(r.TrainingTopics, model.TrainingTopicsOptions)),
		fmtItem("培訓方式", fmtMultiOther(r.TrainingMethods, r.TrainingMethodsOther, model.TrainingMethodsOptions)),
		fmtItem("教師投入度", fmtOrdinal(r.TrainingEngagement)),
		fmtItem("種子教師機制", fmtOption(r.TrainingSeedTeacher, model.YesNoPlanningOptions)),
		fmtItem("持續支持機制", fmtMultiOther(r.TrainingSupportMechanism, r.TrainingSupportMechanismOther, model.TrainingSupportOptions)),
		fmtItem("培訓需求", fmtText(r.TrainingNeeds)),
		"",
		fmtSection("學員參與"),
		fmtItem("理解程度", fmtOrdinal(r.LearnerUnderstanding)),
		fmtItem("參與度", fmtOrdinal(r.LearnerEngagement)),
		fmtItem("滿意度", fmtOrdinal(r.LearnerSatisfaction)),
		fmtItem("成效觀察", fmtOrdinal(r.LearnerEffectiveness)),
		fmtItem("主動尋求回饋頻率", fmtOrdinal(r.LearnerFeedbackSeekingFrequency)),
		fmtItem("自我評估習慣", fmtOrdinal(r.LearnerSelfAssessmentHabit)),
		fmtItem("學員反饋", fmtText(r.LearnerFeedback)),
		fmtItem("其他回饋", fmtText(r.LearnerOtherFeedback)),
		"",
		fmtSection("整體評估"),
		fmtItem("整體進度", fmtLikert(r.OverallProgress, model.OverallProgressOptions)),
		"• 挑戰排序：",
		"  " + fmtRanking(r.ChallengeRanking),
		fmtItem("其他挑戰補充", fmtText(r.ChallengeOtherText)),
		fmtItem("成功經驗", fmtText(r.SuccessStories)),
		fmtItem("建議", fmtText(r.Suggestions)),
		"",
		fmtSection("構面分數"),
		fmtItem("EPA", fmtScore(r.EpaAvg)),
		fmtItem("評量工具", fmtScore(r.ToolAvg)),
		fmtItem("CCC", fmtScore(r.CccAvg)),
		fmtItem("e-Portfolio", fmtScore(r.EportAvg)),
		fmtItem("師資培訓", fmtScore(r.TrainingAvg)),
		fmtItem("學員參與", fmtScore(r.LearnerAvg)),
		fmtItem("整體", fmtScore(r.OverallAvg)),
		"",
		emailRule,
		"填答時間：" + submittedAt.In(loc).Format("2006/1/2 15:04:05"),
		emailRule,
	}

	return SurveyEmail{
		Subject: fmt.Sprintf("【CBME問卷】%s - %s - %s", profession, campus, r.RespondentName),
		Body:    strings.Join(lines, "\n"),
	}
}

func fmtSection(title string) string {
	return "━━━ " + title + " ━━━"
}

func fmtItem(label, value string) string {
	return "• " + label + "：" + value
}

func fmtText(s string) string {
	if strings.TrimSpace(s) == "" {
		return emailUnanswered
	}
	return s
}

func fmtOrdinal(v int) string {
	if v == 0 {
		return emailUnanswered
	}
	return strconv.Itoa(v)
}

func fmtScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func fmtOption(value string, options model.OptionSet) string {
	if value == "" {
		return emailUnanswered
	}
	return options.LabelOr(value)
}

// fmtLikert 输出 "4 (标签)"，去掉标签开头的 "4 - "
func fmtLikert(v int, scale model.LikertScale) string {
	if v == 0 {
		return emailUnanswered
	}
	label, ok := scale.Label(v)
	if !ok {
		return strconv.Itoa(v)
	}
	return fmt.Sprintf("%d (%s)", v, likertPrefix.ReplaceAllString(label, ""))
}

func fmtMulti(values []string, options model.OptionSet) string {
	if len(values) == 0 {
		return emailNone
	}
	labels := make([]string, len(values))
	for i, v := range values {
		labels[i] = options.LabelOr(v)
	}
	return strings.Join(labels, ", ")
}

// fmtMultiOther 将“其他”选项与补充文字合并显示
func fmtMultiOther(values []string, other string, options model.OptionSet) string {
	other = strings.TrimSpace(other)
	labels := make([]string, 0, len(values)+1)
	hasOther := false
	for _, v := range values {
		if v == otherOption {
			hasOther = true
			continue
		}
		labels = append(labels, options.LabelOr(v))
	}
	switch {
	case other != "":
		labels = append(labels, "其他："+other)
	case hasOther:
		labels = append(labels, "其他")
	}
	if len(labels) == 0 {
		return emailNone
	}
	return strings.Join(labels, ", ")
}

func fmtRanking(ids []string) string {
	if len(ids) == 0 {
		return emailUnanswered
	}
	lines := make([]string, len(ids))
	for i, id := range ids {
		lines[i] = fmt.Sprintf("%d. %s", i+1, model.ChallengeOptions.LabelOr(id))
	}
	return strings.Join(lines, "\n  ")
}
