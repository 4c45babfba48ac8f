package service

import (
	"cbme_survey_backend/internal/model"
	"cbme_survey_backend/internal/util"
	"fmt"
	"math"
)

// round2 四舍五入到两位小数
func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

type scoreItem struct {
	field string
	value int
}

// CalculateDimensionScores 计算七个构面平均分。各构面为题目的简单平均并取两位小数，
// overallAvg 为六个已取整构面平均分的平均
func CalculateDimensionScores(a *model.SurveyAnswers) (model.DimensionScores, error) {
	verr := util.NewValidationError(util.MsgValidationFailed)

	establishment, ok := model.ParseCCCEstablishment(a.CccEstablishment).Score()
	if !ok {
		verr.Add("cccEstablishment", fmt.Sprintf("無法評分的 CCC 建置狀態：%q", a.CccEstablishment))
	}

	mean := func(items ...scoreItem) float64 {
		sum := 0
		for _, item := range items {
			if item.value < 1 || item.value > 5 {
				verr.Add(item.field, "必須為 1 到 5 的整數")
			}
			sum += item.value
		}
		return round2(float64(sum) / float64(len(items)))
	}

	s := model.DimensionScores{
		EpaAvg: mean(
			scoreItem{"epaDesignCompletion", a.EpaDesignCompletion},
			scoreItem{"epaEntrustmentLevel", a.EpaEntrustmentLevel},
			scoreItem{"epaMilestoneDescription", a.EpaMilestoneDescription},
			scoreItem{"epaTeacherUnderstanding", a.EpaTeacherUnderstanding},
		),
		ToolAvg: mean(
			scoreItem{"toolMinicex", a.ToolMinicex},
			scoreItem{"toolDops", a.ToolDops},
			scoreItem{"toolMsf", a.ToolMsf},
			scoreItem{"toolFeedbackQuality", a.ToolFeedbackQuality},
		),
		CccAvg: mean(
			scoreItem{"cccEstablishment", establishment},
			scoreItem{"cccClarity", a.CccClarity},
		),
		EportAvg: mean(
			scoreItem{"eportFunctionality", a.EportFunctionality},
			scoreItem{"eportSatisfaction", a.EportSatisfaction},
		),
		TrainingAvg: mean(
			scoreItem{"trainingEngagement", a.TrainingEngagement},
		),
		LearnerAvg: mean(
			scoreItem{"learnerUnderstanding", a.LearnerUnderstanding},
			scoreItem{"learnerEngagement", a.LearnerEngagement},
			scoreItem{"learnerSatisfaction", a.LearnerSatisfaction},
			scoreItem{"learnerEffectiveness", a.LearnerEffectiveness},
		),
	}

	if verr.HasErrors() {
		// 无法计分的建置状态已带有错误信息
		return model.DimensionScores{}, dedupeFields(verr)
	}

	s.OverallAvg = round2((s.EpaAvg + s.ToolAvg + s.CccAvg + s.EportAvg + s.TrainingAvg + s.LearnerAvg) / 6)
	return s, nil
}

func dedupeFields(verr *util.ValidationError) *util.ValidationError {
	out := util.NewValidationError(verr.Message)
	seen := make(map[string]bool, len(verr.Fields))
	for _, f := range verr.Fields {
		if seen[f.Field] {
			continue
		}
		seen[f.Field] = true
		out.Add(f.Field, f.Message)
	}
	return out
}
