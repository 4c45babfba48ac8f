package service

import (
	"cbme_survey_backend/internal/model"
	"cbme_survey_backend/internal/util"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateDimensionScores_Fixture(t *testing.T) {
	answers := parseFixture(t)

	scores, err := CalculateDimensionScores(answers)
	require.NoError(t, err)

	assert.Equal(t, 5.00, scores.EpaAvg)
	assert.Equal(t, 3.00, scores.ToolAvg)
	assert.Equal(t, 3.50, scores.CccAvg, "established maps to 3, clarity 4")
	assert.Equal(t, 2.00, scores.EportAvg)
	assert.Equal(t, 4.00, scores.TrainingAvg)
	assert.Equal(t, 5.00, scores.LearnerAvg)
	assert.Equal(t, 3.75, scores.OverallAvg)
}

func TestCalculateDimensionScores_FourItemMeans(t *testing.T) {
	base := parseFixture(t)
	for a := 1; a <= 5; a++ {
		for b := 1; b <= 5; b++ {
			for c := 1; c <= 5; c++ {
				for d := 1; d <= 5; d++ {
					answers := *base
					answers.EpaDesignCompletion, answers.EpaEntrustmentLevel, answers.EpaMilestoneDescription, answers.EpaTeacherUnderstanding = a, b, c, d
					answers.ToolMinicex, answers.ToolDops, answers.ToolMsf, answers.ToolFeedbackQuality = a, b, c, d
					answers.LearnerUnderstanding, answers.LearnerEngagement, answers.LearnerSatisfaction, answers.LearnerEffectiveness = a, b, c, d

					scores, err := CalculateDimensionScores(&answers)
					require.NoError(t, err)

					want := round2(float64(a+b+c+d) / 4)
					assert.Equal(t, want, scores.EpaAvg)
					assert.Equal(t, want, scores.ToolAvg)
					assert.Equal(t, want, scores.LearnerAvg)
				}
			}
		}
	}
}

func TestCalculateDimensionScores_RunningWell(t *testing.T) {
	answers := parseFixture(t)
	answers.CccEstablishment = "running_well"
	answers.CccClarity = 5

	scores, err := CalculateDimensionScores(answers)
	require.NoError(t, err)
	assert.Equal(t, 5.00, scores.CccAvg)
}

func TestCalculateDimensionScores_EstablishmentTable(t *testing.T) {
	cases := map[string]float64{
		"not_established":         1,
		"planning":                2,
		"established_not_running": 3,
		"established":             3,
		"running":                 4,
		"running_well":            5,
	}
	for code, establishment := range cases {
		t.Run(code, func(t *testing.T) {
			answers := parseFixture(t)
			answers.CccEstablishment = code
			answers.CccClarity = 1

			scores, err := CalculateDimensionScores(answers)
			require.NoError(t, err)
			assert.Equal(t, round2((establishment+1)/2), scores.CccAvg)
		})
	}
}

func TestCalculateDimensionScores_OverallIsMeanOfRoundedMeans(t *testing.T) {
	answers := parseFixture(t)
	// epa 4.25, tool 3.75, ccc 4.5, eport 3.5, training 2, learner 3.25
	answers.EpaDesignCompletion, answers.EpaEntrustmentLevel, answers.EpaMilestoneDescription, answers.EpaTeacherUnderstanding = 5, 4, 4, 4
	answers.ToolMinicex, answers.ToolDops, answers.ToolMsf, answers.ToolFeedbackQuality = 4, 4, 4, 3
	answers.CccEstablishment, answers.CccClarity = "running", 5
	answers.EportFunctionality, answers.EportSatisfaction = 3, 4
	answers.TrainingEngagement = 2
	answers.LearnerUnderstanding, answers.LearnerEngagement, answers.LearnerSatisfaction, answers.LearnerEffectiveness = 4, 3, 3, 3

	scores, err := CalculateDimensionScores(answers)
	require.NoError(t, err)

	rawFields := []int{5, 4, 4, 4, 4, 4, 4, 3, 4, 5, 3, 4, 2, 4, 3, 3, 3}
	sum := 0
	for _, v := range rawFields {
		sum += v
	}
	flatMean := round2(float64(sum) / float64(len(rawFields)))

	// (4.25 + 3.75 + 4.5 + 3.5 + 2 + 3.25) / 6 = 3.5416...
	assert.Equal(t, 3.54, scores.OverallAvg)
	assert.NotEqual(t, flatMean, scores.OverallAvg)
}

func TestCalculateDimensionScores_RoundsHalfAwayFromZero(t *testing.T) {
	answers := parseFixture(t)
	answers.EpaDesignCompletion, answers.EpaEntrustmentLevel, answers.EpaMilestoneDescription, answers.EpaTeacherUnderstanding = 1, 1, 1, 2
	scores, err := CalculateDimensionScores(answers)
	require.NoError(t, err)
	assert.Equal(t, 1.25, scores.EpaAvg)

	assert.Equal(t, 0.13, round2(0.125))
	assert.Equal(t, 2.67, round2(8.0/3))
	assert.Equal(t, 3.33, round2(10.0/3))
}

func TestCalculateDimensionScores_Deterministic(t *testing.T) {
	answers := parseFixture(t)

	first, err := CalculateDimensionScores(answers)
	require.NoError(t, err)
	second, err := CalculateDimensionScores(answers)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCalculateDimensionScores_RejectsUnknownEstablishment(t *testing.T) {
	answers := parseFixture(t)
	answers.CccEstablishment = "dissolved"

	_, err := CalculateDimensionScores(answers)
	require.Error(t, err)

	var verr *util.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"cccEstablishment"}, verr.FieldNames())
}

func TestCalculateDimensionScores_RejectsMissingOrdinals(t *testing.T) {
	answers := parseFixture(t)
	answers.ToolMsf = 0
	answers.LearnerEngagement = 7

	_, err := CalculateDimensionScores(answers)

	var verr *util.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"toolMsf", "learnerEngagement"}, verr.FieldNames())
}

func TestDimensionScoresValuesOrder(t *testing.T) {
	s := model.DimensionScores{EpaAvg: 1, ToolAvg: 2, CccAvg: 3, EportAvg: 4, TrainingAvg: 5, LearnerAvg: 1.5, OverallAvg: 2.5}
	names := []string{}
	for _, d := range s.Values() {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"epa", "tool", "ccc", "eport", "training", "learner", "overall"}, names)
}
