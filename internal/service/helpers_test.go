package service

import (
	"cbme_survey_backend/internal/config"
	"cbme_survey_backend/internal/model"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func loadSubmission(t *testing.T) []byte {
	t.Helper()
	body, err := os.ReadFile(filepath.Join("testdata", "complete_submission.json"))
	require.NoError(t, err)
	return body
}

// submissionWith returns the fixture with fields overridden; a nil value removes the field.
func submissionWith(t *testing.T, overrides map[string]any) []byte {
	t.Helper()
	raw := loadRaw(t)
	for k, v := range overrides {
		if v == nil {
			delete(raw, k)
			continue
		}
		raw[k] = v
	}
	body, err := json.Marshal(raw)
	require.NoError(t, err)
	return body
}

func loadRaw(t *testing.T) map[string]any {
	t.Helper()
	raw, err := DecodeAnswerSet(loadSubmission(t))
	require.NoError(t, err)
	return raw
}

func parseFixture(t *testing.T) *model.SurveyAnswers {
	t.Helper()
	answers, err := NewSurveyValidator(config.OptionPolicyStrict).Parse(loadRaw(t))
	require.NoError(t, err)
	return answers
}
