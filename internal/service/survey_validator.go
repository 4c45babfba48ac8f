package service

import (
	"bytes"
	"cbme_survey_backend/internal/config"
	"cbme_survey_backend/internal/model"
	"cbme_survey_backend/internal/util"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/go-playground/validator/v10"
)

// identityFields 必须先于其他字段检查
var identityFields = []string{"campus", "profession", "respondentName", "email"}

// 宽松模式下仍严格校验的选项表：职类属于数据模型，建置状态参与计分
var alwaysStrictTables = map[string]bool{
	"profession":        true,
	"ccc_establishment": true,
}

const challengeRankingField = "challengeRanking"

type answerField struct {
	index int
	name  string
}

var (
	stringListType = reflect.TypeOf(model.StringList{})
	answerFields   = collectAnswerFields()
)

// collectAnswerFields 按声明顺序（即表单顺序）列出答案字段
func collectAnswerFields() []answerField {
	t := reflect.TypeOf(model.SurveyAnswers{})
	fields := make([]answerField, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name := jsonName(t.Field(i))
		if name == "" {
			continue
		}
		fields = append(fields, answerField{index: i, name: name})
	}
	return fields
}

func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

// SurveyValidator 将松散类型的答案转换为 model.SurveyAnswers，可并发使用
type SurveyValidator struct {
	validate *validator.Validate
	lenient  atomic.Bool
}

func NewSurveyValidator(policy string) *SurveyValidator {
	v := &SurveyValidator{validate: validator.New()}
	v.validate.RegisterTagNameFunc(jsonName)
	if err := v.validate.RegisterValidation("option", v.validateOption); err != nil {
		panic(err)
	}
	v.SetPolicy(policy)
	return v
}

// SetPolicy 切换严格/宽松选项校验
func (v *SurveyValidator) SetPolicy(policy string) {
	v.lenient.Store(policy == config.OptionPolicyLenient)
}

func (v *SurveyValidator) Policy() string {
	if v.lenient.Load() {
		return config.OptionPolicyLenient
	}
	return config.OptionPolicyStrict
}

func (v *SurveyValidator) validateOption(fl validator.FieldLevel) bool {
	table, ok := model.OptionTables[fl.Param()]
	if !ok {
		return false
	}
	if table.Has(fl.Field().String()) {
		return true
	}
	return v.lenient.Load() && !alwaysStrictTables[fl.Param()]
}

// DecodeAnswerSet 解析 JSON 对象，数字保留为 json.Number
func DecodeAnswerSet(body []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil || raw == nil {
		verr := util.NewValidationError(util.MsgInvalidBody)
		verr.Add("body", "必須為 JSON 物件")
		return nil, verr
	}
	return raw, nil
}

// RequireIdentity 报告所有缺失的身份字段
func RequireIdentity(raw map[string]any) error {
	verr := util.NewValidationError(util.MsgMissingRequired)
	for _, name := range identityFields {
		if isBlank(raw[name]) {
			verr.Add(name, "為必填欄位")
		}
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

func isBlank(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	}
	return false
}

// Parse 绑定、规范化并校验答案，所有问题按表单顺序一并返回
func (v *SurveyValidator) Parse(raw map[string]any) (*model.SurveyAnswers, error) {
	answers := &model.SurveyAnswers{}
	rv := reflect.ValueOf(answers).Elem()
	problems := make(map[string]string)

	for _, f := range answerFields {
		fv := rv.Field(f.index)
		if fv.Type() == stringListType {
			fv.Set(reflect.ValueOf(model.StringList{}))
		}

		value, ok := raw[f.name]
		if !ok || value == nil {
			continue
		}

		switch {
		case fv.Type() == stringListType:
			list, err := NormalizeMultiSelect(value)
			if err != nil {
				problems[f.name] = err.Error()
				continue
			}
			if f.name == challengeRankingField {
				list = NormalizeChallengeRanking(list)
			}
			fv.Set(reflect.ValueOf(model.StringList(list)))
		case fv.Kind() == reflect.String:
			s, err := coerceString(value)
			if err != nil {
				problems[f.name] = err.Error()
				continue
			}
			fv.SetString(s)
		case fv.Kind() == reflect.Int:
			n, err := coerceOrdinal(value)
			if err != nil {
				problems[f.name] = err.Error()
				continue
			}
			fv.SetInt(int64(n))
		}
	}

	// 舊版表單的 "established" 統一為 established_not_running
	if status := model.ParseCCCEstablishment(answers.CccEstablishment); status != model.CCCEstablishmentUnknown {
		answers.CccEstablishment = status.Code()
	}

	if err := v.validate.Struct(answers); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, err
		}
		for _, fe := range verrs {
			name := fe.Field()
			if i := strings.IndexByte(name, '['); i >= 0 {
				name = name[:i]
			}
			if _, seen := problems[name]; !seen {
				problems[name] = fieldMessage(fe)
			}
		}
	}

	if len(problems) > 0 {
		verr := util.NewValidationError(util.MsgValidationFailed)
		for _, f := range answerFields {
			if msg, ok := problems[f.name]; ok {
				verr.Add(f.name, msg)
			}
		}
		return nil, verr
	}
	return answers, nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "為必填欄位"
	case "min", "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("長度不可超過 %s 字元", fe.Param())
		}
		return "必須為 1 到 5 的整數"
	case "email":
		return "Email 格式不正確"
	case "option":
		return fmt.Sprintf("不是有效的選項：%v", fe.Value())
	}
	return "格式不正確"
}

func coerceString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v), nil
	case json.Number:
		return v.String(), nil
	}
	return "", errors.New("必須為文字")
}

// coerceOrdinal 接受整数和数字字符串，空字符串视为未填，交给 required 校验
func coerceOrdinal(value any) (int, error) {
	invalid := errors.New("必須為 1 到 5 的整數")
	switch v := value.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return clampInt(n), nil
		}
		f, err := v.Float64()
		if err != nil || f != math.Trunc(f) {
			return 0, invalid
		}
		return clampInt(int64(f)), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, invalid
		}
		return clampInt(int64(v)), nil
	case int:
		return clampInt(int64(v)), nil
	case int64:
		return clampInt(v), nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, invalid
		}
		return clampInt(n), nil
	}
	return 0, invalid
}

// clampInt 超大输入保持越界但不溢出
func clampInt(n int64) int {
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	if n < math.MinInt32 {
		return math.MinInt32
	}
	return int(n)
}

// NormalizeMultiSelect 接受数组、JSON 数组字符串或逗号分隔字符串，返回去空白、去重后的值
func NormalizeMultiSelect(value any) ([]string, error) {
	var items []string
	switch v := value.(type) {
	case []string:
		items = v
	case []any:
		for _, item := range v {
			switch s := item.(type) {
			case string:
				items = append(items, s)
			case json.Number:
				items = append(items, s.String())
			case nil:
			default:
				return nil, errors.New("選項必須為文字")
			}
		}
	case string:
		s := strings.TrimSpace(v)
		if strings.HasPrefix(s, "[") {
			var decoded []any
			dec := json.NewDecoder(strings.NewReader(s))
			dec.UseNumber()
			if err := dec.Decode(&decoded); err != nil {
				return nil, errors.New("無法解析的選項清單")
			}
			return NormalizeMultiSelect(decoded)
		}
		if s != "" {
			items = strings.Split(s, ",")
		}
	default:
		return nil, errors.New("必須為選項清單")
	}

	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out, nil
}

// NormalizeChallengeRanking 保留已知项的顺序并按默认顺序补齐缺项，非空排序总是完整排列
func NormalizeChallengeRanking(ids []string) []string {
	if len(ids) == 0 {
		return []string{}
	}
	canonical := model.ChallengeOptions.Values()
	seen := make(map[string]bool, len(canonical))
	ranking := make([]string, 0, len(canonical))
	for _, id := range ids {
		if seen[id] || !model.ChallengeOptions.Has(id) {
			continue
		}
		seen[id] = true
		ranking = append(ranking, id)
	}
	for _, id := range canonical {
		if !seen[id] {
			ranking = append(ranking, id)
		}
	}
	return ranking
}
