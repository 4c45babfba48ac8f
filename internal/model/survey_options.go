package model

// Option 单选或多选题的一个选项
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// OptionSet 有序的选项表
type OptionSet []Option

func (s OptionSet) Has(value string) bool {
	_, ok := s.Label(value)
	return ok
}

func (s OptionSet) Label(value string) (string, bool) {
	for _, o := range s {
		if o.Value == value {
			return o.Label, true
		}
	}
	return "", false
}

// LabelOr 返回选项标签，未知选项原样返回
func (s OptionSet) LabelOr(value string) string {
	if label, ok := s.Label(value); ok {
		return label
	}
	return value
}

func (s OptionSet) Values() []string {
	values := make([]string, len(s))
	for i, o := range s {
		values[i] = o.Value
	}
	return values
}

// LikertOption 1-5 量表的一个刻度
type LikertOption struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

type LikertScale []LikertOption

func (s LikertScale) Label(value int) (string, bool) {
	for _, o := range s {
		if o.Value == value {
			return o.Label, true
		}
	}
	return "", false
}

type Profession string

const (
	ProfessionNurse         Profession = "NUR"
	ProfessionRadiology     Profession = "RAD"
	ProfessionMedTech       Profession = "MT"
	ProfessionPharmacist    Profession = "PHAR"
	ProfessionPhysicalTher  Profession = "PT"
	ProfessionOccupational  Profession = "OT"
	ProfessionRespiratory   Profession = "RT"
	ProfessionDietitian     Profession = "DT"
	ProfessionSpeechLang    Profession = "SLP"
	ProfessionClinicalPsych Profession = "CP"
)

func (p Profession) Valid() bool {
	return ProfessionOptions.Has(string(p))
}

// Name 邮件主题中使用的职类简称
func (p Profession) Name() string {
	if name, ok := professionNames[p]; ok {
		return name
	}
	return string(p)
}

var professionNames = map[Profession]string{
	ProfessionNurse:         "護理師",
	ProfessionRadiology:     "放射師",
	ProfessionMedTech:       "檢驗師",
	ProfessionPharmacist:    "藥師",
	ProfessionPhysicalTher:  "物理治療師",
	ProfessionOccupational:  "職能治療師",
	ProfessionRespiratory:   "呼吸治療師",
	ProfessionDietitian:     "營養師",
	ProfessionSpeechLang:    "語言治療師",
	ProfessionClinicalPsych: "臨床心理師",
}

// CCCEstablishment 临床能力委员会的建置状态，零值表示未知且不计分
type CCCEstablishment int

const (
	CCCEstablishmentUnknown CCCEstablishment = iota
	CCCNotEstablished
	CCCPlanning
	CCCEstablishedNotRunning
	CCCRunning
	CCCRunningWell
)

var cccEstablishmentCodes = map[string]CCCEstablishment{
	"not_established":         CCCNotEstablished,
	"planning":                CCCPlanning,
	"established_not_running": CCCEstablishedNotRunning,
	"running":                 CCCRunning,
	"running_well":            CCCRunningWell,
	// 旧版表单取值
	"established": CCCEstablishedNotRunning,
}

func ParseCCCEstablishment(code string) CCCEstablishment {
	return cccEstablishmentCodes[code]
}

// Code 入库时使用的规范值
func (c CCCEstablishment) Code() string {
	switch c {
	case CCCNotEstablished:
		return "not_established"
	case CCCPlanning:
		return "planning"
	case CCCEstablishedNotRunning:
		return "established_not_running"
	case CCCRunning:
		return "running"
	case CCCRunningWell:
		return "running_well"
	}
	return ""
}

// Score 将建置状态映射到 1-5 分
func (c CCCEstablishment) Score() (int, bool) {
	if c < CCCNotEstablished || c > CCCRunningWell {
		return 0, false
	}
	return int(c), true
}

var (
	ProfessionOptions = OptionSet{
		{"NUR", "護理師 (Registered Nurse)"},
		{"RAD", "放射師 (Radiologic Technologist)"},
		{"MT", "檢驗師 (Medical Technologist)"},
		{"PHAR", "藥師 (Pharmacist)"},
		{"PT", "物理治療師 (Physical Therapist)"},
		{"OT", "職能治療師 (Occupational Therapist)"},
		{"RT", "呼吸治療師 (Respiratory Therapist)"},
		{"DT", "營養師 (Dietitian)"},
		{"SLP", "語言治療師 (Speech-Language Pathologist)"},
		{"CP", "臨床心理師 (Clinical Psychologist)"},
	}

	CampusOptions = OptionSet{
		{"tainan", "台南院區"},
		{"madou", "麻豆院區"},
	}

	LikertScaleOptions = LikertScale{
		{1, "1 - 尚未開始 / 完全沒有 / 非常不滿意"},
		{2, "2 - 初步規劃 / 略有 / 不滿意"},
		{3, "3 - 部分完成 / 普通"},
		{4, "4 - 大致完成 / 相當 / 滿意"},
		{5, "5 - 完全完成 / 非常 / 非常滿意"},
	}

	AssessmentBurdenOptions = LikertScale{
		{1, "1 - 負擔很輕"},
		{2, "2 - 偏輕"},
		{3, "3 - 普通"},
		{4, "4 - 偏重"},
		{5, "5 - 負擔很重"},
	}

	OverallProgressOptions = LikertScale{
		{1, "1 - 尚未開始（0-20%）"},
		{2, "2 - 起步階段（21-40%）"},
		{3, "3 - 發展階段（41-60%）"},
		{4, "4 - 成熟階段（61-80%）"},
		{5, "5 - 完善運作（81-100%）"},
	}

	EpaCountOptions = OptionSet{
		{"0", "0 個"},
		{"1-3", "1-3 個"},
		{"4-6", "4-6 個"},
		{"7-10", "7-10 個"},
		{"10+", "10 個以上"},
	}

	EpaRevisionCycleOptions = OptionSet{
		{"never", "從未檢討"},
		{"yearly", "每年"},
		{"biannual", "每半年"},
		{"quarterly", "每季"},
		{"as_needed", "視需要"},
	}

	DirectObservationOptions = OptionSet{
		{"0", "0 次"},
		{"1-2", "1-2 次"},
		{"3-5", "3-5 次"},
		{"6+", "6 次以上"},
	}

	CalibrationFrequencyOptions = OptionSet{
		{"never", "從未舉辦"},
		{"yearly", "一年一次"},
		{"biannual", "半年一次"},
		{"quarterly", "季度一次"},
		{"monthly", "每月舉辦"},
	}

	FeedbackTimingOptions = OptionSet{
		{"24h", "24 小時內"},
		{"2-3days", "2-3 天內"},
		{"1week", "一週內"},
		{"over1week", "超過一週"},
		{"varies", "不一定"},
	}

	CCCEstablishmentOptions = OptionSet{
		{"not_established", "未成立"},
		{"planning", "規劃中"},
		{"established_not_running", "已成立但尚未運作"},
		{"running", "已成立並開始運作"},
		{"running_well", "已成立且運作順暢"},
	}

	CCCMemberCountOptions = OptionSet{
		{"not_established", "尚未成立"},
		{"under3", "3 人以下"},
		{"4-6", "4-6 人"},
		{"7-10", "7-10 人"},
		{"over10", "10 人以上"},
	}

	CCCFrequencyOptions = OptionSet{
		{"not_meeting", "尚未開會"},
		{"biannual", "每半年一次"},
		{"quarterly", "每季一次"},
		{"monthly", "每月一次"},
		{"as_needed", "視需要召開"},
	}

	CCCPrescriptionOptions = OptionSet{
		{"never", "從未使用"},
		{"heard_not_used", "聽過但未使用"},
		{"occasionally", "偶爾使用"},
		{"often", "經常使用"},
		{"systematically", "系統化使用"},
	}

	YesNoPlanningOptions = OptionSet{
		{"yes", "是"},
		{"no", "否"},
		{"planning", "規劃中"},
	}

	EportImplementationOptions = OptionSet{
		{"none", "完全沒有"},
		{"planning", "規劃中"},
		{"trial", "試用階段"},
		{"partial", "部分功能上線"},
		{"full", "完整系統運作"},
	}

	EportTypeOptions = OptionSet{
		{"google", "Google Forms + Sheets"},
		{"microsoft", "Microsoft Power Apps"},
		{"airtable", "Airtable"},
		{"commercial", "商用系統（MedHub, Elentra 等）"},
		{"custom", "自行開發系統"},
		{"other", "其他"},
	}

	EportMobileOptions = OptionSet{
		{"not_supported", "完全不支援"},
		{"partial", "部分支援"},
		{"supported_poor", "支援但體驗不佳"},
		{"supported_good", "支援且體驗良好"},
		{"excellent", "優秀的行動體驗"},
	}

	TrainingCompletionOptions = OptionSet{
		{"0-20", "0-20%"},
		{"21-40", "21-40%"},
		{"41-60", "41-60%"},
		{"61-80", "61-80%"},
		{"81-100", "81-100%"},
	}

	TrainingTopicsOptions = OptionSet{
		{"cbme_basics", "CBME 基本概念"},
		{"epa_design", "EPA 設計原則"},
		{"observation", "觀察與評量技巧"},
		{"feedback", "回饋技巧"},
		{"calibration", "評量者校準"},
		{"system", "系統操作"},
		{"none", "尚未培訓"},
	}

	TrainingMethodsOptions = OptionSet{
		{"workshop", "工作坊"},
		{"online", "線上課程"},
		{"reading_group", "讀書會"},
		{"benchmarking", "標竿觀摩"},
		{"one_on_one", "一對一指導"},
		{"other", "其他"},
	}

	TrainingSupportOptions = OptionSet{
		{"refresh", "定期回訓"},
		{"consultation", "諮詢管道"},
		{"community", "社群交流"},
		{"none", "無"},
		{"other", "其他"},
	}

	EpaSupportOptions = OptionSet{
		{"template", "範本參考"},
		{"workshop", "工作坊培訓"},
		{"expert", "專家諮詢"},
		{"exchange", "跨職類交流"},
		{"other", "其他"},
	}

	// ChallengeOptions 的顺序即默认排序
	ChallengeOptions = OptionSet{
		{"manpower", "人力不足"},
		{"time", "時間不足"},
		{"budget", "經費不足"},
		{"training", "教師培訓不足"},
		{"template", "缺乏範本參考"},
		{"system", "系統支援不足"},
		{"resistance", "學員抗拒"},
		{"conflict", "與現有制度衝突"},
		{"support", "缺乏高層支持"},
		{"other", "其他"},
	}
)

// OptionTables 所有选项表，键名供 `option=<name>` 校验标签和选项接口使用
var OptionTables = map[string]OptionSet{
	"profession":            ProfessionOptions,
	"campus":                CampusOptions,
	"epa_count":             EpaCountOptions,
	"epa_revision_cycle":    EpaRevisionCycleOptions,
	"epa_support":           EpaSupportOptions,
	"direct_observation":    DirectObservationOptions,
	"calibration_frequency": CalibrationFrequencyOptions,
	"feedback_timing":       FeedbackTimingOptions,
	"ccc_establishment":     CCCEstablishmentOptions,
	"ccc_member_count":      CCCMemberCountOptions,
	"ccc_frequency":         CCCFrequencyOptions,
	"ccc_prescription":      CCCPrescriptionOptions,
	"yes_no_planning":       YesNoPlanningOptions,
	"eport_implementation":  EportImplementationOptions,
	"eport_type":            EportTypeOptions,
	"eport_mobile":          EportMobileOptions,
	"training_completion":   TrainingCompletionOptions,
	"training_topics":       TrainingTopicsOptions,
	"training_methods":      TrainingMethodsOptions,
	"training_support":      TrainingSupportOptions,
	"challenge":             ChallengeOptions,
}

// OptionCatalogue 选项接口的返回内容
type OptionCatalogue struct {
	Tables          map[string]OptionSet `json:"tables"`
	LikertScale     LikertScale          `json:"likertScale"`
	AssessmentScale LikertScale          `json:"assessmentBurden"`
	OverallProgress LikertScale          `json:"overallProgress"`
}

func NewOptionCatalogue() OptionCatalogue {
	return OptionCatalogue{
		Tables:          OptionTables,
		LikertScale:     LikertScaleOptions,
		AssessmentScale: AssessmentBurdenOptions,
		OverallProgress: OverallProgressOptions,
	}
}
