package util

const (
	DateFormat = "2006-01-02"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

const (
	MimeCSV = "text/csv"
)

// 提交边界的用户可见信息
const (
	MsgMissingRequired   = "缺少必填欄位"
	MsgValidationFailed  = "問卷資料驗證失敗"
	MsgSubmitFailedRetry = "提交失敗，請稍後再試"
)

const MsgInvalidBody = "請求格式錯誤"
