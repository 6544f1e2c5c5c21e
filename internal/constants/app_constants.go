package constants

import "time"

const (
	// DefaultTopN 推荐默认返回条数
	DefaultTopN = 3
	// DefaultMaxTopN 推荐返回条数上限
	DefaultMaxTopN = 50

	// DefaultEmbeddingBatchSize 目录加载时每批向量化的记录数
	DefaultEmbeddingBatchSize = 10

	// QueryVectorCacheDuration 查询向量缓存时长
	QueryVectorCacheDuration = 24 * time.Hour
	// SessionDuration 会话收藏保留时长
	SessionDuration = 7 * 24 * time.Hour

	// ReportFilePrefix 导出报告文件名前缀
	ReportFilePrefix = "career_recommendations_"
	// ReportTimestampLayout 报告文件名时间戳格式
	ReportTimestampLayout = "20060102_150405"
	// ReportContentType 报告 MIME 类型
	ReportContentType = "application/pdf"

	// MaxUploadSize 简历/档案上传大小上限
	MaxUploadSize = 10 << 20
	// MaxRequestBodySize HTTP 请求体上限，在上传上限之外为 multipart 边界与表单字段留出余量
	MaxRequestBodySize = MaxUploadSize + 1<<20
)
