package config

import "time"

// Application constants
const (
	AppName    = "拍照翻译使用频次与留存分析"
	AppVersion = "1.2.0"
	ServiceID  = "ptanalysis"

	// Well-known export file names, relative to DataConfig.Dir
	UsageFileName         = "new拍照翻译)使用次数摸排.csv"
	WeekdayLabelsFileName = "工作日标签.csv"
	WeekendLabelsFileName = "周末标签.csv"
	FeedbackFileName      = "用户反馈数据_已打标_8000条_20并发.csv"
	PronunciationFileName = "发音朗读问题详细数据.csv"
	SuggestionFileName    = "产品建议详细数据.csv"

	DefaultDataDir   = "data"
	DefaultImagesDir = "data/images"
	DefaultLogFile   = "logs/dashboard.log"

	// Rate limiting
	DefaultRateLimit = 20 // requests per second
	DefaultBurstSize = 40

	DefaultRequestTimeout = 60 * time.Second
	WebSocketPingPeriod   = 30 * time.Second
	WebSocketPongWait     = 60 * time.Second

	// Cache settings
	DataCacheDuration    = 15 * time.Minute
	DefaultWatchDebounce = 500 * time.Millisecond
)
