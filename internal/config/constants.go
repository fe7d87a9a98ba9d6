package config

// Application constants
const (
	AppName    = "SprintPulse"
	AppVersion = "1.0.0"

	// Rate limiting
	DefaultRateLimit = 100 // requests per second
	DefaultBurstSize = 50

	// Uploads
	DefaultMaxUploadBytes = 64 << 20

	// File paths (relative to the base directory)
	DefaultDataDir    = "data"
	DefaultReportsDir = "data/reports"
	DefaultLogsDir    = "logs"

	// Log settings
	DefaultLogLevel = "info"

	// Remote storage
	DefaultPublicBaseURL   = "https://storage.googleapis.com"
	DefaultProcessedPrefix = "processed"

	// Pipeline
	DefaultCutoffLayout  = "2006-01-02"
	DefaultDedupeWorkers = 4
)

// Workflow vocabulary of the tracker exports
const (
	StatusCreated    = "Создано"
	StatusInProgress = "В работе"
	StatusClosed     = "Закрыто"
	StatusCompleted  = "Выполнено"
	StatusPostponed  = "Отложен"

	ResolutionRejected  = "Отклонено"
	ResolutionCancelled = "Отменено инициатором"
	ResolutionDuplicate = "Дубликат"
)

// DefaultHistoryDateLayouts lists the accepted history_date formats, tried in order
var DefaultHistoryDateLayouts = []string{
	"01/02/06 15:04",
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}
