package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout  = "REQUEST_TIMEOUT"
	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvApproverIDs = "APPROVER_IDS"

	EnvPerDayCapacity      = "PER_DAY_CAPACITY"
	EnvMinLeadDays         = "MIN_LEAD_DAYS"
	EnvApprovalMinLeadDays = "APPROVAL_MIN_LEAD_DAYS"
	EnvAllowedWeekdays     = "ALLOWED_WEEKDAYS"
	EnvOfferedDateCount    = "OFFERED_DATE_COUNT"
	EnvMaxScanDays         = "MAX_SCAN_DAYS"
	EnvAssignDateOnApprove = "ASSIGN_DATE_ON_APPROVAL"

	EnvMaxReasonLength = "MAX_REASON_LENGTH"

	EnvNotificationsTopic = "NOTIFICATIONS_TOPIC"
	EnvNotifierGroupID    = "NOTIFIER_GROUP_ID"
)
