package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "slotgate"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout  = 30 * time.Second
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPerDayCapacity      = 10
	DefaultMinLeadDays         = 2
	DefaultApprovalMinLeadDays = 0
	DefaultAllowedWeekdays     = "Sunday,Monday,Tuesday,Wednesday,Thursday"
	DefaultOfferedDateCount    = 10
	DefaultMaxScanDays         = 3650

	DefaultMaxReasonLength = 500

	DefaultNotificationsTopic = "booking-notifications"
	DefaultNotifierGroupID    = "slotgate-notifier"

	DefaultPaginationLimit = 100
)
