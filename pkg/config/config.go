package config

import (
	"fmt"
	"os"
	"regexp"
	"slotgate/pkg/client"
	"slotgate/pkg/logger"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout  time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// ApproverIDs is the full decision-making set; any one member's decision
	// is authoritative once committed.
	ApproverIDs []string

	PerDayCapacity       int
	MinLeadDays          int
	ApprovalMinLeadDays  int
	AllowedWeekdays      []time.Weekday
	OfferedDateCount     int
	MaxScanDays          int
	AssignDateOnApproval bool

	MaxReasonLength int

	NotificationsTopic string
	NotifierGroupID    string

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	weekdays, err := parseWeekdays(getEnvStr(EnvAllowedWeekdays, DefaultAllowedWeekdays))

	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port: getEnvStr(EnvPort, DefaultPort),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout:  getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		ApproverIDs: parseList(getEnvStr(EnvApproverIDs, "")),

		PerDayCapacity:       getEnvNum(EnvPerDayCapacity, DefaultPerDayCapacity),
		MinLeadDays:          getEnvNum(EnvMinLeadDays, DefaultMinLeadDays),
		ApprovalMinLeadDays:  getEnvNum(EnvApprovalMinLeadDays, DefaultApprovalMinLeadDays),
		AllowedWeekdays:      weekdays,
		OfferedDateCount:     getEnvNum(EnvOfferedDateCount, DefaultOfferedDateCount),
		MaxScanDays:          getEnvNum(EnvMaxScanDays, DefaultMaxScanDays),
		AssignDateOnApproval: getEnvBool(EnvAssignDateOnApprove, false),

		MaxReasonLength: getEnvNum(EnvMaxReasonLength, DefaultMaxReasonLength),

		NotificationsTopic: getEnvStr(EnvNotificationsTopic, DefaultNotificationsTopic),
		NotifierGroupID:    getEnvStr(EnvNotifierGroupID, DefaultNotifierGroupID),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	if err != nil {
		cfg.Log.Fatal("Invalid allowed weekdays", "error", err)
	}
	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", cfg.MongoURI))
	}
	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}
	if cfg.MongoConnTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if len(cfg.ApproverIDs) == 0 {
		errors = append(errors, "At least one approver ID is required (set APPROVER_IDS)")
	}

	if cfg.PerDayCapacity <= 0 {
		errors = append(errors, fmt.Sprintf("PerDayCapacity must be positive, got: %d", cfg.PerDayCapacity))
	}
	if cfg.MinLeadDays < 0 {
		errors = append(errors, fmt.Sprintf("MinLeadDays cannot be negative, got: %d", cfg.MinLeadDays))
	}
	if cfg.ApprovalMinLeadDays < 0 {
		errors = append(errors, fmt.Sprintf("ApprovalMinLeadDays cannot be negative, got: %d", cfg.ApprovalMinLeadDays))
	}
	if len(cfg.AllowedWeekdays) == 0 {
		errors = append(errors, "At least one allowed weekday is required")
	}
	if cfg.OfferedDateCount <= 0 {
		errors = append(errors, fmt.Sprintf("OfferedDateCount must be positive, got: %d", cfg.OfferedDateCount))
	}
	if cfg.MaxScanDays <= 0 {
		errors = append(errors, fmt.Sprintf("MaxScanDays must be positive, got: %d", cfg.MaxScanDays))
	}
	if cfg.MaxReasonLength <= 0 {
		errors = append(errors, fmt.Sprintf("MaxReasonLength must be positive, got: %d", cfg.MaxReasonLength))
	}

	if cfg.NotificationsTopic == "" {
		errors = append(errors, "NotificationsTopic cannot be empty")
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	weekdays := make([]string, 0, len(cfg.AllowedWeekdays))
	for _, wd := range cfg.AllowedWeekdays {
		weekdays = append(weekdays, wd.String())
	}

	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"approver_count", len(cfg.ApproverIDs),
		"per_day_capacity", cfg.PerDayCapacity,
		"min_lead_days", cfg.MinLeadDays,
		"approval_min_lead_days", cfg.ApprovalMinLeadDays,
		"allowed_weekdays", strings.Join(weekdays, ","),
		"offered_date_count", cfg.OfferedDateCount,
		"max_scan_days", cfg.MaxScanDays,
		"assign_date_on_approval", cfg.AssignDateOnApproval,
		"max_reason_length", cfg.MaxReasonLength,
		"notifications_topic", cfg.NotificationsTopic,
	)
}

// IsApprover reports whether the given actor is in the configured approver
// set. Identity itself is trusted from the transport layer.
func (cfg *Config) IsApprover(actorID string) bool {
	for _, id := range cfg.ApproverIDs {
		if id == actorID {
			return true
		}
	}
	return false
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown()
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func parseWeekdays(s string) ([]time.Weekday, error) {
	names := map[string]time.Weekday{
		"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
		"wednesday": time.Wednesday, "thursday": time.Thursday,
		"friday": time.Friday, "saturday": time.Saturday,
	}

	var weekdays []time.Weekday
	seen := map[time.Weekday]bool{}
	for _, part := range parseList(s) {
		wd, ok := names[strings.ToLower(part)]
		if !ok {
			return nil, fmt.Errorf("unknown weekday: %q", part)
		}
		if !seen[wd] {
			seen[wd] = true
			weekdays = append(weekdays, wd)
		}
	}
	return weekdays, nil
}

func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
