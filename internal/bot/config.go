package bot

// Config holds the defaults the bot applies to new learners.
type Config struct {
	// Review cap applied when a learner has not set one
	DefaultMaxDailyReviews int
	// Digest hour applied when a learner has not set one
	DefaultNotificationHour int
	// How many days ahead /schedule plans
	ScheduleHorizonDays int
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() Config {
	return Config{
		DefaultMaxDailyReviews:  20,
		DefaultNotificationHour: 9,
		ScheduleHorizonDays:     7,
	}
}
