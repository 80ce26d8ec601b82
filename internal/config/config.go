package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server ServerConfig `mapstructure:"server" validate:"required"`
	Redis  RedisConfig  `mapstructure:"redis" validate:"required"`
	Queue  QueueConfig  `mapstructure:"queue" validate:"required"`
	Worker WorkerConfig `mapstructure:"worker"`
}

// ServerConfig contains all HTTP server related settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// RedisConfig contains connection settings for the shared structure store.
type RedisConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// QueueConfig contains the admission and recovery knobs of the task queue.
type QueueConfig struct {
	// UserConcurrentLimit caps how many tasks a single user may have in
	// the processing state at once.
	UserConcurrentLimit int `mapstructure:"user_concurrent_limit" validate:"required,gt=0"`

	// GlobalConcurrentLimit caps processing tasks across all users.
	GlobalConcurrentLimit int `mapstructure:"global_concurrent_limit" validate:"required,gt=0"`

	// VisibilityTimeoutSeconds is the lease duration granted to a worker
	// on dequeue. An unacknowledged task past this deadline is reclaimed.
	VisibilityTimeoutSeconds int `mapstructure:"visibility_timeout_seconds" validate:"required,gt=0"`

	// MaxRequeues bounds how often the reaper will return an orphaned
	// task to the ready queue before failing it. Zero means unbounded.
	MaxRequeues int `mapstructure:"max_requeues" validate:"gte=0"`

	// ReapIntervalSeconds is the cadence of the orphan scan.
	ReapIntervalSeconds int `mapstructure:"reap_interval_seconds" validate:"required,gt=0"`
}

// WorkerConfig controls the optional in-process worker pool.
type WorkerConfig struct {
	// Count is the number of polling workers to start. Zero disables the
	// in-process pool (workers run elsewhere and link the queue package).
	Count int `mapstructure:"count" validate:"gte=0"`

	// PollIntervalMs is the base delay between empty dequeue polls.
	PollIntervalMs int `mapstructure:"poll_interval_ms" validate:"gte=0"`

	// PollJitterMs is added uniformly at random to each poll delay so a
	// fleet of workers does not hammer the store in lockstep.
	PollJitterMs int `mapstructure:"poll_jitter_ms" validate:"gte=0"`
}
