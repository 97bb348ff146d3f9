package internal

import (
	"chat-relay/errors"
	"fmt"
	"time"
)

const (
	StoreMemory = "memory"
	StoreBadger = "badger"
)

type Config struct {
	Host                 string        `env:"HOST,default=localhost"`
	Port                 int           `env:"PORT,default=8080"`
	LogLevel             string        `env:"LOG_LEVEL,default=INFO"`
	BufferSize           int           `env:"BUFFER_SIZE,default=1024"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64"`
	StoreBackend         string        `env:"STORE_BACKEND,default=memory"`
	SeedSampleMessages   bool          `env:"SEED_SAMPLE_MESSAGES,default=false"`
	UsersFile            string        `env:"USERS_FILE"`
	ModerationEnabled    bool          `env:"MODERATION_ENABLED,default=false"`
	CharReplacement      string        `env:"CHARACTER_REPLACEMENT,default=*"`
	EnforceSessionSender bool          `env:"ENFORCE_SESSION_SENDER,default=false"`
	MaxContentLength     int           `env:"MAX_CONTENT_LENGTH,default=0"`
	MaxFrameSize         int64         `env:"MAX_FRAME_SIZE,default=1048576"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=1s"`
	StatsInterval        time.Duration `env:"STATS_INTERVAL,default=0s"`
	WriteTimeout         time.Duration `env:"WRITE_TIMEOUT,default=10s"`
	PongTimeout          time.Duration `env:"PONG_TIMEOUT,default=60s"`
	PingInterval         time.Duration `env:"PING_INTERVAL,default=50s"`
	GroupingWindow       time.Duration `env:"GROUPING_WINDOW,default=20s"`
	TimestampDivider     time.Duration `env:"TIMESTAMP_DIVIDER,default=10m"`
}

func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate checks the values go-env cannot express with tags.
func (c Config) Validate() error {
	if c.StoreBackend != StoreMemory && c.StoreBackend != StoreBadger {
		return fmt.Errorf("%w: %q", errors.ErrUnknownStoreBackend, c.StoreBackend)
	}
	if c.BufferSize <= 0 || c.ConnectionBufferSize <= 0 {
		return fmt.Errorf("BUFFER_SIZE and CONNECTION_BUFFER_SIZE must be positive")
	}
	if c.MaxContentLength < 0 {
		return fmt.Errorf("MAX_CONTENT_LENGTH must not be negative, got %d", c.MaxContentLength)
	}
	if c.MaxFrameSize < 0 {
		return fmt.Errorf("MAX_FRAME_SIZE must not be negative, got %d", c.MaxFrameSize)
	}
	if _, err := CharacterRune(c.CharReplacement); err != nil {
		return err
	}
	return nil
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
