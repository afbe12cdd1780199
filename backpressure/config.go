package backpressure

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap/zapcore"
)

var (
	ErrInvalidThreshold = errors.New("backpressure threshold must be positive")
	ErrUnknownStrategy  = errors.New("unknown backpressure strategy")
	ErrInvalidLevel     = errors.New("backpressure log level must be between debug and error")
)

// StrategyKind selects how backpressure is detected.
type StrategyKind string

const (
	// StrategyThreshold flags a stall once downstream demand has been
	// missing for longer than the threshold.
	StrategyThreshold StrategyKind = "threshold"
	// StrategyInstant flags a stall the moment an element arrives without
	// outstanding downstream demand.
	StrategyInstant StrategyKind = "instant"
)

// Default stage names, used when the pipeline supplies none.
const (
	AlertStageName   = "BackpressureAlert"
	MonitorStageName = "BackpressureMonitor"
)

// Config configures one backpressure stage. It is fixed at attachment.
type Config struct {
	// Strategy is the detection strategy (default: threshold).
	Strategy StrategyKind `yaml:"strategy" json:"strategy"`
	// Threshold is the minimum demand gap reported by the threshold
	// strategy (default: 40ms). Ignored by the instant strategy.
	Threshold time.Duration `yaml:"threshold" json:"threshold"`
	// Level is the severity of the emitted log events (default: debug).
	Level zapcore.Level `yaml:"level" json:"level"`
	// Name overrides the stage name shown in log lines.
	Name string `yaml:"name,omitempty" json:"name,omitempty"`
}

// DefaultConfig returns a threshold configuration logging at debug level.
func DefaultConfig() Config {
	return Config{
		Strategy:  StrategyThreshold,
		Threshold: 40 * time.Millisecond,
		Level:     zapcore.DebugLevel,
	}
}

// Validate rejects configurations no detector can be built from.
func (c Config) Validate() error {
	switch c.Strategy {
	case StrategyThreshold:
		if c.Threshold <= 0 {
			return fmt.Errorf("%w: got %s", ErrInvalidThreshold, c.Threshold)
		}
	case StrategyInstant:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStrategy, c.Strategy)
	}
	if c.Level < zapcore.DebugLevel || c.Level > zapcore.ErrorLevel {
		return fmt.Errorf("%w: got %s", ErrInvalidLevel, c.Level)
	}
	return nil
}

// DefaultName returns the stage name used when neither Config.Name nor
// the pipeline attributes name the stage.
func (c Config) DefaultName() string {
	if c.Strategy == StrategyInstant {
		return MonitorStageName
	}
	return AlertStageName
}

// CheckInterval returns how often the threshold strategy inspects its
// deadline: an eighth of the threshold, at least 100ms, but never more
// than half the threshold.
func CheckInterval(threshold time.Duration) time.Duration {
	interval := min(max(threshold/8, 100*time.Millisecond), threshold/2)
	if interval <= 0 {
		return threshold
	}
	return interval
}
