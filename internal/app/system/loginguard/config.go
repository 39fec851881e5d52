package loginguard

import "time"

// Defaults for Config.
const (
	DefaultThreshold        = 3
	DefaultWindow           = 15 * time.Minute
	DefaultUnlockPurgeAfter = time.Hour
	DefaultStatsWindow      = 24 * time.Hour
)

// Config controls the lockout rule.
type Config struct {
	// Threshold is the number of failures inside Window, counting the
	// current one, that disables an account.
	Threshold int
	Window    time.Duration

	// UnlockPurgeAfter: on unlock, failed records older than this are deleted.
	UnlockPurgeAfter time.Duration

	// StatsWindow is the trailing interval used by Stats.
	StatsWindow time.Duration

	// RecordUnknownUsers writes an account-less ledger record for failures
	// against usernames that do not exist.
	RecordUnknownUsers bool
}

// DefaultConfig returns 3 failures in 15 minutes.
func DefaultConfig() Config {
	return Config{
		Threshold:        DefaultThreshold,
		Window:           DefaultWindow,
		UnlockPurgeAfter: DefaultUnlockPurgeAfter,
		StatsWindow:      DefaultStatsWindow,
	}
}

func (c Config) withDefaults() Config {
	if c.Threshold < 1 {
		c.Threshold = DefaultThreshold
	}
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	if c.UnlockPurgeAfter <= 0 {
		c.UnlockPurgeAfter = DefaultUnlockPurgeAfter
	}
	if c.StatsWindow <= 0 {
		c.StatsWindow = DefaultStatsWindow
	}
	return c
}
