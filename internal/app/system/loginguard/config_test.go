package loginguard

import (
	"testing"
	"time"
)

func TestConfigWithDefaults(t *testing.T) {
	got := Config{}.withDefaults()
	if got != DefaultConfig() {
		t.Errorf("zero Config = %+v, want %+v", got, DefaultConfig())
	}

	custom := Config{Threshold: 5, Window: time.Hour, UnlockPurgeAfter: time.Minute, StatsWindow: time.Hour, RecordUnknownUsers: true}
	if got := custom.withDefaults(); got != custom {
		t.Errorf("custom Config changed: %+v", got)
	}
}
