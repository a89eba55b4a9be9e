package ping

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 64, cfg.TTL)
	assert.Equal(t, 56, cfg.Size)
	assert.Equal(t, Unbounded, cfg.Count)
	assert.Equal(t, time.Second, cfg.Interval)
	assert.Equal(t, time.Second, cfg.Timeout)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{"valid", func(c *Config) {}, nil},
		{"ttl zero", func(c *Config) { c.TTL = 0 }, ErrInvalidTTL},
		{"ttl too high", func(c *Config) { c.TTL = 256 }, ErrInvalidTTL},
		{"ttl max", func(c *Config) { c.TTL = 255 }, nil},
		{"negative size", func(c *Config) { c.Size = -1 }, ErrInvalidSize},
		{"empty payload", func(c *Config) { c.Size = 0 }, nil},
		{"oversized", func(c *Config) { c.Size = MaxSize + 1 }, ErrInvalidSize},
		{"count zero", func(c *Config) { c.Count = 0 }, ErrInvalidCount},
		{"count below unbounded", func(c *Config) { c.Count = -2 }, ErrInvalidCount},
		{"count bounded", func(c *Config) { c.Count = 5 }, nil},
		{"zero interval", func(c *Config) { c.Interval = 0 }, ErrInvalidInterval},
		{"short timeout", func(c *Config) { c.Timeout = time.Millisecond }, ErrInvalidTimeout},
		{"no address", func(c *Config) { c.Addr = nil }, ErrNoDestination},
		{"ipv6 address", func(c *Config) { c.Addr = net.ParseIP("2001:db8::1") }, ErrNoDestination},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Addr = net.IPv4(192, 0, 2, 1)
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestOutcome_Text(t *testing.T) {
	for o := Replied; o <= Timeout; o++ {
		text, err := o.MarshalText()
		assert.NoError(t, err)

		var back Outcome
		assert.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, o, back)
	}

	assert.Equal(t, "unknown", Outcome(42).String())

	var o Outcome
	assert.Error(t, o.UnmarshalText([]byte("lost")))
}
