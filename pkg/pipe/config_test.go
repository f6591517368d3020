package pipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Direction:    InOut,
		MaxInstances: 1,
		Mode:         Byte,
	}
}

func TestValidateOK(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.validate())

	cfg.MaxInstances = UnlimitedInstances
	cfg.Mode = Message
	cfg.Options = WriteThrough | Overlapped | CurrentUserOnly
	require.NoError(t, cfg.validate())

	cfg.MaxInstances = maxFixedInstances
	require.NoError(t, cfg.validate())
}

func TestValidateDirection(t *testing.T) {
	cfg := validConfig()
	cfg.Direction = 0
	var argErr *ArgumentError
	require.ErrorAs(t, cfg.validate(), &argErr)
	assert.Equal(t, "direction", argErr.Name)

	cfg.Direction = 7
	require.ErrorAs(t, cfg.validate(), &argErr)
}

func TestValidateMaxInstances(t *testing.T) {
	var argErr *ArgumentError
	for _, n := range []int{0, -2, 255, 1000} {
		cfg := validConfig()
		cfg.MaxInstances = n
		err := cfg.validate()
		require.ErrorAs(t, err, &argErr, "instances %d", n)
		assert.Equal(t, "max instances", argErr.Name)
	}
}

func TestValidateMode(t *testing.T) {
	cfg := validConfig()
	cfg.Mode = 3
	var argErr *ArgumentError
	require.ErrorAs(t, cfg.validate(), &argErr)
	assert.Equal(t, "transmission mode", argErr.Name)
}

func TestValidateOptions(t *testing.T) {
	cfg := validConfig()
	cfg.Options = 0x1
	var argErr *ArgumentError
	require.ErrorAs(t, cfg.validate(), &argErr)
	assert.Equal(t, "options", argErr.Name)
}

func TestOpenMode(t *testing.T) {
	cfg := Config{Direction: InOut, MaxInstances: 1, Options: WriteThrough | Overlapped | CurrentUserOnly}
	// Direction bits, first-instance flag, native options; the
	// CurrentUserOnly marker must be stripped.
	assert.Equal(t, uint32(0x3|0x80000|0x80000000|0x40000000), cfg.openMode())

	cfg = Config{Direction: In, MaxInstances: 5}
	assert.Equal(t, uint32(0x1), cfg.openMode())
}

func TestPipeMode(t *testing.T) {
	cfg := Config{Mode: Byte}
	assert.Equal(t, uint32(0), cfg.pipeMode())

	// Read mode mirrors the transmission mode.
	cfg.Mode = Message
	assert.Equal(t, uint32(0x4|0x2), cfg.pipeMode())
}

func TestNativeInstances(t *testing.T) {
	cfg := Config{MaxInstances: UnlimitedInstances}
	assert.Equal(t, uint32(0xFF), cfg.nativeInstances())

	cfg.MaxInstances = 42
	assert.Equal(t, uint32(42), cfg.nativeInstances())
}

func TestCreateRejectsBadConfig(t *testing.T) {
	cfg := validConfig()
	cfg.MaxInstances = 0
	_, err := Create("pipehost-test", cfg)
	var argErr *ArgumentError
	require.ErrorAs(t, err, &argErr)
	assert.Equal(t, "max instances", argErr.Name)
}
