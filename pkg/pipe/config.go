package pipe

// Direction selects which way data flows, seen from the server. The values
// are the native PIPE_ACCESS_* open-mode bits.
type Direction uint32

const (
	In    Direction = 0x1 // PIPE_ACCESS_INBOUND
	Out   Direction = 0x2 // PIPE_ACCESS_OUTBOUND
	InOut Direction = 0x3 // PIPE_ACCESS_DUPLEX
)

// Mode selects byte-stream or message transmission. The read mode always
// mirrors the transmission mode; the two are never mixed.
type Mode uint32

const (
	Byte    Mode = 0x0 // PIPE_TYPE_BYTE
	Message Mode = 0x4 // PIPE_TYPE_MESSAGE
)

// Options are additional creation flags. WriteThrough and Overlapped are
// native FILE_FLAG_* bits; CurrentUserOnly is a local marker that is
// stripped before the native call.
type Options uint32

const (
	WriteThrough    Options = 0x80000000 // FILE_FLAG_WRITE_THROUGH
	Overlapped      Options = 0x40000000 // FILE_FLAG_OVERLAPPED
	CurrentUserOnly Options = 0x20000000
)

const optionsMask = WriteThrough | Overlapped | CurrentUserOnly

// UnlimitedInstances requests the OS maximum number of concurrent server
// instances (PIPE_UNLIMITED_INSTANCES).
const UnlimitedInstances = -1

// maxFixedInstances is the largest explicit instance count; 255 is the
// unlimited sentinel at the native level.
const maxFixedInstances = 254

// Config describes a server endpoint to be created.
type Config struct {
	Direction    Direction
	MaxInstances int // 1..254, or UnlimitedInstances
	Mode         Mode
	Options      Options

	InBufferSize  uint32
	OutBufferSize uint32

	// Inheritable marks the handle as inheritable by child processes.
	Inheritable bool

	// SecurityDescriptor is an optional SDDL string applied to the pipe.
	// Ignored when Options includes CurrentUserOnly.
	SecurityDescriptor string
}

func (c *Config) validate() error {
	switch c.Direction {
	case In, Out, InOut:
	default:
		return &ArgumentError{Name: "direction", Value: c.Direction}
	}
	if c.MaxInstances != UnlimitedInstances && (c.MaxInstances < 1 || c.MaxInstances > maxFixedInstances) {
		return &ArgumentError{Name: "max instances", Value: c.MaxInstances}
	}
	switch c.Mode {
	case Byte, Message:
	default:
		return &ArgumentError{Name: "transmission mode", Value: c.Mode}
	}
	if c.Options&^optionsMask != 0 {
		return &ArgumentError{Name: "options", Value: c.Options}
	}
	return nil
}

// openMode combines the direction, the first-instance flag and the
// remaining option bits into the CreateNamedPipe open mode.
func (c *Config) openMode() uint32 {
	m := uint32(c.Direction)
	if c.MaxInstances == 1 {
		m |= 0x80000 // FILE_FLAG_FIRST_PIPE_INSTANCE
	}
	m |= uint32(c.Options &^ CurrentUserOnly)
	return m
}

// pipeMode pairs the transmission mode with its mirrored read mode.
func (c *Config) pipeMode() uint32 {
	m := uint32(c.Mode)
	if c.Mode == Message {
		m |= 0x2 // PIPE_READMODE_MESSAGE
	}
	return m
}

// nativeInstances maps the instance count onto the native field.
func (c *Config) nativeInstances() uint32 {
	if c.MaxInstances == UnlimitedInstances {
		return 0xFF // PIPE_UNLIMITED_INSTANCES
	}
	return uint32(c.MaxInstances)
}

// overlapped reports whether the endpoint will use asynchronous I/O.
func (c *Config) overlapped() bool {
	return c.Options&Overlapped != 0
}
