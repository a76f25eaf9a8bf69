package match

const (
	// EngineVersion is the current version of the matching core
	EngineVersion = "v1.0.0"

	// DefaultCommandBuffer is the capacity of the engine command channel.
	DefaultCommandBuffer = 32768

	// DefaultRingCapacity is the capacity of the log ring buffer. Must be
	// a power of 2.
	DefaultRingCapacity = 4096
)
