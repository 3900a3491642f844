package ir

// Version constants for the serialized operation format and engine.
const (
	// FormatVersion is stamped on every serialized transaction.
	FormatVersion = "1"

	// EngineVersion is the gridcore engine version.
	EngineVersion = "0.1.0"
)
