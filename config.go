package materna

// Config defines a public type used by materna APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Session SessionConfig
	Wipe    WipeConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls restore and input-validation behavior.
type SessionConfig struct {
	// ValidateInput runs struct validation on Credentials/RegisterInput
	// before any network call. On by default.
	ValidateInput bool
	// RejectExpiredOnRestore makes Initialize treat a persisted JWT whose
	// exp claim has already passed as absent, instead of restoring it
	// optimistically. Off by default: restore never does a network round
	// trip and an opaque (non-JWT) token is always restored as-is.
	RejectExpiredOnRestore bool
}

/*
====================================
WIPE CONFIG
====================================
*/

// WipeConfig tunes the complete-wipe removal and allow sets. The fixed
// auth/cache keys are always removed regardless of configuration.
type WipeConfig struct {
	// AllowKeys are exact keys the wipe never removes, in addition to the
	// installation-id key.
	AllowKeys []string
	// AllowPrefixes are key prefixes the wipe never removes. Defaults to
	// the devtools/debugger prefixes.
	AllowPrefixes []string
	// ExtraLegacyKeys are removed on every wipe on top of the fixed
	// legacy/cache key list.
	ExtraLegacyKeys []string
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig defines a public type used by materna APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig defines a public type used by materna APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			ValidateInput: true,
		},
		Wipe: WipeConfig{
			AllowPrefixes: []string{"__devtools", "__debug"},
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Wipe.AllowKeys = append([]string(nil), cfg.Wipe.AllowKeys...)
	out.Wipe.AllowPrefixes = append([]string(nil), cfg.Wipe.AllowPrefixes...)
	out.Wipe.ExtraLegacyKeys = append([]string(nil), cfg.Wipe.ExtraLegacyKeys...)
	return out
}
