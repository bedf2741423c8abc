package internaldefs

import (
	materna "github.com/materna-health/materna-go"
)

// CounterDef binds one counter MetricID to its exported name and help text.
type CounterDef struct {
	ID   materna.MetricID
	Name string
	Help string
}

// HistogramDef binds one histogram MetricID to its exported name and help
// text.
type HistogramDef struct {
	ID   materna.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in render order.
var CounterDefs = []CounterDef{
	{ID: materna.MetricLoginSuccess, Name: "materna_login_success_total", Help: "Logins that established a session."},
	{ID: materna.MetricLoginFailure, Name: "materna_login_failure_total", Help: "Logins rejected by the backend."},
	{ID: materna.MetricLoginRoleRejected, Name: "materna_login_role_rejected_total", Help: "Logins rejected by the patient role gate."},
	{ID: materna.MetricRegisterSuccess, Name: "materna_register_success_total", Help: "Registrations that established a session."},
	{ID: materna.MetricRegisterFailure, Name: "materna_register_failure_total", Help: "Registrations rejected by the backend."},
	{ID: materna.MetricSessionRestored, Name: "materna_session_restored_total", Help: "Sessions restored from the store at startup."},
	{ID: materna.MetricRestoreRejectedExpired, Name: "materna_restore_rejected_expired_total", Help: "Restores skipped because the persisted token was expired."},
	{ID: materna.MetricLogout, Name: "materna_logout_total", Help: "Voluntary logouts."},
	{ID: materna.MetricForcedLogout, Name: "materna_forced_logout_total", Help: "Forced complete logouts."},
	{ID: materna.MetricAuthFailure, Name: "materna_auth_failure_total", Help: "Detected authentication failures."},
	{ID: materna.MetricFailureBroadcast, Name: "materna_failure_broadcast_total", Help: "Failure callbacks invoked."},
	{ID: materna.MetricCallbackPanic, Name: "materna_callback_panic_total", Help: "Failure callbacks that panicked during broadcast."},
	{ID: materna.MetricRefreshSuccess, Name: "materna_refresh_success_total", Help: "Successful token refreshes."},
	{ID: materna.MetricRefreshFailure, Name: "materna_refresh_failure_total", Help: "Failed token refreshes."},
	{ID: materna.MetricValidateSuccess, Name: "materna_validate_success_total", Help: "Token validations that passed."},
	{ID: materna.MetricValidateFailure, Name: "materna_validate_failure_total", Help: "Token validations that failed."},
	{ID: materna.MetricWipe, Name: "materna_wipe_total", Help: "Complete-wipe runs."},
	{ID: materna.MetricWipeEnumerationFallback, Name: "materna_wipe_enumeration_fallback_total", Help: "Wipes where key enumeration failed and only the fixed-key tier ran."},
	{ID: materna.MetricWipeVerifyRetry, Name: "materna_wipe_verify_retry_total", Help: "Wipes where the verify step found residual session keys."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: materna.MetricWipeLatency, Name: "materna_wipe_latency_seconds", Help: "Complete-wipe duration histogram."},
}

// HistogramBounds are the upper bucket bounds in seconds, Prometheus "le"
// label format.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix mirrors HistogramBounds with characters legal in OTel
// instrument names.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates a raw snapshot slice to the fixed
// bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into the cumulative form
// Prometheus histograms expect.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
