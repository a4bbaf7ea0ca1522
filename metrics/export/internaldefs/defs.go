package internaldefs

import (
	goSession "github.com/MrEthical07/goSession"
)

// CounterDef defines a public type used by goSession APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by goSession APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the session engine.
var CounterDefs = []CounterDef{
	{ID: goSession.MetricLoginSuccess, Name: "gosession_login_success_total", Help: "Successful login attempts."},
	{ID: goSession.MetricLoginFailure, Name: "gosession_login_failure_total", Help: "Failed login attempts."},
	{ID: goSession.MetricLoginLockedOut, Name: "gosession_login_locked_out_total", Help: "Login attempts denied by the lockout gate."},
	{ID: goSession.MetricLoginRateLimited, Name: "gosession_login_rate_limited_total", Help: "Login attempts denied by the inter-attempt throttle."},
	{ID: goSession.MetricRefreshSuccess, Name: "gosession_refresh_success_total", Help: "Successful refresh operations."},
	{ID: goSession.MetricRefreshFailure, Name: "gosession_refresh_failure_total", Help: "Failed refresh operations."},
	{ID: goSession.MetricSessionExpired, Name: "gosession_session_expired_total", Help: "Sessions terminated by terminal refresh failures."},
	{ID: goSession.MetricSessionRestored, Name: "gosession_session_restored_total", Help: "Sessions restored from the persisted backup."},
	{ID: goSession.MetricScheduledRefreshFired, Name: "gosession_scheduled_refresh_fired_total", Help: "Proactive refresh timer firings."},
	{ID: goSession.MetricLogout, Name: "gosession_logout_total", Help: "Logout operations."},
}

// HistogramDefs is an exported constant or variable used by the session engine.
var HistogramDefs = []HistogramDef{
	{ID: goSession.MetricValidateLatency, Name: "gosession_validate_latency_seconds", Help: "ValidateSession latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the session engine.
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

// HistogramBoundSuffix is an exported constant or variable used by the session engine.
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

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
