package materna

import "context"

type requestIDContextKey struct{}
type deviceIDContextKey struct{}

// WithRequestID attaches a request correlation ID to ctx. The HTTP gateway
// forwards it as the X-Request-ID header and the audit trail records it.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, requestID)
}

// WithDeviceID attaches the device installation ID to ctx. The HTTP gateway
// forwards it as the X-Device-ID header so the backend can correlate
// sessions per device.
func WithDeviceID(ctx context.Context, deviceID string) context.Context {
	return context.WithValue(ctx, deviceIDContextKey{}, deviceID)
}

// RequestIDFromContext returns the request ID set by [WithRequestID], or "".
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id
}

// DeviceIDFromContext returns the device ID set by [WithDeviceID], or "".
func DeviceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	id, _ := ctx.Value(deviceIDContextKey{}).(string)
	return id
}
