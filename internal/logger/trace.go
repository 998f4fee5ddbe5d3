package logger

import "context"

// TraceContext identifies the HTTP request an entry belongs to. The API
// middleware stores it on the request context.
type TraceContext struct {
	RequestID  string
	RemoteAddr string
}

type traceKey struct{}

func ContextWithTrace(ctx context.Context, trace TraceContext) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, traceKey{}, trace)
}

// TraceFromContext returns the zero TraceContext when ctx carries none.
func TraceFromContext(ctx context.Context) TraceContext {
	var trace TraceContext
	if ctx != nil {
		trace, _ = ctx.Value(traceKey{}).(TraceContext)
	}
	return trace
}

func traceFieldsFromContext(ctx context.Context) []Field {
	t := TraceFromContext(ctx)
	fields := make([]Field, 0, 2)
	for _, kv := range [...][2]string{{"request_id", t.RequestID}, {"remote_addr", t.RemoteAddr}} {
		if kv[1] != "" {
			fields = append(fields, String(kv[0], kv[1]))
		}
	}
	return fields
}
