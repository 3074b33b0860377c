// Package trace records spans of the nixgen build for diagnosing slow or
// stuck builds.
//
// Enable tracing from the command line:
//
//	nixgen build --trace=- --trace-level=detail
//
// # Levels
//
//   - LevelOff: no tracing
//   - LevelError: only failed spans
//   - LevelPhase: driver and phase boundaries (load, generate, write)
//   - LevelDetail: one span per module
//   - LevelDebug: everything, including per-definition spans
//
// # Context propagation
//
// The tracer and the current span travel in the context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	ctx, span := trace.Start(ctx, trace.ScopePhase, "generate")
//	defer span.End("")
package trace
