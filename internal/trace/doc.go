// Package trace records what a compilation session does: session lifecycle,
// provider construction, generated functions and accessor emissions.
//
// Tracing is off unless a command asks for it:
//
//	evmjit ir --trace=- --trace-level=provider
//
// Sinks: Nop (disabled), StreamTracer (immediate write), RingTracer (last N
// events kept for crash dumps) and MultiTracer (fan-out).
//
// Scopes from coarse to fine are session, provider, function and instr. The
// level decides which scopes are recorded.
//
// Tracers travel through context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopeSession, "session", 0)
//	defer span.End("")
package trace
