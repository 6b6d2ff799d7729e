// Package instrumentation provides OpenTelemetry tracing and metrics for
// the library.
//
// All layers accept an optional *Instrumentation via their
// SetInstrumentation methods. When instrumentation is nil or created with
// Enabled: false, no-op providers are used and the overhead is effectively
// zero, so callers can wire it unconditionally.
//
// Usage:
//
//	inst, err := instrumentation.New(instrumentation.Config{
//	    ServiceName:    "outlook-agent",
//	    ServiceVersion: "1.0.0",
//	    Enabled:        true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer inst.Shutdown(context.Background())
//
//	store.SetInstrumentation(inst)
//	client.SetInstrumentation(inst)
//
// Meters and tracers are scoped per layer ("http", "auth", "graph",
// "storage", "security"); the Metrics holder exposes pre-registered
// instruments plus Record* helpers for the common patterns. Storage size
// gauges are fed by callbacks registered through
// RegisterStorageSizeCallbacks so the store's mutex never has to be taken
// on the metrics collection path.
//
// Never record credential values (tokens, code verifiers, secrets) in span
// attributes or metric labels; the Attr* constants in this package name
// metadata only.
package instrumentation
