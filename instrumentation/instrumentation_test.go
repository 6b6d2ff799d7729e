package instrumentation

import (
	"context"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name: "default config",
			config: Config{
				Enabled: false,
			},
			wantErr: false,
		},
		{
			name: "with service name and version",
			config: Config{
				Enabled:        true,
				ServiceName:    "test-service",
				ServiceVersion: "1.0.0",
			},
			wantErr: false,
		},
		{
			name: "empty service name gets default",
			config: Config{
				Enabled: true,
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst, err := New(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if err != nil {
				return
			}

			if inst.Meter("graph") == nil {
				t.Error("Meter('graph') returned nil")
			}
			if inst.Tracer("storage") == nil {
				t.Error("Tracer('storage') returned nil")
			}
			if inst.Metrics() == nil {
				t.Error("Metrics() returned nil")
			}
			if inst.TracerProvider() == nil {
				t.Error("TracerProvider() returned nil")
			}
			if inst.MeterProvider() == nil {
				t.Error("MeterProvider() returned nil")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := inst.Shutdown(ctx); err != nil {
				t.Errorf("Shutdown() error = %v", err)
			}
			// Shutdown is idempotent.
			if err := inst.Shutdown(ctx); err != nil {
				t.Errorf("Second Shutdown() error = %v", err)
			}
		})
	}
}

func TestInstrumentation_NoOpRecording(t *testing.T) {
	inst, err := New(Config{Enabled: false})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := context.Background()

	// All recording should be safe no-ops.
	inst.Metrics().RecordAuthorizationStarted(ctx)
	inst.Metrics().RecordCallbackProcessed(ctx, true)
	inst.Metrics().RecordTokenRefresh(ctx, false)
	inst.Metrics().RecordTokenRevocation(ctx)
	inst.Metrics().RecordGraphRequest(ctx, "GET", "/me/messages", 200, 1, 12.5)
	inst.Metrics().RecordGraphRequest(ctx, "POST", "/me/sendMail", 503, 4, 120.0)
	inst.Metrics().RecordHTTPRequest(ctx, "GET", "/health", 200, 0.3)
	inst.Metrics().RecordRateLimitExceeded(ctx, "global")
}

func TestRegisterStorageSizeCallbacks(t *testing.T) {
	inst, err := New(Config{Enabled: true})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	err = inst.RegisterStorageSizeCallbacks(
		func() int64 { return 3 },
		func() int64 { return 1 },
	)
	if err != nil {
		t.Errorf("RegisterStorageSizeCallbacks() error = %v", err)
	}

	// Nil callbacks are tolerated.
	err = inst.RegisterStorageSizeCallbacks(nil, nil)
	if err != nil {
		t.Errorf("RegisterStorageSizeCallbacks(nil, nil) error = %v", err)
	}
}

func TestRecordError(t *testing.T) {
	// Nil span and nil error must both be safe.
	RecordError(nil, nil)
	RecordError(nil, context.Canceled)

	inst, err := New(Config{Enabled: true})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, span := inst.Tracer("graph").Start(context.Background(), "test")
	defer span.End()

	RecordError(span, nil)
	RecordError(span, context.Canceled)
	SetSpanSuccess(span)
	AddHTTPAttributes(span, "GET", "/health", 200)
	AddAuthFlowAttributes(span, "user-1", "User.Read")
}
