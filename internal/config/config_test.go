package config

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("TRANSFERROOM_EMAIL", "sync@example.com")
	t.Setenv("TRANSFERROOM_PASSWORD", "hunter2")
}

func TestLoad_AppEnvValidation(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_RequiresCredentials(t *testing.T) {
	t.Run("missing email", func(t *testing.T) {
		t.Setenv("APP_ENV", EnvDev)
		t.Setenv("TRANSFERROOM_EMAIL", "")
		t.Setenv("TRANSFERROOM_PASSWORD", "hunter2")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error when TRANSFERROOM_EMAIL is empty")
		}
	})

	t.Run("missing password", func(t *testing.T) {
		t.Setenv("APP_ENV", EnvDev)
		t.Setenv("TRANSFERROOM_EMAIL", "sync@example.com")
		t.Setenv("TRANSFERROOM_PASSWORD", "   ")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error when TRANSFERROOM_PASSWORD is blank")
		}
	})
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ServiceName != "transferroom-sync" {
		t.Fatalf("unexpected default service name: %q", cfg.ServiceName)
	}
	if cfg.TransferRoomBaseURL != "https://apiprod.transferroom.com/api/external" {
		t.Fatalf("unexpected default base URL: %q", cfg.TransferRoomBaseURL)
	}
	if cfg.TransferRoomTimeout != 60*time.Second {
		t.Fatalf("unexpected default timeout: %s", cfg.TransferRoomTimeout)
	}
	if cfg.TransferRoomMaxRetries != 3 {
		t.Fatalf("unexpected default max retries: %d", cfg.TransferRoomMaxRetries)
	}
	if cfg.TransferRoomRequestInterval != 500*time.Millisecond {
		t.Fatalf("unexpected default request interval: %s", cfg.TransferRoomRequestInterval)
	}
	if cfg.TransferRoomTokenTTL != 55*time.Minute {
		t.Fatalf("unexpected default token TTL: %s", cfg.TransferRoomTokenTTL)
	}
	if !cfg.TransferRoomCircuitEnabled {
		t.Fatalf("expected circuit breaker enabled by default")
	}
	if cfg.SyncPageSize != 10000 {
		t.Fatalf("unexpected default page size: %d", cfg.SyncPageSize)
	}
	if cfg.SyncBatchSize != 100 {
		t.Fatalf("unexpected default batch size: %d", cfg.SyncBatchSize)
	}
	if cfg.SyncMaxRecordFailures != 0 {
		t.Fatalf("unexpected default max record failures: %d", cfg.SyncMaxRecordFailures)
	}
	if cfg.SyncTestCap != 100 {
		t.Fatalf("unexpected default test cap: %d", cfg.SyncTestCap)
	}
	if cfg.SyncKindWorkers != 2 {
		t.Fatalf("unexpected default kind workers: %d", cfg.SyncKindWorkers)
	}
	if !cfg.DBDisablePreparedBinary {
		t.Fatalf("expected DBDisablePreparedBinary=true by default")
	}
}

func TestLoad_TransferRoomOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TRANSFERROOM_BASE_URL", "https://stage.transferroom.example/api/external")
	t.Setenv("TRANSFERROOM_TIMEOUT", "30s")
	t.Setenv("TRANSFERROOM_MAX_RETRIES", "5")
	t.Setenv("TRANSFERROOM_RETRY_BASE_DELAY", "250ms")
	t.Setenv("TRANSFERROOM_REQUEST_INTERVAL", "0s")
	t.Setenv("TRANSFERROOM_CIRCUIT_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.TransferRoomBaseURL != "https://stage.transferroom.example/api/external" {
		t.Fatalf("unexpected base URL: %q", cfg.TransferRoomBaseURL)
	}
	if cfg.TransferRoomTimeout != 30*time.Second {
		t.Fatalf("unexpected timeout: %s", cfg.TransferRoomTimeout)
	}
	if cfg.TransferRoomMaxRetries != 5 {
		t.Fatalf("unexpected max retries: %d", cfg.TransferRoomMaxRetries)
	}
	if cfg.TransferRoomRetryBaseDelay != 250*time.Millisecond {
		t.Fatalf("unexpected retry base delay: %s", cfg.TransferRoomRetryBaseDelay)
	}
	if cfg.TransferRoomRequestInterval != 0 {
		t.Fatalf("unexpected request interval: %s", cfg.TransferRoomRequestInterval)
	}
	if cfg.TransferRoomCircuitEnabled {
		t.Fatalf("expected circuit breaker disabled")
	}
}

func TestLoad_TransferRoomValidation(t *testing.T) {
	t.Run("invalid timeout", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("TRANSFERROOM_TIMEOUT", "soon")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid TRANSFERROOM_TIMEOUT")
		}
	})

	t.Run("zero retries", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("TRANSFERROOM_MAX_RETRIES", "0")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for TRANSFERROOM_MAX_RETRIES=0")
		}
	})

	t.Run("negative request interval", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("TRANSFERROOM_REQUEST_INTERVAL", "-1s")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for negative TRANSFERROOM_REQUEST_INTERVAL")
		}
	})
}

func TestLoad_SyncValidation(t *testing.T) {
	t.Run("zero page size", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("SYNC_PAGE_SIZE", "0")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for SYNC_PAGE_SIZE=0")
		}
	})

	t.Run("negative failure threshold", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("SYNC_MAX_RECORD_FAILURES", "-1")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for negative SYNC_MAX_RECORD_FAILURES")
		}
	})

	t.Run("overrides", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("SYNC_PAGE_SIZE", "2500")
		t.Setenv("SYNC_BATCH_SIZE", "50")
		t.Setenv("SYNC_MAX_RECORD_FAILURES", "20")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.SyncPageSize != 2500 {
			t.Fatalf("unexpected page size: %d", cfg.SyncPageSize)
		}
		if cfg.SyncBatchSize != 50 {
			t.Fatalf("unexpected batch size: %d", cfg.SyncBatchSize)
		}
		if cfg.SyncMaxRecordFailures != 20 {
			t.Fatalf("unexpected max record failures: %d", cfg.SyncMaxRecordFailures)
		}
	})
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_UptraceDSNFromOTLPHeaders(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "uptrace-dsn=https://token@api.uptrace.dev/123")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.UptraceDSN != "https://token@api.uptrace.dev/123" {
		t.Fatalf("unexpected uptrace DSN: %q", cfg.UptraceDSN)
	}
}

func TestLoad_DBDisablePreparedBinaryResultParsing(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DB_DISABLE_PREPARED_BINARY_RESULT", "not-bool")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid DB_DISABLE_PREPARED_BINARY_RESULT")
	}
}

func TestLoad_LogLevelParsing(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_LOG_LEVEL", "warn")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.LogLevel.String() != "warn" {
		t.Fatalf("unexpected log level: %s", cfg.LogLevel.String())
	}
}
