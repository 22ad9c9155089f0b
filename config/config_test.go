package config

import (
	"strings"
	"testing"
	"time"
)

func setStoreEnv(t *testing.T) {
	t.Helper()
	t.Setenv("POSTGRESQL_HOST", "db.internal")
	t.Setenv("POSTGRESQL_USER", "dd")
	t.Setenv("POSTGRESQL_DATABASE", "dignity")
}

func TestLoad_Defaults(t *testing.T) {
	setStoreEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.ServerPort != "8888" {
		t.Fatalf("expected default port 8888, got %q", cfg.ServerPort)
	}
	if cfg.DispatchBatchSize != 10 {
		t.Fatalf("expected batch size 10, got %d", cfg.DispatchBatchSize)
	}
	if cfg.DispatchInterval != 5*time.Minute {
		t.Fatalf("expected interval 5m, got %v", cfg.DispatchInterval)
	}
	if cfg.RecaptchaVerifyURL != "https://www.google.com/recaptcha/api/siteverify" {
		t.Fatalf("unexpected verify url %q", cfg.RecaptchaVerifyURL)
	}
	if !cfg.IsDevelopment() || cfg.IsProduction() {
		t.Fatalf("expected development environment, got %q", cfg.Environment)
	}
}

func TestLoad_MissingStoreIsFatal(t *testing.T) {
	t.Setenv("POSTGRESQL_HOST", "")
	t.Setenv("POSTGRESQL_USER", "")
	t.Setenv("POSTGRESQL_DATABASE", "")

	_, err := Load()
	if err == nil {
		t.Fatalf("expected error when store configuration is missing")
	}
	if !strings.Contains(err.Error(), "POSTGRESQL_HOST") {
		t.Fatalf("expected error to name POSTGRESQL_HOST, got %v", err)
	}
}

func TestLoad_RejectsNonPositiveBatch(t *testing.T) {
	setStoreEnv(t)
	t.Setenv("DISPATCH_BATCH_SIZE", "0")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for zero batch size")
	}
}

func TestSMSConfigured(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want bool
	}{
		{
			name: "twilio complete",
			cfg:  Config{SMSProvider: "twilio", TwilioAccountSID: "AC1", TwilioAuthToken: "tok", TwilioPhoneNumber: "+15550001111"},
			want: true,
		},
		{
			name: "twilio missing number",
			cfg:  Config{SMSProvider: "twilio", TwilioAccountSID: "AC1", TwilioAuthToken: "tok"},
			want: false,
		},
		{
			name: "aliyun complete",
			cfg: Config{SMSProvider: "aliyun", AliCloudAccessKeyID: "id", AliCloudAccessKeySecret: "secret",
				SMSSignName: "sign", SMSTemplateCode: "SMS_1"},
			want: true,
		},
		{
			name: "stub",
			cfg:  Config{SMSProvider: "stub"},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.SMSConfigured(); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestGetRabbitMQURL(t *testing.T) {
	cfg := Config{
		RabbitMQUsername: "guest",
		RabbitMQPassword: "guest",
		RabbitMQAddr:     "mq",
		RabbitMQPort:     "5672",
		RabbitMQVhost:    "/",
	}
	if got := cfg.GetRabbitMQURL(); got != "amqp://guest:guest@mq:5672/" {
		t.Fatalf("unexpected url %q", got)
	}
}
