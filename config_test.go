package outlook

import (
	"testing"
)

func validConfig() *Config {
	return &Config{
		AzureAD: AzureADConfig{
			ClientID:    "client-id",
			TenantID:    "tenant-id",
			RedirectURL: "http://localhost:8080/auth/callback",
		},
		Security: SecurityConfig{
			StorageSecret: "test-storage-secret",
		},
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing client ID",
			mutate:  func(c *Config) { c.AzureAD.ClientID = "" },
			wantErr: true,
		},
		{
			name:    "missing tenant ID",
			mutate:  func(c *Config) { c.AzureAD.TenantID = "" },
			wantErr: true,
		},
		{
			name:    "missing redirect URL",
			mutate:  func(c *Config) { c.AzureAD.RedirectURL = "" },
			wantErr: true,
		},
		{
			name:    "missing storage secret",
			mutate:  func(c *Config) { c.Security.StorageSecret = "" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validConfig()
			tt.mutate(config)

			err := config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigMissingFields(t *testing.T) {
	config := &Config{}
	missing := config.MissingFields()

	want := []string{"AzureAD.ClientID", "AzureAD.TenantID", "AzureAD.RedirectURL", "Security.StorageSecret"}
	if len(missing) != len(want) {
		t.Fatalf("MissingFields() = %v, want %v", missing, want)
	}
	for i, field := range want {
		if missing[i] != field {
			t.Errorf("MissingFields()[%d] = %q, want %q", i, missing[i], field)
		}
	}

	if got := validConfig().MissingFields(); len(got) != 0 {
		t.Errorf("MissingFields() on valid config = %v, want empty", got)
	}
}
