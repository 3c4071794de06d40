package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"endpoint_addr":                  "www.example:9000",
		"database_dsn":                   "scanvault-db",
		"secret_key":                     "my_secret_key",
		"webhook_secret":                 "my_webhook_secret",
		"access_token_validity_duration": "30m",
		"s3_root_user":                   "user",
		"s3_root_password":               "password",
		"s3_region":                      "region",
		"s3_base_endpoint":               "base_endpoint",
		"quarantine_bucket":              "qbucket",
		"permanent_bucket":               "pbucket",
		"upload_url_validity":            "15m",
		"download_url_validity":          "15m",
		"sweep_interval":                 "30s",
		"sweep_call_timeout":             "3s",
		"upload_grace_period":            "5m",
		"scan_timeout":                   "15m",
		"max_files_per_owner":            42,
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{}
		parseJson(cfg)

		assert.Equal(t, "www.example:9000", cfg.EndpointAddr)
		assert.Equal(t, "scanvault-db", cfg.DatabaseDSN)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, "my_webhook_secret", cfg.WebhookSecret)
		assert.Equal(t, 30*time.Minute, cfg.AccessTokenValidityDuration)
		assert.Equal(t, "user", cfg.S3RootUser)
		assert.Equal(t, "password", cfg.S3RootPassword)
		assert.Equal(t, "region", cfg.S3Region)
		assert.Equal(t, "base_endpoint", cfg.S3BaseEndpoint)
		assert.Equal(t, "qbucket", cfg.QuarantineBucket)
		assert.Equal(t, "pbucket", cfg.PermanentBucket)
		assert.Equal(t, 30*time.Second, cfg.SweepInterval)
		assert.Equal(t, 3*time.Second, cfg.SweepCallTimeout)
		assert.Equal(t, 5*time.Minute, cfg.UploadGracePeriod)
		assert.Equal(t, 15*time.Minute, cfg.ScanTimeout)
		assert.Equal(t, 42, cfg.MaxFilesPerOwner)
	})

	t.Run("partial file keeps unset fields", func(t *testing.T) {
		partial := writeTempJSON(t, dir, "partial.json", map[string]any{
			"secret_key": "only_this_key",
		})
		os.Args = []string{"testbin", "-config", partial}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, "only_this_key", cfg.SecretKey)
		// Timing windows must survive an overlay that does not mention them;
		// a zero SweepInterval would crash the sweep ticker at startup.
		assert.Equal(t, 30*time.Second, cfg.SweepInterval)
		assert.Equal(t, 5*time.Second, cfg.SweepCallTimeout)
		assert.Equal(t, 5*time.Minute, cfg.UploadGracePeriod)
		assert.Equal(t, 15*time.Minute, cfg.ScanTimeout)
		assert.Equal(t, 100, cfg.MaxFilesPerOwner)
	})

	t.Run("no config flag leaves values untouched", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{EndpointAddr: "defaults:1234", DatabaseDSN: "default-db"}
		parseJson(cfg)

		assert.Equal(t, "defaults:1234", cfg.EndpointAddr)
		assert.Equal(t, "default-db", cfg.DatabaseDSN)
	})
}
