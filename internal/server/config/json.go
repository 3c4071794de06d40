package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/scanvault/scanvault/internal/flagx"
	"github.com/scanvault/scanvault/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "30s" and integer nanoseconds.
//
// Every field is a pointer so that a partial configuration file overlays
// only the keys it actually contains; keys absent from the file leave the
// defaults (or earlier layers) untouched.
type JsonConfig struct {
	EndpointAddr                *string         `json:"endpoint_addr"`
	DatabaseDSN                 *string         `json:"database_dsn"`
	SecretKey                   *string         `json:"secret_key"`
	WebhookSecret               *string         `json:"webhook_secret"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration"`
	S3RootUser                  *string         `json:"s3_root_user"`
	S3RootPassword              *string         `json:"s3_root_password"`
	S3Region                    *string         `json:"s3_region"`
	S3BaseEndpoint              *string         `json:"s3_base_endpoint"`
	QuarantineBucket            *string         `json:"quarantine_bucket"`
	PermanentBucket             *string         `json:"permanent_bucket"`
	UploadURLValidity           *timex.Duration `json:"upload_url_validity"`
	DownloadURLValidity         *timex.Duration `json:"download_url_validity"`
	SweepInterval               *timex.Duration `json:"sweep_interval"`
	SweepCallTimeout            *timex.Duration `json:"sweep_call_timeout"`
	UploadGracePeriod           *timex.Duration `json:"upload_grace_period"`
	ScanTimeout                 *timex.Duration `json:"scan_timeout"`
	MaxFilesPerOwner            *int            `json:"max_files_per_owner"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The file path is taken from the -c or -config command-line flags; if
// neither is set, no JSON file is loaded. If the file cannot be read or
// contains invalid JSON, the function panics.
//
// The caller is expected to merge these values with defaults and
// command-line flags as part of the full configuration process.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	setString(&config.EndpointAddr, c.EndpointAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.WebhookSecret, c.WebhookSecret)
	setDuration(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.QuarantineBucket, c.QuarantineBucket)
	setString(&config.PermanentBucket, c.PermanentBucket)
	setDuration(&config.UploadURLValidity, c.UploadURLValidity)
	setDuration(&config.DownloadURLValidity, c.DownloadURLValidity)
	setDuration(&config.SweepInterval, c.SweepInterval)
	setDuration(&config.SweepCallTimeout, c.SweepCallTimeout)
	setDuration(&config.UploadGracePeriod, c.UploadGracePeriod)
	setDuration(&config.ScanTimeout, c.ScanTimeout)
	if c.MaxFilesPerOwner != nil {
		config.MaxFilesPerOwner = *c.MaxFilesPerOwner
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(dst *time.Duration, src *timex.Duration) {
	if src != nil {
		*dst = src.Duration
	}
}
