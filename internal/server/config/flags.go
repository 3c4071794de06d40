package config

import (
	"flag"
	"os"
	"time"

	"github.com/scanvault/scanvault/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-w string   scanner webhook shared secret
//	-t int      access token validity, minutes
//	-u string   S3 root user
//	-p string   S3 root password
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-q string   quarantine bucket name
//	-b string   permanent bucket name
//	-l int      upload URL validity, minutes
//	-k int      download URL validity, minutes
//	-i int      sweep interval, seconds
//	-j int      per-record sweep call timeout, seconds
//	-n int      upload grace period, minutes
//	-o int      scan timeout, minutes
//	-f int      per-owner file quota
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes using
//     flagx.FilterArgs, avoiding collisions with other components.
//   - Duration flags are accepted as integers (minutes or seconds as noted)
//     and then converted to time.Duration values.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-d", "-s", "-w", "-t", "-u", "-p", "-g", "-e",
		"-q", "-b", "-l", "-k", "-i", "-j", "-n", "-o", "-f",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.WebhookSecret, "w", config.WebhookSecret, "scanner webhook shared secret")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.QuarantineBucket, "q", config.QuarantineBucket, "quarantine bucket")
	fs.StringVar(&config.PermanentBucket, "b", config.PermanentBucket, "permanent bucket")

	uploadURLValidity := fs.Int("l", int(config.UploadURLValidity.Minutes()), "upload URL validity (in minutes)")
	downloadURLValidity := fs.Int("k", int(config.DownloadURLValidity.Minutes()), "download URL validity (in minutes)")
	sweepInterval := fs.Int("i", int(config.SweepInterval.Seconds()), "sweep interval (in seconds)")
	sweepCallTimeout := fs.Int("j", int(config.SweepCallTimeout.Seconds()), "per-record sweep call timeout (in seconds)")
	uploadGracePeriod := fs.Int("n", int(config.UploadGracePeriod.Minutes()), "upload grace period (in minutes)")
	scanTimeout := fs.Int("o", int(config.ScanTimeout.Minutes()), "scan timeout (in minutes)")

	fs.IntVar(&config.MaxFilesPerOwner, "f", config.MaxFilesPerOwner, "per-owner file quota")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
	config.UploadURLValidity = time.Duration(*uploadURLValidity) * time.Minute
	config.DownloadURLValidity = time.Duration(*downloadURLValidity) * time.Minute
	config.SweepInterval = time.Duration(*sweepInterval) * time.Second
	config.SweepCallTimeout = time.Duration(*sweepCallTimeout) * time.Second
	config.UploadGracePeriod = time.Duration(*uploadGracePeriod) * time.Minute
	config.ScanTimeout = time.Duration(*scanTimeout) * time.Minute
}
