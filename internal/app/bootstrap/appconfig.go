// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework-level settings (ports, TLS, logging, CORS); everything specific
// to CoachHub lives here and is passed to the lifecycle hooks.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Bearer tokens
	JWTSecret    string        // HMAC signing secret, at least 32 characters
	JWTAlgorithm string        // HS256, HS384 or HS512
	TokenTTL     time.Duration // access token lifetime

	// Invitations
	InvitationExpiry time.Duration // how long an emailed signup code stays valid

	// File storage configuration
	StorageType      string // Storage backend: "local" or "s3"
	StorageLocalPath string // Local storage path (e.g., "./uploads")
	StorageLocalURL  string // URL prefix for serving local files (e.g., "/files")

	// S3 configuration (only used if StorageType is "s3")
	StorageS3Region    string
	StorageS3Bucket    string
	StorageS3Prefix    string
	StorageS3Endpoint  string // S3-compatible endpoint (MinIO, R2); blank for AWS
	StorageS3AccessKey string // blank uses the default AWS credential chain
	StorageS3SecretKey string
	StoragePublicURL   string // base URL for object links (CDN); blank uses the bucket URL

	MaxUploadMB int64 // per-file upload limit

	// Email/SMTP configuration
	MailSMTPHost string // SMTP server host (e.g., localhost for Mailpit)
	MailSMTPPort int    // SMTP server port (e.g., 1025 for Mailpit, 587 for SES)
	MailSMTPUser string
	MailSMTPPass string
	MailFrom     string // From email address (e.g., noreply@coachhub.local)
	MailFromName string // From display name (e.g., CoachHub)

	SiteName string // shown on the welcome route and in invitation emails

	// Initial admin account, created on startup when both are set.
	AdminEmail    string
	AdminPassword string

	// Audit logging: "all", "db", "log" or "off"
	AuditLogAuth  string
	AuditLogAdmin string

	// Login rate limits
	LoginRateIP    int // attempts per IP per minute
	LoginRateEmail int // attempts per email per 5 minutes
}

func (c AppConfig) maxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}
