// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/coachhub/internal/app/system/auditlog"
	"github.com/dalemusser/coachhub/internal/app/system/auth"
	"github.com/dalemusser/coachhub/internal/app/system/inputval"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

const (
	storageLocal = "local"
	storageS3    = "s3"

	minJWTSecretLen     = 32
	minAdminPasswordLen = 8
)

// appConfigKeys defines the configuration keys for CoachHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: COACHHUB_MONGO_URI, COACHHUB_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "coachhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 5, Desc: "MongoDB min connection pool size (default: 5)"},

	// Bearer tokens
	{Name: "jwt_secret", Default: "", Desc: "HMAC secret for access tokens (at least 32 characters)"},
	{Name: "jwt_algorithm", Default: "HS256", Desc: "Token signing algorithm: HS256, HS384 or HS512"},
	{Name: "token_ttl", Default: "60m", Desc: "Access token lifetime (e.g., 60m, 2h)"},

	// Invitations
	{Name: "invitation_expiry", Default: "72h", Desc: "How long an emailed signup code stays valid"},

	// File storage configuration
	{Name: "storage_type", Default: storageLocal, Desc: "Storage backend: 'local' or 's3'"},
	{Name: "storage_local_path", Default: "./uploads", Desc: "Local storage path for uploaded files"},
	{Name: "storage_local_url", Default: "/files", Desc: "URL prefix for serving local files"},

	// S3 configuration
	{Name: "storage_s3_region", Default: "", Desc: "AWS region for S3"},
	{Name: "storage_s3_bucket", Default: "", Desc: "S3 bucket name"},
	{Name: "storage_s3_prefix", Default: "coachhub/", Desc: "S3 key prefix"},
	{Name: "storage_s3_endpoint", Default: "", Desc: "S3-compatible endpoint URL (blank for AWS)"},
	{Name: "storage_s3_access_key", Default: "", Desc: "S3 access key (blank uses the default credential chain)"},
	{Name: "storage_s3_secret_key", Default: "", Desc: "S3 secret key"},
	{Name: "storage_public_url", Default: "", Desc: "Public base URL for stored objects (e.g., a CDN)"},
	{Name: "max_upload_mb", Default: 10, Desc: "Per-file upload limit in megabytes"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "localhost", Desc: "SMTP server host"},
	{Name: "mail_smtp_port", Default: 1025, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@coachhub.local", Desc: "From email address"},
	{Name: "mail_from_name", Default: "CoachHub", Desc: "From display name"},

	{Name: "site_name", Default: "CoachHub", Desc: "Site name used in responses and emails"},

	// Admin bootstrap
	{Name: "admin_email", Default: "", Desc: "Email of the initial admin (created on startup if missing)"},
	{Name: "admin_password", Default: "", Desc: "Password for the initial admin"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: auditlog.ModeAll, Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: auditlog.ModeAll, Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Login rate limiting
	{Name: "login_rate_ip", Default: 10, Desc: "Login attempts allowed per IP per minute"},
	{Name: "login_rate_email", Default: 5, Desc: "Login attempts allowed per email per 5 minutes"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, COACHHUB_* for app) and flags,
// merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "COACHHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		JWTSecret:    appValues.String("jwt_secret"),
		JWTAlgorithm: strings.ToUpper(appValues.String("jwt_algorithm")),
		TokenTTL:     appValues.Duration("token_ttl", 60*time.Minute),

		InvitationExpiry: appValues.Duration("invitation_expiry", 72*time.Hour),

		StorageType:      strings.ToLower(appValues.String("storage_type")),
		StorageLocalPath: appValues.String("storage_local_path"),
		StorageLocalURL:  strings.TrimRight(appValues.String("storage_local_url"), "/"),

		StorageS3Region:    appValues.String("storage_s3_region"),
		StorageS3Bucket:    appValues.String("storage_s3_bucket"),
		StorageS3Prefix:    appValues.String("storage_s3_prefix"),
		StorageS3Endpoint:  appValues.String("storage_s3_endpoint"),
		StorageS3AccessKey: appValues.String("storage_s3_access_key"),
		StorageS3SecretKey: appValues.String("storage_s3_secret_key"),
		StoragePublicURL:   appValues.String("storage_public_url"),
		MaxUploadMB:        int64(appValues.Int("max_upload_mb")),

		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),
		MailFromName: appValues.String("mail_from_name"),

		SiteName: appValues.String("site_name"),

		AdminEmail:    appValues.String("admin_email"),
		AdminPassword: appValues.String("admin_password"),

		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),

		LoginRateIP:    appValues.Int("login_rate_ip"),
		LoginRateEmail: appValues.Int("login_rate_email"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// It catches configuration errors (bad Mongo URI, weak token secret,
// incomplete storage settings) before anything connects.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	return validateAppConfig(appCfg)
}

func validateAppConfig(c AppConfig) error {
	var errs []error

	if len(c.JWTSecret) < minJWTSecretLen {
		errs = append(errs, fmt.Errorf("jwt_secret must be at least %d characters", minJWTSecretLen))
	}
	if err := auth.ValidateAlgorithm(c.JWTAlgorithm); err != nil {
		errs = append(errs, err)
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("token_ttl must be positive"))
	}
	if c.InvitationExpiry <= 0 {
		errs = append(errs, errors.New("invitation_expiry must be positive"))
	}
	if c.MaxUploadMB <= 0 {
		errs = append(errs, errors.New("max_upload_mb must be positive"))
	}

	switch c.StorageType {
	case storageLocal:
		if c.StorageLocalPath == "" || !strings.HasPrefix(c.StorageLocalURL, "/") {
			errs = append(errs, errors.New("local storage requires storage_local_path and a storage_local_url starting with '/'"))
		}
	case storageS3:
		if c.StorageS3Region == "" || c.StorageS3Bucket == "" {
			errs = append(errs, errors.New("s3 storage requires storage_s3_region and storage_s3_bucket"))
		}
		if (c.StorageS3AccessKey == "") != (c.StorageS3SecretKey == "") {
			errs = append(errs, errors.New("storage_s3_access_key and storage_s3_secret_key must be set together"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage_type must be 'local' or 's3', got %q", c.StorageType))
	}

	if c.AdminEmail != "" {
		if !inputval.IsValidEmail(c.AdminEmail) {
			errs = append(errs, errors.New("admin_email is not a valid email address"))
		}
		if len(c.AdminPassword) < minAdminPasswordLen {
			errs = append(errs, fmt.Errorf("admin_password must be at least %d characters when admin_email is set", minAdminPasswordLen))
		}
	}

	for _, mode := range []string{c.AuditLogAuth, c.AuditLogAdmin} {
		switch mode {
		case "", auditlog.ModeAll, auditlog.ModeDB, auditlog.ModeLog, auditlog.ModeOff:
		default:
			errs = append(errs, fmt.Errorf("audit log mode must be all, db, log or off, got %q", mode))
		}
	}

	return errors.Join(errs...)
}
