package bootstrap

import (
	"strings"
	"testing"
	"time"

	userstore "github.com/dalemusser/coachhub/internal/app/store/users"
	"github.com/dalemusser/coachhub/internal/app/system/indexes"
	"github.com/dalemusser/coachhub/internal/domain/models"
	"github.com/dalemusser/coachhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func TestEnsureAdmin_CreatesNew(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := ensureAdmin(ctx, db, "Root@Example.com", "changeme123", nil, testLogger())
	if err != nil {
		t.Fatalf("ensureAdmin failed: %v", err)
	}

	u, err := userstore.New(db).GetByEmail(ctx, "root@example.com")
	if err != nil {
		t.Fatalf("failed to find created admin: %v", err)
	}
	if u.Role != models.RoleAdmin {
		t.Errorf("expected role 'admin', got %q", u.Role)
	}
	if !userstore.CheckPassword(u, "changeme123") {
		t.Error("expected configured password to verify")
	}
}

func TestEnsureAdmin_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db, testLogger()); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := ensureAdmin(ctx, db, "root@example.com", "changeme123", nil, testLogger()); err != nil {
			t.Fatalf("ensureAdmin run %d failed: %v", i+1, err)
		}
	}

	n, err := db.Collection("users").CountDocuments(ctx, bson.M{"email": "root@example.com"})
	if err != nil {
		t.Fatalf("count users: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 admin, got %d", n)
	}
}

func TestEnsureAdmin_RejectsNonAdminOwner(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	fx.CreateAgent(ctx, "Kofi", "kofi@example.com")

	err := ensureAdmin(ctx, db, "kofi@example.com", "changeme123", nil, testLogger())
	if err == nil {
		t.Fatal("expected error when admin_email belongs to an agent")
	}
}

func validConfig() AppConfig {
	return AppConfig{
		JWTSecret:        strings.Repeat("k", 32),
		JWTAlgorithm:     "HS256",
		TokenTTL:         time.Hour,
		InvitationExpiry: 72 * time.Hour,
		StorageType:      storageLocal,
		StorageLocalPath: "./uploads",
		StorageLocalURL:  "/files",
		MaxUploadMB:      10,
		AuditLogAuth:     "all",
		AuditLogAdmin:    "db",
	}
}

func TestValidateAppConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *AppConfig)
		wantErr string
	}{
		{"valid", func(c *AppConfig) {}, ""},
		{"short secret", func(c *AppConfig) { c.JWTSecret = "short" }, "jwt_secret"},
		{"bad algorithm", func(c *AppConfig) { c.JWTAlgorithm = "RS256" }, "jwt algorithm"},
		{"zero ttl", func(c *AppConfig) { c.TokenTTL = 0 }, "token_ttl"},
		{"unknown storage", func(c *AppConfig) { c.StorageType = "ftp" }, "storage_type"},
		{"s3 without bucket", func(c *AppConfig) { c.StorageType = storageS3; c.StorageS3Region = "us-east-1" }, "storage_s3_bucket"},
		{"s3 half credentials", func(c *AppConfig) {
			c.StorageType = storageS3
			c.StorageS3Region = "us-east-1"
			c.StorageS3Bucket = "docs"
			c.StorageS3AccessKey = "AKIA"
		}, "storage_s3_secret_key"},
		{"admin without password", func(c *AppConfig) { c.AdminEmail = "root@example.com" }, "admin_password"},
		{"bad audit mode", func(c *AppConfig) { c.AuditLogAuth = "verbose" }, "audit log mode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(&c)
			err := validateAppConfig(c)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
