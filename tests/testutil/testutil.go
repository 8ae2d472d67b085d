package testutil

import (
	"fmt"
	"os"
	"strings"
	"testing"
)

// RequireTestEnvironment ensures that tests are running in the test environment.
// This prevents accidental execution of tests against production or development databases.
// It will fail the test immediately if GO_ENV is not set to "test".
func RequireTestEnvironment(t *testing.T) {
	t.Helper()

	env := os.Getenv("GO_ENV")
	if env != "test" {
		t.Fatalf("SAFETY CHECK FAILED: Tests must run with GO_ENV=test to prevent data loss. Current GO_ENV=%q. Set GO_ENV=test before running tests.", env)
	}
}

// SetTestEnv sets the variables config.Load needs for a test run and restores them afterwards
func SetTestEnv(t *testing.T) {
	t.Helper()

	t.Setenv("GO_ENV", "test")
	t.Setenv("DATABASE_URL", "sqlite://memory_test")
	t.Setenv("PORT", "8080")
	t.Setenv("AUTH0_DOMAIN", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("AWS_S3_BUCKET", "test-bucket")
	t.Setenv("MILESTONE_THRESHOLD", "10")

	RequireTestEnvironment(t)
}

// PrintEnvironmentInfo prints the current test environment configuration.
// Useful for debugging test environment issues.
func PrintEnvironmentInfo() {
	fmt.Printf("Test Environment Info:\n")
	fmt.Printf("  GO_ENV: %s\n", os.Getenv("GO_ENV"))
	fmt.Printf("  DATABASE_URL: %s\n", MaskDatabaseURL(os.Getenv("DATABASE_URL")))
	fmt.Printf("  REDIS_URL: %s\n", os.Getenv("REDIS_URL"))
}

// MaskDatabaseURL hides everything after the scheme and host prefix and flags
// URLs that do not look like a test database
func MaskDatabaseURL(url string) string {
	if url == "" {
		return "(not set)"
	}
	if len(url) <= 20 {
		return url
	}
	note := " [WARNING: may not be test DB]"
	if strings.Contains(strings.ToLower(url), "test") {
		note = " [contains 'test']"
	}
	return url[:20] + "..." + note
}
