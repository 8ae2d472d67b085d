package integration

import (
	"os"
	"testing"

	"github.com/kendall-kelly/loyalty-rewards-api/tests/testutil"
)

// TestMain dumps the environment when the run fails so misconfigured
// databases are easy to spot
func TestMain(m *testing.M) {
	code := m.Run()
	if code != 0 {
		testutil.PrintEnvironmentInfo()
	}
	os.Exit(code)
}
