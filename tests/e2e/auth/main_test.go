package auth

import (
	"fmt"
	"os"
	"testing"

	"research-admin/tests/testutil"
)

var c *testutil.E2EClient

func TestMain(m *testing.M) {
	var err error
	c, err = testutil.SetupE2EClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "e2e: skipping: %v\n", err)
		os.Exit(0)
	}
	os.Exit(m.Run())
}
