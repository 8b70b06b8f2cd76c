package testutils

import (
	"fmt"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

// IntegrationEnv enables the tests that need docker.
const IntegrationEnv = "VFSEARCH_INTEGRATION"

func SkipUnlessIntegration(t *testing.T) {
	t.Helper()

	if os.Getenv(IntegrationEnv) == "" {
		t.Skipf("set %s to run integration tests", IntegrationEnv)
	}
}

func AssertEqualDiff(t *testing.T, expected, actual interface{}, opts ...cmp.Option) {
	t.Helper()

	if diff := cmp.Diff(expected, actual, opts...); diff != "" {
		msg := fmt.Sprintf(
			"Not equal:\n"+
				"expected:\n\t'%v'\n"+
				"actual:\n\t'%v'\n"+
				"diff (-expected +actual):\n%s",
			expected, actual, diff,
		)
		assert.Fail(t, msg)
	}
}
