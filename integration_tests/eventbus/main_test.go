package eventbusintegrationtests

import (
	"os"
	"testing"

	"github.com/Black-And-White-Club/dingleup/integration_tests/testutils"
)

func TestMain(m *testing.M) {
	os.Exit(testutils.Run(m))
}
