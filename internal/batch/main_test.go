package batch

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain ensures no worker goroutines outlive a batch, including on
// cancellation paths.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
