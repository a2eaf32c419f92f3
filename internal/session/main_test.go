package session

import (
	"testing"

	"go.uber.org/goleak"
)

// The store spawns no goroutines of its own; any leak here comes from a
// test forgetting to join its workers.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
