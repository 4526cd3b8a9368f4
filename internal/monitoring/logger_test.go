package monitoring

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetLogger(t *testing.T) {
	defer SetLogger(nil)

	var got string
	SetLogger(func(format string, v ...interface{}) {
		got = fmt.Sprintf(format, v...)
	})
	Logf("decoded %d frames", 3)
	assert.Equal(t, "decoded 3 frames", got)

	// nil installs a no-op, not a nil func.
	SetLogger(nil)
	assert.NotPanics(t, func() { Logf("ignored") })
}
