package imaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoop(t *testing.T) {
	in := []byte{0xff, 0xd8, 0xff}

	out, ct, err := Noop{}.Process(in, "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.Equal(t, "image/jpeg", ct)
}
