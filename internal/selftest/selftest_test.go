package selftest

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kgodden/udp-receive-rar/receiver"
)

func TestRunPasses(t *testing.T) {
	var out bytes.Buffer
	results, err := Run(context.Background(), Options{
		PollInterval: 5 * time.Millisecond,
		Out:          &out,
	})
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.True(t, Passed(results))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, []string{
		"PASS: sync string, received: message1, expected: message1",
		"PASS: async string, received: message2, expected: message2",
		"PASS: sync binary, vectors match",
		"PASS: async binary, vectors match",
	}, lines)

	assert.Equal(t, []byte{'m', 'e', 's', 's', 'a', 'g', 'e', '4', 0x00, 0x01, 0x80, 0xFF}, results[3].Received)
}

func TestRunBindError(t *testing.T) {
	_, err := Run(context.Background(), Options{Address: "not-an-address"})
	var bindErr *receiver.BindError
	assert.True(t, errors.As(err, &bindErr))
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, Options{PollInterval: 5 * time.Millisecond})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPassed(t *testing.T) {
	ok := Result{Passed: true}
	assert.True(t, Passed([]Result{ok, ok, ok, ok}))
	assert.False(t, Passed([]Result{ok, ok}))
	assert.False(t, Passed([]Result{ok, ok, {Passed: false}, ok}))
}

func TestResultString(t *testing.T) {
	r := Result{Name: "sync string", Received: []byte("a"), Expected: []byte("b")}
	assert.Equal(t, "FAIL: sync string, received: a, expected: b", r.String())

	r = Result{Name: "async binary", Binary: true}
	assert.Equal(t, "FAIL: async binary, vectors don't match", r.String())
}
