package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTermux_NotifyArgs(t *testing.T) {
	var gotName string
	var gotArgs []string
	n := NewTermux("/data/bin/termux-notification")
	n.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		gotName, gotArgs = name, args
		return nil, nil
	}

	err := n.Notify(context.Background(), "Hotspot Login", "Logged in as alice")

	require.NoError(t, err)
	assert.Equal(t, "/data/bin/termux-notification", gotName)
	assert.Equal(t, []string{"--title", "Hotspot Login", "--content", "Logged in as alice"}, gotArgs)
}

func TestTermux_NotifyError(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		wantMsg string
	}{
		{name: "with output", output: "Termux:API not installed\n", wantMsg: "Termux:API not installed"},
		{name: "without output", output: "", wantMsg: "exit status 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewTermux(TermuxCommand)
			n.run = func(context.Context, string, ...string) ([]byte, error) {
				return []byte(tt.output), errors.New("exit status 1")
			}

			err := n.Notify(context.Background(), "t", "m")

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestLog_Notify(t *testing.T) {
	assert.NoError(t, Log{}.Notify(context.Background(), "t", "m"))
}

func TestDetect(t *testing.T) {
	found := detect(func(string) (string, error) { return "/usr/bin/termux-notification", nil })
	termux, ok := found.(*Termux)
	require.True(t, ok)
	assert.Equal(t, "/usr/bin/termux-notification", termux.bin)

	missing := detect(func(string) (string, error) { return "", errors.New("not found") })
	assert.IsType(t, Log{}, missing)
}
