package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/framebatch/internal/cli"
	"github.com/rshade/framebatch/pkg/version"
)

func TestMainComponents(t *testing.T) {
	t.Run("version available", func(t *testing.T) {
		assert.NotEmpty(t, version.GetVersion())
	})

	t.Run("cli root command", func(t *testing.T) {
		root := cli.NewRootCmd(version.GetVersion())
		require.NotNil(t, root)
		assert.Equal(t, "framebatch", root.Use)

		names := make([]string, 0, len(root.Commands()))
		for _, c := range root.Commands() {
			names = append(names, c.Name())
		}
		assert.Subset(t, names, []string{"run", "monitor", "serve", "config", "history"})
	})
}

func TestExtractOverrunExitCode(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantExitCode  int
		wantIsOverrun bool
	}{
		{
			name:          "OverrunExitError with exit code 2",
			err:           &cli.OverrunExitError{ExitCode: 2, Reason: "3 of 10 frames exceeded the 2.500ms budget"},
			wantExitCode:  2,
			wantIsOverrun: true,
		},
		{
			name:          "OverrunExitError with exit code 0",
			err:           &cli.OverrunExitError{ExitCode: 0, Reason: "report only"},
			wantExitCode:  0,
			wantIsOverrun: true,
		},
		{
			name:          "wrapped OverrunExitError",
			err:           fmt.Errorf("run: %w", &cli.OverrunExitError{ExitCode: 42, Reason: "wrapped"}),
			wantExitCode:  42,
			wantIsOverrun: true,
		},
		{
			name:          "joined OverrunExitError",
			err:           errors.Join(errors.New("outer"), &cli.OverrunExitError{ExitCode: 3, Reason: "joined"}),
			wantExitCode:  3,
			wantIsOverrun: true,
		},
		{
			name:         "other errors exit 1",
			err:          errors.New("generic error"),
			wantExitCode: 1,
		},
		{
			name:         "nil error returns 0",
			err:          nil,
			wantExitCode: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var overrun *cli.OverrunExitError
			assert.Equal(t, tt.wantIsOverrun, errors.As(tt.err, &overrun))
			assert.Equal(t, tt.wantExitCode, extractOverrunExitCode(tt.err))
		})
	}
}
