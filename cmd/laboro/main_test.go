package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantCommand string
		wantRest    []string
	}{
		{
			name:        "no arguments defaults to serve",
			args:        nil,
			wantCommand: "serve",
			wantRest:    nil,
		},
		{
			name:        "command with flags",
			args:        []string{"crawl", "-pages", "2"},
			wantCommand: "crawl",
			wantRest:    []string{"-pages", "2"},
		},
		{
			name:        "leading flag defaults to serve",
			args:        []string{"-v"},
			wantCommand: "serve",
			wantRest:    []string{"-v"},
		},
		{
			name:        "empty first argument defaults to serve",
			args:        []string{""},
			wantCommand: "serve",
			wantRest:    []string{""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			command, rest := splitCommand(tt.args)
			assert.Equal(t, tt.wantCommand, command)
			assert.Equal(t, tt.wantRest, rest)
		})
	}
}
