package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAddr(t *testing.T) {
	t.Parallel()

	tests := []struct {
		addr    string
		wantErr bool
	}{
		{"127.0.0.1:8000", false},
		{"localhost:8000", false},
		{":8000", false},
		{":0", false}, // auto-assign
		{"[::1]:8000", false},
		{"127.0.0.1", true},  // no port
		{"127.0.0.1:", true}, // empty port
		{"127.0.0.1:abc", true},
		{"127.0.0.1:70000", true},
		{"bad host:8000", true},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			t.Parallel()

			err := validateAddr(tt.addr)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
