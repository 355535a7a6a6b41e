package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidIdentity(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"alice.smith1", true},
		{"Alice.Smith42", true},
		{"alice.smith", false},
		{"alice1", false},
		{"alice.smith.1", false},
		{"alice.sm1th1", false},
		{"", false},
		{" alice.smith1", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidIdentity(tt.in), tt.in)
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"alice.smith1", "Alice Smith"},
		{"ALICE.SMITH12", "Alice Smith"},
		{"bob.jones", "Bob Jones"},
		{"a.b7", "A B"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DisplayName(tt.in), tt.in)
	}
}
