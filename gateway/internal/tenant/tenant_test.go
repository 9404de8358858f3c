package tenant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	r := NewResolver("demo")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"explicit tenant", "acme", "acme"},
		{"shortcut uses default", "", "demo"},
		{"explicit tenant equal to default", "demo", "demo"},
		{"no normalization", " Acme ", " Acme "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Resolve(tt.in))
		})
	}
}
