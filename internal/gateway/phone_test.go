package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		phone string
		want  string
	}{
		{"formato brasileiro", "(11) 98765-4321", "11987654321@s.whatsapp.net"},
		{"com código do país", "+55 11 98765-4321", "5511987654321@s.whatsapp.net"},
		{"apenas dígitos", "5511987654321", "5511987654321@s.whatsapp.net"},
		{"com espaços e pontos", "55.11 9 8765 4321", "5511987654321@s.whatsapp.net"},
		{"sem dígitos", "abc", "@s.whatsapp.net"},
		{"vazio", "", "@s.whatsapp.net"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePhone(tt.phone))
		})
	}
}
