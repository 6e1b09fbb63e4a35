package gateway

import "strings"

const phoneSuffix = "@s.whatsapp.net"

// NormalizePhone extrai apenas os dígitos do número e anexa o sufixo do
// WhatsApp. Regra de formatação, não de validação: números malformados
// passam adiante sem rejeição.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String() + phoneSuffix
}
