// Package phone valida y normaliza números telefónicos para el despachador de mensajes
// (WhatsApp, SMS). No envía nada.
package phone

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidPhone número con formato inválido.
var ErrInvalidPhone = errors.New("número de teléfono inválido")

var (
	separators = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")
	e164       = regexp.MustCompile(`^\+[1-9][0-9]{7,14}$`)
	national   = regexp.MustCompile(`^[0-9]{6,14}$`)
	indianLine = regexp.MustCompile(`^[6-9][0-9]{9}$`)
)

// IsValidPhoneNumber acepta formato internacional (+código país, 8 a 15 dígitos E.164)
// o un móvil nacional de 10 dígitos (con o sin 0 inicial). Ignora espacios, guiones, puntos y paréntesis.
func IsValidPhoneNumber(raw string) bool {
	s := separators.Replace(strings.TrimSpace(raw))
	if s == "" {
		return false
	}
	if strings.HasPrefix(s, "+") {
		return e164.MatchString(s)
	}
	if strings.HasPrefix(s, "00") {
		return e164.MatchString("+" + s[2:])
	}
	s = strings.TrimPrefix(s, "0")
	return indianLine.MatchString(s) || (len(s) > 10 && national.MatchString(s))
}

// Normalize devuelve el número en formato E.164 (+919876543210).
// Los números nacionales reciben defaultCountryCode (sin "+").
func Normalize(raw, defaultCountryCode string) (string, error) {
	if !IsValidPhoneNumber(raw) {
		return "", ErrInvalidPhone
	}
	s := separators.Replace(strings.TrimSpace(raw))
	switch {
	case strings.HasPrefix(s, "+"):
		return s, nil
	case strings.HasPrefix(s, "00"):
		return "+" + s[2:], nil
	}
	s = strings.TrimPrefix(s, "0")
	cc := strings.TrimPrefix(defaultCountryCode, "+")
	if len(s) > 10 && cc != "" && strings.HasPrefix(s, cc) {
		// ya trae el código de país sin "+"
		return "+" + s, nil
	}
	out := "+" + cc + s
	if !e164.MatchString(out) {
		return "", ErrInvalidPhone
	}
	return out, nil
}
