package internal

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"strings"

	"payfast/entity"
)

// Signer signs the redirect form with the merchant passphrase.
type Signer struct {
	passphrase string
}

func NewSigner(passphrase string) *Signer {
	return &Signer{passphrase: passphrase}
}

// CreateSignature returns the lowercase hex MD5 of the url-encoded fields,
// in form order, followed by the passphrase. Empty fields are skipped.
func (s *Signer) CreateSignature(fields []entity.FormField) string {
	var sb strings.Builder
	for _, field := range fields {
		value := strings.TrimSpace(field.Value)
		if value == "" || field.Name == entity.FieldSignature {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(field.Name)
		sb.WriteByte('=')
		sb.WriteString(encodeValue(value))
	}
	if s.passphrase != "" {
		if sb.Len() > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString("passphrase=")
		sb.WriteString(encodeValue(strings.TrimSpace(s.passphrase)))
	}
	sum := md5.Sum([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

// encodeValue escapes like the gateway does: spaces become '+', '~' is escaped.
func encodeValue(value string) string {
	return strings.ReplaceAll(url.QueryEscape(value), "~", "%7E")
}
