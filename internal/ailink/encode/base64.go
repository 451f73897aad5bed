package encode

import (
	"encoding/base64"
)

// DecodeBase64String decodes a standard (padded) base64 payload.
func DecodeBase64String(value string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(value)
}

// EncodeBase64String encodes raw bytes for a data: URL.
func EncodeBase64String(value []byte) string {
	return base64.StdEncoding.EncodeToString(value)
}
