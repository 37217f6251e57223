package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"strings"
)

func base64UrlEncode(input []byte) string {
	return strings.TrimRight(base64.URLEncoding.EncodeToString(input), "=")
}

func base64UrlDecode(input string) ([]byte, error) {
	padded := input
	if m := len(input) % 4; m != 0 {
		padded += strings.Repeat("=", 4-m)
	}
	return base64.URLEncoding.DecodeString(padded)
}

func tablePayload(tableID int64) string {
	return "mesa:" + strconv.FormatInt(tableID, 10)
}

// CreateTableToken signs a table id for the printed QR link.
func CreateTableToken(secret string, tableID int64) string {
	payloadB64 := base64UrlEncode([]byte(tablePayload(tableID)))
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payloadB64))
	return payloadB64 + "." + base64UrlEncode(mac.Sum(nil))
}

func VerifyTableToken(secret, token string, tableID int64) bool {
	parts := strings.Split(token, ".")
	if len(parts) != 2 {
		return false
	}
	payloadB64 := parts[0]

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payloadB64))
	expected := mac.Sum(nil)

	actual, err := base64UrlDecode(parts[1])
	if err != nil || len(actual) != len(expected) {
		return false
	}
	if !hmac.Equal(actual, expected) {
		return false
	}

	payloadRaw, err := base64UrlDecode(payloadB64)
	if err != nil {
		return false
	}
	return string(payloadRaw) == tablePayload(tableID)
}

// TableLink is the customer entry URL for a table.
func TableLink(baseURL string, tableID int64, secret string) string {
	link := strings.TrimRight(baseURL, "/") + "/mesa/" + strconv.FormatInt(tableID, 10)
	if secret != "" {
		link += "?t=" + CreateTableToken(secret, tableID)
	}
	return link
}
