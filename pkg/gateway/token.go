package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SignToken issues a dispatch token valid until expiry. The token is
// the expiry unix timestamp plus an HMAC over it: "<exp>.<mac>".
func SignToken(secret string, expiry time.Time) string {
	exp := strconv.FormatInt(expiry.Unix(), 10)
	return exp + "." + tokenMAC(secret, exp)
}

// VerifyToken checks a dispatch token's signature and expiry.
func VerifyToken(secret, token string) error {
	exp, mac, ok := strings.Cut(token, ".")
	if !ok {
		return fmt.Errorf("malformed token")
	}
	want := tokenMAC(secret, exp)
	if !hmac.Equal([]byte(mac), []byte(want)) {
		return fmt.Errorf("invalid token signature")
	}
	unix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return fmt.Errorf("malformed token expiry")
	}
	if time.Now().Unix() > unix {
		return fmt.Errorf("token expired")
	}
	return nil
}

func tokenMAC(secret, payload string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil))
}
