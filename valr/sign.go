package valr

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"strconv"
	"strings"
)

// Authentication header names fixed by the upstream protocol.
const (
	headerAPIKey    = "X-VALR-API-KEY"
	headerSignature = "X-VALR-SIGNATURE"
	headerTimestamp = "X-VALR-TIMESTAMP"
)

// Sign computes the request signature for a private call: an HMAC-SHA512 over
// the millisecond timestamp, the upper-cased HTTP verb, the full request path
// including query string and the raw body, concatenated without separators.
// The same timestamp must be sent in the timestamp header; a mismatch
// invalidates the request server side.
func Sign(secret string, timestampMillis int64, method, pathWithQuery, body string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestampMillis, 10)))
	mac.Write([]byte(strings.ToUpper(method)))
	mac.Write([]byte(pathWithQuery))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}
