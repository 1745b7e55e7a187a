// Package webhook verifies signed requests sent by Ada to the bridge.
//
// Ada signs "{method}\n{url}\n{body}\n{timestamp}" with HMAC-SHA256 keyed by
// the installation secret and sends the base64 digest in
// x-ada-signature-V2 next to x-ada-timestamp-V2. Ada uses the lower-case
// method; callers pass it in that form.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

const (
	HeaderSignature = "x-ada-signature-V2"
	HeaderTimestamp = "x-ada-timestamp-V2"
)

// Sign returns the base64 HMAC-SHA256 signature for a request.
func Sign(secret, method, url, body, timestamp string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signingString(method, url, body, timestamp)))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature matches the request. All inputs are used
// byte for byte except signature, which is trimmed of surrounding
// whitespace as header values may carry it. Missing secret, method, url,
// timestamp or signature always fails; the body may be empty.
func Verify(secret, method, url, body, timestamp, signature string) bool {
	if secret == "" || method == "" || url == "" || timestamp == "" || signature == "" {
		return false
	}
	expected := Sign(secret, method, url, body, timestamp)
	return hmac.Equal([]byte(expected), []byte(strings.TrimSpace(signature)))
}

func signingString(method, url, body, timestamp string) string {
	return method + "\n" + url + "\n" + body + "\n" + timestamp
}
