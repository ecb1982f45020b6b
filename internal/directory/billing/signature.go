package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

// SignatureHeader is the HTTP header the provider signs payloads under.
const SignatureHeader = "Billing-Signature"

// DefaultTolerance bounds how stale a signed timestamp may be before the
// event is rejected as a possible replay.
const DefaultTolerance = 5 * time.Minute

var (
	ErrInvalidSignature = errors.New("billing: invalid signature")
	ErrStaleSignature   = errors.New("billing: signature timestamp outside tolerance")
)

// VerifySignature checks a provider signature header of the form
// "t=<unix>,v1=<hex hmac>" where the MAC covers "<unix>.<payload>" with
// HMAC-SHA256 under the shared webhook secret. Multiple v1 entries are
// accepted if any verifies, which providers use during secret rotation.
func VerifySignature(payload []byte, header, secret string, tolerance time.Duration, now time.Time) error {
	if header == "" || secret == "" {
		return ErrInvalidSignature
	}

	var (
		ts   int64
		macs []string
	)
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			parsed, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return ErrInvalidSignature
			}
			ts = parsed
		case "v1":
			macs = append(macs, v)
		}
	}
	if ts == 0 || len(macs) == 0 {
		return ErrInvalidSignature
	}

	if tolerance > 0 {
		age := now.Sub(time.Unix(ts, 0))
		if age > tolerance || age < -tolerance {
			return ErrStaleSignature
		}
	}

	expected := ComputeSignature(payload, ts, secret)
	for _, mac := range macs {
		if hmac.Equal([]byte(mac), []byte(expected)) {
			return nil
		}
	}
	return ErrInvalidSignature
}

// ComputeSignature returns the hex MAC for a payload at a timestamp. Tests
// and local tooling use it to produce valid headers.
func ComputeSignature(payload []byte, ts int64, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// SignatureHeaderValue assembles a header for a payload signed now.
func SignatureHeaderValue(payload []byte, secret string, now time.Time) string {
	ts := now.Unix()
	return "t=" + strconv.FormatInt(ts, 10) + ",v1=" + ComputeSignature(payload, ts, secret)
}
