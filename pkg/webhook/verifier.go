package webhook

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/coolshop/kbbridge/pkg/kberr"
	"github.com/coolshop/kbbridge/pkg/kv"
)

const kvPrefixReplay = "webhook:replay:"

// Request is everything needed to check one inbound signed call.
type Request struct {
	Secret    string
	Method    string
	URL       string
	Body      string
	Timestamp string
	Signature string
}

// Verifier layers optional freshness and replay checks over Verify.
// The zero value only checks the signature.
type Verifier struct {
	// MaxSkew bounds |now - timestamp|. Zero disables the check.
	MaxSkew time.Duration
	// Ledger, when set, rejects a signature seen before within ReplayTTL.
	Ledger    kv.Store
	ReplayTTL time.Duration
	Now       func() time.Time
}

// Check returns nil for an authentic request, otherwise a kberr.Error with
// CodeSignatureMismatch, CodeStaleTimestamp or CodeReplayed.
func (v *Verifier) Check(ctx context.Context, req Request) error {
	if !Verify(req.Secret, req.Method, req.URL, req.Body, req.Timestamp, req.Signature) {
		return kberr.New(kberr.CodeSignatureMismatch, errors.New("webhook: signature mismatch"))
	}

	if v == nil {
		return nil
	}

	if v.MaxSkew > 0 {
		ts, err := parseTimestamp(req.Timestamp)
		if err != nil {
			return kberr.New(kberr.CodeStaleTimestamp, err)
		}
		skew := v.now().Sub(ts)
		if math.Abs(float64(skew)) > float64(v.MaxSkew) {
			return kberr.New(kberr.CodeStaleTimestamp, fmt.Errorf("webhook: timestamp outside %s window", v.MaxSkew))
		}
	}

	if v.Ledger != nil {
		ttl := v.ReplayTTL
		if ttl <= 0 {
			ttl = v.MaxSkew * 2
		}
		fresh, err := v.Ledger.SetNX(ctx, replayKey(req), []byte("1"), ttl)
		if err != nil {
			return fmt.Errorf("webhook: claim replay key: %w", err)
		}
		if !fresh {
			return kberr.New(kberr.CodeReplayed, errors.New("webhook: request already processed"))
		}
	}

	return nil
}

// Release gives back the replay claim Check took for req, so a retry of the
// same signed request is accepted after the caller failed to act on it.
func (v *Verifier) Release(ctx context.Context, req Request) error {
	if v == nil || v.Ledger == nil {
		return nil
	}
	if err := v.Ledger.Delete(ctx, replayKey(req)); err != nil {
		return fmt.Errorf("webhook: release replay key: %w", err)
	}
	return nil
}

func replayKey(req Request) string {
	sum := sha256.Sum256([]byte(req.Signature))
	return kvPrefixReplay + hex.EncodeToString(sum[:])
}

func (v *Verifier) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}

// parseTimestamp accepts unix seconds, unix milliseconds or RFC 3339.
func parseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n), nil
		}
		return time.Unix(n, 0), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("webhook: unrecognized timestamp %q", raw)
}
