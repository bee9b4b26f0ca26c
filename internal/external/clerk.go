package external

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Clerk Webhook Verification (svix HMAC)
// ---------------------------------------------------------------------------

// clerkTimestampTolerance bounds how far a webhook timestamp may drift from
// the server clock before the message is rejected as a potential replay.
const clerkTimestampTolerance = 5 * time.Minute

// clerkSecretPrefix is the prefix on svix endpoint signing secrets. The
// remainder of the secret is the standard-base64-encoded HMAC key.
const clerkSecretPrefix = "whsec_"

// ClerkVerifier implements IdentityVerifier using the svix symmetric signing
// scheme Clerk delivers webhooks with. The signed content is
// "{msg_id}.{timestamp}.{body}", MACed with HMAC-SHA256 under the decoded
// endpoint secret. The svix-signature header carries one or more
// space-separated "v1,<base64>" candidates (older candidates remain during
// secret rotation); verification succeeds if any candidate matches.
type ClerkVerifier struct {
	// now is overridable for tests; defaults to time.Now.
	now func() time.Time
}

// NewClerkVerifier creates a ClerkVerifier using the system clock.
func NewClerkVerifier() *ClerkVerifier {
	return &ClerkVerifier{now: time.Now}
}

// Verify validates the payload against the svix message headers and the
// endpoint signing secret. Returns nil only when the timestamp is within
// tolerance and at least one signature candidate matches.
func (v *ClerkVerifier) Verify(payload []byte, msgID, timestamp, signature string, secret string) error {
	if msgID == "" || timestamp == "" || signature == "" {
		return errors.New("missing svix message headers")
	}

	key, err := decodeClerkSecret(secret)
	if err != nil {
		return err
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid svix timestamp: %w", err)
	}
	drift := v.now().Sub(time.Unix(ts, 0))
	if drift > clerkTimestampTolerance || drift < -clerkTimestampTolerance {
		return errors.New("svix timestamp outside tolerance")
	}

	mac := hmac.New(sha256.New, key)
	fmt.Fprintf(mac, "%s.%s.", msgID, timestamp)
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, candidate := range strings.Fields(signature) {
		version, sig, found := strings.Cut(candidate, ",")
		if !found || version != "v1" {
			continue
		}
		sigBytes, err := base64.StdEncoding.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(sigBytes, expected) {
			return nil
		}
	}
	return errors.New("no matching svix signature")
}

// decodeClerkSecret strips the whsec_ prefix and base64-decodes the HMAC key.
func decodeClerkSecret(secret string) ([]byte, error) {
	trimmed := strings.TrimPrefix(secret, clerkSecretPrefix)
	if trimmed == "" {
		return nil, errors.New("signing secret is empty")
	}
	key, err := base64.StdEncoding.DecodeString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("failed to decode signing secret: %w", err)
	}
	return key, nil
}

// Compile-time assertion that ClerkVerifier satisfies IdentityVerifier.
var _ IdentityVerifier = (*ClerkVerifier)(nil)
