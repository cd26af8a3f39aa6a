package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DownloadClaim is the metadata carried inside a signed download token: the
// export job it belongs to, the stored file it unlocks and when it lapses.
type DownloadClaim struct {
	JobID     string
	Path      string
	ExpiresAt time.Time
}

// DownloadSigner mints and verifies HMAC-signed tokens for export downloads.
// Tokens are self-contained, so a download link works without a session.
type DownloadSigner struct {
	secret []byte
	ttl    time.Duration
}

// NewDownloadSigner constructs a signer with the provided secret and TTL.
func NewDownloadSigner(secret string, ttl time.Duration) *DownloadSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &DownloadSigner{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Sign issues a token granting access to the job's stored file until the
// configured TTL elapses.
func (s *DownloadSigner) Sign(jobID, path string) (string, time.Time, error) {
	if jobID == "" || path == "" {
		return "", time.Time{}, fmt.Errorf("job id and file path required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := time.Now().Add(s.ttl)
	body := strings.Join([]string{
		jobID,
		strconv.FormatInt(expiresAt.Unix(), 10),
		base64.RawURLEncoding.EncodeToString([]byte(path)),
	}, ".")
	return body + "." + s.signature(body), expiresAt, nil
}

// Verify checks the signature and expiry and returns the embedded claim.
func (s *DownloadSigner) Verify(token string) (*DownloadClaim, error) {
	split := strings.LastIndex(token, ".")
	if split < 0 {
		return nil, fmt.Errorf("malformed download token")
	}
	body, signature := token[:split], token[split+1:]
	if !hmac.Equal([]byte(s.signature(body)), []byte(signature)) {
		return nil, fmt.Errorf("download token signature mismatch")
	}

	parts := strings.Split(body, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("malformed download token")
	}
	expUnix, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed download token expiry")
	}
	rawPath, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, fmt.Errorf("malformed download token path: %w", err)
	}

	claim := &DownloadClaim{
		JobID:     parts[0],
		Path:      string(rawPath),
		ExpiresAt: time.Unix(expUnix, 0),
	}
	if time.Now().After(claim.ExpiresAt) {
		return nil, fmt.Errorf("download token expired")
	}
	return claim, nil
}

func (s *DownloadSigner) signature(body string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(body))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
