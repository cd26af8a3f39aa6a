package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDownloadSignerRoundTrip(t *testing.T) {
	signer := NewDownloadSigner("secret", time.Hour)
	token, expiresAt, err := signer.Sign("job-1", "class-results/file.csv")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.False(t, expiresAt.IsZero())

	claim, err := signer.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "job-1", claim.JobID)
	require.Equal(t, "class-results/file.csv", claim.Path)
	require.WithinDuration(t, expiresAt, claim.ExpiresAt, time.Second)
}

func TestDownloadSignerRejectsExpired(t *testing.T) {
	signer := NewDownloadSigner("secret", time.Hour)
	// back-date issuance so the token is already lapsed
	signer.ttl = -time.Minute
	token, _, err := signer.Sign("job-1", "class-results/file.csv")
	require.NoError(t, err)

	_, err = signer.Verify(token)
	require.Error(t, err)
	require.Contains(t, err.Error(), "expired")
}

func TestDownloadSignerRejectsTampering(t *testing.T) {
	signer := NewDownloadSigner("secret", time.Hour)
	token, _, err := signer.Sign("job-1", "class-results/file.csv")
	require.NoError(t, err)

	forged := strings.Replace(token, "job-1", "job-2", 1)
	_, err = signer.Verify(forged)
	require.Error(t, err)

	other := NewDownloadSigner("other-secret", time.Hour)
	_, err = other.Verify(token)
	require.Error(t, err)
}
