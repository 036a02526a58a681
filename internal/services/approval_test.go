package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"melostore/internal/models"
)

func TestApprovalGate_RoundTrip(t *testing.T) {
	gate := NewApprovalGate("top-secret", time.Minute)
	require.True(t, gate.Enabled())

	token, err := gate.Token("Artist - Title")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	assert.NoError(t, gate.Verify(token, "Artist - Title"))

	err = gate.Verify(token, "Artist - Other")
	require.Error(t, err)
	assert.True(t, models.IsDomainError(err, models.ErrCodeApprovalRequired))
}

func TestApprovalGate_InvalidTokens(t *testing.T) {
	gate := NewApprovalGate("top-secret", time.Minute)

	err := gate.Verify("", "Artist - Title")
	require.Error(t, err)
	assert.True(t, models.IsDomainError(err, models.ErrCodeApprovalRequired))

	err = gate.Verify("not.a.jwt", "Artist - Title")
	require.Error(t, err)
	assert.True(t, models.IsDomainError(err, models.ErrCodeApprovalRequired))

	// A token signed with a different secret is rejected.
	other := NewApprovalGate("different-secret", time.Minute)
	token, err := other.Token("Artist - Title")
	require.NoError(t, err)
	assert.Error(t, gate.Verify(token, "Artist - Title"))
}

func TestApprovalGate_Disabled(t *testing.T) {
	gate := NewApprovalGate("", time.Minute)
	assert.False(t, gate.Enabled())
	assert.NoError(t, gate.Verify("", "Artist - Title"), "an open gate accepts anything")
}

func TestMemorySuspicion(t *testing.T) {
	s := NewMemorySuspicion()
	assert.Zero(t, s.Level("peer:80"))

	s.Report("peer:80", "addition-info-unconfirmed")
	s.Report("peer:80", "addition-info-unconfirmed")
	s.Report("", "ignored")

	assert.Equal(t, 2.0, s.Level("peer:80"))
	assert.Zero(t, s.Level("other:80"))
}
