package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/clarity-api/internal/model"
)

func TestPassCacheRoundTrip(t *testing.T) {
	expires := time.Now().Add(24 * time.Hour).Truncate(time.Second)
	ap := &model.ActivePass{Tier: model.TierDay, ExpiresAt: expires}

	decoded, ok := decodePassCache(encodePassCache(ap))
	require.True(t, ok)
	assert.Equal(t, model.TierDay, decoded.Tier)
	assert.True(t, decoded.ExpiresAt.Equal(expires))
}

func TestDecodePassCacheRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "day", "day|notanumber", "|"} {
		_, ok := decodePassCache(raw)
		assert.False(t, ok, "raw=%q", raw)
	}
}

func TestGuestSubject(t *testing.T) {
	assert.Equal(t, "ip:203.0.113.9", GuestSubject("203.0.113.9"))
}
