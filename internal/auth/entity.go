// AngelaMos | 2026
// entity.go

package auth

import (
	"strings"
	"time"
	"unicode/utf8"
)

// RefreshToken is one stored refresh session. Its ID is the jti of the
// signed refresh token handed to the client.
type RefreshToken struct {
	ID           string     `db:"id"`
	UserID       string     `db:"user_id"`
	FamilyID     string     `db:"family_id"`
	ExpiresAt    time.Time  `db:"expires_at"`
	CreatedAt    time.Time  `db:"created_at"`
	UsedAt       *time.Time `db:"used_at"`
	RevokedAt    *time.Time `db:"revoked_at"`
	ReplacedByID *string    `db:"replaced_by_id"`
	UserAgent    string     `db:"user_agent"`
	IPAddress    string     `db:"ip_address"`
}

func (t *RefreshToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

func (t *RefreshToken) IsUsed() bool {
	return t.UsedAt != nil
}

// ClientMeta describes where a session was opened from.
type ClientMeta struct {
	UserAgent string
	IPAddress string
}

const (
	maxUserAgentLen = 512
	maxIPAddressLen = 64
)

// clamp fits both fields into their columns as valid UTF-8.
func (m ClientMeta) clamp() ClientMeta {
	m.UserAgent = truncate(m.UserAgent, maxUserAgentLen)
	m.IPAddress = truncate(m.IPAddress, maxIPAddressLen)
	return m
}

// truncate cuts s to at most n bytes without splitting a rune. Bytes that
// were never valid UTF-8 are dropped.
func truncate(s string, n int) string {
	s = strings.ToValidUTF8(s, "")
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
