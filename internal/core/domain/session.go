package domain

import "time"

// Session is the server-side record backing one refresh token / one
// logged-in device. Only the SHA-256 hash of the token is stored; the raw
// value is returned to the client once and never persisted or logged.
type Session struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	TokenHash  string     `json:"-"`
	DeviceName string     `json:"device_name,omitempty"`
	IPAddress  string     `json:"ip_address,omitempty"`
	UserAgent  string     `json:"-"`
	IssuedAt   time.Time  `json:"issued_at"`
	LastUsedAt time.Time  `json:"last_used_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
}

func (s *Session) IsRevoked() bool {
	return s.RevokedAt != nil
}

func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// IsLive reports whether this row still represents a usable session.
func (s *Session) IsLive(now time.Time) bool {
	return !s.IsRevoked() && !s.IsExpired(now)
}

// DeviceInfo carries client metadata captured by the transport layer.
type DeviceInfo struct {
	Name      string
	IP        string
	UserAgent string
}
