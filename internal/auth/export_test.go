// AngelaMos | 2026
// export_test.go

package auth

import "time"

func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (m *JWTManager) SetClock(now func() time.Time) {
	m.now = now
}
