package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/securecookie"

	"turnline/queue-gateway/internal/constant"
)

// ReservationSession binds a browser to its reservation through a signed
// (and optionally encrypted) cookie. With no keys configured it does nothing
// and clients pass their id explicitly.
type ReservationSession struct {
	codec  *securecookie.SecureCookie
	secure bool
}

func NewReservationSession(hashKey, blockKey []byte, secure bool) *ReservationSession {
	s := &ReservationSession{secure: secure}
	if len(hashKey) == 0 {
		return s
	}

	if len(blockKey) == 0 {
		blockKey = nil
	}
	s.codec = securecookie.New(hashKey, blockKey)
	s.codec.MaxAge(int(constant.ReservationCookieTTL.Seconds()))
	return s
}

// Handle exposes the cookie's reservation id under constant.ReservationIdKey.
func (s *ReservationSession) Handle(c *gin.Context) {
	if id, ok := s.decode(c); ok {
		c.Set(constant.ReservationIdKey, id)
	}
	c.Next()
}

func (s *ReservationSession) ID(c *gin.Context) (string, bool) {
	if v, ok := c.Get(constant.ReservationIdKey); ok {
		id, ok := v.(string)
		return id, ok && id != ""
	}
	return s.decode(c)
}

func (s *ReservationSession) Set(c *gin.Context, id string) error {
	if s.codec == nil {
		return nil
	}

	encoded, err := s.codec.Encode(constant.ReservationCookie, id)
	if err != nil {
		return err
	}

	s.write(c, encoded, int(constant.ReservationCookieTTL.Seconds()))
	c.Set(constant.ReservationIdKey, id)
	return nil
}

// Forget clears the cookie when it still points at id.
func (s *ReservationSession) Forget(c *gin.Context, id string) {
	if s.codec == nil {
		return
	}
	if current, ok := s.ID(c); ok && current == id {
		s.write(c, "", -1)
	}
}

func (s *ReservationSession) decode(c *gin.Context) (string, bool) {
	if s.codec == nil {
		return "", false
	}

	raw, err := c.Cookie(constant.ReservationCookie)
	if err != nil || raw == "" {
		return "", false
	}

	var id string
	if err := s.codec.Decode(constant.ReservationCookie, raw, &id); err != nil {
		return "", false
	}
	return id, id != ""
}

func (s *ReservationSession) write(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(constant.ReservationCookie, value, maxAge, "/", "", s.secure, true)
}
