package session

import (
	"strings"

	"github.com/google/uuid"
)

// Well-known keys.
const (
	KeyUserID              = "user_id"
	KeyLocationLatitude    = "location_latitude"
	KeyLocationLongitude   = "location_longitude"
	KeyLocationLastUpdated = "location_last_updated"

	flashPrefix = "_flash."
)

// Session is the state of one browser session during a request.
type Session struct {
	id           string
	values       map[string]string
	previousIDs  []string
	onRegenerate func(newID string)
}

func newSession(id string, values map[string]string) *Session {
	if values == nil {
		values = map[string]string{}
	}
	return &Session{id: id, values: values}
}

func newID() string {
	return uuid.NewString()
}

// ID returns the current session id.
func (s *Session) ID() string { return s.id }

func (s *Session) Get(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

func (s *Session) Set(key, value string) {
	s.values[key] = value
}

// SetMany writes all pairs together.
func (s *Session) SetMany(pairs map[string]string) {
	for k, v := range pairs {
		s.values[k] = v
	}
}

func (s *Session) Delete(key string) {
	delete(s.values, key)
}

// Flash stores a message that survives until it is read once.
func (s *Session) Flash(key, msg string) {
	s.Set(flashPrefix+key, msg)
}

// TakeFlash returns and clears a flash message.
func (s *Session) TakeFlash(key string) string {
	v, ok := s.values[flashPrefix+key]
	if !ok {
		return ""
	}
	s.Delete(flashPrefix + key)
	return v
}

// Flashes returns and clears every pending flash message.
func (s *Session) Flashes() map[string]string {
	out := map[string]string{}
	for k, v := range s.values {
		if strings.HasPrefix(k, flashPrefix) {
			out[strings.TrimPrefix(k, flashPrefix)] = v
		}
	}
	for k := range out {
		s.Delete(flashPrefix + k)
	}
	return out
}

// Regenerate moves the values to a fresh id. Call it on login before writing the response.
func (s *Session) Regenerate() {
	s.previousIDs = append(s.previousIDs, s.id)
	s.id = newID()
	if s.onRegenerate != nil {
		s.onRegenerate(s.id)
	}
}

// Invalidate drops every value and moves to a fresh id.
func (s *Session) Invalidate() {
	s.values = map[string]string{}
	s.Regenerate()
}
