package session

import (
	"strconv"
	"time"
)

// Location is the last position a browser reported.
type Location struct {
	Latitude    *float64   `json:"latitude"`
	Longitude   *float64   `json:"longitude"`
	LastUpdated *time.Time `json:"last_updated"`
}

// SetLocation writes the three location keys together.
func (s *Session) SetLocation(lat, lng float64, at time.Time) {
	s.SetMany(map[string]string{
		KeyLocationLatitude:    strconv.FormatFloat(lat, 'f', -1, 64),
		KeyLocationLongitude:   strconv.FormatFloat(lng, 'f', -1, 64),
		KeyLocationLastUpdated: at.UTC().Format(time.RFC3339),
	})
}

// Location reads the stored position; unset or unreadable parts are nil.
func (s *Session) Location() Location {
	var loc Location
	if v, ok := s.Get(KeyLocationLatitude); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			loc.Latitude = &f
		}
	}
	if v, ok := s.Get(KeyLocationLongitude); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			loc.Longitude = &f
		}
	}
	if v, ok := s.Get(KeyLocationLastUpdated); ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			loc.LastUpdated = &t
		}
	}
	return loc
}

// UserID returns the logged-in user id, or 0.
func (s *Session) UserID() uint {
	v, ok := s.Get(KeyUserID)
	if !ok {
		return 0
	}
	id, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}

// SetUserID marks the session as logged in.
func (s *Session) SetUserID(id uint) {
	s.Set(KeyUserID, strconv.FormatUint(uint64(id), 10))
}
