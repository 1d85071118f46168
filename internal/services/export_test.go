package services

import "time"

func (s *BookingService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *BookingService) SetTrackingNumberSource(fn func() (string, error)) {
	s.newTrackingNumber = fn
}
