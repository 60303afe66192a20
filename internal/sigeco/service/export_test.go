package service

import "time"

// Clock pins for deterministic tests.

func (s *VisitorService) SetNow(fn func() time.Time) { s.nowFn = fn }

func (s *AccessService) SetNow(fn func() time.Time) { s.nowFn = fn }

func (s *AppointmentService) SetNow(fn func() time.Time) { s.nowFn = fn }
