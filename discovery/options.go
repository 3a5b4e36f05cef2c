package discovery

import (
	"errors"
	"fmt"
	"time"

	"friendspark/geohash"
)

// Option is a functional option for New.
type Option func(s *Service) error

// WithIndex makes candidate lookups go through idx instead of the store's
// own prefix scan. The service keeps idx in sync on every write.
func WithIndex(idx Index) Option {
	return func(s *Service) error {
		if idx == nil {
			return errors.New("index is nil")
		}
		if s.index != nil {
			return errors.New("index is already configured")
		}
		s.index = idx
		return nil
	}
}

// WithSearchPrecision sets the prefix length used by Nearby when the query
// gives neither a precision nor a radius.
func WithSearchPrecision(precision int) Option {
	return func(s *Service) error {
		if precision < geohash.MinPrecision || precision > geohash.MaxPrecision {
			return fmt.Errorf("search precision %d outside [%d, %d]",
				precision, geohash.MinPrecision, geohash.MaxPrecision)
		}
		s.precision = precision
		return nil
	}
}

// WithLimit caps the number of events Nearby returns.
func WithLimit(limit int) Option {
	return func(s *Service) error {
		if limit <= 0 {
			return fmt.Errorf("limit (%d) is not positive", limit)
		}
		s.limit = limit
		return nil
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) error {
		if now == nil {
			return errors.New("clock is nil")
		}
		s.now = now
		return nil
	}
}
