package alert

import (
	"context"
	"time"

	"gestion-stock/internal/api"
	"gestion-stock/internal/logging"

	"gorm.io/gorm"
)

// Scanner periodically runs ScanExpiring.
type Scanner struct {
	db         *gorm.DB
	windowDays int
	interval   time.Duration
	log        logging.Logger
	now        func() time.Time
}

func NewScanner(db *gorm.DB, windowDays int, interval time.Duration, log logging.Logger) *Scanner {
	return &Scanner{
		db:         db,
		windowDays: windowDays,
		interval:   interval,
		log:        log.With("component", "expiry-scanner"),
		now:        time.Now,
	}
}

// RunOnce scans immediately and returns the number of alerts created.
func (s *Scanner) RunOnce(ctx context.Context) (int, error) {
	var n int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		n, err = ScanExpiring(tx, api.DateOf(s.now()), s.windowDays)
		return err
	})
	return n, err
}

// Run scans at start and then every interval until ctx is done.
func (s *Scanner) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		n, err := s.RunOnce(ctx)
		switch {
		case err != nil && ctx.Err() == nil:
			s.log.Error(ctx, "expiry scan failed", "err", err)
		case n > 0:
			s.log.Info(ctx, "expiry alerts created", "count", n)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
