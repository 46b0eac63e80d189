package usecase

import (
	"context"
	"log/slog"
)

// Sweep removes passcodes that expired before now. Expired passcodes are
// already rejected on lookup; this only reclaims storage.
func (s *Usecase) Sweep(ctx context.Context) (int64, error) {
	ctx, span := s.startSpan(ctx, "Sweep")
	defer span.End()

	sctx, cancel := s.withStoreTimeout(ctx)
	defer cancel()

	n, err := s.repoStore.DeleteExpiredPasscodes(sctx, s.clock.Now())
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo delete expired passcodes", "error", err)
		return 0, storageUnavailable()
	}

	s.count(ctx, s.swept, n)
	if n > 0 {
		slog.InfoContext(ctx, "expired passcodes swept", "count", n)
	}

	return n, nil
}
