package sync

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"reelsync/internal/identity"
	"reelsync/internal/logging"
	"reelsync/internal/services/tmdb"
)

// tmdbMultiplier converts the 0-5 source scale to TMDB's 1-10 scale.
const tmdbMultiplier = 2.0

// TMDBService adapts the TMDB client to the sync engine. TMDB has no bulk
// rating endpoint, so a batch submits as sequential per-item posts; an item
// failure counts as a rejection rather than failing the whole batch.
type TMDBService struct {
	client    *tmdb.Client
	accountID int64
	delay     time.Duration
	logger    *slog.Logger
}

var _ Service = (*TMDBService)(nil)

// NewTMDBService wraps an authenticated TMDB client for the given account.
func NewTMDBService(client *tmdb.Client, accountID int64, delay time.Duration, logger *slog.Logger) *TMDBService {
	return &TMDBService{
		client:    client,
		accountID: accountID,
		delay:     delay,
		logger:    logging.NewComponentLogger(logger, "tmdb"),
	}
}

func (s *TMDBService) Name() string { return "tmdb" }

func (s *TMDBService) Multiplier() float64 { return tmdbMultiplier }

// ExistingRatings pages until the body-reported total_pages is reached. A
// page failure returns the accumulated partial map.
func (s *TMDBService) ExistingRatings(ctx context.Context, kind identity.MediaKind) (map[string]float64, error) {
	snapshot := make(map[string]float64)
	for page := 1; ; page++ {
		items, totalPages, err := s.client.RatedPage(ctx, s.accountID, kind, page)
		if err != nil {
			return snapshot, err
		}
		for _, item := range items {
			snapshot[strconv.FormatInt(item.ID, 10)] = item.Rating
		}
		if page >= totalPages {
			break
		}
		s.pause(ctx)
	}
	return snapshot, nil
}

func (s *TMDBService) SubmitBatch(ctx context.Context, kind identity.MediaKind, items []BatchItem) (SubmitResult, error) {
	var result SubmitResult
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := s.client.Rate(ctx, kind, item.ProviderID, item.Rating); err != nil {
			result.Rejected++
			s.logger.Warn("rating rejected",
				logging.String(logging.FieldTitle, item.Title),
				logging.String(logging.FieldProviderID, item.ProviderID),
				logging.Error(err))
		} else {
			result.Accepted++
		}
		s.pause(ctx)
	}
	return result, nil
}

func (s *TMDBService) pause(ctx context.Context) {
	if s.delay <= 0 {
		return
	}
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
	}
}
