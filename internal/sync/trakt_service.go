package sync

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"time"

	"reelsync/internal/identity"
	"reelsync/internal/logging"
	"reelsync/internal/services/trakt"
)

const traktPageLimit = 100

// traktMultiplier converts the 0-5 source scale to Trakt's 1-10 integers.
const traktMultiplier = 2.0

// TraktService adapts the Trakt client to the sync engine. Snapshots use
// header-driven pagination; submission is genuinely batched via /sync/ratings
// with a linked /sync/history post.
type TraktService struct {
	client *trakt.Client
	delay  time.Duration
	logger *slog.Logger
}

var _ Service = (*TraktService)(nil)

// NewTraktService wraps an authenticated Trakt client.
func NewTraktService(client *trakt.Client, delay time.Duration, logger *slog.Logger) *TraktService {
	return &TraktService{
		client: client,
		delay:  delay,
		logger: logging.NewComponentLogger(logger, "trakt"),
	}
}

func (s *TraktService) Name() string { return "trakt" }

func (s *TraktService) Multiplier() float64 { return traktMultiplier }

// ExistingRatings pages until the header-reported page count is reached or a
// page comes back empty. A page failure returns the accumulated partial map.
func (s *TraktService) ExistingRatings(ctx context.Context, kind identity.MediaKind) (map[string]float64, error) {
	snapshot := make(map[string]float64)
	for page := 1; ; page++ {
		items, pageCount, err := s.client.RatingsPage(ctx, kind, page, traktPageLimit)
		if err != nil {
			return snapshot, err
		}
		if len(items) == 0 {
			break
		}
		for _, item := range items {
			snapshot[strconv.FormatInt(item.TMDBID, 10)] = float64(item.Rating)
		}
		if page >= pageCount {
			break
		}
		s.pause(ctx)
	}
	return snapshot, nil
}

// SubmitBatch posts the ratings batch and then the linked history batch.
// History rejections are warned about but do not fail the batch: the ratings
// already landed.
func (s *TraktService) SubmitBatch(ctx context.Context, kind identity.MediaKind, items []BatchItem) (SubmitResult, error) {
	ratings := make([]trakt.RatingItem, 0, len(items))
	history := make([]trakt.HistoryItem, 0, len(items))
	for _, item := range items {
		tmdbID, err := strconv.ParseInt(item.ProviderID, 10, 64)
		if err != nil {
			s.logger.Warn("dropping item with non-numeric provider id",
				logging.String(logging.FieldTitle, item.Title),
				logging.String(logging.FieldProviderID, item.ProviderID))
			continue
		}
		ids := trakt.IDRef{TMDB: tmdbID}
		ratings = append(ratings, trakt.RatingItem{
			IDs:     ids,
			Rating:  int(math.Round(item.Rating)),
			RatedAt: item.Timestamp,
		})
		history = append(history, trakt.HistoryItem{IDs: ids, WatchedAt: item.Timestamp})
	}
	if len(ratings) == 0 {
		return SubmitResult{}, nil
	}

	result, err := s.client.SyncRatings(ctx, kind, ratings)
	if err != nil {
		return SubmitResult{}, err
	}
	s.pause(ctx)

	if _, err := s.client.SyncHistory(ctx, kind, history); err != nil {
		s.logger.Warn("history submission failed, ratings were accepted", logging.Error(err))
	}
	s.pause(ctx)

	return SubmitResult{Accepted: result.Added, Rejected: result.NotFound}, nil
}

func (s *TraktService) pause(ctx context.Context) {
	if s.delay <= 0 {
		return
	}
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
	}
}
