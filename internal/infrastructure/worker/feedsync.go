package worker

import (
	"context"
	"time"

	"fxconvert-service/internal/application"
	"fxconvert-service/internal/domain"

	"go.uber.org/zap"
)

var _ application.Worker = (*FeedSync)(nil)

// FeedSync copies the upstream price feed account into the local store on
// every tick. Data that does not decode as a price feed is not stored.
type FeedSync struct {
	Source   application.FeedSource
	Store    application.AccountStore
	Decoder  application.PriceFeedDecoder
	Recorder application.Recorder
	Feed     domain.Identity

	PollEvery time.Duration
	Log       *zap.Logger
}

func (w *FeedSync) Start(ctx context.Context) {
	if w.PollEvery <= 0 {
		w.PollEvery = 2 * time.Second
	}
	log := w.logger()

	t := time.NewTicker(w.PollEvery)
	defer t.Stop()

	log.Info("feed_sync.started", zap.Duration("poll_every", w.PollEvery))
	w.SyncOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Info("feed_sync.stopped")
			return
		case <-t.C:
			w.SyncOnce(ctx)
		}
	}
}

// SyncOnce performs a single refresh and returns the outcome label.
func (w *FeedSync) SyncOnce(ctx context.Context) string {
	outcome := w.sync(ctx, w.logger())
	if w.Recorder != nil {
		w.Recorder.FeedSynced(outcome)
	}
	return outcome
}

func (w *FeedSync) logger() *zap.Logger {
	log := w.Log
	if log == nil {
		log = zap.NewNop()
	}
	return log.With(zap.String("feed", w.Feed.String()))
}

func (w *FeedSync) sync(ctx context.Context, log *zap.Logger) string {
	data, err := w.Source.Fetch(ctx, w.Feed)
	if err != nil {
		log.Warn("feed_sync.fetch_failed", zap.Error(err))
		return "fetch_error"
	}
	if w.Decoder != nil {
		snap, err := w.Decoder.Decode(domain.Account{Key: w.Feed, Data: data})
		if err != nil {
			log.Warn("feed_sync.malformed", zap.Error(err))
			return "malformed"
		}
		log.Debug("feed_sync.price",
			zap.Int64("price", snap.Price),
			zap.Int32("expo", snap.Exponent),
			zap.Int64("publish_time", snap.PublishTime))
	}
	if err := w.Store.SetData(ctx, w.Feed, data); err != nil {
		log.Warn("feed_sync.store_failed", zap.Error(err))
		return "store_error"
	}
	return "ok"
}
