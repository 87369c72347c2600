//go:build wireinject

package bootstrap

import (
	"context"

	"fxconvert-service/internal/infrastructure/worker"

	"github.com/google/wire"
)

var infraSet = wire.NewSet(
	ProvideConfig,
	ProvideLogger,
	ProvideIdentities,
	ProvideRegistry,
	ProvideRecorder,
	ProvideFeedSource,
	ProvideFeedSync,
)

var hostSet = wire.NewSet(
	ProvideIdempotency,
	ProvideProcessor,
	ProvideInstructionService,
	ProvideSerial,
	ProvideServer,
)

// API injector: builds the HTTP host + Cleanup
func InitAPI(ctx context.Context) (*API, func(), error) {
	wire.Build(
		infraSet,
		ProvideStorage,
		hostSet,
		ProvideAPI,
	)
	return nil, nil, nil
}

// Worker injector: builds the feed synchronizer + Cleanup
func InitWorker(ctx context.Context) (*worker.FeedSync, func(), error) {
	wire.Build(infraSet, ProvideSharedStorage)
	return nil, nil, nil
}
