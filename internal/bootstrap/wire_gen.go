//go:build !wireinject

// Injectors for wire.go, kept in wire's output layout and edited by hand
// when a provider set changes.

package bootstrap

import (
	"context"

	"fxconvert-service/internal/infrastructure/worker"
)

// API injector: builds the HTTP host + Cleanup
func InitAPI(ctx context.Context) (*API, func(), error) {
	configConfig := ProvideConfig()
	logger := ProvideLogger()
	identities, err := ProvideIdentities(configConfig)
	if err != nil {
		return nil, nil, err
	}
	storage, cleanup, err := ProvideStorage(ctx, logger, configConfig)
	if err != nil {
		return nil, nil, err
	}
	processor := ProvideProcessor(identities, storage, logger)
	idempotencyStore, cleanup2, err := ProvideIdempotency(configConfig)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	registry := ProvideRegistry()
	recorder := ProvideRecorder(registry)
	instructionService, err := ProvideInstructionService(ctx, configConfig, identities, processor, storage, idempotencyStore, recorder, logger)
	if err != nil {
		cleanup2()
		cleanup()
		return nil, nil, err
	}
	serial := ProvideSerial(instructionService, configConfig)
	server := ProvideServer(configConfig, serial, instructionService, storage, registry)
	feedSource, err := ProvideFeedSource(configConfig, logger)
	if err != nil {
		cleanup2()
		cleanup()
		return nil, nil, err
	}
	feedSync := ProvideFeedSync(configConfig, identities, feedSource, storage, recorder, logger)
	api := ProvideAPI(configConfig, server, serial, feedSync)
	return api, func() {
		cleanup2()
		cleanup()
	}, nil
}

// Worker injector: builds the feed synchronizer + Cleanup
func InitWorker(ctx context.Context) (*worker.FeedSync, func(), error) {
	configConfig := ProvideConfig()
	identities, err := ProvideIdentities(configConfig)
	if err != nil {
		return nil, nil, err
	}
	logger := ProvideLogger()
	feedSource, err := ProvideFeedSource(configConfig, logger)
	if err != nil {
		return nil, nil, err
	}
	storage, cleanup, err := ProvideSharedStorage(ctx, logger, configConfig)
	if err != nil {
		return nil, nil, err
	}
	registry := ProvideRegistry()
	recorder := ProvideRecorder(registry)
	feedSync := ProvideFeedSync(configConfig, identities, feedSource, storage, recorder, logger)
	return feedSync, func() {
		cleanup()
	}, nil
}
