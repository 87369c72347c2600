package worker

import (
	"context"
	"fmt"
	"time"

	"fxconvert-service/internal/application"
	"fxconvert-service/internal/infrastructure/logx"

	"go.uber.org/zap"
)

type submitter interface {
	Submit(ctx context.Context, sub application.Submission) error
}

type job struct {
	ctx    context.Context
	sub    application.Submission
	result chan error
}

// Serial executes submissions one at a time in arrival order. Callers block
// in Submit until their instruction has run.
type Serial struct {
	svc     submitter
	jobs    chan job
	Timeout time.Duration
}

var _ application.Worker = (*Serial)(nil)

func NewSerial(svc submitter, queue int) *Serial {
	if queue <= 0 {
		queue = 1
	}
	return &Serial{svc: svc, jobs: make(chan job, queue), Timeout: 5 * time.Second}
}

// Submit enqueues sub and waits for its result or for ctx to end. A job
// already dequeued runs to completion even if the caller gives up.
func (w *Serial) Submit(ctx context.Context, sub application.Submission) error {
	j := job{ctx: ctx, sub: sub, result: make(chan error, 1)}
	select {
	case w.jobs <- j:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-j.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Serial) Start(ctx context.Context) {
	log := logx.L().With(zap.String("worker", "serial"))
	for {
		select {
		case <-ctx.Done():
			log.Info("serial_worker.stop")
			return
		case j := <-w.jobs:
			j.result <- w.processOne(j)
		}
	}
}

func (w *Serial) processOne(j job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logx.WithFields(j.ctx).Warn("serial_worker.panic", zap.Any("r", r))
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	c, cancel := context.WithTimeout(context.WithoutCancel(j.ctx), w.Timeout)
	defer cancel()
	return w.svc.Submit(c, j.sub)
}
