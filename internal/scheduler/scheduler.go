package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Task는 스케줄러가 실행할 작업을 정의하는 인터페이스입니다
type Task interface {
	Execute(ctx context.Context) error
}

// TaskFunc는 함수를 Task로 사용합니다
type TaskFunc func(ctx context.Context) error

func (f TaskFunc) Execute(ctx context.Context) error { return f(ctx) }

// Scheduler는 간격의 배수가 되는 시각마다 작업을 실행합니다
type Scheduler struct {
	interval  time.Duration
	task      Task
	immediate bool
	log       zerolog.Logger

	stopCh   chan struct{}
	stopOnce sync.Once
}

// Option은 스케줄러 옵션입니다
type Option func(*Scheduler)

// WithLogger는 로거를 설정합니다
func WithLogger(log zerolog.Logger) Option {
	return func(s *Scheduler) {
		s.log = log
	}
}

// WithImmediate는 시작하자마자 한 번 실행하도록 설정합니다
func WithImmediate() Option {
	return func(s *Scheduler) {
		s.immediate = true
	}
}

// NewScheduler는 새로운 스케줄러를 생성합니다
func NewScheduler(interval time.Duration, task Task, opts ...Option) *Scheduler {
	s := &Scheduler{
		interval: interval,
		task:     task,
		log:      zerolog.Nop(),
		stopCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NextRun은 now 이후 첫 번째 간격 배수 시각을 반환합니다
func NextRun(now time.Time, interval time.Duration) time.Time {
	return now.Truncate(interval).Add(interval)
}

// Start는 컨텍스트가 취소되거나 Stop이 호출될 때까지 작업을 반복 실행합니다.
// 작업이 실패해도 다음 실행은 계속됩니다.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.immediate {
		s.run(ctx)
	}

	timer := time.NewTimer(s.wait())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-s.stopCh:
			return nil

		case <-timer.C:
			s.run(ctx)
			timer.Reset(s.wait())
		}
	}
}

// Stop은 스케줄러를 중지합니다. 여러 번 호출해도 됩니다
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

func (s *Scheduler) run(ctx context.Context) {
	started := time.Now()
	if err := s.task.Execute(ctx); err != nil {
		s.log.Error().Err(err).Msg("작업 실행 실패")
		return
	}
	s.log.Debug().Dur("elapsed", time.Since(started)).Msg("작업 실행 완료")
}

// wait는 다음 실행까지 남은 시간을 계산합니다
func (s *Scheduler) wait() time.Duration {
	now := time.Now()
	next := NextRun(now, s.interval)

	s.log.Info().
		Dur("wait", next.Sub(now).Round(time.Second)).
		Str("next", next.Format("15:04:05")).
		Msg("다음 실행 대기")

	return next.Sub(now)
}
