package app

import (
	"context"
	"errors"
	"os/signal"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Service 可独立启停的运行单元
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Runner 并发启动全部服务，任一服务退出即整体停机
type Runner struct {
	services []Service
}

// NewRunner 创建服务运行器，services 按依赖顺序排列
func NewRunner(services ...Service) *Runner {
	return &Runner{services: services}
}

// RunWithOptions 运行服务并处理系统信号
func RunWithOptions(runner *Runner, opts Options) error {
	if runner == nil {
		return errors.New("runner is nil")
	}
	opts = normalizeOptions(opts)
	ctx, stop := signal.NotifyContext(context.Background(), opts.Signals...)
	defer stop()
	return runner.Run(ctx, opts.ShutdownTimeout, opts.Logger)
}

// Run 启动服务，阻塞到 ctx 结束或某个服务退出
func (r *Runner) Run(ctx context.Context, stopTimeout time.Duration, log *zap.SugaredLogger) error {
	if r == nil || len(r.services) == 0 {
		return errors.New("no services to run")
	}
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	group, groupCtx := errgroup.WithContext(runCtx)
	for _, svc := range r.services {
		svc := svc
		group.Go(func() error {
			defer cancel()
			if svc == nil {
				return errors.New("service is nil")
			}
			logService(log, "service_start", svc.Name())
			err := svc.Start(groupCtx)
			logService(log, "service_exit", svc.Name())
			return err
		})
	}

	<-groupCtx.Done()
	r.stopAll(stopTimeout, log)

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// stopAll 逆序停止：先停对外服务，最后释放共享资源
func (r *Runner) stopAll(timeout time.Duration, log *zap.SugaredLogger) {
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	stopCtx, stopCancel := context.WithTimeout(context.Background(), timeout)
	defer stopCancel()
	for i := len(r.services) - 1; i >= 0; i-- {
		svc := r.services[i]
		if svc == nil {
			continue
		}
		if err := svc.Stop(stopCtx); err != nil && log != nil {
			log.Errorw("service_stop_failed", "service", svc.Name(), "error", err)
		}
	}
}

func logService(log *zap.SugaredLogger, event, name string) {
	if log != nil {
		log.Infow(event, "service", name)
	}
}
