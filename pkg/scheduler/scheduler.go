package scheduler

import (
	"context"
	"skillforge_backend/pkg/logger"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Reconciler 重算所有学员的技能统计并补发成就
type Reconciler interface {
	ReconcileAll(ctx context.Context) (int, error)
}

type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
}

func New() *Scheduler {
	l := cronLogger{}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(l),
			cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
		),
		ctx:    ctx,
		cancel: cancel,
	}
}

// AddStatsReconcile 按 cron 表达式定期执行 ReconcileAll，表达式为空时不注册
func (s *Scheduler) AddStatsReconcile(spec string, r Reconciler) error {
	if spec == "" {
		logger.Log.Info("stats reconcile job disabled")
		return nil
	}
	_, err := s.cron.AddFunc(spec, func() {
		RunStatsReconcile(s.ctx, r)
	})
	if err != nil {
		return err
	}
	logger.Log.Info("stats reconcile job scheduled", zap.String("spec", spec))
	return nil
}

func RunStatsReconcile(ctx context.Context, r Reconciler) {
	start := time.Now()
	n, err := r.ReconcileAll(ctx)
	if err != nil {
		logger.Log.Error("stats reconcile failed", zap.Int("refreshed", n), zap.Error(err))
		return
	}
	logger.Log.Info("stats reconcile finished", zap.Int("refreshed", n), zap.Duration("elapsed", time.Since(start)))
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop 取消正在运行的任务并等待其退出
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
}

// cronLogger 将 cron 内部日志转到 zap
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Log.Sugar().Debugw(msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Log.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
