package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"wxbatch/pkg/batch/util/exception"
	"wxbatch/pkg/batch/util/logger"
)

// Scheduler は cron 式に従ってタスクを繰り返し実行するコンポーネントです。
// タスクは同時実行されません。前回の実行が終わっていなければその回はスキップされます。
type Scheduler struct {
	cron *cron.Cron
	spec string
	task func(ctx context.Context)
}

// New は cron 式を検証し、タスクを登録した Scheduler を返します。
// スケジュールは loc のタイムゾーンで解釈されます (nil の場合はシステムローカル)。
// 不正な式は KindConfiguration のエラーになります。
func New(spec string, loc *time.Location, task func(ctx context.Context)) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, exception.NewBatchError("scheduler", "cron 式 '"+spec+"' が不正です", err, exception.KindConfiguration)
	}
	if loc == nil {
		loc = time.Local
	}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	return &Scheduler{cron: c, spec: spec, task: task}, nil
}

// Run はスケジューラを開始し、ctx がキャンセルされるまでブロックします。
// 停止時は実行中のタスクへキャンセルを伝播し、完了を待ってから戻ります。
func (s *Scheduler) Run(ctx context.Context) {
	taskCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.cron.AddFunc(s.spec, func() {
		logger.Infof("スケジュール '%s' の実行を開始します。", s.spec)
		s.task(taskCtx)
	})

	logger.Infof("スケジューラを開始します。スケジュール: '%s'", s.spec)
	s.cron.Start()

	<-ctx.Done()
	logger.Infof("停止シグナルを受信しました。実行中のタスクの完了を待ちます。")

	cancel()
	<-s.cron.Stop().Done()
	logger.Infof("スケジューラを停止しました。")
}
