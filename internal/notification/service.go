package notification

import (
	"context"

	"go.uber.org/zap"
)

// Service は Resolver → Materializer → Dispatcher の順にパイプラインを実行する。
// 各段は前段の完了を待ってから実行する。
type Service struct {
	resolver     *Resolver
	materializer *Materializer
	dispatcher   *Dispatcher
	logger       *zap.Logger
	metrics      *Metrics
}

// NewService は新しいServiceを生成する。
func NewService(resolver *Resolver, materializer *Materializer, dispatcher *Dispatcher, logger *zap.Logger, metrics *Metrics) *Service {
	return &Service{
		resolver:     resolver,
		materializer: materializer,
		dispatcher:   dispatcher,
		logger:       logger,
		metrics:      metrics,
	}
}

// Notify はルームの他の参加者に参加通知を送る。
//
// 取得段の失敗のみをエラーとして返す（ErrLookupFailure をラップ）。
// 通知先がいない場合やトークンが1件も無い場合は、送信せずに成功として扱う。
// 送信段の失敗は Summary に集計されるだけでエラーにはならない。
func (s *Service) Notify(ctx context.Context, req Request) (Summary, error) {
	logger := loggerFor(ctx, s.logger).With(zap.String("room_id", req.RoomID))

	userIDs, err := s.resolver.Resolve(ctx, req.RoomID, req.NewUserID)
	if err != nil {
		s.metrics.pipelineRuns.WithLabelValues(resultLookupFailure).Inc()
		return Summary{}, err
	}
	if len(userIDs) == 0 {
		logger.Info("通知対象のユーザーがいません")
		s.metrics.pipelineRuns.WithLabelValues(resultNoRecipients).Inc()
		return Summary{}, nil
	}

	recipients, err := s.materializer.Materialize(ctx, userIDs)
	if err != nil {
		s.metrics.pipelineRuns.WithLabelValues(resultLookupFailure).Inc()
		return Summary{}, err
	}
	if len(recipients) == 0 {
		logger.Info("有効なプッシュトークンがありません", zap.Int("users", len(userIDs)))
		s.metrics.pipelineRuns.WithLabelValues(resultNoTokens).Inc()
		return Summary{}, nil
	}

	results := s.dispatcher.Dispatch(ctx, recipients, req.RoomID, req.NewUserEmail)
	summary := summarize(len(recipients), results)
	s.metrics.pipelineRuns.WithLabelValues(resultSent).Inc()
	logger.Info("プッシュ通知の送信処理が完了しました",
		zap.Int("recipients", summary.Recipients),
		zap.Int("chunks", summary.Chunks),
		zap.Int("failed_chunks", summary.FailedChunks),
		zap.Int("accepted", summary.Accepted),
		zap.Int("rejected", summary.Rejected),
	)
	return summary, nil
}
