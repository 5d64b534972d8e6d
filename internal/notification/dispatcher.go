package notification

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/nao1215/roompush/pkg/expo"
)

// Pusher はプッシュ通知プロバイダーにチャンク1つ分のメッセージを送信する。
// チケットはメッセージと同じ順序で返す。
type Pusher interface {
	SendPushNotifications(ctx context.Context, messages []expo.Message) ([]expo.Ticket, error)
}

// Dispatcher は通知先ごとのメッセージを組み立て、チャンク単位で順番に送信する。
type Dispatcher struct {
	pusher   Pusher
	template Template
	logger   *zap.Logger
	metrics  *Metrics
}

// NewDispatcher は新しいDispatcherを生成する。
func NewDispatcher(pusher Pusher, template Template, logger *zap.Logger, metrics *Metrics) *Dispatcher {
	return &Dispatcher{pusher: pusher, template: template, logger: logger, metrics: metrics}
}

// BuildMessages は通知先ごとに1件のメッセージを組み立てる。
func (d *Dispatcher) BuildMessages(recipients []Recipient, roomID, joiningUserEmail string) []PushMessage {
	title, body := d.template.Render(joiningUserEmail)
	return lo.Map(recipients, func(r Recipient, _ int) PushMessage {
		return PushMessage{
			Message: expo.Message{
				To:    r.Token,
				Sound: DefaultSound,
				Title: title,
				Body:  body,
				Data:  map[string]any{"roomId": roomID},
			},
			Recipient: r.Email,
		}
	})
}

// Dispatch はメッセージをプロバイダーの上限件数ごとに分割し、チャンクを1つずつ順番に送信する。
//
// チャンクの送信に失敗しても残りのチャンクは送信し、その失敗は該当する ChunkResult.Err に残す。
// 拒否されたメッセージはログに記録するだけで、再送は行わない。
// 戻り値はチャンクと同じ順序で並ぶ。
func (d *Dispatcher) Dispatch(ctx context.Context, recipients []Recipient, roomID, joiningUserEmail string) []ChunkResult {
	logger := loggerFor(ctx, d.logger).With(zap.String("room_id", roomID))
	chunks := expo.ChunkPushNotifications(d.BuildMessages(recipients, roomID, joiningUserEmail))

	results := make([]ChunkResult, 0, len(chunks))
	for i, chunk := range chunks {
		results = append(results, d.dispatchChunk(ctx, logger, i, chunk))
	}
	return results
}

// dispatchChunk はチャンク1つを送信し、結果をログと指標に記録する。
func (d *Dispatcher) dispatchChunk(ctx context.Context, logger *zap.Logger, index int, chunk []PushMessage) ChunkResult {
	messages := lo.Map(chunk, func(m PushMessage, _ int) expo.Message {
		return m.Message
	})

	tickets, err := d.pusher.SendPushNotifications(ctx, messages)
	if err == nil && len(tickets) != len(chunk) {
		err = fmt.Errorf("%w: messages=%d, tickets=%d", expo.ErrTicketCountMismatch, len(chunk), len(tickets))
	}
	if err != nil {
		failure := &DispatchChunkFailure{Index: index, Size: len(chunk), Err: err}
		logger.Error("プッシュ通知の送信に失敗しました",
			zap.Int("chunk", index),
			zap.Int("size", len(chunk)),
			zap.Error(err),
		)
		d.metrics.pushChunks.WithLabelValues("failed").Inc()
		return ChunkResult{Index: index, Err: failure}
	}
	d.metrics.pushChunks.WithLabelValues("sent").Inc()
	logger.Debug("チケット応答", zap.Int("chunk", index), zap.Any("tickets", tickets))

	outcomes := make([]DeliveryOutcome, 0, len(tickets))
	for i, ticket := range tickets {
		msg := chunk[i]
		outcome := DeliveryOutcome{
			Recipient: msg.Recipient,
			Token:     msg.Message.To,
			Status:    ticket.Status,
			TicketID:  ticket.ID,
			Message:   ticket.Message,
			Detail:    ticket.DetailCode(),
		}
		outcomes = append(outcomes, outcome)
		d.metrics.pushMessages.WithLabelValues(string(ticket.Status)).Inc()

		if err := outcome.Err(); err != nil {
			logger.Error("通知が拒否されました",
				zap.String("recipient", outcome.Recipient),
				zap.String("message", outcome.Message),
				zap.String("detail", outcome.Detail),
			)
			continue
		}
		logger.Info("通知を送信しました",
			zap.String("recipient", outcome.Recipient),
			zap.String("body", msg.Message.Body),
			zap.String("ticket_id", outcome.TicketID),
		)
	}
	return ChunkResult{Index: index, Outcomes: outcomes}
}
