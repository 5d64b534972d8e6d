package notification

import (
	"context"

	"go.uber.org/zap"

	"github.com/nao1215/roompush/pkg/httpclient"
)

// loggerFor はコンテキストのリクエストIDを付けたロガーを返す。
func loggerFor(ctx context.Context, logger *zap.Logger) *zap.Logger {
	if requestID := httpclient.RequestIDFrom(ctx); requestID != "" {
		return logger.With(zap.String("request_id", requestID))
	}
	return logger
}
