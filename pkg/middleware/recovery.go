package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecoveryMessage はパニック時にクライアントへ返す本文。
const RecoveryMessage = "内部サーバーエラーが発生しました"

// Recovery はパニックからの回復を行うGinミドルウェアを返す。
// パニック発生時にリクエスト情報とスタックをログに出力し、プレーンテキストで500を返す。
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("パニックから回復しました",
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.String("request_id", GetRequestID(c)),
					zap.String("panic", fmt.Sprint(r)),
					zap.Stack("stack"),
				)
				c.Abort()
				c.String(http.StatusInternalServerError, RecoveryMessage)
			}
		}()
		c.Next()
	}
}
