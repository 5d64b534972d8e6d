package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nao1215/roompush/pkg/httpclient"
)

// HeaderRequestID はリクエストIDを運ぶHTTPヘッダーキー。
const HeaderRequestID = httpclient.HeaderRequestID

// contextKeyRequestID はGinコンテキストにリクエストIDを格納するキー。
const contextKeyRequestID = "request_id"

// RequestID はリクエストごとにIDを割り当てるGinミドルウェアを返す。
// クライアントが X-Request-ID を付けていればそれを引き継ぎ、無ければUUIDを採番する。
// IDはレスポンスヘッダーと、外部API呼び出しに伝播するリクエストコンテキストに設定する。
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Set(contextKeyRequestID, requestID)
		c.Header(HeaderRequestID, requestID)
		c.Request = c.Request.WithContext(httpclient.WithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}

// GetRequestID はGinコンテキストからリクエストIDを取得する。
// RequestIDミドルウェアが適用されていなければ空文字列を返す。
func GetRequestID(c *gin.Context) string {
	return c.GetString(contextKeyRequestID)
}
