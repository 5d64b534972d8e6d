package notification

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/nao1215/roompush/pkg/middleware"
)

// レスポンス本文。
const (
	messageSent   = "プッシュ通知を送信しました"
	messageFailed = "通知の送信中にエラーが発生しました"
)

// DefaultRequestTimeout はパイプライン1回あたりの既定タイムアウト。
const DefaultRequestTimeout = 30 * time.Second

// Notifier は通知パイプラインを実行する。
type Notifier interface {
	Notify(ctx context.Context, req Request) (Summary, error)
}

// ServerConfig はHTTPサーバーの設定。
type ServerConfig struct {
	// Port はリッスンポート。
	Port string
	// RequestTimeout はパイプライン1回あたりのタイムアウト。0以下なら DefaultRequestTimeout。
	RequestTimeout time.Duration
	// AllowedOrigins はCORSで許可するオリジン。空ならCORSヘッダーを付けない。
	AllowedOrigins []string
	// Registry は指標の登録先で、/metrics で公開する。nilなら /metrics を公開しない。
	Registry *prometheus.Registry
}

// Server は通知リレーのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// httpServer はリッスン中のHTTPサーバー。
	httpServer *http.Server
	// notifier は通知パイプライン。
	notifier Notifier
	// logger はアプリケーションログの出力先。
	logger *zap.Logger
	// requestTimeout はパイプライン1回あたりのタイムアウト。
	requestTimeout time.Duration
}

// NewServer は新しい通知サーバーを生成する。
func NewServer(cfg ServerConfig, notifier Notifier, logger *zap.Logger) *Server {
	registerJSONFieldNames()

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(logger))
	router.Use(gin.Logger())
	if cfg.Registry != nil {
		router.Use(middleware.Metrics(middleware.NewHTTPMetrics(cfg.Registry)))
	}
	if len(cfg.AllowedOrigins) > 0 {
		router.Use(middleware.CORS(cfg.AllowedOrigins))
	}

	s := &Server{
		router:         router,
		notifier:       notifier,
		logger:         logger,
		requestTimeout: timeout,
	}
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      timeout + 10*time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.setupRoutes(cfg.Registry)

	return s
}

// Handler はルーティング済みのHTTPハンドラを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run はHTTPサーバーを起動する。Shutdownで停止した場合はnilを返す。
func (s *Server) Run() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown は処理中のリクエストの完了を待ってからサーバーを停止する。
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes(registry *prometheus.Registry) {
	// ルーム参加通知
	s.router.POST("/send-notification", s.handleSendNotification())

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "notifier"})
	})

	if registry != nil {
		s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})))
	}
}

// sendNotificationRequest は通知リクエストのJSON構造。
type sendNotificationRequest struct {
	// RoomID は参加先ルームの識別子。
	RoomID string `json:"roomId" binding:"required"`
	// NewUserID は参加したユーザーの識別子。
	NewUserID string `json:"newUserId" binding:"required"`
	// NewUserEmail は参加したユーザーのメールアドレス。
	NewUserEmail string `json:"newUserEmail" binding:"required"`
}

// handleSendNotification はルームの他の参加者にプッシュ通知を送るハンドラ。
// 送信段の失敗は応答に影響せず、取得段の失敗のみ500を返す。
func (s *Server) handleSendNotification() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := s.logger.With(zap.String("request_id", middleware.GetRequestID(c)))

		var req sendNotificationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			verr := newRequestValidationError(err)
			logger.Info("通知リクエストが不正です", zap.Strings("missing", verr.Missing), zap.Error(err))
			c.String(http.StatusBadRequest, verr.Error())
			return
		}

		// 呼び出し元が切断しても送信は続け、タイムアウトでのみ打ち切る
		ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), s.requestTimeout)
		defer cancel()

		_, err := s.notifier.Notify(ctx, Request{
			RoomID:       req.RoomID,
			NewUserID:    req.NewUserID,
			NewUserEmail: req.NewUserEmail,
		})
		if err != nil {
			logger.Error("通知の送信中にエラーが発生しました", zap.String("room_id", req.RoomID), zap.Error(err))
			c.String(http.StatusInternalServerError, messageFailed)
			return
		}

		c.String(http.StatusOK, messageSent)
	}
}

// newRequestValidationError はバインド時のエラーを RequestValidationError に変換する。
func newRequestValidationError(err error) *RequestValidationError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &RequestValidationError{Cause: err}
	}
	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		missing = append(missing, fe.Field())
	}
	return &RequestValidationError{Missing: missing, Cause: err}
}

var registerOnce sync.Once

// registerJSONFieldNames は検証エラーの項目名をJSON名（roomId等）で報告させる。
func registerJSONFieldNames() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
}
