// 通知リレーのエントリポイント。
// ルームに新しいユーザーが参加したとき、他の参加者へExpo経由でプッシュ通知を送る。
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/nao1215/roompush/internal/config"
	"github.com/nao1215/roompush/internal/directory"
	"github.com/nao1215/roompush/internal/notification"
	"github.com/nao1215/roompush/pkg/expo"
)

// shutdownTimeout は停止時に処理中のリクエストを待つ時間。
const shutdownTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "通知リレーが異常終了しました: %v\n", err)
		os.Exit(1)
	}
}

// run は各コンポーネントを組み立て、シグナルを受けるまでサーバーを動かす。
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("設定の読み込みに失敗: %w", err)
	}

	logger, err := newLogger(cfg.Debug())
	if err != nil {
		return fmt.Errorf("ロガーの初期化に失敗: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := directory.Open(ctx, cfg.StoreOptions(), logger)
	if err != nil {
		return fmt.Errorf("データストアの初期化に失敗: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("データストアの切断に失敗", zap.Error(err))
		}
	}()

	metrics := notification.NewMetrics(registry)
	service := notification.NewService(
		notification.NewResolver(store),
		notification.NewMaterializer(store, expo.IsExpoPushToken, logger),
		notification.NewDispatcher(expo.NewClient(cfg.ExpoBaseURL, cfg.ExpoAccessToken), cfg.Template(), logger, metrics),
		logger,
		metrics,
	)

	server := notification.NewServer(notification.ServerConfig{
		Port:           cfg.Port,
		RequestTimeout: cfg.RequestTimeout,
		AllowedOrigins: cfg.AllowedOrigins(),
		Registry:       registry,
	}, service, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("通知リレーを起動します",
			zap.String("port", cfg.Port),
			zap.String("store", cfg.StoreDriver),
		)
		errCh <- server.Run()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("サーバーの起動に失敗: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("通知リレーを停止します")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("サーバーの停止に失敗: %w", err)
	}
	return nil
}

// newLogger はzapのロガーを生成する。debugが真なら開発用の設定を使う。
func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
