// Package config は通知リレーの設定を環境変数から読み込む。
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"

	"github.com/nao1215/roompush/internal/directory"
	"github.com/nao1215/roompush/internal/notification"
	"github.com/nao1215/roompush/pkg/middleware"
)

// Config は通知リレーの設定。
type Config struct {
	// Port はリッスンポート。
	Port string `env:"PORT,default=3000"`
	// StoreDriver はデータストアの種類（supabase / postgres / sqlite）。
	StoreDriver string `env:"STORE_DRIVER,default=supabase"`
	// SupabaseURL はSupabaseプロジェクトのURL。
	SupabaseURL string `env:"SUPABASE_URL"`
	// SupabaseServiceRoleKey はSupabaseのサービスロールキー。
	SupabaseServiceRoleKey string `env:"SUPABASE_SERVICE_ROLE_KEY"`
	// DatabaseURL はPostgresの接続文字列。
	DatabaseURL string `env:"DATABASE_URL"`
	// SQLitePath はSQLiteファイルのパス。
	SQLitePath string `env:"SQLITE_PATH,default=notifier.db"`
	// ExpoBaseURL はExpo Push APIのベースURL。
	ExpoBaseURL string `env:"EXPO_BASE_URL,default=https://exp.host"`
	// ExpoAccessToken はExpoのアクセストークン。任意。
	ExpoAccessToken string `env:"EXPO_ACCESS_TOKEN"`
	// NotificationTitle は通知タイトル。空なら既定の文言。
	NotificationTitle string `env:"NOTIFICATION_TITLE"`
	// NotificationBody は通知本文。空なら既定の文言。
	NotificationBody string `env:"NOTIFICATION_BODY"`
	// RequestTimeout はパイプライン1回あたりのタイムアウト。
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT,default=30s"`
	// CORSAllowedOrigins はCORSで許可するオリジン（カンマ区切り）。
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS"`
	// LogLevel はログレベル。debugの場合は開発用のロガーを使う。
	LogLevel string `env:"LOG_LEVEL,default=info"`
}

// Load は .env（存在する場合）と環境変数から設定を読み込み、検証する。
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf(".envの読み込みに失敗: %w", err)
	}

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("環境変数の読み込みに失敗: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate はデータストアごとの必須項目とタイムアウトを検証する。
func (c *Config) Validate() error {
	var errs []error
	switch directory.Driver(c.StoreDriver) {
	case directory.DriverSupabase:
		if c.SupabaseURL == "" {
			errs = append(errs, errors.New("SUPABASE_URL が設定されていません"))
		}
		if c.SupabaseServiceRoleKey == "" {
			errs = append(errs, errors.New("SUPABASE_SERVICE_ROLE_KEY が設定されていません"))
		}
	case directory.DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL が設定されていません"))
		}
	case directory.DriverSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH が設定されていません"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER が不正です: %q", c.StoreDriver))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("REQUEST_TIMEOUT は正の値である必要があります: %s", c.RequestTimeout))
	}
	return errors.Join(errs...)
}

// StoreOptions はデータストアの接続設定を返す。
func (c *Config) StoreOptions() directory.Options {
	return directory.Options{
		Driver:      directory.Driver(c.StoreDriver),
		SupabaseURL: c.SupabaseURL,
		SupabaseKey: c.SupabaseServiceRoleKey,
		DatabaseURL: c.DatabaseURL,
		SQLitePath:  c.SQLitePath,
	}
}

// Template は通知の雛形を返す。未設定の項目は既定の文言を使う。
func (c *Config) Template() notification.Template {
	tmpl := notification.DefaultTemplate()
	if c.NotificationTitle != "" {
		tmpl.Title = c.NotificationTitle
	}
	if c.NotificationBody != "" {
		tmpl.Body = c.NotificationBody
	}
	return tmpl
}

// AllowedOrigins はCORSで許可するオリジンの一覧を返す。
func (c *Config) AllowedOrigins() []string {
	return middleware.ParseOrigins(c.CORSAllowedOrigins)
}

// Debug はデバッグ用のログ出力が有効かどうかを返す。
func (c *Config) Debug() bool {
	return strings.EqualFold(c.LogLevel, "debug")
}
