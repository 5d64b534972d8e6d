package directory

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrRoomNotFound は指定されたルームが存在しないことを表す。
var ErrRoomNotFound = errors.New("ルームが見つかりません")

// RoomRecord はルーム1件と参加ユーザーIDの一覧。
type RoomRecord struct {
	// ID はルームの識別子。
	ID string
	// MemberIDs は参加ユーザーのID。順序に意味はない。
	MemberIDs []string
}

// UserTokenRecord はユーザー1件のプッシュトークンとメールアドレス。
type UserTokenRecord struct {
	// UserID はユーザーの識別子。
	UserID string
	// Token はExpoのプッシュトークン。未登録の場合は空文字列。
	Token string
	// Email はメールアドレス。重複排除のキーとログの表示に使う。
	Email string
}

// Store はルームとユーザーの読み取りを行うデータストア。
type Store interface {
	// Room はルームを取得する。存在しない場合は ErrRoomNotFound を返す。
	Room(ctx context.Context, roomID string) (RoomRecord, error)
	// UserTokens は指定ユーザーのトークンとメールアドレスを1回の問い合わせで取得する。
	// 存在しないユーザーは結果に含まれない。
	UserTokens(ctx context.Context, userIDs []string) ([]UserTokenRecord, error)
	// Close は接続を解放する。
	Close() error
}

// Driver はデータストアの種類。
type Driver string

const (
	// DriverSupabase はSupabaseのREST APIを使う。
	DriverSupabase Driver = "supabase"
	// DriverPostgres はPostgresへ直接接続する。
	DriverPostgres Driver = "postgres"
	// DriverSQLite はSQLiteファイルを使う。
	DriverSQLite Driver = "sqlite"
)

// Options はデータストアの接続設定。
type Options struct {
	// Driver は接続先の種類。
	Driver Driver
	// SupabaseURL はSupabaseプロジェクトのURL。
	SupabaseURL string
	// SupabaseKey はSupabaseのサービスロールキー。
	SupabaseKey string
	// DatabaseURL はPostgresの接続文字列。
	DatabaseURL string
	// SQLitePath はSQLiteファイルのパス。
	SQLitePath string
}

// Open はoptsに応じたデータストアを開く。
func Open(ctx context.Context, opts Options, logger *zap.Logger) (Store, error) {
	var (
		store Store
		err   error
	)
	switch opts.Driver {
	case DriverSupabase:
		store, err = NewSupabase(opts.SupabaseURL, opts.SupabaseKey, logger)
	case DriverPostgres:
		store, err = NewPostgres(ctx, opts.DatabaseURL)
	case DriverSQLite:
		store, err = NewSQLite(ctx, opts.SQLitePath, logger)
	default:
		return nil, fmt.Errorf("未対応のデータストアです: %q", opts.Driver)
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}
