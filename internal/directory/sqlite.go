package directory

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/nao1215/roompush/pkg/migration"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLite はSQLiteファイルからルームとユーザーを読み取る。
// ローカル開発とテストで、Supabaseと同じテーブル構成を再現するために使う。
type SQLite struct {
	db *sql.DB
}

// NewSQLite はSQLiteデータベースを開き、スキーマを適用する。
func NewSQLite(ctx context.Context, path string, logger *zap.Logger) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("SQLiteファイルのパスが必要です")
	}

	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	if path == ":memory:" {
		// :memory: は接続ごとに別DBになるため1接続に固定する
		db.SetMaxOpenConns(1)
	}

	if _, err := migration.Run(ctx, db, migrations, "migrations", logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Room はルームを取得する。usersがNULLのルームは参加者なしとして扱う。
func (s *SQLite) Room(ctx context.Context, roomID string) (RoomRecord, error) {
	var users sql.NullString
	err := s.db.QueryRowContext(ctx, "SELECT users FROM rooms WHERE id = ?", roomID).Scan(&users)
	if errors.Is(err, sql.ErrNoRows) {
		return RoomRecord{}, fmt.Errorf("%w: id=%s", ErrRoomNotFound, roomID)
	}
	if err != nil {
		return RoomRecord{}, fmt.Errorf("ルームの取得に失敗: %w", err)
	}

	record := RoomRecord{ID: roomID}
	if users.Valid && users.String != "" {
		if err := json.Unmarshal([]byte(users.String), &record.MemberIDs); err != nil {
			return RoomRecord{}, fmt.Errorf("参加ユーザー一覧の解析に失敗: %w", err)
		}
	}
	return record, nil
}

// UserTokens は指定ユーザーのトークンとメールアドレスを取得する。
func (s *SQLite) UserTokens(ctx context.Context, userIDs []string) ([]UserTokenRecord, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(userIDs)), ",")
	query := "SELECT user_id, COALESCE(expo_push_token, ''), COALESCE(email, '') FROM users WHERE user_id IN (" + placeholders + ") ORDER BY rowid"
	args := make([]any, len(userIDs))
	for i, id := range userIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ユーザートークンの取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []UserTokenRecord
	for rows.Next() {
		var r UserTokenRecord
		if err := rows.Scan(&r.UserID, &r.Token, &r.Email); err != nil {
			return nil, fmt.Errorf("ユーザートークンの読み取りに失敗: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ユーザートークンの読み取りに失敗: %w", err)
	}
	return records, nil
}

// PutRoom はルームを登録または更新する。ローカル開発用のデータ投入に使う。
func (s *SQLite) PutRoom(ctx context.Context, room RoomRecord) error {
	users, err := json.Marshal(room.MemberIDs)
	if err != nil {
		return fmt.Errorf("参加ユーザー一覧のシリアライズに失敗: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO rooms (id, users) VALUES (?, ?) ON CONFLICT(id) DO UPDATE SET users = excluded.users",
		room.ID, string(users))
	if err != nil {
		return fmt.Errorf("ルームの登録に失敗: %w", err)
	}
	return nil
}

// PutUser はユーザーを登録または更新する。Tokenが空の場合はNULLとして保存する。
func (s *SQLite) PutUser(ctx context.Context, user UserTokenRecord) error {
	var token sql.NullString
	if user.Token != "" {
		token = sql.NullString{String: user.Token, Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (user_id, expo_push_token, email) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET expo_push_token = excluded.expo_push_token, email = excluded.email`,
		user.UserID, token, user.Email)
	if err != nil {
		return fmt.Errorf("ユーザーの登録に失敗: %w", err)
	}
	return nil
}

// Close はデータベース接続を閉じる。
func (s *SQLite) Close() error {
	return s.db.Close()
}
