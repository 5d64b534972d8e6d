package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres はPostgresへ直接接続してルームとユーザーを読み取る。
// Supabaseのデータベースに接続文字列で接続する場合に使う。
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres は接続プールを作成し、疎通を確認する。
func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	if databaseURL == "" {
		return nil, errors.New("Postgresの接続文字列が必要です")
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("Postgres接続プールの作成に失敗: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("Postgresへの疎通確認に失敗: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Room はルームを取得する。usersがNULLのルームは参加者なしとして扱う。
func (p *Postgres) Room(ctx context.Context, roomID string) (RoomRecord, error) {
	const query = `
		SELECT id::text, COALESCE(users::text[], '{}')
		FROM rooms
		WHERE id::text = $1
	`

	var record RoomRecord
	err := p.pool.QueryRow(ctx, query, roomID).Scan(&record.ID, &record.MemberIDs)
	if errors.Is(err, pgx.ErrNoRows) {
		return RoomRecord{}, fmt.Errorf("%w: id=%s", ErrRoomNotFound, roomID)
	}
	if err != nil {
		return RoomRecord{}, fmt.Errorf("ルームの取得に失敗: %w", err)
	}
	return record, nil
}

// UserTokens は指定ユーザーのトークンとメールアドレスを取得する。
func (p *Postgres) UserTokens(ctx context.Context, userIDs []string) ([]UserTokenRecord, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	const query = `
		SELECT user_id::text, COALESCE(expo_push_token, ''), COALESCE(email, '')
		FROM users
		WHERE user_id::text = ANY($1::text[])
	`

	rows, err := p.pool.Query(ctx, query, userIDs)
	if err != nil {
		return nil, fmt.Errorf("ユーザートークンの取得に失敗: %w", err)
	}
	defer rows.Close()

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

// Close は接続プールを閉じる。
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
