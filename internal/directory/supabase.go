package directory

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/nao1215/roompush/pkg/httpclient"
)

// restPath はSupabaseのREST APIのパス接頭辞。
const restPath = "/rest/v1"

// Supabase はSupabaseのREST API（PostgREST）経由でルームとユーザーを読み取る。
type Supabase struct {
	client *httpclient.Client
}

// NewSupabase は新しいSupabaseデータストアを生成する。
// サービスロール以外のキーでは行レベルセキュリティにより行が見えない可能性があるため警告を出す。
func NewSupabase(projectURL, serviceKey string, logger *zap.Logger) (*Supabase, error) {
	if projectURL == "" || serviceKey == "" {
		return nil, errors.New("SupabaseのURLとサービスキーが必要です")
	}

	role, err := KeyRole(serviceKey)
	switch {
	case err != nil:
		logger.Info("SupabaseのキーがJWT形式ではないためロールを確認できません")
	case role != ServiceRole:
		logger.Warn("Supabaseのキーがサービスロールではありません", zap.String("role", role))
	}

	return &Supabase{
		client: httpclient.New(
			strings.TrimSuffix(projectURL, "/")+restPath,
			httpclient.WithHeader("apikey", serviceKey),
			httpclient.WithBearerToken(serviceKey),
		),
	}, nil
}

// roomRow はroomsテーブルの行。
type roomRow struct {
	ID    string   `json:"id"`
	Users []string `json:"users"`
}

// userRow はusersテーブルの行。
type userRow struct {
	UserID        string  `json:"user_id"`
	ExpoPushToken *string `json:"expo_push_token"`
	Email         *string `json:"email"`
}

// Room はルームを取得する。
func (s *Supabase) Room(ctx context.Context, roomID string) (RoomRecord, error) {
	query := url.Values{}
	query.Set("select", "id,users")
	query.Set("id", "eq."+roomID)

	var rows []roomRow
	if err := s.client.GetJSON(ctx, "/rooms", query, &rows); err != nil {
		return RoomRecord{}, fmt.Errorf("ルームの取得に失敗: %w", err)
	}
	if len(rows) == 0 {
		return RoomRecord{}, fmt.Errorf("%w: id=%s", ErrRoomNotFound, roomID)
	}
	return RoomRecord{ID: rows[0].ID, MemberIDs: rows[0].Users}, nil
}

// UserTokens は指定ユーザーのトークンとメールアドレスを取得する。
func (s *Supabase) UserTokens(ctx context.Context, userIDs []string) ([]UserTokenRecord, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	query := url.Values{}
	query.Set("select", "user_id,expo_push_token,email")
	query.Set("user_id", inFilter(userIDs))

	var rows []userRow
	if err := s.client.GetJSON(ctx, "/users", query, &rows); err != nil {
		return nil, fmt.Errorf("ユーザートークンの取得に失敗: %w", err)
	}

	records := make([]UserTokenRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, UserTokenRecord{
			UserID: r.UserID,
			Token:  deref(r.ExpoPushToken),
			Email:  deref(r.Email),
		})
	}
	return records, nil
}

// Close は何もしない。HTTPクライアントは解放不要。
func (s *Supabase) Close() error {
	return nil
}

// inFilter はPostgRESTの in 演算子の値を組み立てる。
// 各値はダブルクォートで囲み、内部の " と \ はエスケープする。
func inFilter(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		v = strings.ReplaceAll(v, `\`, `\\`)
		v = strings.ReplaceAll(v, `"`, `\"`)
		quoted[i] = `"` + v + `"`
	}
	return "in.(" + strings.Join(quoted, ",") + ")"
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
