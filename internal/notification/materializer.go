package notification

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/nao1215/roompush/internal/directory"
	"github.com/nao1215/roompush/pkg/expo"
)

// UserStore はユーザーのプッシュトークンを読み取るデータストア。
type UserStore interface {
	UserTokens(ctx context.Context, userIDs []string) ([]directory.UserTokenRecord, error)
}

// TokenValidator はプッシュトークンの形式を判定する。
type TokenValidator func(token string) bool

// Materializer はユーザーIDを検証済みの通知先に変換する。
type Materializer struct {
	users        UserStore
	isValidToken TokenValidator
	logger       *zap.Logger
}

// NewMaterializer は新しいMaterializerを生成する。isValidTokenがnilの場合は expo.IsExpoPushToken を使う。
func NewMaterializer(users UserStore, isValidToken TokenValidator, logger *zap.Logger) *Materializer {
	if isValidToken == nil {
		isValidToken = expo.IsExpoPushToken
	}
	return &Materializer{users: users, isValidToken: isValidToken, logger: logger}
}

// Materialize はユーザーのトークンを1回の問い合わせで取得し、通知先に変換する。
//
// 形式が不正なトークンを除外したうえで、メールアドレスごとに最初の1件だけを残す。
// 不正なトークンのレコードはメールアドレスを占有しない。
// 取得に失敗した場合は ErrLookupFailure をラップしたエラーを返す。
func (m *Materializer) Materialize(ctx context.Context, userIDs []string) ([]Recipient, error) {
	records, err := m.users.UserTokens(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: ユーザートークン: %w", ErrLookupFailure, err)
	}

	valid := lo.Filter(records, func(r directory.UserTokenRecord, _ int) bool {
		return m.isValidToken(r.Token)
	})
	unique := lo.UniqBy(valid, func(r directory.UserTokenRecord) string {
		return r.Email
	})

	if dropped := len(records) - len(unique); dropped > 0 {
		loggerFor(ctx, m.logger).Debug("無効または重複したトークンを除外しました",
			zap.Int("records", len(records)),
			zap.Int("invalid", len(records)-len(valid)),
			zap.Int("duplicate", len(valid)-len(unique)),
		)
	}

	return lo.Map(unique, func(r directory.UserTokenRecord, _ int) Recipient {
		return Recipient{Token: r.Token, Email: r.Email}
	}), nil
}
