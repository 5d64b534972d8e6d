package notification

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"github.com/nao1215/roompush/internal/directory"
)

// RoomStore はルームの参加者を読み取るデータストア。
type RoomStore interface {
	Room(ctx context.Context, roomID string) (directory.RoomRecord, error)
}

// Resolver は通知すべきユーザーを求める。
type Resolver struct {
	rooms RoomStore
}

// NewResolver は新しいResolverを生成する。
func NewResolver(rooms RoomStore) *Resolver {
	return &Resolver{rooms: rooms}
}

// Resolve はルームの参加者からexcludeUserIDを除いたユーザーIDを返す。順序に意味はない。
// ルームが存在しない場合や取得に失敗した場合は ErrLookupFailure をラップしたエラーを返す。
func (r *Resolver) Resolve(ctx context.Context, roomID, excludeUserID string) ([]string, error) {
	room, err := r.rooms.Room(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("%w: ルーム %s: %w", ErrLookupFailure, roomID, err)
	}
	return lo.Without(room.MemberIDs, excludeUserID), nil
}
