package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/nao1215/roompush/internal/directory"
	"github.com/nao1215/roompush/pkg/expo"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// errDatastore はテスト用のデータストア障害。
var errDatastore = errors.New("datastore unavailable")

// fakeRooms はルームを返すテスト用データストア。
type fakeRooms struct {
	rooms map[string][]string
	err   error
	calls int
}

// Room はRoomStoreの実装。
func (f *fakeRooms) Room(_ context.Context, roomID string) (directory.RoomRecord, error) {
	f.calls++
	if f.err != nil {
		return directory.RoomRecord{}, f.err
	}
	members, ok := f.rooms[roomID]
	if !ok {
		return directory.RoomRecord{}, fmt.Errorf("%w: id=%s", directory.ErrRoomNotFound, roomID)
	}
	return directory.RoomRecord{ID: roomID, MemberIDs: members}, nil
}

// fakeUsers はユーザートークンを返すテスト用データストア。
type fakeUsers struct {
	records []directory.UserTokenRecord
	err     error
	calls   int
	lastIDs []string
}

// UserTokens はUserStoreの実装。入力に含まれるユーザーを登録順で返す。
func (f *fakeUsers) UserTokens(_ context.Context, userIDs []string) ([]directory.UserTokenRecord, error) {
	f.calls++
	f.lastIDs = userIDs
	if f.err != nil {
		return nil, f.err
	}
	wanted := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		wanted[id] = true
	}
	var out []directory.UserTokenRecord
	for _, r := range f.records {
		if wanted[r.UserID] {
			out = append(out, r)
		}
	}
	return out, nil
}

// fakePusher はチャンク送信を記録するテスト用プロバイダー。
type fakePusher struct {
	mu sync.Mutex
	// failOn は失敗させる呼び出し番号（0始まり）。
	failOn map[int]bool
	// rejectTokens はエラーチケットを返すトークン。
	rejectTokens map[string]bool
	chunks       [][]expo.Message
	inFlight     int
	maxInFlight  int
}

// SendPushNotifications はPusherの実装。
func (f *fakePusher) SendPushNotifications(_ context.Context, messages []expo.Message) ([]expo.Ticket, error) {
	f.mu.Lock()
	call := len(f.chunks)
	f.chunks = append(f.chunks, messages)
	f.inFlight++
	f.maxInFlight = max(f.maxInFlight, f.inFlight)
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.failOn[call] {
		return nil, fmt.Errorf("network error on call %d", call)
	}
	tickets := make([]expo.Ticket, len(messages))
	for i, m := range messages {
		if f.rejectTokens[m.To] {
			tickets[i] = expo.Ticket{Status: expo.TicketStatusError, Message: "not registered", Details: &expo.TicketDetails{Error: "DeviceNotRegistered"}}
			continue
		}
		tickets[i] = expo.Ticket{Status: expo.TicketStatusOK, ID: fmt.Sprintf("ticket-%d-%d", call, i)}
	}
	return tickets, nil
}

// calls は送信呼び出し回数を返す。
func (f *fakePusher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.chunks)
}

// testPipeline はテスト用に組み立てたパイプライン一式。
type testPipeline struct {
	rooms   *fakeRooms
	users   *fakeUsers
	pusher  *fakePusher
	service *Service
}

// newTestPipeline はフェイクを使ったServiceを構築する。
func newTestPipeline(t *testing.T, rooms *fakeRooms, users *fakeUsers, pusher *fakePusher) *testPipeline {
	t.Helper()
	logger := zap.NewNop()
	metrics := NewMetrics(prometheus.NewRegistry())
	service := NewService(
		NewResolver(rooms),
		NewMaterializer(users, nil, logger),
		NewDispatcher(pusher, DefaultTemplate(), logger, metrics),
		logger,
		metrics,
	)
	return &testPipeline{rooms: rooms, users: users, pusher: pusher, service: service}
}

// validToken はテスト用の有効なトークンを生成する。
func validToken(s string) string {
	return "ExponentPushToken[" + s + "]"
}

// shortPusher はメッセージ数より少ないチケットを返すプロバイダー。
type shortPusher struct{}

// SendPushNotifications はPusherの実装。
func (shortPusher) SendPushNotifications(_ context.Context, _ []expo.Message) ([]expo.Ticket, error) {
	return []expo.Ticket{{Status: expo.TicketStatusOK, ID: "only-one"}}, nil
}
