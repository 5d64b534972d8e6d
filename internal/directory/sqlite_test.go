package directory

import (
	"errors"
	"testing"

	"go.uber.org/zap"
)

// setupTestSQLite はテスト用のインメモリSQLiteデータストアを構築する。
func setupTestSQLite(t *testing.T) *SQLite {
	t.Helper()

	store, err := NewSQLite(t.Context(), ":memory:", zap.NewNop())
	if err != nil {
		t.Fatalf("インメモリDBの作成に失敗: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// TestSQLiteRoom はルーム取得を検証する。
func TestSQLiteRoom(t *testing.T) {
	t.Parallel()

	t.Run("登録済みルームの参加ユーザーを取得できること", func(t *testing.T) {
		t.Parallel()
		store := setupTestSQLite(t)

		if err := store.PutRoom(t.Context(), RoomRecord{ID: "room-1", MemberIDs: []string{"A", "B", "C"}}); err != nil {
			t.Fatalf("ルームの登録に失敗: %v", err)
		}

		room, err := store.Room(t.Context(), "room-1")
		if err != nil {
			t.Fatalf("Room()でエラーが発生: %v", err)
		}
		if room.ID != "room-1" {
			t.Errorf("ID = %q, want room-1", room.ID)
		}
		if len(room.MemberIDs) != 3 {
			t.Errorf("参加ユーザー数 = %d, want 3", len(room.MemberIDs))
		}
	})

	t.Run("存在しないルームはErrRoomNotFoundになること", func(t *testing.T) {
		t.Parallel()
		store := setupTestSQLite(t)

		_, err := store.Room(t.Context(), "missing")
		if !errors.Is(err, ErrRoomNotFound) {
			t.Fatalf("ErrRoomNotFoundが返るべきだが %v が返った", err)
		}
	})

	t.Run("usersがNULLのルームは参加者なしになること", func(t *testing.T) {
		t.Parallel()
		store := setupTestSQLite(t)

		if _, err := store.db.Exec("INSERT INTO rooms (id, users) VALUES ('room-null', NULL)"); err != nil {
			t.Fatalf("ルームの登録に失敗: %v", err)
		}

		room, err := store.Room(t.Context(), "room-null")
		if err != nil {
			t.Fatalf("Room()でエラーが発生: %v", err)
		}
		if len(room.MemberIDs) != 0 {
			t.Errorf("参加ユーザー数 = %d, want 0", len(room.MemberIDs))
		}
	})
}

// TestSQLiteUserTokens はユーザートークン取得を検証する。
func TestSQLiteUserTokens(t *testing.T) {
	t.Parallel()

	t.Run("指定ユーザーのみ登録順で取得できること", func(t *testing.T) {
		t.Parallel()
		store := setupTestSQLite(t)

		users := []UserTokenRecord{
			{UserID: "A", Token: "ExpoPushToken[a]", Email: "a@example.com"},
			{UserID: "B", Token: "", Email: "b@example.com"},
			{UserID: "C", Token: "ExpoPushToken[c]", Email: "c@example.com"},
		}
		for _, u := range users {
			if err := store.PutUser(t.Context(), u); err != nil {
				t.Fatalf("ユーザーの登録に失敗: %v", err)
			}
		}

		records, err := store.UserTokens(t.Context(), []string{"C", "B", "Z"})
		if err != nil {
			t.Fatalf("UserTokens()でエラーが発生: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("件数 = %d, want 2", len(records))
		}
		if records[0].UserID != "B" || records[0].Token != "" {
			t.Errorf("records[0] = %+v, want B with empty token", records[0])
		}
		if records[1].UserID != "C" || records[1].Token != "ExpoPushToken[c]" || records[1].Email != "c@example.com" {
			t.Errorf("records[1] = %+v", records[1])
		}
	})

	t.Run("空の入力では問い合わせずに空を返すこと", func(t *testing.T) {
		t.Parallel()
		store := setupTestSQLite(t)

		records, err := store.UserTokens(t.Context(), nil)
		if err != nil {
			t.Fatalf("UserTokens()でエラーが発生: %v", err)
		}
		if len(records) != 0 {
			t.Errorf("件数 = %d, want 0", len(records))
		}
	})

	t.Run("閉じたDBではエラーになること", func(t *testing.T) {
		t.Parallel()
		store := setupTestSQLite(t)
		store.Close()

		if _, err := store.UserTokens(t.Context(), []string{"A"}); err == nil {
			t.Fatal("エラーが返るべきだが、nilが返った")
		}
	})
}

// TestOpen はドライバー選択を検証する。
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("sqliteドライバーで開けること", func(t *testing.T) {
		t.Parallel()

		store, err := Open(t.Context(), Options{Driver: DriverSQLite, SQLitePath: ":memory:"}, zap.NewNop())
		if err != nil {
			t.Fatalf("Open()でエラーが発生: %v", err)
		}
		defer store.Close()
		if _, ok := store.(*SQLite); !ok {
			t.Errorf("型 = %T, want *SQLite", store)
		}
	})

	t.Run("未対応のドライバーはエラーになること", func(t *testing.T) {
		t.Parallel()

		if _, err := Open(t.Context(), Options{Driver: "mysql"}, zap.NewNop()); err == nil {
			t.Fatal("エラーが返るべきだが、nilが返った")
		}
	})

	t.Run("Supabaseの設定が無い場合はエラーになること", func(t *testing.T) {
		t.Parallel()

		if _, err := Open(t.Context(), Options{Driver: DriverSupabase}, zap.NewNop()); err == nil {
			t.Fatal("エラーが返るべきだが、nilが返った")
		}
	})

	t.Run("Postgresの接続文字列が無い場合はエラーになること", func(t *testing.T) {
		t.Parallel()

		if _, err := Open(t.Context(), Options{Driver: DriverPostgres}, zap.NewNop()); err == nil {
			t.Fatal("エラーが返るべきだが、nilが返った")
		}
	})
}
