package notification

import (
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/nao1215/roompush/internal/directory"
)

// TestMaterializerMaterialize はトークンの検証と重複排除を検証する。
func TestMaterializerMaterialize(t *testing.T) {
	t.Parallel()

	t.Run("同じメールアドレスの2件は先に現れたトークンだけが残ること", func(t *testing.T) {
		t.Parallel()

		users := &fakeUsers{records: []directory.UserTokenRecord{
			{UserID: "u1", Token: validToken("T1"), Email: "x@example.com"},
			{UserID: "u2", Token: validToken("T2"), Email: "x@example.com"},
		}}
		got, err := NewMaterializer(users, nil, zap.NewNop()).Materialize(t.Context(), []string{"u1", "u2"})
		if err != nil {
			t.Fatalf("Materialize()でエラーが発生: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("件数 = %d, want 1", len(got))
		}
		if got[0].Token != validToken("T1") || got[0].Email != "x@example.com" {
			t.Errorf("got[0] = %+v, want T1", got[0])
		}
		if users.calls != 1 {
			t.Errorf("データストア呼び出し回数 = %d, want 1", users.calls)
		}
	})

	t.Run("形式が不正なトークンはメールアドレスが一意でも除外されること", func(t *testing.T) {
		t.Parallel()

		users := &fakeUsers{records: []directory.UserTokenRecord{
			{UserID: "u1", Token: "not-a-token", Email: "a@example.com"},
			{UserID: "u2", Token: "", Email: "b@example.com"},
			{UserID: "u3", Token: validToken("c"), Email: "c@example.com"},
		}}
		got, err := NewMaterializer(users, nil, zap.NewNop()).Materialize(t.Context(), []string{"u1", "u2", "u3"})
		if err != nil {
			t.Fatalf("Materialize()でエラーが発生: %v", err)
		}
		if len(got) != 1 || got[0].Email != "c@example.com" {
			t.Errorf("Materialize() = %+v, want only c@example.com", got)
		}
	})

	t.Run("不正なトークンのレコードはメールアドレスを占有しないこと", func(t *testing.T) {
		t.Parallel()

		users := &fakeUsers{records: []directory.UserTokenRecord{
			{UserID: "u1", Token: "broken", Email: "x@example.com"},
			{UserID: "u2", Token: validToken("T2"), Email: "x@example.com"},
		}}
		got, err := NewMaterializer(users, nil, zap.NewNop()).Materialize(t.Context(), []string{"u1", "u2"})
		if err != nil {
			t.Fatalf("Materialize()でエラーが発生: %v", err)
		}
		if len(got) != 1 || got[0].Token != validToken("T2") {
			t.Errorf("Materialize() = %+v, want T2", got)
		}
	})

	t.Run("注入した判定関数を使うこと", func(t *testing.T) {
		t.Parallel()

		users := &fakeUsers{records: []directory.UserTokenRecord{
			{UserID: "u1", Token: "custom-1", Email: "a@example.com"},
			{UserID: "u2", Token: validToken("b"), Email: "b@example.com"},
		}}
		onlyCustom := func(token string) bool { return token == "custom-1" }
		got, err := NewMaterializer(users, onlyCustom, zap.NewNop()).Materialize(t.Context(), []string{"u1", "u2"})
		if err != nil {
			t.Fatalf("Materialize()でエラーが発生: %v", err)
		}
		if len(got) != 1 || got[0].Token != "custom-1" {
			t.Errorf("Materialize() = %+v, want custom-1", got)
		}
	})

	t.Run("有効なトークンが無い場合は空を返すこと", func(t *testing.T) {
		t.Parallel()

		users := &fakeUsers{records: []directory.UserTokenRecord{{UserID: "u1", Token: "", Email: "a@example.com"}}}
		got, err := NewMaterializer(users, nil, zap.NewNop()).Materialize(t.Context(), []string{"u1"})
		if err != nil {
			t.Fatalf("Materialize()でエラーが発生: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("Materialize() = %+v, want empty", got)
		}
	})

	t.Run("取得失敗はErrLookupFailureになること", func(t *testing.T) {
		t.Parallel()

		users := &fakeUsers{err: errDatastore}
		_, err := NewMaterializer(users, nil, zap.NewNop()).Materialize(t.Context(), []string{"u1"})
		if !errors.Is(err, ErrLookupFailure) || !errors.Is(err, errDatastore) {
			t.Fatalf("ErrLookupFailureが返るべきだが %v が返った", err)
		}
	})
}
