package notification

import (
	"errors"
	"fmt"
	"strings"
)

// ErrLookupFailure はデータストアからの取得失敗（ルームが存在しない場合を含む）を表す。
// このエラーが返った場合、通知は送信されない。
var ErrLookupFailure = errors.New("データストアからの取得に失敗しました")

// RequestValidationError は必須項目が欠けた通知リクエストを表す。
type RequestValidationError struct {
	// Missing は欠けている項目のJSON名。
	Missing []string
	// Cause はJSONの構文エラーなど、項目単位に分解できない原因。
	Cause error
}

// Error はerrorインターフェースの実装。
func (e *RequestValidationError) Error() string {
	msg := "roomId, newUserId, newUserEmail はすべて必須です"
	if len(e.Missing) > 0 {
		msg += fmt.Sprintf("（不足: %s）", strings.Join(e.Missing, ", "))
	}
	return msg
}

// Unwrap は原因のエラーを返す。
func (e *RequestValidationError) Unwrap() error {
	return e.Cause
}

// DispatchChunkFailure はチャンク1つの送信自体が失敗したことを表す。
// 他のチャンクの送信は継続する。
type DispatchChunkFailure struct {
	// Index は0始まりのチャンク番号。
	Index int
	// Size はチャンク内のメッセージ数。
	Size int
	// Err は送信時のエラー。
	Err error
}

// Error はerrorインターフェースの実装。
func (e *DispatchChunkFailure) Error() string {
	return fmt.Sprintf("チャンク %d（%d件）の送信に失敗: %v", e.Index, e.Size, e.Err)
}

// Unwrap は送信時のエラーを返す。
func (e *DispatchChunkFailure) Unwrap() error {
	return e.Err
}

// MessageDeliveryError はExpoがメッセージ1件を拒否したことを表す。ログにのみ使う。
type MessageDeliveryError struct {
	// Recipient は通知先のメールアドレス。
	Recipient string
	// Message はExpoが返したエラー内容。
	Message string
	// Detail はエラーコード。
	Detail string
}

// Error はerrorインターフェースの実装。
func (e *MessageDeliveryError) Error() string {
	return fmt.Sprintf("%s への通知が拒否されました: %s, 詳細: %s", e.Recipient, e.Message, e.Detail)
}
