package notification

import (
	"strings"

	"github.com/nao1215/roompush/pkg/expo"
)

// Request は通知リクエスト。3項目すべて必須。
type Request struct {
	// RoomID は参加先ルームの識別子。
	RoomID string
	// NewUserID は参加したユーザーの識別子。通知対象から除外する。
	NewUserID string
	// NewUserEmail は参加したユーザーのメールアドレス。本文に埋め込む。
	NewUserEmail string
}

// Recipient は検証済みの通知先。
type Recipient struct {
	// Token は送信先のプッシュトークン。
	Token string
	// Email は通知先のメールアドレス。
	Email string
}

// PushMessage は通知先1件分のメッセージ。生成後は変更しない。
type PushMessage struct {
	// Message はExpoに送る内容。
	Message expo.Message
	// Recipient は通知先のメールアドレス。ログ表示にのみ使い、Expoには送らない。
	Recipient string
}

// DefaultSound は通知音。
const DefaultSound = "default"

// EmailPlaceholder は本文テンプレート内で参加ユーザーのメールアドレスに置き換える文字列。
const EmailPlaceholder = "{email}"

const (
	// DefaultTitle は通知タイトルの既定値。
	DefaultTitle = "참가 알림"
	// DefaultBody は通知本文の既定値。
	DefaultBody = "새 사용자가 방에 참가했습니다: " + EmailPlaceholder
)

// Template は通知のタイトルと本文の雛形。
type Template struct {
	// Title は通知タイトル。
	Title string
	// Body は通知本文。EmailPlaceholder を参加ユーザーのメールアドレスに置き換える。
	Body string
}

// DefaultTemplate は既定の雛形を返す。
func DefaultTemplate() Template {
	return Template{Title: DefaultTitle, Body: DefaultBody}
}

// Render は参加ユーザーのメールアドレスを埋め込んだタイトルと本文を返す。
func (t Template) Render(joiningUserEmail string) (title, body string) {
	return t.Title, strings.ReplaceAll(t.Body, EmailPlaceholder, joiningUserEmail)
}

// DeliveryOutcome はメッセージ1件の送信受付結果。
type DeliveryOutcome struct {
	// Recipient は通知先のメールアドレス。
	Recipient string
	// Token は送信先のプッシュトークン。
	Token string
	// Status はExpoの受付状態。
	Status expo.TicketStatus
	// TicketID は受付ID。
	TicketID string
	// Message はエラー内容。
	Message string
	// Detail は "DeviceNotRegistered" などのエラーコード。
	Detail string
}

// Err は拒否されたメッセージの場合に *MessageDeliveryError を返す。受け付けられた場合はnil。
func (o DeliveryOutcome) Err() error {
	if o.Status != expo.TicketStatusError {
		return nil
	}
	return &MessageDeliveryError{Recipient: o.Recipient, Message: o.Message, Detail: o.Detail}
}

// ChunkResult はチャンク1つの送信結果。
// Err が非nilの場合、そのチャンクは送信できておらず Outcomes は空。
type ChunkResult struct {
	// Index は0始まりのチャンク番号。
	Index int
	// Outcomes はメッセージごとの受付結果。
	Outcomes []DeliveryOutcome
	// Err はチャンク送信自体の失敗（*DispatchChunkFailure）。
	Err error
}

// Summary はパイプライン1回分の集計。
type Summary struct {
	// Recipients は送信対象になった通知先の数。
	Recipients int
	// Chunks は送信を試みたチャンクの数。
	Chunks int
	// FailedChunks は送信に失敗したチャンクの数。
	FailedChunks int
	// Accepted はExpoが受け付けたメッセージの数。
	Accepted int
	// Rejected はExpoが拒否したメッセージの数。
	Rejected int
}

// summarize はチャンクごとの結果を集計する。
func summarize(recipients int, results []ChunkResult) Summary {
	summary := Summary{Recipients: recipients, Chunks: len(results)}
	for _, r := range results {
		if r.Err != nil {
			summary.FailedChunks++
			continue
		}
		for _, o := range r.Outcomes {
			if o.Status == expo.TicketStatusOK {
				summary.Accepted++
			} else {
				summary.Rejected++
			}
		}
	}
	return summary
}
