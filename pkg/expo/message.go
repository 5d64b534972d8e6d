package expo

import (
	"regexp"
	"strings"

	"github.com/samber/lo"
)

// PushNotificationChunkSizeLimit はExpo Push APIが1リクエストで受け付けるメッセージ数の上限。
const PushNotificationChunkSizeLimit = 100

// Message はExpo Push APIに送信する1件のプッシュ通知。
type Message struct {
	// To は送信先のプッシュトークン。
	To string `json:"to"`
	// Sound は通知音。"default" または空。
	Sound string `json:"sound,omitempty"`
	// Title は通知のタイトル。
	Title string `json:"title,omitempty"`
	// Body は通知の本文。
	Body string `json:"body,omitempty"`
	// Data はアプリに渡す任意のデータ。
	Data map[string]any `json:"data,omitempty"`
}

// TicketStatus はチケットの受付状態。
type TicketStatus string

const (
	// TicketStatusOK はメッセージが受け付けられたことを表す。
	TicketStatusOK TicketStatus = "ok"
	// TicketStatusError はメッセージが拒否されたことを表す。
	TicketStatusError TicketStatus = "error"
)

// Ticket はメッセージ1件に対するExpoの受付結果。
type Ticket struct {
	// Status は受付状態。
	Status TicketStatus `json:"status"`
	// ID は受付ID（Status が ok の場合のみ）。
	ID string `json:"id,omitempty"`
	// Message はエラー内容（Status が error の場合のみ）。
	Message string `json:"message,omitempty"`
	// Details はエラーの詳細。
	Details *TicketDetails `json:"details,omitempty"`
}

// TicketDetails はエラーチケットの詳細。
type TicketDetails struct {
	// Error は "DeviceNotRegistered" などのエラーコード。
	Error string `json:"error,omitempty"`
}

// DetailCode はチケットのエラーコードを返す。詳細が無ければ空文字列。
func (t Ticket) DetailCode() string {
	if t.Details == nil {
		return ""
	}
	return t.Details.Error
}

// uuidTokenPattern はFCM/APNs経由で発行される素のUUID形式のトークン。
var uuidTokenPattern = regexp.MustCompile(`(?i)^[a-z\d]{8}-[a-z\d]{4}-[a-z\d]{4}-[a-z\d]{4}-[a-z\d]{12}$`)

// IsExpoPushToken はtokenがExpoのプッシュトークン形式かどうかを判定する。
// "ExponentPushToken[...]" / "ExpoPushToken[...]" 形式とUUID形式を受け付ける。
func IsExpoPushToken(token string) bool {
	if (strings.HasPrefix(token, "ExponentPushToken[") || strings.HasPrefix(token, "ExpoPushToken[")) &&
		strings.HasSuffix(token, "]") {
		return true
	}
	return uuidTokenPattern.MatchString(token)
}

// ChunkPushNotifications はメッセージをプロバイダーの上限件数ごとに分割する。
// 元の順序は保たれる。
func ChunkPushNotifications[T any](messages []T) [][]T {
	if len(messages) == 0 {
		return nil
	}
	return lo.Chunk(messages, PushNotificationChunkSizeLimit)
}
