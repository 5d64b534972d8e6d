package expo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nao1215/roompush/pkg/httpclient"
)

// DefaultBaseURL はExpo Push APIの既定のベースURL。
const DefaultBaseURL = "https://exp.host"

// sendPath はプッシュ通知送信エンドポイントのパス。
const sendPath = "/--/api/v2/push/send"

// ErrTicketCountMismatch は送信したメッセージ数と返却されたチケット数が一致しないことを表す。
var ErrTicketCountMismatch = errors.New("チケット数がメッセージ数と一致しません")

// Client はExpo Push APIのクライアント。
type Client struct {
	http *httpclient.Client
}

// NewClient は新しいExpo Push APIクライアントを生成する。
// baseURLが空の場合は DefaultBaseURL を使用する。accessTokenは任意。
func NewClient(baseURL, accessToken string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http: httpclient.New(
			strings.TrimSuffix(baseURL, "/"),
			httpclient.WithBearerToken(accessToken),
		),
	}
}

// sendResponse はプッシュ通知送信APIのレスポンス構造。
type sendResponse struct {
	Data   []Ticket       `json:"data"`
	Errors []requestError `json:"errors,omitempty"`
}

// requestError はリクエスト全体に対するエラー。
type requestError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SendPushNotifications は1チャンク分のメッセージを送信し、メッセージごとのチケットを返す。
// チケットは messages と同じ順序で並ぶ。
// messagesの件数は PushNotificationChunkSizeLimit 以下である必要がある。
func (c *Client) SendPushNotifications(ctx context.Context, messages []Message) ([]Ticket, error) {
	if len(messages) > PushNotificationChunkSizeLimit {
		return nil, fmt.Errorf("メッセージ数 %d が上限 %d を超えています", len(messages), PushNotificationChunkSizeLimit)
	}

	var resp sendResponse
	if err := c.http.PostJSON(ctx, sendPath, messages, &resp); err != nil {
		return nil, fmt.Errorf("プッシュ通知の送信に失敗: %w", err)
	}

	if len(resp.Errors) > 0 {
		first := resp.Errors[0]
		return nil, fmt.Errorf("Expoがリクエストを拒否しました: %s: %s", first.Code, first.Message)
	}

	if len(resp.Data) != len(messages) {
		return nil, fmt.Errorf("%w: messages=%d, tickets=%d", ErrTicketCountMismatch, len(messages), len(resp.Data))
	}
	return resp.Data, nil
}
