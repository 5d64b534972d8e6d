// Package notification はルーム参加時のプッシュ通知リレーを提供する。
//
// POST /send-notification を受けると、ルームの他の参加者を求め（Resolver）、
// 各参加者のプッシュトークンを検証・重複排除し（Materializer）、
// Expoの上限件数ごとに分割して順番に送信する（Dispatcher）。
// 各段は前の段の完了を待ってから実行され、後段から前段を呼び出すことはない。
//
// 取得失敗はパイプライン全体を中断して500を返すが、
// 送信段の失敗（チャンク単位・メッセージ単位）はログに記録するだけで200を返す。
package notification
