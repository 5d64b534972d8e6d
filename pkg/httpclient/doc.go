// Package httpclient は外部サービスとのJSON over HTTP通信を行うクライアントを提供する。
//
// Supabase（PostgREST）からのルーム・ユーザー情報の取得と、
// Expo Push APIへの通知送信で共通して使用する。
// 接続先ごとのAPIキーやBearerトークンを固定ヘッダーとして保持し、
// コンテキストに載せたリクエストIDを X-Request-ID ヘッダーで伝播する。
package httpclient
