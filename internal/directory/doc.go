// Package directory はルームとユーザーを保持する外部データストアへの読み取り専用アクセスを提供する。
//
// rooms(id, users) と users(user_id, expo_push_token, email) の2テーブルだけを参照する。
// 外部スキーマの応答は取得直後に RoomRecord / UserTokenRecord へ変換し、
// 通知パイプラインがデータストアの形式に依存しないようにする。
//
// 接続先は3種類ある。
//   - supabase: Supabase の REST API（PostgREST）
//   - postgres: Postgres への直接接続（pgxpool）
//   - sqlite:   ローカル開発・テスト用の SQLite ファイル
package directory
