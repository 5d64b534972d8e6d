// Package middleware は通知リレーのHTTP APIで使用する共通Ginミドルウェアを提供する。
//
// パニックリカバリ、リクエストIDの採番と伝播、Prometheus向けのRED指標、
// CORS設定を含む。
package middleware
