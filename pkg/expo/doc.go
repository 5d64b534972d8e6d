// Package expo はExpo Push APIとの連携を提供する。
//
// プッシュトークンの形式検証、プロバイダーの上限に合わせたメッセージの分割、
// チャンク単位の一括送信とチケット（送信受付結果）の受け取りを行う。
// Client は状態を持たないため、プロセス全体で1つを共有してよい。
package expo
