package directory

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ServiceRole はSupabaseのサービスロールを表すroleクレームの値。
const ServiceRole = "service_role"

// KeyRole はSupabaseのAPIキー（JWT）からroleクレームを取り出す。
// 署名は検証しない。キーの取り違え（anonキーの設定など）を起動時に検出する用途に限る。
func KeyRole(key string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(key, claims); err != nil {
		return "", fmt.Errorf("APIキーの解析に失敗: %w", err)
	}
	role, _ := claims["role"].(string)
	return role, nil
}
