package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// BuildPolyHmacSignature 构建 L2 请求的 HMAC-SHA256 签名。
// 消息为 timestamp + method + requestPath + body，secret 是 base64url 编码。
func BuildPolyHmacSignature(
	secret string,
	timestamp int64,
	method string,
	requestPath string,
	body *string,
) (string, error) {
	message := strconv.FormatInt(timestamp, 10) + method + requestPath
	if body != nil {
		message += *body
	}

	// secret 可能是 base64url 格式，转回标准 base64
	sanitizedSecret := strings.ReplaceAll(secret, "-", "+")
	sanitizedSecret = strings.ReplaceAll(sanitizedSecret, "_", "/")

	keyData, err := base64.StdEncoding.DecodeString(sanitizedSecret)
	if err != nil {
		return "", fmt.Errorf("解码 secret 失败: %w", err)
	}

	mac := hmac.New(sha256.New, keyData)
	mac.Write([]byte(message))
	signature := mac.Sum(nil)

	sigBase64 := base64.StdEncoding.EncodeToString(signature)

	// 转换为 URL 安全的 base64（保留 = 后缀）
	sigURLSafe := strings.ReplaceAll(sigBase64, "+", "-")
	sigURLSafe = strings.ReplaceAll(sigURLSafe, "/", "_")

	return sigURLSafe, nil
}
