package service

import (
	"net/url"
	"strconv"
	"time"
)

// ReuseMargin 预签名链接的复用安全余量
// 剩余有效期不足该值时视为过期，避免把一个用到一半就失效的链接交给调用方
const ReuseMargin = 5 * time.Minute

const amzDateLayout = "20060102T150405Z"

// PresignedURLFresh 判断缓存的预签名链接是否仍可复用
// 过期时间由链接 query 中的签名参数（X-Amz-Date + X-Amz-Expires）还原，
// 解析失败一律按过期处理，由调用方重新签发
func PresignedURLFresh(rawURL *string, now time.Time) bool {
	if rawURL == nil || *rawURL == "" {
		return false
	}

	u, err := url.Parse(*rawURL)
	if err != nil {
		return false
	}
	q := u.Query()

	signedAt, err := time.Parse(amzDateLayout, q.Get("X-Amz-Date"))
	if err != nil {
		return false
	}

	expiresSec, err := strconv.Atoi(q.Get("X-Amz-Expires"))
	if err != nil || expiresSec <= 0 {
		return false
	}

	expiry := signedAt.Add(time.Duration(expiresSec) * time.Second)
	return now.Before(expiry.Add(-ReuseMargin))
}
