// Package id 提供基于 ULID 的唯一标识生成。
package id

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewULID 生成一个新的 ULID 字符串。
// 同一毫秒内生成的 ID 单调递增，适合作为请求 ID 与记录 ID。
func NewULID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
