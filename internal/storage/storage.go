// Package storage 定义密钥与缓存使用的键值存储协议及其后端实现。
//
// 所有后端保证：同一 key 上 Set 之后的 Get（中间没有 Remove）返回逐字节相同的数据，
// 并且并发读写同一 key 时读方不会看到写了一半的值。
package storage

import (
	"context"
	"sort"
	"strings"
)

// SecurityLevel 存储后端的安全等级
type SecurityLevel int

const (
	// SecurityLevelInMemory 仅驻留进程内存
	SecurityLevelInMemory SecurityLevel = iota
	// SecurityLevelStandard 持久化存储（可加密）
	SecurityLevelStandard
	// SecurityLevelHardware 由硬件保护的存储
	SecurityLevelHardware
)

func (l SecurityLevel) String() string {
	switch l {
	case SecurityLevelInMemory:
		return "in_memory"
	case SecurityLevelStandard:
		return "standard"
	case SecurityLevelHardware:
		return "hardware"
	default:
		return "unknown"
	}
}

// Storage 键值存储协议
type Storage interface {
	// SecurityLevel 返回后端的安全等级
	SecurityLevel() SecurityLevel
	// Get 读取 key，不存在时 ok 为 false
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Set 写入 key
	Set(ctx context.Context, key string, value []byte) error
	// Remove 删除 key，不存在时不报错
	Remove(ctx context.Context, key string) error
	// RemoveAll 清空存储
	RemoveAll(ctx context.Context) error
	// FindKey 返回包含 substring 的全部 key
	FindKey(ctx context.Context, substring string) ([]string, error)
	// AllKeys 返回全部 key
	AllKeys(ctx context.Context) ([]string, error)
}

func filterKeys(keys []string, substring string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if strings.Contains(k, substring) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
