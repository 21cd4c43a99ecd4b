package crypto

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	// HardenedOffset BIP-32 硬化索引偏移
	HardenedOffset uint32 = 0x80000000

	// DefaultFlowPath Flow 默认派生路径（coin type 539）
	DefaultFlowPath = "m/44'/539'/0'/0/0"
	// DefaultEthereumPath EVM 默认派生路径（coin type 60）
	DefaultEthereumPath = "m/44'/60'/0'/0/0"
)

// ParseDerivationPath 解析 BIP-32 派生路径
// 例如 "m/44'/539'/0'/0/0" -> [44+H, 539+H, 0+H, 0, 0]
func ParseDerivationPath(path string) ([]uint32, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("empty derivation path")
	}
	parts := strings.Split(path, "/")
	if parts[0] == "m" || parts[0] == "M" {
		parts = parts[1:]
	}

	indices := make([]uint32, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			return nil, errors.Errorf("invalid derivation path: %s", path)
		}

		hardened := false
		if strings.HasSuffix(part, "'") || strings.HasSuffix(part, "h") || strings.HasSuffix(part, "H") {
			hardened = true
			part = part[:len(part)-1]
		}

		val, err := strconv.ParseUint(part, 10, 31)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid path component: %s", part)
		}
		index := uint32(val)
		if hardened {
			index |= HardenedOffset
		}
		indices = append(indices, index)
	}
	return indices, nil
}

// FormatDerivationPath 将索引序列格式化为路径字符串
func FormatDerivationPath(indices []uint32) string {
	var b strings.Builder
	b.WriteString("m")
	for _, index := range indices {
		if index >= HardenedOffset {
			fmt.Fprintf(&b, "/%d'", index-HardenedOffset)
		} else {
			fmt.Fprintf(&b, "/%d", index)
		}
	}
	return b.String()
}

// WithAddressIndex 替换路径最后一级（address index），保持原有的硬化标记
func WithAddressIndex(path string, index uint32) (string, error) {
	indices, err := ParseDerivationPath(path)
	if err != nil {
		return "", err
	}
	if len(indices) == 0 {
		return "", errors.Errorf("derivation path has no components: %s", path)
	}
	if index >= HardenedOffset {
		return "", errors.Errorf("address index out of range: %d", index)
	}
	last := len(indices) - 1
	if indices[last] >= HardenedOffset {
		indices[last] = index | HardenedOffset
	} else {
		indices[last] = index
	}
	return FormatDerivationPath(indices), nil
}
