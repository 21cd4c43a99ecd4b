package flow

import (
	"encoding/hex"
	"strings"

	"github.com/SafeMPC/flow-wallet-kit/internal/types"
	"github.com/pkg/errors"
)

// AddressLength Flow 地址字节长度
const AddressLength = 8

// Address Flow 账户地址
type Address [AddressLength]byte

// EmptyAddress 零地址
var EmptyAddress = Address{}

// ParseAddress 解析十六进制地址（可带 0x 前缀，可省略前导零）
func ParseAddress(s string) (Address, error) {
	raw := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	if raw == "" || len(raw) > AddressLength*2 {
		return EmptyAddress, errors.Wrapf(types.ErrInvalidAddress, "address %q", s)
	}
	if len(raw)%2 == 1 {
		raw = "0" + raw
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return EmptyAddress, errors.Wrapf(types.ErrInvalidAddress, "address %q: %v", s, err)
	}
	var addr Address
	copy(addr[AddressLength-len(b):], b)
	return addr, nil
}

// HexToAddress 解析地址，失败时返回零地址
func HexToAddress(s string) Address {
	addr, err := ParseAddress(s)
	if err != nil {
		return EmptyAddress
	}
	return addr
}

// Hex 返回带 0x 前缀的 16 位十六进制编码
func (a Address) Hex() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (a Address) String() string {
	return a.Hex()
}

// IsEmpty 是否为零地址
func (a Address) IsEmpty() bool {
	return a == EmptyAddress
}

// MarshalText 实现 encoding.TextMarshaler
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.Hex()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (a *Address) UnmarshalText(text []byte) error {
	addr, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = addr
	return nil
}
