package keys

import (
	"github.com/pkg/errors"
)

// decodeECPoint 解析 CKA_EC_POINT：DER OCTET STRING 包裹的 0x04 || X || Y，或裸的非压缩点
func decodeECPoint(v []byte) ([]byte, error) {
	switch {
	case len(v) == 67 && v[0] == 0x04 && v[1] == 0x41 && v[2] == 0x04:
		return append([]byte(nil), v[3:]...), nil
	case len(v) == 65 && v[0] == 0x04:
		return append([]byte(nil), v[1:]...), nil
	default:
		return nil, errors.Errorf("unsupported EC point encoding (len=%d)", len(v))
	}
}
