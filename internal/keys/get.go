package keys

import (
	"context"

	"github.com/SafeMPC/flow-wallet-kit/internal/storage"
	"github.com/SafeMPC/flow-wallet-kit/internal/types"
	"github.com/pkg/errors"
)

type getOptions struct {
	enclave Enclave
}

// GetOption Get 的可选参数
type GetOption func(*getOptions)

// WithEnclave 恢复 HardwareKey 时使用的 Enclave
func WithEnclave(enclave Enclave) GetOption {
	return func(o *getOptions) {
		o.enclave = enclave
	}
}

// Get 从存储读取并解密密钥，按信封中的类型标签恢复对应的密钥
//
// 不存在时返回 ErrEmptyKeychain，口令错误返回 ErrInvalidPassword。
func Get(ctx context.Context, id string, password string, store storage.Storage, opts ...GetOption) (Key, error) {
	if store == nil {
		return nil, errors.Wrap(types.ErrEmptyKeychain, "storage not configured")
	}
	o := getOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	blob, ok, err := store.Get(ctx, storageKey(id))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read key %s", id)
	}
	if !ok {
		return nil, errors.Wrapf(types.ErrEmptyKeychain, "key %s not found", id)
	}

	env, err := parseEnvelope(blob)
	if err != nil {
		return nil, err
	}

	switch env.Type {
	case KeyTypeRaw:
		var p rawKeyPayload
		if err := env.open(password, &p); err != nil {
			return nil, err
		}
		return rawKeyFromPayload(p, store)
	case KeyTypeSeedPhrase:
		var p seedPhrasePayload
		if err := env.open(password, &p); err != nil {
			return nil, err
		}
		return seedPhraseKeyFromPayload(p, store)
	case KeyTypeHardware:
		var p hardwarePayload
		if err := env.open(password, &p); err != nil {
			return nil, err
		}
		return RestoreHardwareKey(p.Label, o.enclave, store)
	default:
		return nil, errors.Wrapf(types.ErrInvalidKeyType, "stored key type %q", env.Type)
	}
}

// GetRawKey 读取 RawKey，类型不符时返回 ErrInvalidKeyType
func GetRawKey(ctx context.Context, id string, password string, store storage.Storage) (*RawKey, error) {
	k, err := Get(ctx, id, password, store)
	if err != nil {
		return nil, err
	}
	raw, ok := k.(*RawKey)
	if !ok {
		return nil, errors.Wrapf(types.ErrInvalidKeyType, "key %s is %s", id, k.Type())
	}
	return raw, nil
}

// GetSeedPhraseKey 读取 SeedPhraseKey，类型不符时返回 ErrInvalidKeyType
func GetSeedPhraseKey(ctx context.Context, id string, password string, store storage.Storage) (*SeedPhraseKey, error) {
	k, err := Get(ctx, id, password, store)
	if err != nil {
		return nil, err
	}
	seed, ok := k.(*SeedPhraseKey)
	if !ok {
		return nil, errors.Wrapf(types.ErrInvalidKeyType, "key %s is %s", id, k.Type())
	}
	return seed, nil
}

// GetHardwareKey 读取 HardwareKey，类型不符时返回 ErrInvalidKeyType
func GetHardwareKey(ctx context.Context, id string, password string, enclave Enclave, store storage.Storage) (*HardwareKey, error) {
	k, err := Get(ctx, id, password, store, WithEnclave(enclave))
	if err != nil {
		return nil, err
	}
	hw, ok := k.(*HardwareKey)
	if !ok {
		return nil, errors.Wrapf(types.ErrInvalidKeyType, "key %s is %s", id, k.Type())
	}
	return hw, nil
}
