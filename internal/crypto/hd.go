package crypto

import (
	"crypto/ecdh"
	"crypto/elliptic"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"math/big"

	"github.com/SafeMPC/flow-wallet-kit/internal/types"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/pkg/errors"
)

const nist256p1Seed = "Nist256p1 seed"

// DerivePrivateKey 按曲线从 BIP-39 种子派生私钥标量
//
// secp256k1 走 BIP-32（hdkeychain），P-256 走 SLIP-10 nist256p1。
func DerivePrivateKey(algo SigningAlgorithm, seed []byte, path string) ([]byte, error) {
	indices, err := ParseDerivationPath(path)
	if err != nil {
		return nil, err
	}

	switch algo {
	case ECDSASecp256k1:
		return deriveSecp256k1(seed, indices)
	case ECDSAP256:
		return deriveNist256p1(seed, indices)
	default:
		return nil, errors.Wrapf(types.ErrInvalidSignatureAlgorithm, "signing algorithm %s", algo)
	}
}

func deriveSecp256k1(seed []byte, indices []uint32) ([]byte, error) {
	key, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create master key")
	}
	for _, index := range indices {
		key, err = key.Derive(index)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to derive child %d", index)
		}
	}
	priv, err := key.ECPrivKey()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get private key")
	}
	return priv.Serialize(), nil
}

func deriveNist256p1(seed []byte, indices []uint32) ([]byte, error) {
	n := elliptic.P256().Params().N

	// 主密钥：IL 不合法时以 I 作为新种子重算
	data := seed
	var k, chainCode []byte
	for {
		I := hmacSHA512([]byte(nist256p1Seed), data)
		il := new(big.Int).SetBytes(I[:32])
		if il.Sign() != 0 && il.Cmp(n) < 0 {
			k, chainCode = I[:32], I[32:]
			break
		}
		data = I
	}

	for _, index := range indices {
		var err error
		k, chainCode, err = nist256p1Child(k, chainCode, index)
		if err != nil {
			return nil, err
		}
	}
	return k, nil
}

func nist256p1Child(k, chainCode []byte, index uint32) ([]byte, []byte, error) {
	n := elliptic.P256().Params().N

	var data []byte
	if index >= HardenedOffset {
		data = append([]byte{0x00}, k...)
	} else {
		priv, err := ecdh.P256().NewPrivateKey(k)
		if err != nil {
			return nil, nil, errors.Wrap(err, "invalid parent key")
		}
		pub := priv.PublicKey().Bytes()
		x := new(big.Int).SetBytes(pub[1:33])
		y := new(big.Int).SetBytes(pub[33:])
		data = elliptic.MarshalCompressed(elliptic.P256(), x, y)
	}
	data = appendIndex(data, index)

	parent := new(big.Int).SetBytes(k)
	for {
		I := hmacSHA512(chainCode, data)
		il := new(big.Int).SetBytes(I[:32])
		if il.Cmp(n) < 0 {
			child := il.Add(il, parent)
			child.Mod(child, n)
			if child.Sign() != 0 {
				return child.FillBytes(make([]byte, 32)), I[32:], nil
			}
		}
		data = appendIndex(append([]byte{0x01}, I[32:]...), index)
	}
}

func appendIndex(data []byte, index uint32) []byte {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], index)
	return append(data, buf[:]...)
}

func hmacSHA512(key, data []byte) []byte {
	mac := hmac.New(sha512.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}
