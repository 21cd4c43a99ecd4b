//go:build cgo

package keys

import (
	"sync"

	"github.com/SafeMPC/flow-wallet-kit/internal/storage"
	"github.com/google/uuid"
	"github.com/miekg/pkcs11"
	"github.com/pkg/errors"
)

// prime256v1 曲线 OID 的 DER 编码
var p256ECParams = []byte{0x06, 0x08, 0x2a, 0x86, 0x48, 0xce, 0x3d, 0x03, 0x01, 0x07}

// PKCS11Enclave 通过 PKCS#11 访问 HSM / 安全令牌
type PKCS11Enclave struct {
	mu      sync.Mutex
	ctx     *pkcs11.Ctx
	session pkcs11.SessionHandle
}

var _ Enclave = (*PKCS11Enclave)(nil)

// NewPKCS11Enclave 加载模块、打开会话并登录
func NewPKCS11Enclave(cfg PKCS11Config) (*PKCS11Enclave, error) {
	if cfg.Library == "" {
		return nil, errors.New("pkcs11 library path is required")
	}
	ctx := pkcs11.New(cfg.Library)
	if ctx == nil {
		return nil, errors.Errorf("failed to load pkcs11 library %s", cfg.Library)
	}
	if err := ctx.Initialize(); err != nil {
		ctx.Destroy()
		return nil, errors.Wrap(err, "failed to initialize pkcs11")
	}

	slots, err := ctx.GetSlotList(true)
	if err != nil {
		ctx.Finalize()
		ctx.Destroy()
		return nil, errors.Wrap(err, "failed to list pkcs11 slots")
	}
	if cfg.SlotIndex < 0 || cfg.SlotIndex >= len(slots) {
		ctx.Finalize()
		ctx.Destroy()
		return nil, errors.Errorf("pkcs11 slot index %d out of range (%d slots)", cfg.SlotIndex, len(slots))
	}

	session, err := ctx.OpenSession(slots[cfg.SlotIndex], pkcs11.CKF_SERIAL_SESSION|pkcs11.CKF_RW_SESSION)
	if err != nil {
		ctx.Finalize()
		ctx.Destroy()
		return nil, errors.Wrap(err, "failed to open pkcs11 session")
	}
	if cfg.PIN != "" {
		if err := ctx.Login(session, pkcs11.CKU_USER, cfg.PIN); err != nil {
			if perr, ok := err.(pkcs11.Error); !ok || perr != pkcs11.CKR_USER_ALREADY_LOGGED_IN {
				ctx.CloseSession(session)
				ctx.Finalize()
				ctx.Destroy()
				return nil, errors.Wrap(err, "failed to login to pkcs11 token")
			}
		}
	}

	return &PKCS11Enclave{ctx: ctx, session: session}, nil
}

// Close 登出并释放模块
func (e *PKCS11Enclave) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	_ = e.ctx.Logout(e.session)
	_ = e.ctx.CloseSession(e.session)
	err := e.ctx.Finalize()
	e.ctx.Destroy()
	return err
}

func (e *PKCS11Enclave) GenerateKey() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	label := uuid.NewString()
	publicTemplate := []*pkcs11.Attribute{
		pkcs11.NewAttribute(pkcs11.CKA_CLASS, pkcs11.CKO_PUBLIC_KEY),
		pkcs11.NewAttribute(pkcs11.CKA_KEY_TYPE, pkcs11.CKK_EC),
		pkcs11.NewAttribute(pkcs11.CKA_TOKEN, true),
		pkcs11.NewAttribute(pkcs11.CKA_VERIFY, true),
		pkcs11.NewAttribute(pkcs11.CKA_EC_PARAMS, p256ECParams),
		pkcs11.NewAttribute(pkcs11.CKA_LABEL, label),
	}
	privateTemplate := []*pkcs11.Attribute{
		pkcs11.NewAttribute(pkcs11.CKA_CLASS, pkcs11.CKO_PRIVATE_KEY),
		pkcs11.NewAttribute(pkcs11.CKA_KEY_TYPE, pkcs11.CKK_EC),
		pkcs11.NewAttribute(pkcs11.CKA_TOKEN, true),
		pkcs11.NewAttribute(pkcs11.CKA_PRIVATE, true),
		pkcs11.NewAttribute(pkcs11.CKA_SIGN, true),
		pkcs11.NewAttribute(pkcs11.CKA_SENSITIVE, true),
		pkcs11.NewAttribute(pkcs11.CKA_EXTRACTABLE, false),
		pkcs11.NewAttribute(pkcs11.CKA_LABEL, label),
	}
	mech := []*pkcs11.Mechanism{pkcs11.NewMechanism(pkcs11.CKM_EC_KEY_PAIR_GEN, nil)}

	if _, _, err := e.ctx.GenerateKeyPair(e.session, mech, publicTemplate, privateTemplate); err != nil {
		return "", errors.Wrap(err, "failed to generate pkcs11 key pair")
	}
	return label, nil
}

func (e *PKCS11Enclave) PublicKey(label string) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	handle, err := e.findObject(pkcs11.CKO_PUBLIC_KEY, label)
	if err != nil {
		return nil, err
	}
	attrs, err := e.ctx.GetAttributeValue(e.session, handle, []*pkcs11.Attribute{
		pkcs11.NewAttribute(pkcs11.CKA_EC_POINT, nil),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to read CKA_EC_POINT")
	}
	if len(attrs) == 0 {
		return nil, errors.New("CKA_EC_POINT missing")
	}
	return decodeECPoint(attrs[0].Value)
}

func (e *PKCS11Enclave) SignDigest(label string, digest []byte) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	handle, err := e.findObject(pkcs11.CKO_PRIVATE_KEY, label)
	if err != nil {
		return nil, err
	}
	mech := []*pkcs11.Mechanism{pkcs11.NewMechanism(pkcs11.CKM_ECDSA, nil)}
	if err := e.ctx.SignInit(e.session, mech, handle); err != nil {
		return nil, errors.Wrap(err, "pkcs11 SignInit failed")
	}
	sig, err := e.ctx.Sign(e.session, digest)
	if err != nil {
		return nil, errors.Wrap(err, "pkcs11 Sign failed")
	}
	if len(sig) != 64 {
		return nil, errors.Errorf("unexpected pkcs11 signature length %d", len(sig))
	}
	return sig, nil
}

func (e *PKCS11Enclave) DeleteKey(label string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, class := range []uint{pkcs11.CKO_PRIVATE_KEY, pkcs11.CKO_PUBLIC_KEY} {
		handle, err := e.findObject(class, label)
		if err != nil {
			continue
		}
		if err := e.ctx.DestroyObject(e.session, handle); err != nil {
			return errors.Wrap(err, "failed to destroy pkcs11 object")
		}
	}
	return nil
}

func (e *PKCS11Enclave) SecurityLevel() storage.SecurityLevel {
	return storage.SecurityLevelHardware
}

func (e *PKCS11Enclave) findObject(class uint, label string) (pkcs11.ObjectHandle, error) {
	template := []*pkcs11.Attribute{
		pkcs11.NewAttribute(pkcs11.CKA_CLASS, class),
		pkcs11.NewAttribute(pkcs11.CKA_LABEL, label),
	}
	if err := e.ctx.FindObjectsInit(e.session, template); err != nil {
		return 0, errors.Wrap(err, "pkcs11 FindObjectsInit failed")
	}
	defer e.ctx.FindObjectsFinal(e.session)

	handles, _, err := e.ctx.FindObjects(e.session, 1)
	if err != nil {
		return 0, errors.Wrap(err, "pkcs11 FindObjects failed")
	}
	if len(handles) == 0 {
		return 0, errors.Errorf("pkcs11 key %s not found", label)
	}
	return handles[0], nil
}
