package wallet_test

import (
	"context"
	"encoding/hex"
	"sync"
	"testing"
	"time"

	"github.com/SafeMPC/flow-wallet-kit/internal/account"
	"github.com/SafeMPC/flow-wallet-kit/internal/crypto"
	"github.com/SafeMPC/flow-wallet-kit/internal/flow"
	"github.com/SafeMPC/flow-wallet-kit/internal/indexer"
	"github.com/SafeMPC/flow-wallet-kit/internal/keys"
	"github.com/SafeMPC/flow-wallet-kit/internal/storage"
	"github.com/SafeMPC/flow-wallet-kit/internal/test"
	"github.com/SafeMPC/flow-wallet-kit/internal/types"
	"github.com/SafeMPC/flow-wallet-kit/internal/wallet"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFinder struct {
	mu       sync.Mutex
	accounts map[flow.ChainID]map[string][]flow.Account
	failing  map[flow.ChainID]bool
	block    chan struct{}
}

func newFakeFinder() *fakeFinder {
	return &fakeFinder{
		accounts: make(map[flow.ChainID]map[string][]flow.Account),
		failing:  make(map[flow.ChainID]bool),
	}
}

func (f *fakeFinder) add(chain flow.ChainID, publicKey []byte, accounts ...flow.Account) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.accounts[chain] == nil {
		f.accounts[chain] = make(map[string][]flow.Account)
	}
	pub := hex.EncodeToString(publicKey)
	f.accounts[chain][pub] = append(f.accounts[chain][pub], accounts...)
}

func (f *fakeFinder) FindFlowAccounts(ctx context.Context, publicKeyHex string, chain flow.ChainID) ([]flow.Account, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing[chain] {
		return nil, errors.Wrap(types.ErrKeyIndexerRequestFailed, "unexpected status 503")
	}
	return append([]flow.Account(nil), f.accounts[chain][publicKeyHex]...), nil
}

type fakeLookup struct {
	accounts map[flow.ChainID]flow.Account
}

func (l *fakeLookup) GetAccount(_ context.Context, chain flow.ChainID, address flow.Address) (*flow.Account, error) {
	a, ok := l.accounts[chain]
	if !ok || a.Address != address {
		return nil, errors.Wrap(types.ErrAccessRequestFailed, "account not found")
	}
	return &a, nil
}

func fullKey(index uint32, pub []byte, algo crypto.SigningAlgorithm) flow.AccountPublicKey {
	return flow.AccountPublicKey{Index: index, PublicKey: pub, SigAlgo: algo, HashAlgo: crypto.SHA3_256, Weight: 1000}
}

func newKey(t *testing.T) *keys.RawKey {
	t.Helper()
	key, err := keys.CreateRawKey(nil)
	require.NoError(t, err)
	return key
}

func TestKeyWalletFetchAccountsForNetworkMergesAlgorithms(t *testing.T) {
	key := newKey(t)
	p256 := key.PublicKey(crypto.ECDSAP256)
	secp := key.PublicKey(crypto.ECDSASecp256k1)

	finder := newFakeFinder()
	finder.add(flow.Testnet, p256, flow.Account{Address: flow.HexToAddress("0x01"), Keys: []flow.AccountPublicKey{fullKey(0, p256, crypto.ECDSAP256)}})
	finder.add(flow.Testnet, secp,
		flow.Account{Address: flow.HexToAddress("0x01"), Keys: []flow.AccountPublicKey{fullKey(1, secp, crypto.ECDSASecp256k1)}},
		flow.Account{Address: flow.HexToAddress("0x02"), Keys: []flow.AccountPublicKey{fullKey(0, secp, crypto.ECDSASecp256k1)}},
	)

	w, err := wallet.NewKeyWallet(key, []flow.ChainID{flow.Testnet}, finder)
	require.NoError(t, err)

	accounts, err := w.FetchAccountsForNetwork(t.Context(), flow.Testnet)
	require.NoError(t, err)
	require.Len(t, accounts, 2)

	assert.Equal(t, flow.HexToAddress("0x01"), accounts[0].Address)
	assert.Len(t, accounts[0].Keys, 2)
	assert.Equal(t, flow.HexToAddress("0x02"), accounts[1].Address)
	assert.Len(t, accounts[1].Keys, 1)
}

func TestKeyWalletRequiresKey(t *testing.T) {
	_, err := wallet.NewKeyWallet(nil, []flow.ChainID{flow.Testnet}, newFakeFinder())
	assert.True(t, errors.Is(err, types.ErrEmptyKey))
}

func TestFetchAllNetworkAccountsIsolatesFailures(t *testing.T) {
	key := newKey(t)
	p256 := key.PublicKey(crypto.ECDSAP256)

	finder := newFakeFinder()
	finder.add(flow.Testnet, p256, flow.Account{Address: flow.HexToAddress("0x01"), Keys: []flow.AccountPublicKey{fullKey(0, p256, crypto.ECDSAP256)}})
	finder.add(flow.Mainnet, p256, flow.Account{Address: flow.HexToAddress("0x02"), Keys: []flow.AccountPublicKey{fullKey(0, p256, crypto.ECDSAP256)}})
	finder.failing[flow.Mainnet] = true

	w, err := wallet.NewKeyWallet(key, []flow.ChainID{flow.Mainnet, flow.Testnet}, finder)
	require.NoError(t, err)

	snap, err := w.FetchAllNetworkAccounts(t.Context())
	require.NoError(t, err)

	require.Contains(t, snap, flow.Mainnet)
	assert.NotNil(t, snap[flow.Mainnet])
	assert.Empty(t, snap[flow.Mainnet])

	require.Len(t, snap[flow.Testnet], 1)
	assert.Equal(t, flow.HexToAddress("0x01"), snap[flow.Testnet][0].Address())
	assert.Same(t, key, snap[flow.Testnet][0].Key())

	published := w.Accounts()
	assert.Len(t, published[flow.Testnet], 1)
	assert.Empty(t, published[flow.Mainnet])
	assert.False(t, w.IsLoading())
}

func TestRefreshAccountsIsLoading(t *testing.T) {
	key := newKey(t)
	finder := newFakeFinder()
	finder.block = make(chan struct{})

	w, err := wallet.NewKeyWallet(key, []flow.ChainID{flow.Testnet}, finder)
	require.NoError(t, err)

	done := make(chan error)
	go func() {
		done <- w.RefreshAccounts(t.Context())
	}()

	require.Eventually(t, w.IsLoading, 5*time.Second, 10*time.Millisecond)
	close(finder.block)
	require.NoError(t, <-done)
	assert.False(t, w.IsLoading())
}

// blockingStorage 在 Set 上阻塞直到 release 关闭
type blockingStorage struct {
	*storage.MemoryStorage
	entered chan struct{}
	release chan struct{}
}

func (s *blockingStorage) Set(ctx context.Context, key string, value []byte) error {
	close(s.entered)
	<-s.release
	return s.MemoryStorage.Set(ctx, key, value)
}

func TestRefreshAccountsIsLoadingUntilCached(t *testing.T) {
	key := newKey(t)
	p256 := key.PublicKey(crypto.ECDSAP256)
	finder := newFakeFinder()
	finder.add(flow.Testnet, p256, flow.Account{Address: flow.HexToAddress("0x01"), Keys: []flow.AccountPublicKey{fullKey(0, p256, crypto.ECDSAP256)}})

	store := &blockingStorage{
		MemoryStorage: storage.NewMemoryStorage(),
		entered:       make(chan struct{}),
		release:       make(chan struct{}),
	}

	w, err := wallet.NewKeyWallet(key, []flow.ChainID{flow.Testnet}, finder, wallet.WithStorage(store))
	require.NoError(t, err)

	done := make(chan error)
	go func() {
		done <- w.RefreshAccounts(t.Context())
	}()

	select {
	case <-store.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("wallet cache was not written")
	}
	assert.True(t, w.IsLoading())
	assert.Len(t, w.Accounts()[flow.Testnet], 1)

	close(store.release)
	require.NoError(t, <-done)
	assert.False(t, w.IsLoading())

	_, ok, err := store.Get(t.Context(), w.CacheID())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFetchAllNetworkAccountsCancelled(t *testing.T) {
	key := newKey(t)
	finder := newFakeFinder()
	finder.block = make(chan struct{})

	w, err := wallet.NewKeyWallet(key, []flow.ChainID{flow.Testnet}, finder)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err = w.FetchAllNetworkAccounts(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, w.Accounts())
}

func TestKeyWalletAddAccount(t *testing.T) {
	key := newKey(t)
	other := newKey(t)

	w, err := wallet.NewKeyWallet(key, []flow.ChainID{flow.Testnet}, newFakeFinder())
	require.NoError(t, err)

	foreign := account.New(flow.Account{Address: flow.HexToAddress("0x03")}, flow.Testnet, other)
	err = w.AddAccount(foreign)
	assert.True(t, errors.Is(err, types.ErrInvalidWalletType))
	_, ok := w.Account(flow.HexToAddress("0x03"))
	assert.False(t, ok)

	watchOnly := account.New(flow.Account{Address: flow.HexToAddress("0x04")}, flow.Testnet, nil)
	assert.True(t, errors.Is(w.AddAccount(watchOnly), types.ErrInvalidWalletType))

	own := account.New(flow.Account{Address: flow.HexToAddress("0x05")}, flow.Mainnet, key)
	require.NoError(t, w.AddAccount(own))

	found, ok := w.Account(flow.HexToAddress("0x05"))
	require.True(t, ok)
	assert.Same(t, own, found)
	assert.Contains(t, w.Networks(), flow.Mainnet)
}

func TestWatchWallet(t *testing.T) {
	addr := flow.HexToAddress("0x84221fe0294044d7")
	lookup := &fakeLookup{accounts: map[flow.ChainID]flow.Account{
		flow.Mainnet: {Address: addr, Balance: 42},
	}}

	w, err := wallet.NewWatchWallet(addr, []flow.ChainID{flow.Mainnet, flow.Testnet}, lookup)
	require.NoError(t, err)
	assert.Nil(t, w.GetKeyForAccount())
	assert.Equal(t, wallet.TypeWatch, w.Type())

	require.NoError(t, w.RefreshAccounts(t.Context()))

	snap := w.Accounts()
	require.Len(t, snap[flow.Mainnet], 1)
	assert.Equal(t, uint64(42), snap[flow.Mainnet][0].FlowAccount().Balance)
	assert.False(t, snap[flow.Mainnet][0].CanSign())
	assert.Empty(t, snap[flow.Testnet])

	signing := account.New(flow.Account{Address: addr}, flow.Testnet, newKey(t))
	assert.True(t, errors.Is(w.AddAccount(signing), types.ErrInvalidWalletType))

	require.NoError(t, w.AddAccount(account.New(flow.Account{Address: addr}, flow.Testnet, nil)))
	assert.Len(t, w.Accounts()[flow.Testnet], 1)

	_, err = wallet.NewWatchWallet(flow.EmptyAddress, nil, lookup)
	assert.True(t, errors.Is(err, types.ErrInvalidAddress))
}

func TestAddRemoveNetwork(t *testing.T) {
	addr := flow.HexToAddress("0x01")
	lookup := &fakeLookup{accounts: map[flow.ChainID]flow.Account{flow.Testnet: {Address: addr}}}

	w, err := wallet.NewWatchWallet(addr, []flow.ChainID{flow.Testnet, flow.Testnet}, lookup)
	require.NoError(t, err)
	assert.Equal(t, []flow.ChainID{flow.Testnet}, w.Networks())

	assert.True(t, w.AddNetwork(flow.Mainnet))
	assert.False(t, w.AddNetwork(flow.Mainnet))
	assert.Equal(t, []flow.ChainID{flow.Testnet, flow.Mainnet}, w.Networks())

	require.NoError(t, w.RefreshAccounts(t.Context()))
	require.Len(t, w.Accounts()[flow.Testnet], 1)

	assert.True(t, w.RemoveNetwork(flow.Testnet))
	assert.False(t, w.RemoveNetwork(flow.Testnet))
	assert.Equal(t, []flow.ChainID{flow.Mainnet}, w.Networks())
	assert.NotContains(t, w.Accounts(), flow.Testnet)
	_, ok := w.Account(addr)
	assert.False(t, ok)
}

func TestSubscribe(t *testing.T) {
	addr := flow.HexToAddress("0x01")
	lookup := &fakeLookup{accounts: map[flow.ChainID]flow.Account{flow.Testnet: {Address: addr}}}

	w, err := wallet.NewWatchWallet(addr, []flow.ChainID{flow.Testnet}, lookup)
	require.NoError(t, err)

	updates, cancel := w.Subscribe()
	defer cancel()

	_, err = w.FetchAllNetworkAccounts(t.Context())
	require.NoError(t, err)

	select {
	case snap := <-updates:
		require.Len(t, snap[flow.Testnet], 1)
		assert.Equal(t, addr, snap[flow.Testnet][0].Address())
	case <-time.After(5 * time.Second):
		t.Fatal("no snapshot published")
	}

	cancel()
	_, open := <-updates
	assert.False(t, open)
}

func TestWalletCache(t *testing.T) {
	key := newKey(t)
	p256 := key.PublicKey(crypto.ECDSAP256)
	store := storage.NewMemoryStorage()

	finder := newFakeFinder()
	finder.add(flow.Testnet, p256, flow.Account{Address: flow.HexToAddress("0x01"), Balance: 7, Keys: []flow.AccountPublicKey{fullKey(0, p256, crypto.ECDSAP256)}})

	w, err := wallet.NewKeyWallet(key, []flow.ChainID{flow.Testnet}, finder, wallet.WithStorage(store))
	require.NoError(t, err)
	assert.Equal(t, "key-"+key.ID(), w.TypeID())
	assert.Equal(t, "Wallets-key-"+key.ID(), w.CacheID())

	assert.True(t, errors.Is(w.LoadCache(t.Context()), types.ErrLoadCacheFailed))

	require.NoError(t, w.RefreshAccounts(t.Context()))

	restored, err := wallet.NewKeyWallet(key, []flow.ChainID{flow.Testnet}, newFakeFinder(), wallet.WithStorage(store))
	require.NoError(t, err)
	require.NoError(t, restored.LoadCache(t.Context()))

	found, ok := restored.Account(flow.HexToAddress("0x01"))
	require.True(t, ok)
	assert.Equal(t, uint64(7), found.FlowAccount().Balance)
	assert.Equal(t, p256, found.FlowAccount().Keys[0].PublicKey)
	assert.Len(t, found.FindKeyInAccount(), 1)

	require.NoError(t, store.Set(t.Context(), w.CacheID(), []byte("not json")))
	assert.True(t, errors.Is(restored.LoadCache(t.Context()), types.ErrLoadCacheFailed))
}

type countingProvider struct {
	mu    sync.Mutex
	calls int
}

func (p *countingProvider) ChildMetadata(context.Context, flow.ChainID, flow.Address) (map[flow.Address]flow.ChildMetadata, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return map[flow.Address]flow.ChildMetadata{flow.HexToAddress("0x99"): {Name: "child"}}, nil
}

func (p *countingProvider) EVMAddress(context.Context, flow.ChainID, flow.Address) (string, error) {
	return "", nil
}

func TestWalletLoadLinkedAccounts(t *testing.T) {
	key := newKey(t)
	p256 := key.PublicKey(crypto.ECDSAP256)

	finder := newFakeFinder()
	finder.add(flow.Testnet, p256,
		flow.Account{Address: flow.HexToAddress("0x01"), Keys: []flow.AccountPublicKey{fullKey(0, p256, crypto.ECDSAP256)}},
		flow.Account{Address: flow.HexToAddress("0x02"), Keys: []flow.AccountPublicKey{fullKey(0, p256, crypto.ECDSAP256)}},
	)
	provider := &countingProvider{}

	w, err := wallet.NewKeyWallet(key, []flow.ChainID{flow.Testnet}, finder,
		wallet.WithLinkedAccountProvider(provider), wallet.WithStorage(storage.NewMemoryStorage()))
	require.NoError(t, err)
	require.NoError(t, w.RefreshAccounts(t.Context()))

	w.LoadLinkedAccounts(t.Context())
	assert.Equal(t, 2, provider.calls)

	for _, a := range w.Accounts()[flow.Testnet] {
		require.Len(t, a.Children(), 1)
		assert.Equal(t, a.Address(), a.Children()[0].Parent)
	}
}

func TestKeyWalletWithIndexer(t *testing.T) {
	key := newKey(t)
	p256 := hex.EncodeToString(key.PublicKey(crypto.ECDSAP256))

	fake := test.NewFakeIndexer(t)
	fake.AddRows(p256,
		indexer.AccountRow{Address: "0x0000000000000001", KeyID: 0, Weight: 1000, SigAlgo: 2, HashAlgo: 3},
		indexer.AccountRow{Address: "0x0000000000000001", KeyID: 1, Weight: 500, SigAlgo: 2, HashAlgo: 3},
	)

	client, err := indexer.NewClient(map[flow.ChainID]string{flow.Testnet: fake.URL()})
	require.NoError(t, err)

	w, err := wallet.NewKeyWallet(key, []flow.ChainID{flow.Testnet, flow.Mainnet}, client)
	require.NoError(t, err)

	snap, err := w.FetchAllNetworkAccounts(t.Context())
	require.NoError(t, err)
	require.Len(t, snap[flow.Testnet], 1)
	assert.Empty(t, snap[flow.Mainnet])

	a := snap[flow.Testnet][0]
	matched := a.FindKeyInAccount()
	require.Len(t, matched, 1)
	assert.Equal(t, uint32(0), matched[0].Index)

	sig, err := a.Sign(t.Context(), []byte("payload"))
	require.NoError(t, err)
	assert.True(t, key.IsValidSignature(sig, []byte("payload"), crypto.ECDSAP256, crypto.SHA3_256))
}
