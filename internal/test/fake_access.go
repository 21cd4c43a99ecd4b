package test

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/SafeMPC/flow-wallet-kit/internal/flow"
	"github.com/labstack/echo/v4"
)

// FakeAccessNode 进程内 Flow Access REST 节点，支持账户读取与两类关联账户脚本
type FakeAccessNode struct {
	Server *httptest.Server

	// Delay 每个脚本请求的处理延迟
	Delay time.Duration

	mu             sync.Mutex
	accounts       map[flow.Address]*flow.Account
	children       map[flow.Address]map[flow.Address]flow.ChildMetadata
	coas           map[flow.Address]string
	failChildren   bool
	failCOA        bool
	scriptRequests int
}

// NewFakeAccessNode 启动 fake Access 节点，测试结束时自动关闭
func NewFakeAccessNode(t *testing.T) *FakeAccessNode {
	t.Helper()

	f := &FakeAccessNode{
		accounts: make(map[flow.Address]*flow.Account),
		children: make(map[flow.Address]map[flow.Address]flow.ChildMetadata),
		coas:     make(map[flow.Address]string),
	}

	e := echo.New()
	e.HideBanner = true
	e.GET("/v1/accounts/:address", f.handleAccount)
	e.POST("/v1/scripts", f.handleScript)

	f.Server = httptest.NewServer(e)
	t.Cleanup(f.Server.Close)
	return f
}

// URL 服务根地址
func (f *FakeAccessNode) URL() string {
	return f.Server.URL
}

// AddAccount 登记账户
func (f *FakeAccessNode) AddAccount(account flow.Account) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := account
	f.accounts[account.Address] = &a
}

// SetChildren 设置 parent 的子账户
func (f *FakeAccessNode) SetChildren(parent flow.Address, children map[flow.Address]flow.ChildMetadata) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.children[parent] = children
}

// SetCOA 设置账户的 COA 地址（不含 0x 的十六进制）
func (f *FakeAccessNode) SetCOA(address flow.Address, evmHex string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.coas[address] = evmHex
}

// FailChildren 子账户脚本是否返回 500
func (f *FakeAccessNode) FailChildren(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failChildren = fail
}

// FailCOA COA 脚本是否返回 500
func (f *FakeAccessNode) FailCOA(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failCOA = fail
}

// ScriptRequests 已处理的脚本请求数
func (f *FakeAccessNode) ScriptRequests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scriptRequests
}

type cadenceJSON struct {
	Type  string      `json:"type"`
	Value interface{} `json:"value,omitempty"`
}

type cadenceEntry struct {
	Key   cadenceJSON `json:"key"`
	Value cadenceJSON `json:"value"`
}

func (f *FakeAccessNode) handleAccount(c echo.Context) error {
	addr, err := flow.ParseAddress(c.Param("address"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": err.Error()})
	}

	f.mu.Lock()
	account, ok := f.accounts[addr]
	f.mu.Unlock()
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"message": "account not found"})
	}

	keys := make([]map[string]interface{}, 0, len(account.Keys))
	for _, k := range account.Keys {
		keys = append(keys, map[string]interface{}{
			"index":             strconv.FormatUint(uint64(k.Index), 10),
			"public_key":        "0x" + hex.EncodeToString(k.PublicKey),
			"signing_algorithm": k.SigAlgo.String(),
			"hashing_algorithm": k.HashAlgo.String(),
			"sequence_number":   strconv.FormatUint(k.SequenceNumber, 10),
			"weight":            strconv.Itoa(k.Weight),
			"revoked":           k.Revoked,
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"address": account.Address.Hex(),
		"balance": strconv.FormatUint(account.Balance, 10),
		"keys":    keys,
	})
}

func (f *FakeAccessNode) handleScript(c echo.Context) error {
	var req struct {
		Script    string   `json:"script"`
		Arguments []string `json:"arguments"`
	}
	if err := c.Bind(&req); err != nil {
		return err
	}

	if f.Delay > 0 {
		time.Sleep(f.Delay)
	}

	script, err := base64.StdEncoding.DecodeString(req.Script)
	if err != nil || len(req.Arguments) != 1 {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "invalid script request"})
	}
	rawArg, err := base64.StdEncoding.DecodeString(req.Arguments[0])
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "invalid argument"})
	}
	var arg struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(rawArg, &arg); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "invalid argument"})
	}
	addr, err := flow.ParseAddress(arg.Value)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": err.Error()})
	}

	f.mu.Lock()
	f.scriptRequests++
	failChildren, failCOA := f.failChildren, f.failCOA
	children := f.children[addr]
	coa, hasCOA := f.coas[addr]
	f.mu.Unlock()

	var result cadenceJSON
	switch {
	case strings.Contains(string(script), "HybridCustody"):
		if failChildren {
			return c.JSON(http.StatusInternalServerError, map[string]string{"message": "script failed"})
		}
		entries := make([]cadenceEntry, 0, len(children))
		for child, meta := range children {
			fields := []cadenceEntry{
				stringEntry("name", meta.Name),
				stringEntry("description", meta.Description),
				stringEntry("thumbnail", meta.Icon),
			}
			for _, p := range meta.Permissions {
				fields = append(fields, stringEntry(flow.TokenPermissionKey(p.Kind, p.Identifier), p.Grants()))
			}
			entries = append(entries, cadenceEntry{
				Key:   cadenceJSON{Type: "Address", Value: child.Hex()},
				Value: cadenceJSON{Type: "Dictionary", Value: fields},
			})
		}
		result = cadenceJSON{Type: "Dictionary", Value: entries}
	case strings.Contains(string(script), "CadenceOwnedAccount"):
		if failCOA {
			return c.JSON(http.StatusInternalServerError, map[string]string{"message": "script failed"})
		}
		if hasCOA {
			result = cadenceJSON{Type: "Optional", Value: cadenceJSON{Type: "String", Value: coa}}
		} else {
			result = cadenceJSON{Type: "Optional"}
		}
	default:
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "unknown script"})
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, base64.StdEncoding.EncodeToString(encoded))
}

func stringEntry(key string, value string) cadenceEntry {
	return cadenceEntry{
		Key:   cadenceJSON{Type: "String", Value: key},
		Value: cadenceJSON{Type: "String", Value: value},
	}
}
