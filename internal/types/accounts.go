package types

// AccountKeyResponse 链上账户的一把公钥
type AccountKeyResponse struct {
	Index            uint32 `json:"index"`
	PublicKey        string `json:"publicKey"`
	SigningAlgorithm string `json:"signingAlgorithm"`
	HashingAlgorithm string `json:"hashingAlgorithm"`
	Weight           int    `json:"weight"`
	Revoked          bool   `json:"revoked"`
	SequenceNumber   uint64 `json:"sequenceNumber"`
}

// TokenPermissionResponse 子账户代币授权
type TokenPermissionResponse struct {
	Kind       string `json:"kind"`
	Identifier string `json:"identifier"`
	Read       bool   `json:"read"`
	Transfer   bool   `json:"transfer"`
	Mint       bool   `json:"mint"`
	Burn       bool   `json:"burn"`
}

// ChildAccountResponse 子账户
type ChildAccountResponse struct {
	Address     string                    `json:"address"`
	Name        string                    `json:"name,omitempty"`
	Description string                    `json:"description,omitempty"`
	Icon        string                    `json:"icon,omitempty"`
	Permissions []TokenPermissionResponse `json:"permissions,omitempty"`
}

// COAResponse EVM 影子账户
type COAResponse struct {
	Address string `json:"address"`
}

// AccountResponse 账户详情
type AccountResponse struct {
	Address   string                 `json:"address"`
	Network   string                 `json:"network"`
	Balance   uint64                 `json:"balance"`
	Keys      []AccountKeyResponse   `json:"keys"`
	Contracts []string               `json:"contracts,omitempty"`
	Children  []ChildAccountResponse `json:"children,omitempty"`
	COA       *COAResponse           `json:"coa,omitempty"`
}

// AccountsByKeyResponse 公钥关联的账户列表
type AccountsByKeyResponse struct {
	Network   string            `json:"network"`
	PublicKey string            `json:"publicKey"`
	Accounts  []AccountResponse `json:"accounts"`
}

// HealthResponse 健康检查结果
type HealthResponse struct {
	Status   string   `json:"status"`
	Networks []string `json:"networks"`
	Storage  string   `json:"storage"`
}
