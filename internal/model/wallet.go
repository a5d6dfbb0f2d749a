package model

// WalletAddress is a configured receiving address for a token on a chain.
type WalletAddress struct {
	Token   string `json:"token" yaml:"token"`
	Chain   string `json:"chain" yaml:"chain"`
	Address string `json:"address" yaml:"address"`
}
