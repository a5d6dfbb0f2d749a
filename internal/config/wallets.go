package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/iliyamo/hotel-crypto-reservation/internal/model"
)

// LoadWallets returns the static list of receiving addresses.  When
// WALLETS_FILE points at a YAML document it is read from there:
//
//	wallets:
//	  - token: USDT
//	    chain: TRON
//	    address: TXYZ...
//
// Otherwise WALLET_ADDRESSES is parsed as "TOKEN@CHAIN=address,...".
func LoadWallets() ([]model.WalletAddress, error) {
	if path := envStr("WALLETS_FILE", ""); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read wallets file: %w", err)
		}
		return ParseWalletsYAML(raw)
	}
	return ParseWalletList(envStr("WALLET_ADDRESSES", ""))
}

// ParseWalletsYAML decodes the wallets YAML document.
func ParseWalletsYAML(raw []byte) ([]model.WalletAddress, error) {
	var doc struct {
		Wallets []model.WalletAddress `yaml:"wallets"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode wallets yaml: %w", err)
	}
	for i := range doc.Wallets {
		w := &doc.Wallets[i]
		w.Token = strings.ToUpper(strings.TrimSpace(w.Token))
		w.Chain = strings.ToUpper(strings.TrimSpace(w.Chain))
		w.Address = strings.TrimSpace(w.Address)
		if w.Token == "" || w.Chain == "" || w.Address == "" {
			return nil, fmt.Errorf("wallet %d: token, chain and address are required", i)
		}
	}
	return doc.Wallets, nil
}

// ParseWalletList parses the "TOKEN@CHAIN=address" comma separated form.
func ParseWalletList(s string) ([]model.WalletAddress, error) {
	var out []model.WalletAddress
	for _, entry := range splitList(s) {
		key, addr, ok := strings.Cut(entry, "=")
		token, chain, ok2 := strings.Cut(key, "@")
		if !ok || !ok2 || strings.TrimSpace(addr) == "" {
			return nil, fmt.Errorf("WALLET_ADDRESSES: malformed entry %q", entry)
		}
		out = append(out, model.WalletAddress{
			Token:   strings.ToUpper(strings.TrimSpace(token)),
			Chain:   strings.ToUpper(strings.TrimSpace(chain)),
			Address: strings.TrimSpace(addr),
		})
	}
	return out, nil
}
