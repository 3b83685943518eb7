package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseProtocolDir(t *testing.T) {
	tests := []struct {
		name string
		dir  string
		want Attributes
	}{
		{
			name: "MultiWordChain",
			dir:  "arbitrum-one-nitro-mainnet-full-v1",
			want: Attributes{Chain: "arbitrum-one", Client: "nitro", Network: "mainnet", Type: "full"},
		},
		{
			name: "SimpleChain",
			dir:  "ethereum-reth-mainnet-archive-v1",
			want: Attributes{Chain: "ethereum", Client: "reth", Network: "mainnet", Type: "archive"},
		},
		{
			name: "TrailingSlash",
			dir:  "ethereum-lighthouse-mainnet-archive-v1/",
			want: Attributes{Chain: "ethereum", Client: "lighthouse", Network: "mainnet", Type: "archive"},
		},
		{
			name: "MultiDigitVersion",
			dir:  "ethereum-reth-sepolia-full-v23",
			want: Attributes{Chain: "ethereum", Client: "reth", Network: "sepolia", Type: "full"},
		},
		{
			name: "NoVersionSuffix",
			dir:  "ethereum-reth-mainnet-archive",
			want: Attributes{Chain: "ethereum", Client: "reth", Network: "mainnet", Type: "archive"},
		},
		{
			name: "LongChainName",
			dir:  "polygon-pos-mumbai-bor-testnet-full",
			want: Attributes{Chain: "polygon-pos-mumbai", Client: "bor", Network: "testnet", Type: "full"},
		},
		{
			name: "ThreeTokens",
			dir:  "ethereum-reth-mainnet",
			want: Attributes{Chain: "ethereum", Client: "reth", Network: "mainnet", Type: "archive"},
		},
		{
			name: "TwoTokens",
			dir:  "ethereum-reth",
			want: Attributes{Chain: "ethereum", Client: "reth", Network: "mainnet", Type: "archive"},
		},
		{
			name: "OneToken",
			dir:  "ethereum",
			want: Attributes{Chain: "ethereum", Client: "unknown", Network: "mainnet", Type: "archive"},
		},
		{
			name: "VersionOnly",
			dir:  "ethereum-v2",
			want: Attributes{Chain: "ethereum", Client: "unknown", Network: "mainnet", Type: "archive"},
		},
		{
			name: "Empty",
			dir:  "",
			want: Attributes{Chain: "unknown", Client: "unknown", Network: "mainnet", Type: "archive"},
		},
		{
			name: "VersionNotAtEnd",
			dir:  "ethereum-v2-reth-mainnet-archive",
			want: Attributes{Chain: "ethereum-v2", Client: "reth", Network: "mainnet", Type: "archive"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseProtocolDir(tt.dir))
		})
	}
}
