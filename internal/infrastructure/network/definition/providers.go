package networkdefinition

import (
	"fmt"
	"sort"
	"strings"

	"storage_dapp/internal/app/port"
	"storage_dapp/internal/domain/entity"
	"storage_dapp/internal/infrastructure/configloader"
)

// NetworkDefinitionProvider provides network definitions.
type NetworkDefinitionProvider struct {
	logger         port.Logger
	allNetworkDefs map[string]entity.NetworkDefinition
	target         entity.NetworkDefinition
}

var ethCurrency = entity.NativeCurrency{Name: "Ether", Symbol: "ETH", Decimals: 18}

// Predefined network definitions
var ( //nolint:gochecknoglobals // Global for definitions
	Sepolia = entity.NetworkDefinition{
		ChainID:          11155111,
		Name:             "Sepolia",
		Identifier:       "sepolia",
		NativeCurrency:   entity.NativeCurrency{Name: "SepoliaETH", Symbol: "ETH", Decimals: 18},
		PrimaryRPCURL:    "https://rpc.sepolia.org",
		FallbackRPCURLs:  []string{"https://ethereum-sepolia-rpc.publicnode.com", "https://sepolia.drpc.org"},
		BlockExplorerURL: "https://sepolia.etherscan.io",
	}
	Holesky = entity.NetworkDefinition{
		ChainID:          17000,
		Name:             "Holesky",
		Identifier:       "holesky",
		NativeCurrency:   entity.NativeCurrency{Name: "HoleskyETH", Symbol: "ETH", Decimals: 18},
		PrimaryRPCURL:    "https://ethereum-holesky-rpc.publicnode.com",
		FallbackRPCURLs:  []string{"https://holesky.drpc.org"},
		BlockExplorerURL: "https://holesky.etherscan.io",
	}
	BaseSepolia = entity.NetworkDefinition{
		ChainID:          84532,
		Name:             "Base Sepolia",
		Identifier:       "base_sepolia",
		NativeCurrency:   entity.NativeCurrency{Name: "Sepolia Ether", Symbol: "ETH", Decimals: 18},
		PrimaryRPCURL:    "https://sepolia.base.org",
		FallbackRPCURLs:  []string{"https://base-sepolia-rpc.publicnode.com"},
		BlockExplorerURL: "https://sepolia.basescan.org",
	}
	ArbitrumSepolia = entity.NetworkDefinition{
		ChainID:          421614,
		Name:             "Arbitrum Sepolia",
		Identifier:       "arbitrum_sepolia",
		NativeCurrency:   entity.NativeCurrency{Name: "Sepolia Ether", Symbol: "ETH", Decimals: 18},
		PrimaryRPCURL:    "https://sepolia-rollup.arbitrum.io/rpc",
		FallbackRPCURLs:  []string{"https://arbitrum-sepolia-rpc.publicnode.com"},
		BlockExplorerURL: "https://sepolia.arbiscan.io",
	}
	OptimismSepolia = entity.NetworkDefinition{
		ChainID:          11155420,
		Name:             "OP Sepolia",
		Identifier:       "optimism_sepolia",
		NativeCurrency:   entity.NativeCurrency{Name: "Sepolia Ether", Symbol: "ETH", Decimals: 18},
		PrimaryRPCURL:    "https://sepolia.optimism.io",
		FallbackRPCURLs:  []string{"https://optimism-sepolia-rpc.publicnode.com"},
		BlockExplorerURL: "https://sepolia-optimism.etherscan.io",
	}
	PolygonAmoy = entity.NetworkDefinition{
		ChainID:          80002,
		Name:             "Polygon Amoy",
		Identifier:       "polygon_amoy",
		NativeCurrency:   entity.NativeCurrency{Name: "POL", Symbol: "POL", Decimals: 18},
		PrimaryRPCURL:    "https://rpc-amoy.polygon.technology",
		FallbackRPCURLs:  []string{"https://polygon-amoy-bor-rpc.publicnode.com"},
		BlockExplorerURL: "https://amoy.polygonscan.com",
	}
	Ethereum = entity.NetworkDefinition{
		ChainID:          1,
		Name:             "Ethereum Mainnet",
		Identifier:       "ethereum",
		NativeCurrency:   ethCurrency,
		PrimaryRPCURL:    "https://ethereum-rpc.publicnode.com",
		FallbackRPCURLs:  []string{"https://rpc.ankr.com/eth", "https://ethereum.publicnode.com"},
		BlockExplorerURL: "https://etherscan.io",
	}
	Polygon = entity.NetworkDefinition{
		ChainID:          137,
		Name:             "Polygon PoS",
		Identifier:       "polygon",
		NativeCurrency:   entity.NativeCurrency{Name: "POL", Symbol: "POL", Decimals: 18},
		PrimaryRPCURL:    "https://polygon-rpc.com/",
		FallbackRPCURLs:  []string{"https://rpc.ankr.com/polygon", "https://polygon.publicnode.com"},
		BlockExplorerURL: "https://polygonscan.com",
	}
	Arbitrum = entity.NetworkDefinition{
		ChainID:          42161,
		Name:             "Arbitrum One",
		Identifier:       "arbitrum",
		NativeCurrency:   ethCurrency,
		PrimaryRPCURL:    "https://arb1.arbitrum.io/rpc",
		FallbackRPCURLs:  []string{"https://arbitrum.llamarpc.com", "https://arbitrum.publicnode.com"},
		BlockExplorerURL: "https://arbiscan.io",
	}
	Base = entity.NetworkDefinition{
		ChainID:          8453,
		Name:             "Base Mainnet",
		Identifier:       "base",
		NativeCurrency:   ethCurrency,
		PrimaryRPCURL:    "https://1rpc.io/base",
		FallbackRPCURLs:  []string{"https://base.publicnode.com", "https://base.llamarpc.com"},
		BlockExplorerURL: "https://basescan.org",
	}
	Optimism = entity.NetworkDefinition{
		ChainID:          10,
		Name:             "OP Mainnet",
		Identifier:       "optimism",
		NativeCurrency:   ethCurrency,
		PrimaryRPCURL:    "https://op-pokt.nodies.app",
		FallbackRPCURLs:  []string{"https://optimism.publicnode.com", "https://rpc.ankr.com/optimism"},
		BlockExplorerURL: "https://optimistic.etherscan.io",
	}
)

// allKnownDefinitions is a helper to quickly access all hardcoded definitions.
var allKnownDefinitions = map[string]entity.NetworkDefinition{
	Sepolia.Identifier:         Sepolia,
	Holesky.Identifier:         Holesky,
	BaseSepolia.Identifier:     BaseSepolia,
	ArbitrumSepolia.Identifier: ArbitrumSepolia,
	OptimismSepolia.Identifier: OptimismSepolia,
	PolygonAmoy.Identifier:     PolygonAmoy,
	Ethereum.Identifier:        Ethereum,
	Polygon.Identifier:         Polygon,
	Arbitrum.Identifier:        Arbitrum,
	Base.Identifier:            Base,
	Optimism.Identifier:        Optimism,
}

// NewNetworkDefinitionProvider creates a new NetworkDefinitionProvider whose target is chosen by cfg.Identifier.
// Config fields that are set override the matching fields of the known definition.
func NewNetworkDefinitionProvider(log port.Logger, cfg configloader.NetworkConfig) (*NetworkDefinitionProvider, error) {
	p := &NetworkDefinitionProvider{
		logger:         log,
		allNetworkDefs: allKnownDefinitions,
	}

	identifier := strings.ToLower(strings.TrimSpace(cfg.Identifier))
	def, known := p.allNetworkDefs[identifier]
	if !known {
		if cfg.ChainID == 0 || cfg.Name == "" || len(cfg.RPCURLs) == 0 {
			return nil, fmt.Errorf("network '%s' is not a known network and no chainID, name and rpcURLs were configured", cfg.Identifier)
		}
		def = entity.NetworkDefinition{Identifier: identifier, NativeCurrency: ethCurrency}
		p.logger.Warn(fmt.Sprintf("Network '%s' is not predefined, building it from config.", identifier))
	}

	def = applyOverrides(def, cfg)
	p.target = def

	p.logger.Info("NetworkDefinitionProvider initialized",
		"target", def.Name,
		"chainId", def.ChainIDHex(),
		"rpc_primary", def.PrimaryRPCURL,
		"fallbacks", len(def.FallbackRPCURLs))
	return p, nil
}

func applyOverrides(def entity.NetworkDefinition, cfg configloader.NetworkConfig) entity.NetworkDefinition {
	if cfg.ChainID != 0 {
		def.ChainID = cfg.ChainID
	}
	if cfg.Name != "" {
		def.Name = cfg.Name
	}
	if cfg.CurrencyName != "" {
		def.NativeCurrency.Name = cfg.CurrencyName
	}
	if cfg.CurrencySymbol != "" {
		def.NativeCurrency.Symbol = cfg.CurrencySymbol
	}
	if cfg.CurrencyDecimals != 0 {
		def.NativeCurrency.Decimals = cfg.CurrencyDecimals
	}
	if len(cfg.RPCURLs) > 0 {
		def.PrimaryRPCURL = cfg.RPCURLs[0]
		def.FallbackRPCURLs = append([]string(nil), cfg.RPCURLs[1:]...)
	}
	if cfg.BlockExplorerURL != "" {
		def.BlockExplorerURL = cfg.BlockExplorerURL
	}
	return def
}

// Target returns the configured target network.
func (p *NetworkDefinitionProvider) Target() entity.NetworkDefinition {
	return p.target
}

// GetAllNetworkDefinitions returns every known network definition, ordered by chain id.
func (p *NetworkDefinitionProvider) GetAllNetworkDefinitions() []entity.NetworkDefinition {
	if p == nil {
		return []entity.NetworkDefinition{}
	}
	defs := make([]entity.NetworkDefinition, 0, len(p.allNetworkDefs)+1)
	targetListed := false
	for _, def := range p.allNetworkDefs {
		if def.Identifier == p.target.Identifier {
			def = p.target
			targetListed = true
		}
		defs = append(defs, def)
	}
	if !targetListed {
		defs = append(defs, p.target)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].ChainID < defs[j].ChainID })
	return defs
}

// GetNetworkDefinitionByName returns a specific network definition by its identifier.
func (p *NetworkDefinitionProvider) GetNetworkDefinitionByName(identifier string) (entity.NetworkDefinition, bool) {
	if p == nil {
		return entity.NetworkDefinition{}, false
	}
	if identifier == p.target.Identifier {
		return p.target, true
	}
	def, ok := p.allNetworkDefs[identifier]
	return def, ok
}

// GetNetworkDefinitionByChainID returns a specific network definition by its chain ID.
func (p *NetworkDefinitionProvider) GetNetworkDefinitionByChainID(chainID uint64) (entity.NetworkDefinition, bool) {
	if p == nil {
		return entity.NetworkDefinition{}, false
	}
	if p.target.ChainID == chainID {
		return p.target, true
	}
	for _, knownDef := range p.allNetworkDefs {
		if knownDef.ChainID == chainID {
			return knownDef, true
		}
	}
	return entity.NetworkDefinition{}, false
}
