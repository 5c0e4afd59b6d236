package service

import (
	"context"
	"fmt"

	"storage_dapp/internal/app/port"
	"storage_dapp/internal/domain/entity"
	networkdefinition "storage_dapp/internal/infrastructure/network/definition"
	"storage_dapp/internal/pkg/metrics"
)

// NetworkReconciler moves the wallet onto the target network.
type NetworkReconciler struct {
	networks port.NetworkDefinitionProvider
	view     port.View
	logger   port.Logger
}

// NewNetworkReconciler creates a NetworkReconciler for networks.Target().
func NewNetworkReconciler(networks port.NetworkDefinitionProvider, view port.View, l port.Logger) *NetworkReconciler {
	return &NetworkReconciler{networks: networks, view: view, logger: l}
}

// Reconcile returns the wallet's chain id once it is on the target network.
// It tries wallet_switchEthereumChain first and falls back to wallet_addEthereumChain only when
// the wallet does not know the chain. Any other failure ends the attempt with ErrNetworkSwitch.
func (r *NetworkReconciler) Reconcile(ctx context.Context, bridge port.WalletBridge, currentHex string) (string, error) {
	target := r.networks.Target()
	if networkdefinition.SameChain(currentHex, target) {
		return currentHex, nil
	}

	from := currentHex
	if id, ok := networkdefinition.ParseChainID(currentHex); ok && id.IsUint64() {
		if def, known := r.networks.GetNetworkDefinitionByChainID(id.Uint64()); known {
			from = def.Name
		}
	}
	r.logger.Info("Wallet is on another network, requesting switch", "from", from, "to", target.Name, "chainId", target.ChainIDHex())

	err := bridge.SwitchChain(ctx, target.ChainIDHex())
	if err != nil {
		if !entity.IsUnrecognizedChain(err) {
			metrics.NetworkSwitches.WithLabelValues("switch", "failed").Inc()
			return "", r.fail(target, fmt.Errorf("wallet_switchEthereumChain: %w", err))
		}
		metrics.NetworkSwitches.WithLabelValues("switch", "unrecognized").Inc()
		r.logger.Info("Wallet does not know the target network, requesting add", "network", target.Name)

		if addErr := bridge.AddChain(ctx, entity.AddChainParamsFor(target)); addErr != nil {
			metrics.NetworkSwitches.WithLabelValues("add", "failed").Inc()
			return "", r.fail(target, fmt.Errorf("wallet_addEthereumChain: %w", addErr))
		}
		metrics.NetworkSwitches.WithLabelValues("add", "ok").Inc()
	} else {
		metrics.NetworkSwitches.WithLabelValues("switch", "ok").Inc()
	}

	chainID, err := bridge.ChainID(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to re-read chain id after switch: %w", err)
	}
	r.view.SetNetworkLabel(networkdefinition.ChainLabel(chainID, target))

	if !networkdefinition.SameChain(chainID, target) {
		return "", r.fail(target, fmt.Errorf("wallet reports %s after switching", chainID))
	}
	return chainID, nil
}

func (r *NetworkReconciler) fail(target entity.NetworkDefinition, err error) error {
	r.logger.Error("Network switch failed", "network", target.Name, "error", err)
	r.view.SetNetworkLabel(networkdefinition.SwitchPromptLabel(target))
	r.view.Notify(entity.NoticeWarn, fmt.Sprintf("Please switch your wallet to %s manually.", target.Name))
	return fmt.Errorf("%w: %w", entity.ErrNetworkSwitch, err)
}
