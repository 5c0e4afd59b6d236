package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storage_dapp/internal/app/service"
	"storage_dapp/internal/infrastructure/abiloader"
	"storage_dapp/internal/infrastructure/configloader"
	"storage_dapp/internal/infrastructure/contract"
	clientprovider "storage_dapp/internal/infrastructure/network/client"
	networkdefinition "storage_dapp/internal/infrastructure/network/definition"
	"storage_dapp/internal/infrastructure/restapi"
	"storage_dapp/internal/infrastructure/txstore"
	"storage_dapp/internal/infrastructure/ui"
	"storage_dapp/internal/infrastructure/wallet"
	"storage_dapp/internal/pkg/logger"
	"storage_dapp/internal/pkg/metrics"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"go.uber.org/zap"
)

const defaultConfigPath = "config/config.yml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Temporary logger until the config says how to build the real one.
	tempZapLogger, errTempLog := zap.NewDevelopment()
	if errTempLog != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: Failed to initialize temporary zapLogger: %v\n", errTempLog)
		os.Exit(1)
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = defaultConfigPath
	}
	cfg, err := configloader.Load(configPath)
	if err != nil {
		tempZapLogger.Fatal("Failed to load configuration", zap.String("file", configPath), zap.Error(err))
	}

	zapLogger, errLog := logger.NewZapLogger(cfg.Logging)
	if errLog != nil {
		tempZapLogger.Fatal("Failed to initialize zapLogger", zap.Error(errLog))
	}
	defer zapLogger.Sync()

	logger.InstallZap(zapLogger, cfg.Logging.Level)
	appLogger := logger.NewSlogAdapter()
	logger.Info("Logger initialized", "level", cfg.Logging.Level, "development", cfg.Logging.Development)

	metrics.MustRegisterMetrics()

	networkProvider, err := networkdefinition.NewNetworkDefinitionProvider(appLogger, cfg.Network)
	if err != nil {
		logger.Fatal("Failed to initialize NetworkDefinitionProvider", "error", err)
	}
	clientProvider := clientprovider.NewClientProvider(cfg.RpcClient, logger.With(appLogger, "component", "rpc"))

	abiLoader := abiloader.NewLoader(
		cfg.Contract.ABISource,
		time.Duration(cfg.Contract.ABITimeoutMillis)*time.Millisecond,
		zapLogger,
	)
	walletLocator := wallet.NewLocator(cfg.Wallet, logger.With(appLogger, "component", "wallet"))
	binder := contract.NewBinder(
		logger.With(appLogger, "component", "contract"),
		time.Duration(cfg.Contract.CallTimeoutMillis)*time.Millisecond,
		time.Duration(cfg.Events.PollIntervalMillis)*time.Millisecond,
	)

	view := ui.NewState(cfg.Contract.Address, cfg.TxStore.MaxNotices, color.Output, appLogger)
	txStore := txstore.New(
		time.Duration(cfg.TxStore.TTLMinutes)*time.Minute,
		time.Duration(cfg.TxStore.CleanupIntervalMinutes)*time.Minute,
	)

	reconciler := service.NewNetworkReconciler(networkProvider, view, logger.With(appLogger, "component", "reconciler"))
	updater := service.NewLiveUpdater(view, logger.With(appLogger, "component", "events"),
		time.Duration(cfg.Events.ReconnectDelayMs)*time.Millisecond)
	orchestrator := service.NewConnectionOrchestrator(
		walletLocator,
		networkProvider,
		clientProvider,
		abiLoader,
		binder,
		reconciler,
		updater,
		view,
		logger.With(appLogger, "component", "orchestrator"),
		common.HexToAddress(cfg.Contract.Address),
	)
	actions := service.NewActionService(orchestrator, view, txStore, logger.With(appLogger, "component", "actions"))

	handler := restapi.NewDappHandler(orchestrator, actions, view, networkProvider)
	router := restapi.SetupRouter(handler, cfg, zapLogger.Named("http"))

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Bind before the orchestrator starts so the same-origin ABI is reachable on its first load.
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		logger.Fatal("Failed to bind HTTP listener", "address", srv.Addr, "error", err)
	}

	go func() {
		logger.Info("Starting HTTP server", "address", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start HTTP server", "error", err)
		}
	}()

	orchestratorDone := make(chan struct{})
	go func() {
		defer close(orchestratorDone)
		if err := orchestrator.Run(ctx); err != nil {
			logger.Error("Connection orchestrator stopped", "error", err)
		}
	}()

	logger.Info("dApp is running. Press Ctrl+C to stop.", "contract", cfg.Contract.Address, "network", networkProvider.Target().Name)

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	<-signalChan

	logger.Info("Shutdown signal received, stopping HTTP server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server graceful shutdown failed", "error", err)
	} else {
		logger.Info("HTTP server stopped.")
	}

	cancel()
	select {
	case <-orchestratorDone:
	case <-shutdownCtx.Done():
		logger.Warn("Connection orchestrator did not stop in time")
	}

	logger.Info("Storage dApp stopped.")
}
