package main

import (
	"context"
	"flag"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"dsponsor/config"
	"dsponsor/core/events"
	"dsponsor/core/state"
	"dsponsor/gateway/middleware"
	"dsponsor/gateway/routes"
	"dsponsor/native/factory"
	"dsponsor/native/nft"
	"dsponsor/observability/logging"
	"dsponsor/storage"
)

func main() {
	var cfgPath string
	var useMemDB bool
	flag.StringVar(&cfgPath, "config", "./config.toml", "path to configuration")
	flag.BoolVar(&useMemDB, "memdb", false, "DEV ONLY: keep state in memory instead of on disk")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("DSPONSOR_ENV"))
	logger := logging.Setup("dsponsord", env)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}
	if env == "" {
		env = cfg.Env
	}

	var db storage.Database
	if useMemDB {
		db = storage.NewMemDB()
	} else {
		leveldb, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "state"))
		if err != nil {
			logger.Error("open state database", "error", err, "dir", cfg.DataDir)
			os.Exit(1)
		}
		db = leveldb
	}
	defer db.Close()

	ledger, err := state.NewLedger(db)
	if err != nil {
		logger.Error("open ledger", "error", err)
		os.Exit(1)
	}

	recorder := events.NewRecorder(cfg.EventLogSize)

	feeAddr := cfg.FeeAddress()
	if feeAddr == (common.Address{}) {
		feeAddr = moduleAddress("protocol/" + cfg.NetworkName)
	}
	f, err := factory.NewFactory(moduleAddress("factory/"+cfg.NetworkName), ledger, feeAddr, cfg.ProtocolFeePercent)
	if err != nil {
		logger.Error("configure factory", "error", err)
		os.Exit(1)
	}
	f.SetEmitter(recorder)

	if cfg.Bootstrap.Enabled() {
		campaign, err := bootstrapCampaign(f, cfg.Bootstrap)
		if err != nil {
			logger.Error("bootstrap campaign", "error", err)
			os.Exit(1)
		}
		logger.Info("campaign bootstrapped",
			"id", campaign.ID,
			"gateway", campaign.GatewayAddr.Hex(),
			"treasury", campaign.TreasuryAddr.Hex(),
		)
	}

	obs := middleware.NewObservability(middleware.ObservabilityConfig{
		ServiceName: "dsponsord",
		LogRequests: cfg.LogRequests,
		Enabled:     cfg.MetricsEnabled,
	}, logger)

	var limiter *middleware.RateLimiter
	if cfg.RateLimitPerMin > 0 {
		limiter = middleware.NewRateLimiter(map[string]middleware.RateLimit{
			"campaigns": {RequestsPerMinute: cfg.RateLimitPerMin, Burst: cfg.RateLimitBurst},
		})
	}

	handler := routes.New(routes.Config{
		Factory:       f,
		Events:        recorder,
		Observability: obs,
		RateLimiter:   limiter,
		CORS:          middleware.CORSConfig{AllowedOrigins: cfg.CORSAllowedOrigin},
	})

	server := &http.Server{
		Addr:         cfg.ListenAddress,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("listening", "addr", cfg.ListenAddress, "network", cfg.NetworkName)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("listen and serve", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", "error", err)
	}
}

// moduleAddress derives a deterministic module account from a label so the
// factory and protocol accounts stay stable across restarts of one network.
func moduleAddress(label string) common.Address {
	return common.BytesToAddress(ethcrypto.Keccak256([]byte("dsponsor/" + label))[12:])
}

func bootstrapCampaign(f *factory.Factory, b config.BootstrapCampaign) (*factory.Campaign, error) {
	params := factory.NFTParams{
		Name:       b.Name,
		Symbol:     b.Symbol,
		MaxSupply:  b.MaxSupply,
		Controller: common.HexToAddress(b.Controller),
	}
	if price := strings.TrimSpace(b.NativePrice); price != "" {
		amount, _ := new(big.Int).SetString(price, 10)
		params.Prices = []factory.PriceSetting{
			{Currency: nft.NativeCurrency, Enabled: true, Amount: amount},
		}
	}
	return f.CreateWithNFT(params, b.RulesURI, common.HexToAddress(b.Sponsee))
}
