package cmd

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/paperdesk/config"
	"github.com/rustyeddy/paperdesk/desk"
	"github.com/rustyeddy/paperdesk/httpd"
	"github.com/rustyeddy/paperdesk/hub"
	"github.com/rustyeddy/paperdesk/ledger"
	"github.com/rustyeddy/paperdesk/market"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the market simulation and trading API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (YAML or JSON)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if configPath != "" {
		var err error
		cfg, err = config.LoadFromFile(configPath)
		if err != nil {
			return err
		}
	}

	seeds := make([]market.Seed, 0, len(cfg.Market.Instruments))
	for _, inst := range cfg.Market.Instruments {
		seeds = append(seeds, market.Seed{
			Symbol: inst.Symbol,
			Price:  decimal.NewFromFloat(inst.Price),
		})
	}

	state, err := market.NewState(seeds, cfg.Market.HistoryLimit)
	if err != nil {
		return err
	}
	state.SetFloor(decimal.NewFromFloat(cfg.Market.PriceFloor))

	var store ledger.Store
	switch cfg.Store.Type {
	case "sqlite":
		store, err = ledger.NewSQLite(cfg.Store.DBPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
	case "memory":
		store = ledger.NewMemory()
	}
	defer store.Close()

	led := ledger.New(store, decimal.NewFromFloat(cfg.Account.Funding))
	h := hub.New()
	d := desk.New(state, led, h)

	interval, err := cfg.Market.ParseTickInterval()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go market.NewTicker(state, interval, cfg.Market.Seed, d.OnTick).Run(ctx)

	log.Printf("paperdesk: %d instruments, tick %s, store %s, listening on %s",
		len(seeds), interval, cfg.Store.Type, cfg.Server.Addr)

	if err := httpd.New(cfg.Server.Addr, d, state).ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
