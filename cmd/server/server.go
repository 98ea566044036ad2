package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fenrir/internal/adminapi"
	"fenrir/internal/book"
	"fenrir/internal/common"
	"fenrir/internal/engine"
	"fenrir/internal/margin"
	"fenrir/internal/marketdata"
	"fenrir/internal/netsrv"
	"fenrir/internal/policy"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// fanoutMarketData reports every book mutation to both the public
// WebSocket hub and the TCP server's per-participant execution reports.
type fanoutMarketData struct {
	hub *marketdata.Hub
	tcp *netsrv.Server
}

func (f fanoutMarketData) HandleOrderPlaced(oq *book.OrderQuantity) {
	f.hub.HandleOrderPlaced(oq)
	f.tcp.HandleOrderPlaced(oq)
}

func (f fanoutMarketData) HandleOrderCancelled(oq *book.OrderQuantity) {
	f.hub.HandleOrderCancelled(oq)
	f.tcp.HandleOrderCancelled(oq)
}

func (f fanoutMarketData) HandleOrderExecuted(executedQuantity uint64, aggressor, bookOrder *book.OrderQuantity) {
	f.hub.HandleOrderExecuted(executedQuantity, aggressor, bookOrder)
	f.tcp.HandleOrderExecuted(executedQuantity, aggressor, bookOrder)
}

func markets() map[string]*common.Market {
	return map[string]*common.Market{
		"BTC/USDT": {
			Symbol:        "BTC/USDT",
			BaseAsset:     &common.Asset{Symbol: "BTC", Decimals: 8},
			QuoteAsset:    &common.Asset{Symbol: "USDT", Decimals: 6},
			BaseDecimals:  5,
			QuoteDecimals: 2,
		},
	}
}

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	registry := engine.NewBookRegistry()
	allMarkets := markets()
	for _, m := range allMarkets {
		registry.Register(m)
	}
	lookup := func(ticker string) (*common.Market, bool) {
		m, ok := allMarkets[ticker]
		return m, ok
	}

	accounts := margin.New(policy.LotEventNull{})
	execPolicy := policy.LogExecutions[*margin.Manager]{Inner: accounts, Logger: log.Logger}

	hub := marketdata.NewHub(time.Now)
	tcp := netsrv.New("0.0.0.0", 9001, lookup)

	eng := engine.New(registry, accounts, execPolicy, fanoutMarketData{hub: hub, tcp: tcp}, policy.LotEventNull{})
	tcp.SetEngine(eng)

	admin := adminapi.New(registry, accounts, nil)
	mux := http.NewServeMux()
	mux.Handle("/admin/", http.StripPrefix("/admin", admin.Router()))
	mux.HandleFunc("/ws", hub.ServeWS)

	go func() {
		log.Info().Msg("starting http server on :9002")
		if err := http.ListenAndServe(":9002", mux); err != nil {
			log.Error().Err(err).Msg("http server stopped")
		}
	}()

	go func() {
		log.Info().Msg("starting tcp matching engine on :9001")
		if err := tcp.Run(ctx); err != nil {
			log.Error().Err(err).Msg("tcp server stopped")
		}
		stop()
	}()

	<-ctx.Done()
	hub.Stop()
}
