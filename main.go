package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	dispatchx "github.com/assurlab/sydia-agent/agent/dispatch"
	executorx "github.com/assurlab/sydia-agent/agent/executor"
	gatewayx "github.com/assurlab/sydia-agent/agent/gateway"
	llmx "github.com/assurlab/sydia-agent/agent/llm"
	promptx "github.com/assurlab/sydia-agent/agent/prompt"
	sessionx "github.com/assurlab/sydia-agent/agent/session"
	configx "github.com/assurlab/sydia-agent/pkg/config"
	_ "github.com/assurlab/sydia-agent/pkg/logger/autoload"
	notifyx "github.com/assurlab/sydia-agent/pkg/notify"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	llmCfg := configx.MustNew[llmx.Config]("LLM")
	if err := llmCfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid llm configuration")
	}
	if err := llmx.Ping(ctx, *llmCfg); err != nil {
		log.Fatal().Err(err).Msg("llm endpoint unreachable")
	}

	chatModel, err := llmCfg.New(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create chat model")
	}

	gwCfg := configx.MustNew[gatewayx.Config]("SYDIA")
	gw := gatewayx.MustNew(*gwCfg)

	bus := notifyx.NewBus()
	defer bus.Close()

	sessionCfg := configx.MustNew[sessionx.Config]("SESSION")
	store := sessionx.NewStore(promptx.System(), *sessionCfg)
	defer store.Close()

	exec, err := executorx.New(gw, bus)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build executor")
	}

	dispatcher, err := dispatchx.New(ctx, store, exec, chatModel)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build dispatcher")
	}

	serverCfg := configx.MustNew[ServerConfig]("SERVER")
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           newServer(dispatcher, gw, bus).routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverCfg.Addr).Msg("sydia agent listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown failed")
	}
}
