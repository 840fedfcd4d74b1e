package main

import (
    "context"
    "log"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/park285/autobattler-league/internal/adapter/leaguepresenter"
    "github.com/park285/autobattler-league/internal/bot"
    appcfg "github.com/park285/autobattler-league/internal/config"
    "github.com/park285/autobattler-league/internal/irisfast"
    "github.com/park285/autobattler-league/internal/leaguebuilder"
    "github.com/park285/autobattler-league/internal/obslog"
    "go.uber.org/zap"
)

func main() {
    cfg, err := appcfg.Load()
    if err != nil {
        log.Fatalf("config error: %v", err)
    }
    if err := obslog.Init(cfg.LogOptions()); err != nil {
        log.Fatalf("logger init error: %v", err)
    }
    logger := obslog.L()
    defer func() { _ = logger.Sync() }()

    client := irisfast.NewClient(cfg.IrisBaseURL, cfg.IrisSettings())
    ws := cfg.IrisSocket()

    pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
    if err := client.Ping(pingCtx); err != nil {
        logger.Warn("iris_ping_failed", zap.String("url", cfg.IrisBaseURL), zap.Error(err))
    }
    pingCancel()

    egress := irisfast.NewEgress(cfg.EgressMode, cfg.EgressDryRun, client, ws, logger)

    initCtx, initCancel := context.WithTimeout(context.Background(), 15*time.Second)
    deps, err := leaguebuilder.New(initCtx, cfg)
    initCancel()
    if err != nil {
        logger.Fatal("league_init_failed", zap.Error(err))
    }

    b := bot.New(bot.Config{
        Prefix:      cfg.BotPrefix,
        Roster:      deps.Registry,
        Controller:  deps.Controller,
        History:     deps.Archive,
        Renderer:    deps.Renderer,
        Formatter:   leaguepresenter.NewFormatter(prefixProvider{prefix: cfg.BotPrefix}, deps.Catalog),
        Egress:      egress,
        RoomAllowed: cfg.RoomAllowed,
    })

    subscribe(ws, b, logger)

    cctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    if err := ws.Connect(cctx); err != nil {
        cancel()
        logger.Fatal("ws_connect_failed", zap.String("url", cfg.IrisWSURL), zap.Error(err))
    }
    cancel()
    logger.Info("league_bot_started", zap.String("prefix", cfg.BotPrefix), zap.String("egress", cfg.EgressMode))

    sigCh := make(chan os.Signal, 1)
    signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
    <-sigCh

    shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer shutdownCancel()
    _ = ws.Close(shutdownCtx)
    if err := deps.Close(); err != nil {
        logger.Warn("league_close_failed", zap.Error(err))
    }
    logger.Info("league_bot_stopped")
}

type prefixProvider struct{ prefix string }

func (p prefixProvider) Prefix() string { return p.prefix }

// subscribe routes socket messages to the bot. Messages are handled off the
// read loop; the bot serialises commands.
func subscribe(ws irisfast.Inbound, b *bot.Bot, logger *zap.Logger) {
    ws.OnMessage(func(msg *irisfast.Message) {
        go func() {
            ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
            defer cancel()
            b.HandleMessage(ctx, msg)
        }()
    })
    ws.OnStateChange(func(state irisfast.WebSocketState) {
        if state == irisfast.WSStateFailed {
            logger.Error("iris_ws_unavailable")
        }
    })
}
