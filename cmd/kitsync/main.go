package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/jhoicas/kitsync/internal/application/reconcile"
	"github.com/jhoicas/kitsync/internal/domain/kit"
	"github.com/jhoicas/kitsync/internal/infrastructure/postgres"
	"github.com/jhoicas/kitsync/internal/infrastructure/sheets"
	"github.com/jhoicas/kitsync/internal/infrastructure/shipstation"
	"github.com/jhoicas/kitsync/internal/infrastructure/shopify"
	httpRouter "github.com/jhoicas/kitsync/internal/interfaces/http"
	"github.com/jhoicas/kitsync/pkg/config"
	"github.com/jhoicas/kitsync/pkg/logger"
	"github.com/jhoicas/kitsync/pkg/retry"
)

const usage = `uso: kitsync <comando> [flags]

comandos:
  shipped-sync     descuenta del inventario las órdenes enviadas (idempotente)
  storefront-push  empuja disponibilidad a las tiendas Shopify
  demand-report    imprime el reporte de demanda contra stock (JSON)
  prune            poda del ledger las órdenes fuera de retención
  serve            servidor HTTP con disparadores y consultas

flags de demand-report:
  -start / -end    ventana por fecha de pago, YYYY-MM-DD (obligatorios)
  -status          estado de órdenes (default awaiting_shipment)
  -demand-mode     collapsed | separated (default collapsed)
  -own-row=false   no sumar la fila propia de kits prepacados

flags generales:
  -dry-run         calcular y loggear sin escribir
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	command := os.Args[1]

	fs := flag.NewFlagSet(command, flag.ExitOnError)
	var (
		startStr   = fs.String("start", "", "inicio de ventana (YYYY-MM-DD)")
		endStr     = fs.String("end", "", "fin de ventana (YYYY-MM-DD)")
		status     = fs.String("status", "", "estado de órdenes")
		demandMode = fs.String("demand-mode", string(kit.ModeCollapsed), "collapsed | separated")
		ownRow     = fs.Bool("own-row", true, "sumar fila propia de kits prepacados")
		dryRun     = fs.Bool("dry-run", false, "calcular sin escribir")
	)
	if err := fs.Parse(os.Args[2:]); err != nil {
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	if *dryRun {
		cfg.Sync.DryRun = true
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("command", command).
		Msg("iniciando aplicación")

	ctx := context.Background()

	switch command {
	case "shipped-sync":
		runShippedSync(ctx, cfg, log)
	case "storefront-push":
		runStorefrontPush(ctx, cfg, log)
	case "demand-report":
		runDemandReport(ctx, cfg, log, *startStr, *endStr, *status, *demandMode, *ownRow)
	case "prune":
		runPrune(ctx, cfg, log)
	case "serve":
		runServe(ctx, cfg, log)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}

func newSheetStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) *sheets.Store {
	store, err := sheets.NewStore(ctx, cfg.Sheets, cfg.Sync.BatchChunkSize, retry.Default(log), log)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a Google Sheets")
	}
	return store
}

func newOrderSource(cfg *config.Config, log zerolog.Logger) *shipstation.Client {
	return shipstation.NewClient(cfg.ShipStation, cfg.Sync.MaxPages, cfg.Sync.HTTPTimeout, retry.Default(log), log)
}

func newSinks(cfg *config.Config, log zerolog.Logger) []reconcile.StorefrontSink {
	sinks := make([]reconcile.StorefrontSink, 0, len(cfg.Stores))
	for _, store := range cfg.Stores {
		sinks = append(sinks, shopify.NewClient(store, cfg.Sync.MaxPages, cfg.Sync.HTTPTimeout, retry.Default(log), log))
	}
	return sinks
}

func newLedger(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*postgres.FulfillmentLedgerRepo, *pgxpool.Pool) {
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	ledger := postgres.NewFulfillmentLedgerRepository(pool)
	if err := ledger.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("esquema del ledger")
	}
	return ledger, pool
}

func runShippedSync(ctx context.Context, cfg *config.Config, log zerolog.Logger) {
	ledger, pool := newLedger(ctx, cfg, log)
	defer pool.Close()

	uc := reconcile.NewShippedSyncUseCase(
		newSheetStore(ctx, cfg, log),
		newOrderSource(cfg, log),
		ledger,
		reconcile.ShippedSyncOptions{CutoffDays: cfg.Sync.CutoffDays, DryRun: cfg.Sync.DryRun},
		log,
	)
	summary, err := uc.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("shipped-sync fallido")
	}
	printJSON(summary)

	if cfg.Sync.PruneAfterShipSync && !cfg.Sync.DryRun {
		pruneLedger(ctx, cfg, ledger, log)
	}
}

func runStorefrontPush(ctx context.Context, cfg *config.Config, log zerolog.Logger) {
	sinks := newSinks(cfg, log)
	if len(sinks) == 0 {
		log.Fatal().Msg("sin tiendas configuradas (SHOPIFY_1_SHOP_URL...)")
	}
	uc := reconcile.NewStorefrontPushUseCase(
		newSheetStore(ctx, cfg, log),
		sinks,
		reconcile.StorefrontPushOptions{DryRun: cfg.Sync.DryRun},
		log,
	)
	summary, err := uc.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("storefront-push fallido")
	}
	printJSON(summary)
}

func runDemandReport(ctx context.Context, cfg *config.Config, log zerolog.Logger, startStr, endStr, status, mode string, ownRow bool) {
	start, err := time.Parse("2006-01-02", startStr)
	if err != nil {
		log.Fatal().Str("start", startStr).Msg("-start inválido, se espera YYYY-MM-DD")
	}
	end, err := time.Parse("2006-01-02", endStr)
	if err != nil {
		log.Fatal().Str("end", endStr).Msg("-end inválido, se espera YYYY-MM-DD")
	}

	uc := reconcile.NewDemandReportUseCase(newSheetStore(ctx, cfg, log), newOrderSource(cfg, log), log)
	rows, err := uc.Report(ctx, reconcile.ReportRequest{
		Start:           start,
		End:             end,
		Status:          status,
		Mode:            kit.Mode(mode),
		PrepackedOwnRow: ownRow,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("demand-report fallido")
	}
	printJSON(rows)
}

func runPrune(ctx context.Context, cfg *config.Config, log zerolog.Logger) {
	ledger, pool := newLedger(ctx, cfg, log)
	defer pool.Close()
	pruneLedger(ctx, cfg, ledger, log)
}

func pruneLedger(ctx context.Context, cfg *config.Config, ledger *postgres.FulfillmentLedgerRepo, log zerolog.Logger) {
	horizon := time.Now().AddDate(0, 0, -cfg.Sync.RetentionDays)
	deleted, err := ledger.Prune(ctx, horizon)
	if err != nil {
		log.Error().Err(err).Msg("poda del ledger fallida")
		return
	}
	log.Info().Int64("deleted", deleted).Time("older_than", horizon).Msg("ledger podado")
}

func runServe(ctx context.Context, cfg *config.Config, log zerolog.Logger) {
	ledger, pool := newLedger(ctx, cfg, log)
	defer pool.Close()

	store := newSheetStore(ctx, cfg, log)
	orders := newOrderSource(cfg, log)
	sinks := newSinks(cfg, log)

	shippedUC := reconcile.NewShippedSyncUseCase(store, orders, ledger,
		reconcile.ShippedSyncOptions{CutoffDays: cfg.Sync.CutoffDays, DryRun: cfg.Sync.DryRun}, log)
	pushUC := reconcile.NewStorefrontPushUseCase(store, sinks,
		reconcile.StorefrontPushOptions{DryRun: cfg.Sync.DryRun}, log)
	reportUC := reconcile.NewDemandReportUseCase(store, orders, log)
	adjustUC := reconcile.NewAdjustStockUseCase(store, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 120, // las corridas síncronas pueden tardar
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AdjustUC:     adjustUC,
		ShippedSync:  shippedUC,
		StorePush:    pushUC,
		DemandReport: reportUC,
		SheetStore:   store,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
