package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/ashmitsharp/erp-api/internal/config"
	"github.com/ashmitsharp/erp-api/internal/database"
	"github.com/ashmitsharp/erp-api/internal/handlers"
	"github.com/ashmitsharp/erp-api/internal/logger"
	"github.com/ashmitsharp/erp-api/internal/middleware"
	"github.com/ashmitsharp/erp-api/internal/services"
	"github.com/ashmitsharp/erp-api/internal/utils"
)

const maxUploadBytes = 10 * 1024 * 1024 // 10MB

func main() {
	// Load environment variables
	envErr := godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		logger.New("info").Fatal().Err(err).Msg("invalid configuration")
	}

	log := logger.New(cfg.LogLevel)
	if cfg.IsProduction() {
		log = logger.NewJSON(cfg.LogLevel)
	}
	if envErr != nil {
		log.Warn().Msg(".env file not found, using system environment variables")
	}

	ctx := context.Background()

	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().Msg("connected to database")

	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("failed to apply schema")
		}
		log.Info().Msg("schema up to date")
	}

	store := database.NewStore(pool)

	storageService, err := services.NewStorageService(ctx, cfg.S3Bucket, cfg.S3Region, cfg.AWSEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage service")
	}

	ledgerService := services.NewLedgerService(store, cfg.MaxInstallments, log)
	transactionService := services.NewTransactionService(store, log)
	salesService := services.NewSalesService(store, cfg.ImportChannel, log)
	clientResolver := services.NewClientResolver(store)
	catalogService := services.NewCatalogService(store, clientResolver, log)
	validator := services.NewFileValidator(maxUploadBytes)

	normalize := services.NormalizeOptions{
		BatchTag:      cfg.ImportBatchTag,
		SKUPrefix:     cfg.ImportSKUPrefix,
		ClientAliases: cfg.ImportClientAliases,
		DefaultClient: cfg.ImportDefaultClient,
	}
	newImporter := func(year int) handlers.SalesImporter {
		opts := normalize
		opts.Year = year
		return services.NewReconciler(clientResolver, store, services.NewStoreEmitter(salesService), opts, cfg.ImportChannel, log)
	}

	usersHandler := handlers.NewUsersHandler(store)
	accountsHandler := handlers.NewAccountsHandler(transactionService)
	categoriesHandler := handlers.NewCategoriesHandler(transactionService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	summaryHandler := handlers.NewSummaryHandler(transactionService)
	cardsHandler := handlers.NewCardsHandler(ledgerService)
	salesHandler := handlers.NewSalesHandler(salesService)
	importHandler := handlers.NewImportHandler(storageService, validator, newImporter)
	catalogHandler := handlers.NewCatalogHandler(catalogService)

	app := fiber.New(fiber.Config{
		AppName:      "erp API v1.0",
		ErrorHandler: utils.ErrorHandler,
		BodyLimit:    maxUploadBytes,
	})

	app.Use(middleware.RequestLogger(log))
	app.Use(recover.New())
	app.Use(middleware.CORS(cfg.CORSOrigins))

	app.Get("/health", func(c fiber.Ctx) error {
		if err := pool.Ping(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":  "degraded",
				"service": "erp-api",
			})
		}
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "erp-api",
		})
	})

	v1 := app.Group("/v1")

	v1.Get("/ping", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "pong"})
	})

	// Internal routes (webhook callbacks - should be secured with webhook secret in production)
	internal := v1.Group("/internal")
	internal.Post("/users", usersHandler.CreateUser)
	internal.Put("/users/:id", usersHandler.UpdateUser)

	protected := v1.Group("", middleware.ClerkAuth(cfg.ClerkSecretKey), middleware.ResolveUser(store))

	// Catalog maintenance, imports and invoice recomputation touch every
	// tenant-wide table; only admins may call them.
	admin := middleware.RequireAdmin()

	protected.Get("/user", usersHandler.GetUser)
	protected.Get("/summary", summaryHandler.GetSummary)

	protected.Get("/accounts", accountsHandler.GetAccounts)
	protected.Post("/accounts", accountsHandler.CreateAccount)
	protected.Get("/accounts/:id", accountsHandler.GetAccount)
	protected.Patch("/accounts/:id", accountsHandler.SetAccountActive)

	protected.Get("/categories", categoriesHandler.GetCategories)
	protected.Post("/categories", categoriesHandler.CreateCategory)
	protected.Delete("/categories/:id", categoriesHandler.DeleteCategory)

	protected.Get("/transactions", transactionHandler.GetTransactions)
	protected.Get("/transactions/stats", transactionHandler.GetTransactionStats)
	protected.Post("/transactions", transactionHandler.CreateTransaction)
	protected.Get("/transactions/:id", transactionHandler.GetTransaction)
	protected.Patch("/transactions/:id", transactionHandler.UpdateTransaction)
	protected.Post("/transactions/:id/settle", transactionHandler.SettleTransaction)
	protected.Post("/transactions/:id/cancel", transactionHandler.CancelTransaction)

	protected.Get("/cards", cardsHandler.GetCards)
	protected.Post("/cards", cardsHandler.CreateCard)
	protected.Get("/cards/:id", cardsHandler.GetCard)
	protected.Post("/cards/:id/purchases", cardsHandler.RegisterPurchase)
	protected.Get("/cards/:id/invoices", cardsHandler.GetInvoices)
	protected.Delete("/purchases/:group", cardsHandler.DeletePurchase)
	protected.Post("/invoices/refresh", admin, cardsHandler.RefreshInvoices)
	protected.Get("/invoices/:id", cardsHandler.GetInvoice)
	protected.Post("/invoices/:id/pay", cardsHandler.PayInvoice)

	protected.Post("/sales", salesHandler.RegisterSale)
	protected.Get("/sales", salesHandler.GetSales)
	protected.Get("/products/lookup", salesHandler.LookupProduct)
	protected.Get("/clients/lookup", salesHandler.LookupClient)
	protected.Post("/products", admin, catalogHandler.CreateProduct)
	protected.Post("/clients", admin, catalogHandler.CreateClient)

	protected.Get("/imports/presigned-url", importHandler.GetPresignedURL)
	protected.Post("/imports/process", admin, importHandler.ProcessImport)

	go func() {
		addr := ":" + strconv.Itoa(cfg.Port)
		log.Info().Str("addr", addr).Msg("erp API is running")
		if err := app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	waitForShutdown(app, cfg.ShutdownTimeout, log)
}

func waitForShutdown(app *fiber.App, timeout time.Duration, log zerolog.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Dur("timeout", timeout).Msg("shutting down")
	if err := app.ShutdownWithTimeout(timeout); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
