package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/ashmitsharp/erp-api/internal/config"
	"github.com/ashmitsharp/erp-api/internal/database"
	"github.com/ashmitsharp/erp-api/internal/database/db"
	"github.com/ashmitsharp/erp-api/internal/logger"
	"github.com/ashmitsharp/erp-api/internal/services"
)

// archiveMaxBytes matches the API upload limit.
const archiveMaxBytes = 10 * 1024 * 1024

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		logger.New("info").Fatal().Err(err).Msg("invalid configuration")
	}
	log := logger.New(cfg.LogLevel)

	switch os.Args[1] {
	case "import-sales":
		runImportSales(cfg, log)
	case "verify-skus":
		runVerifySKUs(cfg, log)
	case "update-stock":
		runUpdateStock(cfg, log)
	case "seed-admin":
		runSeedAdmin(cfg, log)
	case "migrate":
		runMigrate(cfg, log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("ERP CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  erpctl <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  import-sales   Reconcile a sales sheet into the sales API")
	fmt.Println("  verify-skus    Compare SKUs against the product catalog (read-only)")
	fmt.Println("  update-stock   Overwrite stock levels from a stock sheet")
	fmt.Println("  seed-admin     Create or promote an admin user")
	fmt.Println("  migrate        Apply the database schema")
	fmt.Println("  help           Show this help message")
	fmt.Println("\nRun 'erpctl <command> -h' for more information on a command.")
}

// signalContext is cancelled on SIGINT/SIGTERM so a run stops between rows.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) *database.Store {
	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	return database.NewStore(pool)
}

func resolveTenant(ctx context.Context, store *database.Store, clerkUserID string, log zerolog.Logger) uuid.UUID {
	if clerkUserID == "" {
		log.Fatal().Msg("Error: --user is required")
	}
	user, err := store.GetUserByClerkID(ctx, clerkUserID)
	if err != nil {
		log.Fatal().Err(err).Str("user", clerkUserID).Msg("unknown user")
	}
	return user.ID
}

func readSheet(path, sheet string, startRow int) ([]services.SheetRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return services.ReadCSV(f, startRow)
	}
	return services.ReadXLSX(f, sheet, startRow)
}

// askConfirm prints question and reads a y/N answer. Anything but y/yes is no.
func askConfirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func writeJSON(path string, v any) error {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, body, 0o644)
}

func runImportSales(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("import-sales", flag.ExitOnError)
	file := fs.String("file", "", "Path to the sales workbook (.xlsx or .csv)")
	sheet := fs.String("sheet", "", "Sheet name (defaults to the first sheet)")
	startRow := fs.Int("start-row", 4, "First data row (1-based)")
	year := fs.Int("year", time.Now().Year(), "Year for DD.MM dates")
	user := fs.String("user", "", "Clerk user id of the tenant")
	yes := fs.Bool("yes", false, "Skip the confirmation prompt")
	dryRun := fs.Bool("dry-run", false, "Stop after pre-flight")
	reportPath := fs.String("report", "", "Write the JSON report to this file")
	archive := fs.Bool("archive", false, "Upload the workbook and report to S3")
	fs.Parse(os.Args[2:])

	if *file == "" {
		log.Fatal().Msg("Error: --file is required")
	}

	ctx, cancel := signalContext()
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	rows, err := readSheet(*file, *sheet, *startRow)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("failed to read sheet")
	}

	store := openStore(ctx, cfg, log)
	userID := resolveTenant(ctx, store, *user, log)

	reconciler := services.NewReconciler(
		services.NewClientResolver(store),
		store,
		services.NewHTTPEmitter(cfg.IngestionBaseURL, cfg.IngestionToken, cfg.IngestionTimeout),
		services.NormalizeOptions{
			Year:          *year,
			BatchTag:      cfg.ImportBatchTag,
			SKUPrefix:     cfg.ImportSKUPrefix,
			ClientAliases: cfg.ImportClientAliases,
			DefaultClient: cfg.ImportDefaultClient,
		},
		cfg.ImportChannel,
		log,
	)

	report, err := reconciler.Run(ctx, userID, rows, services.RunOptions{
		Confirm: func(p services.Preflight) bool {
			fmt.Printf("Ready: %d  Skipped: %d  Excluded: %d\n", p.Ready, p.Skipped, p.Excluded)
			for _, u := range p.Unresolved {
				fmt.Printf("  unresolved client %q (rows %v) suggestions: %s\n", u.Name, u.Rows, strings.Join(u.Suggestions, ", "))
			}
			if *dryRun || p.Ready == 0 {
				return false
			}
			return *yes || askConfirm(os.Stdin, os.Stdout, fmt.Sprintf("Emit %d sales to %s?", p.Ready, cfg.IngestionBaseURL))
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("import failed")
	}

	fmt.Println(report.Summary())
	for _, f := range report.Failed {
		fmt.Printf("  row %d (%s): %s\n", f.Row, f.Key, f.Error)
	}

	if *reportPath != "" {
		if err := writeJSON(*reportPath, report); err != nil {
			log.Error().Err(err).Str("path", *reportPath).Msg("failed to write report")
		}
	}

	if *archive && !report.Aborted {
		archiveImport(ctx, cfg, log, userID, *file, report)
	}

	if len(report.Failed) > 0 || report.Interrupted {
		os.Exit(2)
	}
}

// archiveImport stores the workbook and its report under the tenant's
// import prefix, next to uploads made through the API.
func archiveImport(ctx context.Context, cfg *config.Config, log zerolog.Logger, userID uuid.UUID, path string, report *services.Report) {
	storage, err := services.NewStorageService(ctx, cfg.S3Bucket, cfg.S3Region, cfg.AWSEndpoint)
	if err != nil {
		log.Error().Err(err).Msg("archive skipped: storage unavailable")
		return
	}

	f, err := os.Open(path)
	if err != nil {
		log.Error().Err(err).Msg("archive skipped")
		return
	}
	defer f.Close()
	check, err := services.NewFileValidator(archiveMaxBytes).ValidateFile(f, filepath.Base(path), services.ContentTypeFor(path))
	if err != nil {
		log.Error().Err(err).Msg("archive skipped")
		return
	}
	if !check.Valid {
		log.Error().Strs("errors", check.Errors).Msg("archive skipped: workbook rejected")
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Error().Err(err).Msg("archive skipped")
		return
	}
	key, err := storage.GenerateUploadKey(userID.String(), filepath.Base(path))
	if err != nil {
		log.Error().Err(err).Msg("archive skipped")
		return
	}
	if err := storage.UploadFile(ctx, key, data, services.ContentTypeFor(path)); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to archive workbook")
		return
	}

	body, _ := json.MarshalIndent(report, "", "  ")
	if err := storage.UploadFile(ctx, services.ReportKey(key), body, "application/json"); err != nil {
		log.Error().Err(err).Msg("failed to archive report")
		if err := storage.DeleteFile(ctx, key); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("orphaned workbook left in storage")
		}
		return
	}
	log.Info().Str("key", key).Msg("import archived")
}

// readSKUList reads one SKU per line, ignoring blanks and # comments.
func readSKUList(r io.Reader) ([]string, error) {
	var skus []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		skus = append(skus, line)
	}
	return skus, scanner.Err()
}

func runVerifySKUs(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("verify-skus", flag.ExitOnError)
	file := fs.String("file", "", "Text file with one SKU per line")
	fromSheet := fs.String("from-sheet", "", "Read SKUs from the SKU column of a sales workbook")
	sheet := fs.String("sheet", "", "Sheet name for --from-sheet")
	startRow := fs.Int("start-row", 4, "First data row for --from-sheet")
	user := fs.String("user", "", "Clerk user id of the tenant")
	reportPath := fs.String("report", "", "Write the JSON report to this file")
	fs.Parse(os.Args[2:])

	var skus []string
	switch {
	case *file != "":
		data, err := os.ReadFile(*file)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to read SKU list")
		}
		if skus, err = readSKUList(bytes.NewReader(data)); err != nil {
			log.Fatal().Err(err).Msg("failed to read SKU list")
		}
	case *fromSheet != "":
		rows, err := readSheet(*fromSheet, *sheet, *startRow)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to read sheet")
		}
		for _, row := range rows {
			skus = append(skus, row.Col(services.ColSKU).Text)
		}
	default:
		log.Fatal().Msg("Usage: erpctl verify-skus (--file PATH | --from-sheet PATH) --user ID")
	}

	ctx, cancel := signalContext()
	defer cancel()

	store := openStore(ctx, cfg, log)
	userID := resolveTenant(ctx, store, *user, log)

	report, err := services.NewSKUVerifier(store).Verify(ctx, userID, skus)
	if err != nil {
		log.Fatal().Err(err).Msg("verification failed")
	}

	fmt.Println(report.String())
	for _, m := range report.ByCase {
		fmt.Printf("  case    %-24s -> %s\n", m.Input, m.Catalog)
	}
	for _, m := range report.ByFormat {
		fmt.Printf("  format  %-24s -> %s\n", m.Input, m.Catalog)
	}
	for _, sku := range report.Absent {
		fmt.Printf("  absent  %s\n", sku)
	}

	if *reportPath != "" {
		if err := writeJSON(*reportPath, report); err != nil {
			log.Error().Err(err).Msg("failed to write report")
		}
	}
}

func runUpdateStock(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("update-stock", flag.ExitOnError)
	file := fs.String("file", "", "Path to the stock workbook (.xlsx or .csv)")
	sheet := fs.String("sheet", "ESTOQUE", "Sheet name")
	startRow := fs.Int("start-row", 2, "First data row (1-based)")
	user := fs.String("user", "", "Clerk user id of the tenant")
	yes := fs.Bool("yes", false, "Skip the confirmation prompt")
	reportPath := fs.String("report", "", "Write the JSON report to this file")
	fs.Parse(os.Args[2:])

	if *file == "" {
		log.Fatal().Msg("Error: --file is required")
	}

	rows, err := readSheet(*file, *sheet, *startRow)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("failed to read sheet")
	}

	ctx, cancel := signalContext()
	defer cancel()

	store := openStore(ctx, cfg, log)
	userID := resolveTenant(ctx, store, *user, log)

	updater := services.NewStockUpdater(store, cfg.ImportSKUPrefix, log)
	report, err := updater.Apply(ctx, userID, rows, func(planned int) bool {
		if planned == 0 {
			return false
		}
		return *yes || askConfirm(os.Stdin, os.Stdout, fmt.Sprintf("Update stock for %d products?", planned))
	})
	if err != nil {
		log.Fatal().Err(err).Msg("stock update failed")
	}

	fmt.Println(report.Summary())
	for _, u := range report.Unknown {
		fmt.Printf("  row %d: unknown SKU %s\n", u.Row, u.Value)
	}

	if *reportPath != "" {
		if err := writeJSON(*reportPath, report); err != nil {
			log.Error().Err(err).Msg("failed to write report")
		}
	}
	if len(report.Failed) > 0 {
		os.Exit(2)
	}
}

func runSeedAdmin(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("seed-admin", flag.ExitOnError)
	clerkID := fs.String("clerk-id", "", "Clerk user id")
	email := fs.String("email", "", "Email address")
	name := fs.String("name", "", "Full name")
	fs.Parse(os.Args[2:])

	if *clerkID == "" || *email == "" {
		log.Fatal().Msg("Usage: erpctl seed-admin --clerk-id ID --email EMAIL [--name NAME]")
	}

	ctx := context.Background()
	store := openStore(ctx, cfg, log)

	var fullName *string
	if *name != "" {
		fullName = name
	}
	user, err := store.UpsertUser(ctx, db.UpsertUserParams{
		ID:          uuid.New(),
		ClerkUserID: *clerkID,
		Email:       *email,
		FullName:    fullName,
		IsAdmin:     true,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to seed admin")
	}

	fmt.Printf("Admin %s (%s) ready, tenant id %s\n", user.Email, user.ClerkUserID, user.ID)
}

func runMigrate(cfg *config.Config, log zerolog.Logger) {
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	fmt.Println("Schema applied.")
}
