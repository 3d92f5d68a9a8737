package main

import (
	"context"
	"encoding/base64"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/iudanet/entrypack/internal/cache"
	"github.com/iudanet/entrypack/internal/crypto"
	"github.com/iudanet/entrypack/internal/dataaccess"
	"github.com/iudanet/entrypack/internal/entryinfo"
	"github.com/iudanet/entrypack/internal/events"
	"github.com/iudanet/entrypack/internal/models"
	"github.com/iudanet/entrypack/internal/storage/boltdb"
	"github.com/iudanet/entrypack/internal/storage/sqlite"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Глобальные флаги
	showVersion := flag.Bool("version", false, "Show version information")
	dbPath := flag.String("db", "entrypack.db", "Path to SQLite database")
	warningsPath := flag.String("warnings-db", "entrypack-warnings.db", "Path to warnings database")
	saltPath := flag.String("salt", "entrypack.salt", "Path to encryption salt file")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	command := args[0]
	ctx := context.Background()

	// Выводим ключ шифрования полей из парольной фразы
	passphrase, err := readPassphrase()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read passphrase: %v\n", err)
		os.Exit(1)
	}
	salt, err := loadOrCreateSalt(*saltPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load salt: %v\n", err)
		os.Exit(1)
	}
	key, err := crypto.DeriveFieldKey(passphrase, salt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to derive key: %v\n", err)
		os.Exit(1)
	}
	cipher, err := crypto.NewCipher(key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create cipher: %v\n", err)
		os.Exit(1)
	}

	// Открываем хранилища
	store, err := sqlite.New(ctx, *dbPath, cipher)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()

	warnings, err := boltdb.New(ctx, *warningsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open warnings database: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := warnings.Close(); err != nil {
			slog.Error("failed to close warnings database", "error", err)
		}
	}()

	logger := slog.Default()

	// Собираем граф сервисов: кэш, шина, машина состояний, фасад
	manager := cache.NewManager(cache.NewStore(), cache.DefaultTTL)
	bus := events.NewBus(logger)
	checker := entryinfo.NewService(
		entryinfo.Repositories{
			EntryInfo:    store,
			Passports:    store,
			PersonalInfo: store,
			TravelInfo:   store,
			FundItems:    store,
		},
		warnings,
		requiredFieldsCheck,
		nil,
		logger,
	)
	bus.SetReviewer(checker)
	facade := dataaccess.NewService(store, manager, bus, logger)

	switch command {
	case "stats":
		if err := runStats(ctx, facade, store, args[1:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "warnings":
		if err := runWarnings(ctx, checker, args[1:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "erase":
		if err := runErase(ctx, facade, warnings, args[1:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

// requiredFieldsCheck - минимальный локальный каталог обязательных полей.
// Страновые каталоги подключаются отдельным коллаборатором.
func requiredFieldsCheck(ctx context.Context, agg entryinfo.Aggregate) (models.CompletionMetrics, error) {
	metrics := models.CompletionMetrics{Categories: make(map[string]models.CategoryMetric)}

	passport := 0
	if agg.Passport != nil && agg.Passport.PassportNumber != "" {
		passport = 1
	} else {
		metrics.MissingFields = append(metrics.MissingFields, models.FieldPassportNumber)
	}
	metrics.Categories["passport"] = models.CategoryMetric{Completed: passport, Total: 1}

	travel := 0
	if agg.TravelInfo != nil && agg.TravelInfo.ArrivalDate != "" {
		travel = 1
	} else {
		metrics.MissingFields = append(metrics.MissingFields, models.FieldArrivalDate)
	}
	metrics.Categories["travel"] = models.CategoryMetric{Completed: travel, Total: 1}

	return metrics, nil
}

func runStats(ctx context.Context, facade *dataaccess.Service, store *sqlite.Storage, args []string) error {
	stats := facade.CacheStats()
	fmt.Printf("Cache: hits=%d misses=%d invalidations=%d hit_rate=%.2f\n",
		stats.Hits, stats.Misses, stats.Invalidations, stats.HitRate)

	if len(args) == 0 {
		return nil
	}
	userID := args[0]

	counts := []struct {
		table string
		fn    func(context.Context, string) (int64, error)
	}{
		{"passports", store.CountPassportsByUserID},
		{"personal_info", store.CountPersonalInfoByUserID},
		{"travel_info", store.CountTravelInfoByUserID},
		{"fund_items", store.CountFundItemsByUserID},
		{"entry_infos", store.CountEntryInfosByUserID},
	}
	for _, c := range counts {
		count, err := c.fn(ctx, userID)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d\n", c.table, count)
	}
	return nil
}

func runWarnings(ctx context.Context, checker *entryinfo.Service, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: entrypack warnings <user-id>")
	}
	warnings, err := checker.Warnings(ctx, args[0], 0)
	if err != nil {
		return err
	}
	if len(warnings) == 0 {
		fmt.Println("No pending resubmission warnings")
		return nil
	}
	for _, w := range warnings {
		fmt.Printf("%s  %s  %s\n", w.CreatedAt.Format("2006-01-02 15:04"), w.EntryInfoID, w.Reason)
	}
	return nil
}

func runErase(ctx context.Context, facade *dataaccess.Service, warnings *boltdb.Storage, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: entrypack erase <user-id>")
	}
	return facade.EraseUser(ctx, args[0], warnings)
}

// readPassphrase берет парольную фразу из окружения (для скриптов) или
// запрашивает ее с терминала без эха
func readPassphrase() (string, error) {
	if pass := os.Getenv("ENTRYPACK_PASSPHRASE"); pass != "" {
		return pass, nil
	}

	fmt.Print("Passphrase: ")
	fd := int(os.Stdin.Fd())
	passBytes, err := term.ReadPassword(fd)
	fmt.Println("")
	if err != nil {
		return "", err
	}
	return string(passBytes), nil
}

// loadOrCreateSalt читает соль из файла или создает новую при первом запуске
func loadOrCreateSalt(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		return base64.StdEncoding.DecodeString(string(data))
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	encoded, err := crypto.GenerateSaltBase64()
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, []byte(encoded), 0600); err != nil {
		return nil, fmt.Errorf("failed to write salt file: %w", err)
	}
	return base64.StdEncoding.DecodeString(encoded)
}

func printUsage() {
	fmt.Println("EntryPack - local travel document data layer")
	fmt.Println()
	fmt.Println("Usage: entrypack [flags] <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  stats [user-id]     Show cache statistics and record counts")
	fmt.Println("  warnings <user-id>  List pending resubmission warnings")
	fmt.Println("  erase <user-id>     Erase all data for a user")
	fmt.Println()
	fmt.Println("Flags:")
	flag.PrintDefaults()
}

func printVersion() {
	fmt.Printf("EntryPack\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
