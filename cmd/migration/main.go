package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/riskibarqy/fantasy-waivers/internal/platform/logging"
)

var errUsage = errors.New("usage")

func main() {
	logger := logging.NewJSON(logging.LevelInfo, "fantasy-waivers-migration", os.Getenv("APP_VERSION"))
	defer func() { _ = logger.Sync() }()

	if err := run(os.Args[1:], logger); err != nil {
		if errors.Is(err, errUsage) {
			printUsage()
			os.Exit(2)
		}
		logger.Error("migration failed", "error", err)
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(args []string, logger *logging.Logger) error {
	if len(args) == 0 {
		return errUsage
	}

	dbURL := strings.TrimSpace(os.Getenv("DB_URL"))
	if dbURL == "" {
		return fmt.Errorf("DB_URL is required")
	}
	dbURL = normalizeDBURL(dbURL, envBool("DB_DISABLE_PREPARED_BINARY_RESULT"))

	migrationsDir, err := resolveMigrationsDir()
	if err != nil {
		return err
	}

	sourceURL := "file://" + filepath.ToSlash(migrationsDir)
	m, err := migrate.New(sourceURL, dbURL)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer closeMigrator(m, logger)

	switch cmd := strings.ToLower(strings.TrimSpace(args[0])); cmd {
	case "up":
		if err := ignoreNoChange(m.Up(), logger); err != nil {
			return err
		}
		logger.Info("waiver migrations applied", "source", sourceURL)
	case "down":
		steps, err := parseSteps(args[1:])
		if err != nil {
			return err
		}
		if err := ignoreNoChange(m.Steps(-steps), logger); err != nil {
			return err
		}
		logger.Info("rolled back migrations", "steps", steps)
	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			logger.Info("migration version", "version", "none", "dirty", false)
			return nil
		}
		if err != nil {
			return fmt.Errorf("read version: %w", err)
		}
		logger.Info("migration version", "version", version, "dirty", dirty)
	case "force":
		if len(args) < 2 {
			return fmt.Errorf("force requires a version argument")
		}
		version, err := parseVersion(args[1])
		if err != nil {
			return err
		}
		if err := m.Force(version); err != nil {
			return fmt.Errorf("force version %d: %w", version, err)
		}
		logger.Warn("forced migration version", "version", version)
	case "goto", "migrate":
		if len(args) < 2 {
			return fmt.Errorf("%s requires a target version argument", cmd)
		}
		target, err := parseTarget(args[1])
		if err != nil {
			return err
		}
		if err := ignoreNoChange(m.Migrate(target), logger); err != nil {
			return err
		}
		logger.Info("migrated", "version", target)
	default:
		return errUsage
	}

	return nil
}

func parseSteps(args []string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}

	steps, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil {
		return 0, fmt.Errorf("invalid down steps %q: %w", args[0], err)
	}
	if steps <= 0 {
		return 0, fmt.Errorf("down steps must be > 0")
	}

	return steps, nil
}

func parseVersion(raw string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid version %q: %w", raw, err)
	}
	if value < 0 {
		return 0, fmt.Errorf("version must be >= 0")
	}
	return value, nil
}

func parseTarget(raw string) (uint, error) {
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid target version %q: %w", raw, err)
	}
	return uint(value), nil
}

func ignoreNoChange(err error, logger *logging.Logger) error {
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migration changes")
		return nil
	}
	return err
}

func closeMigrator(m *migrate.Migrate, logger *logging.Logger) {
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		logger.Warn("close migration source failed", "error", srcErr)
	}
	if dbErr != nil {
		logger.Warn("close migration db failed", "error", dbErr)
	}
}

func resolveMigrationsDir() (string, error) {
	candidates := []string{
		strings.TrimSpace(os.Getenv("MIGRATIONS_DIR")),
		"./db/migrations",
		"/app/db/migrations",
	}

	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		if info, err := os.Stat(abs); err == nil && info.IsDir() {
			return abs, nil
		}
	}

	return "", fmt.Errorf("migration directory not found (checked MIGRATIONS_DIR, ./db/migrations, /app/db/migrations)")
}

func normalizeDBURL(raw string, disablePreparedBinary bool) string {
	if !disablePreparedBinary {
		return raw
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed == nil {
		return raw
	}
	query := parsed.Query()
	if query.Get("disable_prepared_binary_result") == "" {
		query.Set("disable_prepared_binary_result", "yes")
		parsed.RawQuery = query.Encode()
	}
	return parsed.String()
}

func envBool(key string) bool {
	switch strings.TrimSpace(strings.ToLower(os.Getenv(key))) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func printUsage() {
	name := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "usage: %s <up|down|version|force|goto> [args]\n", name)
	fmt.Fprintf(os.Stderr, "  %s up\n  %s down 1\n  %s version\n  %s goto 1771776034\n", name, name, name, name)
}
