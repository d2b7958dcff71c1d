package app

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/riskibarqy/fantasy-waivers/internal/config"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	"go.opentelemetry.io/otel/attribute"
)

const maxTracedQueryLength = 512

var (
	traceWhitespace    = regexp.MustCompile(`\s+`)
	traceStringLiteral = regexp.MustCompile(`'(?:[^']|'')*'`)
)

func openDB(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	dsn := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)

	db, err := otelsqlx.Open("postgres", dsn,
		otelsql.WithAttributes(attribute.String("db.system", "postgresql")),
		otelsql.WithDBName(dbNameFromURL(dsn)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return db, nil
}

// normalizeDBURL turns off binary results for prepared statements, which
// poolers in transaction mode cannot carry. An explicit value wins.
func normalizeDBURL(raw string, disablePreparedBinary bool) string {
	if !disablePreparedBinary {
		return raw
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" {
		return raw
	}
	query := parsed.Query()
	if query.Has("disable_prepared_binary_result") {
		return raw
	}
	query.Set("disable_prepared_binary_result", "yes")
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

// dbNameFromURL accepts both URL and key=value DSNs.
func dbNameFromURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if parsed, err := url.Parse(raw); err == nil && parsed.Scheme != "" {
		return strings.Trim(parsed.Path, "/ ")
	}

	for _, token := range strings.Fields(raw) {
		if name, ok := strings.CutPrefix(token, "dbname="); ok {
			return strings.Trim(name, `"'`)
		}
	}
	return ""
}

// formatDBQueryForTrace collapses whitespace and masks string literals so
// team and player ids inlined by seeds never land in span attributes.
func formatDBQueryForTrace(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return ""
	}

	query = traceStringLiteral.ReplaceAllString(query, "'?'")
	query = traceWhitespace.ReplaceAllString(query, " ")
	if len(query) > maxTracedQueryLength {
		return query[:maxTracedQueryLength] + "..."
	}
	return query
}
