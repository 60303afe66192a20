package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	HTTPAddr string

	// Storage
	Env       string // "dev" | "prod"
	Store     string // "memory" | "sqlite" | "remote"
	DBPath    string // e.g. "./data/sigeco.db"
	RemoteURL string // base URL of the remote document service

	// Collection caps
	MaxAccessRecords int
	MaxAuditLogs     int

	// Retention
	RetentionDays      int // 0 = keep forever
	PruneIntervalHours int // how often the pruner runs (default 6)
}

func FromEnv() Config {
	addr := getenvDefault("SIGECO_HTTP_ADDR", ":8080")

	env := strings.ToLower(getenvDefault("SIGECO_ENV", "dev"))
	if env != "dev" && env != "prod" {
		// fail-soft: treat unknown as dev
		env = "dev"
	}

	storeKind := strings.ToLower(getenvDefault("SIGECO_STORE", "sqlite"))
	switch storeKind {
	case "memory", "sqlite", "remote":
	default:
		storeKind = "sqlite"
	}

	dbPath := getenvDefault("SIGECO_DB_PATH", "./data/sigeco.db")
	remoteURL := strings.TrimSpace(os.Getenv("SIGECO_REMOTE_URL"))

	maxAccess := getenvInt("SIGECO_MAX_ACCESS_RECORDS", 1000)
	maxLogs := getenvInt("SIGECO_MAX_AUDIT_LOGS", 500)

	retentionDays := getenvInt("SIGECO_RETENTION_DAYS", 30)
	pruneInterval := getenvInt("SIGECO_PRUNE_INTERVAL_HOURS", 6)

	return Config{
		HTTPAddr: addr,
		Env:      env,

		Store:     storeKind,
		DBPath:    dbPath,
		RemoteURL: remoteURL,

		MaxAccessRecords: maxAccess,
		MaxAuditLogs:     maxLogs,

		RetentionDays:      retentionDays,
		PruneIntervalHours: pruneInterval,
	}
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
