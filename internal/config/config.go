package config

import (
	"flag"
	"net/netip"
	"time"
)

type JournalType string

const (
	JournalMemory JournalType = "memory"
	JournalSQLite JournalType = "sqlite"
)

type Config struct {
	Port       int          // HTTP listen port
	Network    netip.Prefix // subnet camera servers may live in
	ServerPort int          // command port on the camera servers
	Timeout    time.Duration

	Journal           JournalType
	SQLitePath        string
	MaxJournalRecords int64

	StrictImages bool
	ServersFile  string

	LogFormat string
	LogLevel  string
}

func Parse() *Config {
	cfg := &Config{}

	flag.IntVar(&cfg.Port, "port", 8000, "Console API port")

	var networkStr string
	flag.StringVar(&networkStr, "network", "192.168.0.0/16", "Camera server subnet (CIDR)")

	flag.IntVar(&cfg.ServerPort, "server-port", 8000, "Command port on the camera servers")
	flag.DurationVar(&cfg.Timeout, "timeout", 5*time.Second, "Response timeout for batch actions")

	var journalStr string
	flag.StringVar(&journalStr, "journal", "memory", "Journal backend: memory or sqlite")
	flag.StringVar(&cfg.SQLitePath, "sqlite-path", "./journal.db", "SQLite journal path")
	flag.Int64Var(&cfg.MaxJournalRecords, "journal-max-records", 100000, "Journal retention limit")

	flag.BoolVar(&cfg.StrictImages, "strict-images", false, "Reject images whose owning server is unknown")
	flag.StringVar(&cfg.ServersFile, "servers", "", "YAML file with servers to add at startup")

	flag.StringVar(&cfg.LogFormat, "log-format", "text", "Log format: text or json")
	flag.StringVar(&cfg.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")

	flag.Parse()

	cfg.Journal = JournalType(journalStr)
	if cfg.Journal != JournalMemory && cfg.Journal != JournalSQLite {
		cfg.Journal = JournalMemory
	}

	network, err := netip.ParsePrefix(networkStr)
	if err != nil {
		network = netip.MustParsePrefix("192.168.0.0/16")
	}
	cfg.Network = network

	return cfg
}
