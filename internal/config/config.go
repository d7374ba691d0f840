package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/taxi-claims-etl/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	ArchivePath string
	ExtractDir  string
	SkipExtract bool
	OutputPath  string
	ReportPath  string
	XLSXPath    string

	SynonymsFile   string
	Synonyms       map[string]string
	Sentinels      []string
	DurationPolicy domain.DurationPolicy
	SchemaPolicy   domain.SchemaPolicy

	// Optional trip publisher; disabled when KafkaBrokers is empty.
	KafkaBrokers []string
	KafkaTopic   string
	BatchSize    int

	PushgatewayURL string
	TracingEnabled bool

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	skipExtract, err := parseBool("SKIP_EXTRACT")
	if err != nil {
		return nil, err
	}
	tracing, err := parseBool("TRACING_ENABLED")
	if err != nil {
		return nil, err
	}

	durationPolicy, err := domain.ParseDurationPolicy(sharedcfg.EnvOrDefault("DURATION_POLICY", string(domain.DurationFlag)))
	if err != nil {
		return nil, fmt.Errorf("invalid DURATION_POLICY: %w", err)
	}
	schemaPolicy, err := domain.ParseSchemaPolicy(sharedcfg.EnvOrDefault("SCHEMA_POLICY", string(domain.SchemaStrict)))
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEMA_POLICY: %w", err)
	}

	cfg := &Config{
		ArchivePath: sharedcfg.EnvOrDefault("ARCHIVE_PATH", "data/taxi_trips.7z"),
		ExtractDir:  sharedcfg.EnvOrDefault("EXTRACT_DIR", "data/raw"),
		SkipExtract: skipExtract,
		OutputPath:  sharedcfg.EnvOrDefault("OUTPUT_PATH", "cleaned_taxi_data.csv"),
		ReportPath:  envOrDefaultAllowEmpty("REPORT_PATH", "cleaned_taxi_data.report.json"),
		XLSXPath:    os.Getenv("XLSX_PATH"),

		SynonymsFile:   os.Getenv("SYNONYMS_FILE"),
		Sentinels:      parseList(sharedcfg.EnvOrDefault("SENTINELS", strings.Join(domain.DefaultSentinels, ","))),
		DurationPolicy: durationPolicy,
		SchemaPolicy:   schemaPolicy,

		KafkaBrokers: sharedcfg.ParseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "cleaned-taxi-trips"),
		BatchSize:    batchSize,

		PushgatewayURL: os.Getenv("PUSHGATEWAY_URL"),
		TracingEnabled: tracing,

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	extra, err := LoadSynonyms(cfg.SynonymsFile)
	if err != nil {
		return nil, err
	}
	cfg.Synonyms = domain.NormalizeSynonyms(extra)

	if cfg.OutputPath == "" {
		return nil, errors.New("OUTPUT_PATH is required")
	}
	if len(cfg.Sentinels) == 0 {
		return nil, errors.New("SENTINELS must list at least one token")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// LoadSynonyms reads a YAML mapping of raw header spellings to canonical
// names. An empty path yields no extra synonyms.
func LoadSynonyms(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read SYNONYMS_FILE: %w", err)
	}
	var synonyms map[string]string
	if err := yaml.Unmarshal(data, &synonyms); err != nil {
		return nil, fmt.Errorf("parse SYNONYMS_FILE %s: %w", path, err)
	}
	for raw, canonical := range synonyms {
		if strings.TrimSpace(raw) == "" || strings.TrimSpace(canonical) == "" {
			return nil, fmt.Errorf("SYNONYMS_FILE %s: empty synonym entry %q: %q", path, raw, canonical)
		}
	}
	return synonyms, nil
}

func parseBool(key string) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

// envOrDefaultAllowEmpty returns def only when key is unset, so an explicit
// empty value disables the feature.
func envOrDefaultAllowEmpty(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
