package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nodalpair/nodalpair/pkg/kafka"
)

// Config holds all process configuration loaded from environment variables.
type Config struct {
	DataDir     string
	StudyPath   string
	DatabaseURL string
	LogLevel    string
	LogFormat   string
	Kafka       KafkaConfig
	Telemetry   TelemetryConfig
	// MaxRepairPasses bounds the resolver's repair loop.
	MaxRepairPasses int
	// MissingValueThreshold overrides the study's threshold when non-negative.
	MissingValueThreshold int
}

// KafkaConfig holds Kafka broker configuration. Publishing is enabled only
// when brokers are listed.
type KafkaConfig struct {
	Brokers       []string
	Topic         string
	SASLMechanism string
	SASLUsername  string
	SASLPassword  string
	TLSCAFile     string
	TLS           bool
}

// Enabled reports whether any broker is configured.
func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

// Client converts to the shared Kafka client configuration.
func (k KafkaConfig) Client(clientID string) kafka.Config {
	return kafka.Config{
		ClientID:      clientID,
		Brokers:       k.Brokers,
		TLS:           k.TLS,
		TLSCAFile:     k.TLSCAFile,
		SASLEnabled:   k.SASLMechanism != "",
		SASLMechanism: k.SASLMechanism,
		SASLUsername:  k.SASLUsername,
		SASLPassword:  k.SASLPassword,
	}
}

// TelemetryConfig holds OpenTelemetry and Pushgateway configuration.
type TelemetryConfig struct {
	ServiceName    string
	OTLPEndpoint   string
	PushgatewayURL string
	OTLPInsecure   bool
}

// Paths derives the working file locations from DataDir.
type Paths struct {
	Dataset  string
	SLNB     string
	ELND     string
	Pairings string
	Report   string
}

// Paths returns the file layout under DataDir. The report extension picks the
// export format.
func (c Config) Paths(reportFormat string) Paths {
	if reportFormat == "" {
		reportFormat = "csv"
	}
	return Paths{
		Dataset:  filepath.Join(c.DataDir, "input", "dataset.csv"),
		SLNB:     filepath.Join(c.DataDir, "input", "slnb.json"),
		ELND:     filepath.Join(c.DataDir, "input", "elnd.json"),
		Pairings: filepath.Join(c.DataDir, "output", "pairings.json"),
		Report:   filepath.Join(c.DataDir, "output", "pairings."+reportFormat),
	}
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	return Config{
		DataDir:     getEnv("DATA_DIR", "./data"),
		StudyPath:   getEnv("STUDY_CONFIG", ""),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
		Kafka: KafkaConfig{
			Brokers:       getEnvList("KAFKA_BROKERS"),
			Topic:         getEnv("KAFKA_TOPIC", "pairing.events"),
			TLS:           getEnvBool("KAFKA_TLS", false),
			TLSCAFile:     getEnv("KAFKA_TLS_CA_FILE", ""),
			SASLMechanism: getEnv("KAFKA_SASL_MECHANISM", ""),
			SASLUsername:  getEnv("KAFKA_SASL_USERNAME", ""),
			SASLPassword:  getEnv("KAFKA_SASL_PASSWORD", ""),
		},
		Telemetry: TelemetryConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "nodalpair"),
			OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			OTLPInsecure:   getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", false),
			PushgatewayURL: getEnv("PUSHGATEWAY_URL", ""),
		},
		MaxRepairPasses:       getEnvInt("MAX_REPAIR_PASSES", 1000),
		MissingValueThreshold: getEnvInt("MISSING_VALUE_THRESHOLD", -1),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvList(key string) []string {
	var out []string
	for _, s := range strings.Split(os.Getenv(key), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
