package kafka

// Config holds Kafka connection parameters.
type Config struct {
	// ClientID identifies this process to the brokers.
	ClientID string

	// SASL configuration for authentication.
	SASLMechanism string // "PLAIN" or "SCRAM-SHA-256" or "SCRAM-SHA-512"
	SASLUsername  string
	SASLPassword  string

	Brokers []string

	// TLSCAFile replaces the system root pool when set.
	TLSCAFile string

	// TLS enables TLS for Kafka connections.
	TLS         bool
	SASLEnabled bool
}
