package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full process configuration, read once at startup.
type Config struct {
	Server   Server
	Auth     Auth
	Database Database
	Redis    RedisConfig
	OCR      OCR
	Solana   Solana
	Audit    Audit
	Limits   Limits
	Session  Session
	LogLevel string
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	PublicOrigin    string
	AdminToken      string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// Auth configures validation of access tokens minted by the identity provider.
type Auth struct {
	JWTSigningKey string
	Issuer        string
	Audience      string
}

// Database selects Postgres when URL is set, in-memory stores otherwise.
type Database struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	TxTimeout       time.Duration
}

// RedisConfig selects Redis-backed session and limiter state when URL is set.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// OCR configures the document extraction model.
type OCR struct {
	APIKey           string
	Endpoint         string
	Model            string
	Timeout          time.Duration
	MaxImageBytes    int
	FailureThreshold int
	Cooldown         time.Duration
}

// Solana configures the on-chain proof anchor. Submit=false keeps it a dry run.
type Solana struct {
	RPCURL       string
	ProgramID    string
	Submit       bool
	PayerKeyPath string
}

// Audit configures the optional broker fan-out of audit events.
type Audit struct {
	Sink         string // "none", "kafka" or "rabbitmq"
	KafkaBrokers []string
	KafkaTopic   string
	AMQPURL      string
	AMQPExchange string
	BufferSize   int
}

// Limits bounds OCR uploads per user.
type Limits struct {
	UploadsPerWindow int
	UploadWindow     time.Duration
}

// Session configures per-user state retention.
type Session struct {
	StateTTL time.Duration
}

const (
	AuditSinkNone     = "none"
	AuditSinkKafka    = "kafka"
	AuditSinkRabbitMQ = "rabbitmq"
)

// FromEnv loads a .env file when present, then builds Config from the
// process environment. Malformed numbers or durations are errors.
func FromEnv() (Config, error) {
	_ = godotenv.Load()

	r := reader{}
	cfg := Config{
		Server: Server{
			Addr:            r.str("ZKID_ADDR", ":8080"),
			PublicOrigin:    strings.TrimRight(r.str("ZKID_PUBLIC_ORIGIN", "http://localhost:8080"), "/"),
			AdminToken:      r.str("ADMIN_API_TOKEN", ""),
			ReadTimeout:     r.duration("HTTP_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    r.duration("HTTP_WRITE_TIMEOUT", 60*time.Second),
			RequestTimeout:  r.duration("HTTP_REQUEST_TIMEOUT", 45*time.Second),
			ShutdownTimeout: r.duration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Auth: Auth{
			// Use a default for development - should be overridden in production
			JWTSigningKey: r.str("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			Issuer:        r.str("JWT_ISSUER", ""),
			Audience:      r.str("JWT_AUDIENCE", ""),
		},
		Database: Database{
			URL:             r.str("DATABASE_URL", ""),
			MaxOpenConns:    r.int("DATABASE_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    r.int("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: r.duration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
			TxTimeout:       r.duration("DATABASE_TX_TIMEOUT", 5*time.Second),
		},
		Redis: RedisConfig{
			URL:          r.str("REDIS_URL", ""),
			PoolSize:     r.int("REDIS_POOL_SIZE", 10),
			MinIdleConns: r.int("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  r.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  r.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: r.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		OCR: OCR{
			APIKey:           r.str("GEMINI_API_KEY", ""),
			Endpoint:         strings.TrimRight(r.str("GEMINI_ENDPOINT", "https://generativelanguage.googleapis.com"), "/"),
			Model:            r.str("GEMINI_MODEL", "gemini-1.5-flash"),
			Timeout:          r.duration("OCR_TIMEOUT", 30*time.Second),
			MaxImageBytes:    r.int("OCR_MAX_IMAGE_BYTES", 8<<20),
			FailureThreshold: r.int("OCR_BREAKER_FAILURES", 5),
			Cooldown:         r.duration("OCR_BREAKER_COOLDOWN", 30*time.Second),
		},
		Solana: Solana{
			RPCURL:       r.str("SOLANA_RPC_URL", "https://api.devnet.solana.com"),
			ProgramID:    r.str("SOLANA_PROGRAM_ID", "F9BEdj8sdPevfz2mYCxC3seg9MW9edLRUyGs8gsPjmRx"),
			Submit:       r.bool("SOLANA_SUBMIT", false),
			PayerKeyPath: r.str("SOLANA_PAYER_KEYPAIR", ""),
		},
		Audit: Audit{
			Sink:         strings.ToLower(r.str("AUDIT_SINK", AuditSinkNone)),
			KafkaBrokers: r.list("KAFKA_BROKERS"),
			KafkaTopic:   r.str("KAFKA_AUDIT_TOPIC", "zkid.audit"),
			AMQPURL:      r.str("AMQP_URL", ""),
			AMQPExchange: r.str("AMQP_AUDIT_EXCHANGE", "zkid.audit"),
			BufferSize:   r.int("AUDIT_BUFFER_SIZE", 256),
		},
		Limits: Limits{
			UploadsPerWindow: r.int("UPLOAD_LIMIT", 10),
			UploadWindow:     r.duration("UPLOAD_LIMIT_WINDOW", time.Hour),
		},
		Session: Session{
			StateTTL: r.duration("SESSION_STATE_TTL", 24*time.Hour),
		},
		LogLevel: r.str("LOG_LEVEL", "info"),
	}
	if r.err != nil {
		return Config{}, r.err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Audit.Sink {
	case AuditSinkNone:
	case AuditSinkKafka:
		if len(c.Audit.KafkaBrokers) == 0 {
			return fmt.Errorf("AUDIT_SINK=kafka requires KAFKA_BROKERS")
		}
	case AuditSinkRabbitMQ:
		if c.Audit.AMQPURL == "" {
			return fmt.Errorf("AUDIT_SINK=rabbitmq requires AMQP_URL")
		}
	default:
		return fmt.Errorf("unknown AUDIT_SINK %q", c.Audit.Sink)
	}
	if c.Solana.Submit && c.Solana.PayerKeyPath == "" {
		return fmt.Errorf("SOLANA_SUBMIT=true requires SOLANA_PAYER_KEYPAIR")
	}
	if c.Limits.UploadsPerWindow <= 0 {
		return fmt.Errorf("UPLOAD_LIMIT must be positive")
	}
	return nil
}

// reader keeps the first parse error so FromEnv can report it once.
type reader struct {
	err error
}

func (r *reader) str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func (r *reader) int(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (r *reader) bool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func (r *reader) list(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (r *reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}
