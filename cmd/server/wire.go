package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"zkid/internal/audit"
	auditsink "zkid/internal/audit/sink"
	auditstore "zkid/internal/audit/store"
	authservice "zkid/internal/auth/service"
	userstore "zkid/internal/auth/store/user"
	"zkid/internal/auth/token"
	"zkid/internal/chain"
	"zkid/internal/ocr"
	"zkid/internal/pages"
	"zkid/internal/platform/config"
	"zkid/internal/platform/database"
	"zkid/internal/platform/metrics"
	"zkid/internal/platform/middleware"
	platformredis "zkid/internal/platform/redis"
	pollhandler "zkid/internal/polls/handler"
	pollservice "zkid/internal/polls/service"
	pollstore "zkid/internal/polls/store"
	"zkid/internal/ratelimit"
	"zkid/internal/ratelimit/store/bucket"
	"zkid/internal/session"
	sessionhandler "zkid/internal/session/handler"
	sessionservice "zkid/internal/session/service"
	sessionstore "zkid/internal/session/store"
	kychandler "zkid/internal/verification/handler"
	kycservice "zkid/internal/verification/service"
	"zkid/internal/verification/store/records"
	"zkid/internal/verification/store/workflow"
	"zkid/pkg/platform/circuit"
	"zkid/pkg/platform/httputil"
	txcontext "zkid/pkg/platform/tx"
)

// One store value serves several services, so these interfaces union
// what each consumer needs.
type (
	userStore interface {
		authservice.UserStore
		kycservice.UserStore
	}
	recordStore interface {
		kycservice.RecordStore
		pollservice.DetailsReader
	}
	walletStore interface {
		sessionservice.WalletStore
		session.WalletReader
	}
)

// processingMargin is added to the OCR timeout before an upload's
// processing marker is considered abandoned.
const processingMargin = 30 * time.Second

type stores struct {
	users    userStore
	records  recordStore
	workflow kycservice.WorkflowStore
	polls    pollservice.Store
	audit    audit.Store
	wallets  walletStore
	buckets  ratelimit.BucketStore
	tx       kycservice.TxRunner
}

type app struct {
	router  http.Handler
	audit   *audit.Publisher
	storage string
	closers []func() error
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

// build wires stores, services and routes. Metrics register on reg and
// are served from it at /metrics.
func build(ctx context.Context, cfg config.Config, log *slog.Logger, reg *prometheus.Registry) (_ *app, err error) {
	a := &app{storage: "memory"}
	defer func() {
		if err != nil {
			a.close()
		}
	}()
	m := metrics.NewWithRegistry(reg)

	var db *sql.DB
	if cfg.Database.URL != "" {
		db, err = database.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		if err := database.Migrate(ctx, db); err != nil {
			return nil, err
		}
		a.storage = "postgres"
	}
	rc, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if rc != nil {
		a.closers = append(a.closers, rc.Close)
	}
	st := newStores(db, rc, cfg)

	sink, err := newAuditSink(cfg.Audit)
	if err != nil {
		return nil, err
	}
	pubOpts := []audit.Option{audit.WithLogger(log), audit.WithMetrics(m)}
	if sink != nil {
		pubOpts = append(pubOpts, audit.WithSink(sink, cfg.Audit.BufferSize))
	}
	a.audit = audit.NewPublisher(st.audit, pubOpts...)

	anchor, err := chain.NewAnchorer(cfg.Solana, log, m)
	if err != nil {
		return nil, err
	}

	tokens := token.New(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
	authSvc := authservice.New(st.users, a.audit, m, log)
	walletSvc := sessionservice.New(st.wallets, cfg.Session.StateTTL, a.audit, log)
	kycSvc := kycservice.New(st.workflow, st.records, st.users, st.tx, newOCRClient(cfg.OCR, log), log,
		kycservice.WithLimiter(ratelimit.New(st.buckets, cfg.Limits.UploadsPerWindow, cfg.Limits.UploadWindow)),
		kycservice.WithAnchor(anchor),
		kycservice.WithAudit(a.audit),
		kycservice.WithMetrics(m),
		kycservice.WithPublicOrigin(cfg.Server.PublicOrigin),
		kycservice.WithProcessingTimeout(cfg.OCR.Timeout+processingMargin),
	)
	pollSvc := pollservice.New(st.polls, st.records, st.tx, log,
		pollservice.WithAudit(a.audit),
		pollservice.WithMetrics(m),
	)

	r := chi.NewRouter()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(log))
	r.Use(middleware.LatencyMiddleware(m))

	r.Get("/healthz", healthHandler(db, rc))
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(cfg.Server.RequestTimeout))
		r.Use(middleware.AllowContentTypes("application/json", "multipart/form-data"))
		r.Use(session.Middleware(tokens, st.users, st.wallets, log))

		pages.New(authSvc, kycSvc, pollSvc, log).Register(r)
		sessionhandler.New(walletSvc, log).Register(r)
		kychandler.New(kycSvc, cfg.OCR.MaxImageBytes, log).Register(r)
		pollhandler.New(pollSvc, cfg.Server.AdminToken, log).Register(r)
	})

	a.router = r
	return a, nil
}

func newStores(db *sql.DB, rc *platformredis.Client, cfg config.Config) stores {
	var st stores
	if db != nil {
		st.users = userstore.NewPostgres(db)
		st.records = records.NewPostgres(db)
		st.polls = pollstore.NewPostgres(db)
		st.audit = auditstore.NewPostgres(db)
		st.tx = database.NewPostgresTx(db, cfg.Database.TxTimeout)
	} else {
		st.users = userstore.New()
		st.records = records.NewInMemory()
		st.polls = pollstore.NewInMemory()
		st.audit = auditstore.NewInMemoryStore()
		st.tx = txcontext.NewLocal()
	}
	if rc != nil {
		st.workflow = workflow.NewRedis(rc.Client, cfg.Session.StateTTL)
		st.wallets = sessionstore.NewRedisWalletStore(rc.Client)
		st.buckets = bucket.NewRedis(rc.Client)
	} else {
		st.workflow = workflow.NewInMemory(cfg.Session.StateTTL)
		st.wallets = sessionstore.NewInMemoryWalletStore()
		st.buckets = bucket.New()
	}
	return st
}

func newAuditSink(cfg config.Audit) (audit.Sink, error) {
	switch cfg.Sink {
	case config.AuditSinkKafka:
		return auditsink.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic)
	case config.AuditSinkRabbitMQ:
		return auditsink.NewRabbitMQ(cfg.AMQPURL, cfg.AMQPExchange)
	case config.AuditSinkNone, "":
		return nil, nil
	}
	return nil, fmt.Errorf("unknown audit sink %q", cfg.Sink)
}

// newOCRClient uses Gemini behind a circuit breaker when a key is set and
// the static development client otherwise.
func newOCRClient(cfg config.OCR, log *slog.Logger) ocr.Client {
	if cfg.APIKey == "" {
		log.Warn("OCR_API_KEY not set; documents are verified by the static development client")
		return ocr.NewStatic(log)
	}
	gemini := ocr.NewGemini(cfg.APIKey,
		ocr.WithEndpoint(cfg.Endpoint),
		ocr.WithModel(cfg.Model),
		ocr.WithTimeout(cfg.Timeout),
	)
	breaker := circuit.New("ocr",
		circuit.WithFailureThreshold(cfg.FailureThreshold),
		circuit.WithCooldown(cfg.Cooldown),
	)
	return ocr.NewBreakerClient(gemini, breaker, log)
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Redis    string `json:"redis"`
}

func healthHandler(db *sql.DB, rc *platformredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		resp := healthResponse{Status: "ok", Database: "memory", Redis: "memory"}
		var failed error
		if db != nil {
			resp.Database = "ok"
			if err := db.PingContext(ctx); err != nil {
				resp.Database = "unavailable"
				failed = errors.Join(failed, err)
			}
		}
		if rc != nil {
			resp.Redis = "ok"
			if err := rc.Health(ctx); err != nil {
				resp.Redis = "unavailable"
				failed = errors.Join(failed, err)
			}
		}
		status := http.StatusOK
		if failed != nil {
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
		httputil.WriteJSON(w, status, resp)
	}
}
