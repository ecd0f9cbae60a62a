package app

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/samber/lo"
	"github.com/shandysiswandi/gosignup/internal/pkg/clock"
	"github.com/shandysiswandi/gosignup/internal/pkg/config"
	"github.com/shandysiswandi/gosignup/internal/pkg/encrypt"
	"github.com/shandysiswandi/gosignup/internal/pkg/goroutine"
	"github.com/shandysiswandi/gosignup/internal/pkg/hash"
	"github.com/shandysiswandi/gosignup/internal/pkg/idempotency"
	"github.com/shandysiswandi/gosignup/internal/pkg/instrument"
	"github.com/shandysiswandi/gosignup/internal/pkg/jwt"
	"github.com/shandysiswandi/gosignup/internal/pkg/mail"
	"github.com/shandysiswandi/gosignup/internal/pkg/messaging"
	"github.com/shandysiswandi/gosignup/internal/pkg/router"
	"github.com/shandysiswandi/gosignup/internal/pkg/session"
	"github.com/shandysiswandi/gosignup/internal/pkg/sms"
	"github.com/shandysiswandi/gosignup/internal/pkg/uid"
	"github.com/shandysiswandi/gosignup/internal/pkg/validator"
	"github.com/shandysiswandi/gosignup/internal/signup"
	"github.com/shandysiswandi/gosignup/internal/signup/outbound/db"
)

const (
	storeMemory = "memory"
	storeRedis  = "redis"

	pingTimeout = 5 * time.Second
)

var (
	errEmptySecret  = errors.New("session.secret is empty or not base64")
	errUnknownStore = errors.New("unknown store")
)

func millis(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func (a *App) initConfig() error {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "/config/config.yaml"
		if os.Getenv("LOCAL") == "true" {
			path = "./config/config.yaml"
		}
	}

	cfg, err := config.NewViper(path)
	if err != nil {
		return err
	}
	a.config = cfg
	a.onClose("config", func(context.Context) error { return cfg.Close() })

	if tz := cfg.GetString("app.tz"); tz != "" {
		return os.Setenv("TZ", tz)
	}
	return nil
}

func (a *App) initInstrument() error {
	c := a.config
	ins, err := instrument.New(a.ctx, &instrument.Config{
		Enabled:          c.GetBool("instrument.enabled"),
		ServiceName:      c.GetString("instrument.service_name"),
		ServiceVersion:   c.GetString("instrument.service_version"),
		Environment:      c.GetString("instrument.env"),
		OTLPEndpoint:     c.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       c.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: c.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  c.GetSecond("instrument.metric_interval_seconds"),
		MaskFields:       c.GetArray("instrument.log_mask_fields"),
		LogLevel:         c.GetString("instrument.log_level"),
	})
	if err != nil {
		return err
	}

	a.ins = ins
	a.onClose("instrument", ins.Shutdown)
	return nil
}

// initLibraries builds the stateless helpers shared by every module.
func (a *App) initLibraries() error {
	c := a.config

	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.goroutine = goroutine.NewManager(c.GetInt("app.server.max_goroutine"))
	a.hmac = hash.NewHMACSHA256(c.GetString("hash.hmac.secret"))

	var err error
	if a.password, err = hash.NewPassword(c.GetString("hash.password_driver"), hash.PasswordOptions{
		BcryptCost:     c.GetInt("hash.bcrypt.cost"),
		BcryptPepper:   c.GetString("hash.bcrypt.pepper"),
		Argon2idPepper: c.GetString("hash.argon2id.pepper"),
	}); err != nil {
		return fmt.Errorf("password hash: %w", err)
	}
	if a.validator, err = validator.NewV10Validator(); err != nil {
		return fmt.Errorf("validator: %w", err)
	}
	if a.uid, err = uid.NewSnowflake(); err != nil {
		return fmt.Errorf("snowflake: %w", err)
	}
	if a.oid, err = uid.NewObjectIDGenerator(); err != nil {
		return fmt.Errorf("object id: %w", err)
	}

	secret := c.GetBinary("session.secret")
	if len(secret) == 0 {
		return errEmptySecret
	}
	a.encryptor = encrypt.NewAESGCM(encrypt.DerivedKey{Secret: secret})

	return nil
}

func (a *App) initJWT() (err error) {
	a.jwt, err = jwt.NewHS512(jwt.Config{
		Secret:    []byte(a.config.GetString("jwt.secret")),
		Issuer:    a.config.GetString("jwt.issuer"),
		Audiences: a.config.GetArray("jwt.audiences"),
		TTL:       a.config.GetMinute("jwt.ttl_minutes"),
		Clock:     a.clock,
		UUID:      a.uuid,
	})
	return err
}

// initDatabase opens the pool, checks it answers and applies the embedded
// migrations when database.migrate is set.
func (a *App) initDatabase() error {
	c := a.config

	pc, err := pgxpool.ParseConfig(c.GetString("database.url"))
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	pc.MaxConns = cmp.Or(c.GetInt32("database.pool.max_conns"), pc.MaxConns)
	pc.MinConns = c.GetInt32("database.pool.min_conns")
	pc.MaxConnLifetime = cmp.Or(c.GetSecond("database.pool.max_conn_lifetime_seconds"), pc.MaxConnLifetime)
	pc.MaxConnIdleTime = cmp.Or(c.GetSecond("database.pool.max_conn_idle_seconds"), pc.MaxConnIdleTime)
	pc.HealthCheckPeriod = cmp.Or(c.GetSecond("database.pool.health_check_period_seconds"), pc.HealthCheckPeriod)

	pool, err := pgxpool.NewWithConfig(a.ctx, pc)
	if err != nil {
		return err
	}
	a.dbConn = pool
	a.onClose("database", func(context.Context) error { pool.Close(); return nil })

	ctx, cancel := context.WithTimeout(a.ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}

	if c.GetBool("database.migrate") {
		if err := db.Migrate(a.ctx, pool); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// initCache dials redis only when a store is configured to use it.
func (a *App) initCache() error {
	c := a.config
	a.idemp = idempotency.NewMemory(a.clock)

	stores := []string{
		c.GetString("session.store"),
		c.GetString("idempotency.store"),
		c.GetString("modules.signup.otp_store"),
	}
	if !lo.Contains(stores, storeRedis) {
		return nil
	}

	opt, err := redis.ParseURL(c.GetString("redis.url"))
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}

	rdb := redis.NewClient(opt)
	a.cacheConn = rdb
	a.onClose("redis", func(context.Context) error { return rdb.Close() })

	ctx, cancel := context.WithTimeout(a.ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}

	if c.GetString("idempotency.store") == storeRedis {
		a.idemp = idempotency.New(rdb)
	}
	return nil
}

// redisClient returns the shared client, or nil when redis is not in use.
// The explicit nil keeps a nil *redis.Client out of the interface.
func (a *App) redisClient() redis.UniversalClient {
	if a.cacheConn == nil {
		return nil
	}
	return a.cacheConn
}

func (a *App) initSession() error {
	var store session.Store
	switch driver := a.config.GetString("session.store"); driver {
	case storeRedis:
		store = session.NewRedis(a.cacheConn)
	case storeMemory, "":
		store = session.NewMemory(a.clock)
	default:
		return fmt.Errorf("%w: %q", errUnknownStore, driver)
	}

	a.sessions = session.NewManager(store, a.hmac, a.oid, session.Config{
		CookieName: a.config.GetString("session.cookie_name"),
		Secure:     a.config.GetBool("session.secure"),
		TTL:        a.config.GetHour("session.ttl_hours"),
	})
	return nil
}

func (a *App) initMail() error {
	c := a.config
	relay, err := mail.NewSMTP(mail.SMTPConfig{
		Host:     c.GetString("mail.host"),
		Port:     c.GetInt("mail.port"),
		Username: c.GetString("mail.username"),
		Password: c.GetString("mail.password"),
		From:     c.GetString("mail.from"),
	})
	if err != nil {
		return err
	}

	a.mail = mail.NewRetrying(relay, c.GetUint64("mail.retry.attempts"), millis(c.GetInt("mail.retry.base_millis")))
	a.onClose("mail", func(context.Context) error { return a.mail.Close() })
	return nil
}

func (a *App) initSMS() error {
	c := a.config
	client, err := sms.New(sms.Config{
		Driver:     strings.TrimSpace(c.GetString("sms.driver")),
		BaseURL:    c.GetString("sms.base_url"),
		AccountSID: c.GetString("sms.account_sid"),
		AuthToken:  c.GetString("sms.auth_token"),
		From:       c.GetString("sms.from"),
		Timeout:    c.GetSecond("sms.timeout_seconds"),
		Retries:    c.GetUint64("sms.retry.attempts"),
		RetryBase:  millis(c.GetInt("sms.retry.base_millis")),
	})
	if err != nil {
		return err
	}

	a.sms = client
	a.onClose("sms", func(context.Context) error { return client.Close() })
	return nil
}

// initMessaging connects the event bus that carries user_registered.
func (a *App) initMessaging() error {
	c := a.config
	driver := c.GetString("messaging.driver")

	client, err := messaging.NewFromDriver(a.ctx, driver, messaging.FactoryOptions{
		NSQ: messaging.NSQConfig{
			ProducerAddr:         c.GetString("messaging.nsq.producer_addr"),
			ConsumerNSQDAddrs:    c.GetArray("messaging.nsq.consumer_nsqd_addrs"),
			ConsumerLookupdAddrs: c.GetArray("messaging.nsq.consumer_lookupd_addrs"),
		},
		NATS: messaging.NATSConfig{
			URL: c.GetString("messaging.nats.url"),
			Options: []nats.Option{
				nats.Name(c.GetString("messaging.nats.name")),
				nats.MaxReconnects(c.GetInt("messaging.nats.max_reconnects")),
				nats.Timeout(c.GetSecond("messaging.nats.timeout_seconds")),
				nats.ReconnectWait(c.GetSecond("messaging.nats.reconnect_wait_seconds")),
				nats.PingInterval(c.GetSecond("messaging.nats.ping_interval_seconds")),
				nats.MaxPingsOutstanding(c.GetInt("messaging.nats.max_pings_outstanding")),
				nats.RetryOnFailedConnect(c.GetBool("messaging.nats.retry_on_failed_connect")),
			},
		},
		Kafka: messaging.KafkaConfig{
			Brokers:  c.GetArray("messaging.kafka.brokers"),
			MaxBytes: c.GetInt("messaging.kafka.max_bytes"),
		},
		PubSub: messaging.PubSubConfig{
			ProjectID:       c.GetString("messaging.pubsub.project_id"),
			CredentialsJSON: c.GetBinary("messaging.pubsub.credentials_json"),
			Endpoint:        c.GetString("messaging.pubsub.endpoint"),
		},
	})
	if err != nil {
		return fmt.Errorf("driver %q: %w", driver, err)
	}

	a.messaging = client
	a.onClose("messaging", func(context.Context) error { return client.Close() })
	return nil
}

func (a *App) initHTTPServer() error {
	c := a.config
	a.router = router.NewRouter(router.Config{
		Config:          c,
		UUID:            a.uuid,
		JWT:             a.jwt,
		Instrument:      a.ins,
		Session:         a.sessions,
		PublicEndpoints: signup.PublicEndpoints,
	})

	// credentials are needed for the session cookie on cross-origin calls
	handler := cors.New(cors.Options{
		AllowedOrigins:   c.GetArray("app.server.cors"),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              c.GetString("app.server.http.address"),
		Handler:           handler,
		ReadTimeout:       c.GetSecond("app.server.http.read_timeout_seconds"),
		ReadHeaderTimeout: c.GetSecond("app.server.http.read_header_timeout_seconds"),
		WriteTimeout:      c.GetSecond("app.server.http.write_timeout_seconds"),
		IdleTimeout:       c.GetSecond("app.server.http.idle_timeout_seconds"),
	}
	return nil
}
