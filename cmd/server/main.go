// Command server runs the ERP core API: tenant resolution, authorization,
// and the vendor slice behind them. Wiring lives here; business logic stays
// in the internal packages.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"erpcore/internal/audit"
	audithandler "erpcore/internal/audit/handler"
	auditstore "erpcore/internal/audit/store"
	authhandler "erpcore/internal/auth/handler"
	authmetrics "erpcore/internal/auth/metrics"
	authservice "erpcore/internal/auth/service"
	authstore "erpcore/internal/auth/store"
	"erpcore/internal/platform/config"
	"erpcore/internal/platform/database"
	"erpcore/internal/platform/httpserver"
	"erpcore/internal/platform/logger"
	"erpcore/internal/platform/redisclient"
	"erpcore/internal/ratelimit"
	ratelimitstore "erpcore/internal/ratelimit/store"
	"erpcore/internal/tenant"
	tenanthandler "erpcore/internal/tenant/handler"
	tenantmetrics "erpcore/internal/tenant/metrics"
	tenantservice "erpcore/internal/tenant/service"
	tenantstore "erpcore/internal/tenant/store"
	"erpcore/internal/token"
	httptransport "erpcore/internal/transport/http"
	vendorhandler "erpcore/internal/vendors/handler"
	vendorservice "erpcore/internal/vendors/service"
	vendorstore "erpcore/internal/vendors/store"
)

func main() {
	root := &cobra.Command{
		Use:          "server",
		Short:        "ERP core API server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context())
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// auditBackend is what the recorder writes to and the handler reads from.
type auditBackend interface {
	audit.Store
	audithandler.Lister
}

func run(ctx context.Context) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel)

	codec, err := token.NewCodec(cfg.JWTSigningKey, cfg.TokenIssuer, cfg.TokenTTL)
	if err != nil {
		return err
	}

	// Stores: postgres and redis when configured, in-process otherwise so a
	// single binary works for development.
	var (
		orgStore     tenantservice.Store
		userStore    authservice.Store
		vendorStore  vendorservice.Store
		auditStore   auditBackend
		counterStore ratelimit.CounterStore
	)

	if cfg.DatabaseDSN != "" {
		db, err := database.Open(cfg.DatabaseDSN)
		if err != nil {
			return err
		}
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("migrating schema: %w", err)
		}
		orgStore = tenantstore.NewGorm(db)
		userStore = authstore.NewGorm(db)
		vendorStore = vendorstore.NewGorm(db)
		auditStore = auditstore.NewGorm(db)
		log.Info("using postgres stores")
	} else {
		orgStore = tenantstore.NewInMemory()
		userStore = authstore.NewInMemory()
		vendorStore = vendorstore.NewInMemory()
		auditStore = auditstore.NewInMemory()
		log.Warn("no database configured, using in-memory stores")
	}

	if cfg.RedisAddr != "" {
		client, err := redisclient.New(cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer client.Close()
		counterStore = ratelimitstore.NewRedis(client, "erpcore")
		log.Info("using redis rate-limit counters", "addr", cfg.RedisAddr)
	} else {
		memCounters := ratelimitstore.NewInMemory()
		go memCounters.RunJanitor(ctx, time.Minute)
		counterStore = memCounters
		log.Warn("no redis configured, rate-limit counters are per-instance")
	}

	recorder := audit.NewRecorder(auditStore,
		audit.WithLogger(log),
		audit.WithMetrics(audit.NewMetrics()),
	)
	go func() {
		if err := recorder.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit recorder stopped", "error", err)
		}
	}()

	limiter := ratelimit.NewLimiter(counterStore,
		ratelimit.WithLogger(log),
		ratelimit.WithMetrics(ratelimit.NewMetrics()),
	)

	tMetrics := tenantmetrics.New()
	resolverOpts := []tenant.ResolverOption{
		tenant.WithLogger(log),
		tenant.WithMetrics(tMetrics),
	}
	if cfg.BaseDomain != "" {
		resolverOpts = append(resolverOpts, tenant.WithBaseDomain(cfg.BaseDomain))
	}
	resolver := tenant.NewResolver(orgStore, codec, resolverOpts...)

	authSvc := authservice.New(userStore, codec, limiter,
		authservice.WithLogger(log),
		authservice.WithMetrics(authmetrics.New()),
		authservice.WithRecorder(recorder),
	)
	tenantSvc := tenantservice.New(orgStore,
		tenantservice.WithLogger(log),
		tenantservice.WithMetrics(tMetrics),
		tenantservice.WithRecorder(recorder),
	)
	vendorSvc := vendorservice.New(vendorStore,
		vendorservice.WithLogger(log),
		vendorservice.WithRecorder(recorder),
	)

	router := httptransport.NewRouter(httptransport.Deps{
		Resolver: resolver,
		Limiter:  limiter,
		Auth:     authhandler.New(authSvc, resolver, log),
		Tenant:   tenanthandler.New(tenantSvc, log),
		Vendor:   vendorhandler.New(vendorSvc, log),
		Audit:    audithandler.New(auditStore, log),
	})

	srv := httpserver.New(cfg.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
