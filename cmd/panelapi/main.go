package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"saha.org/internal/auth"
	"saha.org/internal/config"
	"saha.org/internal/httpapi"
	"saha.org/internal/obs"
	"saha.org/internal/permission"
	"saha.org/internal/session"
	"saha.org/internal/signer"
	"saha.org/internal/store/pg"
)

var version = "0.1.0"

func main() {
	obs.Init()
	obs.InitBuildInfo("saha-api", version)

	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("load .env: %v", err)
	}
	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var (
		db     *sql.DB
		users  auth.UserStore
		grants auth.GrantStore
	)
	if cfg.PGDSN != "" {
		store, err := pg.Open(cfg.PGDSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db = store.DB()
		users, grants = store, store
	} else {
		mem, err := demoStore(cfg)
		if err != nil {
			log.Fatalf("demo store: %v", err)
		}
		users, grants = mem, mem
		obs.Warn("memory_store", map[string]any{"demo_email": cfg.DemoEmail})
	}

	tokens, err := auth.NewTokens(cfg.AuthSecret, cfg.TokenTTL)
	if err != nil {
		log.Fatalf("tokens: %v", err)
	}
	svc := auth.NewService(users, grants, tokens, auth.NewCodeBook(cfg.CodeTTL, nil))

	verifier, err := signer.NewVerifier(cfg.AppSecret, signer.WithWindow(cfg.HashWindow))
	if err != nil {
		log.Fatalf("signature verifier: %v", err)
	}

	proxies, err := httpapi.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	api := httpapi.New(svc, verifier, httpapi.Readiness{DB: db}, version, httpapi.Options{
		RateBurst:      cfg.RateBurst,
		RatePerSecond:  cfg.RatePerSecond,
		LoginAttempts:  cfg.LoginAttempts,
		LoginWindow:    cfg.LoginWindow,
		AllowedOrigins: cfg.AllowedOrigins,
		TrustedProxies: proxies,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	obs.Info("server_starting", map[string]any{"version": version, "addr": srv.Addr})

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	obs.Info("server_stopping", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	obs.Info("server_stopped", nil)
}

// demoStore seeds one admin account with read access to the dashboard.
func demoStore(cfg *config.Server) (*auth.MemoryStore, error) {
	mem := auth.NewMemoryStore()
	if cfg.DemoPassword == "" {
		return mem, nil
	}
	hash, err := auth.HashPassword(cfg.DemoPassword)
	if err != nil {
		return nil, err
	}
	mem.PutUser(auth.User{
		ID:                  1,
		UserTypeID:          session.UserTypeAdmin,
		PermissionProfileID: 1,
		Firstname:           "Demo",
		Lastname:            "Admin",
		Email:               cfg.DemoEmail,
		PasswordHash:        hash,
		Active:              true,
		LoginEnabled:        true,
		CreatedAt:           time.Now().UTC(),
	})
	mem.PutGrants(1, []permission.Grant{
		{Link: "admin", View: "DashboardComponent", ViewPermission: permission.ViewPermission{Active: true, Read: true, Write: true}},
		{Link: "admin", View: "UsersComponent", ViewPermission: permission.ViewPermission{Active: true, Read: true, Write: true}},
	})
	return mem, nil
}
