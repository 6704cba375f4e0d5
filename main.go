package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"HomelyBridge/internal/db"
	"HomelyBridge/internal/jobs"
	"HomelyBridge/pkg/homelyapi"
)

var (
	config Config
	srv    *http.Server
)

func init() {
	defer func() {
		if err := recover(); err != nil {
			log.Fatalf("error recovered: %v", err)
		}
	}()

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sc
		log.Info("received SIGTERM, exiting")
		cleanup()
		os.Exit(0)
	}()

	configPath := flag.String("config", "./config.toml", "Config file path (default: ./config.toml)")
	flag.Parse()
	config = LoadConfig(*configPath)
}

func cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			log.Errorf("failed to shutdown HTTP server: %v", err)
		}
	}
	jobs.Close()
	db.Close()
}

func main() {
	defer func() {
		if err := recover(); err != nil {
			log.Fatalf("error recovered: %v", err)
		}
	}()

	homelyapi.Init(config.Homely)
	db.Init(config.Redis)
	jobs.Init(config.Jobs)
	defer cleanup()

	r := http.NewServeMux()
	r.HandleFunc("/flow", HandleFlowStart)                     // start a setup flow
	r.HandleFunc("/flow/user", HandleFlowUser)                 // credentials step
	r.HandleFunc("/flow/installation", HandleFlowInstallation) // installation selection step
	r.HandleFunc("/alarm_state", HandleAlarmState)             // alarm sensor read model
	r.HandleFunc("/devices", HandleDevices)                    // device readings read model
	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	srv = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      middleware(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	var err error
	if tlsConfig := config.tlsConfig(); tlsConfig != nil { // with HTTPS
		srv.TLSConfig = tlsConfig
		log.Infof("started listening on %s (HTTPS)", srv.Addr)
		err = srv.ListenAndServeTLS("", "")
	} else { // without HTTPS
		log.Infof("started listening on %s", srv.Addr)
		err = srv.ListenAndServe()
	}
	if err != nil && err != http.ErrServerClosed {
		log.Errorf("error returned by HTTP server: %v", err)
	}
}
