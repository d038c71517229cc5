// Command ltpanel-server exposes check sessions over an HTTP REST API.
//
// Usage:
//
//	ltpanel-server -p 8080
//	ltpanel-server -p 8080 -config ltpanel.yaml
//	ltpanel-server -p 8080 -mode hunspell -dict /usr/share/hunspell -lang en_US
//	ltpanel-server -store redis -redis localhost:6379
//	ltpanel-server -addr 0.0.0.0 -root /srv/docs -fetch
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Alfex4936/ltpanel/internal/config"
	"github.com/Alfex4936/ltpanel/ltpanel"
)

func main() {
	port := flag.String("p", envOr("PORT", "8080"), "port to listen on")
	addr := flag.String("addr", envOr("ADDR", "localhost"), "interface to listen on")
	fileRoot := flag.String("root", envOr("FILE_ROOT", ""), "directory whose files clients may check and edit (disabled when empty)")
	fetch := flag.Bool("fetch", envOr("FETCH_PAGES", "") == "true", "let clients have the server fetch page urls")
	cfgPath := flag.String("config", envOr("LTPANEL_CONFIG", ""), "YAML config file (optional)")
	server := flag.String("server", envOr("LT_SERVER_URL", ""), "default LanguageTool API base URL")
	mode := flag.String("mode", envOr("MODE", ""), "backend: remote | hunspell")

	// hunspell flags
	dictDir := flag.String("dict", envOr("DICT_DIR", ""), "hunspell dictionary directory (hunspell mode)")
	lang := flag.String("lang", envOr("DICT_LANG", ""), "hunspell dictionary name (hunspell mode)")

	// store flags
	driver := flag.String("store", envOr("STORE_DRIVER", ""), "settings store: file | sqlite | redis | memory")
	storePath := flag.String("store-path", envOr("STORE_PATH", ""), "file or sqlite path")
	redisAddr := flag.String("redis", envOr("REDIS_ADDR", ""), "redis address (redis store)")

	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}
	override(&cfg.ServerURL, *server)
	override(&cfg.Checker.Backend, *mode)
	override(&cfg.Checker.DictDir, *dictDir)
	override(&cfg.Checker.Lang, *lang)
	override(&cfg.Store.Driver, *driver)
	override(&cfg.Store.Path, *storePath)
	override(&cfg.Store.RedisAddr, *redisAddr)
	if err := cfg.Validate(); err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(log)

	env, err := ltpanel.NewEnv(cfg, log)
	if err != nil {
		log.Error("init failed", "err", err)
		os.Exit(1)
	}
	defer env.Close()

	srv := ltpanel.NewServer(ltpanel.EnvFactory(env), log)
	srv.FileRoot = *fileRoot
	srv.FetchPages = *fetch
	defer srv.Close()

	httpSrv := &http.Server{
		Addr:              net.JoinHostPort(*addr, *port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpSrv.Shutdown(shutdownCtx)
	}()

	log.Info("ltpanel server listening",
		"addr", "http://"+httpSrv.Addr,
		"file_root", *fileRoot,
		"fetch_pages", *fetch,
		"backend", cfg.Checker.Backend,
		"store", cfg.Store.Driver,
		"server_url", cfg.ServerURL,
	)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
