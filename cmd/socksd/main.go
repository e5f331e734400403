package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/quintusl/socksd/internal/api"
	"github.com/quintusl/socksd/internal/auth"
	"github.com/quintusl/socksd/internal/config"
	"github.com/quintusl/socksd/internal/dispatch"
	"github.com/quintusl/socksd/internal/httpproxy"
	"github.com/quintusl/socksd/internal/logging"
	"github.com/quintusl/socksd/internal/metrics"
	"github.com/quintusl/socksd/internal/relay"
	"github.com/quintusl/socksd/internal/resolver"
	"github.com/quintusl/socksd/internal/socks5"
	"github.com/quintusl/socksd/internal/userstore"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "validate":
			os.Exit(runValidate(os.Args[2:]))
		case "user":
			os.Exit(runUser(os.Args[2:]))
		}
	}
	runDaemon(os.Args[1:])
}

// runDaemon is the default invocation: load config (applying CLI > env >
// file precedence), wire every component, and serve until a shutdown
// signal arrives.
func runDaemon(args []string) {
	fs := flag.NewFlagSet("socksd", flag.ExitOnError)
	configPath := fs.String("c", "config.yml", "path to configuration file")
	genConfig := fs.String("g", "", "write default configuration to FILE and exit")
	verbose := fs.Bool("v", false, "raise verbosity to debug")
	veryVerbose := fs.Bool("vv", false, "raise verbosity to trace")
	quiet := fs.Bool("q", false, "quiet: errors only")
	bindAddr := fs.String("b", "", "override server.bind_address")
	httpPort := fs.Int("p", 0, "override server.http_port")
	socks5Port := fs.Int("s", 0, "override server.socks5_port")
	logLevel := fs.String("l", "", "override logging.level")
	fs.Parse(args)

	if *genConfig != "" {
		if err := config.Default().Save(*genConfig); err != nil {
			log.Fatalf("writing default config: %v", err)
		}
		log.Printf("wrote default configuration to %s", *genConfig)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Printf("config file %s not found, using built-in defaults", *configPath)
			cfg = config.Default()
		} else {
			log.Fatalf("loading config: %v", err)
		}
	}

	applyEnvOverrides(cfg)
	applyCLIOverrides(cfg, *bindAddr, *httpPort, *socks5Port, *logLevel, *verbose, *veryVerbose, *quiet)

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	closer, err := logging.Setup(cfg.Logging)
	if err != nil {
		log.Fatalf("setting up logging: %v", err)
	}
	if closer != nil {
		defer closer.Close()
	}

	log.Printf("socksd starting (socks5=%d http=%d api=%d)",
		cfg.Server.Socks5Port, cfg.Server.HTTPPort, cfg.Server.APIPort)

	authenticator, userWatcher, err := buildAuthenticator(cfg)
	if err != nil {
		log.Fatalf("configuring authentication: %v", err)
	}
	if userWatcher != nil {
		defer userWatcher.Stop()
	}

	m := metrics.New()
	res := resolver.New()
	dialer := &tcpDialer{}

	socksHandler := &socks5.Handler{
		AuthEnabled:   cfg.Auth.Enabled,
		Authenticator: authenticator,
		Resolver:      res,
		Dialer:        dialer,
		Relay:         relay.Copy,
		OnAuthOutcome: func(ok bool) { m.AuthOutcome("socks5", ok) },
		OnRelayBytes: func(clientToUpstream, upstreamToClient int64) {
			m.RelayBytes("socks5", "client_to_upstream", clientToUpstream)
			m.RelayBytes("socks5", "upstream_to_client", upstreamToClient)
		},
	}

	httpHandler := &httpproxy.Handler{
		AuthEnabled:    cfg.Auth.Enabled,
		Authenticator:  authenticator,
		Dialer:         dialer,
		Relay:          relay.Copy,
		MaxRequestSize: int64(cfg.Security.MaxRequestSize),
		OnAuthOutcome:  func(ok bool) { m.AuthOutcome("http", ok) },
		OnRelayBytes: func(clientToUpstream, upstreamToClient int64) {
			m.RelayBytes("http", "client_to_upstream", clientToUpstream)
			m.RelayBytes("http", "upstream_to_client", upstreamToClient)
		},
	}

	connTimeout := time.Duration(cfg.Server.ConnectionTimeout) * time.Second
	srv := dispatch.New(int64(cfg.Server.MaxConnections), connTimeout, socksHandler, httpHandler)
	srv.OnAdmitWait = func(listener string, waited time.Duration) {
		m.AdmissionWait(listener, waited)
	}
	srv.OnConnectionStart = func(listener string) {
		m.ConnectionAccepted(listener)
	}
	srv.OnConnectionEnd = func(listener string, d time.Duration) {
		m.ConnectionClosed(listener)
		m.SessionCompleted(listener, d)
	}

	if err := srv.ListenSOCKS5(cfg.Socks5BindAddr()); err != nil {
		log.Fatalf("starting socks5 listener: %v", err)
	}
	if err := srv.ListenHTTP(cfg.HTTPBindAddr()); err != nil {
		log.Fatalf("starting http listener: %v", err)
	}

	var apiServer *api.Server
	if cfg.Server.APIPort != 0 {
		apiServer = api.NewServer(cfg, m, srv)
		if err := apiServer.Start(cfg.Server.APIPort); err != nil {
			log.Fatalf("starting api server: %v", err)
		}
	}

	log.Printf("socksd ready")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("received signal %s, shutting down", sig)

	if apiServer != nil {
		apiServer.Stop()
	}
	srv.Stop()

	log.Printf("socksd stopped")
}

// buildAuthenticator constructs the configured Authenticator. For the
// simple backend it loads the userstore.Store directly (rather than
// going through auth.New) so the credential file can be hot-reloaded
// without restarting the daemon.
func buildAuthenticator(cfg *config.Config) (auth.Authenticator, *userstore.Watcher, error) {
	if !cfg.Auth.Enabled {
		return nil, nil, nil
	}

	if cfg.Auth.Backend.Type == config.BackendSimple {
		store, err := userstore.Load(cfg.Auth.Backend.UserConfigFile)
		if err != nil {
			return nil, nil, err
		}
		watcher, err := userstore.WatchStore(store)
		if err != nil {
			log.Printf("user credential hot-reload not available: %v", err)
			watcher = nil
		}
		return auth.NewSimple(store), watcher, nil
	}

	a, err := auth.New(cfg.Auth.Backend)
	if err != nil {
		return nil, nil, err
	}
	return a, nil, nil
}

func applyEnvOverrides(cfg *config.Config) {
	if v := os.Getenv("RUST_SOCKSD_BIND_ADDRESS"); v != "" {
		cfg.Server.BindAddress = v
	}
	if v := os.Getenv("RUST_SOCKSD_HTTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.HTTPPort = port
		}
	}
	if v := os.Getenv("RUST_SOCKSD_SOCKS5_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Socks5Port = port
		}
	}
	if v := os.Getenv("RUST_SOCKSD_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

func applyCLIOverrides(cfg *config.Config, bindAddr string, httpPort, socks5Port int, logLevel string, verbose, veryVerbose, quiet bool) {
	if bindAddr != "" {
		cfg.Server.BindAddress = bindAddr
	}
	if httpPort != 0 {
		cfg.Server.HTTPPort = httpPort
	}
	if socks5Port != 0 {
		cfg.Server.Socks5Port = socks5Port
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	switch {
	case quiet:
		cfg.Logging.Level = "error"
	case veryVerbose:
		cfg.Logging.Level = "trace"
	case verbose:
		cfg.Logging.Level = "debug"
	}
}

func runValidate(args []string) int {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configPath := fs.String("c", "config.yml", "path to configuration file")
	fs.Parse(args)

	if _, err := config.Load(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		return 1
	}
	fmt.Println("configuration is valid")
	return 0
}

func runUser(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: socksd user {init|add|remove|list|update|enable} --user-config FILE ...")
		return 1
	}
	action := args[0]

	fs := flag.NewFlagSet("user "+action, flag.ExitOnError)
	userConfigFile := fs.String("user-config", "", "path to user credential file")
	hashType := fs.String("hash-type", "argon2", "password hash scheme for a newly initialized file")
	fs.Parse(args[1:])
	rest := fs.Args()

	if *userConfigFile == "" {
		fmt.Fprintln(os.Stderr, "--user-config is required")
		return 1
	}

	switch action {
	case "init":
		store := userstore.New(*hashType)
		if err := store.Save(*userConfigFile); err != nil {
			fmt.Fprintf(os.Stderr, "initializing user store: %v\n", err)
			return 1
		}
		fmt.Printf("initialized empty user store at %s\n", *userConfigFile)
		return 0

	case "add":
		if len(rest) < 2 {
			fmt.Fprintln(os.Stderr, "usage: socksd user add --user-config FILE USERNAME PASSWORD")
			return 1
		}
		return withStore(*userConfigFile, func(store *userstore.Store) error {
			return store.AddUser(rest[0], rest[1])
		})

	case "remove":
		if len(rest) < 1 {
			fmt.Fprintln(os.Stderr, "usage: socksd user remove --user-config FILE USERNAME")
			return 1
		}
		return withStore(*userConfigFile, func(store *userstore.Store) error {
			return store.RemoveUser(rest[0])
		})

	case "update":
		if len(rest) < 2 {
			fmt.Fprintln(os.Stderr, "usage: socksd user update --user-config FILE USERNAME PASSWORD")
			return 1
		}
		return withStore(*userConfigFile, func(store *userstore.Store) error {
			return store.UpdatePassword(rest[0], rest[1])
		})

	case "enable":
		if len(rest) < 2 {
			fmt.Fprintln(os.Stderr, "usage: socksd user enable --user-config FILE USERNAME true|false")
			return 1
		}
		enabled, err := strconv.ParseBool(rest[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid enabled value %q: %v\n", rest[1], err)
			return 1
		}
		return withStore(*userConfigFile, func(store *userstore.Store) error {
			return store.SetEnabled(rest[0], enabled)
		})

	case "list":
		store, err := userstore.Load(*userConfigFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "loading user store: %v\n", err)
			return 1
		}
		for _, name := range store.ListUsernames() {
			fmt.Println(name)
		}
		return 0

	default:
		fmt.Fprintf(os.Stderr, "unknown user subcommand: %s\n", action)
		return 1
	}
}

func withStore(path string, fn func(*userstore.Store) error) int {
	store, err := userstore.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading user store: %v\n", err)
		return 1
	}
	if err := fn(store); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	return 0
}

// tcpDialer adapts net.Dialer to the Dialer interface both proxy front
// ends expect, as a single collaborator shared between them.
type tcpDialer struct {
	d net.Dialer
}

func (d *tcpDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	return d.d.DialContext(ctx, network, address)
}
