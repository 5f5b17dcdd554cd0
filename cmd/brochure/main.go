package main

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/facebookgo/flagenv"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/text/language"

	"github.com/corvidlabs/brochure"
	"github.com/corvidlabs/brochure/data"
	"github.com/corvidlabs/brochure/internal"
	"github.com/corvidlabs/brochure/lib"
	"github.com/corvidlabs/brochure/lib/admin"
	"github.com/corvidlabs/brochure/lib/auth"
	"github.com/corvidlabs/brochure/lib/captcha"
	"github.com/corvidlabs/brochure/lib/config"
	"github.com/corvidlabs/brochure/lib/contact"
	"github.com/corvidlabs/brochure/lib/content"
	"github.com/corvidlabs/brochure/lib/localization"
	"github.com/corvidlabs/brochure/lib/markup"
	"github.com/corvidlabs/brochure/lib/notify"
	"github.com/corvidlabs/brochure/lib/upload"
	"github.com/corvidlabs/brochure/web"
)

var (
	basePrefix         = flag.String("base-prefix", "", "base prefix (root URL) the site is served under e.g. /site")
	bind               = flag.String("bind", ":8923", "network address to bind HTTP to")
	bindNetwork        = flag.String("bind-network", "tcp", "network family to bind HTTP to, e.g. unix, tcp")
	configFname        = flag.String("config", "", "full path to the site configuration file (defaults to the built-in configuration)")
	captchaSecret      = flag.String("captcha-secret", "", "hex-encoded secret (at least 32 bytes) used to sign CAPTCHA tokens")
	captchaSecretFile  = flag.String("captcha-secret-file", "", "file name containing value for captcha-secret")
	sessionSecret      = flag.String("session-secret", "", "hex-encoded secret used to sign admin sessions, derived from the CAPTCHA secret if not set")
	metricsBind        = flag.String("metrics-bind", ":9090", "network address to bind metrics to")
	metricsBindNetwork = flag.String("metrics-bind-network", "tcp", "network family for the metrics server to bind to")
	socketMode         = flag.String("socket-mode", "0770", "socket mode (permissions) for unix domain sockets.")
	slogLevel          = flag.String("slog-level", "INFO", "logging level (see https://pkg.go.dev/log/slog#hdr-Levels)")
	trustedProxies     = flag.String("trusted-proxies", "", "comma-separated CIDRs of reverse proxies whose X-Forwarded-For header is trusted")
	healthcheck        = flag.Bool("healthcheck", false, "run a health check against the site")
	extractResources   = flag.String("extract-resources", "", "if set, extract the built-in configuration, sample content and static files to the specified folder")
	versionFlag        = flag.Bool("version", false, "print the site server version")
)

// healthCheck fetches the metrics endpoint of a server that is already
// running. It only dials, so it can run next to the live process.
func healthCheck(ctx context.Context, network, address, prefix string) error {
	if address == "" {
		return errors.New("metrics-bind is not set, nothing to check")
	}

	network, address, err := resolveBind(network, address)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 5 * time.Second}
	host := address
	switch network {
	case "unix":
		client.Transport = &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, "unix", address)
			},
		}
		host = "unix"
	case "tcp":
		if strings.HasPrefix(address, ":") {
			host = "localhost" + address
		}
	default:
		return fmt.Errorf("can't health check over %s", network)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+host+prefix+"/metrics", nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch metrics: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return nil
}

// resolveBind turns a bind flag pair into something net.Listen accepts.
// An empty network means the address carries a scheme, e.g.
// unix:///run/brochure.sock or tcp://0.0.0.0:8923; a bare ":8923" is tcp.
func resolveBind(network, address string) (string, string, error) {
	if network != "" {
		return network, address, nil
	}

	if !strings.Contains(address, "://") {
		if strings.HasPrefix(address, ":") {
			address = "localhost" + address
		}
		address = "http://" + address
	}

	u, err := url.Parse(address)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse bind URL: %w", err)
	}

	switch u.Scheme {
	case "unix":
		return "unix", u.Path, nil
	case "tcp", "http", "https":
		return "tcp", u.Host, nil
	default:
		return "", "", fmt.Errorf("unsupported network scheme %s in address %s", u.Scheme, address)
	}
}

// displayAddr is how a bound address shows up in the logs.
func displayAddr(network, address string) string {
	switch network {
	case "unix":
		return "unix:" + address
	case "tcp":
		if strings.HasPrefix(address, ":") {
			return "http://localhost" + address
		}
		return "http://" + address
	default:
		return fmt.Sprintf("(%s) %s", network, address)
	}
}

func setupListener(network, address string, mode os.FileMode) (net.Listener, string, error) {
	network, address, err := resolveBind(network, address)
	if err != nil {
		return nil, "", err
	}
	shown := displayAddr(network, address)

	listener, err := net.Listen(network, address)
	if err != nil {
		return nil, "", fmt.Errorf("failed to bind to %s: %w", shown, err)
	}

	if network == "unix" {
		if err := os.Chmod(address, mode); err != nil {
			listener.Close()
			return nil, "", fmt.Errorf("could not change socket mode: %w", err)
		}
	}

	return listener, shown, nil
}

func parseSocketMode(s string) (os.FileMode, error) {
	mode, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("could not parse socket mode %s: %w", s, err)
	}
	return os.FileMode(mode), nil
}

// loadSecret reads the CAPTCHA secret. Running without one is a
// configuration error, never something to paper over with a random key.
func loadSecret() (captcha.Secret, error) {
	switch {
	case *captchaSecret != "" && *captchaSecretFile != "":
		return captcha.Secret{}, errors.New("do not specify both CAPTCHA_SECRET and CAPTCHA_SECRET_FILE")
	case *captchaSecretFile != "":
		raw, err := os.ReadFile(*captchaSecretFile)
		if err != nil {
			return captcha.Secret{}, fmt.Errorf("failed to read CAPTCHA_SECRET_FILE %s: %w", *captchaSecretFile, err)
		}
		return captcha.ParseSecret(string(bytes.TrimSpace(raw)))
	default:
		return captcha.ParseSecret(*captchaSecret)
	}
}

func sessionKey(secret captcha.Secret) ([]byte, error) {
	if *sessionSecret == "" {
		slog.Warn("SESSION_SECRET is not set, deriving the admin session key from the CAPTCHA secret; rotating one logs out every admin")
		return secret.Derive("admin-session"), nil
	}

	key, err := captcha.ParseSecret(*sessionSecret)
	if err != nil {
		return nil, fmt.Errorf("SESSION_SECRET: %w", err)
	}
	return key.Derive("admin-session"), nil
}

func splitList(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

func main() {
	flagenv.Parse()
	flag.Parse()

	if *versionFlag {
		fmt.Println("brochure", brochure.Version)
		return
	}

	internal.InitSlog(*slogLevel)

	if *healthcheck {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := healthCheck(ctx, *metricsBindNetwork, *metricsBind, *basePrefix); err != nil {
			log.Fatal(err)
		}
		return
	}

	mode, err := parseSocketMode(*socketMode)
	if err != nil {
		log.Fatalf("[misconfiguration] %v", err)
	}

	if *extractResources != "" {
		if err := extractEmbedFS(data.FS, ".", *extractResources); err != nil {
			log.Fatal(err)
		}
		if err := extractEmbedFS(web.Static, "static", *extractResources); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Extracted embedded files to %s\n", *extractResources)
		return
	}

	if *basePrefix != "" && !strings.HasPrefix(*basePrefix, "/") {
		log.Fatalf("[misconfiguration] base-prefix must start with a slash, eg: /%s", *basePrefix)
	} else if strings.HasSuffix(*basePrefix, "/") {
		log.Fatalf("[misconfiguration] base-prefix must not end with a slash")
	}

	cfg, err := config.LoadOrDefault(*configFname)
	if err != nil {
		log.Fatalf("can't load site config: %v", err)
	}

	secret, err := loadSecret()
	if err != nil {
		log.Fatalf("[misconfiguration] CAPTCHA secret: %v (generate one with `brochurectl secret generate`)", err)
	}

	localization.DefaultLanguage = language.Make(cfg.Site.DefaultLanguage)
	brochure.BasePrefix = *basePrefix

	wg := new(sync.WaitGroup)
	// install signal handler
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := cfg.Store.Open(ctx)
	if err != nil {
		log.Fatal(err)
	}
	if !cfg.Store.Durable() {
		slog.Warn("store is not durable, admin logouts and CAPTCHA records are lost on restart", "backend", cfg.Store.Backend)
	}

	var recorder captcha.Recorder = captcha.NopRecorder{}
	if cfg.Captcha.Record {
		recorder = captcha.NewStoreRecorder(st)
	}

	captchaOpts := captcha.Options{
		Secret:       secret,
		Recorder:     recorder,
		StoreTimeout: cfg.Captcha.StoreTimeout.Std(),
	}

	generator, err := captcha.NewGenerator(captchaOpts)
	if err != nil {
		log.Fatalf("can't construct CAPTCHA generator: %v", err)
	}

	verifier, err := captcha.NewVerifier(captchaOpts)
	if err != nil {
		log.Fatalf("can't construct CAPTCHA verifier: %v", err)
	}

	db, err := content.Open(cfg.Database.Path)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("can't migrate content database: %v", err)
	}

	if cfg.Database.Seed {
		sd, err := content.LoadSeed("")
		if err != nil {
			log.Fatal(err)
		}
		n, err := db.Seed(ctx, sd)
		if err != nil {
			log.Fatalf("can't seed content database: %v", err)
		}
		if n != 0 {
			slog.Info("seeded sample content", "records", n)
		}
	}

	var notifier notify.Notifier = notify.LogNotifier{}
	mailCfg := cfg.Mail.WithDefaults()
	if mailCfg.Enabled {
		mailer, err := notify.NewMailer(mailCfg)
		if err != nil {
			log.Fatalf("can't construct mailer: %v", err)
		}
		notifier = mailer
	}
	dispatcher := notify.NewDispatcher(notifier, mailCfg.Timeout.Std(), nil)

	contactService := contact.NewService(verifier, db.Messages, dispatcher, cfg.Site.Name, nil)

	storage, err := upload.NewLocal(cfg.Uploads.Dir, brochure.PrefixedPath(cfg.Uploads.URLPrefix))
	if err != nil {
		log.Fatal(err)
	}

	key, err := sessionKey(secret)
	if err != nil {
		log.Fatalf("[misconfiguration] %v", err)
	}

	sessions, err := auth.NewSessions(auth.Options{
		Users: db,
		Store: st,
		Key:   key,
		TTL:   cfg.Admin.SessionTTL.Std(),
	})
	if err != nil {
		log.Fatalf("can't construct session manager: %v", err)
	}

	allowlist, err := auth.NewAllowlist(cfg.Admin.AllowedCIDRs)
	if err != nil {
		log.Fatalf("[misconfiguration] %v", err)
	}

	adminRouter, err := admin.NewRouter(admin.Options{
		Content:  db,
		Sessions: sessions,
		Cookies: auth.Cookies{
			Domain: cfg.Admin.CookieDomain,
			Secure: cfg.Admin.SecureCookie,
			TTL:    cfg.Admin.SessionTTL.Std(),
		},
		Allowlist: allowlist,
		Uploader:  upload.New(storage, cfg.Uploads.MaxBytes, cfg.Uploads.AllowedTypes),
		Store:     st,
	})
	if err != nil {
		log.Fatalf("can't construct admin router: %v", err)
	}

	renderer := markup.New()

	s, err := lib.New(lib.Options{
		Content:        db,
		Generator:      generator,
		Contact:        contactService,
		Markup:         renderer,
		Admin:          adminRouter,
		UploadsDir:     cfg.Uploads.Dir,
		UploadsPrefix:  cfg.Uploads.URLPrefix,
		SiteName:       cfg.Site.Name,
		Impressum:      cfg.Impressum,
		BasePrefix:     *basePrefix,
		ServeRobotsTXT: cfg.Site.ServeRobotsTXT,
	})
	if err != nil {
		log.Fatalf("can't construct lib.Server: %v", err)
	}

	if *metricsBind != "" {
		wg.Add(1)
		go metricsServer(ctx, mode, wg.Done)
	}

	wg.Add(1)
	go cleanupThread(ctx, s, wg.Done)

	var h http.Handler
	h = s
	h = internal.RemoteXRealIP(h)
	if proxies := splitList(*trustedProxies); len(proxies) != 0 {
		h, err = internal.TrustedProxies(proxies, h)
		if err != nil {
			log.Fatalf("[misconfiguration] trusted-proxies: %v", err)
		}
	}

	srv := http.Server{
		Handler:           h,
		ErrorLog:          internal.GetFilteredHTTPLogger(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	listener, listenerUrl, err := setupListener(*bindNetwork, *bind, mode)
	if err != nil {
		log.Fatal(err)
	}
	slog.Info(
		"listening",
		"url", listenerUrl,
		"version", brochure.Version,
		"site", cfg.Site.Name,
		"store", cfg.Store.Backend,
		"database", cfg.Database.Path,
		"mail", mailCfg.Enabled,
		"captcha-record", cfg.Captcha.Record,
		"base-prefix", *basePrefix,
	)

	go func() {
		<-ctx.Done()
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(c); err != nil {
			log.Printf("cannot shut down: %v", err)
		}
	}()

	if err := srv.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}

	dispatcher.Wait()
	generator.Wait()
	verifier.Wait()
	wg.Wait()
}

func cleanupThread(ctx context.Context, s *lib.Server, done func()) {
	defer done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Cleanup()
		}
	}
}

func metricsServer(ctx context.Context, mode os.FileMode, done func()) {
	defer done()

	mux := http.NewServeMux()
	mux.Handle(brochure.BasePrefix+"/metrics", promhttp.Handler())

	srv := http.Server{Handler: mux, ErrorLog: internal.GetFilteredHTTPLogger()}
	listener, metricsUrl, err := setupListener(*metricsBindNetwork, *metricsBind, mode)
	if err != nil {
		log.Fatal(err)
	}
	slog.Debug("listening for metrics", "url", metricsUrl)

	go func() {
		<-ctx.Done()
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(c); err != nil {
			log.Printf("cannot shut down: %v", err)
		}
	}()

	if err := srv.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

func extractEmbedFS(fsys embed.FS, root string, destDir string) error {
	return fs.WalkDir(fsys, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		destPath := filepath.Join(destDir, root, relPath)

		if d.IsDir() {
			return os.MkdirAll(destPath, 0o700)
		}

		embeddedData, err := fs.ReadFile(fsys, path)
		if err != nil {
			return err
		}

		return os.WriteFile(destPath, embeddedData, 0o644)
	})
}
