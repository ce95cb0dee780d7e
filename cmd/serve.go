package cmd

import (
	"context"
	"errors"
	"io/fs"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/pkg/browser"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"persona-panel/api"
	"persona-panel/completion"
	"persona-panel/host"
	"persona-panel/panel"
)

var openBrowser bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the panel server",
	Long: `Run the panel server.

State is kept in files under --data, in redis with --redis, or in memory with
--ephemeral. The main completion source is Gemini, enabled by GEMINI_API_KEY.
The host application's extension API is reached at PERSONA_HOST_URL.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&openBrowser, "open", false, "Open the panel in a browser once listening")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Error("closing store", "error", err)
		}
	}()

	sel := &completion.Selector{}
	if cfg.GeminiAPIKey != "" {
		g, err := completion.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiBaseURL)
		if err != nil {
			return err
		}
		sel.Main = g
	} else {
		log.Warn("GEMINI_API_KEY is not set; only the independent API source can generate")
	}

	deps := panel.Deps{
		Store:        st,
		Completions:  sel,
		PollInterval: cfg.PollInterval,
		Lang:         cfg.Lang,
		Log:          log,
	}
	if hc := host.NewClient(cfg.HostURL, cfg.HostToken); hc.Configured() {
		deps.Host = hc
		deps.WorldInfo = hc
	} else {
		log.Warn("PERSONA_HOST_URL is not set; persona saving and world info are unavailable")
	}
	mgr := panel.NewManager(deps)

	var static fs.FS
	if cfg.StaticDir != "" {
		static = os.DirFS(cfg.StaticDir)
	}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.RegisterRoutes(mgr, static, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("persona-panel listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		mgr.CloseAll()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if openBrowser {
		url := "http://" + browseAddr(ln.Addr())
		pterm.Info.Printfln("Opening %s", url)
		if err := browser.OpenURL(url); err != nil {
			pterm.Warning.Printfln("Could not open a browser: %v", err)
		}
	}

	return g.Wait()
}

// browseAddr turns a listen address into one a browser can reach.
func browseAddr(a net.Addr) string {
	tcp, ok := a.(*net.TCPAddr)
	if !ok {
		return a.String()
	}
	if tcp.IP == nil || tcp.IP.IsUnspecified() {
		return net.JoinHostPort("localhost", strconv.Itoa(tcp.Port))
	}
	return tcp.String()
}
