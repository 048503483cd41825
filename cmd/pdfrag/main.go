package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/w-h-a/pdfrag"
	"github.com/w-h-a/pdfrag/config"
	"github.com/w-h-a/pdfrag/errs"
	pdfraglog "github.com/w-h-a/pdfrag/internal/log"
	"github.com/w-h-a/pdfrag/server"
	httpserver "github.com/w-h-a/pdfrag/server/http"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var cli struct {
	config.Config `embed:""`

	Chat  chatCmd  `cmd:"" help:"Ask questions about a PDF in the terminal."`
	Serve serveCmd `cmd:"" help:"Serve the HTTP API."`
}

type chatCmd struct {
	PDF     string `arg:"" name:"pdf" help:"Path to the PDF to chat with."`
	Session string `help:"Resume a saved session instead of starting a new one." default:""`
}

func (c *chatCmd) Run(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if info, err := os.Stat(c.PDF); err != nil || info.IsDir() {
		return fmt.Errorf("%w: PDF not found at the specified path: %s", errs.ErrNotFound, c.PDF)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("--- Initializing Chatbot ---")

	id, err := fingerprint(c.PDF)
	if err != nil {
		return err
	}

	rag := newRAG(cfg)
	defer rag.Close()

	if _, err := rag.Build(ctx, c.PDF, pdfrag.WithDocumentId(id)); err != nil {
		return err
	}

	sessionId := c.Session
	if len(sessionId) == 0 {
		sessionId = uuid.NewString()
	}

	fmt.Println("--- Chatbot is ready! ---")
	fmt.Println("Type your question and press Enter. CTRL + C to exit.")

	return loop(ctx, os.Stdin, os.Stdout, os.Stderr, func(ctx context.Context, query string) (string, error) {
		answer, _, err := rag.Ask(ctx, id, sessionId, query)
		return answer, err
	})
}

type serveCmd struct {
	ShutdownTimeout time.Duration `help:"Grace period for in-flight requests on shutdown." default:"15s"`
}

func (s *serveCmd) Run(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rag := newRAG(cfg)
	defer rag.Close()

	srv := httpserver.NewServer(
		server.WithName("pdfrag"),
		server.WithAddress(cfg.Address),
		httpserver.WithMiddleware(otelhttp.NewMiddleware("pdfrag")),
	)

	if err := srv.Handle(rag.Handler()); err != nil {
		return err
	}

	if err := srv.Start(); err != nil {
		return err
	}

	<-ctx.Done()

	shutdown, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
	defer cancel()

	return srv.Stop(shutdown)
}

func main() {
	// a missing .env is fine
	_ = godotenv.Load()

	kctx := kong.Parse(
		&cli,
		kong.Name("pdfrag"),
		kong.Description("Ask questions about PDF documents."),
		kong.Configuration(config.YAML, "pdfrag.yaml", "~/.config/pdfrag/config.yaml"),
		kong.UsageOnError(),
	)

	logger, err := pdfraglog.Setup(cli.LogLevel, cli.LogFormat)
	kctx.FatalIfErrorf(err)
	defer logger.Sync()

	kctx.FatalIfErrorf(kctx.Run(&cli.Config))
}
