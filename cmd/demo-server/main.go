package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"gamegen/api/httpapi"
	"gamegen/config"
	"gamegen/games"
	"gamegen/kit"
	"gamegen/logging"
)

func main() {
	// Use readable console logging for development/demo
	logger := logging.MustNew(config.LoggingConfig{Level: "info", Format: "console", Output: "stdout"})
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, ":8080"); err != nil {
		logger.Error("demo server crashed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *zap.Logger, addr string) error {
	k, err := kit.New(kit.WithGenerator(demoGenerator{}), kit.WithLogger(logger))
	if err != nil {
		return err
	}
	defer k.Close()

	handler, err := newHandler(k, logger)
	if err != nil {
		return err
	}
	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("starting demo server", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newHandler(k *kit.Kit, logger *zap.Logger) (http.Handler, error) {
	return httpapi.NewRouter(httpapi.Deps{
		Leaderboard: k.Leaderboard,
		Games:       k.Games,
		Hub:         k.Hub,
		Stats:       k.Stats,
		Logger:      logger,
	}, httpapi.Options{AllowCORSOrigin: "*"})
}

// demoGenerator serves one canned game so the API can be tried without an
// LLM key.
type demoGenerator struct{}

func (demoGenerator) Generate(context.Context, string) (string, error) {
	return strings.ReplaceAll(demoPage, "{{ID}}", games.GameIDPlaceholder), nil
}

const demoPage = "```html\n" + `<!DOCTYPE html>
<html>
<head><title>Click Rush</title></head>
<body>
<h1>Click Rush</h1>
<p>Score: <span id="score">0</span></p>
<button id="target">Click!</button>
<script>
const GAME_ID = "{{ID}}";
let score = 0;
document.getElementById("target").onclick = () => {
  score++;
  document.getElementById("score").textContent = score;
};
setTimeout(() => {
  const name = prompt("Game over! Your name?") || "anonymous";
  fetch("/submit-score", {
    method: "POST",
    headers: {"Content-Type": "application/json"},
    body: JSON.stringify({game_id: GAME_ID, player_name: name, score: score}),
  });
}, 10000);
</script>
</body>
</html>
` + "```"
