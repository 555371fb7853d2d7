package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/api/handlers"
	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/config"
	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/services/tetris"
	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/terminal"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	// 画面を使っている間はログをファイルに書き出す
	if err := withLogFile(cfg.LogFile, func() error { return run(cfg) }); err != nil {
		log.Fatalf("%v", err)
	}
}

// withLogFile はログの出力先を path のファイルに切り替えて fn を実行します。
// fn の結果にかかわらず、戻る前にファイルを閉じて出力先を元に戻します。
func withLogFile(path string, fn func() error) error {
	logFile, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("ログファイル %s を開けませんでした: %w", path, err)
	}
	prev := log.Writer()
	log.SetOutput(logFile)
	defer func() {
		log.SetOutput(prev)
		logFile.Close()
	}()

	return fn()
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := tetris.NewSession(
		tetris.NewRandomPieceSource(cfg.GameSeed),
		tetris.WithTickInterval(cfg.TickInterval),
	)

	sessionCtx, cancelSession := context.WithCancel(ctx)
	defer cancelSession()
	sessionErr := make(chan error, 1)
	go func() {
		sessionErr <- session.Run(sessionCtx)
	}()

	if cfg.SpectatorEnabled {
		server := &http.Server{
			Addr: cfg.Addr(),
			Handler: handlers.NewRouter(session, handlers.RouterConfig{
				JWTSecret:      cfg.SpectatorJWTSecret,
				AllowedOrigins: cfg.CORSAllowedOrigins,
			}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Printf("Spectator server starting on %s", cfg.Addr())
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("Spectator server error: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Printf("Spectator server shutdown error: %v", err)
			}
		}()
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("端末の初期化に失敗しました: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("端末の初期化に失敗しました: %w", err)
	}

	appErr := terminal.NewApp(screen, session).Run(ctx)
	screen.Fini()

	cancelSession()
	if err := <-sessionErr; err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("ゲームセッションが異常終了しました: %w", err)
	}
	if appErr != nil {
		return fmt.Errorf("端末UIが異常終了しました: %w", appErr)
	}

	final := session.Snapshot()
	fmt.Printf("Score: %d  Lines: %d\n", final.Score, final.LinesCleared)
	return nil
}
