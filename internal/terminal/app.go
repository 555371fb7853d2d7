package terminal

import (
	"context"
	"errors"
	"log"

	"github.com/gdamore/tcell/v2"

	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/services/tetris"
)

// GameSession は端末UIが必要とするセッションの操作です。
type GameSession interface {
	Snapshot() tetris.Snapshot
	Subscribe() (<-chan tetris.Snapshot, func())
	Submit(action string) error
}

// KeyAction はキー入力をプレイヤーのアクションに変換します。
// quit が true の場合はゲームを終了するキーです。対応しないキーは空文字を返します。
func KeyAction(ev *tcell.EventKey) (action string, quit bool) {
	switch ev.Key() {
	case tcell.KeyLeft:
		return tetris.ActionMoveLeft, false
	case tcell.KeyRight:
		return tetris.ActionMoveRight, false
	case tcell.KeyDown:
		return tetris.ActionSoftDrop, false
	case tcell.KeyUp:
		return tetris.ActionRotate, false
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return "", true
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'h':
			return tetris.ActionMoveLeft, false
		case 'l':
			return tetris.ActionMoveRight, false
		case 'j':
			return tetris.ActionSoftDrop, false
		case 'k':
			return tetris.ActionRotate, false
		case 'q', 'Q':
			return "", true
		}
	}
	return "", false
}

// App は端末の入出力とゲームセッションをつなぎます。
type App struct {
	screen   tcell.Screen
	renderer *Renderer
	session  GameSession
}

// NewApp は初期化済みの screen を使う App を作成します。
func NewApp(screen tcell.Screen, session GameSession) *App {
	return &App{
		screen:   screen,
		renderer: NewRenderer(screen),
		session:  session,
	}
}

// Run は終了キーが押されるか、ctx がキャンセルされるか、セッションが終了するまで
// キー入力をセッションに送り、更新された Snapshot を描画し続けます。
func (a *App) Run(ctx context.Context) error {
	updates, unsubscribe := a.session.Subscribe()
	defer unsubscribe()

	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	go a.screen.ChannelEvents(events, quit)
	defer close(quit)

	last := a.session.Snapshot()
	a.renderer.Draw(last)

	for {
		select {
		case <-ctx.Done():
			return nil

		case snap, ok := <-updates:
			if !ok {
				return nil
			}
			last = snap
			a.renderer.Draw(last)

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev := ev.(type) {
			case *tcell.EventResize:
				a.screen.Sync()
				a.renderer.Draw(last)
			case *tcell.EventKey:
				action, exit := KeyAction(ev)
				if exit {
					log.Printf("[Terminal] Quit key pressed")
					return nil
				}
				if action == "" {
					continue
				}
				if err := a.session.Submit(action); err != nil {
					if errors.Is(err, tetris.ErrSessionClosed) {
						return nil
					}
					return err
				}
			}
		}
	}
}
