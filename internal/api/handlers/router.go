package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/api/middleware"
)

// RouterConfig は観戦用ルーターの設定です。
type RouterConfig struct {
	JWTSecret      string   // 空の場合は認証なし
	AllowedOrigins []string // CORS と WebSocket の Origin チェックに使う
}

// NewRouter は観戦用のHTTPルーターを組み立てます。
// ゲームを操作するエンドポイントはありません。
func NewRouter(session SpectatorSource, cfg RouterConfig) http.Handler {
	gameHandler := NewGameHandler(session, cfg.JWTSecret, cfg.AllowedOrigins)

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(NotFoundHandler)

	// 認証不要な公開エンドポイント
	r.HandleFunc("/api/health", HealthHandler).Methods("GET")
	r.HandleFunc("/api/game/pieces", gameHandler.GetPieces).Methods("GET")

	// WebSocketは最初のメッセージで認証するので、ヘッダー認証のミドルウェアは通さない
	r.HandleFunc("/api/game/ws", gameHandler.HandleWebSocketConnection).Methods("GET")

	// トークンが必要なルートグループ
	protectedRouter := r.PathPrefix("/api/game").Subrouter()
	protectedRouter.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	protectedRouter.HandleFunc("/state", gameHandler.GetState).Methods("GET")

	return middleware.CORSHandler(cfg.AllowedOrigins)(r)
}
