package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket" // WebSocketライブラリ

	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/api/middleware"
	modeltetris "github.com/progate-hackathon-strawberry-flavor/blockfall/internal/models/tetris"
	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/services/tetris"
)

// authTimeout は WebSocket 接続後に認証メッセージを待つ時間です。
const authTimeout = 10 * time.Second

// SpectatorSource は観戦用ハンドラーが必要とするセッションの操作です。
// 入力を送る手段は含まれていません。
type SpectatorSource interface {
	Snapshot() tetris.Snapshot
	ServeSpectator(ctx context.Context, client *tetris.Client)
}

// GameHandler は観戦用のHTTPリクエスト（状態取得、ピース一覧、WebSocket接続）を処理します。
type GameHandler struct {
	session   SpectatorSource
	jwtSecret string
	upgrader  websocket.Upgrader
}

// NewGameHandler は新しい GameHandler インスタンスを作成します。
//
// Parameters:
//   session        : 観戦対象のセッション
//   jwtSecret      : 観戦トークンの検証鍵。空の場合は認証なし
//   allowedOrigins : WebSocket接続を許可するオリジン。"*" を含む場合はすべて許可
// Returns:
//   *GameHandler: 新しく作成された GameHandler のポインタ
func NewGameHandler(session SpectatorSource, jwtSecret string, allowedOrigins []string) *GameHandler {
	return &GameHandler{
		session:   session,
		jwtSecret: jwtSecret,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
	}
}

// checkOrigin はOriginヘッダーが許可リストに含まれるかを判定する関数を返します。
// Originヘッダーのないリクエスト（ブラウザ以外のクライアント）は許可します。
func checkOrigin(allowedOrigins []string) func(r *http.Request) bool {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed["*"] || allowed[origin]
	}
}

// WriteErrorResponse はエラーレスポンスをJSON形式で書き込みます。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// WriteJSONResponse はJSONレスポンスを書き込みます。
func WriteJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// GetState は最新のゲーム状態を返すハンドラーです。
// GET /api/game/state
func (h *GameHandler) GetState(w http.ResponseWriter, r *http.Request) {
	WriteJSONResponse(w, http.StatusOK, h.session.Snapshot())
}

// PieceInfo はピースカタログの1種類分の情報です。
type PieceInfo struct {
	Type      string                `json:"type"`
	Color     string                `json:"color"`
	Rotations [][4]modeltetris.Cell `json:"rotations"`
}

// GetPieces はピースカタログ（種類、回転状態、色）を返すハンドラーです。
// GET /api/game/pieces
func (h *GameHandler) GetPieces(w http.ResponseWriter, r *http.Request) {
	pieces := make([]PieceInfo, 0, modeltetris.NumPieceTypes)
	for _, kind := range modeltetris.AllPieceTypes {
		info := PieceInfo{
			Type:  modeltetris.PieceTypeToString(kind),
			Color: modeltetris.ColorOf(kind).Hex(),
		}
		for rot := 0; rot < modeltetris.RotationCount(kind); rot++ {
			info.Rotations = append(info.Rotations, modeltetris.ShapeOf(kind, rot))
		}
		pieces = append(pieces, info)
	}
	WriteJSONResponse(w, http.StatusOK, pieces)
}

// authMessage は WebSocket 接続直後にクライアントが送る認証メッセージです。
type authMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// HandleWebSocketConnection はHTTP接続をWebSocketプロトコルにアップグレードし、
// 認証後にゲーム状態の配信をセッションに引き渡します。
// 接続が閉じられるまで、このハンドラーは戻りません。
// GET /api/game/ws
func (h *GameHandler) HandleWebSocketConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[GameHandler] Failed to upgrade to websocket: %v", err)
		return // アップグレード失敗時はエラーログのみ
	}

	spectatorID, ok := h.authenticate(conn)
	if !ok {
		conn.Close()
		return
	}

	log.Printf("[GameHandler] WebSocket spectator connected: %s", spectatorID)
	h.session.ServeSpectator(r.Context(), tetris.NewClient(spectatorID, conn))
}

// authenticate は認証メッセージを待ってトークンを検証します。
// 検証鍵が設定されていない場合は匿名の観戦者IDを返します。
func (h *GameHandler) authenticate(conn *websocket.Conn) (string, bool) {
	if h.jwtSecret == "" {
		return "anonymous-" + uuid.New().String(), true
	}

	conn.SetReadDeadline(time.Now().Add(authTimeout))
	defer conn.SetReadDeadline(time.Time{}) // タイムアウトを解除

	_, message, err := conn.ReadMessage()
	if err != nil {
		log.Printf("[GameHandler] Failed to read auth message: %v", err)
		return "", false
	}

	var msg authMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		log.Printf("[GameHandler] Failed to parse auth message: %v", err)
		conn.WriteJSON(map[string]string{"error": "Expected auth message"})
		return "", false
	}
	if msg.Type != "auth" {
		log.Printf("[GameHandler] Unexpected message type: %s", msg.Type)
		conn.WriteJSON(map[string]string{"error": "Expected auth message"})
		return "", false
	}

	spectatorID, err := middleware.VerifyToken(msg.Token, h.jwtSecret)
	if err != nil {
		log.Printf("[GameHandler] WebSocket auth error: %v", err)
		conn.WriteJSON(map[string]string{"error": "Invalid token"})
		return "", false
	}

	// 認証成功レスポンスを送信
	conn.WriteJSON(map[string]string{"type": "auth_success", "message": "Authentication successful"})
	log.Printf("[GameHandler] Successfully authenticated spectator via JWT: %s", spectatorID)
	return spectatorID, true
}
