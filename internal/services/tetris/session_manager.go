package tetris

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket" // WebSocketライブラリのインポート
)

const (
	// DefaultTickInterval は自動落下の経過時間を計測するティックの間隔です。
	DefaultTickInterval = 16 * time.Millisecond
	// inputBufferSize は未処理の入力を保持できる数です。あふれた入力は破棄されます。
	inputBufferSize = 64

	writeWait      = 10 * time.Second    // WebSocket書き込みのタイムアウト
	pongWait       = 60 * time.Second    // Pong待ちのタイムアウト
	pingPeriod     = (pongWait * 9) / 10 // Ping送信間隔（pongWaitより短くする）
	maxMessageSize = 512                 // 観戦者から受け取るメッセージの最大サイズ
)

var (
	// ErrSessionClosed はメインループが終了したセッションへ入力を送ったとき、または Run を再度呼んだときに返されます。
	ErrSessionClosed = errors.New("session closed")
	// ErrSessionRunning は実行中のセッションで Run が二重に呼ばれたときに返されます。
	ErrSessionRunning = errors.New("session already running")
)

// Session は1つのゲーム状態を所有し、入力・ティック・終了要求を1つのゴルーチンで順番に処理します。
// GameState を変更するのは Run のゴルーチンだけで、外部からは Snapshot を通して状態を読みます。
type Session struct {
	ID string

	state        *GameState
	input        chan string
	tickInterval time.Duration
	ticks        <-chan time.Time // テスト用に差し替え可能なティック
	now          func() time.Time // 経過時間の計測に使う時計

	mu          sync.RWMutex // latest, subscribers, closed の保護用
	latest      Snapshot
	subscribers map[int]chan Snapshot
	nextSubID   int
	running     bool
	closed      bool
	done        chan struct{}
}

// SessionOption は Session の生成時の設定です。
type SessionOption func(*Session)

// WithTickInterval はティック間隔を変更します。0以下の値は無視されます。
func WithTickInterval(d time.Duration) SessionOption {
	return func(s *Session) {
		if d > 0 {
			s.tickInterval = d
		}
	}
}

// WithClock は経過時間の計測に使う時計を差し替えます。
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithTicks は内部のティッカーの代わりに指定されたチャネルをティックとして使います。
func WithTicks(ticks <-chan time.Time) SessionOption {
	return func(s *Session) {
		s.ticks = ticks
	}
}

// NewSession は新しいゲームセッションを作成します。メインループは Run で開始します。
//
// Parameters:
//   source : ピースの種類を決めるソース
//   opts   : ティック間隔や時計の設定
// Returns:
//   *Session: 初期化されたセッションのポインタ
func NewSession(source PieceSource, opts ...SessionOption) *Session {
	s := &Session{
		ID:           uuid.New().String(),
		state:        NewGameState(source),
		input:        make(chan string, inputBufferSize),
		tickInterval: DefaultTickInterval,
		now:          time.Now,
		subscribers:  make(map[int]chan Snapshot),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.latest = s.state.ToSnapshot(s.ID)
	log.Printf("[Session] Created new game session: %s", s.ID)
	return s
}

// Run はセッションのメインループです。ctx がキャンセルされるまで、
// プレイヤー入力とティックを1つずつ処理し、変化があるたびに Snapshot を公開します。
// 終了時にはすべての購読チャネルを閉じ、ctx.Err() を返します。
func (s *Session) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.running {
		s.mu.Unlock()
		return ErrSessionRunning
	}
	s.running = true
	s.mu.Unlock()
	defer s.shutdown()

	ticks := s.ticks
	if ticks == nil {
		ticker := time.NewTicker(s.tickInterval)
		defer ticker.Stop()
		ticks = ticker.C
	}

	last := s.now()
	s.publish()
	log.Printf("[Session] Main loop started: %s (tick %s)", s.ID, s.tickInterval)

	for {
		select {
		case <-ctx.Done():
			log.Printf("[Session] Quit requested, stopping session %s", s.ID)
			return ctx.Err()

		case action := <-s.input:
			if ApplyPlayerInput(s.state, action) {
				s.publish()
			}

		case <-ticks:
			now := s.now()
			elapsed := now.Sub(last)
			last = now
			wasOver := s.state.IsGameOver()
			if s.state.OnTick(elapsed) {
				s.publish()
			}
			if !wasOver && s.state.IsGameOver() {
				log.Printf("[Session] Session %s reached game over", s.ID)
			}
		}
	}
}

// Submit はプレイヤーの操作をメインループに送ります。
// バッファがいっぱいの場合、その入力は破棄されます。
func (s *Session) Submit(action string) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}

	select {
	case s.input <- action:
	default:
		log.Printf("[Session] Input channel is full, dropping action %q", action)
	}
	return nil
}

// Snapshot は最後に公開されたゲーム状態を返します。
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Done はメインループが終了すると閉じられるチャネルを返します。
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Subscribe は Snapshot の更新を受け取るチャネルを登録します。
// チャネルには常に最新の1件だけが残り、受信が遅い購読者は途中の状態を読み飛ばします。
// 返り値の関数で購読を解除できます。セッション終了時にはチャネルが閉じられます。
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	s.mu.Lock()
	defer s.mu.Unlock()

	ch <- s.latest
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subscribers[id]; ok {
			delete(s.subscribers, id)
			close(sub)
		}
	}
}

// publish は現在の状態を最新の Snapshot として保存し、購読者に配信します。
func (s *Session) publish() {
	snap := s.state.ToSnapshot(s.ID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = snap
	for _, ch := range s.subscribers {
		// 古い Snapshot が残っていれば捨てて最新に置き換える
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

// shutdown はすべての購読チャネルを閉じ、セッションを終了状態にします。
func (s *Session) shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.subscribers {
		close(ch)
		delete(s.subscribers, id)
	}
	close(s.done)
	log.Printf("[Session] Session %s closed (score %d)", s.ID, s.latest.Score)
}

// Client はWebSocket接続を持つ単一の観戦クライアントを表します。
type Client struct {
	ID     string          // 観戦者のID（トークンの sub、なければ匿名ID）
	Conn   *websocket.Conn // クライアントとの実際のWebSocketコネクション
	Send   chan []byte     // クライアントへメッセージを送信するためのバッファ付きチャネル
	closed bool            // チャネルが閉じられたかどうかのフラグ
	mu     sync.Mutex      // closedフラグ保護用
}

// NewClient は送信バッファ付きの観戦クライアントを作成します。
func NewClient(id string, conn *websocket.Conn) *Client {
	return &Client{
		ID:   id,
		Conn: conn,
		Send: make(chan []byte, 16),
	}
}

// SafeSend は安全にチャネルにメッセージを送信します（closedチェック付き）
func (c *Client) SafeSend(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false // 既に閉じられている
	}

	select {
	case c.Send <- message:
		return true // 送信成功
	default:
		return false // チャネルがフル
	}
}

// SafeClose は安全にチャネルを閉じます
func (c *Client) SafeClose() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		close(c.Send)
		c.closed = true
	}
}

// ServeSpectator は観戦者のWebSocket接続に Snapshot をJSONで配信し続けます。
// 観戦者からのメッセージは読み捨てます。接続が切れるか、セッションが終了するか、
// ctx がキャンセルされると戻ります。
//
// Parameters:
//   ctx    : 配信を止めるためのコンテキスト
//   client : 認証済みの観戦クライアント
func (s *Session) ServeSpectator(ctx context.Context, client *Client) {
	updates, unsubscribe := s.Subscribe()
	defer unsubscribe()

	readerDone := make(chan struct{})
	go client.readPump(readerDone)

	writerDone := make(chan struct{})
	go func() {
		client.writePump()
		close(writerDone)
	}()

	log.Printf("[Session] Spectator %s joined session %s", client.ID, s.ID)
	defer log.Printf("[Session] Spectator %s left session %s", client.ID, s.ID)

	for {
		select {
		case <-ctx.Done():
			client.SafeClose()
			<-writerDone
			return
		case <-readerDone:
			client.SafeClose()
			<-writerDone
			return
		case <-writerDone:
			return
		case snap, ok := <-updates:
			if !ok {
				// セッション終了
				client.SafeClose()
				<-writerDone
				return
			}
			payload, err := json.Marshal(snap)
			if err != nil {
				log.Printf("[Session] Error marshaling snapshot for spectator %s: %v", client.ID, err)
				continue
			}
			if !client.SafeSend(payload) {
				log.Printf("[Session] Failed to send to spectator %s (channel closed or full)", client.ID)
			}
		}
	}
}

// readPump は観戦者からのメッセージを読み捨て、Pong を受けて接続の生存を確認します。
// 読み込みエラーで終了し、done を閉じます。
func (c *Client) readPump(done chan<- struct{}) {
	defer close(done)

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Printf("[Client] WebSocket unexpected close error for spectator %s: %v", c.ID, err)
			}
			return
		}
		// 観戦は読み取り専用なので受信内容は使わない
	}
}

// writePump は Client の Send チャネルからのメッセージをWebSocketコネクションに書き込みます。
// Send が閉じられると Close フレームを送って接続を閉じます。
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := c.Conn.Close(); err != nil {
			log.Printf("[Client] Error closing WebSocket connection for spectator %s: %v", c.ID, err)
		}
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// チャネルが閉じられた (セッション終了や切断時)
				c.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[Client] Error writing message for spectator %s: %v", c.ID, err)
				c.SafeClose()
				return
			}

		case <-ticker.C:
			// ピングメッセージを定期的に送信してコネクションの生存確認
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[Client] Error sending ping for spectator %s: %v", c.ID, err)
				c.SafeClose()
				return
			}
		}
	}
}
