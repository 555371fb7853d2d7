package tetris

import (
	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/models/tetris"
)

// GameStatus はゲームの進行状態です。running から game_over へ一度だけ遷移します。
type GameStatus string

const (
	StatusRunning  GameStatus = "running"
	StatusGameOver GameStatus = "game_over"
)

// GameState は単一プレイヤーのテトリスゲーム状態です。
// 並行アクセスには対応していません。Session のゴルーチンだけが変更します。
type GameState struct {
	Board        tetris.Board // 固定済みブロックのみを保持するボード
	CurrentPiece tetris.Piece // 現在操作中のテトリミノ（ボードには書き込まれていない）
	Score        int          // 現在のスコア（減ることはない）
	LinesCleared int          // クリアしたライン数の累計
	Status       GameStatus

	source          PieceSource
	fallAccumulator int64 // 前回の落下からの経過時間 (ns)
	gameOverLogged  bool
}

// NewGameState は新しいゲーム状態を初期化して最初のピースをスポーンします。
// 空のボードへのスポーンは必ず有効なので、初期状態は常に running です。
//
// Parameters:
//   source : 次のピースの種類を決めるソース。nil の場合は時刻シードのランダムソース
// Returns:
//   *GameState: 初期化されたゲーム状態のポインタ
func NewGameState(source PieceSource) *GameState {
	if source == nil {
		source = NewRandomPieceSource(0)
	}
	state := &GameState{
		Board:  tetris.NewBoard(),
		Status: StatusRunning,
		source: source,
	}
	state.SpawnNewPiece()
	return state
}

// SpawnNewPiece はソースから次の種類を取り出して新しいピースを配置します。
// 配置の有効性は判定しません。
//
// Returns:
//   bool: スポーンしたピースが有効な位置にある場合はtrue
func (s *GameState) SpawnNewPiece() bool {
	s.CurrentPiece = tetris.SpawnPiece(s.source.NextPieceType())
	return s.Board.IsValid(s.CurrentPiece.Cells[:])
}

// Move は現在のピースを (dRow, dCol) だけ動かします。
// 移動先が無効な場合はピースを変更せずに false を返します。
func (s *GameState) Move(dRow, dCol int) bool {
	candidate := s.CurrentPiece.Translated(dRow, dCol)
	if !s.Board.IsValid(candidate.Cells[:]) {
		return false
	}
	s.CurrentPiece = candidate
	return true
}

// Rotate は現在のピースを次の回転状態にします。壁蹴りはしません。
func (s *GameState) Rotate() bool {
	candidate := s.CurrentPiece.Rotated()
	if !s.Board.IsValid(candidate.Cells[:]) {
		return false
	}
	s.CurrentPiece = candidate
	return true
}

// IsGameOver はゲームオーバーかどうかを返します。
func (s *GameState) IsGameOver() bool {
	return s.Status == StatusGameOver
}

// GridSnapshot は固定済みブロックのボードのコピーを返します。
func (s *GameState) GridSnapshot() tetris.Board {
	return s.Board
}

// ActivePieceCells は操作中のピースの絶対座標を返します。
func (s *GameState) ActivePieceCells() [4]tetris.Cell {
	return s.CurrentPiece.Cells
}

// ActivePieceColor は操作中のピースの表示色を返します。
func (s *GameState) ActivePieceColor() tetris.Color {
	return s.CurrentPiece.Color()
}

func (s *GameState) GetScore() int {
	return s.Score
}

func (s *GameState) GetStatus() GameStatus {
	return s.Status
}

// Snapshot は描画・配信用のゲーム状態のコピーです。
// 値だけで構成されるため、作成後に GameState が変更されても影響を受けません。
type Snapshot struct {
	SessionID    string         `json:"session_id"`
	Board        tetris.Board   `json:"board"`
	ActiveCells  [4]tetris.Cell `json:"active_cells"`
	ActiveType   string         `json:"active_type"`
	ActiveColor  string         `json:"active_color"`
	Score        int            `json:"score"`
	LinesCleared int            `json:"lines_cleared"`
	Status       GameStatus     `json:"status"`
}

// ToSnapshot は現在の状態から Snapshot を作成します。
func (s *GameState) ToSnapshot(sessionID string) Snapshot {
	return Snapshot{
		SessionID:    sessionID,
		Board:        s.GridSnapshot(),
		ActiveCells:  s.ActivePieceCells(),
		ActiveType:   tetris.PieceTypeToString(s.CurrentPiece.Type),
		ActiveColor:  s.ActivePieceColor().Hex(),
		Score:        s.Score,
		LinesCleared: s.LinesCleared,
		Status:       s.Status,
	}
}

// ActivePieceType は Snapshot の ActiveType を PieceType に戻します。
func (snap Snapshot) ActivePieceType() (tetris.PieceType, bool) {
	return tetris.StringToPieceType(snap.ActiveType)
}
