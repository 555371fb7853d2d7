package tetris

import (
	"log"
	"time"
)

// FallInterval はピースが自動落下する間隔です。レベルによる変化はありません。
const FallInterval = 500 * time.Millisecond

// ScorePerLine は1ライン消去あたりの得点です。
const ScorePerLine = 100

// プレイヤー操作のアクション名。キーボードとログで共通です。
const (
	ActionMoveLeft  = "move_left"
	ActionMoveRight = "move_right"
	ActionSoftDrop  = "soft_drop"
	ActionRotate    = "rotate"
)

// CalculateScore は一度に消去したライン数から得点を計算します。
// 同時消去のボーナスはなく、ライン数に比例します。
func CalculateScore(linesCleared int) int {
	if linesCleared <= 0 {
		return 0
	}
	return linesCleared * ScorePerLine
}

// OnTick は経過時間を積算し、落下間隔を超えたらピースを1行落とします。
// 落下できない場合はピースを固定し、ライン消去と次のピースのスポーンを行います。
//
// Parameters:
//   elapsed : 前回の呼び出しからの経過時間
// Returns:
//   bool: ボードまたはピースが変化した場合はtrue
func (s *GameState) OnTick(elapsed time.Duration) bool {
	if s.IsGameOver() {
		return false
	}
	if elapsed > 0 {
		s.fallAccumulator += int64(elapsed)
	}
	if s.fallAccumulator <= int64(FallInterval) {
		return false
	}

	if !s.Move(1, 0) {
		s.handlePieceLock()
	}
	s.fallAccumulator = 0
	return true
}

// OnMoveLeft は操作中のピースを1列左へ動かします。
func (s *GameState) OnMoveLeft() bool {
	if s.IsGameOver() {
		return false
	}
	return s.Move(0, -1)
}

// OnMoveRight は操作中のピースを1列右へ動かします。
func (s *GameState) OnMoveRight() bool {
	if s.IsGameOver() {
		return false
	}
	return s.Move(0, 1)
}

// OnSoftDrop は操作中のピースを1行下へ動かします。
// 着地していても固定はせず、固定は自動落下に任せます。
func (s *GameState) OnSoftDrop() bool {
	if s.IsGameOver() {
		return false
	}
	return s.Move(1, 0)
}

// OnRotate は操作中のピースを回転します。
func (s *GameState) OnRotate() bool {
	if s.IsGameOver() {
		return false
	}
	return s.Rotate()
}

// ApplyPlayerInput はプレイヤーの入力（アクション）に基づいてゲーム状態を更新します。
//
// Parameters:
//   state  : 更新するゲーム状態のポインタ
//   action : プレイヤーが実行したアクション（例: "move_left", "rotate"）
// Returns:
//   bool: ゲーム状態が実際に変更された場合はtrue、変更されなかった場合はfalse
func ApplyPlayerInput(state *GameState, action string) bool {
	if state == nil || state.IsGameOver() {
		return false
	}

	switch action {
	case ActionMoveLeft:
		return state.OnMoveLeft()
	case ActionMoveRight:
		return state.OnMoveRight()
	case ActionSoftDrop:
		return state.OnSoftDrop()
	case ActionRotate:
		return state.OnRotate()
	default:
		log.Printf("[GameLogic] Unknown action ignored: %q", action)
		return false
	}
}

// handlePieceLock はピースが固定された後の処理（ライン消去、スコア加算、次のピースのスポーン）を行います。
// 新しいピースが配置できない場合はゲームオーバーに遷移します。
func (s *GameState) handlePieceLock() {
	s.Board.LockPiece(s.CurrentPiece)

	cleared := s.Board.ClearLines()
	if cleared > 0 {
		s.Score += CalculateScore(cleared)
		s.LinesCleared += cleared
	}

	if !s.SpawnNewPiece() {
		s.Status = StatusGameOver
		if !s.gameOverLogged {
			s.gameOverLogged = true
			log.Printf("[GameLogic] Game over. Final score: %d, lines: %d", s.Score, s.LinesCleared)
		}
	}
}
