package tetris

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/models/tetris"
)

// dropTick は1回で必ず1行落下させる経過時間です。
const dropTick = FallInterval + time.Millisecond

// fillRow は指定された行を、skipに含まれる列を除いて埋めます。
func fillRow(b *tetris.Board, row int, block tetris.BlockType, skip ...int) {
	for col := 0; col < tetris.BoardWidth; col++ {
		filled := true
		for _, s := range skip {
			if s == col {
				filled = false
			}
		}
		if filled {
			b[row][col] = block
		}
	}
}

func TestCalculateScore(t *testing.T) {
	tests := []struct {
		lines    int
		expected int
	}{
		{0, 0},
		{1, 100},
		{2, 200},
		{3, 300},
		{4, 400},
		{-1, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, CalculateScore(tt.lines), "lines=%d", tt.lines)
	}
}

func TestOnTickWaitsForFallInterval(t *testing.T) {
	state := NewGameState(NewSequencePieceSource(tetris.TypeO))
	start := state.CurrentPiece

	// ちょうど間隔と同じだけでは落下しない
	assert.False(t, state.OnTick(FallInterval))
	assert.Equal(t, start, state.CurrentPiece)

	assert.True(t, state.OnTick(time.Nanosecond))
	assert.Equal(t, start.Translated(1, 0), state.CurrentPiece)

	// 落下後は積算がリセットされる
	assert.False(t, state.OnTick(FallInterval))
	assert.Equal(t, start.Translated(1, 0), state.CurrentPiece)
}

func TestOnTickAccumulatesSmallSteps(t *testing.T) {
	state := NewGameState(NewSequencePieceSource(tetris.TypeO))
	start := state.CurrentPiece

	for i := 0; i < 10; i++ {
		assert.False(t, state.OnTick(50*time.Millisecond))
	}
	assert.Equal(t, start, state.CurrentPiece)

	assert.True(t, state.OnTick(50*time.Millisecond))
	assert.Equal(t, start.Translated(1, 0), state.CurrentPiece)
}

func TestOnTickIgnoresNegativeElapsed(t *testing.T) {
	state := NewGameState(NewSequencePieceSource(tetris.TypeO))
	state.OnTick(-time.Hour)
	assert.False(t, state.OnTick(FallInterval))
}

func TestOnTickLocksPieceOnFloor(t *testing.T) {
	state := NewGameState(NewSequencePieceSource(tetris.TypeO, tetris.TypeT))

	for i := 0; i < tetris.BoardHeight-2; i++ {
		require.True(t, state.OnTick(dropTick))
	}
	assert.Equal(t, tetris.TypeO, state.CurrentPiece.Type)
	assert.Equal(t, tetris.BoardHeight-1, state.CurrentPiece.Cells[3].Row)
	assert.Equal(t, 0, state.Board.Occupied())

	// 床に着いた状態のティックで固定される
	require.True(t, state.OnTick(dropTick))

	assert.Equal(t, tetris.BlockO, state.Board[18][3])
	assert.Equal(t, tetris.BlockO, state.Board[18][4])
	assert.Equal(t, tetris.BlockO, state.Board[19][3])
	assert.Equal(t, tetris.BlockO, state.Board[19][4])
	assert.Equal(t, 4, state.Board.Occupied())
	assert.Equal(t, tetris.SpawnPiece(tetris.TypeT), state.CurrentPiece)
	assert.Equal(t, StatusRunning, state.GetStatus())
	assert.Equal(t, 0, state.GetScore())
}

func TestOnTickClearsSingleLine(t *testing.T) {
	state := NewGameState(NewSequencePieceSource(tetris.TypeI))
	fillRow(&state.Board, 19, tetris.BlockJ, 5)
	state.Board[18][0] = tetris.BlockT

	require.True(t, ApplyPlayerInput(state, ActionMoveRight))
	require.True(t, ApplyPlayerInput(state, ActionMoveRight))

	// 縦向きIが (16..19, 5) に着くまで落とし、次のティックで固定
	for i := 0; i < tetris.BoardHeight-4; i++ {
		require.True(t, state.OnTick(dropTick))
	}
	require.True(t, state.OnTick(dropTick))

	assert.Equal(t, 100, state.GetScore())
	assert.Equal(t, 1, state.LinesCleared)
	assert.Equal(t, tetris.BlockT, state.Board[19][0])
	for row := 17; row <= 19; row++ {
		assert.Equal(t, tetris.BlockI, state.Board[row][5], "row %d", row)
	}
	assert.Equal(t, tetris.BlockEmpty, state.Board[16][5])
	assert.Equal(t, 4, state.Board.Occupied())
}

func TestOnTickClearsTwoLinesInOnePass(t *testing.T) {
	state := NewGameState(NewSequencePieceSource(tetris.TypeO))
	fillRow(&state.Board, 19, tetris.BlockS, 3, 4)
	fillRow(&state.Board, 18, tetris.BlockZ, 3, 4)
	state.Board[17][9] = tetris.BlockL

	for i := 0; i < tetris.BoardHeight-1; i++ {
		require.True(t, state.OnTick(dropTick))
	}

	assert.Equal(t, 200, state.GetScore())
	assert.Equal(t, 2, state.LinesCleared)
	assert.Equal(t, tetris.BlockL, state.Board[19][9])
	assert.Equal(t, 1, state.Board.Occupied())
}

func TestGameOverWhenSpawnBlocked(t *testing.T) {
	state := NewGameState(NewSequencePieceSource(tetris.TypeO))
	state.CurrentPiece = tetris.SpawnPiece(tetris.TypeO).Translated(tetris.BoardHeight-2, 0)
	// 行0はスポーン位置を含めて埋まっている（列0だけ空いているのでラインは消えない）
	fillRow(&state.Board, 0, tetris.BlockZ, 0)

	require.True(t, state.OnTick(dropTick))

	assert.Equal(t, StatusGameOver, state.GetStatus())
	assert.True(t, state.IsGameOver())
	assert.Equal(t, tetris.BlockO, state.Board[19][3])
}

func TestNoStimulusAfterGameOver(t *testing.T) {
	state := NewGameState(NewSequencePieceSource(tetris.TypeO))
	state.CurrentPiece = tetris.SpawnPiece(tetris.TypeO).Translated(tetris.BoardHeight-2, 0)
	fillRow(&state.Board, 1, tetris.BlockZ, 0)
	require.True(t, state.OnTick(dropTick))
	require.True(t, state.IsGameOver())

	board := state.Board
	piece := state.CurrentPiece
	score := state.Score

	assert.False(t, state.OnTick(time.Hour))
	assert.False(t, state.OnMoveLeft())
	assert.False(t, state.OnMoveRight())
	assert.False(t, state.OnSoftDrop())
	assert.False(t, state.OnRotate())
	for _, action := range []string{ActionMoveLeft, ActionMoveRight, ActionSoftDrop, ActionRotate} {
		assert.False(t, ApplyPlayerInput(state, action), action)
	}

	assert.Equal(t, board, state.Board)
	assert.Equal(t, piece, state.CurrentPiece)
	assert.Equal(t, score, state.Score)
	assert.Equal(t, StatusGameOver, state.GetStatus())
}

func TestApplyPlayerInput(t *testing.T) {
	state := NewGameState(NewSequencePieceSource(tetris.TypeT))
	start := state.CurrentPiece

	assert.True(t, ApplyPlayerInput(state, ActionMoveLeft))
	assert.Equal(t, start.Translated(0, -1), state.CurrentPiece)

	assert.True(t, ApplyPlayerInput(state, ActionMoveRight))
	assert.Equal(t, start, state.CurrentPiece)

	assert.True(t, ApplyPlayerInput(state, ActionSoftDrop))
	assert.Equal(t, start.Translated(1, 0), state.CurrentPiece)

	assert.True(t, ApplyPlayerInput(state, ActionRotate))
	assert.Equal(t, 1, state.CurrentPiece.Rotation)

	assert.False(t, ApplyPlayerInput(state, "hard_drop"))
	assert.False(t, ApplyPlayerInput(nil, ActionRotate))
}

func TestSoftDropDoesNotLock(t *testing.T) {
	state := NewGameState(NewSequencePieceSource(tetris.TypeO))
	for state.OnSoftDrop() {
	}

	assert.Equal(t, tetris.BoardHeight-1, state.CurrentPiece.Cells[3].Row)
	assert.False(t, state.OnSoftDrop())
	assert.Equal(t, 0, state.Board.Occupied())
	assert.Equal(t, tetris.TypeO, state.CurrentPiece.Type)
}
