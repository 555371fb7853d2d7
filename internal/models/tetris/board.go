package tetris

const (
	BoardWidth  = 10 // テトリスボードの幅
	BoardHeight = 20 // テトリスボードの高さ（見えない領域はありません）
)

// BlockType はボード上のブロックの種類を表します。
// 0 は空きマス、1..7 は固定済みのブロックで、値-1 がそのブロックの PieceType です。
type BlockType int

const (
	BlockEmpty BlockType = iota // 0: 空のマス
	BlockI                      // 1: I-テトリミノ由来のブロック (PieceType 0 + 1)
	BlockO                      // 2: O-テトリミノ由来のブロック (PieceType 1 + 1)
	BlockT                      // 3: T-テトリミノ由来のブロック (PieceType 2 + 1)
	BlockL                      // 4: L-テトリミノ由来のブロック (PieceType 3 + 1)
	BlockJ                      // 5: J-テトリミノ由来のブロック (PieceType 4 + 1)
	BlockS                      // 6: S-テトリミノ由来のブロック (PieceType 5 + 1)
	BlockZ                      // 7: Z-テトリミノ由来のブロック (PieceType 6 + 1)
)

// BlockOf は PieceType を固定後の BlockType に変換します。
func BlockOf(kind PieceType) BlockType {
	mustPieceType(kind)
	return BlockType(kind + 1)
}

// PieceType は固定済みブロックの元になったテトリミノの種類を返します。
// 空きマスの場合は false を返します。
func (b BlockType) PieceType() (PieceType, bool) {
	if b == BlockEmpty {
		return 0, false
	}
	return PieceType(b - 1), true
}

// Board はテトリスのゲームボードを表す2次元配列です。
// 各要素はBlockTypeで、その位置にどの種類のブロックがあるかを示します。
// Board[row][col] でアクセスします。
// 配列なので代入するだけでスナップショット（コピー）になります。
type Board [BoardHeight][BoardWidth]BlockType

// NewBoard は新しい空のボードを初期化して返します。
// Goの配列はデフォルトでゼロ値（BlockEmpty）で初期化されるため、特別な初期化は不要です。
func NewBoard() Board {
	var board Board
	return board
}

// InBounds は座標がボードの範囲内かどうかを返します。
// 行0より上は範囲外として扱います。
func InBounds(c Cell) bool {
	return c.Row >= 0 && c.Row < BoardHeight && c.Col >= 0 && c.Col < BoardWidth
}

// IsValid は指定された座標がすべてボードの範囲内かつ空きマスであるかを判定します。
// ボードは変更しません。
//
// Parameters:
//   cells : 判定する絶対座標
// Returns:
//   bool: すべての座標に配置できる場合はtrue
func (b *Board) IsValid(cells []Cell) bool {
	for _, c := range cells {
		if !InBounds(c) {
			return false // 左右の壁、床、ボード上端より上
		}
		if b[c.Row][c.Col] != BlockEmpty {
			return false // 既存のブロックとの衝突
		}
	}
	return true
}

// LockPiece は着地したピースをボードに固定します。
// ピースの座標は直前に IsValid で検証済みである前提のため、ここでは再検証しません。
func (b *Board) LockPiece(p Piece) {
	block := BlockOf(p.Type)
	for _, c := range p.Cells {
		b[c.Row][c.Col] = block
	}
}

// IsRowFull は指定された行がすべて埋まっているかを返します。
func (b *Board) IsRowFull(row int) bool {
	for col := 0; col < BoardWidth; col++ {
		if b[row][col] == BlockEmpty {
			return false
		}
	}
	return true
}

// ClearLines は揃ったラインを一度にすべて取り除き、上のブロックを落とします。
// 残った行の順序は保たれ、取り除いた行数と同じだけ空の行が最上部に追加されます。
//
// Returns:
//   int: クリアされたライン数
func (b *Board) ClearLines() int {
	clearedLines := 0
	newBoard := NewBoard() // 新しいボードを作成し、クリア後の状態を構築

	destRow := BoardHeight - 1 // 新しいボードにブロックをコピーする際の最も下の行

	// ボードの最下部から上に向かって各行をチェック
	for row := BoardHeight - 1; row >= 0; row-- {
		if b.IsRowFull(row) {
			clearedLines++
			continue
		}
		newBoard[destRow] = b[row]
		destRow--
	}
	*b = newBoard
	return clearedLines
}

// Occupied は固定済みブロックの数を返します。
func (b *Board) Occupied() int {
	n := 0
	for row := range b {
		for col := range b[row] {
			if b[row][col] != BlockEmpty {
				n++
			}
		}
	}
	return n
}
