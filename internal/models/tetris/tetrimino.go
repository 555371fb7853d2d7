package tetris

import "fmt"

// PieceType はテトリミノの種類を表します。
// 値はピースカタログのインデックスで、ボード上では PieceType+1 の BlockType として記録されます。
type PieceType int

const (
	TypeI PieceType = iota // 0: I-ミノ (シアン)
	TypeO                  // 1: O-ミノ (黄色)
	TypeT                  // 2: T-ミノ (紫)
	TypeL                  // 3: L-ミノ (オレンジ)
	TypeJ                  // 4: J-ミノ (青)
	TypeS                  // 5: S-ミノ (緑)
	TypeZ                  // 6: Z-ミノ (赤)
)

// NumPieceTypes はカタログに登録されているテトリミノの種類数です。
const NumPieceTypes = 7

// AllPieceTypes はカタログ順に並べた全テトリミノです。
var AllPieceTypes = [NumPieceTypes]PieceType{TypeI, TypeO, TypeT, TypeL, TypeJ, TypeS, TypeZ}

// Cell はボード上の座標、またはピース内の相対座標です。
// Row は下向き、Col は右向きに増加します。
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Color はテトリミノの表示色です。
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Hex は "#rrggbb" 形式の文字列を返します。
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// pieceShapes は各PieceTypeの各回転状態におけるブロックの相対座標 (row, col) を定義します。
// [PieceType][RotationIndex][BlockIndex]
// 回転時は各状態の先頭ブロックが基準点として使われるため、ブロックの並び順にも意味があります。
var pieceShapes = [NumPieceTypes][][4]Cell{
	TypeI: {
		{{0, 0}, {1, 0}, {2, 0}, {3, 0}},  // 縦
		{{1, -1}, {1, 0}, {1, 1}, {1, 2}}, // 横
	},
	TypeO: {
		{{0, 0}, {0, 1}, {1, 0}, {1, 1}}, // 回転しない
	},
	TypeT: {
		{{0, 1}, {1, 0}, {1, 1}, {1, 2}},
		{{0, 1}, {1, 1}, {1, 2}, {2, 1}},
		{{1, 0}, {1, 1}, {1, 2}, {2, 1}},
		{{0, 1}, {1, 0}, {1, 1}, {2, 1}},
	},
	TypeL: {
		{{0, 2}, {1, 0}, {1, 1}, {1, 2}},
		{{0, 1}, {1, 1}, {2, 1}, {2, 2}},
		{{1, 0}, {1, 1}, {1, 2}, {2, 0}},
		{{0, 0}, {0, 1}, {1, 1}, {2, 1}},
	},
	TypeJ: {
		{{0, 0}, {1, 0}, {1, 1}, {1, 2}},
		{{0, 1}, {0, 2}, {1, 1}, {2, 1}},
		{{1, 0}, {1, 1}, {1, 2}, {2, 2}},
		{{0, 1}, {1, 1}, {2, 0}, {2, 1}},
	},
	TypeS: {
		{{0, 1}, {0, 2}, {1, 0}, {1, 1}},
		{{0, 0}, {1, 0}, {1, 1}, {2, 1}},
	},
	TypeZ: {
		{{0, 0}, {0, 1}, {1, 1}, {1, 2}},
		{{0, 1}, {1, 0}, {1, 1}, {2, 0}},
	},
}

var pieceColors = [NumPieceTypes]Color{
	TypeI: {0, 255, 255},
	TypeO: {255, 255, 0},
	TypeT: {128, 0, 128},
	TypeL: {255, 165, 0},
	TypeJ: {0, 0, 255},
	TypeS: {0, 255, 0},
	TypeZ: {255, 0, 0},
}

// Valid はカタログに存在する種類かどうかを返します。
func (t PieceType) Valid() bool {
	return t >= 0 && int(t) < NumPieceTypes
}

func (t PieceType) String() string {
	return PieceTypeToString(t)
}

func mustPieceType(t PieceType) {
	if !t.Valid() {
		panic(fmt.Sprintf("tetris: piece type %d out of range [0,%d)", int(t), NumPieceTypes))
	}
}

// ShapeOf は指定された回転状態でのブロックの相対座標を返します。
// 範囲外の種類・回転インデックスはプログラムの誤りなのでpanicします。
//
// Parameters:
//   kind     : テトリミノの種類
//   rotation : 回転インデックス (0 <= rotation < RotationCount(kind))
// Returns:
//   [4]Cell: 各ブロックの相対座標
func ShapeOf(kind PieceType, rotation int) [4]Cell {
	mustPieceType(kind)
	states := pieceShapes[kind]
	if rotation < 0 || rotation >= len(states) {
		panic(fmt.Sprintf("tetris: rotation %d out of range for %s (has %d)", rotation, kind, len(states)))
	}
	return states[rotation]
}

// RotationCount は指定された種類の回転状態の数を返します。
func RotationCount(kind PieceType) int {
	mustPieceType(kind)
	return len(pieceShapes[kind])
}

// ColorOf は指定された種類の表示色を返します。
func ColorOf(kind PieceType) Color {
	mustPieceType(kind)
	return pieceColors[kind]
}

// StringToPieceType は文字列のテトリミノタイプ（"I", "O", "T"など）をPieceTypeに変換します。
func StringToPieceType(s string) (PieceType, bool) {
	switch s {
	case "I":
		return TypeI, true
	case "O":
		return TypeO, true
	case "T":
		return TypeT, true
	case "L":
		return TypeL, true
	case "J":
		return TypeJ, true
	case "S":
		return TypeS, true
	case "Z":
		return TypeZ, true
	default:
		return TypeI, false
	}
}

// PieceTypeToString はPieceTypeを文字列表現に変換します。
func PieceTypeToString(t PieceType) string {
	switch t {
	case TypeI:
		return "I"
	case TypeO:
		return "O"
	case TypeT:
		return "T"
	case TypeL:
		return "L"
	case TypeJ:
		return "J"
	case TypeS:
		return "S"
	case TypeZ:
		return "Z"
	default:
		return fmt.Sprintf("PieceType(%d)", int(t))
	}
}

// SpawnColumn はスポーン時に回転状態0の相対座標へ加算する列オフセットです。
const SpawnColumn = BoardWidth/2 - 2

// Piece は操作中のテトリミノの状態（種類、回転インデックス、ボード上の絶対座標）を表します。
// Piece は値として扱い、移動・回転は新しい候補を返すだけで元の値は変更しません。
type Piece struct {
	Type     PieceType `json:"type"`
	Rotation int       `json:"rotation"`
	Cells    [4]Cell   `json:"cells"`
}

// SpawnPiece は指定された種類のピースを回転状態0でボード上部中央に配置して返します。
// 配置が有効かどうかは呼び出し側が判定します（無効なスポーンはゲームオーバーの合図です）。
func SpawnPiece(kind PieceType) Piece {
	shape := ShapeOf(kind, 0)
	p := Piece{Type: kind, Rotation: 0}
	for i, c := range shape {
		p.Cells[i] = Cell{Row: c.Row, Col: c.Col + SpawnColumn}
	}
	return p
}

// Translated は各ブロックを (dRow, dCol) だけ平行移動した候補を返します。
func (p Piece) Translated(dRow, dCol int) Piece {
	moved := p
	for i, c := range p.Cells {
		moved.Cells[i] = Cell{Row: c.Row + dRow, Col: c.Col + dCol}
	}
	return moved
}

// Rotated は次の回転状態の候補を返します。
//
// 現在の絶対座標の先頭ブロックと、現在の回転状態の先頭相対座標との差をオフセットとし、
// そのオフセットを次の回転状態の相対座標にそのまま加算します。
// 重心ではなく先頭ブロックを基準にするため、テーブルのブロック順を変えると回転の見た目も変わります。
// 次の回転状態の先頭相対座標を現在の先頭ブロックの位置に重ねる方式とは結果が異なります。この動作は TestRotatedKeepsFirstCellOffset で固定しています。
func (p Piece) Rotated() Piece {
	next := (p.Rotation + 1) % RotationCount(p.Type)
	origin := p.Cells[0]
	anchor := ShapeOf(p.Type, p.Rotation)[0]
	offRow, offCol := origin.Row-anchor.Row, origin.Col-anchor.Col

	rotated := Piece{Type: p.Type, Rotation: next}
	for i, c := range ShapeOf(p.Type, next) {
		rotated.Cells[i] = Cell{Row: c.Row + offRow, Col: c.Col + offCol}
	}
	return rotated
}

// Color はピースの表示色を返します。
func (p Piece) Color() Color {
	return ColorOf(p.Type)
}
