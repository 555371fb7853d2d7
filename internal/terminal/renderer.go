package terminal

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	modeltetris "github.com/progate-hackathon-strawberry-flavor/blockfall/internal/models/tetris"
	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/services/tetris"
)

const (
	boardX     = 2 // ボード枠の左端
	boardY     = 1 // ボード枠の上端
	cellWidth  = 2 // 1マスの表示幅（端末の文字は縦長なので2文字分）
	sidebarGap = 3
)

var (
	colorEmpty  = tcell.NewRGBColor(40, 40, 40)
	colorBorder = tcell.ColorGray
)

// Renderer は Snapshot を tcell の画面に描画します。
type Renderer struct {
	screen tcell.Screen
}

// NewRenderer は新しい Renderer を作成します。
func NewRenderer(screen tcell.Screen) *Renderer {
	return &Renderer{screen: screen}
}

// BlockColor はテトリミノの色を端末の色に変換します。
func BlockColor(kind modeltetris.PieceType) tcell.Color {
	c := modeltetris.ColorOf(kind)
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

// CellOrigin はボード座標 (row, col) に対応する画面上の左端の位置を返します。
func CellOrigin(c modeltetris.Cell) (x, y int) {
	return boardX + 1 + c.Col*cellWidth, boardY + 1 + c.Row
}

// Draw は画面を消去して、ボード、操作中のピース、スコアを描画します。
func (r *Renderer) Draw(snap tetris.Snapshot) {
	r.screen.Clear()
	defaultStyle := tcell.StyleDefault

	r.drawBorder(defaultStyle.Foreground(colorBorder))
	r.drawBoard(snap.Board, defaultStyle)
	r.drawActivePiece(snap, defaultStyle)
	r.drawSidebar(snap, defaultStyle)

	r.screen.Show()
}

func (r *Renderer) drawBorder(style tcell.Style) {
	right := boardX + 1 + modeltetris.BoardWidth*cellWidth
	bottom := boardY + 1 + modeltetris.BoardHeight
	for y := boardY; y <= bottom; y++ {
		r.screen.SetContent(boardX, y, '│', nil, style)
		r.screen.SetContent(right, y, '│', nil, style)
	}
	for x := boardX; x <= right; x++ {
		r.screen.SetContent(x, bottom, '─', nil, style)
	}
	r.screen.SetContent(boardX, bottom, '└', nil, style)
	r.screen.SetContent(right, bottom, '┘', nil, style)
}

func (r *Renderer) drawBoard(board modeltetris.Board, style tcell.Style) {
	for row := 0; row < modeltetris.BoardHeight; row++ {
		for col := 0; col < modeltetris.BoardWidth; col++ {
			cell := modeltetris.Cell{Row: row, Col: col}
			kind, ok := board[row][col].PieceType()
			if !ok {
				r.drawEmpty(cell, style)
				continue
			}
			r.drawBlock(cell, BlockColor(kind), style)
		}
	}
}

func (r *Renderer) drawActivePiece(snap tetris.Snapshot, style tcell.Style) {
	kind, ok := snap.ActivePieceType()
	if !ok {
		return
	}
	color := BlockColor(kind)
	for _, c := range snap.ActiveCells {
		if modeltetris.InBounds(c) {
			r.drawBlock(c, color, style)
		}
	}
}

func (r *Renderer) drawBlock(c modeltetris.Cell, color tcell.Color, style tcell.Style) {
	x, y := CellOrigin(c)
	blockStyle := style.Background(color).Foreground(color)
	for i := 0; i < cellWidth; i++ {
		r.screen.SetContent(x+i, y, ' ', nil, blockStyle)
	}
}

func (r *Renderer) drawEmpty(c modeltetris.Cell, style tcell.Style) {
	x, y := CellOrigin(c)
	r.screen.SetContent(x, y, '.', nil, style.Foreground(colorEmpty))
	r.screen.SetContent(x+1, y, ' ', nil, style)
}

func (r *Renderer) drawSidebar(snap tetris.Snapshot, style tcell.Style) {
	x := boardX + 2 + modeltetris.BoardWidth*cellWidth + sidebarGap
	y := boardY + 1
	labelStyle := style.Foreground(tcell.ColorGray)
	valueStyle := style.Foreground(tcell.ColorWhite).Bold(true)

	r.drawText(x, y, labelStyle, "SCORE")
	r.drawText(x, y+1, valueStyle, fmt.Sprintf("%d", snap.Score))
	r.drawText(x, y+3, labelStyle, "LINES")
	r.drawText(x, y+4, valueStyle, fmt.Sprintf("%d", snap.LinesCleared))

	if snap.Status == tetris.StatusGameOver {
		r.drawText(x, y+6, style.Foreground(tcell.ColorRed).Bold(true), "GAME OVER")
	}

	help := []string{"←/h  left", "→/l  right", "↓/j  drop", "↑/k  rotate", "q    quit"}
	for i, line := range help {
		r.drawText(x, y+9+i, labelStyle, line)
	}
}

func (r *Renderer) drawText(x, y int, style tcell.Style, text string) {
	for _, ch := range text {
		r.screen.SetContent(x, y, ch, nil, style)
		x++
	}
}
