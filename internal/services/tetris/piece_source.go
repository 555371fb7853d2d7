package tetris

import (
	"math/rand"
	"time"

	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/models/tetris"
)

// PieceSource は次にスポーンするテトリミノの種類を決めます。
// テストでは決まった順序を返す実装に差し替えます。
type PieceSource interface {
	NextPieceType() tetris.PieceType
}

// RandomPieceSource はカタログから一様ランダムに種類を選びます。
type RandomPieceSource struct {
	rng *rand.Rand
}

// NewRandomPieceSource は指定されたシードで乱数生成器を初期化します。
// seed が0の場合は現在時刻をシードに使います。
func NewRandomPieceSource(seed int64) *RandomPieceSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandomPieceSource{rng: rand.New(rand.NewSource(seed))}
}

func (s *RandomPieceSource) NextPieceType() tetris.PieceType {
	return tetris.PieceType(s.rng.Intn(tetris.NumPieceTypes))
}

// SequencePieceSource は与えられた種類を順番に返し、末尾に達したら先頭に戻ります。
type SequencePieceSource struct {
	types []tetris.PieceType
	next  int
}

// NewSequencePieceSource は固定順序のソースを作成します。空の場合はIミノだけを返します。
func NewSequencePieceSource(types ...tetris.PieceType) *SequencePieceSource {
	if len(types) == 0 {
		types = []tetris.PieceType{tetris.TypeI}
	}
	return &SequencePieceSource{types: types}
}

func (s *SequencePieceSource) NextPieceType() tetris.PieceType {
	t := s.types[s.next%len(s.types)]
	s.next++
	return t
}
