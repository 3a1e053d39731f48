package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want int
	}{
		{name: "both empty", a: "", b: "", want: 100},
		{name: "left empty", a: "", b: "山田", want: 0},
		{name: "right empty", a: "山田", b: "", want: 0},
		{name: "identical", a: "テストケア", b: "テストケア", want: 100},
		{name: "one substitution of four", a: "山田太郎", b: "山田太朗", want: 75},
		{name: "one insertion of five", a: "テストケア", b: "テストケ", want: 80},
		{name: "nothing in common", a: "abc", b: "xyz", want: 0},
		{name: "ascii", a: "kitten", b: "sitting", want: 57},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.a, tt.b))
		})
	}
}

func TestScore_Properties(t *testing.T) {
	words := []string{"", "山田太郎", "山田", "田中太郎", "テストケア", "テストケアセンタ", "ケア", "abc", "居宅サービス計画書"}

	for _, a := range words {
		assert.Equal(t, 100, Score(a, a), "self score of %q", a)
		for _, b := range words {
			s := Score(a, b)
			assert.Equal(t, s, Score(b, a), "symmetry of %q and %q", a, b)
			assert.GreaterOrEqual(t, s, 0)
			assert.LessOrEqual(t, s, 100)
		}
	}
}

func TestDistance_CountsRunes(t *testing.T) {
	assert.Equal(t, 1, Distance("山田太郎", "山田太朗"))
	assert.Equal(t, 4, Distance("", "山田太郎"))
}
