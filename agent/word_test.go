package agent

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestCleanWord(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", "りんご", "りんご"},
		{"brackets and period", "「りんご」。", "りんご"},
		{"whitespace and newline", "  ご り ら\n", "ごりら"},
		{"full-width parens", "（らっぱ）", "らっぱ"},
		{"katakana dropped", "リンゴりんご", "りんご"},
		{"kanji and ascii dropped", "回答: すいか (watermelon)", "すいか"},
		{"long vowel mark dropped", "らーめん", "らめん"},
		{"nothing left", "Apple!", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanWord(tt.raw))
		})
	}
}

func TestIsValidWord(t *testing.T) {
	assert.True(t, IsValidWord("りんご"))
	assert.True(t, IsValidWord("ん"))
	assert.False(t, IsValidWord(""))
	assert.False(t, IsValidWord("リンゴ"))
	assert.False(t, IsValidWord("りんごa"))
}

func TestFirstLastRune(t *testing.T) {
	assert.Equal(t, 'り', FirstRune("りんご"))
	assert.Equal(t, 'ご', LastRune("りんご"))
	assert.Equal(t, rune(0), FirstRune(""))
	assert.Equal(t, rune(0), LastRune(""))
	assert.True(t, EndsWithForbidden("みかん"))
	assert.False(t, EndsWithForbidden("りんご"))
}

func TestValidatePreviousWord(t *testing.T) {
	tests := []struct {
		word   string
		valid  bool
		reason string
	}{
		{"りんご", true, ""},
		{"みかん", false, "「ん」で終わっています: みかん"},
		{"", false, "無効な単語です: "},
		{"ringo", false, "無効な単語です: ringo"},
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			v := ValidatePreviousWord(tt.word)
			assert.Equal(t, tt.valid, v.Valid)
			assert.Equal(t, tt.reason, v.Reason)
		})
	}
}

// 日文与 ASCII 混合的字符串生成器.
func genMixedText() gopter.Gen {
	return gen.OneGenOf(
		gen.AnyString(),
		gen.SliceOf(gen.RuneRange('\u3000', '\u30ff')).Map(func(rs []rune) string { return string(rs) }),
		gen.SliceOf(gen.OneConstOf('り', 'ん', 'ご', '「', '」', '。', ' ', '\n', 'ア', 'a', '（')).
			Map(func(rs []rune) string { return string(rs) }),
	)
}

func TestProperty_CleanWordOnlyHiragana(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("cleaned words are empty or hiragana only", prop.ForAll(
		func(raw string) bool {
			w := CleanWord(raw)
			return w == "" || IsValidWord(w)
		},
		genMixedText(),
	))

	properties.Property("cleaning is idempotent", prop.ForAll(
		func(raw string) bool {
			w := CleanWord(raw)
			return CleanWord(w) == w
		},
		genMixedText(),
	))

	properties.TestingRun(t)
}

func TestProperty_ForbiddenEndingRejected(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("previous word ending in ん is invalid", prop.ForAll(
		func(prefix []rune) bool {
			word := string(prefix) + string(ForbiddenMora)
			return !ValidatePreviousWord(word).Valid
		},
		gen.SliceOf(gen.RuneRange('\u3041', '\u3096')),
	))

	properties.TestingRun(t)
}
