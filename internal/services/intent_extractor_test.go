package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confradar/confradar/pkg/models"
)

func TestIntentExtractor_RankDetection(t *testing.T) {
	extractor := NewIntentExtractor()

	tests := []struct {
		query string
		rank  string
	}{
		{"recommend a CCF A conference on machine learning", "A"},
		{"ccf-b security venues please", "B"},
		{"推荐几个C类数据库会议", "C"},
		{"rank a conferences in networking", "A"},
		{"good machine learning conferences", ""},
	}

	for _, tt := range tests {
		intent := extractor.Extract(tt.query)
		assert.Equal(t, tt.rank, intent.Rank, "query: %s", tt.query)
	}
}

func TestIntentExtractor_NumericBudgets(t *testing.T) {
	extractor := NewIntentExtractor()

	tests := []struct {
		query string
		days  int
	}{
		{"I have 2 months left for my paper", 60},
		{"还有3个月可以准备", 90},
		{"about 6 weeks of work remaining", 42},
		{"还需要10天", 10},
	}

	for _, tt := range tests {
		intent := extractor.Extract(tt.query)
		require.NotNil(t, intent.DaysAvailable, "query: %s", tt.query)
		assert.Equal(t, tt.days, *intent.DaysAvailable, "query: %s", tt.query)
	}
}

func TestIntentExtractor_QualitativeBudgets(t *testing.T) {
	extractor := NewIntentExtractor()

	tests := []struct {
		query string
		days  int
	}{
		{"we just started writing, any AI conference ideas", 60},
		{"论文完成一半了，推荐会议", 60},
		{"the draft is almost done", 30},
		{"实验快完成了", 30},
		{"paper is 90% done", 30},
		{"paper is 50% done", 60},
		{"making good progress on the paper", 90},
	}

	for _, tt := range tests {
		intent := extractor.Extract(tt.query)
		require.NotNil(t, intent.DaysAvailable, "query: %s", tt.query)
		assert.Equal(t, tt.days, *intent.DaysAvailable, "query: %s", tt.query)
	}
}

func TestIntentExtractor_NoBudgetSignal(t *testing.T) {
	extractor := NewIntentExtractor()

	intent := extractor.Extract("recommend machine learning conferences")
	assert.Nil(t, intent.DaysAvailable)
}

func TestIntentExtractor_NumericBeatsQualitative(t *testing.T) {
	extractor := NewIntentExtractor()

	// "started" alone would map to 90 days; the explicit number wins.
	intent := extractor.Extract("started the paper, 2 weeks to the deadline")
	require.NotNil(t, intent.DaysAvailable)
	assert.Equal(t, 14, *intent.DaysAvailable)
}

func TestIntentExtractor_BilingualKeywords(t *testing.T) {
	extractor := NewIntentExtractor()

	intent := extractor.Extract("recommend deep learning and computer vision venues")
	assert.Contains(t, intent.Keywords, "deep learning")
	assert.Contains(t, intent.Keywords, "computer vision")

	intent = extractor.Extract("推荐机器学习和数据挖掘的会议")
	assert.Contains(t, intent.Keywords, "机器学习")
	assert.Contains(t, intent.Keywords, "数据挖掘")
}

func TestIntentExtractor_FullWidthInputNormalized(t *testing.T) {
	extractor := NewIntentExtractor()

	// Full-width Latin letters fold to their ASCII forms.
	intent := extractor.Extract("ＣＣＦ　Ａ类 机器学习会议")
	assert.Equal(t, "A", intent.Rank)
	assert.Contains(t, intent.Keywords, "机器学习")
}

func TestIntentExtractor_FallbackTokens(t *testing.T) {
	extractor := NewIntentExtractor()

	// No vocabulary term matches; generic request words are dropped
	// and the remaining tokens survive as best-effort keywords.
	intent := extractor.Extract("please recommend some quantum computing conferences")
	assert.Contains(t, intent.Keywords, "quantum")
	assert.NotContains(t, intent.Keywords, "please")
	assert.NotContains(t, intent.Keywords, "recommend")
}

func TestCategoryFor(t *testing.T) {
	assert.Equal(t, models.CategoryAI, CategoryFor([]string{"machine learning"}))
	assert.Equal(t, models.CategorySC, CategoryFor([]string{"security", "machine learning"}))
	assert.Equal(t, "", CategoryFor([]string{"bioinformatics"}))
	assert.Equal(t, "", CategoryFor(nil))
}

func TestCategoryKeywords(t *testing.T) {
	terms := categoryKeywords(models.CategorySC)
	assert.Contains(t, terms, "security")
	assert.Contains(t, terms, "密码学")
	assert.NotContains(t, terms, "machine learning")
}
