package services

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/width"

	"github.com/confradar/confradar/pkg/models"
)

// IntentExtractor turns free text into a structured UserIntent. It is
// a pure function over the query: no I/O, deterministic, pattern-based
// rather than learned. Each field is driven by an ordered list of
// rules; the first rule that produces a value wins and later rules
// never overwrite it.
type IntentExtractor struct{}

func NewIntentExtractor() *IntentExtractor {
	return &IntentExtractor{}
}

// vocabTerm couples a vocabulary entry with the category it hints at.
// The list is ordered; category detection takes the first keyword's
// category.
type vocabTerm struct {
	term     string
	category string
}

// topicVocabulary is the curated bilingual keyword list. Matching is
// by substring on the folded query, so multi-word English terms and
// CJK phrases both work without tokenization.
var topicVocabulary = []vocabTerm{
	{"machine learning", models.CategoryAI},
	{"机器学习", models.CategoryAI},
	{"deep learning", models.CategoryAI},
	{"深度学习", models.CategoryAI},
	{"artificial intelligence", models.CategoryAI},
	{"人工智能", models.CategoryAI},
	{"natural language processing", models.CategoryAI},
	{"自然语言处理", models.CategoryAI},
	{"nlp", models.CategoryAI},
	{"computer vision", models.CategoryAI},
	{"计算机视觉", models.CategoryAI},
	{"reinforcement learning", models.CategoryAI},
	{"强化学习", models.CategoryAI},
	{"robotics", models.CategoryAI},
	{"机器人", models.CategoryAI},
	{"speech", models.CategoryAI},
	{"语音", models.CategoryAI},
	{"data mining", models.CategoryDB},
	{"数据挖掘", models.CategoryDB},
	{"database", models.CategoryDB},
	{"数据库", models.CategoryDB},
	{"big data", models.CategoryDB},
	{"大数据", models.CategoryDB},
	{"security", models.CategorySC},
	{"安全", models.CategorySC},
	{"privacy", models.CategorySC},
	{"隐私", models.CategorySC},
	{"cryptography", models.CategorySC},
	{"密码学", models.CategorySC},
	{"network", models.CategoryNW},
	{"网络", models.CategoryNW},
	{"distributed", models.CategoryDS},
	{"分布式", models.CategoryDS},
	{"operating system", models.CategoryDS},
	{"操作系统", models.CategoryDS},
	{"architecture", models.CategoryDS},
	{"体系结构", models.CategoryDS},
	{"systems", models.CategoryDS},
	{"系统", models.CategoryDS},
	{"graphics", models.CategoryCG},
	{"图形学", models.CategoryCG},
	{"visualization", models.CategoryCG},
	{"可视化", models.CategoryCG},
	{"multimedia", models.CategoryCG},
	{"多媒体", models.CategoryCG},
	{"human-computer interaction", models.CategoryHI},
	{"人机交互", models.CategoryHI},
	{"hci", models.CategoryHI},
	{"theory", models.CategoryCT},
	{"理论", models.CategoryCT},
	{"algorithm", models.CategoryCT},
	{"算法", models.CategoryCT},
	{"software engineering", models.CategorySE},
	{"软件工程", models.CategorySE},
	{"programming language", models.CategorySE},
	{"程序设计语言", models.CategorySE},
	{"compiler", models.CategorySE},
	{"编译", models.CategorySE},
	{"ai", models.CategoryAI},
	{"ml", models.CategoryAI},
}

// fallbackStoplist removes generic request words when the vocabulary
// yields nothing and we fall back to raw tokens.
var fallbackStoplist = map[string]struct{}{
	"recommend":   {},
	"recommends":  {},
	"conference":  {},
	"conferences": {},
	"please":      {},
	"help":        {},
	"some":        {},
	"the":         {},
	"for":         {},
	"推荐":          {},
	"会议":          {},
	"帮我":          {},
	"请问":          {},
	"我想":          {},
	"投稿":          {},
	"有什么":         {},
}

// Rank preference patterns, first match wins. All run against the
// folded query.
var rankPatterns = []*regexp.Regexp{
	regexp.MustCompile(`ccf[\s-]*([abc])\b`),
	regexp.MustCompile(`([abc])类`),
	regexp.MustCompile(`\brank\s+([abc])\b`),
	regexp.MustCompile(`\b([abc])[\s-]class\b`),
}

// Numeric time-budget patterns, ordered months, weeks, days.
var budgetPatterns = []struct {
	re   *regexp.Regexp
	days int
}{
	{regexp.MustCompile(`(\d+)\s*(?:个月|months?|月)`), 30},
	{regexp.MustCompile(`(\d+)\s*(?:周|星期|weeks?)`), 7},
	{regexp.MustCompile(`(\d+)\s*(?:天|日|days?)`), 1},
}

var percentRe = regexp.MustCompile(`(\d{1,2})\s*%`)

// Qualitative progress rules, applied only when no numeric pattern
// matched. Ordered; the first satisfied rule sets the budget.
var progressRules = []struct {
	phrases []string
	days    int
}{
	{[]string{"just started", "刚开始", "刚起步", "half done", "完成一半", "写了一半"}, 60},
	{[]string{"almost done", "almost finished", "快完成", "快写完", "差不多完成"}, 30},
	{[]string{"progress", "进度", "完成", "done", "started", "写了"}, 90},
}

func (e *IntentExtractor) Extract(text string) models.UserIntent {
	q := normalizeQuery(text)

	intent := models.UserIntent{
		Rank:     extractRank(q),
		Keywords: extractKeywords(q),
	}

	if days, ok := extractBudget(q); ok {
		intent.DaysAvailable = &days
	}

	return intent
}

// normalizeQuery folds width (full-width CJK punctuation and Latin)
// and case so one vocabulary covers both scripts.
func normalizeQuery(text string) string {
	return cases.Fold().String(width.Fold.String(text))
}

func extractRank(q string) string {
	for _, re := range rankPatterns {
		if m := re.FindStringSubmatch(q); m != nil {
			return strings.ToUpper(m[1])
		}
	}
	return ""
}

func extractBudget(q string) (int, bool) {
	for _, p := range budgetPatterns {
		if m := p.re.FindStringSubmatch(q); m != nil {
			n, err := strconv.Atoi(m[1])
			if err == nil && n > 0 {
				return n * p.days, true
			}
		}
	}

	if m := percentRe.FindStringSubmatch(q); m != nil {
		pct, err := strconv.Atoi(m[1])
		if err == nil {
			if pct >= 80 {
				return 30, true
			}
			return 60, true
		}
	}

	for _, rule := range progressRules {
		for _, phrase := range rule.phrases {
			if strings.Contains(q, phrase) {
				return rule.days, true
			}
		}
	}

	return 0, false
}

func extractKeywords(q string) []string {
	var keywords []string
	seen := make(map[string]struct{})

	for _, v := range topicVocabulary {
		if !strings.Contains(q, v.term) {
			continue
		}
		if _, dup := seen[v.term]; dup {
			continue
		}
		seen[v.term] = struct{}{}
		keywords = append(keywords, v.term)
	}

	if len(keywords) > 0 {
		return keywords
	}

	// Best-effort fallback: raw tokens of plausible keyword length,
	// minus generic request words.
	tokens := strings.FieldsFunc(q, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, tok := range tokens {
		n := len([]rune(tok))
		if n < 2 || n > 10 {
			continue
		}
		if _, stop := fallbackStoplist[tok]; stop {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		keywords = append(keywords, tok)
	}

	return keywords
}

// CategoryFor maps extracted keywords to an explicit category filter.
// Category filters are mutually exclusive: the first keyword carrying
// a category wins.
func CategoryFor(keywords []string) string {
	index := make(map[string]string, len(topicVocabulary))
	for _, v := range topicVocabulary {
		index[v.term] = v.category
	}

	for _, kw := range keywords {
		if cat, ok := index[kw]; ok {
			return cat
		}
	}
	return ""
}

// categoryKeywords is the reverse lookup used by the relevance
// scorer's lowest match tier.
func categoryKeywords(category string) []string {
	var terms []string
	for _, v := range topicVocabulary {
		if v.category == category {
			terms = append(terms, v.term)
		}
	}
	return terms
}
