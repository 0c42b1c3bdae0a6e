package word

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// 内置词库分类
var (
	fruits = []string{
		"apple", "banana", "orange", "grape", "strawberry",
		"watermelon", "pineapple", "mango", "peach", "cherry",
		"lemon", "pear", "plum", "coconut", "kiwi",
	}
	animals = []string{
		"cat", "dog", "elephant", "lion", "tiger",
		"giraffe", "monkey", "penguin", "dolphin", "rabbit",
		"horse", "bear", "fox", "owl", "butterfly",
		"fish", "bird", "snake", "turtle", "frog",
	}
	emojis = []string{
		"smile", "heart", "star", "sun", "moon",
		"fire", "rainbow", "cloud", "lightning", "snowflake",
		"flower", "tree", "mountain", "ocean", "rocket",
	}
	memes = []string{
		"thumbs up", "peace sign", "ok hand", "clapping hands",
		"thinking face", "crying laughing", "sunglasses", "party hat",
		"pizza", "hamburger", "ice cream", "birthday cake",
	}
)

var ErrEmptyPool = errors.New("word pool is empty")

// Pool 词库，只读，可并发使用
type Pool struct {
	words []string
	intN  func(n int) int
}

// NewPool 创建词库，去除空白和重复项（保留首次出现的顺序）
func NewPool(words []string) (*Pool, error) {
	seen := make(map[string]struct{}, len(words))
	clean := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		key := strings.ToLower(w)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		clean = append(clean, w)
	}
	if len(clean) == 0 {
		return nil, ErrEmptyPool
	}
	return &Pool{words: clean, intN: rand.IntN}, nil
}

// Default 返回内置词库
func Default() *Pool {
	p, _ := NewPool(slices.Concat(fruits, animals, emojis, memes))
	return p
}

// LoadFile 从 YAML 文件加载词库
// 支持按分类的映射（fruits: [...]）或者单个列表
func LoadFile(path string) (*Pool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var categories map[string][]string
	if err := yaml.Unmarshal(data, &categories); err == nil {
		keys := make([]string, 0, len(categories))
		for k := range categories {
			keys = append(keys, k)
		}
		slices.Sort(keys)

		var words []string
		for _, k := range keys {
			words = append(words, categories[k]...)
		}
		return NewPool(words)
	}

	var words []string
	if err := yaml.Unmarshal(data, &words); err != nil {
		return nil, fmt.Errorf("parse word file %s: %w", path, err)
	}
	return NewPool(words)
}

// Size 返回词数
func (p *Pool) Size() int {
	return len(p.words)
}

// Words 返回词库副本
func (p *Pool) Words() []string {
	return slices.Clone(p.words)
}

// Random 随机抽取 n 个互不相同的词，n 超过词库大小时返回全部词（顺序随机）
func (p *Pool) Random(n int) []string {
	if n <= 0 {
		return nil
	}
	n = min(n, len(p.words))

	// 部分 Fisher-Yates 洗牌
	buf := slices.Clone(p.words)
	for i := range n {
		j := i + p.intN(len(buf)-i)
		buf[i], buf[j] = buf[j], buf[i]
	}
	return buf[:n:n]
}
