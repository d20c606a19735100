// Package similarity 提供集合 / 向量相似度与文本分词等纯函数。
package similarity

import (
	"math"
	"regexp"
	"strings"
)

// Jaccard 计算两个集合的 Jaccard 相似度 |A∩B| / |A∪B|。
// 输入按集合语义处理（重复元素只计一次）；两者都为空时返回 0。
func Jaccard[T comparable](a, b []T) float64 {
	setA := make(map[T]struct{}, len(a))
	for _, v := range a {
		setA[v] = struct{}{}
	}
	setB := make(map[T]struct{}, len(b))
	for _, v := range b {
		setB[v] = struct{}{}
	}

	var intersection int
	for v := range setB {
		if _, ok := setA[v]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// Cosine 计算两个向量的余弦相似度。
// 长度不同、任一为空或任一模长为 0 时返回 0。
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

var nonWord = regexp.MustCompile(`\W+`)

// Tokenize 将文本转小写后按非单词字符切分，丢弃空串。
func Tokenize(s string) []string {
	parts := nonWord.Split(strings.ToLower(s), -1)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
