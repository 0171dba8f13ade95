package algorithms

import (
	"strings"
	"unicode/utf8"
)

// LevenshteinDistance вычисляет расстояние Левенштейна между двумя строками.
// Работает по рунам, поэтому корректно для не-ASCII имен.
func LevenshteinDistance(s1, s2 string) int {
	r1 := []rune(s1)
	r2 := []rune(s2)
	len1 := len(r1)
	len2 := len(r2)

	if len1 == 0 {
		return len2
	}
	if len2 == 0 {
		return len1
	}

	// Две строки матрицы достаточно для классического ДП
	prev := make([]int, len2+1)
	curr := make([]int, len2+1)

	for j := 0; j <= len2; j++ {
		prev[j] = j
	}

	for i := 1; i <= len1; i++ {
		curr[0] = i
		for j := 1; j <= len2; j++ {
			cost := 1
			if r1[i-1] == r2[j-1] {
				cost = 0
			}
			curr[j] = min3(
				curr[j-1]+1,    // вставка
				prev[j]+1,      // удаление
				prev[j-1]+cost, // замена
			)
		}
		prev, curr = curr, prev
	}

	return prev[len2]
}

// DamerauLevenshteinDistance вычисляет расстояние Дамерау-Левенштейна.
// Дополнительно к операциям Левенштейна учитывает транспозицию соседних символов,
// что важно для опечаток в хэндлах ("jnae" vs "jane").
func DamerauLevenshteinDistance(s1, s2 string) int {
	r1 := []rune(s1)
	r2 := []rune(s2)
	len1 := len(r1)
	len2 := len(r2)

	if len1 == 0 {
		return len2
	}
	if len2 == 0 {
		return len1
	}

	matrix := make([][]int, len1+1)
	for i := range matrix {
		matrix[i] = make([]int, len2+1)
		matrix[i][0] = i
	}
	for j := 0; j <= len2; j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len1; i++ {
		for j := 1; j <= len2; j++ {
			cost := 1
			if r1[i-1] == r2[j-1] {
				cost = 0
			}

			matrix[i][j] = min3(
				matrix[i][j-1]+1,
				matrix[i-1][j]+1,
				matrix[i-1][j-1]+cost,
			)

			// Транспозиция соседних символов
			if i > 1 && j > 1 && r1[i-1] == r2[j-2] && r1[i-2] == r2[j-1] {
				if t := matrix[i-2][j-2] + cost; t < matrix[i][j] {
					matrix[i][j] = t
				}
			}
		}
	}

	return matrix[len1][len2]
}

// NormalizedSimilarity вычисляет нормализованную схожесть строк от 0.0 до 1.0
// на основе расстояния Дамерау-Левенштейна: 1 - dist/maxLen
func NormalizedSimilarity(s1, s2 string) float64 {
	len1 := utf8.RuneCountInString(s1)
	len2 := utf8.RuneCountInString(s2)

	if len1 == 0 && len2 == 0 {
		return 1.0
	}
	if len1 == 0 || len2 == 0 {
		return 0.0
	}

	maxLen := len1
	if len2 > maxLen {
		maxLen = len2
	}

	dist := DamerauLevenshteinDistance(s1, s2)
	return 1.0 - float64(dist)/float64(maxLen)
}

// CharacterNGramSimilarity вычисляет схожесть по символьным N-граммам (коэффициент Жаккара).
// Для коротких строк (хэндлы, имена) работает устойчивее пословных метрик.
func CharacterNGramSimilarity(s1, s2 string, n int) float64 {
	if n <= 0 {
		n = 2
	}

	set1 := characterNGrams(s1, n)
	set2 := characterNGrams(s2, n)

	if len(set1) == 0 && len(set2) == 0 {
		return 1.0
	}
	if len(set1) == 0 || len(set2) == 0 {
		return 0.0
	}

	intersection := 0
	for gram := range set1 {
		if set2[gram] {
			intersection++
		}
	}

	union := len(set1)
	for gram := range set2 {
		if !set1[gram] {
			union++
		}
	}

	if union == 0 {
		return 0.0
	}

	return float64(intersection) / float64(union)
}

// characterNGrams строит множество символьных N-грамм строки
func characterNGrams(s string, n int) map[string]bool {
	runes := []rune(strings.ToLower(s))
	grams := make(map[string]bool)

	if len(runes) < n {
		if len(runes) > 0 {
			grams[string(runes)] = true
		}
		return grams
	}

	for i := 0; i+n <= len(runes); i++ {
		grams[string(runes[i:i+n])] = true
	}

	return grams
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
