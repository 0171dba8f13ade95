package resolution

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NameVariationSet множество текстовых вариантов имени.
// Чисто производное: потребляется как множество, порядок не имеет значения.
type NameVariationSet map[string]struct{}

// Contains проверяет наличие варианта в множестве
func (s NameVariationSet) Contains(v string) bool {
	_, ok := s[v]
	return ok
}

// Values возвращает отсортированный список вариантов (для детерминированного обхода)
func (s NameVariationSet) Values() []string {
	values := make([]string, 0, len(s))
	for v := range s {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}

// HandleForms возвращает только варианты без пробелов — шаблоны построения хэндлов
func (s NameVariationSet) HandleForms() []string {
	forms := make([]string, 0, len(s))
	for v := range s {
		if v != "" && !strings.Contains(v, " ") {
			forms = append(forms, v)
		}
	}
	sort.Strings(forms)
	return forms
}

// accentFolder убирает диакритику: NFD-разложение и удаление комбинируемых знаков
var accentFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldAccents приводит строку к форме без диакритики ("José" -> "Jose")
func foldAccents(s string) string {
	folded, _, err := transform.String(accentFolder, s)
	if err != nil {
		return s
	}
	return folded
}

// sanitizeNamePart нормализует часть имени для сравнения с хэндлами:
// убирает диакритику, приводит к нижнему регистру, оставляет только буквы и цифры
func sanitizeNamePart(s string) string {
	folded := strings.ToLower(foldAccents(s))
	var b strings.Builder
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// splitNameParts разбивает составную часть имени по дефисам и пробелам
func splitNameParts(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == '-' || r == ' '
	})
}

// GenerateNameVariations порождает ограниченное множество правдоподобных
// текстовых вариантов пары (имя, фамилия): полное имя, инициал + фамилия,
// склейки через точку/дефис/подчеркивание, разложение составной фамилии
// и отбрасывание приставок (van, de, la и т.п.).
// Функция чистая и детерминированная: одинаковый вход дает одинаковое множество.
func GenerateNameVariations(firstName, lastName string, prefixTokens []string) NameVariationSet {
	first := strings.TrimSpace(firstName)
	last := strings.TrimSpace(lastName)

	set := make(NameVariationSet)
	add := func(v string) {
		if v != "" {
			set[v] = struct{}{}
		}
	}

	if first == "" || last == "" {
		return set
	}

	prefixes := make(map[string]bool, len(prefixTokens))
	for _, p := range prefixTokens {
		prefixes[strings.ToLower(p)] = true
	}

	// Полное имя и инициальная форма
	add(first + " " + last)
	firstRunes := []rune(first)
	add(string(firstRunes[0]) + " " + last)

	sf := sanitizeNamePart(first)
	sl := sanitizeNamePart(last)
	if sf == "" || sl == "" {
		return set
	}

	// Нормализованная пробельная форма и склейки для хэндлов
	add(sf + " " + sl)
	add(sf + sl)
	add(sl + sf)
	add(sf + "." + sl)
	add(sf + "-" + sl)
	add(sf + "_" + sl)
	add("iam" + sf + sl)
	add(string([]rune(sf)[0]) + sl)
	add(sf + string([]rune(sl)[0]))

	// Разложение составной фамилии: каждая компонента в паре с именем
	lastParts := splitNameParts(last)
	if len(lastParts) > 1 {
		for _, part := range lastParts {
			if prefixes[strings.ToLower(part)] {
				continue
			}
			sp := sanitizeNamePart(part)
			if sp == "" {
				continue
			}
			add(first + " " + part)
			add(sf + " " + sp)
			add(sf + sp)
			add(sf + "." + sp)
			add(string([]rune(sf)[0]) + sp)
		}

		// Фамилия без приставок целиком ("van der Berg" -> "berg")
		var core []string
		for _, part := range lastParts {
			if !prefixes[strings.ToLower(part)] {
				core = append(core, sanitizeNamePart(part))
			}
		}
		if stripped := strings.Join(core, ""); stripped != "" && stripped != sl {
			add(sf + " " + stripped)
			add(sf + stripped)
			add(string([]rune(sf)[0]) + stripped)
		}
	}

	// Разложение составного имени ("Mary-Jane" -> "Mary", "Jane")
	firstParts := splitNameParts(first)
	if len(firstParts) > 1 {
		for _, part := range firstParts {
			sp := sanitizeNamePart(part)
			if sp == "" {
				continue
			}
			add(part + " " + last)
			add(sp + " " + sl)
			add(sp + sl)
		}
	}

	return set
}
