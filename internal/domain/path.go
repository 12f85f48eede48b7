package domain

import "strings"

// ExtractPath извлекает значение по dotted-path из результата узла.
//
// Путь "a.b" на значении {"a": {"b": 5}} даёт 5.
// Путь "output" или пустой путь возвращает значение целиком.
// Отсутствующий путь даёт nil — никогда не ошибку: ребро с несуществующим
// путём просто маршрутизирует nil дальше.
func ExtractPath(value any, path string) any {
	if path == "" || path == DefaultSourceOutput {
		return value
	}

	current := value
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current, ok = m[part]
		if !ok {
			return nil
		}
	}
	return current
}
