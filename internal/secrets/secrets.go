package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrSecretNotFound — секрет не найден ни в одном источнике.
var ErrSecretNotFound = errors.New("secret not found")

// RefPrefix — префикс ссылки на секрет в credentials узла.
const RefPrefix = "secret://"

// Resolver — источник секретов.
//
// Ядро движка трактует разрешённые значения как непрозрачные: оно только
// подставляет их в credentials узла при создании.
type Resolver interface {
	// Get возвращает значение секрета по имени.
	Get(name string) (string, bool)
}

// Env — резолвер из переменных окружения.
//
// Имя секрета преобразуется в имя переменной: верхний регистр, дефисы и
// точки заменяются подчёркиваниями, добавляется Prefix.
type Env struct {
	// Prefix — префикс переменных окружения (например, "NODEFLOW_").
	Prefix string
}

// Get возвращает значение из окружения.
func (e Env) Get(name string) (string, bool) {
	key := e.Prefix + strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(name))
	return os.LookupEnv(key)
}

// Static — резолвер из фиксированной карты. Используется в тестах
// и для значений, загруженных из конфигурационного файла.
type Static map[string]string

// Get возвращает значение из карты.
func (s Static) Get(name string) (string, bool) {
	v, ok := s[name]
	return v, ok
}

// Chain — цепочка резолверов; выигрывает первый, у которого секрет есть.
type Chain []Resolver

// Get опрашивает резолверы по порядку.
func (c Chain) Get(name string) (string, bool) {
	for _, r := range c {
		if v, ok := r.Get(name); ok {
			return v, true
		}
	}
	return "", false
}

// IsRef возвращает true, если значение — ссылка вида "secret://NAME".
func IsRef(v string) bool {
	return strings.HasPrefix(v, RefPrefix)
}

// ResolveValue разрешает одно значение credentials.
//
// Строки вида "secret://NAME" заменяются значением секрета; вложенные
// map и слайсы обходятся рекурсивно; остальные значения возвращаются как есть.
// Отсутствующий секрет — ошибка, называющая имя (но не значение).
func ResolveValue(r Resolver, value any) (any, error) {
	switch v := value.(type) {
	case string:
		if !IsRef(v) {
			return v, nil
		}
		name := strings.TrimPrefix(v, RefPrefix)
		if r == nil {
			return nil, fmt.Errorf("%w: %s (no resolver configured)", ErrSecretNotFound, name)
		}
		resolved, ok := r.Get(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrSecretNotFound, name)
		}
		return resolved, nil

	case map[string]any:
		return ResolveMap(r, v)

	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			resolved, err := ResolveValue(r, item)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil

	default:
		return value, nil
	}
}

// ResolveMap разрешает все ссылки на секреты внутри карты credentials.
// Исходная карта не модифицируется.
func ResolveMap(r Resolver, m map[string]any) (map[string]any, error) {
	if m == nil {
		return nil, nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		resolved, err := ResolveValue(r, v)
		if err != nil {
			return nil, fmt.Errorf("credential %q: %w", k, err)
		}
		out[k] = resolved
	}
	return out, nil
}
