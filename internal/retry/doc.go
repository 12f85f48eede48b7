// Package retry — повторные попытки с экспоненциальной задержкой и jitter.
//
// Оборачивает любую fallible-операцию:
//
//	err := retry.Do(ctx, retry.Policy{MaxRetries: 5, BaseDelay: 500 * time.Millisecond}, func(ctx context.Context) error {
//	    return client.Call(ctx)
//	})
//
// Политика задаётся per-call или наследуется от профиля по умолчанию
// (DefaultPolicy). Предикат RetryIf отделяет временные ошибки от
// фатальных: фатальные возвращаются с первого раза.
package retry
