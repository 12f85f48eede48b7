package retry

import (
	"context"
	"math/rand/v2"
	"time"
)

// Значения по умолчанию.
const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = time.Second
	DefaultMaxDelay   = 10 * time.Second
)

// Policy — политика повторных попыток с экспоненциальной задержкой.
//
// Задержка перед попыткой attempt (начиная с 1):
//
//	wait = min(MaxDelay, BaseDelay * 2^(attempt-1)) * jitter,  jitter ~ U(0.8, 1.2)
//
// Jitter размазывает повторы по времени, чтобы упавшие разом клиенты
// не штурмовали сервис синхронно.
type Policy struct {
	// MaxRetries — максимальное число вызовов операции (включая первый).
	MaxRetries int

	// BaseDelay — базовая задержка перед первым повтором.
	BaseDelay time.Duration

	// MaxDelay — верхняя граница задержки (до применения jitter).
	MaxDelay time.Duration

	// RetryIf решает, является ли ошибка временной.
	// nil означает "повторять при любой ошибке".
	RetryIf func(error) bool
}

// DefaultPolicy возвращает политику по умолчанию.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  DefaultBaseDelay,
		MaxDelay:   DefaultMaxDelay,
	}
}

// normalized подставляет значения по умолчанию вместо нулевых.
func (p Policy) normalized() Policy {
	if p.MaxRetries <= 0 {
		p.MaxRetries = DefaultMaxRetries
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultMaxDelay
	}
	return p
}

// Do выполняет операцию с повторами согласно политике.
//
// Неповторяемая ошибка (RetryIf вернул false) возвращается сразу.
// После исчерпания MaxRetries возвращается последняя ошибка без обёрток.
// Retry применяется только вокруг операций, уже известных как идемпотентные;
// оркестрацию движка этой функцией не оборачивают.
//
// Отмена контекста во время ожидания возвращает ctx.Err() — отмена не
// маскируется под ошибку операции.
func Do(ctx context.Context, policy Policy, op func(context.Context) error) error {
	policy = policy.normalized()

	attempt := 0
	for {
		err := op(ctx)
		if err == nil {
			return nil
		}

		attempt++
		if attempt >= policy.MaxRetries {
			return err
		}
		if policy.RetryIf != nil && !policy.RetryIf(err) {
			return err
		}

		select {
		case <-time.After(Backoff(attempt, policy)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Backoff вычисляет задержку перед повтором номер attempt (с единицы).
func Backoff(attempt int, policy Policy) time.Duration {
	policy = policy.normalized()

	delay := policy.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= policy.MaxDelay {
			delay = policy.MaxDelay
			break
		}
	}
	if delay > policy.MaxDelay {
		delay = policy.MaxDelay
	}

	jitter := 0.8 + 0.4*rand.Float64()
	return time.Duration(float64(delay) * jitter)
}
