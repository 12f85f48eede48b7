// Package schedule вычисляет времена автоматических запусков workflow.
//
// Поддерживаются два типа расписаний:
//   - interval — запуск каждые N секунд
//   - cron     — стандартное 5-польное cron-выражение с timezone
//
// Сам цикл планировщика живёт в orchestrator: он периодически опрашивает
// зарегистрированные workflow и запускает те, чьё NextDue наступило.
// Этот пакет отвечает только за валидацию расписаний и арифметику времени.
package schedule
