// Package secrets разрешает ссылки на секреты в credentials узлов.
//
// Строковое значение вида "secret://NAME" внутри credentials заменяется
// значением секрета при создании узла. Источники секретов подключаются
// через интерфейс Resolver: окружение (Env), фиксированная карта (Static)
// или цепочка источников (Chain).
//
// Значения секретов никогда не попадают в логи и сообщения об ошибках —
// ошибки называют только имя секрета.
package secrets
