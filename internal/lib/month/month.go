// Package month содержит расчёт дат подписок: начало дня, окончание
// пробного периода и окончание оплаченного месяца.
package month

import "time"

// Day отбрасывает время суток, оставляя дату в той же локации.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// AddDays возвращает дату через n дней от начала дня t.
func AddDays(t time.Time, n int) time.Time {
	return Day(t).AddDate(0, 0, n)
}

// AddMonths возвращает дату через n месяцев от начала дня t.
// Если в целевом месяце нет такого числа, берётся последний день месяца,
// а не переполнение в следующий месяц, как у time.AddDate (31.01 + 1 = 28/29.02).
func AddMonths(t time.Time, n int) time.Time {
	start := Day(t)
	target := time.Date(start.Year(), start.Month()+time.Month(n), 1, 0, 0, 0, 0, start.Location())
	last := target.AddDate(0, 1, -1).Day()
	day := start.Day()
	if day > last {
		day = last
	}
	return time.Date(target.Year(), target.Month(), day, 0, 0, 0, 0, start.Location())
}
