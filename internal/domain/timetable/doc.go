// Package timetable содержит доменную модель расписания занятий ТвГУ.
//
// Пакет определяет:
//
//   - Сущности: Cell (одно занятие в сетке расписания)
//   - Value Objects: TimeOfDay, DayOfWeek, WeekSign, Cohort
//   - Проход дедупликации (Dedup), сливающий параллельные занятия
//     разных преподавателей в одну ячейку
//   - Фильтры по чётности недели, подгруппе и дню
//   - Интерфейс Feed, через который движок получает сырое расписание
//
// # Неделя
//
// Учебная неделя состоит из шести дней, с понедельника по субботу.
// Воскресенья в перечислении DayOfWeek нет: FromWeekday возвращает false,
// и вызывающий код сам решает, что делать в этот день.
//
// # Чётность
//
// Ячейка помечается знаком недели: Odd, Even или Any. Any подходит к любой
// неделе и никогда не бывает чётностью конкретной недели.
//
// # Жизненный цикл
//
// Ячейки создаются заново из внешнего источника на каждый запрос, нигде не
// сохраняются и выбрасываются после ответа.
package timetable
