package timetable

import "strings"

// TeacherSeparator разделяет имена преподавателей в объединённой ячейке.
const TeacherSeparator = ", "

// sameSlot сообщает, описывают ли две ячейки одно и то же занятие,
// которое ведут разные преподаватели. Сокращённое название предмета
// в ключ не входит: разные предметы могут сокращаться одинаково.
func sameSlot(a, b Cell) bool {
	return a.Start == b.Start &&
		a.Day == b.Day &&
		a.Subgroup == b.Subgroup &&
		a.WeekSign == b.WeekSign &&
		a.Subject == b.Subject
}

// Dedup сливает параллельные ячейки одного занятия в одну.
//
// Входной срез рассматривается как арена, индексированная позицией.
// Каждая ещё не поглощённая ячейка становится представителем своего слота:
// все остальные ячейки с тем же ключом (начало, день, подгруппа, знак недели,
// полное название) помечаются поглощёнными, а их преподаватели дописываются
// к представителю в порядке просмотра. Ячейка никогда не сравнивается сама с собой.
//
// Входной срез не изменяется, результат содержит копии. Сложность O(n²),
// n - число занятий одной группы за неделю.
func Dedup(cells []Cell) []Cell {
	merged := make([]bool, len(cells))
	out := make([]Cell, 0, len(cells))

	for i := range cells {
		if merged[i] {
			continue
		}

		anchor := cells[i]
		teachers := make([]string, 0, 1)
		if anchor.Teacher != "" {
			teachers = append(teachers, anchor.Teacher)
		}

		// Совпадения до i уже поглотили бы i, поэтому достаточно смотреть вперёд.
		for j := i + 1; j < len(cells); j++ {
			if merged[j] || !sameSlot(anchor, cells[j]) {
				continue
			}
			merged[j] = true
			if cells[j].Teacher != "" {
				teachers = append(teachers, cells[j].Teacher)
			}
		}

		anchor.Teacher = strings.Join(teachers, TeacherSeparator)
		out = append(out, anchor)
	}

	return out
}
