package tversu

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/tversu/timing-bot/internal/domain/shared"
	"github.com/tversu/timing-bot/internal/domain/timetable"
)

// Mapper converts API DTOs to domain values.
type Mapper struct {
	validate *validator.Validate
}

// NewMapper creates a new mapper.
func NewMapper() *Mapper {
	return &Mapper{validate: validator.New()}
}

// CellFromDTO validates dto and converts it to a timetable cell.
func (m *Mapper) CellFromDTO(dto CellDTO) (timetable.Cell, error) {
	if err := m.validate.Struct(dto); err != nil {
		return timetable.Cell{}, fmt.Errorf("%w: %v", shared.ErrFeedInvalidResponse, err)
	}

	start, err := timetable.ParseTimeOfDay(dto.Start)
	if err != nil {
		return timetable.Cell{}, fmt.Errorf("%w: start: %v", shared.ErrFeedInvalidResponse, err)
	}
	end, err := timetable.ParseTimeOfDay(dto.End)
	if err != nil {
		return timetable.Cell{}, fmt.Errorf("%w: end: %v", shared.ErrFeedInvalidResponse, err)
	}
	sign, err := timetable.ParseWeekSign(dto.WeekSign)
	if err != nil {
		return timetable.Cell{}, fmt.Errorf("%w: %v", shared.ErrFeedInvalidResponse, err)
	}

	cell := timetable.Cell{
		Day:          timetable.DayOfWeek(dto.Day),
		Start:        start,
		End:          end,
		Subject:      dto.Subject,
		SubjectShort: dto.SubjectShort,
		Teacher:      dto.Teacher,
		Room:         dto.Room,
		WeekSign:     sign,
		Subgroup:     dto.Subgroup,
	}
	if err := cell.Validate(); err != nil {
		return timetable.Cell{}, fmt.Errorf("%w: %v", shared.ErrFeedInvalidResponse, err)
	}
	return cell, nil
}

// CellsFromDTO converts a whole grid, keeping the API order.
func (m *Mapper) CellsFromDTO(dtos []CellDTO) ([]timetable.Cell, error) {
	cells := make([]timetable.Cell, 0, len(dtos))
	for i, dto := range dtos {
		cell, err := m.CellFromDTO(dto)
		if err != nil {
			return nil, fmt.Errorf("cell %d: %w", i, err)
		}
		cells = append(cells, cell)
	}
	return cells, nil
}

// Names extracts list entries after validation.
func (m *Mapper) Names(dtos []NamedDTO) ([]string, error) {
	names := make([]string, 0, len(dtos))
	for _, dto := range dtos {
		if err := m.validate.Struct(dto); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrFeedInvalidResponse, err)
		}
		names = append(names, dto.Name)
	}
	return names, nil
}

// Courses extracts course numbers after validation.
func (m *Mapper) Courses(dtos []CourseDTO) ([]int, error) {
	courses := make([]int, 0, len(dtos))
	for _, dto := range dtos {
		if err := m.validate.Struct(dto); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrFeedInvalidResponse, err)
		}
		courses = append(courses, dto.Number)
	}
	return courses, nil
}
