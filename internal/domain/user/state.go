package user

import (
	"fmt"

	"github.com/tversu/timing-bot/internal/domain/shared"
)

// Stage - шаг диалога регистрации.
type Stage string

const (
	StageStart            Stage = "start"
	StageChoosingFaculty  Stage = "choosing_faculty"
	StageChoosingProgram  Stage = "choosing_program"
	StageChoosingCourse   Stage = "choosing_course"
	StageChoosingGroup    Stage = "choosing_group"
	StageChoosingSubgroup Stage = "choosing_subgroup"
	StageRegistered       Stage = "registered"
)

// IsValid проверяет, что шаг известен.
func (s Stage) IsValid() bool {
	switch s {
	case StageStart, StageChoosingFaculty, StageChoosingProgram, StageChoosingCourse,
		StageChoosingGroup, StageChoosingSubgroup, StageRegistered:
		return true
	default:
		return false
	}
}

// State - состояние регистрации. Каждый шаг несёт ровно те данные,
// которые уже выбраны к этому моменту.
type State interface {
	Stage() Stage
	state()
}

// Start - пользователь ещё ничего не выбрал.
type Start struct{}

// ChoosingFaculty - ожидается факультет.
type ChoosingFaculty struct{}

// ChoosingProgram - факультет выбран, ожидается направление.
type ChoosingProgram struct {
	Faculty string
}

// ChoosingCourse - ожидается курс.
type ChoosingCourse struct {
	Faculty string
	Program string
}

// ChoosingGroup - ожидается группа.
type ChoosingGroup struct {
	Faculty string
	Program string
	Course  int
}

// ChoosingSubgroup - группа делится на подгруппы, ожидается номер.
type ChoosingSubgroup struct {
	Faculty string
	Program string
	Course  int
	Group   string
}

// Registered - регистрация завершена.
type Registered struct {
	Profile Profile
}

func (Start) Stage() Stage            { return StageStart }
func (ChoosingFaculty) Stage() Stage  { return StageChoosingFaculty }
func (ChoosingProgram) Stage() Stage  { return StageChoosingProgram }
func (ChoosingCourse) Stage() Stage   { return StageChoosingCourse }
func (ChoosingGroup) Stage() Stage    { return StageChoosingGroup }
func (ChoosingSubgroup) Stage() Stage { return StageChoosingSubgroup }
func (Registered) Stage() Stage       { return StageRegistered }

func (Start) state()            {}
func (ChoosingFaculty) state()  {}
func (ChoosingProgram) state()  {}
func (ChoosingCourse) state()   {}
func (ChoosingGroup) state()    {}
func (ChoosingSubgroup) state() {}
func (Registered) state()       {}

// ──────────────────────────────────────────────────────────────────────────────
// Переходы
// ──────────────────────────────────────────────────────────────────────────────

// Choose фиксирует факультет.
func (ChoosingFaculty) Choose(faculty string) ChoosingProgram {
	return ChoosingProgram{Faculty: faculty}
}

// Choose фиксирует направление.
func (s ChoosingProgram) Choose(program string) ChoosingCourse {
	return ChoosingCourse{Faculty: s.Faculty, Program: program}
}

// Choose фиксирует курс.
func (s ChoosingCourse) Choose(course int) ChoosingGroup {
	return ChoosingGroup{Faculty: s.Faculty, Program: s.Program, Course: course}
}

// Choose фиксирует группу. Если подгрупп нет (count <= 1), регистрация
// завершается сразу с подгруппой 0.
func (s ChoosingGroup) Choose(group string, subgroupCount int) State {
	if subgroupCount <= 1 {
		return Registered{Profile: Profile{
			Faculty: s.Faculty, Program: s.Program, Course: s.Course, Group: group,
		}}
	}
	return ChoosingSubgroup{Faculty: s.Faculty, Program: s.Program, Course: s.Course, Group: group}
}

// Choose фиксирует подгруппу и завершает регистрацию.
func (s ChoosingSubgroup) Choose(subgroup int) Registered {
	return Registered{Profile: Profile{
		Faculty: s.Faculty, Program: s.Program, Course: s.Course, Group: s.Group, Subgroup: subgroup,
	}}
}

// ──────────────────────────────────────────────────────────────────────────────
// Плоское представление для хранилища
// ──────────────────────────────────────────────────────────────────────────────

// Snapshot - состояние в виде плоской записи.
type Snapshot struct {
	Stage    Stage
	Faculty  string
	Program  string
	Course   int
	Group    string
	Subgroup int
}

// SnapshotOf раскладывает состояние в плоскую запись.
func SnapshotOf(s State) Snapshot {
	switch v := s.(type) {
	case ChoosingProgram:
		return Snapshot{Stage: v.Stage(), Faculty: v.Faculty}
	case ChoosingCourse:
		return Snapshot{Stage: v.Stage(), Faculty: v.Faculty, Program: v.Program}
	case ChoosingGroup:
		return Snapshot{Stage: v.Stage(), Faculty: v.Faculty, Program: v.Program, Course: v.Course}
	case ChoosingSubgroup:
		return Snapshot{Stage: v.Stage(), Faculty: v.Faculty, Program: v.Program, Course: v.Course, Group: v.Group}
	case Registered:
		p := v.Profile
		return Snapshot{Stage: v.Stage(), Faculty: p.Faculty, Program: p.Program, Course: p.Course, Group: p.Group, Subgroup: p.Subgroup}
	case nil:
		return Snapshot{Stage: StageStart}
	default:
		return Snapshot{Stage: s.Stage()}
	}
}

// Restore собирает состояние из плоской записи.
func Restore(snap Snapshot) (State, error) {
	switch snap.Stage {
	case StageStart, "":
		return Start{}, nil
	case StageChoosingFaculty:
		return ChoosingFaculty{}, nil
	case StageChoosingProgram:
		return ChoosingProgram{Faculty: snap.Faculty}, nil
	case StageChoosingCourse:
		return ChoosingCourse{Faculty: snap.Faculty, Program: snap.Program}, nil
	case StageChoosingGroup:
		return ChoosingGroup{Faculty: snap.Faculty, Program: snap.Program, Course: snap.Course}, nil
	case StageChoosingSubgroup:
		return ChoosingSubgroup{Faculty: snap.Faculty, Program: snap.Program, Course: snap.Course, Group: snap.Group}, nil
	case StageRegistered:
		p := Profile{Faculty: snap.Faculty, Program: snap.Program, Course: snap.Course, Group: snap.Group, Subgroup: snap.Subgroup}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("restore registered state: %w", err)
		}
		return Registered{Profile: p}, nil
	default:
		return nil, fmt.Errorf("%w: unknown stage %q", shared.ErrInvalidState, snap.Stage)
	}
}
