// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/tversu/timing-bot/internal/domain/shared"
	"github.com/tversu/timing-bot/internal/domain/timetable"
	"github.com/tversu/timing-bot/internal/domain/user"
	"github.com/tversu/timing-bot/pkg/logger"
	"github.com/tversu/timing-bot/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTRATION
// Диалог выбора учебной группы: факультет -> направление -> курс -> группа
// -> подгруппа. Каждый ответ проверяется по справочнику университета.
// ══════════════════════════════════════════════════════════════════════════════

// RegistrationReply описывает, что показать пользователю после шага.
type RegistrationReply struct {
	// Stage - шаг, на котором пользователь теперь находится.
	Stage user.Stage

	// Options - допустимые ответы для клавиатуры.
	Options []string

	// Rejected - предыдущий ответ не подошёл, вопрос задаётся повторно.
	Rejected bool

	// Profile заполнен, когда регистрация только что завершилась.
	Profile *user.Profile
}

// Done сообщает, что регистрация завершена.
func (r RegistrationReply) Done() bool {
	return r.Stage == user.StageRegistered
}

// RegisterHandler ведёт диалог регистрации.
type RegisterHandler struct {
	users     user.Repository
	directory timetable.Directory
	clock     timeutil.Clock
	log       *logger.Logger
}

// NewRegisterHandler создаёт обработчик регистрации.
func NewRegisterHandler(users user.Repository, directory timetable.Directory, clock timeutil.Clock, log *logger.Logger) *RegisterHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &RegisterHandler{
		users:     users,
		directory: directory,
		clock:     clock,
		log:       log.Named("register"),
	}
}

// Restart начинает регистрацию заново (/start, /reset, «Сменить группу»).
// Пользователь создаётся при первом обращении.
func (h *RegisterHandler) Restart(ctx context.Context, telegramID user.TelegramID) (RegistrationReply, error) {
	u, err := h.loadOrCreate(ctx, telegramID)
	if err != nil {
		return RegistrationReply{}, err
	}

	u.Reset(h.clock.Now())
	if err := h.users.Save(ctx, u); err != nil {
		return RegistrationReply{}, fmt.Errorf("restart registration: %w", err)
	}

	h.log.Info("registration restarted", logger.TelegramID(int64(telegramID)))
	return h.prompt(ctx, u.State, false)
}

// Answer обрабатывает ответ пользователя на текущем шаге.
func (h *RegisterHandler) Answer(ctx context.Context, telegramID user.TelegramID, text string) (RegistrationReply, error) {
	u, err := h.users.GetByTelegramID(ctx, telegramID)
	if errors.Is(err, shared.ErrUserNotFound) {
		return h.Restart(ctx, telegramID)
	}
	if err != nil {
		return RegistrationReply{}, fmt.Errorf("load user: %w", err)
	}

	next, accepted, err := h.advance(ctx, u.State, strings.TrimSpace(text))
	if err != nil {
		return RegistrationReply{}, err
	}
	if !accepted {
		return h.prompt(ctx, u.State, true)
	}

	u.MoveTo(next, h.clock.Now())
	if err := h.users.Save(ctx, u); err != nil {
		return RegistrationReply{}, fmt.Errorf("save registration step: %w", err)
	}

	h.log.Debug("registration step",
		logger.TelegramID(int64(telegramID)),
		logger.Stage(string(next.Stage())),
	)
	return h.prompt(ctx, next, false)
}

// advance применяет ответ к состоянию. accepted=false - ответ не из справочника.
func (h *RegisterHandler) advance(ctx context.Context, state user.State, text string) (user.State, bool, error) {
	switch s := state.(type) {
	case user.Start:
		return user.ChoosingFaculty{}, true, nil

	case user.ChoosingFaculty:
		faculties, err := h.directory.Faculties(ctx)
		if err != nil {
			return nil, false, fmt.Errorf("list faculties: %w", err)
		}
		faculty, ok := match(faculties, text)
		if !ok {
			return nil, false, nil
		}
		return s.Choose(faculty), true, nil

	case user.ChoosingProgram:
		programs, err := h.directory.Programs(ctx, s.Faculty)
		if err != nil {
			return nil, false, fmt.Errorf("list programs: %w", err)
		}
		program, ok := match(programs, text)
		if !ok {
			return nil, false, nil
		}
		return s.Choose(program), true, nil

	case user.ChoosingCourse:
		courses, err := h.directory.Courses(ctx, s.Faculty, s.Program)
		if err != nil {
			return nil, false, fmt.Errorf("list courses: %w", err)
		}
		course, err := strconv.Atoi(text)
		if err != nil || !slices.Contains(courses, course) {
			return nil, false, nil
		}
		return s.Choose(course), true, nil

	case user.ChoosingGroup:
		groups, err := h.directory.Groups(ctx, s.Faculty, s.Program, s.Course)
		if err != nil {
			return nil, false, fmt.Errorf("list groups: %w", err)
		}
		group, ok := match(groups, text)
		if !ok {
			return nil, false, nil
		}
		count, err := h.directory.SubgroupCount(ctx, s.Faculty, s.Program, s.Course, group)
		if err != nil {
			return nil, false, fmt.Errorf("count subgroups: %w", err)
		}
		return s.Choose(group, count), true, nil

	case user.ChoosingSubgroup:
		count, err := h.directory.SubgroupCount(ctx, s.Faculty, s.Program, s.Course, s.Group)
		if err != nil {
			return nil, false, fmt.Errorf("count subgroups: %w", err)
		}
		subgroup, err := strconv.Atoi(text)
		if err != nil || subgroup < 1 || subgroup > count {
			return nil, false, nil
		}
		return s.Choose(subgroup), true, nil

	case user.Registered:
		return nil, false, fmt.Errorf("%w: already registered", shared.ErrStateTransition)

	default:
		return nil, false, fmt.Errorf("%w: unexpected stage %q", shared.ErrInvalidState, state.Stage())
	}
}

// prompt собирает варианты ответа для шага state.
func (h *RegisterHandler) prompt(ctx context.Context, state user.State, rejected bool) (RegistrationReply, error) {
	reply := RegistrationReply{Stage: state.Stage(), Rejected: rejected}

	var err error
	switch s := state.(type) {
	case user.Start, user.ChoosingFaculty:
		reply.Stage = user.StageChoosingFaculty
		reply.Options, err = h.directory.Faculties(ctx)
	case user.ChoosingProgram:
		reply.Options, err = h.directory.Programs(ctx, s.Faculty)
	case user.ChoosingCourse:
		var courses []int
		courses, err = h.directory.Courses(ctx, s.Faculty, s.Program)
		for _, c := range courses {
			reply.Options = append(reply.Options, strconv.Itoa(c))
		}
	case user.ChoosingGroup:
		reply.Options, err = h.directory.Groups(ctx, s.Faculty, s.Program, s.Course)
	case user.ChoosingSubgroup:
		var count int
		count, err = h.directory.SubgroupCount(ctx, s.Faculty, s.Program, s.Course, s.Group)
		for i := 1; i <= count; i++ {
			reply.Options = append(reply.Options, strconv.Itoa(i))
		}
	case user.Registered:
		p := s.Profile
		reply.Profile = &p
	}
	if err != nil {
		return RegistrationReply{}, fmt.Errorf("prompt %s: %w", reply.Stage, err)
	}
	return reply, nil
}

func (h *RegisterHandler) loadOrCreate(ctx context.Context, telegramID user.TelegramID) (*user.User, error) {
	u, err := h.users.GetByTelegramID(ctx, telegramID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, shared.ErrUserNotFound) {
		return nil, fmt.Errorf("load user: %w", err)
	}

	u, err = user.NewUser(uuid.NewString(), telegramID, h.clock.Now())
	if err != nil {
		return nil, err
	}
	h.log.Info("new user", logger.TelegramID(int64(telegramID)))
	return u, nil
}

// match ищет ответ среди вариантов без учёта регистра и возвращает вариант
// в написании справочника.
func match(options []string, text string) (string, bool) {
	for _, o := range options {
		if strings.EqualFold(o, text) {
			return o, true
		}
	}
	return "", false
}
