package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tversu/timing-bot/internal/domain/shared"
	"github.com/tversu/timing-bot/internal/domain/user"
	"github.com/tversu/timing-bot/pkg/timeutil"
)

// memoryUsers is an in-memory user.Repository.
type memoryUsers struct {
	users map[user.TelegramID]user.User
	saves int
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: make(map[user.TelegramID]user.User)}
}

func (m *memoryUsers) GetByTelegramID(_ context.Context, id user.TelegramID) (*user.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, shared.ErrUserNotFound
	}
	return &u, nil
}

func (m *memoryUsers) Save(_ context.Context, u *user.User) error {
	m.saves++
	m.users[u.TelegramID] = *u
	return nil
}

func (m *memoryUsers) Count(context.Context) (int, error) { return len(m.users), nil }

func (m *memoryUsers) CountRegistered(context.Context) (int, error) {
	n := 0
	for _, u := range m.users {
		if u.Stage() == user.StageRegistered {
			n++
		}
	}
	return n, nil
}

// staticDirectory serves a tiny university.
type staticDirectory struct{}

func (staticDirectory) Faculties(context.Context) ([]string, error) {
	return []string{"ФПМиК", "Исторический"}, nil
}

func (staticDirectory) Programs(_ context.Context, faculty string) ([]string, error) {
	if faculty == "ФПМиК" {
		return []string{"ПМИ", "ФИИТ"}, nil
	}
	return []string{"История"}, nil
}

func (staticDirectory) Courses(context.Context, string, string) ([]int, error) {
	return []int{1, 2, 3, 4}, nil
}

func (staticDirectory) Groups(context.Context, string, string, int) ([]string, error) {
	return []string{"21", "22"}, nil
}

func (staticDirectory) SubgroupCount(_ context.Context, _, _ string, _ int, group string) (int, error) {
	if group == "21" {
		return 2, nil
	}
	return 1, nil
}

const tg user.TelegramID = 1001

func newHandler() (*RegisterHandler, *memoryUsers) {
	users := newMemoryUsers()
	clock := timeutil.FixedClock(time.Date(2024, time.September, 2, 9, 0, 0, 0, timeutil.MoscowTZ))
	return NewRegisterHandler(users, staticDirectory{}, clock, nil), users
}

func answer(t *testing.T, h *RegisterHandler, text string) RegistrationReply {
	t.Helper()
	reply, err := h.Answer(context.Background(), tg, text)
	require.NoError(t, err)
	return reply
}

func TestRegister_FullDialogueWithSubgroup(t *testing.T) {
	h, users := newHandler()

	reply, err := h.Restart(context.Background(), tg)
	require.NoError(t, err)
	assert.Equal(t, user.StageChoosingFaculty, reply.Stage)
	assert.Equal(t, []string{"ФПМиК", "Исторический"}, reply.Options)

	reply = answer(t, h, "фпмик")
	assert.Equal(t, user.StageChoosingProgram, reply.Stage)
	assert.Equal(t, []string{"ПМИ", "ФИИТ"}, reply.Options)

	reply = answer(t, h, "ПМИ")
	assert.Equal(t, user.StageChoosingCourse, reply.Stage)
	assert.Equal(t, []string{"1", "2", "3", "4"}, reply.Options)

	reply = answer(t, h, "2")
	assert.Equal(t, user.StageChoosingGroup, reply.Stage)

	reply = answer(t, h, "21")
	assert.Equal(t, user.StageChoosingSubgroup, reply.Stage)
	assert.Equal(t, []string{"1", "2"}, reply.Options)

	reply = answer(t, h, "2")
	require.True(t, reply.Done())
	require.NotNil(t, reply.Profile)
	assert.Equal(t, user.Profile{Faculty: "ФПМиК", Program: "ПМИ", Course: 2, Group: "21", Subgroup: 2}, *reply.Profile)

	stored := users.users[tg]
	profile, err := stored.Profile()
	require.NoError(t, err)
	assert.Equal(t, "ФПМиК", profile.Faculty)
}

func TestRegister_SingleSubgroupSkipsStep(t *testing.T) {
	h, _ := newHandler()
	_, err := h.Restart(context.Background(), tg)
	require.NoError(t, err)

	answer(t, h, "Исторический")
	answer(t, h, "История")
	answer(t, h, "1")
	reply := answer(t, h, "22")

	require.True(t, reply.Done())
	assert.Equal(t, 0, reply.Profile.Subgroup)
}

func TestRegister_InvalidAnswerRepeatsPrompt(t *testing.T) {
	h, users := newHandler()
	_, err := h.Restart(context.Background(), tg)
	require.NoError(t, err)
	saves := users.saves

	reply := answer(t, h, "Филологический")
	assert.True(t, reply.Rejected)
	assert.Equal(t, user.StageChoosingFaculty, reply.Stage)
	assert.Equal(t, []string{"ФПМиК", "Исторический"}, reply.Options)
	assert.Equal(t, saves, users.saves)

	answer(t, h, "ФПМиК")
	answer(t, h, "ПМИ")
	reply = answer(t, h, "7")
	assert.True(t, reply.Rejected)
	assert.Equal(t, user.StageChoosingCourse, reply.Stage)

	answer(t, h, "3")
	answer(t, h, "21")
	reply = answer(t, h, "3")
	assert.True(t, reply.Rejected)
	assert.Equal(t, user.StageChoosingSubgroup, reply.Stage)

	reply = answer(t, h, "0")
	assert.True(t, reply.Rejected)
}

func TestRegister_UnknownUserStartsRegistration(t *testing.T) {
	h, users := newHandler()

	reply := answer(t, h, "привет")
	assert.Equal(t, user.StageChoosingFaculty, reply.Stage)
	require.Contains(t, users.users, tg)
	assert.NotEmpty(t, users.users[tg].ID)
}

func TestRegister_RestartKeepsIdentity(t *testing.T) {
	h, users := newHandler()
	_, err := h.Restart(context.Background(), tg)
	require.NoError(t, err)
	id := users.users[tg].ID

	answer(t, h, "ФПМиК")
	reply, err := h.Restart(context.Background(), tg)
	require.NoError(t, err)

	assert.Equal(t, user.StageChoosingFaculty, reply.Stage)
	assert.Equal(t, id, users.users[tg].ID)
}

func TestRegister_AnswerAfterRegistrationIsRejected(t *testing.T) {
	h, _ := newHandler()
	_, err := h.Restart(context.Background(), tg)
	require.NoError(t, err)
	answer(t, h, "Исторический")
	answer(t, h, "История")
	answer(t, h, "1")
	answer(t, h, "22")

	_, err = h.Answer(context.Background(), tg, "ещё")
	assert.ErrorIs(t, err, shared.ErrStateTransition)
}
