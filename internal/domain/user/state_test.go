package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tversu/timing-bot/internal/domain/shared"
)

func TestRegistrationFlow_WithSubgroups(t *testing.T) {
	var s State = ChoosingFaculty{}

	s = s.(ChoosingFaculty).Choose("ФПМиК")
	s = s.(ChoosingProgram).Choose("Прикладная математика")
	s = s.(ChoosingCourse).Choose(2)
	s = s.(ChoosingGroup).Choose("22", 2)
	require.Equal(t, StageChoosingSubgroup, s.Stage())

	s = s.(ChoosingSubgroup).Choose(1)
	require.Equal(t, StageRegistered, s.Stage())
	assert.Equal(t, Profile{
		Faculty: "ФПМиК", Program: "Прикладная математика", Course: 2, Group: "22", Subgroup: 1,
	}, s.(Registered).Profile)
}

func TestChoosingGroup_SingleSubgroupFinishes(t *testing.T) {
	s := ChoosingGroup{Faculty: "ИФ", Program: "История", Course: 1}.Choose("11", 1)

	reg, ok := s.(Registered)
	require.True(t, ok)
	assert.Equal(t, 0, reg.Profile.Subgroup)
	assert.Equal(t, "11", reg.Profile.Group)
}

func TestSnapshotRoundTrip(t *testing.T) {
	states := []State{
		Start{},
		ChoosingFaculty{},
		ChoosingProgram{Faculty: "ФПМиК"},
		ChoosingCourse{Faculty: "ФПМиК", Program: "ПМИ"},
		ChoosingGroup{Faculty: "ФПМиК", Program: "ПМИ", Course: 3},
		ChoosingSubgroup{Faculty: "ФПМиК", Program: "ПМИ", Course: 3, Group: "31"},
		Registered{Profile: Profile{Faculty: "ФПМиК", Program: "ПМИ", Course: 3, Group: "31", Subgroup: 2}},
	}

	for _, s := range states {
		restored, err := Restore(SnapshotOf(s))
		require.NoError(t, err, s.Stage())
		assert.Equal(t, s, restored)
	}
}

func TestRestore_Errors(t *testing.T) {
	_, err := Restore(Snapshot{Stage: "dancing"})
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	_, err = Restore(Snapshot{Stage: StageRegistered, Faculty: "ФПМиК"})
	assert.Error(t, err)
}

func TestUser_Profile(t *testing.T) {
	now := time.Date(2024, 9, 2, 10, 0, 0, 0, time.UTC)
	u, err := NewUser("id-1", 42, now)
	require.NoError(t, err)
	assert.Equal(t, StageStart, u.Stage())

	_, err = u.Profile()
	assert.ErrorIs(t, err, shared.ErrNotRegistered)

	p := Profile{Faculty: "ФПМиК", Group: "22", Subgroup: 1}
	u.MoveTo(Registered{Profile: p}, now.Add(time.Minute))
	got, err := u.Profile()
	require.NoError(t, err)
	assert.Equal(t, p, got)
	assert.Equal(t, now.Add(time.Minute), u.UpdatedAt)

	u.Reset(now.Add(time.Hour))
	assert.Equal(t, StageChoosingFaculty, u.Stage())
}

func TestNewUser_RejectsInvalidTelegramID(t *testing.T) {
	_, err := NewUser("id-1", 0, time.Now())
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}
