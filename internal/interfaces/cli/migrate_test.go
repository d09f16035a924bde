package cli

import (
	"encoding/json"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockMigrator struct {
	mock.Mock
}

func (m *mockMigrator) Up() error            { return m.Called().Error(0) }
func (m *mockMigrator) Down(steps int) error { return m.Called(steps).Error(0) }
func (m *mockMigrator) Force(v int) error    { return m.Called(v).Error(0) }
func (m *mockMigrator) Status() (uint, bool, error) {
	args := m.Called()
	return args.Get(0).(uint), args.Bool(1), args.Error(2)
}

func TestMigrateCmd_Up(t *testing.T) {
	m := new(mockMigrator)
	m.On("Up").Return(nil)

	out, err := runCLI(t, staticFactory(&Services{Migrator: m}), "migrate", "up")
	require.NoError(t, err)
	assert.Contains(t, out, "migrations applied")
	m.AssertExpectations(t)
}

func TestMigrateCmd_DownSteps(t *testing.T) {
	m := new(mockMigrator)
	m.On("Down", 2).Return(nil)

	out, err := runCLI(t, staticFactory(&Services{Migrator: m}), "migrate", "down", "--steps", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "rolled back 2 migration(s)")
}

func TestMigrateCmd_DownRejectsZeroSteps(t *testing.T) {
	m := new(mockMigrator)
	_, err := runCLI(t, staticFactory(&Services{Migrator: m}), "migrate", "down", "--steps", "0")
	require.Error(t, err)
	m.AssertNotCalled(t, "Down", mock.Anything)
}

func TestMigrateCmd_Status(t *testing.T) {
	m := new(mockMigrator)
	m.On("Status").Return(uint(2), false, nil)

	out, err := runCLI(t, staticFactory(&Services{Migrator: m}), "migrate", "status", "-o", "json")
	require.NoError(t, err)
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, float64(2), got["version"])
	assert.Equal(t, false, got["dirty"])
}

func TestMigrateCmd_Force(t *testing.T) {
	m := new(mockMigrator)
	m.On("Force", 1).Return(stderrors.New("locked"))

	_, err := runCLI(t, staticFactory(&Services{Migrator: m}), "migrate", "force", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "locked")

	_, err = runCLI(t, staticFactory(&Services{Migrator: m}), "migrate", "force", "x")
	require.Error(t, err)
}

//Personal.AI order the ending
