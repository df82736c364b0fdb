package main

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"

	"github.com/gammadia/jobcore/internal/scheduler/types"
)

func TestStatusColorRunningIsGreen(t *testing.T) {
	assert.Equal(t, tcell.ColorGreen, statusColor(types.RUNNING))
	assert.Equal(t, tcell.ColorGreen, statusColor(types.STARTING))
}

func TestStatusColorPendingIsYellow(t *testing.T) {
	assert.Equal(t, tcell.ColorYellow, statusColor(types.PENDING))
}

func TestStatusColorFailureIsRed(t *testing.T) {
	assert.Equal(t, tcell.ColorRed, statusColor(types.FAILED))
	assert.Equal(t, tcell.ColorRed, statusColor(types.LOST))
}

func TestStatusColorKilledIsGray(t *testing.T) {
	assert.Equal(t, tcell.ColorGray, statusColor(types.KILLED))
	assert.Equal(t, tcell.ColorGray, statusColor(types.KILLED_BY_CLIENT))
}

func TestStatusColorFinishedIsWhite(t *testing.T) {
	assert.Equal(t, tcell.ColorWhite, statusColor(types.FINISHED))
}
