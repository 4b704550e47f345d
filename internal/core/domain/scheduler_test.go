package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSchedulerConfig(t *testing.T) {
	config := DefaultSchedulerConfig()

	assert.True(t, config.Enabled)
	assert.Len(t, config.TaskConfigs, 1)

	syncCfg := config.TaskConfigs[TaskIDNoteSync]
	assert.True(t, syncCfg.Enabled)
	assert.Equal(t, 30*time.Minute, syncCfg.Interval)
	assert.Equal(t, 30*time.Second, syncCfg.RetryInitial)
	assert.Equal(t, 10*time.Minute, syncCfg.RetryMax)
}

func TestSchedulerConfig_GetTaskConfig(t *testing.T) {
	config := DefaultSchedulerConfig()

	syncCfg := config.GetTaskConfig(TaskIDNoteSync)
	assert.True(t, syncCfg.Enabled)

	unknownCfg := config.GetTaskConfig("unknown-task")
	assert.False(t, unknownCfg.Enabled)
	assert.Equal(t, time.Duration(0), unknownCfg.Interval)
}

func TestSchedulerConfig_GetTaskConfig_NilMap(t *testing.T) {
	config := SchedulerConfig{
		Enabled:     true,
		TaskConfigs: nil,
	}

	cfg := config.GetTaskConfig("any-task")
	assert.False(t, cfg.Enabled)
	assert.Equal(t, time.Duration(0), cfg.Interval)
}

func TestTaskConstants(t *testing.T) {
	assert.Equal(t, "note-sync", TaskIDNoteSync)
}
