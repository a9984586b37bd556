package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"jobdigest-engine/internal/config"
)

func london(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)
	return loc
}

func nineOClock(t *testing.T) Slots {
	t.Helper()
	s, err := NewSlots(config.Schedule{
		RunTimes:         []string{"09:00"},
		ToleranceMinutes: 20,
		Timezone:         "Europe/London",
	})
	require.NoError(t, err)
	return s
}

func TestCheck_Window(t *testing.T) {
	s := nineOClock(t)
	loc := london(t)
	state := &RunState{}

	d := s.Check(time.Date(2026, 3, 2, 9, 15, 0, 0, loc), state)
	assert.True(t, d.Eligible)
	assert.Equal(t, "2026-03-02-09:00", d.SlotKey)

	d = s.Check(time.Date(2026, 3, 2, 9, 25, 0, 0, loc), state)
	assert.False(t, d.Eligible)
	assert.Empty(t, d.SlotKey)

	d = s.Check(time.Date(2026, 3, 2, 8, 41, 0, 0, loc), state)
	assert.True(t, d.Eligible, "tolerance applies before the target too")
}

func TestCheck_FiredSlotIsNotEligible(t *testing.T) {
	s := nineOClock(t)
	loc := london(t)
	state := &RunState{}

	d := s.Check(time.Date(2026, 3, 2, 9, 15, 0, 0, loc), state)
	require.True(t, d.Eligible)
	assert.True(t, s.Check(time.Date(2026, 3, 2, 9, 16, 0, 0, loc), state).Eligible, "checking does not mark")

	state.Mark(d.SlotKey)
	d = s.Check(time.Date(2026, 3, 2, 9, 16, 0, 0, loc), state)
	assert.False(t, d.Eligible)
	assert.Contains(t, d.Reason, "already fired")

	assert.True(t, s.Check(time.Date(2026, 3, 3, 9, 5, 0, 0, loc), state).Eligible, "next day is a new slot")
}

func TestCheck_UsesConfiguredZone(t *testing.T) {
	s := nineOClock(t)
	// 08:10 UTC is 09:10 in London during summer time.
	d := s.Check(time.Date(2026, 7, 1, 8, 10, 0, 0, time.UTC), nil)
	assert.True(t, d.Eligible)
	assert.Equal(t, "2026-07-01-09:00", d.SlotKey)
}

func TestCheck_ManualSlots(t *testing.T) {
	now := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)

	none, err := NewSlots(config.Schedule{Timezone: "UTC"})
	require.NoError(t, err)
	d := none.Check(now, &RunState{LastRunSlots: []string{"2026-03-02-manual"}})
	assert.True(t, d.Eligible)
	assert.Equal(t, "2026-03-02-manual", d.SlotKey)

	forced := nineOClock(t).WithForce(true)
	d = forced.Check(now, nil)
	assert.True(t, d.Eligible)
	assert.Equal(t, "2026-03-02-manual", d.SlotKey)
}

func TestNewSlots_Errors(t *testing.T) {
	_, err := NewSlots(config.Schedule{Timezone: "Mars/Olympus"})
	assert.Error(t, err)
	_, err = NewSlots(config.Schedule{RunTimes: []string{"9am"}})
	assert.Error(t, err)
}

func TestRunState_MarkTrimsHistory(t *testing.T) {
	st := &RunState{}
	for i := 0; i < MaxSlots+10; i++ {
		st.Mark(fmt.Sprintf("2026-01-%02d-09:00", i%28+1) + fmt.Sprint(i))
	}
	assert.Len(t, st.LastRunSlots, MaxSlots)
	assert.Equal(t, "2026-01-11-09:0010", st.LastRunSlots[0])

	st = &RunState{}
	st.Mark("2026-01-01-09:00")
	st.Mark("2026-01-01-09:00")
	assert.Len(t, st.LastRunSlots, 1)
}

func TestRunState_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "run_state.json")

	st := LoadRunState(ctx, path, nil)
	assert.Empty(t, st.LastRunSlots)
	st.Mark("2026-03-02-09:00")
	st.Mark("2026-03-02-manual")
	require.NoError(t, st.Save(ctx))

	again := LoadRunState(ctx, path, nil)
	assert.Equal(t, []string{"2026-03-02-09:00", "2026-03-02-manual"}, again.LastRunSlots)
}

func TestRunState_InvalidFileStartsEmpty(t *testing.T) {
	for name, body := range map[string]string{
		"not json":      "{",
		"wrong type":    `{"last_run_slots": "2026-03-02-09:00"}`,
		"bad slot":      `{"last_run_slots": ["tomorrow"]}`,
		"missing field": `{}`,
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "run_state.json")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

			core, logs := observer.New(zapcore.WarnLevel)
			st := LoadRunState(context.Background(), path, zap.New(core))
			assert.Empty(t, st.LastRunSlots)
			assert.Equal(t, 1, logs.Len())
		})
	}
}

func TestEvery_RunsImmediatelyAndLogsErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	core, logs := observer.New(zapcore.ErrorLevel)

	var calls atomic.Int32
	task := func(context.Context) error {
		if calls.Add(1) >= 2 {
			cancel()
		}
		return errors.New("boom")
	}

	done := make(chan struct{})
	go func() {
		Every(ctx, 10*time.Millisecond, "digest", task, zap.New(core))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Every did not stop after cancel")
	}
	assert.GreaterOrEqual(t, calls.Load(), int32(2))
	assert.GreaterOrEqual(t, logs.FilterMessage("task failed").Len(), 2)
}
