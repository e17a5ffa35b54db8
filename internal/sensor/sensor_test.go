package sensor

import (
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestEngine builds an engine with a quiet logger and the given source.
func newTestEngine(src NoiseSource, opts ...Option) *Engine {
	opts = append([]Option{WithLogger(slog.New(slog.DiscardHandler))}, opts...)
	return New(src, opts...)
}

// reading builds a history entry with a synthetic seq.
func reading(seq int64, value float64) *Reading {
	return NewReading(seq, "test-sensor", value, time.Unix(1700000000+seq, 0))
}

// TestInitialize_SeedsMidpoint tests that a valid range seeds the midpoint.
func TestInitialize_SeedsMidpoint(t *testing.T) {
	cases := []struct {
		min, max, midpoint float64
	}{
		{18, 27, 22.5},
		{22, 24, 23},
		{-40, 10, -15},
		{-273.15, 0, -136.575},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("range_%v_%v", tc.min, tc.max), func(t *testing.T) {
			e := newTestEngine(NewSeededSource(1))
			err := e.Initialize("server-room-1", "Room A", tc.min, tc.max)
			require.NoError(t, err)

			assert.Equal(t, tc.midpoint, e.CurrentTemperature())
			assert.False(t, e.Running())
			assert.False(t, e.FaultActive())

			minValue, maxValue := e.Range()
			assert.Equal(t, tc.min, minValue)
			assert.Equal(t, tc.max, maxValue)
		})
	}
}

// TestInitialize_InvalidArguments tests every rejected configuration.
func TestInitialize_InvalidArguments(t *testing.T) {
	cases := []struct {
		name     string
		sensor   string
		location string
		min, max float64
	}{
		{"empty name", "", "Room A", 20, 25},
		{"empty location", "S", "", 20, 25},
		{"inverted range", "S", "R", 25, 20},
		{"equal range", "S", "R", 20, 20},
		{"below absolute zero", "S", "R", -300, 25},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEngine(NewSeededSource(1))
			err := e.Initialize(tc.sensor, tc.location, tc.min, tc.max)
			require.Error(t, err)
			assert.True(t, IsInvalidArgument(err), "expected INVALID_ARGUMENT, got %v", err)
		})
	}
}

// TestInitialize_Reconfigure tests that re-initialization re-validates and
// keeps history untouched.
func TestInitialize_Reconfigure(t *testing.T) {
	e := newTestEngine(NewSeededSource(1))
	require.NoError(t, e.Initialize("s", "r", 18, 27))
	require.NoError(t, e.RecordReading(reading(1, 22.5)))

	require.NoError(t, e.Initialize("s2", "r2", 20, 30))
	assert.Equal(t, "s2", e.Name())
	assert.Equal(t, 25.0, e.CurrentTemperature())
	assert.Equal(t, 1, e.History().Len())

	err := e.Initialize("s2", "r2", 30, 20)
	assert.True(t, IsInvalidArgument(err))
}

// TestStart_RequiresInitialize tests lifecycle ordering.
func TestStart_RequiresInitialize(t *testing.T) {
	e := newTestEngine(NewSeededSource(1))
	err := e.Start()
	require.Error(t, err)
	assert.True(t, IsInvalidState(err))
}

// TestStart_Idempotent tests that a second start changes nothing.
func TestStart_Idempotent(t *testing.T) {
	e := newTestEngine(NewSeededSource(1))
	require.NoError(t, e.Initialize("s", "r", 18, 27))

	require.NoError(t, e.Start())
	assert.True(t, e.Running())

	require.NoError(t, e.Start())
	assert.True(t, e.Running())
}

// TestSimulateReading_RequiresRunning tests the INVALID_STATE guard.
func TestSimulateReading_RequiresRunning(t *testing.T) {
	e := newTestEngine(NewSeededSource(1))
	require.NoError(t, e.Initialize("s", "r", 18, 27))

	_, err := e.SimulateReading()
	require.Error(t, err)
	assert.True(t, IsInvalidState(err))
}

// TestSimulateReading_StaysNearRange tests that on range [22,24] readings
// stay within range ± noise/spike bound over many trials.
func TestSimulateReading_StaysNearRange(t *testing.T) {
	e := newTestEngine(NewSeededSource(42))
	require.NoError(t, e.Initialize("s", "r", 22, 24))
	require.NoError(t, e.Start())

	for i := 0; i < 2000; i++ {
		v, err := e.SimulateReading()
		require.NoError(t, err)
		// midpoint 23 ± (0.3 noise + 3.0 max spike)
		assert.GreaterOrEqual(t, v, 20.0, "trial %d", i)
		assert.LessOrEqual(t, v, 26.0, "trial %d", i)
	}
}

// TestSimulateReading_RoundsToTwoDecimals tests the rounding contract and
// that the rounded value seeds the next tick.
func TestSimulateReading_RoundsToTwoDecimals(t *testing.T) {
	// noise draw 0.123 -> (0.246-1)*0.3 = -0.2262; spike draw 0.5 -> no spike
	e := newTestEngine(NewScriptedSource(0.123, 0.5))
	require.NoError(t, e.Initialize("s", "r", 18, 27))
	require.NoError(t, e.Start())

	v, err := e.SimulateReading()
	require.NoError(t, err)
	assert.Equal(t, 22.27, v)
	assert.Equal(t, 22.27, e.CurrentTemperature())
}

// TestSimulateReading_SpikePath tests the signed spike branch.
func TestSimulateReading_SpikePath(t *testing.T) {
	t.Run("negative spike", func(t *testing.T) {
		// noise 0 (draw 0.5), spike chance hit (0.0), magnitude 1.5 (0.5),
		// sign negative (0.25)
		e := newTestEngine(NewScriptedSource(0.5, 0.0, 0.5, 0.25))
		require.NoError(t, e.Initialize("s", "r", 18, 27))
		require.NoError(t, e.Start())

		v, err := e.SimulateReading()
		require.NoError(t, err)
		assert.Equal(t, 21.0, v)
	})

	t.Run("positive spike", func(t *testing.T) {
		e := newTestEngine(NewScriptedSource(0.5, 0.0, 0.5, 0.75))
		require.NoError(t, e.Initialize("s", "r", 18, 27))
		require.NoError(t, e.Start())

		v, err := e.SimulateReading()
		require.NoError(t, err)
		assert.Equal(t, 24.0, v)
	})
}

// TestSimulateReading_FaultDrift tests monotonic upward drift and the
// ceiling clamp in fault mode.
func TestSimulateReading_FaultDrift(t *testing.T) {
	// Each fault tick draws 0.5 -> +1.0 drift.
	e := newTestEngine(NewScriptedSource(0.5))
	require.NoError(t, e.Initialize("s", "r", 22, 24))
	require.NoError(t, e.Start())
	e.InjectFault()
	require.True(t, e.FaultActive())

	prev := e.CurrentTemperature()
	for i := 0; i < 11; i++ {
		v, err := e.SimulateReading()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, v, prev, "fault drift must not fall")
		assert.LessOrEqual(t, v, 34.0, "ceiling is maxValue+10")
		prev = v
	}
	// 23 + 11 drifts of 1.0 clamps at 34; it stays pinned afterwards.
	assert.Equal(t, 34.0, prev)
	v, err := e.SimulateReading()
	require.NoError(t, err)
	assert.Equal(t, 34.0, v)

	e.ClearFault()
	assert.False(t, e.FaultActive())
	v, err = e.SimulateReading()
	require.NoError(t, err)
	assert.Equal(t, 23.0, v, "normal mode retargets the midpoint")
}

// TestNilReadingErrors tests that every reading-consuming operation rejects nil.
func TestNilReadingErrors(t *testing.T) {
	e := newTestEngine(NewSeededSource(1))
	require.NoError(t, e.Initialize("s", "r", 18, 27))

	_, err := e.ValidateReading(nil)
	assert.True(t, IsNilReading(err), "validate: %v", err)

	err = e.RecordReading(nil)
	assert.True(t, IsNilReading(err), "record: %v", err)

	_, err = e.DetectAnomaly(nil)
	assert.True(t, IsNilReading(err), "detect: %v", err)

	_, err = e.CheckThreshold(nil, 20, 25)
	assert.True(t, IsNilReading(err), "threshold: %v", err)
}

// TestValidateReading tests the range predicate including the boundaries.
func TestValidateReading(t *testing.T) {
	e := newTestEngine(NewSeededSource(1))
	require.NoError(t, e.Initialize("s", "r", 18, 27))

	cases := []struct {
		value float64
		want  bool
	}{
		{22.5, true},
		{18, true},
		{27, true},
		{17.99, false},
		{27.01, false},
	}
	for _, tc := range cases {
		got, err := e.ValidateReading(reading(1, tc.value))
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "value %v", tc.value)
	}
}

// TestRecordReading tests appending to history.
func TestRecordReading(t *testing.T) {
	e := newTestEngine(NewSeededSource(1))
	require.NoError(t, e.Initialize("s", "r", 18, 27))

	require.NoError(t, e.RecordReading(reading(1, 22.5)))
	assert.Equal(t, 1, e.History().Len())
}

// TestRecordReading_EvictsOldest tests the capacity-100 FIFO bound.
func TestRecordReading_EvictsOldest(t *testing.T) {
	e := newTestEngine(NewSeededSource(1))
	require.NoError(t, e.Initialize("s", "r", 0, 200))

	for i := 0; i < 101; i++ {
		require.NoError(t, e.RecordReading(reading(int64(i), float64(i))))
	}

	assert.Equal(t, 100, e.History().Len())
	snapshot := e.History().Snapshot()
	assert.Equal(t, 1.0, snapshot[0].Value, "first-recorded reading must be evicted")
	assert.Equal(t, 100.0, snapshot[len(snapshot)-1].Value)
}

// TestSmooth tests the moving average over the last five readings.
func TestSmooth(t *testing.T) {
	e := newTestEngine(NewSeededSource(1))
	require.NoError(t, e.Initialize("s", "r", 18, 30))

	assert.Equal(t, 0.0, e.Smooth(), "empty history smooths to 0")

	for i, v := range []float64{22, 23, 24, 25, 26} {
		require.NoError(t, e.RecordReading(reading(int64(i), v)))
	}
	assert.Equal(t, 24.0, e.Smooth())

	// A sixth reading shifts the window: mean(23,24,25,26,28) = 25.2
	require.NoError(t, e.RecordReading(reading(6, 28)))
	assert.Equal(t, 25.2, e.Smooth())
}

// TestDetectAnomaly_InsufficientBaseline tests the 5-entry minimum.
func TestDetectAnomaly_InsufficientBaseline(t *testing.T) {
	e := newTestEngine(NewSeededSource(1))
	require.NoError(t, e.Initialize("s", "r", 18, 27))

	for i := 0; i < 4; i++ {
		got, err := e.DetectAnomaly(reading(99, 1000))
		require.NoError(t, err)
		assert.False(t, got, "with %d entries even wild values pass", i)
		require.NoError(t, e.RecordReading(reading(int64(i), 22)))
	}
}

// TestDetectAnomaly_DeviationExceedsThreshold tests the 1.5-degree rule.
func TestDetectAnomaly_DeviationExceedsThreshold(t *testing.T) {
	e := newTestEngine(NewSeededSource(1))
	require.NoError(t, e.Initialize("s", "r", 18, 40))

	for i := 0; i < 10; i++ {
		require.NoError(t, e.RecordReading(reading(int64(i), 22.0)))
	}

	got, err := e.DetectAnomaly(reading(11, 30.0))
	require.NoError(t, err)
	assert.True(t, got, "deviation 8.0 exceeds 1.5")

	got, err = e.DetectAnomaly(reading(12, 23.5))
	require.NoError(t, err)
	assert.False(t, got, "deviation exactly 1.5 is not strict excess")

	got, err = e.DetectAnomaly(reading(13, 23.51))
	require.NoError(t, err)
	assert.True(t, got)
}

// TestDetectAnomaly_OrderingIndependence tests that the verdict is the same
// whether or not the candidate was recorded first.
func TestDetectAnomaly_OrderingIndependence(t *testing.T) {
	build := func() *Engine {
		e := newTestEngine(NewSeededSource(1))
		require.NoError(t, e.Initialize("s", "r", 18, 40))
		for i := 0; i < 10; i++ {
			require.NoError(t, e.RecordReading(reading(int64(i), 22.0)))
		}
		return e
	}
	candidate := reading(11, 30.0)

	before := build()
	gotBefore, err := before.DetectAnomaly(candidate)
	require.NoError(t, err)

	after := build()
	require.NoError(t, after.RecordReading(candidate))
	gotAfter, err := after.DetectAnomaly(candidate)
	require.NoError(t, err)

	assert.True(t, gotBefore)
	assert.Equal(t, gotBefore, gotAfter)
}

// TestCheckThreshold tests the alert-band predicate.
func TestCheckThreshold(t *testing.T) {
	e := newTestEngine(NewSeededSource(1))
	require.NoError(t, e.Initialize("s", "r", 18, 27))

	cases := []struct {
		value float64
		want  bool
	}{
		{22.5, false},
		{26.0, true},
		{19.5, true},
		{20.0, false},
		{25.0, false},
	}
	for _, tc := range cases {
		got, err := e.CheckThreshold(reading(1, tc.value), 20, 25)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "value %v", tc.value)
	}
}

// TestShutdown tests that shutdown stops the engine, clears history, and
// allows a restart.
func TestShutdown(t *testing.T) {
	e := newTestEngine(NewSeededSource(1))
	require.NoError(t, e.Initialize("s", "r", 18, 27))
	require.NoError(t, e.Start())

	for i := 0; i < 7; i++ {
		require.NoError(t, e.RecordReading(reading(int64(i), 22.5)))
	}
	e.Shutdown()

	assert.False(t, e.Running())
	assert.Equal(t, 0, e.History().Len())
	assert.Equal(t, "s", e.Name(), "identity survives shutdown")

	_, err := e.SimulateReading()
	assert.True(t, IsInvalidState(err))

	require.NoError(t, e.Start())
	_, err = e.SimulateReading()
	assert.NoError(t, err)
}

// TestSensorError_Error tests error message formatting.
func TestSensorError_Error(t *testing.T) {
	err := NewInvalidStateError("rack-12", "simulate requires a running sensor")
	assert.Contains(t, err.Error(), "INVALID_STATE")
	assert.Contains(t, err.Error(), "rack-12")

	bare := NewInvalidArgumentError("minValue must be less than maxValue")
	assert.Equal(t, "INVALID_ARGUMENT: minValue must be less than maxValue", bare.Error())
}
