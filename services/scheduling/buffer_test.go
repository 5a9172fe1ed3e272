package scheduling

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glowbook/models"
)

// addBuffered seeds a live appointment with explicit buffer copies.
func (f *fixture) addBuffered(id string, start, end int, bufBefore, bufAfter int) models.Appointment {
	appt := f.addAppointment(id, at(fxDate, start/60, start%60), at(fxDate, end/60, end%60), models.AppointmentStatusScheduled)
	appt.BufferBefore = bufBefore
	appt.BufferAfter = bufAfter
	f.repo.state.appointments[id] = appt
	return appt
}

func TestBufferRequirementsDiagnosesNeighbours(t *testing.T) {
	f := newFixture()
	f.updateService(func(svc *models.Service) {
		svc.BufferBefore = 10
	})
	// Previous appointment ends 10:00; proposed start 10:05 leaves a 5m gap
	// against a 10m requirement.
	f.addBuffered("a1", 9*60, 10*60, 0, 0)

	req, err := f.buffers().BufferRequirements(context.Background(), fxService, at(fxDate, 10, 5), fxSpecialist)
	require.NoError(t, err)
	assert.Equal(t, 10, req.Before)
	assert.Equal(t, models.ConflictKindBufferBefore, req.Conflict)
	require.Len(t, req.Details, 1)
	assert.Equal(t, "a1", req.Details[0].AppointmentID)
}

func TestBufferRequirementsWithoutSpecialist(t *testing.T) {
	f := newFixture()
	f.updateService(func(svc *models.Service) {
		svc.BufferBefore = 5
		svc.BufferAfter = 15
	})

	req, err := f.buffers().BufferRequirements(context.Background(), fxService, at(fxDate, 10, 0), "")
	require.NoError(t, err)
	assert.Equal(t, 5, req.Before)
	assert.Equal(t, 15, req.After)
	assert.Empty(t, req.Conflict)
}

func TestRequiredGapTakesMaxWithFloor(t *testing.T) {
	assert.Equal(t, 10, requiredGap(10, 5))
	assert.Equal(t, 10, requiredGap(5, 10))
	// Zero-buffer services still get the default minimum.
	assert.Equal(t, DefaultMinBuffer, requiredGap(0, 0))
	assert.Equal(t, 7, requiredGap(0, 7))
}

func TestCheckBufferConflicts(t *testing.T) {
	f := newFixture()
	// Gap of 2m against the 5m floor, then a comfortable 30m gap.
	f.addBuffered("a1", 9*60, 10*60, 0, 0)
	f.addBuffered("a2", 10*60+2, 11*60, 0, 0)
	f.addBuffered("a3", 11*60+30, 12*60, 0, 0)

	violations, err := f.buffers().CheckBufferConflicts(context.Background(), fxSpecialist, fxDate, "")
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Equal(t, "a1", violations[0].FirstID)
	assert.Equal(t, "a2", violations[0].SecondID)
	assert.Equal(t, 2, violations[0].ActualGap)
	assert.Equal(t, DefaultMinBuffer, violations[0].RequiredBuffer)
	assert.Equal(t, 3, violations[0].Deficit)
}

func TestCheckBufferConflictsExcludesAppointment(t *testing.T) {
	f := newFixture()
	f.addBuffered("a1", 9*60, 10*60, 0, 0)
	f.addBuffered("a2", 10*60+2, 11*60, 0, 0)

	violations, err := f.buffers().CheckBufferConflicts(context.Background(), fxSpecialist, fxDate, "a2")
	require.NoError(t, err)
	assert.Empty(t, violations)
}

func TestAdjustForBufferDelayStart(t *testing.T) {
	f := newFixture()
	// Leading neighbour demands a 10m gap; the 5m actual gap delays the
	// start to 10:10 with duration preserved.
	f.addBuffered("a1", 9*60, 10*60, 0, 10)
	f.addBuffered("a2", 10*60+5, 11*60, 0, 0)

	res, err := f.buffers().AdjustForBuffer(context.Background(), "a2", FixAuto)
	require.NoError(t, err)
	assert.Equal(t, FixDelayStart, res.Applied)
	assert.Equal(t, at(fxDate, 10, 10), res.NewStart)
	assert.Equal(t, at(fxDate, 11, 5), res.NewEnd)

	moved := f.repo.state.appointments["a2"]
	assert.Equal(t, at(fxDate, 10, 10), moved.Start)
	assert.Equal(t, at(fxDate, 11, 5), moved.End)
}

func TestAdjustForBufferDelayStartBlockedByTrailingNeighbour(t *testing.T) {
	f := newFixture()
	f.addBuffered("a1", 9*60, 10*60, 0, 10)
	f.addBuffered("a2", 10*60+5, 11*60, 0, 0)
	// a3 sits right behind a2: delaying would break the trailing gap.
	f.addBuffered("a3", 11*60+5, 12*60, 0, 0)

	_, err := f.buffers().AdjustForBuffer(context.Background(), "a2", FixDelayStart)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "neighbourBlocked", verr.Code)
}

func TestAdjustForBufferAdvanceEnd(t *testing.T) {
	f := newFixture()
	// Trailing gap of 2m against the 5m floor; trimming 3m off a 20m
	// appointment stays within the 5m cap and the 15m duration floor.
	f.addBuffered("a1", 10*60, 10*60+20, 0, 0)
	f.addBuffered("a2", 10*60+22, 11*60, 0, 0)

	res, err := f.buffers().AdjustForBuffer(context.Background(), "a1", FixAdvanceEnd)
	require.NoError(t, err)
	assert.Equal(t, FixAdvanceEnd, res.Applied)
	assert.Equal(t, at(fxDate, 10, 0), res.NewStart)
	assert.Equal(t, at(fxDate, 10, 17), res.NewEnd)
	assert.Equal(t, 3, res.TrimmedMinutes)
}

func TestAdjustForBufferAdvanceEndTooShort(t *testing.T) {
	f := newFixture()
	// A 16m appointment may only lose 1m; a 3m trim is refused.
	f.addBuffered("a1", 10*60, 10*60+16, 0, 0)
	f.addBuffered("a2", 10*60+18, 11*60, 0, 0)

	_, err := f.buffers().AdjustForBuffer(context.Background(), "a1", FixAdvanceEnd)
	assert.ErrorIs(t, err, ErrTooShort)
}

func TestAdjustForBufferNoViolation(t *testing.T) {
	f := newFixture()
	f.addBuffered("a1", 9*60, 10*60, 0, 0)
	f.addBuffered("a2", 10*60+30, 11*60, 0, 0)

	_, err := f.buffers().AdjustForBuffer(context.Background(), "a2", FixAuto)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "noViolation", verr.Code)
}

func TestAdjustForBufferRequiresReschedulable(t *testing.T) {
	f := newFixture()
	appt := f.addBuffered("a1", 10*60, 11*60, 0, 0)
	appt.Status = models.AppointmentStatusInProgress
	f.repo.state.appointments["a1"] = appt

	_, err := f.buffers().AdjustForBuffer(context.Background(), "a1", FixAuto)
	assert.ErrorIs(t, err, ErrNotReschedulable)
}

func TestSuggestOptimalBuffers(t *testing.T) {
	f := newFixture()
	f.updateService(func(svc *models.Service) {
		svc.Duration = 45 // band adds 15m per transition
	})
	mgr := f.buffers()

	s, err := mgr.SuggestOptimalBuffers(context.Background(), fxService, 10, 0, "high")
	require.NoError(t, err)
	assert.Equal(t, 38, s.Before) // round((10+15) * 1.5)
	assert.Equal(t, 0, s.After)

	s, err = mgr.SuggestOptimalBuffers(context.Background(), fxService, 10, 5, "low")
	require.NoError(t, err)
	assert.Equal(t, 20, s.Before) // round((10+15) * 0.8)
	assert.Equal(t, 16, s.After)  // round((5+15) * 0.8)

	_, err = mgr.SuggestOptimalBuffers(context.Background(), fxService, 10, 0, "extreme")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "invalidComplexity", verr.Code)
}

func TestSuggestOptimalBuffersDurationBands(t *testing.T) {
	f := newFixture()
	mgr := f.buffers()

	f.updateService(func(svc *models.Service) { svc.Duration = 15 })
	s, err := mgr.SuggestOptimalBuffers(context.Background(), fxService, 5, 0, "medium")
	require.NoError(t, err)
	assert.Equal(t, 10, s.Before) // 5 + band 5

	f.updateService(func(svc *models.Service) { svc.Duration = 30 })
	s, err = mgr.SuggestOptimalBuffers(context.Background(), fxService, 5, 0, "medium")
	require.NoError(t, err)
	assert.Equal(t, 15, s.Before) // 5 + band 10
}
