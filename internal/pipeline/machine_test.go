package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionForwardStep(t *testing.T) {
	now := time.Now()

	result, rejected := Transition(StageEnquiry, StageEngagedEnquiry, now)
	require.Nil(t, rejected)
	assert.Equal(t, StageEnquiry, result.From)
	assert.Equal(t, StageEngagedEnquiry, result.To)
	assert.False(t, result.NoOp)
}

func TestTransitionBackwardStep(t *testing.T) {
	result, rejected := Transition(StageQualifiedLead, StageConsultationBooked, time.Now())
	require.Nil(t, rejected)
	assert.Equal(t, StageConsultationBooked, result.To)
}

func TestTransitionSkipRejected(t *testing.T) {
	_, rejected := Transition(StageSurveyComplete, StageDesignSignOff, time.Now())
	require.NotNil(t, rejected)
	assert.Equal(t, RejectNotAdjacent, rejected.Reason)
}

func TestTransitionSameStageNoOp(t *testing.T) {
	result, rejected := Transition(StageDesignPresented, StageDesignPresented, time.Now())
	require.Nil(t, rejected)
	assert.True(t, result.NoOp)
	assert.Equal(t, SideEffects{}, result.SideEffects)
}

func TestTransitionSameTerminalStageNoOp(t *testing.T) {
	result, rejected := Transition(StageCompleted, StageCompleted, time.Now())
	require.Nil(t, rejected)
	assert.True(t, result.NoOp)
}

func TestTransitionLostFromAnyNonTerminal(t *testing.T) {
	for _, stage := range ordered[:len(ordered)-1] {
		result, rejected := Transition(stage, StageLost, time.Now())
		require.Nil(t, rejected, "from %s", stage)
		require.NotNil(t, result.SideEffects.Status)
		assert.Equal(t, StatusCancelled, *result.SideEffects.Status, "from %s", stage)
	}
}

func TestTransitionOutOfTerminalRejected(t *testing.T) {
	_, rejected := Transition(StageCompleted, StageCompletionSignOff, time.Now())
	require.NotNil(t, rejected)
	assert.Equal(t, RejectTerminalStage, rejected.Reason)

	_, rejected = Transition(StageLost, StageEnquiry, time.Now())
	require.NotNil(t, rejected)
	assert.Equal(t, RejectTerminalStage, rejected.Reason)
}

func TestTransitionUnknownStageRejected(t *testing.T) {
	_, rejected := Transition(StageEnquiry, Stage("NOT_A_STAGE"), time.Now())
	require.NotNil(t, rejected)
	assert.Equal(t, RejectUnknownStage, rejected.Reason)

	_, rejected = Transition(Stage("NOT_A_STAGE"), StageEnquiry, time.Now())
	require.NotNil(t, rejected)
	assert.Equal(t, RejectUnknownStage, rejected.Reason)
}

func TestTransitionStampsMilestoneDates(t *testing.T) {
	now := time.Now()

	cases := []struct {
		from, to Stage
		pick     func(SideEffects) *time.Time
	}{
		{StageEngagedEnquiry, StageConsultationBooked, func(fx SideEffects) *time.Time { return fx.ConsultationDate }},
		{StageQualifiedLead, StageSurveyComplete, func(fx SideEffects) *time.Time { return fx.SurveyDate }},
		{StageSurveyComplete, StageDesignPresented, func(fx SideEffects) *time.Time { return fx.DesignPresentedDate }},
		{StageDesignPresented, StageSaleClientCommits, func(fx SideEffects) *time.Time { return fx.SaleDate }},
		{StageProjectScheduled, StageInstallation, func(fx SideEffects) *time.Time { return fx.ActualStartDate }},
		{StageCompletionSignOff, StageCompleted, func(fx SideEffects) *time.Time { return fx.ActualEndDate }},
	}

	for _, tc := range cases {
		result, rejected := Transition(tc.from, tc.to, now)
		require.Nil(t, rejected, "%s -> %s", tc.from, tc.to)
		stamp := tc.pick(result.SideEffects)
		require.NotNil(t, stamp, "%s -> %s", tc.from, tc.to)
		assert.Equal(t, now, *stamp)
	}
}

func TestTransitionCompletedSetsStatus(t *testing.T) {
	result, rejected := Transition(StageCompletionSignOff, StageCompleted, time.Now())
	require.Nil(t, rejected)
	require.NotNil(t, result.SideEffects.Status)
	assert.Equal(t, StatusCompleted, *result.SideEffects.Status)
}

func TestStagesIncludesLostBranch(t *testing.T) {
	stages := Stages()
	assert.Len(t, stages, 14)
	assert.Equal(t, StageEnquiry, stages[0])
	assert.Equal(t, StageLost, stages[len(stages)-1])
}

func TestParseStage(t *testing.T) {
	stage, ok := ParseStage("PAYMENT_75_PROJECT_HANDOVER")
	require.True(t, ok)
	assert.Equal(t, StagePaymentHandover, stage)

	_, ok = ParseStage("enquiry")
	assert.False(t, ok)
}
