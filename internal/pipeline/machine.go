package pipeline

import (
	"fmt"
	"time"
)

// RejectReason distinguishes why a transition was refused.
type RejectReason string

const (
	RejectUnknownStage  RejectReason = "unknown_stage"
	RejectTerminalStage RejectReason = "terminal_stage"
	RejectNotAdjacent   RejectReason = "not_adjacent"
)

// RejectedTransition is the typed result for an illegal move. It is a
// normal outcome, not an error value to wrap.
type RejectedTransition struct {
	From   Stage
	To     Stage
	Reason RejectReason
}

func (r *RejectedTransition) Error() string {
	return fmt.Sprintf("illegal transition %s -> %s (%s)", r.From, r.To, r.Reason)
}

// SideEffects is what a transition stamps on the project. Nil pointer
// fields mean "leave untouched"; the machine never mutates a project
// itself.
type SideEffects struct {
	ConsultationDate    *time.Time
	SurveyDate          *time.Time
	DesignPresentedDate *time.Time
	SaleDate            *time.Time
	ActualStartDate     *time.Time
	ActualEndDate       *time.Time
	Status              *Status
}

// Result reports an accepted transition.
type Result struct {
	From        Stage
	To          Stage
	NoOp        bool
	SideEffects SideEffects
}

// Transition validates a requested stage change and returns the side
// effects to apply. Rules: single-step moves in either direction along
// the ordered pipeline; StageLost is reachable from any non-terminal
// stage; COMPLETED and LOST are strictly terminal; requesting the
// current stage is an accepted no-op that stamps nothing.
func Transition(current, requested Stage, now time.Time) (*Result, *RejectedTransition) {
	if _, ok := ParseStage(string(current)); !ok {
		return nil, &RejectedTransition{From: current, To: requested, Reason: RejectUnknownStage}
	}
	if _, ok := ParseStage(string(requested)); !ok {
		return nil, &RejectedTransition{From: current, To: requested, Reason: RejectUnknownStage}
	}

	if current == requested {
		return &Result{From: current, To: requested, NoOp: true}, nil
	}

	if current.Terminal() {
		return nil, &RejectedTransition{From: current, To: requested, Reason: RejectTerminalStage}
	}

	if requested == StageLost {
		return accept(current, requested, now), nil
	}

	from, ok := current.Index()
	if !ok {
		return nil, &RejectedTransition{From: current, To: requested, Reason: RejectTerminalStage}
	}
	to, ok := requested.Index()
	if !ok {
		return nil, &RejectedTransition{From: current, To: requested, Reason: RejectUnknownStage}
	}

	if to != from-1 && to != from+1 {
		return nil, &RejectedTransition{From: current, To: requested, Reason: RejectNotAdjacent}
	}

	return accept(current, requested, now), nil
}

func accept(current, requested Stage, now time.Time) *Result {
	res := &Result{From: current, To: requested}

	switch requested {
	case StageConsultationBooked:
		res.SideEffects.ConsultationDate = &now
	case StageSurveyComplete:
		res.SideEffects.SurveyDate = &now
	case StageDesignPresented:
		res.SideEffects.DesignPresentedDate = &now
	case StageSaleClientCommits:
		res.SideEffects.SaleDate = &now
	case StageInstallation:
		res.SideEffects.ActualStartDate = &now
	case StageCompleted:
		res.SideEffects.ActualEndDate = &now
		status := StatusCompleted
		res.SideEffects.Status = &status
	case StageLost:
		status := StatusCancelled
		res.SideEffects.Status = &status
	}

	return res
}
