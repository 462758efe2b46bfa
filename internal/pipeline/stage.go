package pipeline

// Stage is a project's position in the sales and installation pipeline.
type Stage string

const (
	StageEnquiry            Stage = "ENQUIRY"
	StageEngagedEnquiry     Stage = "ENGAGED_ENQUIRY"
	StageConsultationBooked Stage = "CONSULTATION_BOOKED"
	StageQualifiedLead      Stage = "QUALIFIED_LEAD"
	StageSurveyComplete     Stage = "SURVEY_COMPLETE"
	StageDesignPresented    Stage = "DESIGN_PRESENTED"
	StageSaleClientCommits  Stage = "SALE_CLIENT_COMMITS"
	StageDesignSignOff      Stage = "DESIGN_SIGN_OFF"
	StagePaymentHandover    Stage = "PAYMENT_75_PROJECT_HANDOVER"
	StageProjectScheduled   Stage = "PROJECT_SCHEDULED"
	StageInstallation       Stage = "INSTALLATION_IN_PROGRESS"
	StageCompletionSignOff  Stage = "COMPLETION_SIGN_OFF"
	StageCompleted          Stage = "COMPLETED"

	// StageLost is the absorbing side-branch reachable from any
	// non-terminal stage.
	StageLost Stage = "LOST_NOT_PROCEEDING"
)

// ordered is the linear pipeline; StageLost sits outside it.
var ordered = []Stage{
	StageEnquiry,
	StageEngagedEnquiry,
	StageConsultationBooked,
	StageQualifiedLead,
	StageSurveyComplete,
	StageDesignPresented,
	StageSaleClientCommits,
	StageDesignSignOff,
	StagePaymentHandover,
	StageProjectScheduled,
	StageInstallation,
	StageCompletionSignOff,
	StageCompleted,
}

var stageIndex = func() map[Stage]int {
	m := make(map[Stage]int, len(ordered))
	for i, s := range ordered {
		m[s] = i
	}
	return m
}()

// Status is the project status derived from certain transitions.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// Initial is the stage assigned at project creation.
func Initial() Stage {
	return StageEnquiry
}

// Stages returns the ordered pipeline plus the lost branch.
func Stages() []Stage {
	out := append([]Stage(nil), ordered...)
	return append(out, StageLost)
}

// ParseStage maps a wire string onto a known stage.
func ParseStage(s string) (Stage, bool) {
	if s == string(StageLost) {
		return StageLost, true
	}
	if _, ok := stageIndex[Stage(s)]; ok {
		return Stage(s), true
	}
	return "", false
}

// Terminal reports whether no transition leaves the stage.
func (s Stage) Terminal() bool {
	return s == StageCompleted || s == StageLost
}

// Index returns the stage's position in the ordered pipeline; the lost
// branch has no index.
func (s Stage) Index() (int, bool) {
	i, ok := stageIndex[s]
	return i, ok
}
