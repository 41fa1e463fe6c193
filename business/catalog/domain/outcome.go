package domain

import "time"

// Outcome is the per-candidate enrichment result.
type Outcome string

const (
	OutcomeResolved            Outcome = "resolved"
	OutcomeSkippedInvalidInput Outcome = "skipped_invalid_input"
	OutcomeSkippedNoData       Outcome = "skipped_no_data"
	OutcomeDiscarded           Outcome = "discarded"
)

// DiscardReason explains why a fetched record was rejected.
type DiscardReason string

const (
	DiscardMissingPrice DiscardReason = "missing_price"
	DiscardMissingTitle DiscardReason = "missing_title"
	DiscardDenylisted   DiscardReason = "denylisted"
)

// Step is a position in the lookup cascade.
type Step int

const (
	StepPrimaryByID Step = iota + 1
	StepPrimaryByEstimatedID
	StepPrimaryByTitle
	StepSecondaryByID
	StepSecondaryByKeywords
)

var stepNames = map[Step]string{
	StepPrimaryByID:          "primary_by_id",
	StepPrimaryByEstimatedID: "primary_by_estimated_id",
	StepPrimaryByTitle:       "primary_by_title",
	StepSecondaryByID:        "secondary_by_id",
	StepSecondaryByKeywords:  "secondary_by_keywords",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return "none"
}

// Fallback reports whether an acceptance at this step counts as a fallback success.
func (s Step) Fallback() bool {
	return s >= StepPrimaryByTitle
}

// LookupMode distinguishes identifier from free-text lookups.
type LookupMode string

const (
	ModeIdentifier LookupMode = "identifier"
	ModeKeyword    LookupMode = "keyword"
)

// Attempt records one provider call.
type Attempt struct {
	Step     Step
	Provider string
	Mode     LookupMode
	Query    string
	Failure  FailureKind
	Duration time.Duration
}

// Succeeded reports whether the call returned a record.
func (a Attempt) Succeeded() bool {
	return a.Failure == ""
}

// Resolution is the provenance of one candidate's enrichment.
type Resolution struct {
	Index         int
	Candidate     CandidateRef
	Outcome       Outcome
	Step          Step
	Attempts      []Attempt
	DiscardReason DiscardReason
	Record        *ProductRecord
}

// Stats are order-independent counters for a batch.
type Stats struct {
	Attempted       int
	Completed       int
	Analyzed        int
	FallbackSuccess int
	SkippedInvalid  int
	SkippedNoData   int
	Discarded       int
	DiscardReasons  map[DiscardReason]int
}

// Accepted is the number of records emitted.
func (s Stats) Accepted() int {
	return s.Analyzed + s.FallbackSuccess
}

// Add folds one finished resolution into the counters.
func (s *Stats) Add(r Resolution) {
	s.Completed++
	switch r.Outcome {
	case OutcomeResolved:
		if r.Step.Fallback() {
			s.FallbackSuccess++
		} else {
			s.Analyzed++
		}
	case OutcomeSkippedInvalidInput:
		s.SkippedInvalid++
	case OutcomeSkippedNoData:
		s.SkippedNoData++
	case OutcomeDiscarded:
		s.Discarded++
		if s.DiscardReasons == nil {
			s.DiscardReasons = make(map[DiscardReason]int)
		}
		s.DiscardReasons[r.DiscardReason]++
	}
}

// Batch is the resolver output: accepted records in input order, the
// provenance of every completed candidate, and the counters.
type Batch struct {
	Records     []ProductRecord
	Resolutions []Resolution
	Stats       Stats
	Cancelled   bool
}
