package screening

// State is the cycle's current phase
type State string

const (
	StateIdle              State = "idle"
	StateFetchingUniverse  State = "fetching_universe"
	StateFetchingSnapshots State = "fetching_snapshots"
	StateScoring           State = "scoring"
	StateAdmitting         State = "admitting"
	StatePersisting        State = "persisting"
)

// Cycle outcomes recorded in metrics
const (
	ResultOK            = "ok"
	ResultUniverseError = "universe_error"
	ResultPartial       = "partial" // some symbols skipped or a board failed to persist
)

// Snapshot fetch outcomes recorded in metrics
const (
	OutcomeOK       = "ok"
	OutcomeProvider = "provider_error"
	OutcomeInvalid  = "invalid"
	OutcomeTimeout  = "timeout"
)
