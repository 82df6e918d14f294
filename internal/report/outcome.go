package report

// Outcome is the terminal result of a diagnostic run. Advisory means the
// library is installed but cannot reach the accelerator; it is a warning,
// not a failure.
type Outcome string

const (
	// OutcomeOK means PyTorch is installed and CUDA is usable.
	OutcomeOK Outcome = "ok"
	// OutcomeAdvisory means PyTorch is installed but CUDA is not usable.
	OutcomeAdvisory Outcome = "advisory"
	// OutcomeFatal means PyTorch could not be loaded at all.
	OutcomeFatal Outcome = "fatal"
)

// ExitCode maps the outcome onto the process exit status.
func (o Outcome) ExitCode() int {
	if o == OutcomeFatal {
		return 1
	}
	return 0
}
