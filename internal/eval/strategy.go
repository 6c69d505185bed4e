package eval

// Func is the evaluation strategy used to score a single (website, tracker)
// observation. It receives the website's popularity rank (1 = most popular)
// and the tracker's global frequency (number of distinct websites the
// tracker has been observed on by any blocker) and returns the observation's
// contribution to the blocker's score.
//
// This is the one deliberate extensibility point of the engine: new scoring
// heuristics plug in here without touching ingestion or the scoring loop.
type Func func(rank, frequency int) float64

// Evaluation function names accepted on the command line.
const (
	// FuncNameInverseSquare selects InverseSquare.
	FuncNameInverseSquare = "inverse-square"

	// FuncNameLinear selects Linear.
	FuncNameLinear = "linear"
)

// InverseSquare is the default evaluation function:
//
//	score = (1/rank)^2 * frequency
//
// Squaring the inverse rank strongly favors trackers observed on highly
// ranked websites and suppresses the influence of obscure frequency-1
// trackers found far down the popularity list. Blockers that chase the long
// tail of one-off trackers on unpopular websites would otherwise dominate
// blockers that catch the biggest trackers where most users actually browse.
func InverseSquare(rank, frequency int) float64 {
	inv := 1 / float64(rank)
	return inv * inv * float64(frequency)
}

// Linear is an alternative evaluation function:
//
//	score = (1/rank) * frequency
//
// The linear rank decay gives comparatively more credit to broadly but
// thinly distributed trackers than InverseSquare does.
func Linear(rank, frequency int) float64 {
	return 1 / float64(rank) * float64(frequency)
}

// FuncByName returns the evaluation function for a command-line name.
// The second return value reports whether the name is known.
func FuncByName(name string) (Func, bool) {
	switch name {
	case FuncNameInverseSquare:
		return InverseSquare, true
	case FuncNameLinear:
		return Linear, true
	default:
		return nil, false
	}
}
