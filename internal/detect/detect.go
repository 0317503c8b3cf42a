package detect

import "time"

// Candidate is one qualifying (code, date) hit tagged with its backtest
// group. Candidates carry no sequence number; that is assigned when the
// observation store registers them.
type Candidate struct {
	Code  string
	Date  time.Time
	Group string
}
