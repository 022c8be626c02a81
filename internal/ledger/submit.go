package ledger

// SubmitResult is the outcome of an accepted transaction submission
type SubmitResult struct {
	Hash       string
	Ledger     int64
	Successful bool
}
