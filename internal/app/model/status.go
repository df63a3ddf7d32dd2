package model

// ConversionStatus represents the lifecycle state of a conversion record
type ConversionStatus string

const (
	ConversionUploading  ConversionStatus = "uploading"
	ConversionProcessing ConversionStatus = "processing"
	ConversionCompleted  ConversionStatus = "completed"
	ConversionFailed     ConversionStatus = "failed"
	ConversionCancelled  ConversionStatus = "cancelled"
)

// Terminal reports whether no further transitions are allowed from s,
// other than the explicit retry action which re-enters processing from failed.
func (s ConversionStatus) Terminal() bool {
	return s == ConversionCompleted || s == ConversionFailed || s == ConversionCancelled
}

// PrintJobStatus represents the lifecycle state of a print job
type PrintJobStatus string

const (
	JobPending     PrintJobStatus = "pending"
	JobDownloading PrintJobStatus = "downloading"
	JobSlicing     PrintJobStatus = "slicing"
	JobUploading   PrintJobStatus = "uploading"
	JobPrinting    PrintJobStatus = "printing"
	JobComplete    PrintJobStatus = "complete"
	JobFailed      PrintJobStatus = "failed"
	JobCancelled   PrintJobStatus = "cancelled"
)

// jobStatusRank defines the total order over forward-progress states.
// failed and cancelled are absorbing and sit outside the order.
var jobStatusRank = map[PrintJobStatus]int{
	JobPending:     0,
	JobDownloading: 1,
	JobSlicing:     2,
	JobUploading:   3,
	JobPrinting:    4,
	JobComplete:    5,
}

// Valid reports whether s is one of the known print job states.
func (s PrintJobStatus) Valid() bool {
	if _, ok := jobStatusRank[s]; ok {
		return true
	}
	return s == JobFailed || s == JobCancelled
}

// Absorbing reports whether s is a terminal state that always wins
// over non-terminal incoming updates.
func (s PrintJobStatus) Absorbing() bool {
	return s == JobFailed || s == JobCancelled
}

// Terminal reports whether the job is done and should leave the polling set.
func (s PrintJobStatus) Terminal() bool {
	return s == JobComplete || s.Absorbing()
}

// ShouldApply implements the reconciliation rule shared by the status
// synchronizer (pull) and the webhook ingestor (push). An incoming status is
// applied only when it is strictly later in the total order, or when it is an
// absorbing state hitting a non-terminal record. Everything else, including a
// repeat of the current status, is discarded as stale so that pull and push
// commute regardless of arrival order or duplication.
func ShouldApply(current, incoming PrintJobStatus) bool {
	if !incoming.Valid() {
		return false
	}
	if current.Terminal() {
		return false
	}
	if incoming.Absorbing() {
		return true
	}
	return jobStatusRank[incoming] > jobStatusRank[current]
}
