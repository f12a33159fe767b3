package model

// JobStatus represents the status of a download job.
type JobStatus string

const (
	// JobStatusPending means the job is queued but not started
	JobStatusPending JobStatus = "Pending"

	// JobStatusStarting means the job is in the process of starting
	JobStatusStarting JobStatus = "Starting"

	// JobStatusDownloading means the download is in progress
	JobStatusDownloading JobStatus = "Downloading"

	// JobStatusSkipped means the content was not downloadable yet (scheduled
	// or offline stream) and the job ended without error
	JobStatusSkipped JobStatus = "Skipped"

	// JobStatusCanceled means the job was canceled during shutdown
	JobStatusCanceled JobStatus = "Canceled"

	// JobStatusCompleted means the job finished successfully
	JobStatusCompleted JobStatus = "Completed"

	// JobStatusError means the job failed after exhausting all fallbacks
	JobStatusError JobStatus = "Error"
)

// String returns the string representation of JobStatus.
func (js JobStatus) String() string {
	return string(js)
}

// IsActive returns true if the job is in an active state.
func (js JobStatus) IsActive() bool {
	return js == JobStatusPending || js == JobStatusStarting || js == JobStatusDownloading
}

// IsFinished returns true if the job reached a terminal state.
func (js JobStatus) IsFinished() bool {
	return js == JobStatusCompleted || js == JobStatusSkipped || js == JobStatusCanceled || js == JobStatusError
}
