package jobs

import (
	"time"

	"github.com/subloc/subloc/internal/service"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// RunRequest carries everything needed to enqueue a translation run.
// ID may be set by callers that need the run id before enqueueing,
// such as the upload handler spooling documents under it; when empty
// the queue assigns one.
type RunRequest struct {
	ID      string
	Options service.RunOptions
	Files   []*service.FileItem
}

// Run is one queued translation of a set of uploaded subtitle files.
// Progress covers the whole run and only reaches 100 once every file
// has a terminal status.
type Run struct {
	ID        string              `json:"id"`
	Options   service.RunOptions  `json:"options"`
	Files     []*service.FileItem `json:"files"`
	Status    Status              `json:"status"`
	Progress  float64             `json:"progress"`
	Error     string              `json:"error,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// FindFile returns the run's file with the given id, or nil.
func (r *Run) FindFile(fileID string) *service.FileItem {
	if r == nil {
		return nil
	}
	for _, f := range r.Files {
		if f != nil && f.ID == fileID {
			return f
		}
	}
	return nil
}
