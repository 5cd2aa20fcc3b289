package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeInvoiceSync is the task type for the QBO invoice sync.
	TaskTypeInvoiceSync = "invoices:sync"
)

// InvoiceSyncPayload bounds one background sync run. Dates are YYYY-MM-DD;
// empty means unbounded on that side.
type InvoiceSyncPayload struct {
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	Status    string `json:"status,omitempty"`
}

// NewInvoiceSyncTask constructs an Asynq task.
func NewInvoiceSyncTask(payload InvoiceSyncPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeInvoiceSync, data), nil
}
