package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ternarybob/laboro/internal/models"
)

func TestPlan(t *testing.T) {
	tests := []struct {
		name       string
		prev       models.RawJobStatus
		next       models.RawJobStatus
		isCreation bool
		want       []Action
	}{
		{
			name:       "creation into pending triggers fetch",
			next:       models.RawJobStatusPending,
			isCreation: true,
			want:       []Action{ActionEnqueueFetch},
		},
		{
			name:       "creation into other status triggers nothing",
			next:       models.RawJobStatusDownloaded,
			isCreation: true,
			want:       nil,
		},
		{
			name: "re-save with unchanged status triggers nothing",
			prev: models.RawJobStatusPending,
			next: models.RawJobStatusPending,
			want: nil,
		},
		{
			name: "transition into downloaded triggers extract",
			prev: models.RawJobStatusProcessing,
			next: models.RawJobStatusDownloaded,
			want: []Action{ActionEnqueueExtract},
		},
		{
			name: "reset into pending re-triggers fetch",
			prev: models.RawJobStatusFailed,
			next: models.RawJobStatusPending,
			want: []Action{ActionEnqueueFetch},
		},
		{
			name: "reset into downloaded re-triggers extract",
			prev: models.RawJobStatusProcessed,
			next: models.RawJobStatusDownloaded,
			want: []Action{ActionEnqueueExtract},
		},
		{
			name: "transition into processed triggers nothing",
			prev: models.RawJobStatusProcessing,
			next: models.RawJobStatusProcessed,
			want: nil,
		},
		{
			name: "transition into failed triggers nothing",
			prev: models.RawJobStatusProcessing,
			next: models.RawJobStatusFailed,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Plan(tt.prev, tt.next, tt.isCreation))
		})
	}
}
