package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pikia/internal/core/domain"
)

func TestCreate(t *testing.T) {
	tests := []struct {
		name     string
		settings *domain.DetectorSettings
		opts     Options
		wantName string
		wantErr  bool
	}{
		{
			name:    "nil settings",
			wantErr: true,
		},
		{
			name:     "sidecar",
			settings: &domain.DetectorSettings{Provider: domain.DetectorSidecar},
			wantName: "sidecar",
		},
		{
			name:     "vision",
			settings: &domain.DetectorSettings{Provider: domain.DetectorVision, APIKey: "k", Model: "gpt-4o"},
			wantName: "vision:gpt-4o",
		},
		{
			name:     "vision with cache",
			settings: &domain.DetectorSettings{Provider: domain.DetectorVision, APIKey: "k", Model: "gpt-4o"},
			opts:     Options{CacheSidecars: true},
			wantName: "vision:gpt-4o+sidecar",
		},
		{
			name:     "vision without key",
			settings: &domain.DetectorSettings{Provider: domain.DetectorVision},
			wantErr:  true,
		},
		{
			name:     "unknown provider",
			settings: &domain.DetectorSettings{Provider: "florence"},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Create(tt.settings, tt.opts)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				assert.Nil(t, d)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, d.Name())
			assert.NoError(t, d.Close())
		})
	}
}
