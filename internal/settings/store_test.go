package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finledger/internal/core"
	"finledger/internal/storage"
)

func TestLoad(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name  string
		blob  string
		check func(t *testing.T, s core.Settings)
	}{
		{
			name:  "absent",
			check: func(t *testing.T, s core.Settings) { assert.Equal(t, core.DefaultSettings(), s) },
		},
		{
			name:  "garbage",
			blob:  "not json",
			check: func(t *testing.T, s core.Settings) { assert.Equal(t, core.DefaultSettings(), s) },
		},
		{
			name:  "array",
			blob:  "[1,2]",
			check: func(t *testing.T, s core.Settings) { assert.Equal(t, core.DefaultSettings(), s) },
		},
		{
			name: "partially invalid",
			blob: `{"name":"Hugo","theme":42,"warnOverCap":"off","budget":{"food":120.6,"books":"x","fees":-3,"yachts":9}}`,
			check: func(t *testing.T, s core.Settings) {
				assert.Equal(t, "Hugo", s.Name)
				assert.Equal(t, core.ThemeSystem, s.Theme)
				assert.Equal(t, core.WarnOff, s.WarnOverCap)
				assert.Equal(t, int64(121), s.Budget["food"])
				assert.Equal(t, int64(0), s.Budget["books"])
				assert.Equal(t, int64(0), s.Budget["fees"])
				assert.NotContains(t, s.Budget, "yachts")
				assert.Len(t, s.Budget, len(core.BudgetKeys))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blobs := storage.NewMemoryStore()
			if tt.blob != "" {
				require.NoError(t, blobs.Put(ctx, storage.SettingsKey, []byte(tt.blob)))
			}
			tt.check(t, NewStore(blobs).Load(ctx))
		})
	}
}

func TestSaveMergeReset(t *testing.T) {
	ctx := context.Background()
	s := NewStore(storage.NewMemoryStore())
	changes := 0
	s.OnChange(func(core.Settings) { changes++ })

	st := core.DefaultSettings()
	st.Name = "Ada"
	st.Budget["food"] = 100
	require.NoError(t, s.Save(ctx, st))

	dark := core.ThemeDark
	merged, err := s.Merge(ctx, core.SettingsPatch{Theme: &dark, Budget: map[string]int64{"books": 40}})
	require.NoError(t, err)
	assert.Equal(t, "Ada", merged.Name)
	assert.Equal(t, core.ThemeDark, merged.Theme)
	assert.Equal(t, int64(100), merged.Budget["food"])
	assert.Equal(t, int64(40), merged.Budget["books"])
	assert.Equal(t, merged, s.Load(ctx))

	reset, err := s.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.DefaultSettings(), reset)
	assert.Equal(t, core.DefaultSettings(), s.Load(ctx))
	assert.Equal(t, 3, changes)
}

func TestMergeRejectsInvalidPatch(t *testing.T) {
	ctx := context.Background()
	s := NewStore(storage.NewMemoryStore())
	_, err := s.Merge(ctx, core.SettingsPatch{Budget: map[string]int64{"food": -1}})
	assert.ErrorIs(t, err, core.ErrInvalidBudget)
}
