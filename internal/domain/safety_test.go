package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreChecklist(t *testing.T) {
	tests := []struct {
		name           string
		checklist      SafetyChecklist
		wantScore      float64
		wantPercentage int
		wantCompliant  bool
	}{
		{
			name: "perfect checklist",
			checklist: SafetyChecklist{
				TemperatureControl: TemperatureProper,
				PackagingIntact:    true,
				ProperLabeling:     true,
				ContaminationRisk:  ContaminationLow,
			},
			wantScore:      6,
			wantPercentage: 100,
			wantCompliant:  true,
		},
		{
			name: "medium contamination still compliant",
			checklist: SafetyChecklist{
				TemperatureControl: TemperatureProper,
				PackagingIntact:    true,
				ProperLabeling:     true,
				ContaminationRisk:  ContaminationMedium,
			},
			wantScore:      5,
			wantPercentage: 83,
			wantCompliant:  true,
		},
		{
			name: "room temp safe",
			checklist: SafetyChecklist{
				TemperatureControl: TemperatureRoomTempSafe,
				PackagingIntact:    true,
				ProperLabeling:     true,
				ContaminationRisk:  ContaminationLow,
			},
			wantScore:      5.5,
			wantPercentage: 92,
			wantCompliant:  true,
		},
		{
			name: "uncertain temperature lands exactly on the threshold",
			checklist: SafetyChecklist{
				TemperatureControl: TemperatureUncertain,
				PackagingIntact:    true,
				ProperLabeling:     true,
				ContaminationRisk:  ContaminationLow,
			},
			wantScore:      4.5,
			wantPercentage: 75,
			wantCompliant:  true,
		},
		{
			name: "high contamination blocks publication",
			checklist: SafetyChecklist{
				TemperatureControl: TemperatureProper,
				PackagingIntact:    true,
				ProperLabeling:     true,
				ContaminationRisk:  ContaminationHigh,
			},
			wantScore:      4,
			wantPercentage: 67,
			wantCompliant:  false,
		},
		{
			name: "improper temperature scores zero for temperature",
			checklist: SafetyChecklist{
				TemperatureControl: TemperatureImproper,
				PackagingIntact:    true,
				ProperLabeling:     true,
				ContaminationRisk:  ContaminationLow,
			},
			wantScore:      4,
			wantPercentage: 67,
			wantCompliant:  false,
		},
		{
			name:           "empty checklist",
			checklist:      SafetyChecklist{},
			wantScore:      0,
			wantPercentage: 0,
			wantCompliant:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ScoreChecklist(tt.checklist)
			assert.Equal(t, tt.wantScore, result.Score)
			assert.Equal(t, tt.wantPercentage, result.Percentage)
			assert.Equal(t, tt.wantCompliant, result.Compliant)
		})
	}
}

func TestScoreChecklist_Deterministic(t *testing.T) {
	checklist := SafetyChecklist{
		TemperatureControl: TemperatureRoomTempSafe,
		PackagingIntact:    true,
		ContaminationRisk:  ContaminationMedium,
	}
	first := ScoreChecklist(checklist)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ScoreChecklist(checklist))
	}
}
