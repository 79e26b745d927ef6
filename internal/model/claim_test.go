package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/expocenter/stand-reservation/internal/model"
)

func TestEffectiveStatus(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Second)
	future := now.Add(time.Minute)

	cases := []struct {
		name  string
		claim model.Claim
		want  model.ClaimStatus
	}{
		{"available stays available", model.Claim{Status: model.StatusAvailable}, model.StatusAvailable},
		{"live hold reads held", model.Claim{Status: model.StatusHeld, ExpiresAt: &future}, model.StatusHeld},
		{"deadline reached reads available", model.Claim{Status: model.StatusHeld, ExpiresAt: &now}, model.StatusAvailable},
		{"overdue hold reads available", model.Claim{Status: model.StatusHeld, ExpiresAt: &past}, model.StatusAvailable},
		{"pending never expires", model.Claim{Status: model.StatusPendingApproval}, model.StatusPendingApproval},
		{"occupied never expires", model.Claim{Status: model.StatusOccupied}, model.StatusOccupied},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.claim.EffectiveStatus(now))
		})
	}
}
