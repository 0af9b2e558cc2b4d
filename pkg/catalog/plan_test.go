package catalog_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/stockplus/plankit/pkg/catalog"
)

func TestPlan_TrialEndsAt(t *testing.T) {
	t.Parallel()

	started := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	trial := catalog.Plan{IsFreeTrial: true, TrialDays: 30}
	assert.Equal(t, started.AddDate(0, 0, 30), trial.TrialEndsAt(started))

	paid := catalog.Plan{IsFreeTrial: false, TrialDays: 0}
	assert.Equal(t, started, paid.TrialEndsAt(started))
}
