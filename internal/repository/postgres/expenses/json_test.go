package expenses

import (
	"testing"

	expensesdomain "finance-app-go/internal/domain/expenses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONOrNull(t *testing.T) {
	assert.Nil(t, jsonOrNull(nil))
	assert.Nil(t, jsonOrNull([]string{}))
	assert.Nil(t, jsonOrNull((*expensesdomain.Recurrence)(nil)))

	tags := jsonOrNull([]string{"work", "travel"})
	require.NotNil(t, tags)
	assert.Equal(t, `["work","travel"]`, *tags)

	recurrence := jsonOrNull(&expensesdomain.Recurrence{Frequency: "monthly", Interval: 1})
	require.NotNil(t, recurrence)
	assert.JSONEq(t, `{"frequency":"monthly","interval":1}`, *recurrence)
}
