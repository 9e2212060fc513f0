package competitions

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/swimprotocol/pkg/model"
)

var sample = []model.Competition{
	{
		ID: "42", Description: "Кубок", Location: "Москва", Date: "2025-12-06",
		IsActive: true, RegisteredCount: 12,
	},
	{ID: "43", Description: "Old", Location: "Tula", Date: "someday"},
}

func TestFilterActive(t *testing.T) {
	got := FilterActive(sample)
	require.Len(t, got, 1)
	assert.Equal(t, "42", got[0].ID)
	assert.Empty(t, FilterActive(nil))
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sample))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t,
		[]string{"ID", "DATE", "DESCRIPTION", "LOCATION", "REGISTERED", "ACTIVE"},
		strings.Fields(lines[0]))
	assert.Equal(t,
		[]string{"42", "06.12.2025", "Кубок", "Москва", "12", "yes"},
		strings.Fields(lines[1]))
	assert.Equal(t,
		[]string{"43", "someday", "Old", "Tula", "0"},
		strings.Fields(lines[2]))
}
