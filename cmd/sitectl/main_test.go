package main

import (
	"testing"

	"github.com/dafibh/sitebook/sitebook-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepairOptions(t *testing.T) {
	opts, err := repairOptions([]string{"broken_url", " missing_in_db "}, true)
	require.NoError(t, err)
	assert.True(t, opts.Confirm)
	assert.Equal(t, []domain.IssueKind{domain.IssueBrokenURL, domain.IssueMissingInDB}, opts.Kinds)

	opts, err = repairOptions(nil, false)
	require.NoError(t, err)
	assert.Empty(t, opts.Kinds)

	_, err = repairOptions([]string{"orphan"}, false)
	assert.ErrorIs(t, err, domain.ErrUnknownIssueKind)
}

func TestRootCommands(t *testing.T) {
	for _, cmd := range []string{checkCmd().Name(), historyCmd().Name(), repairCmd().Name()} {
		assert.NotEmpty(t, cmd)
	}
	assert.NotNil(t, checkCmd().Flags().Lookup("json"))
	assert.NotNil(t, repairCmd().Flags().Lookup("kind"))
	assert.NotNil(t, repairCmd().Flags().Lookup("yes"))
}
