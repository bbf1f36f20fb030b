package filestore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitnetworks/raptorcore/raptorerr"
)

func TestValidateKeyRejectsTraversal(t *testing.T) {
	err := ValidateKey(Key{Category: Bundles, Path: "bundles/../secrets"})
	require.Error(t, err)
	assert.ErrorIs(t, err, raptorerr.DirectoryTraversal)

	err = ValidateKey(Key{Category: Bundles, Path: "bundles\\..\\secrets"})
	require.Error(t, err)
	assert.ErrorIs(t, err, raptorerr.DirectoryTraversal)
}

func TestValidateKeyAcceptsOrdinaryPath(t *testing.T) {
	err := ValidateKey(Key{Category: Results, Path: "2026/07/result-42.json"})
	assert.NoError(t, err)
}
