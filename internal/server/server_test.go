// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/xref/internal/treeconfig"
)

func TestNewDispatchesOnTargetServer(t *testing.T) {
	local, err := New(treeconfig.Target{Server: "/trees/mozilla-central", Tree: "mozilla-central"})
	require.NoError(t, err)
	_, ok := local.(*LocalServer)
	assert.True(t, ok)

	remote, err := New(treeconfig.Target{Server: "https://searchfox.org/", Tree: "mozilla-central"})
	require.NoError(t, err)
	_, ok = remote.(*RemoteServer)
	assert.True(t, ok)
}
