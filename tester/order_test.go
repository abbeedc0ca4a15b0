// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package tester

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderTreeDepthFirst(t *testing.T) {
	tr := newOrderTree()
	require.NoError(t, tr.add(0, 1))
	require.NoError(t, tr.add(0, 2))
	require.NoError(t, tr.add(1, 3))
	require.NoError(t, tr.add(2, 4))

	assert.Equal(t, []int{0, 1, 3, 2, 4}, tr.order())
}

func TestOrderTreeFinish(t *testing.T) {
	tr := newOrderTree()
	require.NoError(t, tr.add(0, 1))
	require.NoError(t, tr.add(1, 2))

	// a thread cannot finish before its descendants
	assert.Error(t, tr.finish(1))

	require.NoError(t, tr.finish(2))
	require.NoError(t, tr.finish(1))
	assert.Equal(t, []int{0}, tr.order())

	// already gone
	assert.Error(t, tr.finish(2))
}

func TestOrderTreeAncestry(t *testing.T) {
	tr := newOrderTree()
	require.NoError(t, tr.add(0, 1))
	require.NoError(t, tr.add(1, 2))
	require.NoError(t, tr.add(0, 3))

	assert.True(t, tr.isParentOf(0, 1))
	assert.True(t, tr.isParentOf(0, 2))
	assert.True(t, tr.isParentOf(1, 2))
	assert.False(t, tr.isParentOf(2, 1))
	assert.False(t, tr.isParentOf(1, 3))
	assert.False(t, tr.isParentOf(1, 1))

	// ancestry survives completion
	require.NoError(t, tr.finish(2))
	assert.True(t, tr.isParentOf(1, 2))
}

func TestOrderTreeLazyRebuild(t *testing.T) {
	tr := newOrderTree()
	require.NoError(t, tr.add(0, 1))
	first := tr.order()
	assert.Equal(t, []int{0, 1}, first)

	require.NoError(t, tr.add(1, 2))
	assert.Equal(t, []int{0, 1, 2}, tr.order())
}
