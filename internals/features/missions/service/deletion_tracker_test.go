package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlushDeletions_DeletesEveryTrackedAsset(t *testing.T) {
	st := newFakeStorage()
	tr := NewReplacementTracker(st, "missions-assets")

	tr.MarkReplaced("old.png")
	tr.MarkReplaced("hero image.png")
	tr.MarkReplaced("old.png") // duplicates collapse

	failures := tr.FlushDeletions(context.Background(), "m10", "")
	require.Empty(t, failures)

	deleted := st.deletedKeys()
	assert.ElementsMatch(t, []string{
		"missions-assets/M10/images/old.png",
		"missions-assets/M10/images/hero_image.png",
	}, deleted)
	assert.Equal(t, 0, tr.Pending(), "pending set cleared after flush")
}

func TestFlushDeletions_FolderOverrideWins(t *testing.T) {
	st := newFakeStorage()
	tr := NewReplacementTracker(st, "missions-assets")
	tr.MarkReplaced("a.png")

	failures := tr.FlushDeletions(context.Background(), "m10", "custom/place")
	require.Empty(t, failures)
	assert.Equal(t, []string{"missions-assets/custom/place/images/a.png"}, st.deletedKeys())
}

func TestFlushDeletions_UnknownFolderFallback(t *testing.T) {
	st := newFakeStorage()
	tr := NewReplacementTracker(st, "missions-assets")
	tr.MarkReplaced("a.png")

	failures := tr.FlushDeletions(context.Background(), "", "")
	require.Empty(t, failures)
	assert.Equal(t, []string{"missions-assets/unknown/images/a.png"}, st.deletedKeys())
}

func TestFlushDeletions_OneFailureDoesNotBlockOthers(t *testing.T) {
	st := newFakeStorage()
	st.deleteErr["missions-assets/M10/images/bad.png"] = errors.New("storage down")

	tr := NewReplacementTracker(st, "missions-assets")
	tr.MarkReplaced("bad.png")
	tr.MarkReplaced("good.png")

	failures := tr.FlushDeletions(context.Background(), "M10", "")

	require.Len(t, failures, 1)
	assert.Equal(t, "bad.png", failures[0].Name)
	assert.Contains(t, st.deletedKeys(), "missions-assets/M10/images/good.png")
	assert.Equal(t, 0, tr.Pending())
}
