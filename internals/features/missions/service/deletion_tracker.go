package service

import (
	"context"
	"fmt"
	"log"
	"sync"

	helper "missionhub_backend/internals/helpers"
	"missionhub_backend/internals/helpers/storage"
)

// ReplacementTracker records assets superseded during an edit session so
// the old objects can be removed when the new state is written.
type ReplacementTracker struct {
	Storage storage.ObjectStorage
	Bucket  string

	mu      sync.Mutex
	pending map[string]struct{}
}

func NewReplacementTracker(st storage.ObjectStorage, bucket string) *ReplacementTracker {
	return &ReplacementTracker{
		Storage: st,
		Bucket:  bucket,
		pending: make(map[string]struct{}),
	}
}

func (t *ReplacementTracker) MarkReplaced(assetName string) {
	if assetName == "" {
		return
	}
	t.mu.Lock()
	t.pending[assetName] = struct{}{}
	t.mu.Unlock()
}

func (t *ReplacementTracker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// FlushDeletions issues one deletion per tracked asset as an unordered
// concurrent batch, recomputing each path exactly the way the upload did:
// custom folder, else the mission folder, else "unknown". Individual
// failures are logged and returned as warnings; they never block the other
// deletions or the caller. The pending set is cleared after the flush.
func (t *ReplacementTracker) FlushDeletions(ctx context.Context, missionUID, folderOverride string) []AssetError {
	t.mu.Lock()
	names := make([]string, 0, len(t.pending))
	for name := range t.pending {
		names = append(names, name)
	}
	t.pending = make(map[string]struct{})
	t.mu.Unlock()

	if len(names) == 0 {
		return nil
	}

	folder := helper.SanitizeCustomFolder(folderOverride)
	if folder == "" {
		folder = helper.FolderForIdentifier(missionUID)
	}
	if folder == "" {
		folder = "unknown"
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failures []AssetError
	)
	for _, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			path := fmt.Sprintf("%s/images/%s", folder, helper.SanitizeFilename(name))
			if err := t.Storage.Delete(ctx, t.Bucket, path); err != nil {
				log.Printf("[WARN] delete replaced asset %s: %v", path, err)
				mu.Lock()
				failures = append(failures, AssetError{Name: name, Err: err})
				mu.Unlock()
			}
		}(name)
	}
	wg.Wait()

	return failures
}
