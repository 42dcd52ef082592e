package service

import (
	"context"
	"fmt"
	"log"

	helper "missionhub_backend/internals/helpers"
	"missionhub_backend/internals/helpers/storage"

	"missionhub_backend/internals/features/missions/dto"
)

// AssetUpload is a pending (name → binary) attachment from the editor.
type AssetUpload struct {
	Name        string
	Data        []byte
	ContentType string
}

// AssetError is a recoverable per-file failure; it never fails the overall
// operation.
type AssetError struct {
	Name string `json:"name"`
	Err  error  `json:"-"`
}

func (e AssetError) String() string {
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

// FolderResolution picks the storage folder for a mission's assets:
// explicit custom folder, else the canonical mission folder, else a random
// fallback so assets with no derivable identifier still cannot collide.
type FolderResolution struct {
	CustomFolder  string
	MissionFolder string
	FallbackHint  string
}

func (f FolderResolution) Resolve() string {
	if f.CustomFolder != "" {
		return f.CustomFolder
	}
	if f.MissionFolder != "" {
		return f.MissionFolder
	}
	return helper.FallbackFolder(f.FallbackHint)
}

type AssetReconciler struct {
	Storage storage.ObjectStorage
	Bucket  string
}

// Reconcile uploads each pending asset to {folder}/images/{sanitizedName}
// without overwrite, resolves its public URL, and rewrites the document's
// image references from the original filename to that URL. Per-file
// failures (including path collisions) are collected, logged, and skipped.
func (r *AssetReconciler) Reconcile(ctx context.Context, doc *dto.MissionDocument, pending []AssetUpload, folder FolderResolution) (map[string]string, []AssetError) {
	uploaded := make(map[string]string, len(pending))
	var failures []AssetError

	if len(pending) == 0 {
		return uploaded, failures
	}

	folderName := folder.Resolve()

	if err := r.Storage.EnsureBucket(ctx, storage.AssetsBucketSpec(r.Bucket)); err != nil {
		// The bucket may already exist from a prior run; uploads decide.
		log.Printf("[WARN] ensure bucket %s: %v", r.Bucket, err)
	}

	for _, asset := range pending {
		path := fmt.Sprintf("%s/images/%s", folderName, helper.SanitizeFilename(asset.Name))
		if err := r.Storage.Upload(ctx, r.Bucket, path, asset.Data, asset.ContentType, false); err != nil {
			log.Printf("[WARN] upload asset %s: %v", asset.Name, err)
			failures = append(failures, AssetError{Name: asset.Name, Err: err})
			continue
		}
		uploaded[asset.Name] = r.Storage.PublicURL(r.Bucket, path)
	}

	RewriteImageRefs(doc, uploaded)
	return uploaded, failures
}

// RewriteImageRefs walks the document and rewrites only the designated
// image-reference fields whose value exactly matches an uploaded asset
// name. Walking the tree instead of substring-replacing the serialized
// JSON means free text that happens to contain a filename is left alone.
func RewriteImageRefs(doc *dto.MissionDocument, uploaded map[string]string) {
	if doc == nil || len(uploaded) == 0 {
		return
	}

	rewrite := func(ref *string) {
		if url, ok := uploaded[*ref]; ok {
			*ref = url
		}
	}

	rewrite(&doc.PageImage)
	rewrite(&doc.Intro.Image)
	for i := range doc.Steps {
		rewrite(&doc.Steps[i].Image)
		for j := range doc.Steps[i].Blocks {
			rewrite(&doc.Steps[i].Blocks[j].Image)
		}
	}
	for i := range doc.Resources {
		if doc.Resources[i].Kind == "image" {
			rewrite(&doc.Resources[i].Path)
		}
	}
}
