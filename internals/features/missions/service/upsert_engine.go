package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"missionhub_backend/internals/features/missions/dto"
	helper "missionhub_backend/internals/helpers"
	"missionhub_backend/internals/helpers/storage"
)

var ErrMissionNotFound = errors.New("mission not found")

// UpsertInput carries one editor submission: the document plus the
// optional hints the admin form exposes.
type UpsertInput struct {
	Document       *dto.MissionDocument
	ExplicitUID    string
	RequestedOrder *int
	CustomFolder   string
	TitleOverride  string

	Unlocked         *bool
	UnlockPlayground *bool
	UnlocksProjects  *bool

	Assets []AssetUpload
}

type UpsertResult struct {
	MissionUID string
	OrderNo    int
	ObjectPath string
	Folder     string
	JSONURL    string
	Uploaded   map[string]string
	Warnings   []string
}

// UpsertEngine runs the reconciliation pipeline: identifier derivation,
// uniqueness check, order allocation, asset reconciliation, tiered
// database write, sidecar JSON backup. Steps run in that fixed order;
// nothing rolls back an earlier successful step (uploaded images stay in
// place if a later write fails).
type UpsertEngine struct {
	Store        MissionStore
	Storage      storage.ObjectStorage
	AssetsBucket string
	JSONBucket   string
}

func NewUpsertEngine(store MissionStore, st storage.ObjectStorage, assetsBucket, jsonBucket string) *UpsertEngine {
	return &UpsertEngine{
		Store:        store,
		Storage:      st,
		AssetsBucket: assetsBucket,
		JSONBucket:   jsonBucket,
	}
}

// Upsert creates a new mission record.
func (e *UpsertEngine) Upsert(ctx context.Context, in UpsertInput) (*UpsertResult, error) {
	if in.Document == nil {
		return nil, ErrMissingDocument
	}
	doc := in.Document

	// 1. candidate identifier: explicit override > embedded reference code
	//    > title + timestamp fallback
	explicit := helper.DeriveMissionIdentifier(in.ExplicitUID) != ""
	uid := helper.DeriveMissionIdentifier(in.ExplicitUID)
	if uid == "" {
		uid = helper.DeriveMissionIdentifier(doc.ReferenceCode)
	}
	if uid == "" {
		base := helper.DeriveMissionIdentifier(doc.Title)
		if base == "" {
			base = "MISSION"
		}
		uid = base + "-" + strconv.FormatInt(time.Now().Unix(), 10)
	}

	// 2. uniqueness: explicit intent is never silently renamed; a derived
	//    collision gets exactly one suffixed retry
	exists, err := e.Store.UIDExists(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("uid check: %w", err)
	}
	if exists {
		if explicit {
			return nil, &ConflictError{UID: uid}
		}
		uid = uid + "-" + strconv.FormatInt(time.Now().Unix(), 10)
		exists, err = e.Store.UIDExists(ctx, uid)
		if err != nil {
			return nil, fmt.Errorf("uid check: %w", err)
		}
		if exists {
			return nil, &ConflictError{UID: uid}
		}
	}

	// 3. order number
	used, err := e.Store.UsedOrderNumbers(ctx)
	if err != nil {
		return nil, fmt.Errorf("read order numbers: %w", err)
	}
	order := AllocateOrder(in.RequestedOrder, used)

	// 4. canonical JSON object filename
	objectPath := fmt.Sprintf("%d.json", order)

	// 5. asset reconciliation
	customFolder := helper.SanitizeCustomFolder(in.CustomFolder)
	reconciler := &AssetReconciler{Storage: e.Storage, Bucket: e.AssetsBucket}
	folderRes := FolderResolution{
		CustomFolder:  customFolder,
		MissionFolder: helper.MissionFolderForOrder(order),
		FallbackHint:  doc.Title,
	}
	uploaded, assetFailures := reconciler.Reconcile(ctx, doc, in.Assets, folderRes)
	folderName := folderRes.Resolve()

	// 6. title override
	if in.TitleOverride != "" {
		doc.Title = in.TitleOverride
	}

	docJSON, err := sonic.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("serialize document: %w", err)
	}

	fields := e.fieldTiers(doc, docJSON, in, folderName)
	fields.full["mission_uid"] = uid
	fields.full["order_no"] = order
	fields.full["object_path"] = objectPath

	warnings := warningsFromFailures(assetFailures)

	tierWarnings, err := e.tieredWrite(ctx, fields, func(m map[string]interface{}) error {
		return e.Store.Insert(ctx, m)
	}, objectPath, docJSON)
	if err != nil {
		if IsUniqueViolation(err) {
			// check-then-insert is not atomic; the constraint is the backstop
			return nil, &ConflictError{UID: uid}
		}
		return nil, err
	}
	warnings = append(warnings, tierWarnings...)

	// 8. unconditional sidecar backup of the submitted document
	jsonURL := e.uploadSidecar(ctx, objectPath, docJSON)

	return &UpsertResult{
		MissionUID: uid,
		OrderNo:    order,
		ObjectPath: objectPath,
		Folder:     folderName,
		JSONURL:    jsonURL,
		Uploaded:   uploaded,
		Warnings:   warnings,
	}, nil
}

// Update modifies an existing record. Identifier and order number are held
// fixed; the write is a direct field update.
func (e *UpsertEngine) Update(ctx context.Context, rawUID string, in UpsertInput) (*UpsertResult, error) {
	if in.Document == nil {
		return nil, ErrMissingDocument
	}
	doc := in.Document

	uid := helper.DeriveMissionIdentifier(rawUID)
	if uid == "" {
		return nil, ErrMissionNotFound
	}

	existing, err := e.Store.GetByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMissionNotFound
		}
		return nil, fmt.Errorf("load mission: %w", err)
	}

	order := existing.OrderNo
	objectPath := existing.ObjectPath
	if objectPath == "" {
		objectPath = fmt.Sprintf("%d.json", order)
	}

	customFolder := helper.SanitizeCustomFolder(in.CustomFolder)
	if customFolder == "" && existing.AssetsPrefix != nil {
		customFolder = helper.SanitizeCustomFolder(*existing.AssetsPrefix)
	}
	reconciler := &AssetReconciler{Storage: e.Storage, Bucket: e.AssetsBucket}
	folderRes := FolderResolution{
		CustomFolder:  customFolder,
		MissionFolder: helper.MissionFolderForOrder(order),
		FallbackHint:  doc.Title,
	}
	uploaded, assetFailures := reconciler.Reconcile(ctx, doc, in.Assets, folderRes)
	folderName := folderRes.Resolve()

	if in.TitleOverride != "" {
		doc.Title = in.TitleOverride
	}
	if doc.Title == "" {
		doc.Title = existing.Title
	}

	docJSON, err := sonic.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("serialize document: %w", err)
	}

	fields := e.fieldTiers(doc, docJSON, in, folderName)

	warnings := warningsFromFailures(assetFailures)

	tierWarnings, err := e.tieredWrite(ctx, fields, func(m map[string]interface{}) error {
		return e.Store.UpdateByUID(ctx, uid, m)
	}, objectPath, docJSON)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, tierWarnings...)

	jsonURL := e.uploadSidecar(ctx, objectPath, docJSON)

	return &UpsertResult{
		MissionUID: uid,
		OrderNo:    order,
		ObjectPath: objectPath,
		Folder:     folderName,
		JSONURL:    jsonURL,
		Uploaded:   uploaded,
		Warnings:   warnings,
	}, nil
}

type fieldTiers struct {
	full    map[string]interface{}
	reduced map[string]interface{}
	minimal map[string]interface{}
}

func (e *UpsertEngine) fieldTiers(doc *dto.MissionDocument, docJSON []byte, in UpsertInput, folderName string) fieldTiers {
	title := doc.Title
	if in.TitleOverride != "" {
		title = in.TitleOverride
	}

	full := map[string]interface{}{
		"title":         title,
		"description":   doc.Description,
		"mission_data":  datatypes.JSON(docJSON),
		"xp_reward":     doc.TotalPoints(),
		"assets_bucket": e.AssetsBucket,
		"assets_prefix": folderName,
	}
	if in.Unlocked != nil {
		full["unlocked"] = *in.Unlocked
	}
	if in.UnlockPlayground != nil {
		full["unlock_playground"] = *in.UnlockPlayground
	}
	if in.UnlocksProjects != nil {
		full["unlocks_projects"] = *in.UnlocksProjects
	}

	reduced := make(map[string]interface{}, len(full))
	for k, v := range full {
		if k == "mission_data" {
			continue
		}
		reduced[k] = v
	}

	minimal := map[string]interface{}{
		"title": title,
	}

	return fieldTiers{full: full, reduced: reduced, minimal: minimal}
}

// tieredWrite tries the full field set, then degrades on missing-column
// errors: reduced (no document column, document goes to the sidecar), then
// the absolute minimum. Any error that is not the missing-column class is
// fatal; failure at the minimal tier is always fatal.
func (e *UpsertEngine) tieredWrite(ctx context.Context, tiers fieldTiers, write func(map[string]interface{}) error, objectPath string, docJSON []byte) ([]string, error) {
	err := write(clone(tiers.full))
	if err == nil {
		return nil, nil
	}
	if !IsSchemaMismatch(err) {
		return nil, err
	}
	log.Printf("[WARN] full insert failed on schema mismatch, degrading: %v", err)

	err = write(withRequired(tiers.reduced, tiers.full, objectPath))
	if err == nil {
		// relational write succeeded without the document column; keep the
		// document in the sidecar object
		e.uploadSidecar(ctx, objectPath, docJSON)
		return []string{"mission_data column unavailable; document stored as sidecar JSON only"}, nil
	}
	if !IsSchemaMismatch(err) {
		return nil, err
	}
	log.Printf("[WARN] reduced insert failed on schema mismatch, degrading to minimal: %v", err)

	err = write(withRequired(tiers.minimal, tiers.full, objectPath))
	if err != nil {
		return nil, fmt.Errorf("minimal insert failed: %w", err)
	}
	e.uploadSidecar(ctx, objectPath, docJSON)
	return []string{"schema supports only the minimal field set; document stored as sidecar JSON only"}, nil
}

// withRequired copies the tier map and carries over the identity columns
// (mission_uid, order_no) when the full tier had them, plus object_path.
func withRequired(tier, full map[string]interface{}, objectPath string) map[string]interface{} {
	out := clone(tier)
	if v, ok := full["mission_uid"]; ok {
		out["mission_uid"] = v
	}
	if v, ok := full["order_no"]; ok {
		out["order_no"] = v
	}
	out["object_path"] = objectPath
	return out
}

func clone(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// uploadSidecar writes the submitted JSON bytes as {order}.json in the
// sidecar bucket. Best-effort: the relational write already carries the
// record, so failures here are logged and swallowed.
func (e *UpsertEngine) uploadSidecar(ctx context.Context, objectPath string, docJSON []byte) string {
	if err := e.Storage.EnsureBucket(ctx, storage.JSONBucketSpec(e.JSONBucket)); err != nil {
		log.Printf("[WARN] ensure bucket %s: %v", e.JSONBucket, err)
	}
	if err := e.Storage.Upload(ctx, e.JSONBucket, objectPath, docJSON, "application/json", true); err != nil {
		log.Printf("[WARN] sidecar json upload %s: %v", objectPath, err)
		return ""
	}
	return e.Storage.PublicURL(e.JSONBucket, objectPath)
}

func warningsFromFailures(failures []AssetError) []string {
	if len(failures) == 0 {
		return nil
	}
	out := make([]string, 0, len(failures))
	for _, f := range failures {
		out = append(out, "asset upload failed: "+f.String())
	}
	return out
}
