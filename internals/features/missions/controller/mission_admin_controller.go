package controller

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"missionhub_backend/internals/configs"
	"missionhub_backend/internals/features/missions/dto"
	"missionhub_backend/internals/features/missions/repository"
	"missionhub_backend/internals/features/missions/service"
	helper "missionhub_backend/internals/helpers"
	"missionhub_backend/internals/helpers/storage"
)

type MissionAdminController struct {
	Repo    *repository.MissionRepository
	Engine  *service.UpsertEngine
	Storage storage.ObjectStorage
}

func NewMissionAdminController(db *gorm.DB, st storage.ObjectStorage) *MissionAdminController {
	repo := repository.NewMissionRepository(db)
	return &MissionAdminController{
		Repo:    repo,
		Engine:  service.NewUpsertEngine(repo, st, configs.AssetsBucket, configs.JSONBucket),
		Storage: st,
	}
}

// ➕ Create mission (multipart: "mission" JSON part + "images" file parts)
func (ctrl *MissionAdminController) CreateMission(c *fiber.Ctx) error {
	in, warnings, err := ctrl.parseUpsertForm(c)
	if err != nil {
		return formError(c, err)
	}

	warnings = append(warnings, ctrl.flushReplaced(c, c.FormValue("mission_uid"))...)

	result, err := ctrl.Engine.Upsert(c.UserContext(), *in)
	if err != nil {
		return upsertError(c, err)
	}
	result.Warnings = append(result.Warnings, warnings...)

	return helper.SuccessWithCode(c, fiber.StatusCreated, "Mission created", toUpsertResponse(result))
}

// 🔄 Update mission (identifier and order number held fixed)
func (ctrl *MissionAdminController) UpdateMission(c *fiber.Ctx) error {
	uid := c.Params("uid")

	in, warnings, err := ctrl.parseUpsertForm(c)
	if err != nil {
		return formError(c, err)
	}

	warnings = append(warnings, ctrl.flushReplaced(c, uid)...)

	result, err := ctrl.Engine.Update(c.UserContext(), uid, *in)
	if err != nil {
		return upsertError(c, err)
	}
	result.Warnings = append(result.Warnings, warnings...)

	return helper.Success(c, "Mission updated", toUpsertResponse(result))
}

// 📋 List missions ordered by order_no
func (ctrl *MissionAdminController) ListMissions(c *fiber.Ctx) error {
	paging := helper.ResolvePaging(c, 50, 200)

	missions, total, err := ctrl.Repo.List(c.UserContext(), paging.Limit, paging.Offset)
	if err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to load missions")
	}

	out := make([]dto.MissionDTO, 0, len(missions))
	for _, m := range missions {
		out = append(out, dto.ToMissionDTO(m))
	}
	return helper.Success(c, "OK", fiber.Map{
		"missions":   out,
		"pagination": helper.BuildPagination(paging, total, len(out)),
	})
}

// 🔎 Fetch one mission with its document. The mission_data column is
// preferred; older schemas only have the sidecar JSON object, so its URL
// is returned alongside.
func (ctrl *MissionAdminController) GetMission(c *fiber.Ctx) error {
	uid := helper.DeriveMissionIdentifier(c.Params("uid"))
	if uid == "" {
		return helper.Error(c, fiber.StatusBadRequest, "Mission UID is required")
	}

	m, err := ctrl.Repo.GetByUID(c.UserContext(), uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.Error(c, fiber.StatusNotFound, "Mission not found")
		}
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to load mission")
	}

	var document *dto.MissionDocument
	if len(m.MissionData) > 0 {
		var doc dto.MissionDocument
		if err := sonic.Unmarshal(m.MissionData, &doc); err == nil {
			document = &doc
		}
	}

	return helper.Success(c, "OK", fiber.Map{
		"record":   dto.ToMissionDTO(*m),
		"document": document,
		"json_url": ctrl.Storage.PublicURL(configs.JSONBucket, m.ObjectPath),
	})
}

// 🗑️ Delete a single asset. Idempotent: a missing object is success.
func (ctrl *MissionAdminController) DeleteMissionAsset(c *fiber.Ctx) error {
	uid := strings.TrimSpace(c.Params("uid"))
	name, err := url.PathUnescape(c.Params("name"))
	if err != nil || strings.TrimSpace(name) == "" {
		return helper.Error(c, fiber.StatusBadRequest, "Asset name is required")
	}
	if uid == "" {
		return helper.Error(c, fiber.StatusBadRequest, "Mission UID is required")
	}

	folder := helper.SanitizeCustomFolder(c.Query("folder"))
	if folder == "" {
		folder = helper.FolderForIdentifier(uid)
	}
	if folder == "" {
		folder = "unknown"
	}
	path := folder + "/images/" + helper.SanitizeFilename(name)

	if err := ctrl.Storage.Delete(c.UserContext(), configs.AssetsBucket, path); err != nil {
		return helper.Error(c, fiber.StatusBadGateway, "Failed to delete asset: "+err.Error())
	}
	return helper.Success(c, "Asset deleted", fiber.Map{"path": path})
}

// ============================
// form parsing
// ============================

func (ctrl *MissionAdminController) parseUpsertForm(c *fiber.Ctx) (*service.UpsertInput, []string, error) {
	missionJSON := c.FormValue("mission")
	if strings.TrimSpace(missionJSON) == "" {
		return nil, nil, errors.New("mission document is required")
	}

	var doc dto.MissionDocument
	if err := sonic.Unmarshal([]byte(missionJSON), &doc); err != nil {
		return nil, nil, errors.New("mission document is not valid JSON: " + err.Error())
	}
	if err := helper.ValidateStruct(&doc); err != nil {
		return nil, nil, err
	}

	in := &service.UpsertInput{
		Document:         &doc,
		ExplicitUID:      c.FormValue("mission_uid"),
		RequestedOrder:   parseOptionalInt(c.FormValue("order_no")),
		CustomFolder:     c.FormValue("folder"),
		TitleOverride:    c.FormValue("title"),
		Unlocked:         parseOptionalBool(c.FormValue("unlocked")),
		UnlockPlayground: parseOptionalBool(c.FormValue("unlock_playground")),
		UnlocksProjects:  parseOptionalBool(c.FormValue("unlocks_projects")),
	}

	var warnings []string
	if form, err := c.MultipartForm(); err == nil && form != nil {
		for _, fh := range form.File["images"] {
			data, contentType, err := helper.PrepareImageUpload(fh)
			if err != nil {
				warnings = append(warnings, "asset rejected: "+fh.Filename+": "+err.Error())
				continue
			}
			in.Assets = append(in.Assets, service.AssetUpload{
				Name:        fh.Filename,
				Data:        data,
				ContentType: contentType,
			})
		}
	}

	return in, warnings, nil
}

// flushReplaced deletes assets the editor marked as superseded during the
// session, before the new state is written.
func (ctrl *MissionAdminController) flushReplaced(c *fiber.Ctx, uid string) []string {
	raw := c.FormValue("replaced_assets")
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var names []string
	if err := sonic.Unmarshal([]byte(raw), &names); err != nil {
		return []string{"replaced_assets is not a valid JSON array"}
	}

	tracker := service.NewReplacementTracker(ctrl.Storage, configs.AssetsBucket)
	for _, name := range names {
		// the editor may report the replaced asset by its public URL
		if strings.HasPrefix(name, "http") {
			if _, objPath, err := storage.ExtractPublicURLPath(name); err == nil {
				if idx := strings.LastIndex(objPath, "/"); idx >= 0 {
					name = objPath[idx+1:]
				} else {
					name = objPath
				}
			}
		}
		tracker.MarkReplaced(name)
	}

	failures := tracker.FlushDeletions(c.UserContext(), uid, c.FormValue("folder"))
	warnings := make([]string, 0, len(failures))
	for _, f := range failures {
		warnings = append(warnings, "replaced asset not deleted: "+f.String())
	}
	return warnings
}

func parseOptionalInt(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		// non-numeric order input is treated as absent
		return nil
	}
	return &n
}

func parseOptionalBool(s string) *bool {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return nil
	}
	b := s == "true" || s == "1"
	return &b
}

func toUpsertResponse(r *service.UpsertResult) dto.UpsertMissionResponse {
	return dto.UpsertMissionResponse{
		MissionUID: r.MissionUID,
		OrderNo:    r.OrderNo,
		ObjectPath: r.ObjectPath,
		Folder:     r.Folder,
		JSONURL:    r.JSONURL,
		Uploaded:   r.Uploaded,
		Warnings:   r.Warnings,
	}
}

func formError(c *fiber.Ctx, err error) error {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return helper.ValidationError(c, ve)
	}
	return helper.Error(c, fiber.StatusBadRequest, err.Error())
}

func upsertError(c *fiber.Ctx, err error) error {
	var conflict *service.ConflictError
	switch {
	case errors.Is(err, service.ErrMissingDocument):
		return helper.Error(c, fiber.StatusBadRequest, err.Error())
	case errors.As(err, &conflict):
		return helper.Error(c, fiber.StatusConflict, conflict.Error())
	case errors.Is(err, service.ErrMissionNotFound):
		return helper.Error(c, fiber.StatusNotFound, "Mission not found")
	}
	return helper.Error(c, fiber.StatusInternalServerError, err.Error())
}
