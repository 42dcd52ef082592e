package dto

import (
	"encoding/json"
	"missionhub_backend/internals/features/missions/model"
	"time"
)

// ReportCardEntry is an opaque report-card list element; nothing in the
// pipeline inspects it, so entries round-trip as raw JSON.
type ReportCardEntry = json.RawMessage

// ============================
// Mission document (editor-owned value)
// ============================

type MissionDocument struct {
	Title            string            `json:"title" validate:"required"`
	Description      string            `json:"description,omitempty"`
	EstimatedTime    string            `json:"estimated_time,omitempty"`
	Difficulty       string            `json:"difficulty,omitempty"`
	ReferenceCode    string            `json:"reference_code,omitempty"`
	PageImage        string            `json:"page_image,omitempty"`
	Intro            IntroBlock        `json:"intro,omitempty"`
	Topics           []TopicPair       `json:"topics,omitempty"`
	Requirements     []string          `json:"requirements,omitempty"`
	BlockNames       []string          `json:"block_names,omitempty"`
	Steps            []Step            `json:"steps,omitempty"`
	ReportCard       []ReportCardEntry `json:"report_card,omitempty"`
	LearningOutcomes []string          `json:"learning_outcomes,omitempty"`
	Resources        []Resource        `json:"resources,omitempty"`
}

type IntroBlock struct {
	Text  string `json:"text,omitempty"`
	Image string `json:"image,omitempty"`
}

type TopicPair struct {
	Topic       string `json:"topic"`
	Explanation string `json:"explanation,omitempty"`
}

type Step struct {
	Title         string  `json:"title"`
	Points        int     `json:"points,omitempty"`
	Instruction   string  `json:"instruction,omitempty"`
	Note          string  `json:"note,omitempty"`
	Hint          string  `json:"hint,omitempty"`
	ImportantNote string  `json:"important_note,omitempty"`
	Image         string  `json:"image,omitempty"`
	Blocks        []Block `json:"blocks,omitempty"`
	MCQ           *MCQ    `json:"mcq,omitempty"`
}

// Block render order follows slice order.
type Block struct {
	Image       string `json:"image,omitempty"`
	Alt         string `json:"alt,omitempty"`
	Description string `json:"description,omitempty"`
}

type MCQ struct {
	// nil = unspecified, the form's tri-state
	Compulsory      *bool    `json:"compulsory,omitempty"`
	Question        string   `json:"question"`
	Options         []string `json:"options" validate:"omitempty,len=4"`
	Answer          int      `json:"answer"`
	SuccessFeedback string   `json:"success_feedback,omitempty"`
	RetryFeedback   string   `json:"retry_feedback,omitempty"`
}

type Resource struct {
	Kind string `json:"kind" validate:"omitempty,oneof=image video file link"`
	Path string `json:"path"`
}

// TotalPoints sums step point values; persisted as xp_reward.
func (d *MissionDocument) TotalPoints() int {
	total := 0
	for _, s := range d.Steps {
		total += s.Points
	}
	return total
}

// ============================
// Response DTO
// ============================

type MissionDTO struct {
	MissionID        string    `json:"mission_id"`
	Title            string    `json:"title"`
	Description      *string   `json:"description"`
	MissionUID       string    `json:"mission_uid"`
	OrderNo          int       `json:"order_no"`
	ObjectPath       string    `json:"object_path"`
	XPReward         *int      `json:"xp_reward,omitempty"`
	Unlocked         *bool     `json:"unlocked,omitempty"`
	AssetsBucket     *string   `json:"assets_bucket,omitempty"`
	AssetsPrefix     *string   `json:"assets_prefix,omitempty"`
	UnlockPlayground *bool     `json:"unlock_playground,omitempty"`
	UnlocksProjects  *bool     `json:"unlocks_projects,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func ToMissionDTO(m model.MissionModel) MissionDTO {
	return MissionDTO{
		MissionID:        m.MissionID,
		Title:            m.Title,
		Description:      m.Description,
		MissionUID:       m.MissionUID,
		OrderNo:          m.OrderNo,
		ObjectPath:       m.ObjectPath,
		XPReward:         m.XPReward,
		Unlocked:         m.Unlocked,
		AssetsBucket:     m.AssetsBucket,
		AssetsPrefix:     m.AssetsPrefix,
		UnlockPlayground: m.UnlockPlayground,
		UnlocksProjects:  m.UnlocksProjects,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

// ============================
// Upsert response envelope
// ============================

type UpsertMissionResponse struct {
	MissionUID string            `json:"mission_uid"`
	OrderNo    int               `json:"order_no"`
	ObjectPath string            `json:"object_path"`
	Folder     string            `json:"folder"`
	JSONURL    string            `json:"json_url,omitempty"`
	Uploaded   map[string]string `json:"uploaded,omitempty"`
	Warnings   []string          `json:"warnings,omitempty"`
}
