package model

import (
	"time"

	"github.com/gofrs/uuid"

	"github.com/websurvey/websurvey/flow"
)

type SurveyStatus string

const (
	StatusDraft     SurveyStatus = "Draft"
	StatusPublished SurveyStatus = "Published"
	StatusClosed    SurveyStatus = "Closed"
)

type Survey struct {
	ID              uuid.UUID    `json:"id"`
	OwnerID         uuid.UUID    `json:"ownerId"`
	Title           string       `json:"title"`
	Description     string       `json:"description,omitempty"`
	DefaultLanguage string       `json:"defaultLanguage,omitempty"`
	IsAnonymous     bool         `json:"isAnonymous"`
	Status          SurveyStatus `json:"status"`
	OpenAt          *time.Time   `json:"openAt,omitempty"`
	CloseAt         *time.Time   `json:"closeAt,omitempty"`
	ResponseQuota   *int         `json:"responseQuota,omitempty"`
	QuotaBehavior   string       `json:"quotaBehavior,omitempty"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

type QuestionOption struct {
	ID       uuid.UUID `json:"id"`
	Question uuid.UUID `json:"-"`
	Order    int       `json:"order"`
	Text     string    `json:"text"`
	Value    string    `json:"value,omitempty"`
	Active   bool      `json:"active"`
}

type BranchRule struct {
	ID               uuid.UUID      `json:"id"`
	SurveyID         uuid.UUID      `json:"surveyId"`
	SourceQuestionID uuid.UUID      `json:"sourceQuestionId"`
	Condition        flow.Condition `json:"condition"`
	TargetAction     flow.Action    `json:"targetAction"`
	TargetQuestionID uuid.NullUUID  `json:"targetQuestionId,omitempty"`
	Priority         int            `json:"priority"`
	CreatedAt        time.Time      `json:"createdAt"`
	Seq              int            `json:"-"`
}

// FlowRule converts the stored rule to the resolver's view.
func (r BranchRule) FlowRule() flow.Rule {
	target := uuid.Nil
	if r.TargetQuestionID.Valid {
		target = r.TargetQuestionID.UUID
	}
	return flow.Rule{
		ID:               r.ID,
		SourceQuestionID: r.SourceQuestionID,
		Condition:        r.Condition,
		Action:           r.TargetAction,
		TargetQuestionID: target,
		Priority:         r.Priority,
		Seq:              r.Seq,
	}
}

type ResponseStatus string

const ResponseCompleted ResponseStatus = "Completed"

type SurveyResponse struct {
	ID               uuid.UUID      `json:"id"`
	SurveyID         uuid.UUID      `json:"surveyId"`
	ChannelID        uuid.NullUUID  `json:"channelId,omitempty"`
	SubmittedAt      time.Time      `json:"submittedAt"`
	UpdatedAt        time.Time      `json:"-"`
	Status           ResponseStatus `json:"status"`
	AnonToken        string         `json:"-"`
	RespondentEmail  string         `json:"respondentEmail,omitempty"`
	RespondentIP     string         `json:"-"`
	IdempotencyToken string         `json:"-"`
	Locked           bool           `json:"locked"`
}

type ResponseAnswer struct {
	ResponseID   uuid.UUID  `json:"-"`
	QuestionID   uuid.UUID  `json:"questionId"`
	Text         string     `json:"text"`
	NumericValue *float64   `json:"numericValue,omitempty"`
	DateValue    *time.Time `json:"dateValue,omitempty"`
	UpdatedAt    time.Time  `json:"-"`
}

type ChannelType string

const (
	ChannelLink  ChannelType = "Link"
	ChannelQR    ChannelType = "QR"
	ChannelEmail ChannelType = "Email"
)

type SurveyChannel struct {
	ID           uuid.UUID   `json:"id"`
	SurveyID     uuid.UUID   `json:"surveyId"`
	Type         ChannelType `json:"type"`
	Slug         string      `json:"slug,omitempty"`
	FullURL      string      `json:"fullUrl,omitempty"`
	QRImagePath  string      `json:"qrImagePath,omitempty"`
	EmailSubject string      `json:"emailSubject,omitempty"`
	EmailBody    string      `json:"emailBody,omitempty"`
	SentAt       *time.Time  `json:"sentAt,omitempty"`
	Active       bool        `json:"active"`
	CreatedAt    time.Time   `json:"createdAt"`
}

type Role string

const (
	RoleViewer Role = "Viewer"
	RoleEditor Role = "Editor"
	RoleOwner  Role = "Owner"
)

type Collaborator struct {
	SurveyID   uuid.UUID `json:"surveyId"`
	UserID     uuid.UUID `json:"userId"`
	Role       Role      `json:"role"`
	AssignedBy uuid.UUID `json:"assignedBy"`
	AssignedAt time.Time `json:"assignedAt"`
}

type ActivityLog struct {
	ID         int64         `json:"id"`
	UserID     uuid.NullUUID `json:"userId,omitempty"`
	SurveyID   uuid.NullUUID `json:"surveyId,omitempty"`
	ResponseID uuid.NullUUID `json:"responseId,omitempty"`
	ActionType string        `json:"actionType"`
	Detail     string        `json:"detail,omitempty"`
	CreatedAt  time.Time     `json:"createdAt"`
}
