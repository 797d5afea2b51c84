// Package messaging routes new chat messages to exactly one audience: a
// recipient user (direct) or a project (broadcast to its members).
package messaging

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"project-hub-backend/pkg/access"
	"project-hub-backend/pkg/errs"
	"project-hub-backend/pkg/models"
)

// Kind is the addressing mode of a message.
type Kind int

const (
	Direct Kind = iota + 1
	Broadcast
)

func (k Kind) String() string {
	switch k {
	case Direct:
		return "direct"
	case Broadcast:
		return "project"
	}
	return "unknown"
}

// Attachment describes an uploaded blob before it is stored.
type Attachment struct {
	Name      string
	MediaType string
	Size      int64
}

// Input is an unvalidated send request. RecipientID and ProjectSlug are
// mutually exclusive.
type Input struct {
	Content     string
	RecipientID string
	ProjectSlug string
	Attachment  *Attachment
}

// Audience is the resolved target of an Input. Only the field matching the
// addressing mode is looked at; nil means the reference did not resolve.
type Audience struct {
	Recipient *models.User
	Project   *models.Project
}

// Address validates the addressing of in and reports its mode.
func Address(in Input) (Kind, error) {
	recipient := strings.TrimSpace(in.RecipientID)
	project := strings.TrimSpace(in.ProjectSlug)
	switch {
	case recipient == "" && project == "":
		return 0, errs.Invalid("a message needs a recipient or a project")
	case recipient != "" && project != "":
		return 0, errs.Invalid("a message cannot have both a recipient and a project")
	}
	if strings.TrimSpace(in.Content) == "" && in.Attachment == nil {
		return 0, errs.Invalid("a message needs content or an attachment")
	}
	if project != "" {
		return Broadcast, nil
	}
	return Direct, nil
}

// Compose validates in, checks that sender may post to the audience and
// builds the message to persist. Storage of the attachment blob is left to
// the caller, which fills AttachmentKey and AttachmentURL.
func Compose(senderID string, in Input, aud Audience, now time.Time) (*models.Message, error) {
	kind, err := Address(in)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		ID:        uuid.NewString(),
		SenderID:  senderID,
		Content:   in.Content,
		CreatedAt: now,
	}

	switch kind {
	case Broadcast:
		if aud.Project == nil {
			return nil, errs.NotFound("project", in.ProjectSlug)
		}
		if err := access.Project(senderID, aud.Project, access.Chat); err != nil {
			return nil, err
		}
		id := aud.Project.ID
		msg.ProjectID = &id
	case Direct:
		if aud.Recipient == nil {
			return nil, errs.NotFound("user", in.RecipientID)
		}
		if senderID == "" {
			return nil, errs.Forbidden("authentication required")
		}
		id := aud.Recipient.ID
		msg.RecipientID = &id
	}

	if in.Attachment != nil {
		msg.AttachmentType = ClassifyAttachment(in.Attachment.MediaType)
		msg.AttachmentName = in.Attachment.Name
	}
	return msg, nil
}

// ClassifyAttachment maps a declared media type to an attachment type.
func ClassifyAttachment(mediaType string) models.AttachmentType {
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	switch {
	case strings.HasPrefix(mediaType, "image/"):
		return models.AttachmentImage
	case strings.HasPrefix(mediaType, "video/"):
		return models.AttachmentVideo
	}
	return models.AttachmentFile
}

// Partners lists the users actorID has exchanged direct messages with,
// most recent conversation first. Project messages are ignored.
func Partners(actorID string, msgs []models.Message) []string {
	last := make(map[string]time.Time)
	for i := range msgs {
		m := &msgs[i]
		if !m.IsDirect() {
			continue
		}
		var other string
		switch actorID {
		case m.SenderID:
			other = *m.RecipientID
		case *m.RecipientID:
			other = m.SenderID
		default:
			continue
		}
		if other == actorID {
			continue
		}
		if m.CreatedAt.After(last[other]) {
			last[other] = m.CreatedAt
		}
	}

	partners := make([]string, 0, len(last))
	for id := range last {
		partners = append(partners, id)
	}
	sort.Slice(partners, func(i, j int) bool {
		ti, tj := last[partners[i]], last[partners[j]]
		if ti.Equal(tj) {
			return partners[i] < partners[j]
		}
		return ti.After(tj)
	})
	return partners
}
