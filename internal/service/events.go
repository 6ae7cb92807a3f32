package service

import (
	"context"

	"github.com/dafibh/sitebook/sitebook-backend/internal/domain"
	"github.com/dafibh/sitebook/sitebook-backend/internal/websocket"
	"github.com/google/uuid"
)

// siteEvents publishes entity events to the global channel and to the owning site's channel
type siteEvents struct {
	eventPublisher websocket.EventPublisher
}

// SetEventPublisher sets the event publisher for real-time updates
func (e *siteEvents) SetEventPublisher(publisher websocket.EventPublisher) {
	e.eventPublisher = publisher
}

func (e *siteEvents) publishEvent(siteID uuid.UUID, event websocket.Event) {
	if e.eventPublisher == nil {
		return
	}
	e.eventPublisher.Publish(websocket.GlobalChannel, event)
	e.eventPublisher.Publish(websocket.SiteChannel(siteID), event)
}

// attachmentCleanup purges the stored files of deleted records
type attachmentCleanup struct {
	attachments *AttachmentService
}

// SetAttachmentService enables best-effort file cleanup when records are deleted
func (c *attachmentCleanup) SetAttachmentService(attachments *AttachmentService) {
	c.attachments = attachments
}

func (c *attachmentCleanup) purge(ctx context.Context, owner domain.OwnerRef, set domain.AttachmentSet) {
	if c.attachments == nil || set.IsEmpty() {
		return
	}
	c.attachments.PurgeAll(ctx, owner, set)
}
