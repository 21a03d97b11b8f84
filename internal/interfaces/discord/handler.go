package discord

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/wexpcoder/roadcrew/internal/application/services"
	"github.com/wexpcoder/roadcrew/internal/domain/entities"
	infradiscord "github.com/wexpcoder/roadcrew/internal/infrastructure/discord"
	"github.com/wexpcoder/roadcrew/pkg/logger"
)

// historyFetchLimit bounds how far back !uploadphoto scans the channel.
const historyFetchLimit = 50

// Handler routes inbound guild messages to commands and automatic upload
// sessions.
type Handler struct {
	client   *infradiscord.Client
	prefix   string
	sessions *services.UploadSessionService
	roster   *services.RosterService
	roles    *services.RoleService
}

func NewHandler(client *infradiscord.Client, prefix string, sessions *services.UploadSessionService, roster *services.RosterService, roles *services.RoleService) *Handler {
	if prefix == "" {
		prefix = "!"
	}
	return &Handler{
		client:   client,
		prefix:   prefix,
		sessions: sessions,
		roster:   roster,
		roles:    roles,
	}
}

// Register attaches the message handler to the gateway session.
func (h *Handler) Register() {
	h.client.Session().AddHandler(h.onMessageCreate)
}

func (h *Handler) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}

	content := strings.TrimSpace(m.Content)
	if strings.HasPrefix(content, h.prefix) {
		h.dispatchCommand(s, m, strings.TrimPrefix(content, h.prefix))
		return
	}

	h.maybeAutoUpload(m)
}

func (h *Handler) dispatchCommand(s *discordgo.Session, m *discordgo.MessageCreate, command string) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return
	}
	command = strings.ToLower(fields[0])
	ctx := context.Background()

	switch command {
	case "updateschedule":
		if !h.requireManager(s, m) {
			return
		}
		h.handleUpdateSchedule(ctx, m)
	case "runschedule":
		if !h.requireManager(s, m) {
			return
		}
		h.handleRunSchedule(ctx, m)
	case "assignroles":
		if !h.requireManager(s, m) {
			return
		}
		h.handleAssignRoles(ctx, m)
	case "uploadphoto":
		h.handleUploadPhoto(ctx, m)
	}
}

// requireManager gates mutating commands on the Manage Roles permission.
func (h *Handler) requireManager(s *discordgo.Session, m *discordgo.MessageCreate) bool {
	perms, err := s.UserChannelPermissions(m.Author.ID, m.ChannelID)
	if err != nil {
		logger.Error("Failed to check permissions", "userID", m.Author.ID, "error", err)
		h.reply(m.ChannelID, "Could not verify your permissions.")
		return false
	}
	if perms&discordgo.PermissionAdministrator == 0 && perms&discordgo.PermissionManageRoles == 0 {
		h.reply(m.ChannelID, "You lack the necessary permissions.")
		return false
	}
	return true
}

func (h *Handler) handleUpdateSchedule(ctx context.Context, m *discordgo.MessageCreate) {
	att := findCSVAttachment(m.Attachments)
	if att == nil {
		h.reply(m.ChannelID, "Please attach a .csv file containing the list of usernames.")
		return
	}
	added, total, err := h.roster.IngestCSV(ctx, *att)
	if err != nil {
		logger.Error("Roster ingestion failed", "fileName", att.FileName, "error", err)
		h.reply(m.ChannelID, "An error occurred while updating the schedule.")
		return
	}
	h.reply(m.ChannelID, fmt.Sprintf(
		"Schedule updated. %d usernames added to the database. Total usernames: %d.", added, total))
}

func (h *Handler) handleRunSchedule(ctx context.Context, m *discordgo.MessageCreate) {
	report, err := h.roles.SyncTomorrow(ctx)
	if err != nil {
		logger.Error("Roster sync failed", "error", err)
		h.reply(m.ChannelID, "An error occurred while running the schedule.")
		return
	}
	h.reply(m.ChannelID, fmt.Sprintf(
		"✅ Success! Added %d drivers for tomorrow. Drivers removed: %d", report.Assigned, report.Removed))
}

func (h *Handler) handleAssignRoles(ctx context.Context, m *discordgo.MessageCreate) {
	report, err := h.roles.Rotate(ctx)
	if err != nil {
		logger.Error("Role rotation failed", "error", err)
		h.reply(m.ChannelID, "An error occurred while assigning roles.")
		return
	}
	h.reply(m.ChannelID, fmt.Sprintf(
		"✅ Completed! Removed active role from %d drivers & assigned to %d others.",
		report.Cleaned, report.Promoted))
}

// maybeAutoUpload starts an upload session when a message carries enough
// eligible photos on its own.
func (h *Handler) maybeAutoUpload(m *discordgo.MessageCreate) {
	atts := h.sessions.EligibleAttachments(toAttachments(m.Attachments))
	if !h.sessions.MeetsThreshold(len(atts)) {
		return
	}
	batch := entities.AuthorBatch{
		Author:      entities.Author{ID: m.Author.ID, DisplayName: m.Author.Username},
		Attachments: atts,
	}
	h.runSession(context.Background(), m.ChannelID, []entities.AuthorBatch{batch})
}

// handleUploadPhoto collects recent photo messages in the channel, grouped
// by author, and uploads them all.
func (h *Handler) handleUploadPhoto(ctx context.Context, m *discordgo.MessageCreate) {
	messages, err := h.client.Session().ChannelMessages(m.ChannelID, historyFetchLimit, "", "", "")
	if err != nil {
		logger.Error("Failed to fetch channel history", "channelID", m.ChannelID, "error", err)
		h.reply(m.ChannelID, "Error: could not read recent messages. Please try again.")
		return
	}

	order := []string{}
	byAuthor := map[string]*entities.AuthorBatch{}
	total := 0
	for _, msg := range messages {
		if msg.Author == nil || msg.Author.Bot {
			continue
		}
		atts := h.sessions.EligibleAttachments(toAttachments(msg.Attachments))
		if len(atts) == 0 {
			continue
		}
		batch, ok := byAuthor[msg.Author.ID]
		if !ok {
			batch = &entities.AuthorBatch{
				Author: entities.Author{ID: msg.Author.ID, DisplayName: msg.Author.Username},
			}
			byAuthor[msg.Author.ID] = batch
			order = append(order, msg.Author.ID)
		}
		batch.Attachments = append(batch.Attachments, atts...)
		total += len(atts)
	}

	if !h.sessions.MeetsThreshold(total) {
		h.reply(m.ChannelID, fmt.Sprintf(
			"Not enough photos found (%d photos, minimum required not met).", total))
		return
	}

	batches := make([]entities.AuthorBatch, 0, len(order))
	for _, id := range order {
		batches = append(batches, *byAuthor[id])
	}
	h.runSession(ctx, m.ChannelID, batches)
}

func (h *Handler) runSession(ctx context.Context, channelID string, batches []entities.AuthorBatch) {
	report, err := h.sessions.RunSession(ctx, batches)
	if err != nil {
		logger.Error("Upload session failed", "channelID", channelID, "error", err)
		h.reply(channelID, "Error: Could not create or access the daily folder. Please try again.")
		return
	}
	for _, author := range report.SkippedAuthors {
		h.reply(channelID, fmt.Sprintf(
			"Error: Could not create or access folder for %s. Skipping their photos.", author))
	}
	h.reply(channelID, h.sessions.Summary(report))
}

func (h *Handler) reply(channelID, text string) {
	if err := h.client.SendMessage(channelID, text); err != nil {
		logger.Error("Failed to send reply", "channelID", channelID, "error", err)
	}
}

func toAttachments(in []*discordgo.MessageAttachment) []entities.Attachment {
	out := make([]entities.Attachment, 0, len(in))
	for i, a := range in {
		if a == nil {
			continue
		}
		id := a.ID
		if id == "" {
			id = strconv.Itoa(i)
		}
		out = append(out, entities.Attachment{
			ID:          id,
			URL:         a.URL,
			FileName:    a.Filename,
			ContentType: a.ContentType,
		})
	}
	return out
}

func findCSVAttachment(in []*discordgo.MessageAttachment) *entities.Attachment {
	for _, a := range in {
		if a == nil {
			continue
		}
		if strings.HasSuffix(strings.ToLower(a.Filename), ".csv") {
			return &entities.Attachment{
				ID:          a.ID,
				URL:         a.URL,
				FileName:    a.Filename,
				ContentType: a.ContentType,
			}
		}
	}
	return nil
}
