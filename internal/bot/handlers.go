package bot

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/AlekSi/pointer"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hackiit/writeupbot/internal/files"
	"github.com/hackiit/writeupbot/internal/store"
)

const internalErrorText = "⚠️ Error interno. Inténtalo más tarde."

type BotService struct {
	botAPI      *tgbotapi.BotAPI
	store       *store.Store
	fileService *files.Service
	groupID     int64
}

func New(
	botAPI *tgbotapi.BotAPI,
	reviewStore *store.Store,
	fileService *files.Service,
	groupID int64,
) *BotService {
	return &BotService{
		botAPI:      botAPI,
		store:       reviewStore,
		fileService: fileService,
		groupID:     groupID,
	}
}

// Start runs the long-poll loop. Updates are handled one at a time;
// the store has no locking and relies on this serialization.
func (b *BotService) Start() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.botAPI.GetUpdatesChan(u)

	for update := range updates {
		if update.CallbackQuery != nil {
			b.handleDecision(update.CallbackQuery)
			continue
		}

		if update.Message == nil {
			continue
		}

		message := update.Message

		if message.IsCommand() {
			switch message.Command() {
			case "start":
				b.handleStart(message)
			case "help":
				b.handleHelp(message)
			case "userinfo":
				b.handleUserInfo(message)
			case "unblock":
				b.handleUnblock(message, message.CommandArguments())
			}
			continue
		}

		if message.Document != nil {
			b.handleDocument(message)
		}
	}
}

func (b *BotService) handleStart(message *tgbotapi.Message) {
	msg := tgbotapi.NewMessage(message.Chat.ID,
		"👋 ¡Hola! Soy el bot de Hackiit.\n\n"+
			"Si te gustaría ser parte del grupo, envíame tu *writeup en formato PDF* para poder revisarlo. En caso de ser aceptado, te añadiré al grupo.\n\n"+
			"Para acceder a la plataforma de retos de iniciación, regístrate en: https://retos.hackiit.org\n")
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := b.botAPI.Send(msg); err != nil {
		log.Printf("handleStart: %v", err)
	}
}

func (b *BotService) handleHelp(message *tgbotapi.Message) {
	b.send(message.Chat.ID,
		"Comandos disponibles:\n"+
			"/start - iniciar\n"+
			"/userinfo - ver tu información de usuario\n"+
			"/help - ayuda\n"+
			"/unblock <user_id> - desbloquear usuario (solo revisores)")
}

func (b *BotService) handleUserInfo(message *tgbotapi.Message) {
	user := message.From

	b.send(message.Chat.ID, fmt.Sprintf(
		"Tu información:\n\nUsername: @%s\nUser ID: %d",
		displayName(user), user.ID,
	))
}

// handleDocument runs the submission gates in order and forwards the
// writeup to the reviewer picked by the rotation.
func (b *BotService) handleDocument(message *tgbotapi.Message) {
	// Writeups posted in the group are not submissions.
	if !message.Chat.IsPrivate() {
		return
	}

	user := message.From
	file := message.Document

	doc, err := b.store.Load()
	if err != nil {
		log.Printf("handleDocument: %v", err)
		b.send(message.Chat.ID, internalErrorText)
		return
	}

	if doc.IsBlocked(user.ID) {
		b.send(message.Chat.ID, "❌ Estás bloqueado y no puedes enviar writeups.")
		return
	}

	if !strings.HasSuffix(strings.ToLower(file.FileName), ".pdf") {
		b.send(message.Chat.ID, "Solo se aceptan archivos PDF.")
		return
	}

	reviewerID, ok, err := b.store.NextReviewer(doc)
	if err != nil {
		log.Printf("handleDocument: %v", err)
		b.send(message.Chat.ID, internalErrorText)
		return
	}
	if !ok {
		b.send(message.Chat.ID, "No hay revisores configurados. Inténtalo más tarde.")
		return
	}

	rec := store.PendingSubmission{
		Username: usernameOf(user),
		FileID:   file.FileID,
		Reviewer: reviewerID,
	}

	// Best effort: the forward below works off the file_id either way.
	if archived, err := b.fileService.SaveSubmission(file.FileID); err != nil {
		log.Printf("handleDocument: archive of %s failed: %v", file.FileName, err)
	} else {
		rec.DocumentPath = pointer.ToString(archived)
	}

	// The record is committed before the forward attempt; a failed
	// forward leaves it pending under the assigned reviewer.
	doc.SetPending(user.ID, rec)
	if err := b.store.Save(doc); err != nil {
		log.Printf("handleDocument: %v", err)
		b.send(message.Chat.ID, internalErrorText)
		return
	}

	forward := tgbotapi.NewDocument(reviewerID, tgbotapi.FileID(file.FileID))
	forward.Caption = fmt.Sprintf("📄 Nuevo writeup recibido de @%s\n", displayName(user))
	forward.ReplyMarkup = decisionKeyboard(user.ID)

	if _, err := b.botAPI.Send(forward); err != nil {
		log.Printf("handleDocument: forward to reviewer %d failed: %v", reviewerID, err)
		b.send(message.Chat.ID, "Error al enviar el writeup a revisión.")
		return
	}

	b.send(message.Chat.ID,
		"✅ Tu writeup ha sido enviado a revisión.\n\n"+
			"Recibirás una respuesta cuando uno de nuestros revisores le eche un vistazo.")
}

// handleDecision resolves a reviewer's button press. The pending record
// is popped and saved before any side effect runs, so a replayed press
// lands on the stale path and the decision applies at most once.
func (b *BotService) handleDecision(query *tgbotapi.CallbackQuery) {
	if _, err := b.botAPI.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		log.Printf("handleDecision: answer callback failed: %v", err)
	}

	decision, err := ParseDecision(query.Data)
	if err != nil {
		log.Printf("handleDecision: %v", err)
		return
	}

	doc, err := b.store.Load()
	if err != nil {
		log.Printf("handleDecision: %v", err)
		return
	}

	rec, ok := doc.PopPending(decision.ApplicantID)
	if !ok {
		b.editCaption(query, "❌ Este writeup ya ha sido revisado o no existe.")
		return
	}

	if err := b.store.Save(doc); err != nil {
		log.Printf("handleDecision: %v", err)
		return
	}

	if rec.DocumentPath != nil {
		if err := b.fileService.Remove(*rec.DocumentPath); err != nil {
			log.Printf("handleDecision: %v", err)
		}
	}

	name := submitterName(rec, decision.ApplicantID)

	switch decision.Action {
	case ActionAccept:
		b.handleAccept(query, decision.ApplicantID, name)

	case ActionReject:
		b.send(decision.ApplicantID,
			"❌ Tu writeup ha sido rechazado, pero puedes intentarlo de nuevo cuando quieras.")
		b.editCaption(query, fmt.Sprintf("❌ Writeup de %s rechazado.", name))

	case ActionBlock:
		if doc.Block(decision.ApplicantID) {
			if err := b.store.Save(doc); err != nil {
				log.Printf("handleDecision: %v", err)
			}
		}
		b.send(decision.ApplicantID,
			"🚫 Has sido bloqueado y no podrás enviar writeups hasta que un administrador te desbloquee.")
		b.editCaption(query, fmt.Sprintf(
			"🚫 %s ha sido bloqueado.\n\nSi en un futuro quieres desbloquearlo, usa /unblock %d",
			name, decision.ApplicantID,
		))
	}
}

func (b *BotService) handleAccept(query *tgbotapi.CallbackQuery, applicantID int64, name string) {
	invite, err := b.inviteToGroup()
	if err != nil {
		log.Printf("handleAccept: %v", err)
		b.editCaption(query, fmt.Sprintf("⚠️ Error al añadir al usuario: %v", err))
		return
	}

	b.send(applicantID, fmt.Sprintf(
		"🎉 ¡Tu writeup ha sido aceptado! Ya formas parte de Hackiit.\n\n"+
			"Únete al grupo con este enlace: %s", invite,
	))
	b.editCaption(query, fmt.Sprintf("✅ Writeup de %s aceptado y añadido al grupo.", name))
}

// inviteToGroup mints a single-use invite link for the destination
// group. Bots cannot force-add members, so acceptance hands the
// applicant a link instead.
func (b *BotService) inviteToGroup() (string, error) {
	if b.groupID == 0 {
		return "", fmt.Errorf("inviteToGroup: GROUP_ID is not configured")
	}

	resp, err := b.botAPI.Request(tgbotapi.CreateChatInviteLinkConfig{
		ChatConfig:  tgbotapi.ChatConfig{ChatID: b.groupID},
		MemberLimit: 1,
	})
	if err != nil {
		return "", fmt.Errorf("inviteToGroup: %w", err)
	}

	var link tgbotapi.ChatInviteLink
	if err := json.Unmarshal(resp.Result, &link); err != nil {
		return "", fmt.Errorf("inviteToGroup: %w", err)
	}

	return link.InviteLink, nil
}

func (b *BotService) handleUnblock(message *tgbotapi.Message, args string) {
	doc, err := b.store.Load()
	if err != nil {
		log.Printf("handleUnblock: %v", err)
		b.send(message.Chat.ID, internalErrorText)
		return
	}

	if !doc.IsReviewer(message.From.ID) {
		b.send(message.Chat.ID, "❌ No tienes permiso para desbloquear usuarios.")
		return
	}

	fields := strings.Fields(args)
	if len(fields) != 1 {
		b.send(message.Chat.ID, "Uso: /unblock <user_id>")
		return
	}

	targetID, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		b.send(message.Chat.ID, "❌ El user_id debe ser un número.")
		return
	}

	if !doc.Unblock(targetID) {
		b.send(message.Chat.ID, "❌ El usuario no estaba bloqueado.")
		return
	}

	if err := b.store.Save(doc); err != nil {
		log.Printf("handleUnblock: %v", err)
		b.send(message.Chat.ID, internalErrorText)
		return
	}

	b.send(message.Chat.ID, fmt.Sprintf("✅ Usuario %d desbloqueado.", targetID))
}

func (b *BotService) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)

	if _, err := b.botAPI.Send(msg); err != nil {
		log.Printf("send to %d failed: %v", chatID, err)
	}
}

func (b *BotService) editCaption(query *tgbotapi.CallbackQuery, caption string) {
	if query.Message == nil {
		return
	}

	edit := tgbotapi.NewEditMessageCaption(query.Message.Chat.ID, query.Message.MessageID, caption)

	if _, err := b.botAPI.Send(edit); err != nil {
		log.Printf("editCaption: %v", err)
	}
}
