package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/example/arenapix/internal/models"
)

// TelegramService sends admin notifications through the Telegram Bot API.
type TelegramService struct {
	botToken    string
	adminChatID string
	httpClient  *http.Client
}

// NewTelegramService creates a new TelegramService. Empty credentials
// disable sending without error.
func NewTelegramService(botToken, adminChatID string) *TelegramService {
	return &TelegramService{
		botToken:    botToken,
		adminChatID: adminChatID,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendToAdmin sends a message to the admin chat.
func (s *TelegramService) SendToAdmin(text string) error {
	if s.botToken == "" || s.adminChatID == "" {
		log.Println("[Telegram] not configured, skipping notification")
		return nil
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", s.botToken)

	body, err := json.Marshal(telegramMessage{
		ChatID:    s.adminChatID,
		Text:      text,
		ParseMode: "HTML",
	})
	if err != nil {
		return err
	}

	resp, err := s.httpClient.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("[Telegram] failed to send message: %v", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[Telegram] unexpected status: %d", resp.StatusCode)
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}

	return nil
}

// NotifyPaymentConfirmed tells the admin chat a registration was paid.
func (s *TelegramService) NotifyPaymentConfirmed(p models.Participation) error {
	token := ""
	if p.UniqueToken != nil {
		token = *p.UniqueToken
	}

	text := fmt.Sprintf(
		"✅ <b>Pagamento confirmado</b>\nInscrição: <code>%s</code>\nTorneio: <code>%s</code>\nValor: R$ %.2f\nTicket: <b>%s</b>",
		p.ID, p.TournamentID, p.AmountDue, token,
	)
	return s.SendToAdmin(text)
}
