package notify

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"propcalc/server/internal/models"
)

// Service posts ingestion run summaries to a Telegram chat. It stays inert
// unless both a bot token and a chat id are configured, and a send failure
// never fails the run it reports on.
type Service struct {
	logger   *logrus.Logger
	client   *http.Client
	botToken string
	chatID   string
}

func NewService(logger *logrus.Logger, botToken, chatID string) *Service {
	if logger == nil {
		logger = logrus.New()
	}
	return &Service{
		logger: logger,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		botToken: botToken,
		chatID:   chatID,
	}
}

func (s *Service) Enabled() bool {
	return s.botToken != "" && s.chatID != ""
}

// NotifyRun sends a summary of one source's finished ingestion run.
func (s *Service) NotifyRun(result models.ProcessingResult, report *models.QualityReport) {
	if !s.Enabled() {
		return
	}

	status := "✅ completed"
	if !result.Success {
		status = fmt.Sprintf("❌ failed at %s", result.Stage)
	}

	message := fmt.Sprintf(
		"<b>Ingestion %s</b>\nSource: %s\nProcessed: %d\nInserted: %d\nFailed: %d\nElapsed: %s",
		status, result.Source, result.RowsProcessed, result.RowsInserted,
		result.RowsFailed, result.Elapsed.Round(time.Millisecond),
	)
	if result.Error != "" {
		message += fmt.Sprintf("\nError: %s", result.Error)
	}
	if report != nil {
		message += fmt.Sprintf("\nQuality: %.2f (%s)", report.Score, report.Level)
	}

	if err := s.sendMessage(message); err != nil {
		s.logger.WithError(err).WithField("source", result.Source).Error("Failed to send run notification")
	}
}

// sendMessage sends a message to the configured Telegram chat
func (s *Service) sendMessage(message string) error {
	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", s.botToken)
	payload := map[string]interface{}{
		"chat_id":    s.chatID,
		"text":       message,
		"parse_mode": "HTML",
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message payload: %v", err)
	}

	resp, err := s.client.Post(url, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to send message to Telegram API: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return errors.New("invalid bot token")
		case http.StatusBadRequest:
			return fmt.Errorf("invalid chat ID or message format: %s", string(body))
		case http.StatusForbidden:
			return errors.New("bot was blocked by the user or chat")
		default:
			return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
		}
	}

	return nil
}
