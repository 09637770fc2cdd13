package files

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
)

// Service keeps a local copy of each submitted writeup for as long as
// its submission stays pending, so the PDF survives Telegram file_id
// expiry while a reviewer sits on it.
type Service struct {
	botAPI *tgbotapi.BotAPI
	docDir string
	client *http.Client
}

func NewService(botAPI *tgbotapi.BotAPI, docDir string) (*Service, error) {
	if err := os.MkdirAll(docDir, 0755); err != nil {
		return nil, fmt.Errorf("files.NewService: cannot create dir %s: %w", docDir, err)
	}

	return &Service{
		botAPI: botAPI,
		docDir: docDir,
		client: http.DefaultClient,
	}, nil
}

// SaveSubmission downloads the submitted document and returns the path
// of the stored copy.
func (s *Service) SaveSubmission(fileID string) (string, error) {
	file, err := s.botAPI.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return "", fmt.Errorf("Service.SaveSubmission: cannot get file: %w", err)
	}

	fileExt := filepath.Ext(file.FilePath)
	if fileExt == "" {
		fileExt = ".pdf"
	}

	filePath := filepath.Join(s.docDir, fmt.Sprintf("%s%s", uuid.New().String(), fileExt))

	resp, err := s.client.Get(file.Link(s.botAPI.Token))
	if err != nil {
		return "", fmt.Errorf("Service.SaveSubmission: cannot download file: %w", err)
	}

	defer resp.Body.Close()

	out, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("Service.SaveSubmission: cannot create file: %w", err)
	}

	defer out.Close()

	_, err = io.Copy(out, resp.Body)
	if err != nil {
		return "", fmt.Errorf("Service.SaveSubmission: cannot save file: %w", err)
	}

	return filePath, nil
}

func (s *Service) Remove(path string) error {
	if path == "" {
		return nil
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("Service.Remove: %w", err)
	}

	return nil
}
