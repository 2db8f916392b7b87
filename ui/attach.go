package ui

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"canvaschat/config"
	"canvaschat/model"
)

const maxAttachmentBytes = 8 * 1024 * 1024

// stageAttachment reads an image file and stages it as a pending attachment
// for the next prompt. The payload is stored as a data URI so it can go over
// the wire and into the persisted transcript unchanged.
func (a *AppView) stageAttachment(path string) error {
	expanded := config.ExpandPath(path)

	info, err := os.Stat(expanded)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}
	if info.Size() > maxAttachmentBytes {
		return fmt.Errorf("%s is too large (%.1f MB, limit 8 MB)", path, float64(info.Size())/(1024*1024))
	}

	mimeType, ok := imageMimeType(expanded)
	if !ok {
		return fmt.Errorf("%s is not a supported image type", path)
	}

	data, err := os.ReadFile(expanded)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}

	a.pending = append(a.pending, model.Attachment{
		ID:         uuid.NewString(),
		Name:       filepath.Base(expanded),
		Kind:       model.AttachmentKindImage,
		Payload:    fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data)),
		SizeBytes:  info.Size(),
		UploadedAt: time.Now(),
	})
	return nil
}

func imageMimeType(path string) (string, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png", true
	case ".jpg", ".jpeg":
		return "image/jpeg", true
	case ".gif":
		return "image/gif", true
	case ".webp":
		return "image/webp", true
	}
	return "", false
}
