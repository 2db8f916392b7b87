package model

import (
	"fmt"
	"strings"
	"time"
)

// maxContextAttachments bounds how many images are described to the server
// per turn. Older images beyond the cap are dropped to bound token cost.
const maxContextAttachments = 6

// payloadPreviewLen is how much of a data URI the context block carries.
const payloadPreviewLen = 200

// CollectAttachments deduplicates existing and pending attachments by id,
// preserving first-seen order, then keeps only the most recent
// maxContextAttachments of that order.
func CollectAttachments(existing, pending []Attachment) []Attachment {
	seen := make(map[string]bool)
	var all []Attachment
	for _, a := range existing {
		if seen[a.ID] {
			continue
		}
		seen[a.ID] = true
		all = append(all, a)
	}
	for _, a := range pending {
		if seen[a.ID] {
			continue
		}
		seen[a.ID] = true
		all = append(all, a)
	}

	if len(all) > maxContextAttachments {
		all = all[len(all)-maxContextAttachments:]
	}
	return all
}

// BuildAttachmentContext renders the kept attachments as a bounded text
// block, one four-line stanza per image, stanzas separated by a blank line.
// An empty source set yields an empty string so the caller can omit the
// section entirely.
func BuildAttachmentContext(existing, pending []Attachment) string {
	kept := CollectAttachments(existing, pending)
	if len(kept) == 0 {
		return ""
	}

	blocks := make([]string, 0, len(kept))
	for _, a := range kept {
		payload := a.Payload
		if len(payload) > payloadPreviewLen {
			payload = payload[:payloadPreviewLen] + "..."
		}
		blocks = append(blocks, fmt.Sprintf(
			"Image: %s\nUploaded: %s\nSize: %.1f KB\nData: %s",
			a.Name,
			a.UploadedAt.Format(time.RFC3339),
			float64(a.SizeBytes)/1024.0,
			payload,
		))
	}
	return strings.Join(blocks, "\n\n")
}
