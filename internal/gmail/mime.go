package gmail

import (
	"strings"

	gmailv1 "google.golang.org/api/gmail/v1"

	"promosweep/internal/model"
)

// flattenParts walks a MIME part tree depth-first and returns every leaf that
// carries inline body data. A single-part message yields its payload body.
// Attachments fetched by id have no inline data and are skipped.
func flattenParts(part *gmailv1.MessagePart) []model.BodyPart {
	if part == nil {
		return nil
	}
	var out []model.BodyPart
	if part.Body != nil && part.Body.Data != "" {
		out = append(out, model.BodyPart{
			MimeType: strings.ToLower(part.MimeType),
			Data:     part.Body.Data,
		})
	}
	for _, sub := range part.Parts {
		out = append(out, flattenParts(sub)...)
	}
	return out
}
