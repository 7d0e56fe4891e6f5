package imapmail

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-message/textproto"

	"promosweep/internal/model"
	"promosweep/internal/util"
)

const snippetLen = 200

// parseHeaderOnly decodes a header section into message headers. When names
// is non-empty only those headers are kept.
func parseHeaderOnly(id string, raw []byte, names []string) (*model.Message, error) {
	h, err := textproto.ReadHeader(bufio.NewReader(bytes.NewReader(raw)))
	if err != nil {
		return nil, fmt.Errorf("parse header of %s: %w", id, err)
	}
	return &model.Message{
		ID:      id,
		Headers: headerList(message.Header{Header: h}, names),
	}, nil
}

// parseFull decodes a complete RFC 5322 message. Inline text leaves become
// base64url body parts; attachments are skipped.
func parseFull(id string, raw []byte) (*model.Message, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, fmt.Errorf("parse message %s: %w", id, err)
	}
	defer mr.Close()

	m := &model.Message{
		ID:      id,
		Headers: headerList(mr.Header.Header, nil),
	}

	var plain, html string
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil && !message.IsUnknownCharset(err) {
			break
		}
		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		ct, _, _ := h.ContentType()
		ct = strings.ToLower(ct)
		if !strings.HasPrefix(ct, "text/") {
			continue
		}
		body, err := io.ReadAll(part.Body)
		if err != nil {
			continue
		}
		m.Parts = append(m.Parts, model.BodyPart{
			MimeType: ct,
			Data:     base64.URLEncoding.EncodeToString(body),
		})
		switch {
		case ct == "text/plain" && plain == "":
			plain = string(body)
		case ct == "text/html" && html == "":
			html = string(body)
		}
	}

	if plain == "" && html != "" {
		plain = util.HTMLText(html)
	}
	m.Snippet = util.Snippet(plain, snippetLen)
	return m, nil
}

func headerList(h message.Header, names []string) []model.Header {
	var out []model.Header
	fields := h.Fields()
	for fields.Next() {
		if len(names) > 0 && !containsFold(names, fields.Key()) {
			continue
		}
		v, err := fields.Text()
		if err != nil {
			v = fields.Value()
		}
		out = append(out, model.Header{Name: fields.Key(), Value: v})
	}
	return out
}

func containsFold(names []string, key string) bool {
	for _, n := range names {
		if strings.EqualFold(n, key) {
			return true
		}
	}
	return false
}
