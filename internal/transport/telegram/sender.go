package telegram

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/sandevgo/vitalbot/pkg/conv"
	"github.com/sandevgo/vitalbot/pkg/log"
	tele "gopkg.in/telebot.v3"
)

const maxTelegramMsgLen = 4000 // Safety margin below 4096

type sender struct {
	bot *tele.Bot
}

func newSender(bot *tele.Bot) *sender {
	return &sender{bot: bot}
}

// sendMarkdown converts Markdown to Telegram HTML and sends it in chunks if needed.
func (s *sender) sendMarkdown(ctx context.Context, to tele.Recipient, md string, silent bool) error {
	logger := log.FromCtx(ctx)
	html := strings.TrimSpace(conv.MarkdownToTelegramHTML([]byte(md)))
	if html == "" {
		return nil
	}

	for i, chunk := range splitHTML(html, maxTelegramMsgLen) {
		opts := []interface{}{tele.ModeHTML}
		if silent {
			opts = append(opts, tele.Silent)
		}

		if _, err := s.bot.Send(to, chunk, opts...); err != nil {
			logger.Error().Err(err).Int("chunk", i).Int("len", len(chunk)).Msg("failed to send telegram chunk")
			return err
		}
	}
	return nil
}

// splitHTML splits text into chunks of at most maxLen bytes.
func splitHTML(text string, maxLen int) []string {
	text = strings.TrimSpace(text)
	if len(text) <= maxLen {
		return []string{text}
	}

	var chunks []string
	for len(text) > maxLen {
		cut := breakPoint(text, maxLen)
		if chunk := strings.TrimSpace(text[:cut]); chunk != "" {
			chunks = append(chunks, chunk)
		}
		text = strings.TrimSpace(text[cut:])
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

// breakPoint prefers a newline, then a space, from the last two thirds of the
// window. A hard cut never lands inside a rune or a tag.
func breakPoint(text string, maxLen int) int {
	window := text[:maxLen]
	if i := strings.LastIndex(window, "\n"); i > maxLen/3 {
		return i
	}
	if i := strings.LastIndex(window, " "); i > maxLen/3 {
		return i
	}

	cut := maxLen
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	if lt := strings.LastIndex(text[:cut], "<"); lt > 0 && lt > strings.LastIndex(text[:cut], ">") {
		cut = lt
	}
	if cut == 0 {
		return maxLen
	}
	return cut
}
