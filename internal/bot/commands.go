package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/jcarloshn/difubot/internal/wa"
	"github.com/nyaruka/phonenumbers"
)

const helpText = `Comandos disponibles:
  hola    - saludo
  !info   - detalles de tu mensaje
  !ayuda  - esta lista`

// dispatch matches the trimmed, lowercased text against the fixed command
// table. Unmatched text is a deliberate no-op, not an error.
func (b *Bot) dispatch(msg wa.Incoming) {
	ctx := context.Background()

	switch strings.ToLower(strings.TrimSpace(msg.Text)) {
	case "hola":
		name := msg.PushName
		if name == "" {
			name = DerivePhone(msg.Sender)
		}
		b.reply(ctx, msg.Sender, fmt.Sprintf("¡Hola, %s! 👋 Escribe !ayuda para ver los comandos.", name))

	case "!info":
		b.reply(ctx, msg.Sender, formatInfo(msg))

	case "!ayuda", "!help":
		b.reply(ctx, msg.Sender, helpText)
	}
}

// formatInfo renders a structured dump of the incoming message.
func formatInfo(msg wa.Incoming) string {
	var sb strings.Builder
	sb.WriteString("📋 Información del mensaje\n")
	fmt.Fprintf(&sb, "De: %s\n", msg.Sender)
	fmt.Fprintf(&sb, "Teléfono: %s\n", displayPhone(msg.Sender))
	if msg.PushName != "" {
		fmt.Fprintf(&sb, "Nombre: %s\n", msg.PushName)
	}
	fmt.Fprintf(&sb, "Recibido: %s\n", msg.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "Texto: %s", msg.Text)
	return sb.String()
}

// displayPhone renders the derived phone number internationally when it
// parses as a valid number, falling back to the raw prefix.
func displayPhone(identity string) string {
	raw := DerivePhone(identity)
	num, err := phonenumbers.Parse("+"+raw, "")
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return raw
	}
	return phonenumbers.Format(num, phonenumbers.INTERNATIONAL)
}
