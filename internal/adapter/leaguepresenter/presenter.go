package leaguepresenter

import (
	"context"
	"encoding/base64"
	"strings"
)

// Presenter delivers formatted messages and status images without coupling to
// the command layer.
type Presenter struct {
	sendMessage func(ctx context.Context, room, message string) error
	sendImage   func(ctx context.Context, room, imageBase64 string) error
}

func NewPresenter(
	sendMessage func(ctx context.Context, room, message string) error,
	sendImage func(ctx context.Context, room, imageBase64 string) error,
) *Presenter {
	return &Presenter{
		sendMessage: sendMessage,
		sendImage:   sendImage,
	}
}

// Text sends message when it is not blank.
func (p *Presenter) Text(ctx context.Context, room, message string) error {
	if p == nil || p.sendMessage == nil || strings.TrimSpace(message) == "" {
		return nil
	}
	return p.sendMessage(ctx, room, message)
}

// Board sends the text first and then the status card, if any.
func (p *Presenter) Board(ctx context.Context, room, message string, image []byte) error {
	if p == nil {
		return nil
	}
	if err := p.Text(ctx, room, message); err != nil {
		return err
	}
	if len(image) > 0 && p.sendImage != nil {
		encoded := base64.StdEncoding.EncodeToString(image)
		if err := p.sendImage(ctx, room, encoded); err != nil {
			return err
		}
	}
	return nil
}
