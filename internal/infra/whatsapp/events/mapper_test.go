package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"google.golang.org/protobuf/proto"
)

func TestExtractMessageBody(t *testing.T) {
	assert.Equal(t, "", ExtractMessageBody(nil))

	assert.Equal(t, "hola", ExtractMessageBody(&waE2E.Message{
		Conversation: proto.String("hola"),
	}))

	assert.Equal(t, "texto extendido", ExtractMessageBody(&waE2E.Message{
		ExtendedTextMessage: &waE2E.ExtendedTextMessage{
			Text: proto.String("texto extendido"),
		},
	}))

	assert.Equal(t, "legenda da foto", ExtractMessageBody(&waE2E.Message{
		ImageMessage: &waE2E.ImageMessage{
			Caption: proto.String("legenda da foto"),
		},
	}))

	// Mídia sem legenda não tem texto analisável.
	assert.Equal(t, "", ExtractMessageBody(&waE2E.Message{
		AudioMessage: &waE2E.AudioMessage{},
	}))
}

func TestMessageKind(t *testing.T) {
	assert.Equal(t, "empty", MessageKind(nil))
	assert.Equal(t, "text", MessageKind(&waE2E.Message{Conversation: proto.String("oi")}))
	assert.Equal(t, "image", MessageKind(&waE2E.Message{ImageMessage: &waE2E.ImageMessage{}}))
	assert.Equal(t, "audio", MessageKind(&waE2E.Message{AudioMessage: &waE2E.AudioMessage{}}))
	assert.Equal(t, "unknown", MessageKind(&waE2E.Message{}))
}
