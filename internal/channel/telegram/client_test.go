package telegram

import (
	"testing"
	"time"

	"github.com/gotd/td/tg"
)

func TestAppendBatch(t *testing.T) {
	batch := []tg.MessageClass{
		&tg.Message{ID: 120, Message: "второй пост", Date: 1747045800},
		&tg.MessageService{ID: 110},
		&tg.Message{ID: 100, Message: "первый пост", Date: 1746959400},
	}

	all, offsetID := appendBatch(nil, batch, 0)

	if len(all) != 2 {
		t.Fatalf("appendBatch() kept %d messages, want 2", len(all))
	}
	if all[0].ID != 120 || all[1].ID != 100 {
		t.Errorf("message IDs = [%d, %d], want [120, 100]", all[0].ID, all[1].ID)
	}
	if offsetID != 100 {
		t.Errorf("offsetID = %d, want 100", offsetID)
	}
}

// A batch of only service messages yields no reports but must still move the
// paging offset, or the history walk would request the same page forever.
func TestAppendBatchServiceOnly(t *testing.T) {
	batch := []tg.MessageClass{
		&tg.MessageService{ID: 90},
		&tg.MessageService{ID: 80},
	}

	all, offsetID := appendBatch(nil, batch, 100)

	if len(all) != 0 {
		t.Errorf("appendBatch() kept %d messages, want 0", len(all))
	}
	if offsetID != 80 {
		t.Errorf("offsetID = %d, want 80", offsetID)
	}
}

func TestAsRawMessage(t *testing.T) {
	msg, ok := asRawMessage(&tg.Message{ID: 42, Message: "текст", Date: 1747045800})
	if !ok {
		t.Fatal("asRawMessage() rejected a plain message")
	}
	if msg.ID != 42 || msg.Text != "текст" {
		t.Errorf("asRawMessage() = %+v", msg)
	}
	if want := time.Unix(1747045800, 0); !msg.PublishedAt.Equal(want) {
		t.Errorf("published = %v, want %v", msg.PublishedAt, want)
	}

	if _, ok := asRawMessage(&tg.MessageService{ID: 43}); ok {
		t.Error("asRawMessage() accepted a service message")
	}
	if _, ok := asRawMessage(&tg.MessageEmpty{ID: 44}); ok {
		t.Error("asRawMessage() accepted an empty message")
	}
}
