package preview

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func messageDiv(channel string, id int, datetime, body string) string {
	return fmt.Sprintf(`
<div class="tgme_widget_message_wrap">
 <div class="tgme_widget_message" data-post="%s/%d">
  <div class="tgme_widget_message_text js-message_text">%s</div>
  <a class="tgme_widget_message_date" href="https://t.me/%s/%d"><time datetime="%s"></time></a>
 </div>
</div>`, channel, id, body, channel, id, datetime)
}

func page(divs ...string) string {
	out := `<html><body><section class="tgme_channel_history">`
	for _, d := range divs {
		out += d
	}
	return out + `</section></body></html>`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("before") {
		case "":
			fmt.Fprint(w, page(
				messageDiv("testchan", 3, "2026-05-12T10:30:00+00:00",
					`⚡️ Senior Developer в Acme<br/>Зарплата: 250 000 ₽`),
				messageDiv("testchan", 4, "2026-05-13T09:00:00+00:00",
					`<b>Опыт:</b> 5 лет в сфере`),
			))
		case "3":
			fmt.Fprint(w, page(
				messageDiv("testchan", 1, "2026-05-10T08:00:00+00:00", `первое сообщение`),
				messageDiv("testchan", 2, "2026-05-11T08:00:00+00:00", `второе &amp; третье`),
			))
		default:
			fmt.Fprint(w, page())
		}
	}))
}

func TestMessages(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	s := NewScraper(Config{BaseURL: srv.URL})
	msgs, err := s.Messages(context.Background(), "@testchan")
	if err != nil {
		t.Fatalf("Messages() error: %v", err)
	}

	if len(msgs) != 4 {
		t.Fatalf("Messages() = %d messages, want 4", len(msgs))
	}
	for i, msg := range msgs {
		if msg.ID != int64(i+1) {
			t.Fatalf("message %d has ID %d, want ascending IDs starting at 1", i, msg.ID)
		}
	}

	// Markup is stripped, <br> keeps the line break, entities are decoded.
	if got := msgs[2].Text; got != "⚡️ Senior Developer в Acme\nЗарплата: 250 000 ₽" {
		t.Errorf("message 3 text = %q", got)
	}
	if got := msgs[3].Text; got != "Опыт: 5 лет в сфере" {
		t.Errorf("message 4 text = %q", got)
	}
	if got := msgs[1].Text; got != "второе & третье" {
		t.Errorf("message 2 text = %q", got)
	}

	want := time.Date(2026, 5, 12, 10, 30, 0, 0, time.UTC)
	if !msgs[2].PublishedAt.Equal(want) {
		t.Errorf("message 3 published = %v, want %v", msgs[2].PublishedAt, want)
	}
}

func TestMessagesMaxPages(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	s := NewScraper(Config{BaseURL: srv.URL, MaxPages: 1})
	msgs, err := s.Messages(context.Background(), "testchan")
	if err != nil {
		t.Fatalf("Messages() error: %v", err)
	}
	if len(msgs) != 2 {
		t.Errorf("Messages() = %d messages, want only the first page", len(msgs))
	}
}

func TestMessagesSkipsMalformedPosts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page(
			`<div class="tgme_widget_message"><div class="tgme_widget_message_text">без атрибута</div></div>`,
			messageDiv("testchan", 7, "2026-05-12T10:30:00+00:00", `нормальное сообщение`),
		))
	}))
	defer srv.Close()

	s := NewScraper(Config{BaseURL: srv.URL, MaxPages: 1})
	msgs, err := s.Messages(context.Background(), "testchan")
	if err != nil {
		t.Fatalf("Messages() error: %v", err)
	}
	if len(msgs) != 1 || msgs[0].ID != 7 {
		t.Errorf("Messages() = %+v, want the single well-formed post", msgs)
	}
}

func TestMessagesUnreachableHost(t *testing.T) {
	s := NewScraper(Config{BaseURL: "http://127.0.0.1:1", MaxPages: 1})
	if _, err := s.Messages(context.Background(), "testchan"); err == nil {
		t.Error("Messages() succeeded against an unreachable host")
	}
}
