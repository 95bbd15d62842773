package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/Wisionflow/algora/internal/models"
)

func analyzed(image, insight string) models.AnalyzedProduct {
	return models.AnalyzedProduct{
		Raw: models.RawProduct{
			SourceURL: "https://detail.1688.com/offer/1.html?a=1&b=2", TitleRU: "Наушники <TWS>",
			Category: "electronics", PriceCNY: 28.5, MinOrder: 2, ImageURL: image,
		},
		PriceRUB: 356.25, DeliveryCost: 71.25, CustomsDuty: 53.44, TotalLandedCost: 480.94,
		WBAvgPrice: 2500, WBCompetitors: 12, MarginPct: 80.8, MarginRUB: 2019.06,
		TrendScore: 10, CompetitionScore: 6, TotalScore: 9, AIInsight: insight,
	}
}

func TestComposeCompactWithImage(t *testing.T) {
	msg := Composer{HTML: true}.Compose(analyzed("https://img/1.jpg", "Для спортсменов."))
	if msg.ImageURL != "https://img/1.jpg" {
		t.Errorf("image = %q", msg.ImageURL)
	}
	for _, want := range []string{
		"<b>Наушники &lt;TWS&gt;</b>", "Электроника", "Закупка: ¥28 (~356₽)",
		"WB: 12 продавцов · ~2500₽", "Маржа: 81% ✅ · █████████░ 9.0/10", "Для спортсменов.",
		`href="https://detail.1688.com/offer/1.html?a=1&amp;b=2"`,
	} {
		if !strings.Contains(msg.Text, want) {
			t.Errorf("compact post missing %q:\n%s", want, msg.Text)
		}
	}
	if utf8.RuneCountInString(msg.Text) > CaptionLimit {
		t.Error("compact post exceeds caption limit")
	}
}

func TestComposeFullWithoutImage(t *testing.T) {
	msg := Composer{}.Compose(analyzed("", ""))
	for _, want := range []string{"Экономика:", "Доставка + таможня: ~125₽", "Чистая маржа: ~81% (2019₽/шт) ✅", "Мин. вход: 2 шт × 481₽ = 962₽"} {
		if !strings.Contains(msg.Text, want) {
			t.Errorf("full post missing %q:\n%s", want, msg.Text)
		}
	}
	if strings.Contains(msg.Text, "<b>") {
		t.Error("plain composer emitted markup")
	}
}

func TestPlainText(t *testing.T) {
	if got := PlainText(`<b>A &amp; B</b> <a href="x">link</a>`); got != "A & B link" {
		t.Errorf("PlainText = %q", got)
	}
}

func TestTelegramPhotoThenFallback(t *testing.T) {
	var methods []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.URL.Path)
		var payload map[string]any
		json.NewDecoder(r.Body).Decode(&payload)
		if payload["chat_id"] != "@algora" {
			t.Errorf("chat_id = %v", payload["chat_id"])
		}
		if strings.HasSuffix(r.URL.Path, "/sendPhoto") {
			w.Write([]byte(`{"ok":false,"description":"Bad Request: wrong file identifier"}`))
			return
		}
		w.Write([]byte(`{"ok":true,"result":{"message_id":77}}`))
	}))
	defer srv.Close()

	tg := NewTelegram("T0K", "@algora", srv.Client(), nil).WithBaseURL(srv.URL)
	id, err := tg.Publish(context.Background(), Message{Text: "hi", ImageURL: "https://img/1.jpg"})
	if err != nil {
		t.Fatal(err)
	}
	if id != "77" {
		t.Errorf("message id = %q", id)
	}
	if len(methods) != 2 || methods[0] != "/botT0K/sendPhoto" || methods[1] != "/botT0K/sendMessage" {
		t.Errorf("calls = %v", methods)
	}
}

func TestTelegramNotConfigured(t *testing.T) {
	_, err := NewTelegram("", "", nil, nil).Publish(context.Background(), Message{Text: "x"})
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v", err)
	}
}

func TestTelegramErrorsHideToken(t *testing.T) {
	const token = "123456:SECRET-TOKEN"
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	tg := NewTelegram(token, "@algora", nil, logger).WithBaseURL(base)

	_, err := tg.Publish(context.Background(), Message{Text: "hi", ImageURL: "https://img/1.jpg"})
	if err == nil {
		t.Fatal("expected an error from a closed server")
	}
	if strings.Contains(err.Error(), "SECRET-TOKEN") {
		t.Errorf("error leaks token: %v", err)
	}
	if !strings.Contains(logs.String(), "sendPhoto failed") {
		t.Fatalf("photo fallback not logged: %s", logs.String())
	}
	if strings.Contains(logs.String(), "SECRET-TOKEN") {
		t.Errorf("log leaks token: %s", logs.String())
	}
}

func TestVKWallPost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		form, _ := url.ParseQuery(string(body))
		if r.URL.Path != "/wall.post" || form.Get("owner_id") != "-123" || form.Get("message") != "A & B" || form.Get("attachments") != "https://x" {
			t.Errorf("unexpected request %s %v", r.URL.Path, form)
		}
		w.Write([]byte(`{"response":{"post_id":555}}`))
	}))
	defer srv.Close()

	vk := NewVK("tok", "-123", srv.Client()).WithBaseURL(srv.URL)
	id, err := vk.Publish(context.Background(), Message{Text: "<b>A &amp; B</b>", LinkURL: "https://x"})
	if err != nil || id != "555" {
		t.Errorf("Publish = %q, %v", id, err)
	}
}

func TestVKError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"error_code":5,"error_msg":"User authorization failed"}}`))
	}))
	defer srv.Close()
	if _, err := NewVK("tok", "1", srv.Client()).WithBaseURL(srv.URL).Publish(context.Background(), Message{Text: "x"}); err == nil {
		t.Error("expected error")
	}
}
