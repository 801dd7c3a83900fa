package emailsvc

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/niva/core"
	"github.com/trezcool/niva/tests"
)

type reportData struct {
	Title     string
	Count     int
	Generated string
}

func newConf() *core.Config {
	return &core.Config{
		AppName:          "Niva",
		SendgridAPIKey:   "SG.test",
		DefaultFromEmail: mail.Address{Name: "Niva AI", Address: "noreply@niva.ai"},
	}
}

func newMessage(t *testing.T) *core.EmailMessage {
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: "Admin", Address: "admin@niva.ai"}},
		Subject:      "Feedback report",
		TemplateName: "feedback_report",
		TemplateData: reportData{Title: "All students", Count: 3},
	}
	if err := msg.Attach(strings.NewReader("id,rating\n1,8\n"), "report.csv", "text/csv"); err != nil {
		t.Fatalf("Attach() failed: %v", err)
	}
	return msg
}

func TestConsoleService_Send(t *testing.T) {
	out := new(bytes.Buffer)
	svc := NewConsoleService(newConf(), out)

	msg := newMessage(t)
	empty := &core.EmailMessage{To: msg.To, Subject: "nothing"}
	noRecipient := &core.EmailMessage{Subject: "nobody", BodyStr: "hi"}
	if err := svc.Send(context.Background(), msg, empty, noRecipient); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	sent := svc.SentMessages()
	if assert.Len(t, sent, 1) {
		assert.Contains(t, sent[0].TextContent, "All students")
		assert.Contains(t, sent[0].TextContent, "3 feedback record(s)")
		assert.Contains(t, sent[0].HTMLContent, "<strong>All students</strong>")
	}

	printed := out.String()
	assert.Contains(t, printed, "Subject: [Niva] Feedback report")
	assert.Contains(t, printed, `"Niva AI" <noreply@niva.ai>`)
	assert.Contains(t, printed, `filename="report.csv"`)
	assert.Contains(t, printed, base64.StdEncoding.EncodeToString([]byte("id,rating\n1,8\n")))
}

func TestConsoleService_Send_unknownTemplate(t *testing.T) {
	svc := NewConsoleService(newConf(), nil)
	err := svc.Send(context.Background(), &core.EmailMessage{To: []mail.Address{{Address: "a@b.c"}}, TemplateName: "nope"})
	assert.Error(t, err)
	assert.Empty(t, svc.SentMessages())
}

func TestSendgridService_Send(t *testing.T) {
	var (
		gotAuth string
		gotBody map[string]interface{}
		status  = http.StatusAccepted
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		b, _ := ioutil.ReadAll(r.Body)
		_ = json.Unmarshal(b, &gotBody)
		w.WriteHeader(status)
	}))
	defer ts.Close()

	origHost := host
	host = ts.URL
	defer func() { host = origHost }()

	svc := NewSendgridService(newConf(), testutil.NewLogger())

	t.Run("ok", func(t *testing.T) {
		if err := svc.Send(context.Background(), newMessage(t)); err != nil {
			t.Fatalf("Send() error = %v", err)
		}
		assert.Equal(t, "Bearer SG.test", gotAuth)

		personalizations := gotBody["personalizations"].([]interface{})
		p := personalizations[0].(map[string]interface{})
		assert.Equal(t, "[Niva] Feedback report", p["subject"])

		attachments := gotBody["attachments"].([]interface{})
		at := attachments[0].(map[string]interface{})
		assert.Equal(t, "report.csv", at["filename"])
		assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("id,rating\n1,8\n")), at["content"])

		contents := gotBody["content"].([]interface{})
		assert.Len(t, contents, 2)
	})

	t.Run("rejected", func(t *testing.T) {
		status = http.StatusUnauthorized
		err := svc.Send(context.Background(), newMessage(t))
		assert.Error(t, err)
	})
}
