package core

import (
	"bytes"
	"context"
	"embed"
	"encoding/base64"
	htmltmpl "html/template"
	"io"
	"io/ioutil"
	"net/http"
	"net/mail"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	texttmpl "text/template"

	"github.com/pkg/errors"
)

//go:embed all:templates/email
var templatesFS embed.FS

var (
	templates tmplCache
	tmplErr   error
	tmplInit  sync.Once
)

type (
	tmplCacheEntry map[string]interface{}    // {ext: *Template}
	tmplCache      map[string]tmplCacheEntry // {name: {tmplCacheEntry}}

	Attachment struct {
		Content     []byte
		ContentType string
		Filename    string
	}

	EmailMessage struct {
		To          []mail.Address
		Cc          []mail.Address
		Bcc         []mail.Address
		Subject     string
		BodyStr     string // simple text/plain, non-templated content
		Attachments []Attachment

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	ContextData struct {
		AppName string
		Data    interface{}
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// Send renders and sends the messages, returning the first failure.
		Send(ctx context.Context, messages ...*EmailMessage) error
	}
)

// EncodedContent returns the base64 encoded content.
func (at Attachment) EncodedContent() string {
	return base64.StdEncoding.EncodeToString(at.Content)
}

func (m *EmailMessage) getTemplate(ext string) (interface{}, bool) {
	cache, ok := templates[m.TemplateName]
	if !ok {
		return nil, ok
	}
	tmplEntry, ok := cache[ext]
	return tmplEntry, ok
}

func (m *EmailMessage) renderText(data ContextData) error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
		return nil
	} else if m.TemplateName == "" {
		return nil
	}

	tmplEntry, ok := m.getTemplate(".txt")
	if !ok {
		return nil
	}
	tmpl, ok := tmplEntry.(*texttmpl.Template)
	if !ok {
		return nil
	}

	var buff bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buff, "base", data); err != nil {
		return err
	}
	m.TextContent = buff.String()
	return nil
}

func (m *EmailMessage) renderHTML(data ContextData) error {
	if m.TemplateName == "" {
		return nil
	}

	tmplEntry, ok := m.getTemplate(".gohtml")
	if !ok {
		return nil
	}
	tmpl, ok := tmplEntry.(*htmltmpl.Template)
	if !ok {
		return nil
	}

	var buff bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buff, "base", data); err != nil {
		return err
	}
	m.HTMLContent = buff.String()
	return nil
}

// Render fills TextContent and HTMLContent from BodyStr or the named template.
func (m *EmailMessage) Render(appName string) error {
	if m.TemplateName != "" {
		tmplInit.Do(parseTemplates) // only parse once
		if tmplErr != nil {
			return tmplErr
		}
		if _, ok := templates[m.TemplateName]; !ok {
			return errors.Errorf("unknown email template %q", m.TemplateName)
		}
	}
	data := ContextData{AppName: appName, Data: m.TemplateData}
	if err := m.renderText(data); err != nil {
		return errors.Wrap(err, "rendering text")
	}
	return errors.Wrap(m.renderHTML(data), "rendering html")
}

// Attach reads r into a new attachment. The content type is sniffed when ct is not given.
func (m *EmailMessage) Attach(r io.Reader, filename string, ct ...string) error {
	content, err := ioutil.ReadAll(r)
	if err != nil {
		return errors.Wrap(err, "reading attachment")
	}
	at := Attachment{Content: content, Filename: filename}
	if len(ct) > 0 {
		at.ContentType = ct[0]
	} else {
		at.ContentType = http.DetectContentType(content)
	}
	m.Attachments = append(m.Attachments, at)
	return nil
}

func (m *EmailMessage) AttachFile(path string, contentType ...string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return m.Attach(f, filepath.Base(path), contentType...)
}

func (m *EmailMessage) HasRecipients() bool  { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool     { return (m.TextContent != "") || (m.HTMLContent != "") }
func (m *EmailMessage) HasAttachments() bool { return len(m.Attachments) > 0 }

// ParseAddresses parses a comma separated list of addresses.
func ParseAddresses(list string) ([]mail.Address, error) {
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}
	addrs, err := mail.ParseAddressList(list)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing addresses %q", list)
	}
	out := make([]mail.Address, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, *a)
	}
	return out, nil
}

func parseTemplates() {
	templates = make(tmplCache)

	root := "templates/email"
	fps, err := templatesFS.ReadDir(root)
	if err != nil {
		tmplErr = errors.Wrap(err, "reading email templates")
		return
	}

	for _, fp := range fps {
		fname := fp.Name()
		ext := path.Ext(fname)
		if strings.HasPrefix(fname, "_") || !(ext == ".txt" || ext == ".gohtml") {
			continue
		}
		name := strings.TrimSuffix(fname, ext)
		entry, ok := templates[name]
		if !ok {
			templates[name] = make(tmplCacheEntry)
			entry = templates[name]
		}
		if ext == ".txt" {
			tmpl, err := texttmpl.ParseFS(templatesFS, path.Join(root, "_base.txt"), path.Join(root, fname))
			if err != nil {
				tmplErr = errors.Wrapf(err, "parsing %s", fname)
				return
			}
			entry[ext] = tmpl.Option("missingkey=error")
		} else {
			tmpl, err := htmltmpl.ParseFS(templatesFS, path.Join(root, "_base.gohtml"), path.Join(root, fname))
			if err != nil {
				tmplErr = errors.Wrapf(err, "parsing %s", fname)
				return
			}
			entry[ext] = tmpl.Option("missingkey=error")
		}
	}
}
