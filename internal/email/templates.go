package email

import (
	"bytes"
	"html/template"
	"os"
	"path/filepath"
	texttpl "text/template"
)

// Vars son las variables disponibles en los templates de los tres flujos.
type Vars struct {
	Name string
	Link string // link de verificación o reset
	Code string // código MFA por email
	TTL  string
}

// Templates agrupa los templates html/txt de cada flujo.
type Templates struct {
	VerifyHTML *template.Template
	VerifyTXT  *texttpl.Template
	ResetHTML  *template.Template
	ResetTXT   *texttpl.Template
	MFAHTML    *template.Template
	MFATXT     *texttpl.Template
}

const (
	defaultVerifyHTML = `<p>Hola {{.Name}},</p><p>Confirmá tu email haciendo clic en <a href="{{.Link}}">este enlace</a>. El enlace no expira hasta ser usado.</p>`
	defaultVerifyTXT  = `Hola {{.Name}}, confirmá tu email abriendo: {{.Link}}`
	defaultResetHTML  = `<p>Hola {{.Name}},</p><p>Para restablecer tu contraseña hacé clic en <a href="{{.Link}}">este enlace</a>. Vence en {{.TTL}}.</p>`
	defaultResetTXT   = `Hola {{.Name}}, restablecé tu contraseña en: {{.Link}} (vence en {{.TTL}})`
	defaultMFAHTML    = `<p>Hola {{.Name}},</p><p>Tu código de acceso es <strong>{{.Code}}</strong>. Vence en {{.TTL}}.</p>`
	defaultMFATXT     = `Hola {{.Name}}, tu código de acceso es {{.Code}} (vence en {{.TTL}})`
)

// DefaultTemplates parsea los templates embebidos.
func DefaultTemplates() *Templates {
	return &Templates{
		VerifyHTML: template.Must(template.New("verify_html").Parse(defaultVerifyHTML)),
		VerifyTXT:  texttpl.Must(texttpl.New("verify_txt").Parse(defaultVerifyTXT)),
		ResetHTML:  template.Must(template.New("reset_html").Parse(defaultResetHTML)),
		ResetTXT:   texttpl.Must(texttpl.New("reset_txt").Parse(defaultResetTXT)),
		MFAHTML:    template.Must(template.New("mfa_html").Parse(defaultMFAHTML)),
		MFATXT:     texttpl.Must(texttpl.New("mfa_txt").Parse(defaultMFATXT)),
	}
}

// LoadTemplates carga templates desde dir (verify_email.html, verify_email.txt,
// reset_password.html, reset_password.txt, mfa_code.html, mfa_code.txt).
// Archivos ausentes caen al template embebido.
func LoadTemplates(dir string) (*Templates, error) {
	t := DefaultTemplates()
	read := func(name string) (string, bool) {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return "", false
		}
		return string(b), true
	}
	if s, ok := read("verify_email.html"); ok {
		tpl, err := template.New("verify_html").Parse(s)
		if err != nil {
			return nil, err
		}
		t.VerifyHTML = tpl
	}
	if s, ok := read("verify_email.txt"); ok {
		tpl, err := texttpl.New("verify_txt").Parse(s)
		if err != nil {
			return nil, err
		}
		t.VerifyTXT = tpl
	}
	if s, ok := read("reset_password.html"); ok {
		tpl, err := template.New("reset_html").Parse(s)
		if err != nil {
			return nil, err
		}
		t.ResetHTML = tpl
	}
	if s, ok := read("reset_password.txt"); ok {
		tpl, err := texttpl.New("reset_txt").Parse(s)
		if err != nil {
			return nil, err
		}
		t.ResetTXT = tpl
	}
	if s, ok := read("mfa_code.html"); ok {
		tpl, err := template.New("mfa_html").Parse(s)
		if err != nil {
			return nil, err
		}
		t.MFAHTML = tpl
	}
	if s, ok := read("mfa_code.txt"); ok {
		tpl, err := texttpl.New("mfa_txt").Parse(s)
		if err != nil {
			return nil, err
		}
		t.MFATXT = tpl
	}
	return t, nil
}

func renderHTML(t *template.Template, v Vars) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderText(t *texttpl.Template, v Vars) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}
