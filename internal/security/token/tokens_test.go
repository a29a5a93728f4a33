package tokens

import (
	"strings"
	"testing"
)

func TestGenerateOpaqueToken(t *testing.T) {
	a, err := GenerateOpaqueToken(32)
	if err != nil {
		t.Fatalf("GenerateOpaqueToken err: %v", err)
	}
	b, err := GenerateOpaqueToken(32)
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatalf("dos tokens identicos")
	}
	// base64url sin padding: apto para URLs sin escaping
	if strings.ContainsAny(a, "+/=") {
		t.Fatalf("token con caracteres no url-safe: %q", a)
	}
	// 32 bytes -> 43 chars base64url sin padding
	if len(a) != 43 {
		t.Fatalf("largo inesperado %d para 32 bytes", len(a))
	}
}

func TestGenerateNumericCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := GenerateNumericCode(6)
		if err != nil {
			t.Fatalf("GenerateNumericCode err: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("codigo %q de largo %d, esperaba 6", code, len(code))
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("codigo %q con caracter no numerico", code)
			}
		}
	}
}

func TestGenerateBackupCode_Format(t *testing.T) {
	code, err := GenerateBackupCode()
	if err != nil {
		t.Fatalf("GenerateBackupCode err: %v", err)
	}
	// 10 bytes -> 16 chars base32 -> 4 grupos de 4
	parts := strings.Split(code, "-")
	if len(parts) != 4 {
		t.Fatalf("codigo %q con %d grupos, esperaba 4", code, len(parts))
	}
	for _, p := range parts {
		if len(p) != 4 {
			t.Fatalf("grupo %q de largo %d", p, len(p))
		}
	}
}

func TestNormalizeBackupCode(t *testing.T) {
	cases := []struct{ in, want string }{
		{"a2qx-9plm-zz7k-q4rt", "A2QX9PLMZZ7KQ4RT"},
		{"  A2QX 9PLM ZZ7K Q4RT  ", "A2QX9PLMZZ7KQ4RT"},
		{"A2QX9PLMZZ7KQ4RT", "A2QX9PLMZZ7KQ4RT"},
	}
	for _, c := range cases {
		if got := NormalizeBackupCode(c.in); got != c.want {
			t.Fatalf("NormalizeBackupCode(%q) = %q, want %q", c.in, got, c.want)
		}
	}

	// generar -> normalizar es estable
	code, err := GenerateBackupCode()
	if err != nil {
		t.Fatal(err)
	}
	n1 := NormalizeBackupCode(code)
	n2 := NormalizeBackupCode(strings.ToLower(code))
	if n1 != n2 {
		t.Fatalf("normalizacion inestable: %q vs %q", n1, n2)
	}
}

func TestSHA256Base64URL(t *testing.T) {
	// digest estable y url-safe
	got := SHA256Base64URL("hello")
	want := "LPJNul-wow4m6DsqxbninhsWHlwfp0JecwQzYpOLmCQ"
	if got != want {
		t.Fatalf("SHA256Base64URL(hello) = %q, want %q", got, want)
	}
	if SHA256Base64URL("a") == SHA256Base64URL("b") {
		t.Fatalf("colision trivial")
	}
}
