package errors

import (
	"bytes"
	stderrors "errors"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "construction error",
			code:    "S001",
			wantMsg: "The input parameter must be an object",
			wantCat: CategoryConstruction,
		},
		{
			name:    "write error",
			code:    "S005",
			wantMsg: "Computed property cannot be updated",
			wantCat: CategoryWrite,
		},
		{
			name:    "config error",
			code:    "S008",
			wantMsg: "Configuration item is not supported",
			wantCat: CategoryConfig,
		},
		{
			name:    "unknown error code",
			code:    "S999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf("S003", "%q has not been initialized in the store", "a")
	if err.Message != `"a" has not been initialized in the store` {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Category != CategoryWrite {
		t.Errorf("Category = %q, want %q", err.Category, CategoryWrite)
	}
	if err.DocURL == "" {
		t.Error("Newf should keep the template DocURL")
	}
}

func TestError_Error(t *testing.T) {
	err := New("S010")
	if got := err.Error(); got != "S010: Store has been revoked" {
		t.Errorf("Error() = %q", got)
	}

	plain := &Error{Message: "no code"}
	if got := plain.Error(); got != "no code" {
		t.Errorf("Error() = %q, want %q", got, "no code")
	}
}

func TestError_Builders(t *testing.T) {
	err := New("S004").
		WithKey("inc").
		WithDetail("custom detail").
		WithSuggestion("do something else")

	if err.Key != "inc" {
		t.Errorf("Key = %q, want %q", err.Key, "inc")
	}
	if err.Detail != "custom detail" {
		t.Errorf("Detail = %q", err.Detail)
	}
	if err.Suggestion != "do something else" {
		t.Errorf("Suggestion = %q", err.Suggestion)
	}
}

func TestError_Wrap(t *testing.T) {
	sentinel := stderrors.New("sentinel")
	err := New("S003").Wrap(sentinel)

	if !stderrors.Is(err, sentinel) {
		t.Error("errors.Is should find the wrapped sentinel")
	}
	if err.Unwrap() != sentinel {
		t.Error("Unwrap should return the wrapped error")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "S001") != nil {
		t.Error("FromError(nil) should return nil")
	}

	original := New("S005")
	if FromError(original, "S001") != original {
		t.Error("FromError should return an *Error unchanged")
	}

	plain := stderrors.New("boom")
	wrapped := FromError(plain, "S011")
	if wrapped.Code != "S011" {
		t.Errorf("Code = %q, want S011", wrapped.Code)
	}
	if !stderrors.Is(wrapped, plain) {
		t.Error("FromError should wrap the original error")
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := Newf("S005", "%q is a computed property and cannot be updated", "total").
		WithKey("total")

	formatted := err.Format()

	for _, want := range []string{
		"ERROR S005:",
		`"total" is a computed property`,
		"key: total",
		"Hint:",
		"Learn more: https://sso.vango.dev/errors/S005",
	} {
		if !strings.Contains(formatted, want) {
			t.Errorf("Format() missing %q in:\n%s", want, formatted)
		}
	}
}

func TestFormatCompact(t *testing.T) {
	err := New("S004").WithKey("inc")
	want := "S004: Method cannot be updated [key=inc]"
	if got := err.FormatCompact(); got != want {
		t.Errorf("FormatCompact() = %q, want %q", got, want)
	}
}

func TestFormatJSON(t *testing.T) {
	json := New("S010").WithKey("count").FormatJSON()

	for _, want := range []string{
		`"code":"S010"`,
		`"category":"lifecycle"`,
		`"message":"Store has been revoked"`,
		`"key":"count"`,
	} {
		if !strings.Contains(json, want) {
			t.Errorf("FormatJSON() missing %s in %s", want, json)
		}
	}
}

func TestFprint(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var buf bytes.Buffer
	Fprint(&buf, New("S001"))
	if !strings.Contains(buf.String(), "ERROR S001:") {
		t.Errorf("Fprint(*Error) = %q", buf.String())
	}

	buf.Reset()
	Fprint(&buf, stderrors.New("plain failure"))
	if !strings.Contains(buf.String(), "ERROR: plain failure") {
		t.Errorf("Fprint(error) = %q", buf.String())
	}
}

func TestGetAllCodes(t *testing.T) {
	codes := GetAllCodes()
	if len(codes) == 0 {
		t.Fatal("GetAllCodes() should return codes")
	}
	for i := 1; i < len(codes); i++ {
		if codes[i-1] > codes[i] {
			t.Fatalf("codes not sorted: %v", codes)
		}
	}

	found := false
	for _, code := range codes {
		if code == "S010" {
			found = true
			break
		}
	}
	if !found {
		t.Error("S010 should be in the list")
	}
}

func TestGetTemplate(t *testing.T) {
	tmpl, ok := GetTemplate("S007")
	if !ok {
		t.Fatal("GetTemplate should find S007")
	}
	if tmpl.Category != CategoryConfig {
		t.Errorf("Category = %q, want %q", tmpl.Category, CategoryConfig)
	}

	if _, ok := GetTemplate("S999"); ok {
		t.Error("GetTemplate should not find S999")
	}
}

func TestRegister(t *testing.T) {
	Register("S999", ErrorTemplate{
		Category: CategoryCLI,
		Message:  "Test error",
	})
	defer delete(registry, "S999")

	err := New("S999")
	if err.Message != "Test error" {
		t.Errorf("Message = %q, want %q", err.Message, "Test error")
	}
}

func TestWrapText(t *testing.T) {
	got := wrapText("short text", 100)
	if len(got) != 1 || got[0] != "short text" {
		t.Errorf("wrapText short text: got %v", got)
	}

	got = wrapText("this is a longer text that should be wrapped", 20)
	if len(got) != 3 {
		t.Errorf("wrapText long text: expected 3 lines, got %d: %v", len(got), got)
	}

	got = wrapText("", 10)
	if len(got) != 0 {
		t.Errorf("wrapText empty: expected empty, got %v", got)
	}
}

func TestColorFunctions(t *testing.T) {
	EnableColors()
	if !strings.Contains(red("test"), "\033[31m") {
		t.Error("red should contain ANSI code when colors enabled")
	}

	DisableColors()
	if strings.Contains(red("test"), "\033[") {
		t.Error("red should not contain ANSI code when colors disabled")
	}
	EnableColors()
}
