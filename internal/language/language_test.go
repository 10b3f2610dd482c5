package language

import (
	"testing"
)

func TestDetector_Name(t *testing.T) {
	d := New()

	tests := []struct {
		name     string
		text     string
		wantLang string
		wantOK   bool
	}{
		{
			name:     "empty text",
			text:     "",
			wantLang: "",
			wantOK:   false,
		},
		{
			name:     "english note",
			text:     "The patient was admitted with chest pain and discharged after treatment.",
			wantLang: "English",
			wantOK:   true,
		},
		{
			name:     "spanish note",
			text:     "El paciente fue ingresado en el hospital con dolor torácico y fue dado de alta después del tratamiento.",
			wantLang: "Spanish",
			wantOK:   true,
		},
		{
			name:     "german note",
			text:     "Der Patient wurde mit Brustschmerzen aufgenommen und nach der Behandlung entlassen.",
			wantLang: "German",
			wantOK:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := d.Name(tt.text)
			if ok != tt.wantOK {
				t.Errorf("Name(%q) ok = %v, want %v", tt.text, ok, tt.wantOK)
				return
			}
			if ok && got != tt.wantLang {
				t.Errorf("Name(%q) = %q, want %q", tt.text, got, tt.wantLang)
			}
		})
	}
}

func TestDetector_IsEnglish(t *testing.T) {
	d := New()

	if !d.IsEnglish("The patient was discharged in stable condition after a period of observation.") {
		t.Error("expected English clinical text to pass")
	}
	if d.IsEnglish("El paciente fue ingresado en el hospital con dolor torácico y fue dado de alta después del tratamiento.") {
		t.Error("expected Spanish text to be flagged")
	}
	if !d.IsEnglish("") {
		t.Error("expected undetectable text to count as English")
	}
}
