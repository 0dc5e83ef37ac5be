package model

import "testing"

func TestSplitMessage(t *testing.T) {
	tests := []struct {
		name      string
		message   string
		wantTitle string
		wantBody  string
	}{
		{
			name:      "title and body",
			message:   "Ticket #7 actualizado|||Cambió a en progreso",
			wantTitle: "Ticket #7 actualizado",
			wantBody:  "Cambió a en progreso",
		},
		{
			name:      "no delimiter means whole string is body",
			message:   "Bienvenido al portal de soporte",
			wantTitle: "",
			wantBody:  "Bienvenido al portal de soporte",
		},
		{
			name:      "splits on first occurrence only",
			message:   "a|||b|||c",
			wantTitle: "a",
			wantBody:  "b|||c",
		},
		{
			name:      "empty title",
			message:   "|||solo cuerpo",
			wantTitle: "",
			wantBody:  "solo cuerpo",
		},
		{
			name:      "empty message",
			message:   "",
			wantTitle: "",
			wantBody:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, body := SplitMessage(tt.message)
			if title != tt.wantTitle {
				t.Errorf("title = %q, want %q", title, tt.wantTitle)
			}
			if body != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
		})
	}
}

func TestNotificationTypeValid(t *testing.T) {
	for _, valid := range []NotificationType{
		NotificationTypeSuccess,
		NotificationTypeError,
		NotificationTypeInfo,
		NotificationTypeWarning,
	} {
		if !valid.Valid() {
			t.Errorf("%q should be valid", valid)
		}
	}

	for _, invalid := range []NotificationType{"", "fatal", "INFO"} {
		if invalid.Valid() {
			t.Errorf("%q should not be valid", invalid)
		}
	}
}
