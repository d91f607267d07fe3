package middleware

import (
	"strings"
	"testing"
)

func TestParseRouteInfo(t *testing.T) {
	tests := []struct {
		path   string
		method string
		module string
		action string
	}{
		{"/api/projects", "POST", "Projects", "Create"},
		{"/api/projects/:id", "PUT", "Projects", "Update"},
		{"/api/projects/:id", "DELETE", "Projects", "Delete"},
		{"/api/projects/:id/publish", "POST", "Projects", "Publish"},
		{"/api/projects/:id/publication", "POST", "Projects", "Toggle Publication"},
		{"/api/projects/:id/scoring", "POST", "Projects", "Generate Scoring"},
		{"/api/projects/:id/team-members", "POST", "Team Members", "Create"},
		{"/api/projects/:id/team-members/:memberID", "DELETE", "Team Members", "Delete"},
		{"/api/auth/login", "POST", "Auth", "Login"},
		{"", "POST", "Unknown", "POST"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			module, action := parseRouteInfo(tt.path, tt.method)
			if module != tt.module || action != tt.action {
				t.Errorf("parseRouteInfo(%q, %q) = (%q, %q), expected (%q, %q)",
					tt.path, tt.method, module, action, tt.module, tt.action)
			}
		})
	}
}

func TestMaskSensitiveFields(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		secrets []string
		kept    []string
	}{
		{"login", `{"email":"a@b.c","password":"hunter2"}`, []string{"hunter2"}, []string{"a@b.c"}},
		{"refresh", `{"refresh_token":"rt-SECRET"}`, []string{"rt-SECRET"}, nil},
		{"change password", `{"old_password":"OLDSECRET","new_password":"NEWSECRET"}`, []string{"OLDSECRET", "NEWSECRET"}, nil},
		{"nested and repeated", `{"a":{"Client_Secret":"s1"},"list":[{"token":"t1"},{"token":"t2"}],"name":"Rocket"}`,
			[]string{"s1", "t1", "t2"}, []string{"Rocket"}},
		{"non-string value", `{"api_key":12345,"force":true}`, []string{"12345"}, []string{"force"}},
		{"not json", `password=hunter2`, []string{"hunter2"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			masked := maskSensitiveFields(tt.body)
			for _, secret := range tt.secrets {
				if strings.Contains(masked, secret) {
					t.Errorf("%q leaked: %s", secret, masked)
				}
			}
			for _, kept := range tt.kept {
				if !strings.Contains(masked, kept) {
					t.Errorf("%q should be kept: %s", kept, masked)
				}
			}
		})
	}
}

func TestMaskSensitiveFields_Empty(t *testing.T) {
	if got := maskSensitiveFields(""); got != "" {
		t.Errorf("empty body = %q", got)
	}
}

func TestFormatAuditMessage(t *testing.T) {
	if got := formatAuditMessage("", "POST", "/api/projects", 201); !strings.Contains(got, "anonymous") || !strings.HasSuffix(got, "OK") {
		t.Errorf("unexpected message %q", got)
	}
	if got := formatAuditMessage("a@b.c", "DELETE", "/api/projects/x", 403); !strings.HasSuffix(got, "Failed") {
		t.Errorf("unexpected message %q", got)
	}
}
