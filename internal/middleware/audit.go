package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/launchdeck/launchdeck/backend/internal/services"
)

// AuditLog records write operations (POST/PUT/DELETE) to system_logs.
func AuditLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		// Only audit write operations
		if method != "POST" && method != "PUT" && method != "DELETE" {
			c.Next()
			return
		}

		// Capture request body (up to 2000 chars for Extra)
		var bodySnippet string
		if strings.HasPrefix(c.ContentType(), "multipart/") {
			bodySnippet = "[multipart upload]"
		} else if c.Request.Body != nil {
			bodyBytes, _ := io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			// Mask before truncating so a cut never exposes part of a secret
			bodySnippet = maskSensitiveFields(string(bodyBytes))
			if len(bodySnippet) > 2000 {
				bodySnippet = bodySnippet[:2000] + "...[truncated]"
			}
		}

		// Process the request
		c.Next()

		userID := GetUserID(c)
		email := GetEmail(c)
		ip := c.ClientIP()
		userAgent := c.Request.UserAgent()
		status := c.Writer.Status()

		module, action := parseRouteInfo(c.FullPath(), method)

		message := formatAuditMessage(email, method, c.Request.URL.Path, status)

		var uid *string
		if userID != "" {
			uid = &userID
		}
		var pid *string
		if projectID := c.Param("id"); projectID != "" {
			pid = &projectID
		}

		services.WriteAudit(services.AuditEntry{
			Module:    module,
			Action:    action,
			Message:   message,
			UserID:    uid,
			ProjectID: pid,
			IP:        ip,
			UserAgent: userAgent,
			Extra: map[string]interface{}{
				"method": method,
				"path":   c.Request.URL.Path,
				"status": status,
				"body":   bodySnippet,
				"audit":  true,
			},
		})
	}
}

// parseRouteInfo extracts module and action from a Gin route pattern.
// "/api/projects/:id/team-members" + "POST" gives module="Team Members", action="Create";
// "/api/projects/:id/publish" + "POST" gives module="Projects", action="Publish".
func parseRouteInfo(fullPath, method string) (module, action string) {
	path := strings.TrimPrefix(fullPath, "/api/")

	var segments []string
	for _, seg := range strings.Split(path, "/") {
		if seg != "" && !strings.HasPrefix(seg, ":") {
			segments = append(segments, seg)
		}
	}
	if len(segments) == 0 {
		return "Unknown", method
	}

	module = segments[0]
	verb := ""
	if len(segments) > 1 {
		last := segments[len(segments)-1]
		if _, ok := actionSegments[last]; ok {
			verb = actionSegments[last]
			if len(segments) > 2 {
				module = segments[len(segments)-2]
			}
		} else {
			module = last
		}
	}
	module = titleWords(strings.ReplaceAll(module, "-", " "))

	if verb != "" {
		return module, verb
	}
	switch method {
	case "POST":
		action = "Create"
	case "PUT":
		action = "Update"
	case "DELETE":
		action = "Delete"
	default:
		action = method
	}
	return module, action
}

var actionSegments = map[string]string{
	"publish":            "Publish",
	"publication":        "Toggle Publication",
	"scoring":            "Generate Scoring",
	"transfer-ownership": "Transfer Ownership",
	"login":              "Login",
	"logout":             "Logout",
	"register":           "Register",
	"refresh":            "Refresh",
	"change-password":    "Change Password",
}

func titleWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// formatAuditMessage creates a human-readable audit message.
func formatAuditMessage(actor, method, path string, status int) string {
	var b strings.Builder
	b.WriteString("[Audit] ")
	if actor == "" {
		actor = "anonymous"
	}
	b.WriteString(actor)
	b.WriteString(" ")
	b.WriteString(method)
	b.WriteString(" ")
	b.WriteString(path)
	b.WriteString(" → ")
	if status >= 200 && status < 300 {
		b.WriteString("OK")
	} else {
		b.WriteString("Failed")
	}
	return b.String()
}

var sensitiveKeyParts = []string{"password", "token", "secret", "apikey", "api_key"}

func isSensitiveKey(key string) bool {
	key = strings.ToLower(key)
	for _, part := range sensitiveKeyParts {
		if strings.Contains(key, part) {
			return true
		}
	}
	return false
}

// maskSensitiveFields masks every value whose key looks like a credential, at
// any depth. Bodies that are not JSON are not recorded.
func maskSensitiveFields(body string) string {
	if strings.TrimSpace(body) == "" {
		return body
	}
	var doc interface{}
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return "[non-JSON body omitted]"
	}
	masked, err := json.Marshal(maskValue(doc))
	if err != nil {
		return "[unencodable body omitted]"
	}
	return string(masked)
}

func maskValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		for k, inner := range val {
			if isSensitiveKey(k) {
				val[k] = "***"
			} else {
				val[k] = maskValue(inner)
			}
		}
		return val
	case []interface{}:
		for i, inner := range val {
			val[i] = maskValue(inner)
		}
		return val
	default:
		return v
	}
}
