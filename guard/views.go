package guard

import (
	"bytes"
	"html/template"
)

// Terminal pages are complete, self-contained documents with exactly one
// recovery action each: return-to-home, resend-verification, or a login
// form. The guard never leaves a blank or half-rendered page, and raw
// diagnostics are kept out of user-facing markup.

const pageShell = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body{font-family:system-ui,sans-serif;background:#0b0e14;color:#e2e8f0;display:flex;align-items:center;justify-content:center;min-height:100vh;margin:0}
.card{background:#1e293b;border:1px solid rgba(255,255,255,.1);border-radius:12px;padding:2.5rem;max-width:26rem;text-align:center}
h1{font-size:1.5rem;margin:0 0 .75rem}
p{color:#94a3b8;margin:0 0 1.5rem}
a.button,button{display:inline-block;background:#0ea5e9;color:#fff;border:0;border-radius:8px;padding:.75rem 1.5rem;font-size:1rem;text-decoration:none;cursor:pointer}
input{width:100%;box-sizing:border-box;background:#0b0e14;border:1px solid rgba(255,255,255,.15);border-radius:8px;color:#e2e8f0;padding:.75rem;margin-bottom:1rem;font-size:1rem}
form{text-align:left}
</style>
</head>
<body>
<div class="card">
{{template "body" .}}
</div>
</body>
</html>`

var pageTemplates = map[string]*template.Template{
	"incomplete": mustPage(`{{define "body"}}
<h1>Workspace Incomplete</h1>
<p>{{.TenantName}} is currently inactive because the owner has not verified their email address.</p>
<form method="post" action="/tenants/resend-verification/{{.Subdomain}}">
<button type="submit">Resend Verification Email</button>
</form>
{{end}}`),

	"notfound": mustPage(`{{define "body"}}
<h1>Workspace not found</h1>
<p>There is no workspace at <strong>{{.Subdomain}}</strong>.</p>
<a class="button" href="{{.HomeURL}}">Go Home</a>
{{end}}`),

	"denied": mustPage(`{{define "body"}}
<h1>Access Denied</h1>
<p>You are logged in, but you do not have access to {{.TenantName}}.</p>
<a class="button" href="{{.HomeURL}}">Go Home</a>
{{end}}`),

	"restricted": mustPage(`{{define "body"}}
<h1>Workspace Restricted</h1>
<p>Access to <strong>{{.Subdomain}}</strong> is restricted.</p>
<a class="button" href="{{.HomeURL}}">Go Home</a>
{{end}}`),

	"login": mustPage(`{{define "body"}}
<h1>Sign in to {{.TenantName}}</h1>
<form method="post" action="/auth/login">
<input type="email" name="identifier" placeholder="Email" required>
<input type="password" name="password" placeholder="Password" required>
<button type="submit">Sign In</button>
</form>
{{end}}`),

	"error": mustPage(`{{define "body"}}
<h1>Something went wrong</h1>
<p>We could not load this workspace. Please try again later.</p>
<a class="button" href="{{.HomeURL}}">Go Home</a>
{{end}}`),
}

func mustPage(body string) *template.Template {
	t := template.Must(template.New("page").Parse(pageShell))
	return template.Must(t.Parse(body))
}

type pageData struct {
	Title      string
	TenantName string
	Subdomain  string
	HomeURL    string
}

func renderPage(name string, data pageData) (string, error) {
	var buf bytes.Buffer
	if err := pageTemplates[name].Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
