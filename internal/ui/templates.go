package ui

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/me/quill/pkg/model"
)

// Template functions available in all templates.
var templateFuncs = template.FuncMap{
	"ago": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return humanize.Time(t)
	},
	"formatTime": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.Format("2006-01-02 15:04")
	},
	"roleLabel": func(r model.Role) string {
		return r.Label()
	},
	"statusColor": func(s model.PostStatus) string {
		if s == model.PostDraft {
			return "bg-yellow-100 text-yellow-800"
		}
		return "bg-green-100 text-green-800"
	},
}

// parsed holds each page joined with the layout, keyed by page name.
var parsed = func() map[string]*template.Template {
	out := make(map[string]*template.Template, len(templates))
	for name, content := range templates {
		if name == "layout" {
			continue
		}
		tmpl := template.Must(template.New("layout").Funcs(templateFuncs).Parse(templates["layout"]))
		template.Must(tmpl.New("content").Parse(content))
		out[name] = tmpl
	}
	return out
}()

// renderTemplate renders a page inside the layout.
func renderTemplate(w io.Writer, name string, data map[string]any) error {
	tmpl, ok := parsed[name]
	if !ok {
		return fmt.Errorf("template not found: %s", name)
	}
	return tmpl.Execute(w, data)
}

var templates = map[string]string{
	"layout": `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <script src="https://cdn.tailwindcss.com"></script>
</head>
<body class="bg-gray-50 min-h-screen">
    <nav class="bg-white shadow-sm border-b">
        <div class="max-w-5xl mx-auto px-4 flex justify-between h-16">
            <div class="flex items-center space-x-6">
                <a href="/" class="text-xl font-bold text-indigo-600">Quill</a>
                {{if .CanWrite}}
                <a href="/dashboard" class="text-sm text-gray-500 hover:text-gray-700">Dashboard</a>
                <a href="/posts/new" class="text-sm text-gray-500 hover:text-gray-700">New post</a>
                {{end}}
                {{if .IsAdmin}}
                <a href="/admin" class="text-sm text-gray-500 hover:text-gray-700">Admin</a>
                {{end}}
            </div>
            <div class="flex items-center">
                {{with .User}}
                <span class="text-sm text-gray-500 mr-4">{{.Name}} ({{roleLabel .Role}})</span>
                <form action="/logout" method="POST">
                    <button type="submit" class="text-sm text-gray-500 hover:text-gray-700">Logout</button>
                </form>
                {{else}}
                <a href="/login" class="text-sm text-indigo-600 hover:text-indigo-800">Login</a>
                <a href="/register" class="ml-4 text-sm text-gray-500 hover:text-gray-700">Register</a>
                {{end}}
            </div>
        </div>
    </nav>

    <main class="max-w-5xl mx-auto py-6 px-4">
        {{template "content" .}}
    </main>
</body>
</html>`,

	"login": `{{define "content"}}
<div class="max-w-md mx-auto mt-12 space-y-6">
    <h2 class="text-center text-3xl font-extrabold text-gray-900">Sign in</h2>
    {{if .Registered}}
    <div class="rounded-md bg-green-50 p-4" role="status">
        <div class="text-sm text-green-700">Registration successful! Please log in.</div>
    </div>
    {{end}}
    {{if .Error}}
    <div class="rounded-md bg-red-50 p-4" role="alert">
        <div class="text-sm text-red-700">{{.Error}}</div>
    </div>
    {{end}}
    <form class="space-y-4" action="/login" method="POST">
        <input id="email" name="email" type="email" required value="{{.Email}}"
               class="block w-full px-3 py-2 border border-gray-300 rounded-md" placeholder="Email">
        <input id="password" name="password" type="password" required
               class="block w-full px-3 py-2 border border-gray-300 rounded-md" placeholder="Password">
        <button type="submit" class="w-full py-2 px-4 rounded-md text-white bg-indigo-600 hover:bg-indigo-700">
            Sign in
        </button>
    </form>
</div>
{{end}}`,

	"home": `{{define "content"}}
<div class="flex justify-between items-center mb-6">
    <h1 class="text-2xl font-semibold text-gray-900">Posts</h1>
    <form action="/" method="GET">
        <select name="sort" onchange="this.form.submit()" class="border border-gray-300 rounded-md text-sm">
            <option value="date-desc" {{if eq .Sort "date-desc"}}selected{{end}}>Sort by Newest</option>
            <option value="alpha-asc" {{if eq .Sort "alpha-asc"}}selected{{end}}>Sort Alphabetically</option>
        </select>
    </form>
</div>
{{if .Posts}}
<ul class="space-y-4">
    {{range .Posts}}
    <li class="bg-white shadow rounded-lg p-4">
        <a href="/posts/{{.ID}}" class="text-lg font-medium text-indigo-600 hover:underline">{{.Title}}</a>
        <p class="text-sm text-gray-500">by {{.Author}}, {{ago .CreatedAt}}</p>
    </li>
    {{end}}
</ul>
{{else}}
<p class="text-gray-500">No posts yet.</p>
{{end}}
{{end}}`,

	"register": `{{define "content"}}
<div class="max-w-md mx-auto mt-12 space-y-6">
    <h2 class="text-center text-3xl font-extrabold text-gray-900">Create an account</h2>
    {{if .Error}}
    <div class="rounded-md bg-red-50 p-4" role="alert">
        <div class="text-sm text-red-700">{{.Error}}</div>
    </div>
    {{end}}
    <form class="space-y-4" action="/register" method="POST">
        <input id="name" name="name" type="text" required value="{{.Name}}"
               class="block w-full px-3 py-2 border border-gray-300 rounded-md" placeholder="Full name">
        <input id="email" name="email" type="email" required value="{{.Email}}"
               class="block w-full px-3 py-2 border border-gray-300 rounded-md" placeholder="Email">
        <input id="password" name="password" type="password" required
               class="block w-full px-3 py-2 border border-gray-300 rounded-md" placeholder="Password">
        <select id="role" name="role" class="block w-full px-3 py-2 border border-gray-300 rounded-md">
            {{$cur := .Role}}
            {{range .Roles}}
            <option value="{{.}}" {{if eq (print .) $cur}}selected{{end}}>{{roleLabel .}}</option>
            {{end}}
        </select>
        <button type="submit" class="w-full py-2 px-4 rounded-md text-white bg-indigo-600 hover:bg-indigo-700">
            Register
        </button>
    </form>
    <p class="text-center text-sm">Already have an account? <a href="/login" class="text-indigo-600">Log in</a></p>
</div>
{{end}}`,

	"post": `{{define "content"}}
{{with .Post}}
<article class="bg-white shadow rounded-lg p-6">
    <h1 class="text-2xl font-semibold text-gray-900">{{.Title}}</h1>
    <p class="text-sm text-gray-500 mb-4">by {{.Author}}, {{formatTime .CreatedAt}}
        <span class="ml-2 px-2 rounded-full text-xs {{statusColor .Status}}">{{.Status}}</span></p>
    <div class="prose whitespace-pre-line">{{.Content}}</div>
</article>
{{end}}
{{if .CanWrite}}
<div class="mt-4 flex space-x-4">
    <a href="/posts/{{.Post.ID}}/edit" class="text-sm text-indigo-600">Edit</a>
    <form action="/posts/{{.Post.ID}}/delete" method="POST">
        <button type="submit" class="text-sm text-red-600">Delete</button>
    </form>
</div>
{{end}}
<section class="mt-8">
    <h2 class="text-lg font-medium text-gray-900 mb-2">Comments</h2>
    {{range .Comments}}
    <div class="border-b py-2">
        <p class="text-sm text-gray-700">{{.Content}}</p>
        <p class="text-xs text-gray-500">{{.Author}}, {{ago .CreatedAt}}</p>
    </div>
    {{else}}
    <p class="text-sm text-gray-500">No comments yet.</p>
    {{end}}
    {{if .CanComment}}
    <form action="/posts/{{.Post.ID}}/comments/new" method="POST" class="mt-4 space-y-2">
        <textarea name="content" rows="3" class="block w-full border border-gray-300 rounded-md p-2"></textarea>
        <button type="submit" class="py-1 px-3 rounded-md text-white bg-indigo-600">Comment</button>
    </form>
    {{else}}
    <p class="mt-4 text-sm"><a href="/login" class="text-indigo-600">Log in</a> to comment.</p>
    {{end}}
</section>
{{end}}`,

	"post_form": `{{define "content"}}
<h1 class="text-2xl font-semibold text-gray-900 mb-6">{{if .Post.ID}}Edit post{{else}}New post{{end}}</h1>
{{if .Error}}
<div class="rounded-md bg-red-50 p-4 mb-4" role="alert">
    <div class="text-sm text-red-700">{{.Error}}</div>
</div>
{{end}}
<form method="POST" action="{{if .Post.ID}}/posts/{{.Post.ID}}/edit{{else}}/posts/new{{end}}" class="space-y-4">
    <input name="title" value="{{.Post.Title}}" placeholder="Title" class="block w-full px-3 py-2 border border-gray-300 rounded-md">
    <textarea name="content" rows="12" class="block w-full px-3 py-2 border border-gray-300 rounded-md">{{.Post.Content}}</textarea>
    <select name="status" class="border border-gray-300 rounded-md px-2 py-1">
        <option value="PUBLISHED" {{if eq .Post.Status "PUBLISHED"}}selected{{end}}>Published</option>
        <option value="DRAFT" {{if eq .Post.Status "DRAFT"}}selected{{end}}>Draft</option>
    </select>
    <button type="submit" class="py-2 px-4 rounded-md text-white bg-indigo-600">Save</button>
</form>
{{end}}`,

	"dashboard": `{{define "content"}}
<div class="mb-8">
    <h1 class="text-2xl font-semibold text-gray-900">Dashboard</h1>
    <p class="mt-1 text-sm text-gray-500">Welcome back, {{.User.Name}}</p>
</div>
<div class="grid grid-cols-2 gap-5 mb-8">
    <div class="bg-white shadow rounded-lg p-4">
        <p class="text-sm text-gray-500">Published</p>
        <p class="text-2xl font-semibold">{{.Published}}</p>
    </div>
    <div class="bg-white shadow rounded-lg p-4">
        <p class="text-sm text-gray-500">Drafts</p>
        <p class="text-2xl font-semibold">{{.Drafts}}</p>
    </div>
</div>
<table class="min-w-full bg-white shadow rounded-lg">
    <thead><tr class="text-left text-xs text-gray-500 uppercase">
        <th class="px-4 py-2">Title</th><th class="px-4 py-2">Status</th><th class="px-4 py-2">Created</th><th></th>
    </tr></thead>
    <tbody>
    {{range .Posts}}
    <tr class="border-t">
        <td class="px-4 py-2"><a href="/posts/{{.ID}}" class="text-indigo-600">{{.Title}}</a></td>
        <td class="px-4 py-2"><span class="px-2 rounded-full text-xs {{statusColor .Status}}">{{.Status}}</span></td>
        <td class="px-4 py-2 text-sm text-gray-500">{{ago .CreatedAt}}</td>
        <td class="px-4 py-2"><a href="/posts/{{.ID}}/edit" class="text-sm text-indigo-600">Edit</a></td>
    </tr>
    {{else}}
    <tr><td class="px-4 py-2 text-gray-500" colspan="4">You have not written any posts.</td></tr>
    {{end}}
    </tbody>
</table>
{{end}}`,

	"admin": `{{define "content"}}
<h1 class="text-2xl font-semibold text-gray-900 mb-6">Users</h1>
<table class="min-w-full bg-white shadow rounded-lg">
    <thead><tr class="text-left text-xs text-gray-500 uppercase">
        <th class="px-4 py-2">Name</th><th class="px-4 py-2">Email</th><th class="px-4 py-2">Role</th><th></th>
    </tr></thead>
    <tbody>
    {{$me := .User}}
    {{$roles := .Roles}}
    {{range .Users}}
    <tr class="border-t">
        <td class="px-4 py-2">{{.Name}}</td>
        <td class="px-4 py-2 text-sm text-gray-500">{{.Email}}</td>
        <td class="px-4 py-2">
            <form action="/admin/users/{{.ID}}/role" method="POST">
                {{$current := .Role}}
                <select name="role" class="border border-gray-300 rounded-md px-2 py-1">
                    {{range $roles}}<option value="{{.}}" {{if eq . $current}}selected{{end}}>{{roleLabel .}}</option>{{end}}
                </select>
                <button type="submit" class="text-sm text-indigo-600">Save</button>
            </form>
        </td>
        <td class="px-4 py-2">
            {{if ne .ID $me.ID}}
            <form action="/admin/users/{{.ID}}/delete" method="POST">
                <button type="submit" class="text-sm text-red-600">Delete</button>
            </form>
            {{end}}
        </td>
    </tr>
    {{end}}
    </tbody>
</table>
{{end}}`,

	"error": `{{define "content"}}
<div class="bg-white shadow rounded-lg p-6">
    <h1 class="text-xl font-semibold text-red-700">{{.Message}}</h1>
    {{if .Detail}}<p class="mt-2 text-sm text-gray-600">{{.Detail}}</p>{{end}}
    <a href="/" class="mt-4 inline-block text-sm text-indigo-600">Back to posts</a>
</div>
{{end}}`,
}
