package http

import (
	"html/template"
	"io"
)

type pageData struct {
	Question string
	Answer   string
	Citation string
	Error    string
	Answered bool
}

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Smartfinder customer assistant chatbot</title>
</head>
<body>
<h1>Smartfinder customer assistant chatbot</h1>
<p>A ai chatbot that can answer questions related to Smartfinder.store using a knowledge base.</p>
<form method="post" action="/">
<label for="question">Write your query</label>
<textarea id="question" name="question" rows="10" placeholder="Enter your query here..">{{.Question}}</textarea>
<button type="submit">Enter</button>
</form>
{{- if .Error}}
<div id="error" role="alert">{{.Error}}</div>
{{- end}}
{{- if .Answered}}
<div id="answer" style="white-space: pre-wrap">{{.Answer}}</div>
<h2>Source</h2>
<pre id="citation">{{.Citation}}</pre>
{{- end}}
</body>
</html>
`))

func renderPage(w io.Writer, data pageData) error {
	return pageTmpl.Execute(w, data)
}
