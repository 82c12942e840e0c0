package internal

import (
	"html/template"
	"io"

	"payfast/entity"
)

// the browser posts the hidden form to the gateway as soon as it loads
var remotePostTemplate = template.Must(template.New("remote_post").Parse(`<!DOCTYPE html>
<html>
<head><title>{{.Name}}</title></head>
<body onload="document.forms[0].submit()">
<form name="{{.Name}}" method="{{.Method}}" action="{{.Url}}">
{{- range .Fields}}
<input type="hidden" name="{{.Name}}" value="{{.Value}}">
{{- end}}
</form>
</body>
</html>
`))

func RenderRedirectForm(w io.Writer, form *entity.RedirectForm) error {
	return remotePostTemplate.Execute(w, form)
}
