package ltpanel

import (
	"html/template"
	"io"
)

// View strings arrive sanitized; html/template escapes them again for
// their text or attribute context.
var panelTmpl = template.Must(template.New("panel").Parse(`<div id="ltpanel" data-status="{{.Status}}">
{{- if eq .Status "pending"}}
<div id="status">Checking…</div>
{{- else if eq .Status "failed"}}
<div id="status" class="error" data-kind="{{.Kind}}">{{.Message}}</div>
{{- else if eq .Status "notice"}}
<div id="status">{{.Message}}</div>
{{- else}}{{with .Model}}
{{- if .Summary.NoIssues}}
<p class="noErrorsFound">No errors found.</p>
{{- else}}
<p class="matchCount">{{.Summary.MatchCount}} {{if eq .Summary.MatchCount 1}}issue{{else}}issues{{end}} found.</p>
{{- end}}
{{- range .Entries}}
<div class="{{.Category}}Error" data-ruleid="{{.RuleID}}">
  <div class="message">{{.Message}}</div>
  <div class="errorArea">{{.ContextBefore}}<span class="error">{{.ErrorText}}</span>{{.ContextAfter}}</div>
  {{- if .Replacements}}
  <div class="replacements">
    {{- $e := .}}
    {{- range $i, $r := .Replacements}}
    {{- if $e.Actionable}}
    <a class="replacement" href="#" data-erroroffset="{{$e.ErrorOffset}}" data-errortext="{{$e.ErrorText}}" data-replacement="{{$r}}">{{$r}}</a>
    {{- else}}
    <span class="replacement">{{$r}}</span>
    {{- end}}
    {{- end}}
  </div>
  {{- end}}
  {{- if eq .Affordance.Kind "add-to-dictionary"}}
  <a class="addToDictionary" href="#" data-addtodict="{{.Affordance.Word}}" title="Add {{.Affordance.Word}} to the personal dictionary">+</a>
  {{- else}}
  <a class="turnOffRule" href="#" data-ruleidoff="{{.Affordance.RuleID}}" data-ruledescription="{{.Affordance.Description}}" title="Turn off this rule">×</a>
  {{- end}}
</div>
{{- end}}
{{- with .Summary.IgnoredRules}}
<div class="ignoredRules"><span class="ignoredRulesIntro">Ignored rules:</span>
{{- range $i, $r := .}}{{if $i}} &middot;{{end}}
<span class="ignoredRule"><a class="turnOnRuleLink" href="#" data-ruleidon="{{$r.ID}}" data-language="{{$r.Language}}">{{$r.Description}} ({{$r.Count}})</a></span>
{{- end}}
</div>
{{- end}}
<div class="summary">Language: <span lang="{{.Summary.Language}}">{{.Summary.LanguageName}}</span> · Text checked by {{.Summary.CheckedBy}}</div>
{{- if .Summary.ShowShortcutHint}}
<div id="shortcutHint"><a id="closeShortcutHint" href="#">Hide hint</a></div>
{{- end}}
{{- end}}{{end}}
</div>
`))

// RenderPanel writes v as an HTML fragment. Actionable replacements,
// suppression affordances and ignored-rule links carry data attributes
// that map one to one onto Action fields.
func RenderPanel(w io.Writer, v View) error {
	return panelTmpl.Execute(w, v)
}
