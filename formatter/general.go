package formatter

type GeneralOutcomeFormatter struct{}

func (f *GeneralOutcomeFormatter) OutcomeTemplate() string {
	return `{{header .Kind .Fn .Trivial -}}
{{detail .Detail .Cached .Patched}}
`
}

type SolvedFormatter struct{}

func (f *SolvedFormatter) OutcomeTemplate() string {
	return `{{header .Kind .Fn .Trivial -}}
{{detail .Detail .Cached .Patched -}}
{{range .Solutions}}{{solution . $.Numbered}}{{end}}
`
}
