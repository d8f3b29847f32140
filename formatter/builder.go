package formatter

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/fatih/color"

	"github.com/gnolang/ruslic/internal/types"
	"github.com/gnolang/ruslic/pipeline"
)

var (
	errorStyle    = color.New(color.FgRed, color.Bold)
	warningStyle  = color.New(color.FgHiYellow, color.Bold)
	solvedStyle   = color.New(color.FgGreen, color.Bold)
	fnStyle       = color.New(color.FgCyan, color.Bold)
	lineStyle     = color.New(color.FgHiBlue, color.Bold)
	noteStyle     = color.New(color.FgYellow)
	solutionStyle = color.New(color.FgWhite)
)

// outcomeFormatter is implemented per outcome kind.
type outcomeFormatter interface {
	OutcomeTemplate() string
}

func getOutcomeFormatter(kind types.Kind) outcomeFormatter {
	switch kind {
	case types.KindSolved:
		return &SolvedFormatter{}
	default:
		return &GeneralOutcomeFormatter{}
	}
}

// GenerateFormattedOutcomes renders one block per outcome. Solutions of
// printAbove lines or fewer are left out.
func GenerateFormattedOutcomes(outcomes []pipeline.Outcome, printAbove int) string {
	var builder strings.Builder
	for _, o := range outcomes {
		builder.WriteString(buildOutcome(o, printAbove, getOutcomeFormatter(o.Result.Kind)))
	}
	return builder.String()
}

/***** Outcome Formatter Builder *****/

type OutcomeData struct {
	Fn        string
	Kind      types.Kind
	Trivial   bool
	Cached    bool
	Patched   bool
	Detail    string
	Solutions []types.Solution
	// Numbered is set when the goal has more than one solution.
	Numbered bool
}

func buildOutcome(o pipeline.Outcome, printAbove int, formatter outcomeFormatter) string {
	res := o.Result
	data := OutcomeData{
		Fn:      o.Fn,
		Kind:    res.Kind,
		Trivial: res.IsTrivial,
		Cached:  o.Cached,
		Patched: o.Patched,
		Detail:  detail(res),
	}
	if res.Kind == types.KindSolved {
		data.Numbered = len(res.Solved.Solutions) > 1
		for _, sln := range res.Solved.Solutions {
			if sln.Loc > printAbove {
				data.Solutions = append(data.Solutions, sln)
			}
		}
	}

	funcMap := template.FuncMap{
		"header":   header,
		"detail":   detailLine,
		"solution": solution,
	}

	tmpl := template.Must(template.New("outcome").Funcs(funcMap).Parse(formatter.OutcomeTemplate()))

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Sprintf("Error formatting outcome: %v", err)
	}
	return buf.String()
}

func detail(res types.SynthesisResult) string {
	switch res.Kind {
	case types.KindSolved:
		n := len(res.Solved.Solutions)
		plural := "s"
		if n == 1 {
			plural = ""
		}
		return fmt.Sprintf("%d solution%s in %dms", n, plural, res.Solved.ExecTime)
	case types.KindUnsolvable:
		return fmt.Sprintf("no solution, search exhausted after %dms", res.UnsolvableMs)
	case types.KindTimeout:
		return "timed out"
	case types.KindUnsupported:
		where := "a supporting signature"
		if res.Unsupported.InMain {
			where = "the function itself"
		}
		return fmt.Sprintf("%s in %s", res.Unsupported.Reason, where)
	}
	return ""
}

// utils functions used in the text templates

func header(kind types.Kind, fn string, trivial bool) string {
	var endString string
	switch kind {
	case types.KindSolved:
		endString = solvedStyle.Sprint("solved: ")
	case types.KindUnsupported:
		endString = warningStyle.Sprint("unsupported: ")
	default:
		endString = errorStyle.Sprintf("%s: ", strings.ToLower(kind.String()))
	}
	endString += fnStyle.Sprint(fn)
	if trivial {
		endString += noteStyle.Sprint(" (trivial)")
	}
	return endString + "\n"
}

func detailLine(detail string, cached, patched bool) string {
	var tags []string
	if cached {
		tags = append(tags, "cached")
	}
	if patched {
		tags = append(tags, "patched")
	}
	endString := lineStyle.Sprint(" --> ") + detail
	if len(tags) > 0 {
		endString += noteStyle.Sprintf(" [%s]", strings.Join(tags, ", "))
	}
	return endString + "\n"
}

func solution(sln types.Solution, numbered bool) string {
	var endString string
	if numbered {
		endString = lineStyle.Sprintf("[Solution #%d]\n", sln.Idx)
	}
	return endString + solutionStyle.Sprint(sln.Code)
}
