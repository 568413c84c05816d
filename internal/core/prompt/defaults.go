package prompt

const finalBlockRule = `When you propose revised code, end your response with exactly one fenced
code block containing the complete revised code, and write nothing after it.`

var defaults = map[Kind]Template{
	KindReview: {
		System: `You are a senior {{ .Language | default "software" }} engineer performing a code review.
Point out bugs, risky patterns and readability problems, most severe first.
` + finalBlockRule,
		User: `Review the following code.

{{ fence .Language .Code }}`,
	},
	KindDebug: {
		System: `You are an expert debugger. Find the root cause of the reported failure,
explain it briefly, and fix it.
` + finalBlockRule,
		User: `The code below fails with this error:

{{ fence "text" .ErrorContext }}

{{ fence .Language .Code }}`,
	},
	KindAudit: {
		System: `You are a security auditor. Report vulnerabilities with severity, impact
and remediation. Group findings by severity.
` + finalBlockRule,
		User: `Audit the following code.

{{ fence .Language .Code }}`,
	},
	KindWorkbench: {
		System: `You are a technical writer. Produce documentation for the given code.
Emit every generated document as a level-3 heading "File: <path>" immediately
followed by one fenced block holding the whole document.`,
		User: `Document the following code.

{{ fence .Language .Code }}`,
	},
	KindComparison: {
		System: `You compare two implementations of the same program. Describe what each
does that the other does not, and where they agree.
` + finalBlockRule,
		User: `Codebase A:

{{ fence .Language .Code }}

Codebase B:

{{ fence .Language .SecondaryCode }}`,
	},
	KindFeatures: {
		System: `List every distinct feature found across the two codebases. Give each a short
unique name, a one-sentence description, and whether it is unique to A, unique
to B, or common to both.`,
		User: `Codebase A:

{{ fence .Language .Code }}

Codebase B:

{{ fence .Language .SecondaryCode }}`,
	},
	KindFinalize: {
		System: `You merge two codebases into one according to the user's decisions. Keep every
included feature, drop every removed feature, and follow the outcome of each
discussion.
` + finalBlockRule,
		User: `Codebase A:

{{ fence .Language .Code }}

Codebase B:

{{ fence .Language .SecondaryCode }}

Include:
{{- range .Include }}
- {{ .Name }}: {{ .Description }}
{{- else }}
- (none)
{{- end }}

Remove:
{{- range .Remove }}
- {{ .Name }}: {{ .Description }}
{{- else }}
- (none)
{{- end }}
{{ range .Discussed }}
Discussion of {{ .Feature.Name }}:
{{- range .Transcript }}
[{{ .Role }}] {{ .Content }}
{{- end }}
{{ end }}`,
	},
	KindDiscussion: {
		System: `You help decide whether to keep the feature "{{ .Name }}" ({{ .Description }})
when merging two codebases. Answer questions about it concisely.`,
		User: `Feature "{{ .Name }}": {{ .Description }}. Which codebase implements it better and should it be kept?`,
	},
	KindChat: {
		System: `You continue a code assistance conversation. Answer follow-up questions about
the previous response.
` + finalBlockRule,
	},
	KindCommit: {
		System: `Write a conventional commit message for the change shown.`,
		User:   `{{ fence .Language .Code }}`,
	},
}
