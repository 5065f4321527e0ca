package learner

import "regexp"

// DefaultRequestType is used when no category pattern matches.
const DefaultRequestType = "admin"

// typePatterns maps request categories to the regexps that identify them.
// Order matters: the first matching category wins.
var typePatterns = []struct {
	category string
	patterns []*regexp.Regexp
}{
	{
		"debug",
		[]*regexp.Regexp{
			regexp.MustCompile(`(?i)(error|bug|crash|panic|traceback|debug)`),
			regexp.MustCompile(`(?i)(fix|fail|broken|doesn'?t work|not working)`),
		},
	},
	{
		"feature",
		[]*regexp.Regexp{
			regexp.MustCompile(`(?i)(implement|add|create|build)`),
			regexp.MustCompile(`(?i)(feature|new endpoint|new command)`),
		},
	},
	{
		"question",
		[]*regexp.Regexp{
			regexp.MustCompile(`(?i)(what|how|why|explain)`),
			regexp.MustCompile(`\?$`),
		},
	},
	{
		"brainstorm",
		[]*regexp.Regexp{
			regexp.MustCompile(`(?i)(idea|design|plan|structure|architecture)`),
			regexp.MustCompile(`(?i)(suggest|recommend|trade-?off)`),
		},
	},
}

// ClassifyRequest maps request text to a category label. Classification is
// local pattern matching; no external call is made.
func ClassifyRequest(text string) string {
	for _, tp := range typePatterns {
		for _, pat := range tp.patterns {
			if pat.MatchString(text) {
				return tp.category
			}
		}
	}
	return DefaultRequestType
}
