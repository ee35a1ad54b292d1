package ai

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are a document splitting assistant. You are given the page count of a PDF document, text sampled from some of its pages, and optional user guidance, and you propose how to split the document into logical parts.

Reply with a JSON array only, no prose and no markdown. Each element has the shape {"start": <first page>, "end": <last page>, "label": "<short title>"}. Pages are 1-based and both ends are inclusive. Every range must stay within the document and start must not exceed end.`

func userPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "DOCUMENT: %s\n", req.DocName)
	fmt.Fprintf(&b, "PAGE COUNT: %d\n\n", req.PageCount)
	if len(req.Excerpts) > 0 {
		b.WriteString("SAMPLED PAGE TEXT:\n")
		for _, e := range req.Excerpts {
			fmt.Fprintf(&b, "[page %d] %s\n", e.Page+1, e.Text)
		}
		b.WriteString("\n")
	}
	if req.Instructions != "" {
		fmt.Fprintf(&b, "USER GUIDANCE:\n%s\n\n", req.Instructions)
	}
	max := req.MaxSuggestions
	if max < 1 {
		max = 12
	}
	fmt.Fprintf(&b, "Propose at most %d ranges covering the document's logical structure.", max)
	return b.String()
}
