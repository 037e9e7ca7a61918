// CLAUDE:SUMMARY Tag-stack markup balance check over block content using the x/net/html tokenizer.
package validate

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// voidTags never take a closing tag and are skipped by the balance scan.
var voidTags = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// checkBalance runs a tag-stack scan over content and flags unmatched open
// or close tags. Self-closing and void tags are ignored.
func checkBalance(content string) []string {
	if !strings.Contains(content, "<") {
		return nil
	}

	var diags []string
	var stack []string
	z := html.NewTokenizer(strings.NewReader(content))

	for {
		switch z.Next() {
		case html.ErrorToken:
			for i := len(stack) - 1; i >= 0; i-- {
				diags = append(diags, fmt.Sprintf("unclosed <%s> tag", stack[i]))
			}
			return diags
		case html.StartTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if !voidTags[tag] {
				stack = append(stack, tag)
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if len(stack) > 0 && stack[len(stack)-1] == tag {
				stack = stack[:len(stack)-1]
				continue
			}
			// Out-of-order close: try to find it deeper in the stack.
			found := false
			for i := len(stack) - 1; i >= 0; i-- {
				if stack[i] == tag {
					diags = append(diags, fmt.Sprintf("unclosed <%s> tag", stack[len(stack)-1]))
					stack = append(stack[:i], stack[i+1:]...)
					found = true
					break
				}
			}
			if !found {
				diags = append(diags, fmt.Sprintf("unmatched closing </%s> tag", tag))
			}
		}
	}
}
