package compiler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/agentops/pdpguard/pkg/spec"
)

var urlPattern = regexp.MustCompile(`https?://[^\s"'<>]+`)

// Fallback deterministically builds a Workflow from the literal URLs in a
// prompt, with fixed default assertions (price and Add-to-Cart) and a
// single default chat notification. It is the degraded path when the
// external compiler fails; no text generation is involved.
func Fallback(prompt string) (*spec.Workflow, error) {
	seen := make(map[string]bool)
	var urls []string
	for _, raw := range urlPattern.FindAllString(prompt, -1) {
		u := strings.TrimRight(raw, ".,;:)]}")
		if seen[u] {
			continue
		}
		seen[u] = true
		urls = append(urls, u)
		if len(urls) >= spec.DefaultMaxURLs {
			break
		}
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("fallback: no URLs found in prompt")
	}

	w := &spec.Workflow{
		Name: "PDP Guard (fallback)",
		Checks: []spec.Check{{
			Type:       spec.CheckTypePDP,
			Name:       "PDP Check",
			URLs:       urls,
			Assertions: spec.Assertions{Price: true, AddToCart: true},
		}},
		Actions: []spec.Action{{
			Type:     spec.ActionSlack,
			Channel:  "#ops-alerts",
			Template: "PDP Guard results",
		}},
	}
	w.ApplyDefaults()
	w.Normalize()
	return w, nil
}
