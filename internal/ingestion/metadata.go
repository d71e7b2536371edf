package ingestion

import (
	"net/url"
	"path"
	"strings"
)

// InferredMetadata holds the topic and doc type inferred from a source
// location's structure. Explicit CLI flags take precedence over inferred
// values; this is the best-effort fallback when the user doesn't specify
// metadata.
type InferredMetadata struct {
	// Topic is the subject label derived from the source host or filename.
	Topic string
	// DocType classifies the document kind (paper, encyclopedia, article,
	// reference, note).
	DocType string
}

// hostDocTypes maps well-known documentation hosts to a doc type.
var hostDocTypes = map[string]string{
	"arxiv.org":            "paper",
	"www.arxiv.org":        "paper",
	"en.wikipedia.org":     "encyclopedia",
	"wikipedia.org":        "encyclopedia",
	"github.com":           "reference",
	"pkg.go.dev":           "reference",
	"news.ycombinator.com": "article",
}

// InferMetadata inspects the source location and returns best-effort
// metadata. If the location doesn't match any known pattern the returned
// fields contain sensible defaults ("general", "note" for files,
// "article" for URLs).
func InferMetadata(location string) InferredMetadata {
	if !isRemote(location) {
		return inferFromFile(location)
	}

	m := InferredMetadata{Topic: "general", DocType: "article"}

	parsed, err := url.Parse(location)
	if err != nil {
		return m
	}

	host := strings.ToLower(parsed.Hostname())
	if dt, ok := hostDocTypes[host]; ok {
		m.DocType = dt
	} else if strings.HasPrefix(host, "docs.") || strings.Contains(host, "readthedocs") {
		m.DocType = "reference"
	}

	// The first meaningful path segment usually names the subject, e.g.
	// en.wikipedia.org/wiki/Retrieval-augmented_generation.
	if topic := topicFromPath(parsed.Path); topic != "" {
		m.Topic = topic
	}

	return m
}

func inferFromFile(location string) InferredMetadata {
	m := InferredMetadata{Topic: "general", DocType: "note"}

	base := path.Base(strings.ReplaceAll(location, "\\", "/"))
	ext := strings.ToLower(path.Ext(base))
	switch ext {
	case ".md", ".markdown":
		m.DocType = "note"
	case ".txt", ".text":
		m.DocType = "note"
	case ".html", ".htm":
		m.DocType = "article"
	}

	if name := strings.TrimSuffix(base, ext); name != "" && name != "." {
		m.Topic = normalizeTopic(name)
	}
	return m
}

// topicFromPath picks the last non-empty path segment and normalises it
// into a topic label.
func topicFromPath(p string) string {
	segments := strings.Split(p, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		seg := strings.TrimSpace(segments[i])
		if seg == "" || seg == "wiki" || seg == "docs" || seg == "abs" || seg == "pdf" {
			continue
		}
		// Strip page extensions but leave dotted IDs (arXiv) intact.
		switch ext := path.Ext(seg); ext {
		case ".html", ".htm", ".md", ".txt", ".pdf":
			seg = strings.TrimSuffix(seg, ext)
		}
		return normalizeTopic(seg)
	}
	return ""
}

func normalizeTopic(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "_", "-")
	s = strings.ReplaceAll(s, " ", "-")
	return strings.Trim(s, "-")
}
